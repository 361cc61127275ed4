// Package spiegel is novaprova's introspection layer: it loads the DWARF
// debug information of the running process (and any other ELF file the
// caller points it at), indexes it by address, and answers questions like
// "what function owns this address" and "what is this symbol's fully
// qualified name".
package spiegel

import (
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gregbanks/novaprova/pkg/spiegel/addrindex"
	dw "github.com/gregbanks/novaprova/pkg/spiegel/dwarf"
	"github.com/gregbanks/novaprova/pkg/spiegel/platform"
	"github.com/gregbanks/novaprova/pkg/utils"
)

// open tracks whether a State is currently live in this process. novaprova
// only ever needs one at a time (it introspects the one process it's
// running in), so a single guarded flag takes the place of a full registry.
var open atomic.Bool

// State is the process-wide introspection handle: every link object it has
// loaded, plus the address index built from them once PrepareAddressIndex
// has been called.
type State struct {
	linkObjs  []*LinkObj
	addrIndex *addrindex.Tree[indexedFunc]
}

// NewState opens a new introspection state. It fails if one is already
// open in this process.
func NewState() (*State, error) {
	if !open.CompareAndSwap(false, true) {
		return nil, utils.MakeError(ErrAlreadyOpen, "")
	}
	return &State{}, nil
}

// Close releases the process-wide guard, allowing a subsequent NewState.
func (s *State) Close() {
	open.Store(false)
}

// LinkObjs returns every link object currently loaded.
func (s *State) LinkObjs() []*LinkObj {
	out := make([]*LinkObj, len(s.linkObjs))
	copy(out, s.linkObjs)
	return out
}

// AddSelf loads the debug information of the currently running executable.
func (s *State) AddSelf() error {
	exe, err := platform.SelfExe()
	if err != nil {
		return err
	}
	return s.AddExecutable(exe)
}

// AddExecutable loads the debug information of an arbitrary ELF file.
func (s *State) AddExecutable(path string) error {
	mappings, _ := platform.SelfMaps() // best-effort; bias stays 0 if unavailable
	lo, err := loadLinkObj(path, mappings)
	if err != nil {
		return err
	}
	s.linkObjs = append(s.linkObjs, lo)
	return nil
}

// GetLinkObj returns the already-loaded link object for path, if any.
func (s *State) GetLinkObj(path string) (*LinkObj, bool) {
	for _, lo := range s.linkObjs {
		if lo.Path == path {
			return lo, true
		}
	}
	return nil, false
}

// ReadLinkObjs loads every ELF object currently mapped into the process
// (the executable and its shared libraries), skipping anything already
// loaded, anything under one of the systemPrefixes, and anything that
// doesn't look like a regular file-backed ELF mapping (the vDSO, anonymous
// mappings, deleted files).
func (s *State) ReadLinkObjs() error {
	mappings, err := platform.SelfMaps()
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(s.linkObjs))
	for _, lo := range s.linkObjs {
		seen[lo.Path] = true
	}

	for _, m := range mappings {
		if m.Path == "" || seen[m.Path] || !looksLikeObjectPath(m.Path) {
			continue
		}
		seen[m.Path] = true
		if err := s.AddExecutable(m.Path); err != nil {
			// Not every mapped file is a parseable ELF object with debug
			// info (fonts, data files mapped by a library, stripped
			// system libraries); skip rather than fail the whole scan.
			continue
		}
	}
	return nil
}

// systemPrefixes is the fixed set add_self filters out: system-owned
// objects (the C library, the dynamic loader, the vDSO) that are
// overwhelmingly unlikely to carry the debug info a test binary cares
// about, and expensive to parse for no benefit when they don't.
var systemPrefixes = []string{
	"/bin/", "/lib/", "/lib64/", "/usr/bin/", "/usr/lib/", "/opt/",
	"linux-gate.so", "linux-vdso.so",
}

func looksLikeObjectPath(path string) bool {
	if strings.HasPrefix(path, "[") || strings.Contains(path, " (deleted)") {
		return false
	}
	for _, prefix := range systemPrefixes {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return filepath.IsAbs(path)
}

// dwUnits is a convenience for iterating every compile unit across every
// loaded link object, paired with the link object that owns it.
func (s *State) dwUnits(visit func(*LinkObj, *dw.CompileUnit) error) error {
	for _, lo := range s.linkObjs {
		if lo.Units == nil {
			continue
		}
		for _, cu := range lo.Units.List {
			if err := visit(lo, cu); err != nil {
				return err
			}
		}
	}
	return nil
}
