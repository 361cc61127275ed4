package spiegel

import (
	"debug/elf"

	dw "github.com/gregbanks/novaprova/pkg/spiegel/dwarf"
	"github.com/gregbanks/novaprova/pkg/spiegel/platform"
	"github.com/gregbanks/novaprova/pkg/utils"
)

// LinkObj is one ELF object (the main executable, or a shared library)
// contributing debug information to an introspection State. It owns the
// object's compile units and knows the runtime bias to apply to the
// link-time addresses DWARF records, so callers never have to reason about
// PIE/ASLR themselves.
type LinkObj struct {
	Path  string
	Base  uint64 // runtime load bias: link-time address + Base = runtime address
	Units *dw.UnitSet

	ranges     []byte
	pltLo      uint64
	pltHi      uint64
	pltEntSize uint64
}

// Runtime converts a link-time (DWARF-recorded) address to the address it
// is actually loaded at in this process.
func (lo *LinkObj) Runtime(linkAddr uint64) uint64 { return linkAddr + lo.Base }

// LinkTime converts a runtime address back to the link-time address DWARF
// uses, the inverse of Runtime.
func (lo *LinkObj) LinkTime(runtimeAddr uint64) uint64 { return runtimeAddr - lo.Base }

// InPLT reports whether a link-time address falls within this object's
// .plt section, and hence needs platform.NormaliseAddress before it's
// useful as an interception target.
func (lo *LinkObj) InPLT(linkAddr uint64) bool {
	return lo.pltLo != 0 && linkAddr >= lo.pltLo && linkAddr < lo.pltHi
}

// loadLinkObj opens path as an ELF file, decodes its DWARF sections, and
// computes its runtime load bias from the process's own memory map
// (mappings may be nil, e.g. in tests against a plain file, in which case
// Base stays 0 — correct for non-PIE executables and acceptable for
// offline analysis of a binary that is not the one actually running).
//
// This reads section contents with debug/elf's Section.Data() rather than
// replicating the original's hand-rolled mmap-and-coalesce section mapper:
// Go's os/file layer already caches the underlying reads, and nothing in
// this port needs the private-writable-mapping trick the original used to
// let its DWARF reader treat section bytes as directly addressable memory.
func loadLinkObj(path string, mappings []platform.Mapping) (*LinkObj, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, utils.MakeError(ErrNoDebugInfo, "opening %s: %v", path, err)
	}
	defer f.Close()

	info := sectionData(f, ".debug_info")
	if info == nil {
		return nil, utils.MakeError(ErrNoDebugInfo, "%s has no .debug_info section", path)
	}
	abbrev := sectionData(f, ".debug_abbrev")
	str := sectionData(f, ".debug_str")
	ranges := sectionData(f, ".debug_ranges")

	units, err := dw.ParseUnitSet(info, abbrev, str)
	if err != nil {
		return nil, err
	}

	lo := &LinkObj{
		Path:   path,
		Base:   loadBias(f, mappings, path),
		Units:  units,
		ranges: ranges,
	}

	if plt := f.Section(".plt"); plt != nil {
		lo.pltLo = plt.Addr
		lo.pltHi = plt.Addr + plt.Size
		lo.pltEntSize = plt.Entsize
	}

	return lo, nil
}

func sectionData(f *elf.File, name string) []byte {
	sec := f.Section(name)
	if sec == nil {
		return nil
	}
	data, err := sec.Data()
	if err != nil {
		return nil
	}
	return data
}

// loadBias finds the lowest PT_LOAD segment's virtual address and compares
// it against where the kernel actually mapped the start of the file, to
// recover the ASLR/PIE load bias. It returns 0 (no bias) for a
// non-position-independent executable, or when mappings carries no entry
// for path (the object is being analysed offline, not as a running
// process).
func loadBias(f *elf.File, mappings []platform.Mapping, path string) uint64 {
	if f.Type != elf.ET_DYN {
		return 0
	}

	var firstLoadVAddr uint64 = ^uint64(0)
	for _, prog := range f.Progs {
		if prog.Type == elf.PT_LOAD && prog.Vaddr < firstLoadVAddr {
			firstLoadVAddr = prog.Vaddr
		}
	}
	if firstLoadVAddr == ^uint64(0) {
		return 0
	}

	for _, m := range mappings {
		if m.Path == path && m.FileOffset == 0 {
			return m.Lo - firstLoadVAddr
		}
	}
	return 0
}
