package intercept

import (
	"sync"

	"github.com/gregbanks/novaprova/pkg/utils"
)

// Handle identifies one handler's registration at one target, returned by
// Install and consumed by Uninstall. It carries no exported fields: callers
// treat it as an opaque token, matching the spec's per-handler reference
// counting without requiring Handler values to be comparable.
type Handle struct {
	target uintptr
	id     int
}

// Engine owns every currently-installed intercept in the process. The spec
// assumes a single-threaded mutator during install/uninstall (these happen
// between fork and test-body entry, and after test-body exit); the mutex
// here is cheap insurance, not a concurrency feature this engine advertises.
type Engine struct {
	mu       sync.Mutex
	installs map[uintptr]*installation
	patcher  Patcher
	armed    bool
}

// NewEngine returns an Engine that patches text through patcher.
func NewEngine(patcher Patcher) *Engine {
	return &Engine{
		installs: make(map[uintptr]*installation),
		patcher:  patcher,
	}
}

// Install arranges for h to run the next time control reaches target. The
// first handler registered at a target patches the entry byte; subsequent
// handlers at the same target append to its chain without touching memory
// again.
func (e *Engine) Install(target uintptr, h Handler) (Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	in, ok := e.installs[target]
	if !ok {
		original, err := e.patcher.ReadByte(target)
		if err != nil {
			return Handle{}, utils.MakeError(ErrInstallFailed, "reading target %#x: %v", target, err)
		}
		if err := e.patcher.WriteByte(target, int3); err != nil {
			return Handle{}, utils.MakeError(ErrInstallFailed, "writing breakpoint at %#x: %v", target, err)
		}
		in = &installation{target: target, original: original, prologue: classify(original)}
		e.installs[target] = in
		e.armed = true
	}

	id := in.add(h)
	return Handle{target: target, id: id}, nil
}

// Uninstall releases the handler identified by h. When it was the last
// handler registered at its target, the original byte is restored and the
// target's installation entry is dropped.
func (e *Engine) Uninstall(h Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	in, ok := e.installs[h.target]
	if !ok || !in.remove(h.id) {
		return utils.MakeError(ErrInstallFailed, "no registration %v at %#x", h.id, h.target)
	}
	if in.refcount() > 0 {
		return nil
	}

	delete(e.installs, h.target)
	if len(e.installs) == 0 {
		e.armed = false
	}

	current, err := e.patcher.ReadByte(h.target)
	if err != nil {
		return utils.MakeError(ErrInstallFailed, "reading target %#x on uninstall: %v", h.target, err)
	}
	if current != int3 {
		// Something else patched this address since we wrote the
		// breakpoint; restore the original byte anyway and report.
		_ = e.patcher.WriteByte(h.target, in.original)
		return utils.MakeError(ErrMismatch, "target %#x held %#x, not the installed breakpoint", h.target, current)
	}
	if err := e.patcher.WriteByte(h.target, in.original); err != nil {
		return utils.MakeError(ErrInstallFailed, "restoring original byte at %#x: %v", h.target, err)
	}
	return nil
}

// Armed reports whether at least one target is currently intercepted (and
// hence, in a real deployment, the process-wide SIGTRAP handler would need
// to stay installed).
func (e *Engine) Armed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.armed
}

// Installed reports how many distinct targets currently carry an
// installation, for diagnostics and tests.
func (e *Engine) Installed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.installs)
}

// Dispatch simulates the trap handler described in the spec: given the
// faulting PC (the engine would compute this as PC−1 on x86; callers here
// pass the target address directly since no real trap ever fires), it
// looks up the installation and runs its handler chain. It is the seam
// engine_test.go exercises without ever generating a real INT3.
func (e *Engine) Dispatch(target uintptr) (*Frame, error) {
	e.mu.Lock()
	in, ok := e.installs[target]
	e.mu.Unlock()
	if !ok {
		return nil, utils.MakeError(ErrInstallFailed, "no installation at %#x", target)
	}

	f := &Frame{}
	in.dispatch(f)
	return f, nil
}
