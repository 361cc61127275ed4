package intercept

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePatcher is an in-memory stand-in for real text patching, letting
// install/uninstall bookkeeping be exercised without touching page
// protection or process memory.
type fakePatcher struct {
	mem map[uintptr]byte
}

func newFakePatcher(targets map[uintptr]byte) *fakePatcher {
	mem := make(map[uintptr]byte, len(targets))
	for addr, b := range targets {
		mem[addr] = b
	}
	return &fakePatcher{mem: mem}
}

func (p *fakePatcher) ReadByte(addr uintptr) (byte, error) { return p.mem[addr], nil }
func (p *fakePatcher) WriteByte(addr uintptr, b byte) error {
	p.mem[addr] = b
	return nil
}

func TestInstallPatchesOriginalByte(t *testing.T) {
	const target = uintptr(0x1000)
	p := newFakePatcher(map[uintptr]byte{target: pushbpOpcode})
	e := NewEngine(p)

	_, err := e.Install(target, func(f *Frame) {})
	require.NoError(t, err)

	assert.Equal(t, byte(int3), p.mem[target])
	assert.True(t, e.Armed())
	assert.Equal(t, 1, e.Installed())
}

func TestSecondHandlerSameTargetDoesNotRepatch(t *testing.T) {
	const target = uintptr(0x2000)
	p := newFakePatcher(map[uintptr]byte{target: 0x90})
	e := NewEngine(p)

	_, err := e.Install(target, func(f *Frame) {})
	require.NoError(t, err)
	p.mem[target] = 0x41 // simulate something other than int3 sitting there now
	_, err = e.Install(target, func(f *Frame) {})
	require.NoError(t, err)

	// second Install must not have re-read/re-written; the installation's
	// recorded original byte still reflects the first Install.
	in := e.installs[target]
	require.NotNil(t, in)
	assert.Equal(t, byte(0x90), in.original)
	assert.Equal(t, 2, in.refcount())
}

func TestUninstallRestoresOriginalWhenLastHandlerLeaves(t *testing.T) {
	const target = uintptr(0x3000)
	p := newFakePatcher(map[uintptr]byte{target: pushbpOpcode})
	e := NewEngine(p)

	h1, err := e.Install(target, func(f *Frame) {})
	require.NoError(t, err)
	h2, err := e.Install(target, func(f *Frame) {})
	require.NoError(t, err)

	require.NoError(t, e.Uninstall(h1))
	assert.Equal(t, byte(int3), p.mem[target]) // still installed, one handler left
	assert.Equal(t, 1, e.Installed())

	require.NoError(t, e.Uninstall(h2))
	assert.Equal(t, byte(pushbpOpcode), p.mem[target])
	assert.Equal(t, 0, e.Installed())
	assert.False(t, e.Armed())
}

func TestUninstallMismatchReportsButStillRestores(t *testing.T) {
	const target = uintptr(0x4000)
	p := newFakePatcher(map[uintptr]byte{target: 0x90})
	e := NewEngine(p)

	h, err := e.Install(target, func(f *Frame) {})
	require.NoError(t, err)

	p.mem[target] = 0x41 // foreign interference: no longer our int3

	err = e.Uninstall(h)
	require.ErrorIs(t, err, ErrMismatch)
	assert.Equal(t, byte(0x90), p.mem[target]) // best-effort restore still happened
}

func TestUninstallUnknownHandleFails(t *testing.T) {
	e := NewEngine(newFakePatcher(nil))
	err := e.Uninstall(Handle{target: 0x5000, id: 1})
	require.ErrorIs(t, err, ErrInstallFailed)
}

func TestDispatchRunsHandlerChainInOrder(t *testing.T) {
	const target = uintptr(0x6000)
	p := newFakePatcher(map[uintptr]byte{target: pushbpOpcode})
	e := NewEngine(p)

	var order []int
	_, err := e.Install(target, func(f *Frame) { order = append(order, 1) })
	require.NoError(t, err)
	_, err = e.Install(target, func(f *Frame) { order = append(order, 2) })
	require.NoError(t, err)

	_, err = e.Dispatch(target)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, order)
}

func TestDispatchStopsAtSkip(t *testing.T) {
	const target = uintptr(0x7000)
	p := newFakePatcher(map[uintptr]byte{target: pushbpOpcode})
	e := NewEngine(p)

	var ran2 bool
	_, err := e.Install(target, func(f *Frame) { f.Skip(42) })
	require.NoError(t, err)
	_, err = e.Install(target, func(f *Frame) { ran2 = true })
	require.NoError(t, err)

	f, err := e.Dispatch(target)
	require.NoError(t, err)
	val, skipped := f.Skipped()
	assert.True(t, skipped)
	assert.Equal(t, uintptr(42), val)
	assert.False(t, ran2)
}

func TestDispatchRedirect(t *testing.T) {
	const target = uintptr(0x8000)
	p := newFakePatcher(map[uintptr]byte{target: pushbpOpcode})
	e := NewEngine(p)

	_, err := e.Install(target, func(f *Frame) { f.Redirect(0xdead) })
	require.NoError(t, err)

	f, err := e.Dispatch(target)
	require.NoError(t, err)
	addr, redirected := f.Redirected()
	assert.True(t, redirected)
	assert.Equal(t, uintptr(0xdead), addr)
}

func TestClassifyPrologue(t *testing.T) {
	assert.Equal(t, PushBP, classify(0x55))
	assert.Equal(t, Other, classify(0x48))
	assert.Equal(t, "PushBP", PushBP.String())
	assert.Equal(t, "Other", Other.String())
	assert.Equal(t, "Unknown", Unknown.String())
}
