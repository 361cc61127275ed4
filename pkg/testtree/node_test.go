package testtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gregbanks/novaprova/pkg/intercept"
)

func TestMakePathAndFind(t *testing.T) {
	root := New("")
	leaf := root.MakePath("suite.case")
	require.NotNil(t, leaf)
	assert.Equal(t, "case", leaf.Name)
	assert.Equal(t, "suite.case", leaf.FullName())

	assert.Same(t, leaf, root.Find("suite.case"))
	assert.Nil(t, root.Find("suite.missing"))

	// MakePath is idempotent: asking for the same path twice returns the
	// same node, not a duplicate sibling.
	again := root.MakePath("suite.case")
	assert.Same(t, leaf, again)
}

func TestGetFixturesOrdering(t *testing.T) {
	root := New("")
	suite := root.MakePath("suite")
	leaf := root.MakePath("suite.case")

	var order []string
	root.SetFixture(BeforeAll, func() error { order = append(order, "root-before-all"); return nil })
	suite.SetFixture(Before, func() error { order = append(order, "suite-before"); return nil })
	leaf.SetFixture(Before, func() error { order = append(order, "leaf-before"); return nil })
	root.SetFixture(After, func() error { order = append(order, "root-after"); return nil })
	leaf.SetFixture(After, func() error { order = append(order, "leaf-after"); return nil })

	for _, f := range leaf.GetFixtures(BeforeAll) {
		require.NoError(t, f())
	}
	for _, f := range leaf.GetFixtures(Before) {
		require.NoError(t, f())
	}
	for _, f := range leaf.GetFixtures(After) {
		require.NoError(t, f())
	}

	assert.Equal(t, []string{"root-before-all", "suite-before", "leaf-before", "leaf-after", "root-after"}, order)
}

func TestElidableAndCompact(t *testing.T) {
	root := New("")
	root.MakePath("a.b.case")

	compacted := Compact(root)
	// "a" and "b" are pure single-child pass-through nodes with no
	// fixtures, so both collapse away entirely, leaving the leaf
	// directly under root with its full dotted name.
	require.Len(t, compacted.Children, 1)
	assert.Equal(t, "a.b.case", compacted.Children[0].Name)
	assert.Empty(t, compacted.Children[0].Children)
}

func TestElidableFalseWithFixtureOrMultipleChildren(t *testing.T) {
	root := New("")
	a := root.MakePath("a")
	a.MakePath("b")
	a.MakePath("c")
	assert.False(t, a.Elidable()) // two children

	root2 := New("")
	x := root2.MakePath("x")
	x.MakePath("y")
	x.SetFixture(Before, func() error { return nil })
	assert.False(t, x.Elidable()) // has a fixture
}

func TestCreateAssignmentsCrossProduct(t *testing.T) {
	root := New("")
	var size, color string
	root.AddParameter("size", &size, []string{"s", "m"})
	root.AddParameter("color", &color, []string{"red", "blue"})

	assignments := root.CreateAssignments()
	require.Len(t, assignments, 4)

	var rendered []string
	for _, a := range assignments {
		a.Apply()
		rendered = append(rendered, size+":"+color)
	}
	assert.ElementsMatch(t, []string{"s:red", "s:blue", "m:red", "m:blue"}, rendered)
}

func TestPreRunPostRunInstallsAndUninstallsChainMocks(t *testing.T) {
	root := New("")
	suite := root.MakePath("suite")
	leaf := root.MakePath("suite.case")

	root.AddMock(0x1000, "root_target", 0x2000)
	leaf.AddMock(0x3000, "leaf_target", 0x4000)
	_ = suite

	patcher := newFakePatcherForTest()
	engine := intercept.NewEngine(patcher)

	handles, err := leaf.PreRun(engine)
	require.NoError(t, err)
	assert.Len(t, handles, 2)
	assert.Equal(t, 2, engine.Installed())

	require.NoError(t, leaf.PostRun(engine, handles))
	assert.Equal(t, 0, engine.Installed())
}

// fakePatcherForTest satisfies intercept.Patcher with an in-memory byte store, so
// PreRun/PostRun can be exercised without real page protection.
type fakePatcherForTest struct {
	mem map[uintptr]byte
}

func newFakePatcherForTest() *fakePatcherForTest {
	return &fakePatcherForTest{mem: make(map[uintptr]byte)}
}

func (p *fakePatcherForTest) ReadByte(addr uintptr) (byte, error) { return p.mem[addr], nil }
func (p *fakePatcherForTest) WriteByte(addr uintptr, b byte) error {
	p.mem[addr] = b
	return nil
}
