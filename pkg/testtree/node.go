// Package testtree is the discovered-test tree: a plain-pointer node per
// dotted-path component, carrying fixture functions, mock registrations,
// and parameter axes. It is built and queried by an external test-discovery
// collaborator (out of this repository's scope); this package only
// implements the node operations that collaborator needs.
package testtree

import (
	"strings"

	"github.com/gregbanks/novaprova/pkg/intercept"
)

// FixtureKind enumerates the slots a node's fixture array is indexed by.
type FixtureKind int

const (
	BeforeAll FixtureKind = iota
	Before
	Test
	After
	AfterAll

	numFixtureKinds
)

func (k FixtureKind) String() string {
	switch k {
	case BeforeAll:
		return "BeforeAll"
	case Before:
		return "Before"
	case Test:
		return "Test"
	case After:
		return "After"
	case AfterAll:
		return "AfterAll"
	default:
		return "Invalid"
	}
}

// Fixture is a setup/teardown/test body the runner invokes; what it does is
// entirely the runner's business, this package only stores and orders it.
type Fixture func() error

// MockSpec is one registered mock: redirect calls reaching Target to Mock.
// Name is diagnostic only (the function's symbolic name, when known).
type MockSpec struct {
	Target uintptr
	Name   string
	Mock   uintptr
}

// Node is one component of a dotted test path ("pkg.suite.case"): a local
// name, parent/children pointers, its own fixture slots, mocks, and
// parameter axes. Go's garbage collector removes the motivation the
// original had for an arena-backed node pool, so nodes are plain
// heap-allocated pointers linked directly to each other.
type Node struct {
	Name     string
	Parent   *Node
	Children []*Node

	fixtures   [numFixtureKinds]Fixture
	mocks      []MockSpec
	parameters []*Parameter
}

// New returns a detached root node with the given local name (the real
// root of a tree is conventionally named "").
func New(name string) *Node {
	return &Node{Name: name}
}

// FullName is the parent-chain concatenation of every non-empty ancestor
// name (including n's own), joined with ".".
func (n *Node) FullName() string {
	var parts []string
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Name != "" {
			parts = append([]string{cur.Name}, parts...)
		}
	}
	return strings.Join(parts, ".")
}

// Find looks up a dotted path relative to n, returning nil if any component
// is missing.
func (n *Node) Find(name string) *Node {
	cur := n
	for _, part := range strings.Split(name, ".") {
		if part == "" {
			continue
		}
		next := cur.child(part)
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

// MakePath is Find, except missing intermediate components are created
// along the way. The returned node always exists.
func (n *Node) MakePath(name string) *Node {
	cur := n
	for _, part := range strings.Split(name, ".") {
		if part == "" {
			continue
		}
		next := cur.child(part)
		if next == nil {
			next = &Node{Name: part, Parent: cur}
			cur.Children = append(cur.Children, next)
		}
		cur = next
	}
	return cur
}

func (n *Node) child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// SetFixture assigns the function that runs for kind at this node.
func (n *Node) SetFixture(kind FixtureKind, f Fixture) {
	n.fixtures[kind] = f
}

// Fixture returns the function registered for kind at this node, if any.
func (n *Node) Fixture(kind FixtureKind) (Fixture, bool) {
	f := n.fixtures[kind]
	return f, f != nil
}

// AddMock registers a mock redirecting calls to target at mock. name is
// diagnostic only and may be empty.
func (n *Node) AddMock(target uintptr, name string, mock uintptr) {
	n.mocks = append(n.mocks, MockSpec{Target: target, Name: name, Mock: mock})
}

// Mocks returns every mock registered directly on n (not its ancestors).
func (n *Node) Mocks() []MockSpec {
	out := make([]MockSpec, len(n.mocks))
	copy(out, n.mocks)
	return out
}

// chain returns n's ancestor chain, root first, n last.
func (n *Node) chain() []*Node {
	var rev []*Node
	for cur := n; cur != nil; cur = cur.Parent {
		rev = append(rev, cur)
	}
	chain := make([]*Node, len(rev))
	for i, c := range rev {
		chain[len(rev)-1-i] = c
	}
	return chain
}

// GetFixtures collects the fixture registered for kind along n's ancestor
// chain: root-first for the "before" kinds (BeforeAll, Before), so outer
// setup runs before inner setup, and node-first for the "after" kinds
// (After, AfterAll), so inner teardown runs before outer teardown. Test
// fixtures only ever exist on the node itself.
func (n *Node) GetFixtures(kind FixtureKind) []Fixture {
	chain := n.chain()
	if kind == After || kind == AfterAll {
		reverse(chain)
	}

	var out []Fixture
	for _, node := range chain {
		if f, ok := node.Fixture(kind); ok {
			out = append(out, f)
		}
	}
	return out
}

func reverse(nodes []*Node) {
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
}

// PreRun installs every mock registered along n's ancestor chain (root
// first) through engine, returning the handles PostRun needs to undo them.
// If an install fails partway through, every handle already obtained is
// uninstalled before the error is returned.
func (n *Node) PreRun(engine *intercept.Engine) ([]intercept.Handle, error) {
	var handles []intercept.Handle
	for _, node := range n.chain() {
		for _, m := range node.mocks {
			mock := m.Mock
			h, err := engine.Install(m.Target, func(f *intercept.Frame) {
				f.Redirect(mock)
			})
			if err != nil {
				for _, done := range handles {
					_ = engine.Uninstall(done)
				}
				return nil, err
			}
			handles = append(handles, h)
		}
	}
	return handles, nil
}

// PostRun uninstalls every handle PreRun returned, in reverse order, and
// returns the first error encountered (continuing to attempt the rest).
func (n *Node) PostRun(engine *intercept.Engine, handles []intercept.Handle) error {
	var firstErr error
	for i := len(handles) - 1; i >= 0; i-- {
		if err := engine.Uninstall(handles[i]); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Preorder visits n and every descendant in preorder, stopping early if
// visit returns false.
func (n *Node) Preorder(visit func(*Node) bool) bool {
	if !visit(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Preorder(visit) {
			return false
		}
	}
	return true
}

// hasFixtures reports whether any fixture slot is populated.
func (n *Node) hasFixtures() bool {
	for _, f := range n.fixtures {
		if f != nil {
			return true
		}
	}
	return false
}

// Elidable reports whether n carries no fixtures, mocks, or parameters and
// has exactly one child — the condition under which it contributes nothing
// but an extra name component to every descendant's full name.
func (n *Node) Elidable() bool {
	return !n.hasFixtures() && len(n.mocks) == 0 && len(n.parameters) == 0 && len(n.Children) == 1
}

// Elide reports whether n is Elidable, and if so returns the node that
// should take n's place: its single child, renamed to carry n's name as a
// prefix ("outer.inner" instead of losing "outer" entirely). It does not
// touch parent/child links itself — Compact does that while walking a
// whole tree.
func (n *Node) Elide() (*Node, bool) {
	if !n.Elidable() {
		return n, false
	}
	child := n.Children[0]
	switch {
	case n.Name == "":
		// leave child.Name as-is
	case child.Name == "":
		child.Name = n.Name
	default:
		child.Name = n.Name + "." + child.Name
	}
	return child, true
}

// Compact walks root's descendants in postorder, eliding every elidable
// node along the way, and returns root itself: the tree's own root never
// gets elided away, even when it happens to have a single child and no
// fixtures, so the caller always gets back a node it recognizes.
func Compact(root *Node) *Node {
	for i, c := range root.Children {
		nc := compactNode(c)
		nc.Parent = root
		root.Children[i] = nc
	}
	return root
}

// compactNode compacts n's subtree, then elides n itself for as long as
// it remains Elidable, returning whatever node ends up taking its place.
func compactNode(n *Node) *Node {
	for i, c := range n.Children {
		nc := compactNode(c)
		nc.Parent = n
		n.Children[i] = nc
	}
	for {
		replacement, ok := n.Elide()
		if !ok {
			break
		}
		replacement.Parent = n.Parent
		n = replacement
	}
	return n
}
