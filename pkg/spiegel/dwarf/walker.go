package dwarf

import (
	"debug/dwarf"

	"github.com/gregbanks/novaprova/pkg/utils"
)

// readEntry decodes the DIE at off within cu, returning the entry and the
// offset of whatever follows it: the DIE's first child if it declares
// children, otherwise its next sibling. A tag-0 Entry marks the null
// terminator that closes a sibling list.
func (s *UnitSet) readEntry(cu *CompileUnit, off uint64) (Entry, uint64, error) {
	r := NewReaderAt(s.info, off)
	r.SetAddressSize(cu.AddrSize)

	code, ok := r.ReadULEB128()
	if !ok {
		return Entry{}, 0, utils.MakeError(ErrDwarfParse, "truncated abbreviation code at %#x", off)
	}
	if code == 0 {
		return Entry{Ref: Reference{CU: cu.Index, Off: off}}, r.Offset(), nil
	}

	ab, ok := cu.Abbrev.Lookup(code)
	if !ok {
		return Entry{}, 0, utils.MakeError(ErrDwarfParse, "undeclared abbreviation code %d at %#x", code, off)
	}

	attrs := make(map[dwarf.Attr]Value, len(ab.Attrs))
	for _, spec := range ab.Attrs {
		v, ok := DecodeAttr(&r, spec, cu)
		if !ok {
			return Entry{}, 0, utils.MakeError(ErrDwarfParse, "truncated attribute %v at %#x", spec.Name, off)
		}
		attrs[spec.Name] = v
	}

	return Entry{
		Ref:      Reference{CU: cu.Index, Off: off},
		Tag:      ab.Tag,
		Children: ab.Children,
		Attrs:    attrs,
	}, r.Offset(), nil
}

// Walker traverses the DIE tree of a UnitSet one entry at a time, decoding
// each entry lazily as it is reached rather than materializing the tree.
// It is not safe for concurrent use: callers that need to inspect more than
// one position at once (e.g. following a DW_AT_type chain while remembering
// where they were) should open a second Walker with NewWalkerAt.
type Walker struct {
	set     *UnitSet
	cu      *CompileUnit
	cur     Entry
	nextOff uint64
	path    []Entry
}

// NewWalker starts a Walker at a compile unit's root DIE.
func NewWalker(set *UnitSet, cu *CompileUnit) (*Walker, error) {
	w := &Walker{set: set, cu: cu}
	e, next, err := set.readEntry(cu, cu.bodyOffset)
	if err != nil {
		return nil, err
	}
	w.cur = e
	w.nextOff = next
	return w, nil
}

// NewWalkerAt starts a Walker at an arbitrary reference, with no ancestor
// context — used to follow DW_AT_type/DW_AT_specification/DW_AT_abstract_origin
// chains, which land on a DIE in isolation rather than mid-traversal.
func NewWalkerAt(set *UnitSet, ref Reference) (*Walker, error) {
	w := &Walker{set: set}
	if err := w.MoveTo(ref); err != nil {
		return nil, err
	}
	return w, nil
}

// Current returns the entry the walker is positioned on.
func (w *Walker) Current() *Entry { return &w.cur }

// GetReference returns the current entry's Reference.
func (w *Walker) GetReference() Reference { return w.cur.Ref }

// GetPath returns the chain of ancestor entries from the compile unit root
// down to (and including) the current entry.
func (w *Walker) GetPath() []Entry {
	path := make([]Entry, len(w.path)+1)
	copy(path, w.path)
	path[len(w.path)] = w.cur
	return path
}

// MoveDown descends into the current entry's first child. It reports false
// without moving if the current entry declares no children, or if it
// declares children but the list is empty (in which case the empty list's
// terminator is consumed so a following MoveNext does not try to skip it
// again).
func (w *Walker) MoveDown() bool {
	if !w.cur.Children {
		return false
	}
	e, next, err := w.set.readEntry(w.cu, w.nextOff)
	if err != nil || e.Tag == 0 {
		if err == nil {
			w.nextOff = next
			w.cur.Children = false
		}
		return false
	}
	w.path = append(w.path, w.cur)
	w.cur = e
	w.nextOff = next
	return true
}

// skipSubtree consumes every descendant of the entry whose children begin
// at off, returning the offset of whatever follows the matching
// end-of-children terminator.
func (w *Walker) skipSubtree(off uint64) (uint64, error) {
	depth := 1
	for depth > 0 {
		e, next, err := w.set.readEntry(w.cu, off)
		if err != nil {
			return 0, err
		}
		if e.Tag == 0 {
			depth--
		} else if e.Children {
			depth++
		}
		off = next
	}
	return off, nil
}

// MoveNext advances to the current entry's next sibling at the same depth,
// skipping over its subtree if it has one. If the current entry is the last
// sibling at its level, MoveNext consumes that sibling list's terminator,
// steps back up to the parent entry (whose children now count as consumed)
// and returns false; a further MoveNext then continues with the parent's
// next sibling.
func (w *Walker) MoveNext() bool {
	off := w.nextOff
	if w.cur.Children {
		next, err := w.skipSubtree(off)
		if err != nil {
			return false
		}
		off = next
	}
	if w.cu != nil && off >= w.cu.end {
		return false
	}

	e, next, err := w.set.readEntry(w.cu, off)
	if err != nil {
		return false
	}
	if e.Tag != 0 {
		w.cur = e
		w.nextOff = next
		return true
	}
	if len(w.path) == 0 {
		return false
	}
	w.cur = w.path[len(w.path)-1]
	w.cur.Children = false
	w.path = w.path[:len(w.path)-1]
	w.nextOff = next
	return false
}

// MovePreorder advances to the next entry in a full depth-first traversal:
// into the current entry's children if it has any, otherwise to the next
// sibling (walking up as needed). It visits every entry of the unit exactly
// once before returning false.
func (w *Walker) MovePreorder() bool {
	if w.MoveDown() {
		return true
	}
	for {
		depth := len(w.path)
		if w.MoveNext() {
			return true
		}
		if len(w.path) == depth {
			return false
		}
	}
}

// PathTo finds ref by a preorder scan of its compile unit from the root and
// returns its ancestor chain (root first, ref itself last). This is how
// get_full_name-style name resolution recovers the ancestor context that a
// direct MoveTo jump discards.
func (s *UnitSet) PathTo(ref Reference) ([]Entry, error) {
	cu, ok := s.At(ref)
	if !ok {
		return nil, utils.MakeError(ErrDwarfParse, "reference %s has no owning compile unit", ref)
	}
	w, err := NewWalker(s, cu)
	if err != nil {
		return nil, err
	}
	if w.GetReference() == ref {
		return w.GetPath(), nil
	}
	for w.MovePreorder() {
		if w.GetReference() == ref {
			return w.GetPath(), nil
		}
	}
	return nil, utils.MakeError(ErrDwarfParse, "reference %s not found in its compile unit", ref)
}

// MoveTo jumps the walker to an arbitrary reference within the same
// UnitSet, discarding any ancestor path (the caller is expected to treat
// the destination as an isolated lookup, not a continuation of whatever
// traversal it was in before).
func (w *Walker) MoveTo(ref Reference) error {
	cu, ok := w.set.At(ref)
	if !ok {
		return utils.MakeError(ErrDwarfParse, "reference %s has no owning compile unit", ref)
	}
	e, next, err := w.set.readEntry(cu, ref.Off)
	if err != nil {
		return err
	}
	w.cu = cu
	w.cur = e
	w.nextOff = next
	w.path = nil
	return nil
}
