package spiegel

import (
	"debug/dwarf"

	dw "github.com/gregbanks/novaprova/pkg/spiegel/dwarf"
)

// Location is what DescribeAddress knows about an address: the compile unit
// that contains it, the function it falls within, and its offset from that
// function's start. DescribeAddress reports a Location only when a function
// matched.
type Location struct {
	CompileUnit FuncRef
	Func        FuncRef
	Offset      uint64
	// Line is always 0: line-number resolution (.debug_line) is outside
	// this port's scope, matching upstream, which documents the field but
	// never populates it either.
	Line uint
}

// DescribeAddress resolves a runtime address to the DWARF entries that
// describe it. It uses the prepared address index when available (see
// PrepareAddressIndex) and falls back to a linear walk of every compile
// unit otherwise — correct either way, just slower without the index.
func (s *State) DescribeAddress(addr uint64) (Location, bool) {
	if s.addrIndex != nil && s.addrIndex.Len() > 0 {
		match, ok := s.addrIndex.Find(addr)
		if !ok {
			return Location{}, false
		}
		loc := Location{Func: match.Func, Offset: addr - match.Lo}
		if cu, ok := match.Func.LinkObj.Units.At(match.Func.Ref); ok {
			loc.CompileUnit = FuncRef{LinkObj: match.Func.LinkObj, Ref: cu.Root()}
		}
		return loc, true
	}
	return s.describeAddressLinear(addr)
}

func (s *State) describeAddressLinear(addr uint64) (Location, bool) {
	var loc Location
	found := false

	_ = s.dwUnits(func(lo *LinkObj, cu *dw.CompileUnit) error {
		if found {
			return nil
		}
		w, err := dw.NewWalker(lo.Units, cu)
		if err != nil {
			return nil
		}

		link := lo.LinkTime(addr)
		e := w.Current()
		for {
			if offset, ok := isWithin(link, e, lo, cu); ok {
				switch e.Tag {
				case dwarf.TagCompileUnit:
					loc.CompileUnit = FuncRef{LinkObj: lo, Ref: w.GetReference()}
				case dwarf.TagSubprogram:
					ref := w.GetReference()
					if spec := e.ReferenceAttr(dwarf.AttrSpecification); !spec.IsNull() {
						ref = spec
					}
					loc.Func = FuncRef{LinkObj: lo, Ref: ref}
					loc.Offset = offset
					found = true
					return nil
				case dwarf.TagClassType, dwarf.TagStructType, dwarf.TagUnionType, dwarf.TagNamespace:
					// descend to look for a more specific match below
				}
			}
			if !w.MovePreorder() {
				break
			}
			e = w.Current()
		}
		return nil
	})

	return loc, found
}

// isWithin reports whether link (a link-time address) falls within the
// span an entry covers, by the same three ways a DIE can declare its
// address range that insertRanges understands: an explicit [low,high)
// pair, a DW_AT_ranges list, or a bare low_pc (a single address, as some
// toolchains emit for e.g. a label).
func isWithin(link uint64, e *dw.Entry, lo *LinkObj, cu *dw.CompileUnit) (offset uint64, ok bool) {
	_, hasLo := e.Attr(dwarf.AttrLowpc)
	low := e.Uint64Attr(dwarf.AttrLowpc)
	_, hasHi := e.Attr(dwarf.AttrHighpc)
	high := e.Uint64Attr(dwarf.AttrHighpc)
	rangesAttr, hasRanges := e.Attr(dwarf.AttrRanges)

	switch {
	case hasLo && hasHi:
		if form, _ := e.FormOf(dwarf.AttrHighpc); form != dw.FormAddr {
			high += low
		}
		if link >= low && link < high {
			return link - low, true
		}
		return 0, false

	case hasRanges:
		for start, end := range iterRangeList(lo.ranges, rangesAttr.AsUint64(), cu.AddrSize) {
			if link >= start && link < end {
				return link - start, true
			}
		}
		return 0, false

	case hasLo:
		if link == low {
			return 0, true
		}
	}
	return 0, false
}
