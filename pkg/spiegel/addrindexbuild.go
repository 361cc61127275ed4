package spiegel

import (
	"debug/dwarf"

	"github.com/gregbanks/novaprova/pkg/spiegel/addrindex"
	dw "github.com/gregbanks/novaprova/pkg/spiegel/dwarf"
)

// FuncRef identifies a DIE unambiguously across every loaded link object:
// dw.Reference alone is only meaningful relative to the UnitSet that
// produced it, so it has to travel with the LinkObj that owns that set.
type FuncRef struct {
	LinkObj *LinkObj
	Ref     dw.Reference
}

// IsNull reports whether f names no entry.
func (f FuncRef) IsNull() bool { return f.LinkObj == nil || f.Ref.IsNull() }

// indexedFunc is what the address index actually stores: the matched DIE
// plus the runtime low address of the specific range that contained the
// query, so DescribeAddress can compute an offset without re-walking to
// fn.Ref (which, after a DW_AT_specification redirect, no longer names the
// range-bearing definition DIE at all).
type indexedFunc struct {
	Func FuncRef
	Lo   uint64
}

// PrepareAddressIndex walks every loaded compile unit and builds the
// address range index used by DescribeAddress. Without it, DescribeAddress
// falls back to a linear walk of the DWARF tree, which still works but is
// far slower for repeated lookups (e.g. once per intercepted call).
func (s *State) PrepareAddressIndex() error {
	idx := addrindex.New[indexedFunc]()

	err := s.dwUnits(func(lo *LinkObj, cu *dw.CompileUnit) error {
		w, err := dw.NewWalker(lo.Units, cu)
		if err != nil {
			return err
		}
		for {
			e := w.Current()
			if e.Tag == dwarf.TagSubprogram {
				// The range-bearing DIE is always this definition, even
				// when it also carries a DW_AT_specification back to a
				// declaration; FuncRef.Ref is redirected to that
				// specification only for naming purposes below.
				funcref := w.GetReference()
				if spec := e.ReferenceAttr(dwarf.AttrSpecification); !spec.IsNull() {
					funcref = spec
				}
				insertRanges(lo, cu, e, idx, FuncRef{LinkObj: lo, Ref: funcref})
			}
			if !w.MovePreorder() {
				break
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.addrIndex = idx
	return nil
}

func insertRanges(lo *LinkObj, cu *dw.CompileUnit, e *dw.Entry, idx *addrindex.Tree[indexedFunc], funcref FuncRef) {
	_, hasLo := e.Attr(dwarf.AttrLowpc)
	low := e.Uint64Attr(dwarf.AttrLowpc)
	_, hasHi := e.Attr(dwarf.AttrHighpc)
	high := e.Uint64Attr(dwarf.AttrHighpc)
	// DW_AT_ranges is formally a DWARF3 attribute, but g++ emits it even
	// when the compile unit only claims DWARF2.
	rangesAttr, hasRanges := e.Attr(dwarf.AttrRanges)

	switch {
	case hasLo && hasHi:
		// In DWARF4, DW_AT_high_pc can be an absolute address or an offset
		// from low_pc depending on its form.
		if cu.Version == dw.Version4 {
			if form, _ := e.FormOf(dwarf.AttrHighpc); form != dw.FormAddr {
				high += low
			}
		}
		runtimeLow := lo.Runtime(low)
		idx.Insert(addrindex.Range{Lo: runtimeLow, Hi: lo.Runtime(high)}, indexedFunc{Func: funcref, Lo: runtimeLow})

	case hasRanges:
		for lo0, hi0 := range iterRangeList(lo.ranges, rangesAttr.AsUint64(), cu.AddrSize) {
			runtimeLow := lo.Runtime(lo0)
			idx.Insert(addrindex.Range{Lo: runtimeLow, Hi: lo.Runtime(hi0)}, indexedFunc{Func: funcref, Lo: runtimeLow})
		}

	case hasLo:
		runtimeLow := lo.Runtime(low)
		idx.Insert(addrindex.Range{Lo: runtimeLow, Hi: runtimeLow + 1}, indexedFunc{Func: funcref, Lo: runtimeLow})
	}
}

// iterRangeList walks a DWARF .debug_ranges list starting at off, yielding
// each (start, end) pair with the running base address already applied.
// (0,0) terminates the list; (max-address-for-this-width, base) rebases
// every following entry.
func iterRangeList(ranges []byte, off uint64, addrSize int) func(func(uint64, uint64) bool) {
	return func(yield func(uint64, uint64) bool) {
		if ranges == nil || off >= uint64(len(ranges)) {
			return
		}
		r := dw.NewReaderAt(ranges, off)
		r.SetAddressSize(addrSize)
		maxAddr := uint64(0xFFFFFFFF)
		if addrSize == 8 {
			maxAddr = ^uint64(0)
		}
		base := uint64(0)
		for {
			start, ok1 := r.ReadAddr()
			end, ok2 := r.ReadAddr()
			if !ok1 || !ok2 {
				return
			}
			if start == 0 && end == 0 {
				return
			}
			if start == maxAddr {
				base = end
				continue
			}
			if !yield(start+base, end+base) {
				return
			}
		}
	}
}
