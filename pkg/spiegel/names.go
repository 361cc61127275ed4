package spiegel

import (
	"debug/dwarf"
	"strings"

	dw "github.com/gregbanks/novaprova/pkg/spiegel/dwarf"
)

// GetFullName resolves a reference to its fully-qualified name by
// concatenating the DW_AT_name of it and every named ancestor (namespace,
// class, struct) with "::", following DW_AT_specification first when an
// entry is a separate declaration/definition pair.
func (s *State) GetFullName(fn FuncRef) string {
	if fn.IsNull() {
		return ""
	}
	ref := followSpecification(fn.LinkObj.Units, fn.Ref)

	path, err := fn.LinkObj.Units.PathTo(ref)
	if err != nil {
		return ""
	}

	var parts []string
	for _, e := range path {
		if e.Tag == dwarf.TagCompileUnit {
			continue
		}
		if name := e.StringAttr(dwarf.AttrName); name != "" {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "::")
}

// GetPartialName returns just the unqualified name of ref (following
// DW_AT_specification), without ancestor qualification.
func (s *State) GetPartialName(fn FuncRef) string {
	if fn.IsNull() {
		return ""
	}
	ref := followSpecification(fn.LinkObj.Units, fn.Ref)
	w, err := dw.NewWalkerAt(fn.LinkObj.Units, ref)
	if err != nil {
		return ""
	}
	return w.Current().StringAttr(dwarf.AttrName)
}

func followSpecification(set *dw.UnitSet, ref dw.Reference) dw.Reference {
	w, err := dw.NewWalkerAt(set, ref)
	if err != nil {
		return ref
	}
	if spec := w.Current().ReferenceAttr(dwarf.AttrSpecification); !spec.IsNull() {
		return spec
	}
	return ref
}
