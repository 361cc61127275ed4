package spiegel

import (
	"debug/dwarf"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	dw "github.com/gregbanks/novaprova/pkg/spiegel/dwarf"
)

var (
	keywordColor = color.New(color.FgBlue, color.Bold)
	typeColor    = color.New(color.FgGreen)
	tagColor     = color.New(color.FgMagenta)
)

// describeType writes a C-ish rendering of the type reachable from e's
// DW_AT_type (following DW_AT_specification first, as types declared
// separately from their definition need to). Grounded on describe_type in
// the upstream DWARF state reader: same tag-by-tag rendering, recursive for
// pointer/volatile/const/array wrappers.
func describeType(out io.Writer, set *dw.UnitSet, e *dw.Entry) {
	if spec := e.ReferenceAttr(dwarf.AttrSpecification); !spec.IsNull() {
		if w, err := dw.NewWalkerAt(set, spec); err == nil {
			e = w.Current()
		}
	}

	typeRef := e.ReferenceAttr(dwarf.AttrType)
	if typeRef.IsNull() {
		fmt.Fprint(out, keywordColor.Sprint("void "))
		return
	}

	w, err := dw.NewWalkerAt(set, typeRef)
	if err != nil {
		fmt.Fprint(out, "??? ")
		return
	}
	te := w.Current()
	name := te.StringAttr(dwarf.AttrName)

	switch te.Tag {
	case dwarf.TagBaseType, dwarf.TagTypedef:
		fmt.Fprintf(out, "%s ", typeColor.Sprint(name))
	case dwarf.TagPointerType:
		describeType(out, set, te)
		fmt.Fprint(out, "* ")
	case dwarf.TagVolatileType:
		describeType(out, set, te)
		fmt.Fprint(out, "volatile ")
	case dwarf.TagConstType:
		describeType(out, set, te)
		fmt.Fprint(out, "const ")
	case dwarf.TagStructType:
		fmt.Fprintf(out, "%s %s ", keywordColor.Sprint("struct"), orPlaceholder(name))
	case dwarf.TagUnionType:
		fmt.Fprintf(out, "%s %s ", keywordColor.Sprint("union"), orPlaceholder(name))
	case dwarf.TagClassType:
		fmt.Fprintf(out, "%s %s ", keywordColor.Sprint("class"), orPlaceholder(name))
	case dwarf.TagEnumerationType:
		fmt.Fprintf(out, "%s %s ", keywordColor.Sprint("enum"), orPlaceholder(name))
	case dwarf.TagNamespace:
		fmt.Fprintf(out, "%s %s ", keywordColor.Sprint("namespace"), orPlaceholder(name))
	case dwarf.TagArrayType:
		describeType(out, set, te)
		if w.MoveDown() {
			for {
				ce := w.Current()
				if ce.Tag == dwarf.TagSubrangeType {
					count := ce.Uint64Attr(dwarf.AttrCount)
					if count == 0 {
						count = ce.Uint64Attr(dwarf.AttrUpperBound)
					}
					if count != 0 {
						fmt.Fprintf(out, "[%d]", count)
					}
				}
				if !w.MoveNext() {
					break
				}
			}
		}
		fmt.Fprint(out, " ")
	default:
		fmt.Fprintf(out, "%s ", tagColor.Sprint(te.Tag))
	}
}

func orPlaceholder(name string) string {
	if name == "" {
		return "{...}"
	}
	return name
}

// describeFunctionParameters writes a parenthesised parameter list for the
// subprogram w is currently positioned on, descending into (and leaving w
// positioned at the end of) its formal_parameter/unspecified_parameters
// children — matching describe_function_parameters, which intentionally
// mutates the caller's walker so that the outer traversal loop's next
// move_next continues where this one left off.
func describeFunctionParameters(out io.Writer, set *dw.UnitSet, w *dw.Walker) {
	fmt.Fprint(out, "(")
	n := 0
	ellipsis := false

	if w.MoveDown() {
		for {
			if !ellipsis {
				e := w.Current()
				switch e.Tag {
				case dwarf.TagFormalParameter:
					if n > 0 {
						fmt.Fprint(out, ", ")
					}
					n++
					describeType(out, set, e)
				case dwarf.TagUnspecifiedParameters:
					if n > 0 {
						fmt.Fprint(out, ", ")
					}
					n++
					fmt.Fprint(out, "...")
					ellipsis = true
				}
			}
			if !w.MoveNext() {
				break
			}
		}
	}
	fmt.Fprint(out, ")")
}

// DumpStructs writes a C-ish rendering of every struct/union/class in
// every loaded compile unit, members and methods included.
func (s *State) DumpStructs(out io.Writer) error {
	return s.dwUnits(func(lo *LinkObj, cu *dw.CompileUnit) error {
		fmt.Fprintln(out, "compile_unit {")
		w, err := dw.NewWalker(lo.Units, cu)
		if err != nil {
			return err
		}
		for {
			e := w.Current()
			var keyword string
			switch e.Tag {
			case dwarf.TagStructType:
				keyword = "struct"
			case dwarf.TagUnionType:
				keyword = "union"
			case dwarf.TagClassType:
				keyword = "class"
			default:
				if !w.MovePreorder() {
					goto done
				}
				continue
			}
			if e.Uint64Attr(dwarf.AttrDeclaration) != 0 {
				if !w.MovePreorder() {
					goto done
				}
				continue
			}

			{
				structName := s.GetPartialName(FuncRef{LinkObj: lo, Ref: w.GetReference()})
				if structName == "" {
					if !w.MovePreorder() {
						goto done
					}
					continue
				}
				fullName := s.GetFullName(FuncRef{LinkObj: lo, Ref: w.GetReference()})
				fmt.Fprintf(out, "%s %s {\n", keyword, fullName)

				if w.MoveDown() {
					for {
						me := w.Current()
						name := me.StringAttr(dwarf.AttrName)
						if name != "" {
							switch me.Tag {
							case dwarf.TagMember, dwarf.TagVariable:
								fmt.Fprint(out, "    /*member*/ ")
								describeType(out, lo.Units, me)
								fmt.Fprintf(out, " %s;\n", name)
							case dwarf.TagSubprogram:
								switch {
								case name == structName:
									fmt.Fprint(out, "    /*constructor*/ ")
								case strings.HasPrefix(name, "~") && name[1:] == structName:
									fmt.Fprint(out, "    /*destructor*/ ")
								default:
									fmt.Fprint(out, "    /*function*/ ")
									describeType(out, lo.Units, me)
								}
								fmt.Fprint(out, name)
								describeFunctionParameters(out, lo.Units, w)
								fmt.Fprintln(out)
							default:
								fmt.Fprintf(out, "    /* %s */\n", me.Tag)
							}
						}
						if !w.MoveNext() {
							break
						}
					}
				}
				fmt.Fprintf(out, "} %s\n", keyword)
			}
			if !w.MovePreorder() {
				break
			}
		}
	done:
		fmt.Fprintln(out, "} compile_unit")
		return nil
	})
}

// DumpFunctions writes every top-level subprogram's signature in every
// loaded compile unit.
func (s *State) DumpFunctions(out io.Writer) error {
	fmt.Fprintln(out, "Functions")
	fmt.Fprintln(out, "=========")
	err := s.dwUnits(func(lo *LinkObj, cu *dw.CompileUnit) error {
		fmt.Fprintln(out, "compile_unit {")
		w, err := dw.NewWalker(lo.Units, cu)
		if err != nil {
			return err
		}
		if w.MoveDown() {
			for {
				e := w.Current()
				name := e.StringAttr(dwarf.AttrName)
				if e.Tag == dwarf.TagSubprogram && name != "" {
					describeType(out, lo.Units, e)
					fmt.Fprint(out, name)
					describeFunctionParameters(out, lo.Units, w)
					fmt.Fprintln(out)
				}
				if !w.MoveNext() {
					break
				}
			}
		}
		fmt.Fprintln(out, "} compile_unit")
		return nil
	})
	fmt.Fprintln(out)
	return err
}

// DumpVariables writes every DW_TAG_variable with a location in every
// loaded compile unit.
func (s *State) DumpVariables(out io.Writer) error {
	return s.dwUnits(func(lo *LinkObj, cu *dw.CompileUnit) error {
		w, err := dw.NewWalker(lo.Units, cu)
		if err != nil {
			return err
		}
		root := w.Current()
		fmt.Fprintf(out, "compile_unit %s {\n", root.StringAttr(dwarf.AttrName))

		for w.MovePreorder() {
			e := w.Current()
			if e.Tag != dwarf.TagVariable {
				continue
			}
			if !e.HasAttr(dwarf.AttrLocation) {
				continue
			}
			describeType(out, lo.Units, e)
			fmt.Fprintf(out, "%s;\n", s.GetFullName(FuncRef{LinkObj: lo, Ref: w.GetReference()}))
		}
		fmt.Fprintln(out, "} compile_unit")
		return nil
	})
}

// DumpInfo writes every DIE in every loaded compile unit: in preorder if
// preorder is true, or as an indented recursive tree otherwise. If paths
// is true, each entry is preceded by its full ancestor path.
func (s *State) DumpInfo(out io.Writer, preorder, paths bool) error {
	fmt.Fprintln(out, "Info")
	fmt.Fprintln(out, "====")
	err := s.dwUnits(func(lo *LinkObj, cu *dw.CompileUnit) error {
		fmt.Fprintln(out, "compile_unit {")
		w, err := dw.NewWalker(lo.Units, cu)
		if err != nil {
			return err
		}
		if preorder {
			for {
				if paths {
					dumpPath(out, w)
				}
				dumpEntry(out, w.Current(), 0)
				if !w.MovePreorder() {
					break
				}
			}
		} else {
			recursiveDump(out, w, 0, paths)
		}
		fmt.Fprintln(out, "} compile_unit")
		return nil
	})
	fmt.Fprintln(out)
	return err
}

func dumpPath(out io.Writer, w *dw.Walker) {
	fmt.Fprint(out, "Path:")
	for _, e := range w.GetPath() {
		fmt.Fprintf(out, " %s", e.Ref)
	}
	fmt.Fprintln(out)
}

func dumpEntry(out io.Writer, e *dw.Entry, depth int) {
	fmt.Fprintf(out, "%s%s %s\n", strings.Repeat("  ", depth), e.Ref, tagColor.Sprint(e.Tag))
}

func recursiveDump(out io.Writer, w *dw.Walker, depth int, paths bool) {
	if paths {
		dumpPath(out, w)
	}
	dumpEntry(out, w.Current(), depth)
	if w.MoveDown() {
		for {
			recursiveDump(out, w, depth+1, paths)
			if !w.MoveNext() {
				break
			}
		}
	}
}

// DumpAbbrevs writes every compile unit's decoded abbreviation table.
func (s *State) DumpAbbrevs(out io.Writer) error {
	fmt.Fprintln(out, "Abbrevs")
	fmt.Fprintln(out, "=======")
	err := s.dwUnits(func(lo *LinkObj, cu *dw.CompileUnit) error {
		fmt.Fprintln(out, "compile_unit {")
		cu.Abbrev.Each(func(code uint64, ab dw.Abbrev) {
			fmt.Fprintf(out, "  [%d] %s children=%v\n", code, tagColor.Sprint(ab.Tag), ab.Children)
			for _, a := range ab.Attrs {
				fmt.Fprintf(out, "      %v form=%#x\n", a.Name, a.Form)
			}
		})
		fmt.Fprintln(out, "} compile_unit")
		return nil
	})
	fmt.Fprintln(out)
	return err
}
