package dwarf

import "debug/dwarf"

// ValueKind classifies the decoded shape of an attribute's value; the
// walker picks this from the attribute's form, not its name, since a given
// attribute can legally be encoded with more than one form.
type ValueKind int

const (
	KindInvalid ValueKind = iota
	KindAddress
	KindUnsigned
	KindSigned
	KindString
	KindReference
	KindBlock
	KindFlag
)

// Value is a typed attribute value, decoded from whichever form the
// abbreviation declared for it.
type Value struct {
	Form  Form
	Kind  ValueKind
	Addr  uint64
	Uint  uint64
	Int   int64
	Str   string
	Ref   Reference
	Block []byte
	Flag  bool
}

// AsUint64 returns the best numeric reading of the value, for attributes
// (like DW_AT_low_pc, DW_AT_high_pc, DW_AT_ranges, DW_AT_declaration) whose
// producer-chosen form varies but whose caller just wants a number.
func (v Value) AsUint64() uint64 {
	switch v.Kind {
	case KindAddress:
		return v.Addr
	case KindUnsigned:
		return v.Uint
	case KindSigned:
		return uint64(v.Int)
	case KindFlag:
		if v.Flag {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// RefResolver supplies the compile-unit context an attribute decode needs:
// the unit's own base offset (for unit-relative reference forms), its
// address size, its .debug_str contents, and a way to resolve a
// DW_FORM_ref_addr's absolute .debug_info offset to the compile unit that
// owns it.
type RefResolver interface {
	LocalBase() uint64
	CUIndex() int
	AddressSize() int
	OffsetSize() int
	DebugStr() []byte
	ResolveGlobalRef(globalOff uint64) (Reference, bool)
}

// DecodeAttr decodes one attribute value from r per spec, advancing r by
// exactly the form-specific amount regardless of whether the attribute is
// of interest to the caller — the cursor must land on the next attribute
// (or the next entry) either way.
func DecodeAttr(r *Reader, spec AttrSpec, ctx RefResolver) (Value, bool) {
	return decodeForm(r, spec.Form, ctx)
}

func decodeForm(r *Reader, form Form, ctx RefResolver) (Value, bool) {
	switch form {
	case FormAddr:
		a, ok := r.ReadAddr()
		return Value{Form: form, Kind: KindAddress, Addr: a}, ok

	case FormBlock1:
		n, ok := r.ReadU8()
		if !ok {
			return Value{}, false
		}
		b, ok := r.ReadBlock(int(n))
		return Value{Form: form, Kind: KindBlock, Block: b}, ok

	case FormBlock2:
		n, ok := r.ReadU16()
		if !ok {
			return Value{}, false
		}
		b, ok := r.ReadBlock(int(n))
		return Value{Form: form, Kind: KindBlock, Block: b}, ok

	case FormBlock4:
		n, ok := r.ReadU32()
		if !ok {
			return Value{}, false
		}
		b, ok := r.ReadBlock(int(n))
		return Value{Form: form, Kind: KindBlock, Block: b}, ok

	case FormBlock, FormExprloc:
		n, ok := r.ReadULEB128()
		if !ok {
			return Value{}, false
		}
		b, ok := r.ReadBlock(int(n))
		return Value{Form: form, Kind: KindBlock, Block: b}, ok

	case FormData1:
		v, ok := r.ReadU8()
		return Value{Form: form, Kind: KindUnsigned, Uint: uint64(v)}, ok

	case FormData2:
		v, ok := r.ReadU16()
		return Value{Form: form, Kind: KindUnsigned, Uint: uint64(v)}, ok

	case FormData4:
		v, ok := r.ReadU32()
		return Value{Form: form, Kind: KindUnsigned, Uint: uint64(v)}, ok

	case FormData8:
		v, ok := r.ReadU64()
		return Value{Form: form, Kind: KindUnsigned, Uint: v}, ok

	case FormString:
		s, ok := r.ReadString()
		return Value{Form: form, Kind: KindString, Str: s}, ok

	case FormStrp:
		off, ok := readOffset(r, ctx.OffsetSize())
		if !ok {
			return Value{}, false
		}
		s := readStrAt(ctx.DebugStr(), off)
		return Value{Form: form, Kind: KindString, Str: s}, true

	case FormFlag:
		v, ok := r.ReadU8()
		return Value{Form: form, Kind: KindFlag, Flag: v != 0}, ok

	case FormFlagPresent:
		// Consumes no bytes: the attribute's mere presence in the
		// abbreviation is the value.
		return Value{Form: form, Kind: KindFlag, Flag: true}, true

	case FormSdata:
		v, ok := r.ReadSLEB128()
		return Value{Form: form, Kind: KindSigned, Int: v}, ok

	case FormUdata:
		v, ok := r.ReadULEB128()
		return Value{Form: form, Kind: KindUnsigned, Uint: v}, ok

	case FormRef1:
		v, ok := r.ReadU8()
		return localRef(form, ctx, uint64(v)), ok

	case FormRef2:
		v, ok := r.ReadU16()
		return localRef(form, ctx, uint64(v)), ok

	case FormRef4:
		v, ok := r.ReadU32()
		return localRef(form, ctx, uint64(v)), ok

	case FormRef8:
		v, ok := r.ReadU64()
		return localRef(form, ctx, v), ok

	case FormRefUdata:
		v, ok := r.ReadULEB128()
		return localRef(form, ctx, v), ok

	case FormRefAddr:
		off, ok := readOffset(r, ctx.OffsetSize())
		if !ok {
			return Value{}, false
		}
		ref, _ := ctx.ResolveGlobalRef(off)
		return Value{Form: form, Kind: KindReference, Ref: ref}, true

	case FormSecOffset:
		off, ok := readOffset(r, ctx.OffsetSize())
		return Value{Form: form, Kind: KindUnsigned, Uint: off}, ok

	case FormIndirect:
		actual, ok := r.ReadULEB128()
		if !ok {
			return Value{}, false
		}
		return decodeForm(r, Form(actual), ctx)

	default:
		return Value{}, false
	}
}

func localRef(form Form, ctx RefResolver, off uint64) Value {
	return Value{
		Form: form,
		Kind: KindReference,
		Ref:  Reference{CU: ctx.CUIndex(), Off: ctx.LocalBase() + off},
	}
}

func readOffset(r *Reader, size int) (uint64, bool) {
	if size == 8 {
		return r.ReadU64()
	}
	v, ok := r.ReadU32()
	return uint64(v), ok
}

func readStrAt(str []byte, off uint64) string {
	if off >= uint64(len(str)) {
		return ""
	}
	end := off
	for end < uint64(len(str)) && str[end] != 0 {
		end++
	}
	return string(str[off:end])
}

// Entry is a decoded DIE: a tag plus its attribute values. Entries are
// produced on the fly by the Walker as it traverses the section bytes —
// there is no independently materialized DIE tree held in memory.
type Entry struct {
	Ref      Reference
	Tag      dwarf.Tag
	Children bool
	Attrs    map[dwarf.Attr]Value
	Level    int
}

// Attr returns the raw decoded value of an attribute and whether it was
// present on this entry.
func (e *Entry) Attr(name dwarf.Attr) (Value, bool) {
	v, ok := e.Attrs[name]
	return v, ok
}

// HasAttr reports whether the entry carries the named attribute at all.
func (e *Entry) HasAttr(name dwarf.Attr) bool {
	_, ok := e.Attrs[name]
	return ok
}

// FormOf returns the form an attribute was encoded with, used by callers
// that need to distinguish (e.g.) an absolute DW_AT_high_pc from a
// length-relative one.
func (e *Entry) FormOf(name dwarf.Attr) (Form, bool) {
	v, ok := e.Attrs[name]
	return v.Form, ok
}

// Uint64Attr returns an attribute's numeric value, or 0 if absent.
func (e *Entry) Uint64Attr(name dwarf.Attr) uint64 {
	v, ok := e.Attrs[name]
	if !ok {
		return 0
	}
	return v.AsUint64()
}

// StringAttr returns an attribute's string value, or "" if absent or not a
// string-shaped form.
func (e *Entry) StringAttr(name dwarf.Attr) string {
	v, ok := e.Attrs[name]
	if !ok || v.Kind != KindString {
		return ""
	}
	return v.Str
}

// ReferenceAttr returns an attribute's reference value, or the null
// reference if absent or not reference-shaped.
func (e *Entry) ReferenceAttr(name dwarf.Attr) Reference {
	v, ok := e.Attrs[name]
	if !ok || v.Kind != KindReference {
		return Null
	}
	return v.Ref
}
