package dwarf

import (
	"debug/dwarf"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fixture builders -------------------------------------------------
//
// There is no ELF binary to parse in these tests, so fixtures are built by
// hand: a tiny .debug_abbrev table declaring a compile_unit (with children)
// and a subprogram (without), and a matching .debug_info body encoding one
// compile unit containing one subprogram.

func uleb(v uint64) []byte {
	var b []byte
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			c |= 0x80
		}
		b = append(b, c)
		if v == 0 {
			return b
		}
	}
}

func u16b(v uint16) []byte { return []byte{byte(v), byte(v >> 8)} }

func u32b(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func u64b(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b
}

func buildAbbrev() []byte {
	var b []byte

	b = append(b, uleb(1)...)
	b = append(b, uleb(uint64(dwarf.TagCompileUnit))...)
	b = append(b, 1)
	b = append(b, uleb(uint64(dwarf.AttrName))...)
	b = append(b, uleb(uint64(FormString))...)
	b = append(b, uleb(uint64(dwarf.AttrLowpc))...)
	b = append(b, uleb(uint64(FormAddr))...)
	b = append(b, uleb(0)...)
	b = append(b, uleb(0)...)

	b = append(b, uleb(2)...)
	b = append(b, uleb(uint64(dwarf.TagSubprogram))...)
	b = append(b, 0)
	b = append(b, uleb(uint64(dwarf.AttrName))...)
	b = append(b, uleb(uint64(FormString))...)
	b = append(b, uleb(uint64(dwarf.AttrLowpc))...)
	b = append(b, uleb(uint64(FormAddr))...)
	b = append(b, uleb(uint64(dwarf.AttrHighpc))...)
	b = append(b, uleb(uint64(FormData4))...)
	b = append(b, uleb(0)...)
	b = append(b, uleb(0)...)

	b = append(b, uleb(0)...)
	return b
}

func buildInfo() []byte {
	var body []byte
	body = append(body, uleb(1)...)
	body = append(body, []byte("main.c\x00")...)
	body = append(body, u64b(0x400000)...)

	body = append(body, uleb(2)...)
	body = append(body, []byte("main\x00")...)
	body = append(body, u64b(0x400000)...)
	body = append(body, u32b(0x10)...)

	body = append(body, uleb(0)...) // closes compile_unit's children

	var header []byte
	header = append(header, u16b(4)...) // version
	header = append(header, u32b(0)...) // abbrev offset
	header = append(header, 8)          // address size

	length := uint32(len(header) + len(body))

	var info []byte
	info = append(info, u32b(length)...)
	info = append(info, header...)
	info = append(info, body...)
	return info
}

// --- Reader ------------------------------------------------------------

func TestReaderPrimitives(t *testing.T) {
	buf := append([]byte{0x2a}, u16b(0x1234)...)
	buf = append(buf, u32b(0xdeadbeef)...)
	buf = append(buf, u64b(0x0102030405060708)...)
	buf = append(buf, uleb(624485)...) // classic LEB128 example
	buf = append(buf, 0x9b, 0xf1, 0x59)
	buf = append(buf, []byte("hi\x00")...)

	r := NewReader(buf)

	b, ok := r.ReadU8()
	require.True(t, ok)
	assert.Equal(t, uint8(0x2a), b)

	u16, ok := r.ReadU16()
	require.True(t, ok)
	assert.Equal(t, uint16(0x1234), u16)

	u32, ok := r.ReadU32()
	require.True(t, ok)
	assert.Equal(t, uint32(0xdeadbeef), u32)

	u64, ok := r.ReadU64()
	require.True(t, ok)
	assert.Equal(t, uint64(0x0102030405060708), u64)

	uval, ok := r.ReadULEB128()
	require.True(t, ok)
	assert.Equal(t, uint64(624485), uval)

	sval, ok := r.ReadSLEB128()
	require.True(t, ok)
	assert.Equal(t, int64(-624485), sval)

	s, ok := r.ReadString()
	require.True(t, ok)
	assert.Equal(t, "hi", s)

	assert.Equal(t, 0, r.Len())
	_, ok = r.ReadU8()
	assert.False(t, ok)
}

func TestReaderShortRead(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	_, ok := r.ReadU32()
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

// --- AbbrevTable ---------------------------------------------------------

func TestAbbrevTable(t *testing.T) {
	table := ReadAbbrevs(NewReader(buildAbbrev()))

	cu, ok := table.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, dwarf.TagCompileUnit, cu.Tag)
	assert.True(t, cu.Children)
	require.Len(t, cu.Attrs, 2)
	assert.Equal(t, dwarf.AttrName, cu.Attrs[0].Name)
	assert.Equal(t, FormString, cu.Attrs[0].Form)

	sub, ok := table.Lookup(2)
	require.True(t, ok)
	assert.Equal(t, dwarf.TagSubprogram, sub.Tag)
	assert.False(t, sub.Children)
	require.Len(t, sub.Attrs, 3)
	assert.Equal(t, dwarf.AttrHighpc, sub.Attrs[2].Name)
	assert.Equal(t, FormData4, sub.Attrs[2].Form)

	_, ok = table.Lookup(3)
	assert.False(t, ok)
}

// --- CompileUnit / Walker ------------------------------------------------

func newFixtureSet(t *testing.T) *UnitSet {
	t.Helper()
	set, err := ParseUnitSet(buildInfo(), buildAbbrev(), nil)
	require.NoError(t, err)
	require.Len(t, set.List, 1)
	return set
}

func TestParseUnitSetHeader(t *testing.T) {
	set := newFixtureSet(t)
	cu := set.List[0]
	assert.Equal(t, Version4, cu.Version)
	assert.False(t, cu.Is64)
	assert.Equal(t, 8, cu.AddrSize)
	assert.Equal(t, uint64(0), cu.AbbrevOff)
}

func TestWalkerTraversal(t *testing.T) {
	set := newFixtureSet(t)
	cu := set.List[0]

	w, err := NewWalker(set, cu)
	require.NoError(t, err)

	root := w.Current()
	assert.Equal(t, dwarf.TagCompileUnit, root.Tag)
	assert.Equal(t, "main.c", root.StringAttr(dwarf.AttrName))
	assert.Equal(t, uint64(0x400000), root.Uint64Attr(dwarf.AttrLowpc))
	assert.Equal(t, cu.Root(), w.GetReference())

	require.True(t, w.MoveDown())
	sub := w.Current()
	assert.Equal(t, dwarf.TagSubprogram, sub.Tag)
	assert.Equal(t, "main", sub.StringAttr(dwarf.AttrName))
	assert.Equal(t, uint64(0x400000), sub.Uint64Attr(dwarf.AttrLowpc))
	form, ok := sub.FormOf(dwarf.AttrHighpc)
	require.True(t, ok)
	assert.Equal(t, FormData4, form)
	assert.Equal(t, uint64(0x10), sub.Uint64Attr(dwarf.AttrHighpc))

	path := w.GetPath()
	require.Len(t, path, 2)
	assert.Equal(t, dwarf.TagCompileUnit, path[0].Tag)
	assert.Equal(t, dwarf.TagSubprogram, path[1].Tag)

	assert.False(t, w.MoveNext())
}

func TestWalkerMoveTo(t *testing.T) {
	set := newFixtureSet(t)
	cu := set.List[0]

	w, err := NewWalker(set, cu)
	require.NoError(t, err)
	require.True(t, w.MoveDown())
	subRef := w.GetReference()

	w2, err := NewWalkerAt(set, subRef)
	require.NoError(t, err)
	assert.Equal(t, dwarf.TagSubprogram, w2.Current().Tag)
	assert.Equal(t, "main", w2.Current().StringAttr(dwarf.AttrName))
	assert.Empty(t, w2.GetPath()[:len(w2.GetPath())-1])
}

// --- Reference ------------------------------------------------------------

func TestReference(t *testing.T) {
	assert.True(t, Null.IsNull())
	a := Reference{CU: 0, Off: 10}
	b := Reference{CU: 0, Off: 20}
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.Equal(t, "cu0+0xa", a.String())
	assert.Equal(t, "null", Null.String())
}

// --- form decoding ---------------------------------------------------------

func TestDecodeLocalReference(t *testing.T) {
	set := newFixtureSet(t)
	cu := set.List[0]

	r := NewReader(u32b(0x7))
	v, ok := decodeForm(&r, FormRef4, cu)
	require.True(t, ok)
	assert.Equal(t, KindReference, v.Kind)
	assert.Equal(t, Reference{CU: cu.Index, Off: cu.base + 0x7}, v.Ref)
}

func TestDecodeFlagPresent(t *testing.T) {
	r := NewReader(nil)
	v, ok := decodeForm(&r, FormFlagPresent, nil)
	require.True(t, ok)
	assert.Equal(t, KindFlag, v.Kind)
	assert.True(t, v.Flag)
	assert.Equal(t, 0, r.Len())
}
