package dwarf

import (
	"fmt"

	"github.com/gregbanks/novaprova/pkg/utils"
)

// ErrUnsupportedDwarfVersion is returned when a compile unit header names a
// DWARF revision this package does not parse (anything outside 2-4, notably
// DWARF 5's restructured unit headers and indexed string/address forms).
var ErrUnsupportedDwarfVersion = fmt.Errorf("dwarf: unsupported version")

// ErrDwarfParse wraps any other malformed-input failure while decoding
// .debug_info (short reads, bad abbreviation codes, truncated attribute
// lists).
var ErrDwarfParse = fmt.Errorf("dwarf: parse error")

// CompileUnit is one parsed DW_TAG_compile_unit header plus the byte range
// of .debug_info it owns and the abbreviation table declared for it. It
// satisfies RefResolver so entry.go's form decoder can resolve references
// without knowing anything about the owning object.
type CompileUnit struct {
	Index      int // position within this unit's UnitSet
	Version    Version
	Is64       bool
	AddrSize   int
	AbbrevOff  uint64
	Abbrev     AbbrevTable
	base       uint64 // offset of this unit's header within .debug_info
	end        uint64 // offset one past this unit's last byte
	bodyOffset uint64 // offset of the first DIE, i.e. base + header length
	set        *UnitSet
}

// LocalBase implements RefResolver.
func (cu *CompileUnit) LocalBase() uint64 { return cu.base }

// CUIndex implements RefResolver.
func (cu *CompileUnit) CUIndex() int { return cu.Index }

// AddressSize implements RefResolver.
func (cu *CompileUnit) AddressSize() int { return cu.AddrSize }

// OffsetSize implements RefResolver: 4 bytes for 32-bit DWARF, 8 for 64-bit.
func (cu *CompileUnit) OffsetSize() int {
	if cu.Is64 {
		return 8
	}
	return 4
}

// DebugStr implements RefResolver.
func (cu *CompileUnit) DebugStr() []byte { return cu.set.strSection }

// ResolveGlobalRef implements RefResolver: DW_FORM_ref_addr carries an
// absolute .debug_info offset that may land in any compile unit of the same
// object, so the owning unit has to be found by range containment.
func (cu *CompileUnit) ResolveGlobalRef(globalOff uint64) (Reference, bool) {
	return cu.set.find(globalOff)
}

// Root returns the Reference of this unit's single top-level DIE
// (DW_TAG_compile_unit itself).
func (cu *CompileUnit) Root() Reference {
	return Reference{CU: cu.Index, Off: cu.bodyOffset}
}

// UnitSet is every compile unit decoded from one object's .debug_info
// section, plus the shared .debug_str/.debug_abbrev bytes they reference.
// Reference.CU indexes into List; it is only meaningful relative to the
// UnitSet that produced it — combining references across two different
// objects' UnitSets requires the caller to carry the owning object
// alongside, which is exactly what the introspection layer's LinkObj does.
type UnitSet struct {
	List          []*CompileUnit
	info          []byte
	strSection    []byte
	abbrevSection []byte
}

func (s *UnitSet) find(off uint64) (Reference, bool) {
	for _, cu := range s.List {
		if off >= cu.base && off < cu.end {
			return Reference{CU: cu.Index, Off: off}, true
		}
	}
	return Null, false
}

// At returns the compile unit a Reference belongs to.
func (s *UnitSet) At(ref Reference) (*CompileUnit, bool) {
	if ref.IsNull() || ref.CU < 0 || ref.CU >= len(s.List) {
		return nil, false
	}
	return s.List[ref.CU], true
}

// ParseUnitSet decodes every compile unit header in info, building the
// abbreviation table for each from abbrev. str is .debug_str, used for
// DW_FORM_strp resolution; it may be nil if the object carries no such
// section.
func ParseUnitSet(info, abbrev, str []byte) (*UnitSet, error) {
	set := &UnitSet{info: info, strSection: str, abbrevSection: abbrev}
	r := NewReader(info)
	for r.Len() > 0 {
		start := r.Offset()
		cu, err := parseUnitHeader(&r, abbrev, start)
		if err != nil {
			return nil, err
		}
		cu.Index = len(set.List)
		cu.set = set
		set.List = append(set.List, cu)
		r = NewReaderAt(info, cu.end)
	}
	return set, nil
}

func parseUnitHeader(r *Reader, abbrevSection []byte, start uint64) (*CompileUnit, error) {
	length, is64, ok := readInitialLength(r)
	if !ok {
		return nil, utils.MakeError(ErrDwarfParse, "truncated compile unit header at %#x", start)
	}
	unitEnd := r.Offset() + length

	version, ok := r.ReadU16()
	if !ok {
		return nil, utils.MakeError(ErrDwarfParse, "truncated version field at %#x", start)
	}
	if version < 2 || version > 4 {
		return nil, utils.MakeError(ErrUnsupportedDwarfVersion, "version %d at %#x", version, start)
	}

	abbrevOff, ok := readOffset(r, offsetSizeFor(is64))
	if !ok {
		return nil, utils.MakeError(ErrDwarfParse, "truncated abbrev offset at %#x", start)
	}
	addrSize, ok := r.ReadU8()
	if !ok {
		return nil, utils.MakeError(ErrDwarfParse, "truncated address size at %#x", start)
	}

	r.SetAddressSize(int(addrSize))

	cu := &CompileUnit{
		Version:    Version(version),
		Is64:       is64,
		AddrSize:   int(addrSize),
		AbbrevOff:  abbrevOff,
		base:       start,
		end:        unitEnd,
		bodyOffset: r.Offset(),
	}

	if int(abbrevOff) > len(abbrevSection) {
		return nil, utils.MakeError(ErrDwarfParse, "abbrev offset %#x out of range", abbrevOff)
	}
	cu.Abbrev = ReadAbbrevs(NewReader(abbrevSection[abbrevOff:]))

	return cu, nil
}

// readInitialLength reads a DWARF "initial length" field, returning the
// unit length and whether the 64-bit DWARF format sentinel was seen.
func readInitialLength(r *Reader) (length uint64, is64 bool, ok bool) {
	v, got := r.ReadU32()
	if !got {
		return 0, false, false
	}
	if v == dwarf64Sentinel {
		l, got := r.ReadU64()
		return l, true, got
	}
	return uint64(v), false, true
}

func offsetSizeFor(is64 bool) int {
	if is64 {
		return 8
	}
	return 4
}
