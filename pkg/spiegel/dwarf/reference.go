package dwarf

import "fmt"

// Reference is a stable handle to any DIE: the index of the compile unit
// that contains it, plus the DIE's byte offset within that unit's slice of
// .debug_info. References are totally ordered and comparable, so they can
// be used directly as map keys (the address index and the test-runner's
// function lookup both key on Reference).
type Reference struct {
	CU  int
	Off uint64
}

// Null is the distinguished "no entry" reference.
var Null = Reference{CU: -1, Off: 0}

// IsNull reports whether r is the distinguished null reference.
func (r Reference) IsNull() bool {
	return r.CU < 0
}

// Less gives References a total order: by compile unit first, then by
// offset within the unit.
func (r Reference) Less(o Reference) bool {
	if r.CU != o.CU {
		return r.CU < o.CU
	}
	return r.Off < o.Off
}

func (r Reference) String() string {
	if r.IsNull() {
		return "null"
	}
	return fmt.Sprintf("cu%d+%#x", r.CU, r.Off)
}
