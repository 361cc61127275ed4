package spiegel

import (
	"errors"

	dw "github.com/gregbanks/novaprova/pkg/spiegel/dwarf"
	"github.com/gregbanks/novaprova/pkg/spiegel/platform"
)

// ErrDwarfParse and ErrMapFailure are re-exported from the packages that
// actually detect them, so callers of this package never need to import
// spiegel/dwarf or spiegel/platform just to compare against errors.Is.
var (
	ErrDwarfParse = dw.ErrDwarfParse
	ErrMapFailure = platform.ErrMapFailure
)

// ErrNoDebugInfo is returned when a link object has no .debug_info section
// (stripped binary, or not an ELF file at all).
var ErrNoDebugInfo = errors.New("spiegel: no debug info")

// ErrAlreadyOpen is returned by NewState when an introspection state is
// already live in this process; novaprova only ever supports one at a time,
// matching upstream's singleton.
var ErrAlreadyOpen = errors.New("spiegel: introspection state already open")
