// Package intercept implements the redirection trampoline that lets a
// handler run in place of a target function: the target's first byte is
// overwritten with an INT3, a single trap handler locates the installation
// whose target matches the faulting PC, and the registered handlers run in
// registration order before the original byte is restored and the
// instruction is single-stepped back into place.
//
// Go's runtime signal model does not expose synchronous, resumable delivery
// of SIGTRAP to user code the way a native debugger would, so the SIGTRAP
// dispatch path this package models (Engine.Dispatch) is the mechanism the
// engine is built around, not something wired to an actual runtime signal
// handler; everything else — installation bookkeeping,
// reference counting, the handler chain, skip/redirect — is ordinary Go and
// fully exercised by tests against a fake Patcher.
package intercept

import "errors"

// ErrInstallFailed indicates the protection toggle or byte classification
// failed while installing or uninstalling an intercept.
var ErrInstallFailed = errors.New("intercept: install failed")

// ErrMismatch indicates the target's first byte no longer holds the
// breakpoint instruction this engine wrote, meaning something else patched
// the same address concurrently.
var ErrMismatch = errors.New("intercept: byte mismatch on uninstall")

// int3 is the x86/x86-64 breakpoint instruction (INT3).
const int3 = 0xCC

// pushbpOpcode is the x86-64 `push %rbp` opcode, the canonical function
// prologue byte novaprova recognizes without decoding further.
const pushbpOpcode = 0x55

// Prologue classifies the instruction byte an installation displaced, so
// that uninstall and single-step re-arming know how to resume execution
// through it.
type Prologue int

const (
	// Unknown is the zero value: no byte has been classified yet.
	Unknown Prologue = iota
	// PushBP is `push %rbp`, the standard frame-pointer prologue. The
	// engine can emulate it directly in the handler and skip the
	// single-step re-arm, a fast path.
	PushBP
	// Other is any other opcode; resuming through it requires a genuine
	// single-step.
	Other
)

func (p Prologue) String() string {
	switch p {
	case PushBP:
		return "PushBP"
	case Other:
		return "Other"
	default:
		return "Unknown"
	}
}

func classify(b byte) Prologue {
	if b == pushbpOpcode {
		return PushBP
	}
	return Other
}
