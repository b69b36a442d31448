package models

import (
	"strconv"
	"strings"

	"github.com/holiman/uint256"
)

// Offset is a bytecode offset. It is the canonical key of a function in the call-flow graph.
type Offset uint64

// String renders the offset the way node keys are displayed to renderers
func (o Offset) String() string {
	return strconv.FormatUint(uint64(o), 10)
}

// CallKind classifies an instruction as a call
type CallKind string

const (
	CallNone     CallKind = ""
	CallDirect   CallKind = "direct"
	CallIndirect CallKind = "indirect"
)

// Instruction represents a single disassembled instruction
type Instruction struct {
	Offset           Offset   `json:"offset" yaml:"offset"`
	Opcode           string   `json:"opcode,omitempty" yaml:"opcode,omitempty"`
	Call             CallKind `json:"call,omitempty" yaml:"call,omitempty"`
	CallOffset       Offset   `json:"call_offset,omitempty" yaml:"call_offset,omitempty"`
	CallXrefFuncName *string  `json:"call_xref_func_name,omitempty" yaml:"call_xref_func_name,omitempty"` // nil for relative calls
	Immediate        string   `json:"immediate,omitempty" yaml:"immediate,omitempty"`
}

// IsCallDirect reports whether the call target is statically known
func (i *Instruction) IsCallDirect() bool {
	return i.Call == CallDirect
}

// IsCallIndirect reports whether the call target depends on runtime state
func (i *Instruction) IsCallIndirect() bool {
	return i.Call == CallIndirect
}

// Callee returns the callee offset of a direct call whose target was resolved
// by the disassembler. Relative and indirect calls report false.
func (i *Instruction) Callee() (Offset, bool) {
	if !i.IsCallDirect() || i.CallXrefFuncName == nil {
		return 0, false
	}
	return i.CallOffset, true
}

// ImmediateValue parses the immediate operand as an unsigned felt.
// Decimal and 0x-prefixed hex literals are accepted; negative or oversized values are not.
func (i *Instruction) ImmediateValue() (*uint256.Int, bool) {
	raw := strings.TrimSpace(i.Immediate)
	if raw == "" {
		return nil, false
	}

	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		// uint256 rejects leading zeros in hex input
		digits := strings.TrimLeft(raw[2:], "0")
		if digits == "" {
			digits = "0"
		}
		v, err := uint256.FromHex("0x" + digits)
		if err != nil {
			return nil, false
		}
		return v, true
	}

	v, err := uint256.FromDecimal(raw)
	if err != nil {
		return nil, false
	}
	return v, true
}
