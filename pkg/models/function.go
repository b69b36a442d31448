package models

import (
	"strings"
)

// Program is the disassembled contract as produced by the external disassembler.
type Program struct {
	Functions []*Function `json:"functions" yaml:"functions"`
}

// Variable represents a named function argument or return value
type Variable struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// Function represents a disassembled function with its instructions
type Function struct {
	Name         string        `json:"name" yaml:"name"` // dot-separated path, e.g. __main__.transfer
	OffsetStart  Offset        `json:"offset_start" yaml:"offset_start"`
	EntryPoint   bool          `json:"entry_point" yaml:"entry_point"`
	IsImport     bool          `json:"is_import" yaml:"is_import"`
	Decorators   []string      `json:"decorators,omitempty" yaml:"decorators,omitempty"`
	Arguments    []Variable    `json:"arguments,omitempty" yaml:"arguments,omitempty"`
	Returns      []Variable    `json:"returns,omitempty" yaml:"returns,omitempty"`
	Instructions []Instruction `json:"instructions,omitempty" yaml:"instructions,omitempty"`
}

// LocalName returns the last segment of the function's dotted path
func (f *Function) LocalName() string {
	return LocalName(f.Name)
}

// HasIndirectCall reports whether any instruction of the function is an indirect call
func (f *Function) HasIndirectCall() bool {
	for i := range f.Instructions {
		if f.Instructions[i].IsCallIndirect() {
			return true
		}
	}
	return false
}

// LocalName extracts the substring after the last '.' of a qualified name.
// "Contract.TransferFrom" -> "TransferFrom"
func LocalName(qualifiedName string) string {
	if dot := strings.LastIndex(qualifiedName, "."); dot >= 0 {
		return qualifiedName[dot+1:]
	}
	return qualifiedName
}
