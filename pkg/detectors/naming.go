package detectors

import (
	"github.com/smith-xyz/cairo-flowscan/pkg/models"
)

// FunctionNaming flags functions whose local name is not in snake case
type FunctionNaming struct{}

func (FunctionNaming) Name() string     { return "Function naming" }
func (FunctionNaming) Argument() string { return "function_naming" }
func (FunctionNaming) Help() string     { return "Detects function names that are not in snake case" }
func (FunctionNaming) Impact() Severity { return Informational }

// Detect checks the segment after the last '.' of every function name
func (d FunctionNaming) Detect(prog *models.Program) Result {
	result := newResult(d)
	for _, fn := range prog.Functions {
		name := fn.LocalName()
		if !IsSnakeCase(name) {
			result.add("%s function name needs to be in snake case", name)
		}
	}
	return result
}

// VariableNaming flags arguments and return values whose names are not in snake case
type VariableNaming struct{}

func (VariableNaming) Name() string     { return "Variable naming" }
func (VariableNaming) Argument() string { return "variable_naming" }
func (VariableNaming) Help() string     { return "Detects variable names that are not in snake case" }
func (VariableNaming) Impact() Severity { return Informational }

// Detect checks every argument, then every return value, of every function
func (d VariableNaming) Detect(prog *models.Program) Result {
	result := newResult(d)
	for _, fn := range prog.Functions {
		for _, group := range [][]models.Variable{fn.Arguments, fn.Returns} {
			for _, v := range group {
				name := models.LocalName(v.Name)
				if !IsSnakeCase(name) {
					result.add("%s variable name needs to be in snake case", name)
				}
			}
		}
	}
	return result
}
