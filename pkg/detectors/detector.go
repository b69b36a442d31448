// Package detectors implements the analysis passes run over a disassembled contract.
//
// Every detector is a pure function of the disassembly: it reads the program,
// never mutates it, and returns a fresh Result. Detectors can therefore run
// concurrently over the same program.
package detectors

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/smith-xyz/cairo-flowscan/pkg/models"
)

// Severity classifies the impact of a detector
type Severity int

const (
	Informational Severity = iota
	Low
	Medium
	High
)

var severityNames = []string{"INFORMATIONAL", "LOW", "MEDIUM", "HIGH"}

func (s Severity) String() string {
	if s < Informational || s > High {
		return fmt.Sprintf("Severity(%d)", int(s))
	}
	return severityNames[s]
}

// MarshalText encodes the severity by name
func (s Severity) MarshalText() ([]byte, error) {
	if s < Informational || s > High {
		return nil, fmt.Errorf("invalid severity %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name, case-insensitively
func (s *Severity) UnmarshalText(text []byte) error {
	name := strings.ToUpper(strings.TrimSpace(string(text)))
	for i, n := range severityNames {
		if n == name {
			*s = Severity(i)
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", string(text))
}

// Detector is one analysis pass over a disassembled program
type Detector interface {
	// Name is the display name
	Name() string
	// Argument is the key used to select the detector from the command line
	Argument() string
	Help() string
	Impact() Severity
	Detect(prog *models.Program) Result
}

// Result is the outcome of a single detector run
type Result struct {
	Name     string   `json:"name" yaml:"name"`
	Argument string   `json:"argument" yaml:"argument"`
	Help     string   `json:"help" yaml:"help"`
	Impact   Severity `json:"impact" yaml:"impact"`
	Detected bool     `json:"detected" yaml:"detected"`
	Findings []string `json:"findings" yaml:"findings"`
}

// newResult prepares an empty result carrying the detector's metadata
func newResult(d Detector) Result {
	return Result{
		Name:     d.Name(),
		Argument: d.Argument(),
		Help:     d.Help(),
		Impact:   d.Impact(),
		Findings: []string{},
	}
}

// add records a finding and marks the result as detected
func (r *Result) add(format string, args ...interface{}) {
	r.Detected = true
	r.Findings = append(r.Findings, fmt.Sprintf(format, args...))
}

// snakeCase matches zero or more lowercase alphanumeric runs joined by underscores.
// The empty string matches.
var snakeCase = regexp.MustCompile(`^([a-z0-9]*_*[a-z0-9]*)*$`)

// IsSnakeCase reports whether name is written in snake case
func IsSnakeCase(name string) bool {
	return snakeCase.MatchString(name)
}

// ErrUnknownDetector is returned when a detector argument key is not registered
var ErrUnknownDetector = errors.New("unknown detector")

// All returns every registered detector in registry order.
// The order has no effect on results.
func All() []Detector {
	return []Detector{
		ERC20{},
		ERC721{},
		Strings{},
		FunctionNaming{},
		VariableNaming{},
	}
}

// Lookup finds a registered detector by argument key
func Lookup(argument string) (Detector, bool) {
	for _, d := range All() {
		if d.Argument() == argument {
			return d, true
		}
	}
	return nil, false
}

// Select filters the registry. An empty include list selects every detector;
// exclude is applied afterwards. Unknown keys in either list are an error.
func Select(include, exclude []string) ([]Detector, error) {
	for _, key := range append(append([]string{}, include...), exclude...) {
		if _, ok := Lookup(key); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownDetector, key)
		}
	}

	included := toSet(include)
	excluded := toSet(exclude)

	var selected []Detector
	for _, d := range All() {
		if len(included) > 0 && !included[d.Argument()] {
			continue
		}
		if excluded[d.Argument()] {
			continue
		}
		selected = append(selected, d)
	}
	return selected, nil
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
