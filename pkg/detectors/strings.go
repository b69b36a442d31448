package detectors

import (
	"github.com/smith-xyz/cairo-flowscan/pkg/models"
)

// minStringLength filters out small constants that happen to be printable
const minStringLength = 3

// Strings reports Cairo short strings encoded in instruction immediates
type Strings struct{}

func (Strings) Name() string     { return "Strings" }
func (Strings) Argument() string { return "strings" }
func (Strings) Help() string     { return "Detects strings in the bytecode" }
func (Strings) Impact() Severity { return Informational }

// Detect decodes every immediate as a big-endian short string
func (d Strings) Detect(prog *models.Program) Result {
	result := newResult(d)
	for _, fn := range prog.Functions {
		seen := make(map[string]bool)
		for i := range fn.Instructions {
			s, ok := DecodeShortString(&fn.Instructions[i])
			if !ok || seen[s] {
				continue
			}
			seen[s] = true
			result.add("%s: %q", fn.Name, s)
		}
	}
	return result
}

// DecodeShortString interprets an instruction immediate as a Cairo short string.
// It fails unless every byte is printable ASCII and the string is long enough to be meaningful.
func DecodeShortString(inst *models.Instruction) (string, bool) {
	value, ok := inst.ImmediateValue()
	if !ok || value.IsZero() {
		return "", false
	}

	raw := value.Bytes()
	if len(raw) < minStringLength {
		return "", false
	}
	for _, b := range raw {
		if b < 0x20 || b > 0x7e {
			return "", false
		}
	}
	return string(raw), true
}
