// Package loader reads disassembly dumps produced by the external disassembler.
package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/smith-xyz/cairo-flowscan/pkg/models"
	"github.com/smith-xyz/cairo-flowscan/pkg/utils"
)

// Format is the encoding of a disassembly dump
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var (
	// ErrUnsupportedFormat is returned for dump files with an unknown extension
	ErrUnsupportedFormat = errors.New("unsupported disassembly format")
	// ErrDuplicateOffset is returned when two functions start at the same offset
	ErrDuplicateOffset = errors.New("duplicate function offset")
	// ErrInvalidCallKind is returned for instructions with an unknown call classification
	ErrInvalidCallKind = errors.New("invalid call kind")
)

// Loader handles loading disassembled programs from dump files.
type Loader struct {
	logger *utils.VerboseLogger
}

// NewLoader creates a new disassembly loader.
func NewLoader(verbose bool) *Loader {
	return &Loader{logger: utils.NewVerboseLogger(verbose)}
}

// FormatFromPath picks the dump format from the file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// LoadFromFile loads a program from a JSON or YAML dump
func (l *Loader) LoadFromFile(filePath string) (*models.Program, error) {
	l.logger.Logf("Loading disassembly from file: %s\n", filePath)

	format, err := FormatFromPath(filePath)
	if err != nil {
		return nil, err
	}

	cleanPath := filepath.Clean(filePath)
	file, err := os.Open(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open disassembly file %s: %w", filePath, err)
	}
	defer file.Close()

	return l.LoadFromReader(file, format)
}

// LoadFromReader loads a program from an io.Reader
func (l *Loader) LoadFromReader(reader io.Reader, format Format) (*models.Program, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read disassembly data: %w", err)
	}

	var program models.Program
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &program); err != nil {
			return nil, fmt.Errorf("failed to parse disassembly JSON: %w", err)
		}
	case FormatYAML:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		if err := decoder.Decode(&program); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse disassembly YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	if err := normalize(&program); err != nil {
		return nil, err
	}

	l.logger.Logf("Loaded %d functions from disassembly\n", len(program.Functions))
	return &program, nil
}

// normalize validates call kinds and function offsets. Functions are not otherwise modified.
func normalize(program *models.Program) error {
	seen := make(map[models.Offset]string, len(program.Functions))

	for _, fn := range program.Functions {
		if fn == nil {
			return fmt.Errorf("disassembly contains a null function")
		}

		if other, ok := seen[fn.OffsetStart]; ok {
			return fmt.Errorf("%w: %s used by %q and %q", ErrDuplicateOffset, fn.OffsetStart, other, fn.Name)
		}
		seen[fn.OffsetStart] = fn.Name

		for i := range fn.Instructions {
			inst := &fn.Instructions[i]
			switch models.CallKind(strings.ToLower(string(inst.Call))) {
			case models.CallNone, "none":
				inst.Call = models.CallNone
			case models.CallDirect:
				inst.Call = models.CallDirect
			case models.CallIndirect:
				inst.Call = models.CallIndirect
			default:
				return fmt.Errorf("%w %q in %s at offset %s", ErrInvalidCallKind, inst.Call, fn.Name, inst.Offset)
			}
		}
	}

	return nil
}
