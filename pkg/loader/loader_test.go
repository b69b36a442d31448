package loader

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smith-xyz/cairo-flowscan/pkg/models"
)

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path     string
		expected Format
		wantErr  bool
	}{
		{"dump.json", FormatJSON, false},
		{"dump.JSON", FormatJSON, false},
		{"dump.yaml", FormatYAML, false},
		{"dir/dump.yml", FormatYAML, false},
		{"dump.txt", "", true},
		{"dump", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			format, err := FormatFromPath(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, format)
		})
	}
}

func TestLoadYAML(t *testing.T) {
	prog, err := NewLoader(false).LoadFromFile(filepath.Join("testdata", "token.yaml"))
	require.NoError(t, err)
	require.Len(t, prog.Functions, 4)

	ctor := prog.Functions[0]
	assert.Equal(t, "__main__.constructor", ctor.Name)
	assert.Equal(t, "constructor", ctor.LocalName())
	assert.Equal(t, models.Offset(0), ctor.OffsetStart)
	assert.True(t, ctor.EntryPoint)
	assert.Equal(t, []string{"constructor"}, ctor.Decorators)
	require.Len(t, ctor.Arguments, 2)
	assert.Equal(t, "starkware.cairo.common.uint256.Uint256", ctor.Arguments[1].Type)

	callee, ok := ctor.Instructions[1].Callee()
	require.True(t, ok)
	assert.Equal(t, models.Offset(30), callee)

	balance := prog.Functions[1]
	assert.True(t, balance.HasIndirectCall())
	_, ok = balance.Instructions[1].Callee()
	assert.False(t, ok, "relative call must not resolve")

	mint := prog.Functions[2]
	assert.Equal(t, models.CallNone, mint.Instructions[0].Call, "'none' is normalized")

	assert.True(t, prog.Functions[3].IsImport)
}

func TestLoadJSON(t *testing.T) {
	prog, err := NewLoader(false).LoadFromFile(filepath.Join("testdata", "token.json"))
	require.NoError(t, err)
	require.Len(t, prog.Functions, 2)

	insts := prog.Functions[0].Instructions
	require.Len(t, insts, 2)
	assert.True(t, insts[0].IsCallDirect())
	require.NotNil(t, insts[0].CallXrefFuncName)
	assert.Equal(t, "__main__.move", *insts[0].CallXrefFuncName)
	assert.Nil(t, insts[1].CallXrefFuncName)
}

func TestLoadFromReaderErrors(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		input   string
		wantErr error
	}{
		{
			name:    "duplicate offsets",
			format:  FormatYAML,
			input:   "functions:\n  - {name: a, offset_start: 1}\n  - {name: b, offset_start: 1}\n",
			wantErr: ErrDuplicateOffset,
		},
		{
			name:    "invalid call kind",
			format:  FormatJSON,
			input:   `{"functions":[{"name":"a","instructions":[{"call":"sideways"}]}]}`,
			wantErr: ErrInvalidCallKind,
		},
		{
			name:    "unsupported format",
			format:  Format("toml"),
			input:   "",
			wantErr: ErrUnsupportedFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(false).LoadFromReader(strings.NewReader(tt.input), tt.format)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadFromReaderMalformed(t *testing.T) {
	_, err := NewLoader(false).LoadFromReader(strings.NewReader("{not json"), FormatJSON)
	assert.Error(t, err)

	_, err = NewLoader(false).LoadFromReader(strings.NewReader("functions: [\n"), FormatYAML)
	assert.Error(t, err)
}

func TestLoadEmptyYAML(t *testing.T) {
	prog, err := NewLoader(false).LoadFromReader(strings.NewReader(""), FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, prog.Functions)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader(false).LoadFromFile(filepath.Join("testdata", "missing.json"))
	assert.Error(t, err)
}
