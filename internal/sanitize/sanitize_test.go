package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInput_SizeLimit(t *testing.T) {
	tests := []struct {
		name      string
		inputSize int
		limit     int
		wantErr   bool
	}{
		{"Under Default Limit", DefaultMaxInputSize - 1, 0, false},
		{"Exact Default Limit", DefaultMaxInputSize, 0, false},
		{"Over Default Limit", DefaultMaxInputSize + 1, 0, true},
		{"Custom Limit", 11, 10, true},
		{"Within Custom Limit", 5, 10, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Input(strings.Repeat("a", tt.inputSize), tt.limit)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInputTooLarge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInput_ControlChars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal Text", "Olá, tudo bem?", "Olá, tudo bem?"},
		{"Safe Controls", "Linha1\nLinha2\tTab\r", "Linha1\nLinha2\tTab\r"},
		{"ANSI Code", "\x1b[31mRed\x1b[0m", "[31mRed[0m"},
		{"Null Byte", "Null\x00Byte", "NullByte"},
		{"Bell", "Ding\x07", "Ding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Input(tt.input, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestInput_InvalidUTF8(t *testing.T) {
	_, err := Input("\xbd\xb2\x3d\xbc\x20\xe2\x8c\x98", 0)
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestAll(t *testing.T) {
	out, err := All([]string{"a\x00", "b"}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out)

	_, err = All([]string{"ok", strings.Repeat("x", 20)}, 10)
	assert.ErrorIs(t, err, ErrInputTooLarge)

	out, err = All(nil, 0)
	require.NoError(t, err)
	assert.Nil(t, out)
}
