package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		expected OutputFormat
		wantErr  bool
	}{
		{"text", Text, false},
		{"json", JSON, false},
		{"JSON", JSON, false},
		{"  text ", Text, false},
		{"yaml", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "Parse(%q)", tt.input)
			continue
		}
		require.NoError(t, err, "Parse(%q)", tt.input)
		assert.Equal(t, tt.expected, got)
	}
}

func TestGetHelpText_ListsEveryFormat(t *testing.T) {
	help := GetHelpText()
	for _, f := range SupportedFormats {
		assert.Contains(t, help, f)
	}
}

func TestRender(t *testing.T) {
	report := map[string]int{"errors": 2}

	out, err := Render("2 errors", report, Text)
	require.NoError(t, err)
	assert.Equal(t, "2 errors", out)

	out, err = Render("2 errors", report, JSON)
	require.NoError(t, err)
	assert.JSONEq(t, `{"errors": 2}`, out)
}
