package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJsonBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain JSON",
			input:    `{"key": "value"}`,
			expected: `{"key": "value"}`,
		},
		{
			name:     "JSON in markdown code block",
			input:    "```json\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "JSON with mixed case",
			input:    "```Json\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "JSON with only triple backticks",
			input:    "```\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "JSON with extra whitespace",
			input:    "  ```json  \n  {\"key\": \"value\"}  \n  ```  ",
			expected: `{"key": "value"}`,
		},
		{
			name:     "text after closing fence is kept",
			input:    "```json\n{\"key\": \"value\"}\n``` Конец",
			expected: "{\"key\": \"value\"}\n``` Конец",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJsonBlock(tt.input))
		})
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "pure JSON",
			input:    `{"key": "value"}`,
			expected: `{"key": "value"}`,
		},
		{
			name:     "JSON with text around",
			input:    "Here is the deck: {\"title\": \"Go\"} Enjoy!",
			expected: `{"title": "Go"}`,
		},
		{
			name:     "nested JSON",
			input:    "Result: {\"outer\": {\"inner\": 1}} done",
			expected: `{"outer": {"inner": 1}}`,
		},
		{
			name:     "braces inside strings",
			input:    `{"content": "use } and { freely", "n": 1} tail`,
			expected: `{"content": "use } and { freely", "n": 1}`,
		},
		{
			name:     "escaped quote inside string",
			input:    `{"content": "say \"}\" loud"}`,
			expected: `{"content": "say \"}\" loud"}`,
		},
		{
			name:     "no JSON",
			input:    "Just plain text",
			expected: "",
		},
		{
			name:     "JSON array",
			input:    "[{\"a\": 1}, {\"b\": 2}]",
			expected: "",
		},
		{
			name:     "unterminated",
			input:    `{"title": "cut`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractJSON(tt.input))
		})
	}
}

func TestSafeFilename(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Go Concurrency", "go_concurrency"},
		{"Q3 Results: 2025!", "q3_results__2025_"},
		{"  Trim me  ", "trim_me"},
		{"Привет", "______"},
		{"", "presentation"},
		{"   ", "presentation"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeFilename(tt.title, "presentation"))
		})
	}
}
