package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/poncho-slides/pkg/llm"
)

const promptYAML = `config:
  temperature: 0.3
  max_tokens: 3000
  format: json_object
messages:
  - role: system
    content: "Templates: {{join .Templates \", \"}}"
  - role: user
    content: "Create a presentation about: {{.Topic}}{{if .Template}} using {{.Template}}{{end}}"
`

func writePrompt(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prompt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAndRender(t *testing.T) {
	pf, err := Load(writePrompt(t, promptYAML))
	require.NoError(t, err)

	msgs, err := pf.RenderMessages(Data{
		Topic:     "Go Concurrency",
		Template:  "education",
		Templates: []string{"business", "education"},
	})
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.Equal(t, "Templates: business, education", msgs[0].Content)
	assert.Equal(t, "Create a presentation about: Go Concurrency using education", msgs[1].Content)

	opts := llm.ApplyOptions(llm.GenerateOptions{Temperature: 0.9, MaxTokens: 100}, toAny(pf.Options())...)
	assert.Equal(t, 0.3, opts.Temperature)
	assert.Equal(t, 3000, opts.MaxTokens)
	assert.Equal(t, "json_object", opts.Format)
	assert.Empty(t, opts.Model)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "prompt file not found")

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad yaml", "messages: [", "yaml parse error"},
		{"no messages", "config:\n  temperature: 1\n", "no messages"},
		{"bad role", "messages:\n  - role: robot\n    content: hi\n", "unsupported role"},
		{"no user", "messages:\n  - role: system\n    content: hi\n", "user message"},
		{"bad template", "messages:\n  - role: user\n    content: \"{{.Topic\"\n", "template parse error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writePrompt(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRender_UnknownField(t *testing.T) {
	pf := &File{Messages: []Message{{Role: llm.RoleUser, Content: "{{.Nope}}"}}}
	_, err := pf.RenderMessages(Data{Topic: "x"})
	assert.ErrorContains(t, err, "template execute error")
}

func toAny(opts []llm.GenerateOption) []any {
	out := make([]any, len(opts))
	for i, o := range opts {
		out[i] = o
	}
	return out
}
