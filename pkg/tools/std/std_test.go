package std

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/poncho-slides/pkg/config"
	"github.com/ilkoid/poncho-slides/pkg/deck"
	"github.com/ilkoid/poncho-slides/pkg/tools"
)

type stubSearcher struct {
	img   *deck.Image
	err   error
	query string
}

func (s *stubSearcher) Search(_ context.Context, query string) (*deck.Image, error) {
	s.query = query
	return s.img, s.err
}

func toolCode(t *testing.T, err error) string {
	t.Helper()
	var te *tools.ToolError
	require.True(t, errors.As(err, &te), "expected *tools.ToolError, got %v", err)
	return te.Code
}

func TestDefinitionsRegister(t *testing.T) {
	r := tools.NewRegistry()
	for _, tool := range []tools.Tool{
		NewTemplateTool(config.ToolConfig{}),
		NewValidateTool(config.ToolConfig{Description: "custom"}),
		NewSearchImageTool(&stubSearcher{}, config.ToolConfig{}),
		NewPalettesTool(config.ToolConfig{}),
	} {
		require.NoError(t, r.Register(tool), tool.Definition().Name)
		assert.NotEmpty(t, tool.Definition().Description)
	}
	assert.Equal(t, []string{PalettesToolName, TemplateToolName, SearchToolName, ValidateToolName}, r.Names())

	def := NewValidateTool(config.ToolConfig{Description: "custom"}).Definition()
	assert.Equal(t, "custom", def.Description)
}

func TestTemplateTool(t *testing.T) {
	tool := NewTemplateTool(config.ToolConfig{})

	out, err := tool.Execute(context.Background(), `{"topic":"Rust","template":"education"}`)
	require.NoError(t, err)

	d, err := deck.Parse([]byte(out))
	require.NoError(t, err, "template output is a valid deck")
	assert.Equal(t, "Rust", d.Title)
	assert.Equal(t, "Introduction to Rust", d.Slides[0].Heading)

	out, err = tool.Execute(context.Background(), `{"topic":"Rust","template":"unknown"}`)
	require.NoError(t, err)
	d, err = deck.Parse([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, deck.ThemeBlue, d.Theme, "unknown template falls back to business")

	_, err = tool.Execute(context.Background(), `{"topic":"  "}`)
	assert.Equal(t, tools.CodeInvalidArguments, toolCode(t, err))
}

func TestValidateTool(t *testing.T) {
	tool := NewValidateTool(config.ToolConfig{})

	out, err := tool.Execute(context.Background(),
		`{"presentation":{"title":"T","slides":[{"type":"intro","title":"A","content":"B"}]}}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"valid":true,"slides":1}`, out)

	out, err = tool.Execute(context.Background(),
		`{"presentation":{"title":"","slides":[{"type":"bogus","title":"","content":"B"}]}}`)
	require.NoError(t, err, "an invalid deck is a result, not a tool error")

	var res ValidateResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.False(t, res.Valid)
	assert.Len(t, res.Errors, 3)

	_, err = tool.Execute(context.Background(), `{}`)
	assert.Equal(t, tools.CodeInvalidArguments, toolCode(t, err))
}

func TestSearchImageTool(t *testing.T) {
	s := &stubSearcher{img: &deck.Image{URL: "https://img/1", Photographer: "Ann", Query: "sea"}}
	tool := NewSearchImageTool(s, config.ToolConfig{})

	out, err := tool.Execute(context.Background(), `{"query":" sea "}`)
	require.NoError(t, err)
	assert.Equal(t, "sea", s.query)

	var res SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Found)
	assert.Equal(t, "https://img/1", res.Image.URL)

	s.img = nil
	out, err = tool.Execute(context.Background(), `{"query":"nothing"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"found":false}`, out)

	s.err = errors.New("unsplash: status 500")
	_, err = tool.Execute(context.Background(), `{"query":"x"}`)
	assert.Equal(t, tools.CodeUpstream, toolCode(t, err))

	_, err = tool.Execute(context.Background(), `{}`)
	assert.Equal(t, tools.CodeInvalidArguments, toolCode(t, err))
}

func TestPalettesTool(t *testing.T) {
	tool := NewPalettesTool(config.ToolConfig{})

	out, err := tool.Execute(context.Background(), `{"mood":"dark"}`)
	require.NoError(t, err)
	var res PalettesResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Palettes, 1)
	assert.Equal(t, "Midnight", res.Palettes[0].Name)

	out, err = tool.Execute(context.Background(), ``)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Greater(t, len(res.Palettes), 1)
}
