package std

import (
	"context"
	"strings"

	"github.com/ilkoid/poncho-slides/pkg/config"
	"github.com/ilkoid/poncho-slides/pkg/deck"
	"github.com/ilkoid/poncho-slides/pkg/imagesearch"
	"github.com/ilkoid/poncho-slides/pkg/tools"
	"github.com/ilkoid/poncho-slides/pkg/utils"
)

// SearchArgs — аргументы search_image.
type SearchArgs struct {
	Query string `json:"query" jsonschema:"required,description=Short English search query, e.g. 'mountain sunrise'."`
}

// SearchResult — ответ search_image. Пустая выдача — found=false, не ошибка.
type SearchResult struct {
	Found bool        `json:"found"`
	Image *deck.Image `json:"image,omitempty"`
}

// SearchImageTool ищет одно изображение для слайда.
type SearchImageTool struct {
	searcher    imagesearch.Searcher
	description string
}

// NewSearchImageTool создаёт search_image поверх Searcher (обычно с кэшем).
func NewSearchImageTool(searcher imagesearch.Searcher, toolCfg config.ToolConfig) *SearchImageTool {
	return &SearchImageTool{
		searcher: searcher,
		description: describe(toolCfg,
			"Finds one landscape photo for a query. Returns {found:false} when nothing matches."),
	}
}

// Definition реализует tools.Tool.
func (t *SearchImageTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        SearchToolName,
		Description: t.description,
		Parameters:  tools.GenerateSchema[SearchArgs](),
	}
}

// Execute реализует tools.Tool.
func (t *SearchImageTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	var args SearchArgs
	if err := tools.DecodeArgs(argsJSON, &args); err != nil {
		return "", err
	}
	query := strings.TrimSpace(args.Query)
	if query == "" {
		return "", tools.NewError(tools.CodeInvalidArguments, "query is required")
	}

	img, err := t.searcher.Search(ctx, query)
	if err != nil {
		kind := imagesearch.ClassifyError(err)
		utils.Warn("search_image failed", "query", query, "kind", kind.String(), "error", err)
		return "", tools.NewError(tools.CodeUpstream, "%s", kind.HumanMessage())
	}
	if img == nil {
		return tools.EncodeResult(SearchResult{Found: false})
	}
	return tools.EncodeResult(SearchResult{Found: true, Image: img})
}

var _ tools.Tool = (*SearchImageTool)(nil)
