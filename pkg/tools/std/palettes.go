package std

import (
	"context"

	"github.com/ilkoid/poncho-slides/pkg/config"
	"github.com/ilkoid/poncho-slides/pkg/templates"
	"github.com/ilkoid/poncho-slides/pkg/tools"
)

// PalettesArgs — аргументы get_color_palettes.
type PalettesArgs struct {
	Mood string `json:"mood,omitempty" jsonschema:"enum=professional,enum=vibrant,enum=calm,enum=dark,enum=playful,description=Optional mood filter."`
}

// PalettesResult — ответ get_color_palettes.
type PalettesResult struct {
	Palettes []templates.Palette `json:"palettes"`
}

// PalettesTool отдаёт статические цветовые палитры.
type PalettesTool struct {
	description string
}

// NewPalettesTool создаёт get_color_palettes.
func NewPalettesTool(toolCfg config.ToolConfig) *PalettesTool {
	return &PalettesTool{
		description: describe(toolCfg, "Lists color palettes (hex colors), optionally filtered by mood."),
	}
}

// Definition реализует tools.Tool.
func (t *PalettesTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        PalettesToolName,
		Description: t.description,
		Parameters:  tools.GenerateSchema[PalettesArgs](),
	}
}

// Execute реализует tools.Tool.
func (t *PalettesTool) Execute(_ context.Context, argsJSON string) (string, error) {
	var args PalettesArgs
	if err := tools.DecodeArgs(argsJSON, &args); err != nil {
		return "", err
	}
	return tools.EncodeResult(PalettesResult{Palettes: templates.Palettes(args.Mood)})
}

var _ tools.Tool = (*PalettesTool)(nil)
