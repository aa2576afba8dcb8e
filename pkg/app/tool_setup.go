package app

import (
	"fmt"

	"github.com/ilkoid/poncho-slides/pkg/config"
	"github.com/ilkoid/poncho-slides/pkg/imagesearch"
	"github.com/ilkoid/poncho-slides/pkg/tools"
	"github.com/ilkoid/poncho-slides/pkg/tools/std"
	"github.com/ilkoid/poncho-slides/pkg/utils"
)

// ToolNames — все известные инструменты в порядке регистрации.
var ToolNames = []string{
	std.TemplateToolName,
	std.ValidateToolName,
	std.PalettesToolName,
	std.SearchToolName,
}

// SetupTools регистрирует включённые инструменты.
//
// searcher может быть nil: тогда search_image не регистрируется
// (ключ Unsplash не задан), а модель оставляет в слайдах только query.
func SetupTools(registry *tools.Registry, cfg *config.AppConfig, searcher imagesearch.Searcher) error {
	for _, name := range ToolNames {
		if !cfg.ToolEnabled(name) {
			utils.Debug("Tool disabled, skipping", "tool", name)
			continue
		}

		tool, err := newTool(name, cfg.Tools[name], searcher)
		if err != nil {
			return fmt.Errorf("tool %s: %w", name, err)
		}
		if tool == nil {
			continue
		}

		if err := registry.Register(tool); err != nil {
			return fmt.Errorf("register %s: %w", name, err)
		}
		registry.SetTimeout(name, cfg.Tools[name].Timeout)
	}

	utils.Info("Tools registered", "tools", registry.Names())
	return nil
}

// newTool создаёт инструмент по имени. nil без ошибки — зависимость не настроена.
func newTool(name string, toolCfg config.ToolConfig, searcher imagesearch.Searcher) (tools.Tool, error) {
	switch name {
	case std.TemplateToolName:
		return std.NewTemplateTool(toolCfg), nil
	case std.ValidateToolName:
		return std.NewValidateTool(toolCfg), nil
	case std.PalettesToolName:
		return std.NewPalettesTool(toolCfg), nil
	case std.SearchToolName:
		if searcher == nil {
			utils.Warn("search_image skipped: image search is not configured")
			return nil, nil
		}
		return std.NewSearchImageTool(searcher, toolCfg), nil
	default:
		return nil, fmt.Errorf("unknown tool")
	}
}
