// Package std предоставляет стандартные инструменты генерации презентаций.
//
// Каждый инструмент реализует tools.Tool ("Raw In, String Out"): принимает
// сырой JSON аргументов от LLM и возвращает JSON строку. Ошибки аргументов
// возвращаются как *tools.ToolError, чтобы модель могла их исправить.
package std

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/ilkoid/poncho-slides/pkg/config"
	"github.com/ilkoid/poncho-slides/pkg/deck"
	"github.com/ilkoid/poncho-slides/pkg/templates"
	"github.com/ilkoid/poncho-slides/pkg/tools"
)

// Имена инструментов.
const (
	TemplateToolName = "get_presentation_template"
	ValidateToolName = "validate_presentation"
	SearchToolName   = "search_image"
	PalettesToolName = "get_color_palettes"
)

// describe возвращает описание из config.yaml или дефолтное.
func describe(toolCfg config.ToolConfig, fallback string) string {
	if strings.TrimSpace(toolCfg.Description) != "" {
		return toolCfg.Description
	}
	return fallback
}

// TemplateArgs — аргументы get_presentation_template.
type TemplateArgs struct {
	Topic    string `json:"topic" jsonschema:"required,description=Presentation topic that replaces the {topic} placeholder."`
	Template string `json:"template,omitempty" jsonschema:"enum=business,enum=education,enum=product_launch,description=Template name; unknown names fall back to business."`
}

// TemplateTool возвращает шаблон презентации с подставленной темой.
type TemplateTool struct {
	description string
}

// NewTemplateTool создаёт get_presentation_template.
func NewTemplateTool(toolCfg config.ToolConfig) *TemplateTool {
	return &TemplateTool{
		description: describe(toolCfg,
			"Returns a presentation skeleton (Deck JSON) for a topic. Templates: business, education, product_launch. "+
				"Slides carry image search queries instead of URLs."),
	}
}

// Definition реализует tools.Tool.
func (t *TemplateTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        TemplateToolName,
		Description: t.description,
		Parameters:  tools.GenerateSchema[TemplateArgs](),
	}
}

// Execute реализует tools.Tool.
func (t *TemplateTool) Execute(_ context.Context, argsJSON string) (string, error) {
	var args TemplateArgs
	if err := tools.DecodeArgs(argsJSON, &args); err != nil {
		return "", err
	}
	if strings.TrimSpace(args.Topic) == "" {
		return "", tools.NewError(tools.CodeInvalidArguments, "topic is required")
	}

	tpl, _ := templates.Lookup(args.Template)
	d := tpl.Expand(args.Topic)

	data, err := deck.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ValidateArgs — аргументы validate_presentation.
type ValidateArgs struct {
	Presentation deck.Deck `json:"presentation" jsonschema:"required,description=Presentation to validate."`
}

// ValidateResult — результат validate_presentation.
type ValidateResult struct {
	Valid  bool     `json:"valid"`
	Slides int      `json:"slides,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

// ValidateTool проверяет Deck на соответствие схеме.
//
// Невалидный Deck — не ошибка инструмента: модель получает список нарушений.
type ValidateTool struct {
	description string
}

// NewValidateTool создаёт validate_presentation.
func NewValidateTool(toolCfg config.ToolConfig) *ValidateTool {
	return &ValidateTool{
		description: describe(toolCfg,
			"Validates a presentation (Deck JSON) and lists every schema violation. Call before returning the final answer."),
	}
}

// Definition реализует tools.Tool.
func (t *ValidateTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        ValidateToolName,
		Description: t.description,
		Parameters:  tools.GenerateSchema[ValidateArgs](),
	}
}

// Execute реализует tools.Tool.
func (t *ValidateTool) Execute(_ context.Context, argsJSON string) (string, error) {
	var raw struct {
		Presentation json.RawMessage `json:"presentation"`
	}
	if err := tools.DecodeArgs(argsJSON, &raw); err != nil {
		return "", err
	}
	if len(raw.Presentation) == 0 || string(raw.Presentation) == "null" {
		return "", tools.NewError(tools.CodeInvalidArguments, "presentation is required")
	}

	d, err := deck.Parse(raw.Presentation)
	if err != nil {
		return tools.EncodeResult(ValidateResult{Valid: false, Errors: splitJoined(err)})
	}
	return tools.EncodeResult(ValidateResult{Valid: true, Slides: d.Len()})
}

// splitJoined разворачивает errors.Join в список сообщений.
func splitJoined(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		msgs := make([]string, 0, len(joined.Unwrap()))
		for _, e := range joined.Unwrap() {
			msgs = append(msgs, e.Error())
		}
		return msgs
	}
	return []string{err.Error()}
}

var (
	_ tools.Tool = (*TemplateTool)(nil)
	_ tools.Tool = (*ValidateTool)(nil)
)
