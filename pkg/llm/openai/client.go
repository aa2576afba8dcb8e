// Package openai реализует адаптер LLM провайдера для OpenAI-совместимых API.
//
// Поддерживает Function Calling (tools) для оркестратора генерации презентаций.
// Работает только через интерфейс llm.Provider.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ilkoid/poncho-slides/pkg/config"
	"github.com/ilkoid/poncho-slides/pkg/llm"
	"github.com/ilkoid/poncho-slides/pkg/tools"
	"github.com/ilkoid/poncho-slides/pkg/utils"
)

// DefaultTimeout — timeout HTTP запроса, если в модели не задан свой.
const DefaultTimeout = 120 * time.Second

// Client реализует интерфейс llm.Provider для OpenAI-совместимых API.
type Client struct {
	api      *openai.Client
	defaults llm.GenerateOptions
}

// NewClient создает OpenAI клиент на основе конфигурации модели.
//
// BaseURL позволяет работать с OpenAI-совместимыми провайдерами
// (OpenRouter, Zai, DeepSeek, локальные серверы).
func NewClient(modelDef config.ModelDef) *Client {
	cfg := openai.DefaultConfig(modelDef.APIKey)
	if modelDef.BaseURL != "" {
		cfg.BaseURL = modelDef.BaseURL
	}

	timeout := modelDef.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &Client{
		api: openai.NewClientWithConfig(cfg),
		defaults: llm.GenerateOptions{
			Model:       modelDef.ModelName,
			Temperature: modelDef.Temperature,
			MaxTokens:   modelDef.MaxTokens,
		},
	}
}

// Generate выполняет запрос к API и возвращает ответ модели.
//
// opts:
//   - []tools.ToolDefinition — инструменты для Function Calling
//   - llm.GenerateOption — переопределение параметров модели
//
// Алгоритм:
//  1. Конвертирует сообщения в формат OpenAI SDK
//  2. Применяет параметры модели и tools
//  3. Вызывает API
//  4. Конвертирует ответ (включая ToolCalls) обратно
func (c *Client) Generate(ctx context.Context, messages []llm.Message, opts ...any) (llm.Message, error) {
	startTime := time.Now()

	// 1. Разбираем опции
	var toolDefs []tools.ToolDefinition
	for _, opt := range opts {
		switch v := opt.(type) {
		case []tools.ToolDefinition:
			toolDefs = v
		case llm.GenerateOption:
		default:
			return llm.Message{}, fmt.Errorf("invalid option type: %T", opt)
		}
	}
	params := llm.ApplyOptions(c.defaults, opts...)

	utils.Debug("LLM request started",
		"model", params.Model,
		"messages_count", len(messages),
		"tools_count", len(toolDefs))

	// 2. Конвертируем сообщения
	openaiMsgs := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		openaiMsgs[i] = mapToOpenAI(m)
	}

	req := openai.ChatCompletionRequest{
		Model:       params.Model,
		Messages:    openaiMsgs,
		MaxTokens:   params.MaxTokens,
		Temperature: float32(params.Temperature),
	}
	if params.Format == "json_object" {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	if len(toolDefs) > 0 {
		req.Tools = convertToolsToOpenAI(toolDefs)
		req.ToolChoice = "auto"
	}

	// 3. Вызываем API
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		utils.Error("LLM API request failed",
			"error", err,
			"model", params.Model,
			"duration_ms", time.Since(startTime).Milliseconds())
		return llm.Message{}, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return llm.Message{}, fmt.Errorf("no choices in response")
	}

	// 4. Маппим ответ обратно
	result := mapFromOpenAI(resp.Choices[0].Message)

	utils.Info("LLM response received",
		"model", params.Model,
		"tool_calls_count", len(result.ToolCalls),
		"content_length", len(result.Content),
		"duration_ms", time.Since(startTime).Milliseconds())

	return result, nil
}

// mapToOpenAI конвертирует наше сообщение в формат SDK.
// Если есть картинки, создаётся MultiContent.
func mapToOpenAI(m llm.Message) openai.ChatCompletionMessage {
	msg := openai.ChatCompletionMessage{
		Role:       string(m.Role),
		ToolCallID: m.ToolCallID,
	}

	for _, tc := range m.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
			ID:   tc.ID,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      tc.Name,
				Arguments: tc.Args,
			},
		})
	}

	if len(m.Images) == 0 {
		msg.Content = m.Content
		return msg
	}

	parts := []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: m.Content},
	}
	for _, imgURL := range m.Images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    imgURL,
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}
	msg.MultiContent = parts
	return msg
}

func mapFromOpenAI(m openai.ChatCompletionMessage) llm.Message {
	result := llm.Message{
		Role:    llm.Role(m.Role),
		Content: m.Content,
	}
	if len(m.ToolCalls) > 0 {
		result.ToolCalls = make([]llm.ToolCall, len(m.ToolCalls))
		for i, tc := range m.ToolCalls {
			result.ToolCalls[i] = llm.ToolCall{
				ID:   tc.ID,
				Name: tc.Function.Name,
				Args: tc.Function.Arguments,
			}
		}
	}
	return result
}

// convertToolsToOpenAI конвертирует определения инструментов в формат
// OpenAI Function Calling. Parameters уже является JSON Schema объектом
// и передаётся как есть.
func convertToolsToOpenAI(defs []tools.ToolDefinition) []openai.Tool {
	result := make([]openai.Tool, len(defs))
	for i, def := range defs {
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		}
	}
	return result
}

var _ llm.Provider = (*Client)(nil)
