// Package orchestrator превращает тему презентации в валидный Deck.
//
// Реализует цикл вызова инструментов (ReAct):
//
//  1. LLM получает системный промпт, тему и определения инструментов
//  2. Если модель запросила инструменты — они выполняются через tools.Registry,
//     результаты возвращаются модели
//  3. Ответ без вызовов инструментов считается финальным и должен быть Deck JSON
//  4. Невалидный Deck возвращается модели с описанием ошибок (пока есть итерации)
//
// После получения Deck незаполненные изображения ищутся через imagesearch.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilkoid/poncho-slides/pkg/debug"
	"github.com/ilkoid/poncho-slides/pkg/deck"
	"github.com/ilkoid/poncho-slides/pkg/imagesearch"
	"github.com/ilkoid/poncho-slides/pkg/llm"
	"github.com/ilkoid/poncho-slides/pkg/prompt"
	"github.com/ilkoid/poncho-slides/pkg/templates"
	"github.com/ilkoid/poncho-slides/pkg/tools"
	"github.com/ilkoid/poncho-slides/pkg/utils"
)

// DefaultMaxIterations — лимит вызовов LLM за одну генерацию.
const DefaultMaxIterations = 10

// ErrMaxIterations — модель не вернула валидный Deck за отведённые итерации.
var ErrMaxIterations = errors.New("max iterations reached without a valid presentation")

// DefaultSystemPrompt — системный промпт генерации.
const DefaultSystemPrompt = `You create slide presentations.

Workflow:
1. Call get_presentation_template to get a skeleton for the topic.
2. Rewrite every slide for the topic: short headings, 2-3 short paragraphs separated by a blank line.
3. Optionally call search_image for slides that need a photo, or keep an image "query" and it will be resolved later.
4. Call validate_presentation and fix every reported error.

Your final answer must be ONLY the presentation JSON object:
{"title": "...", "theme": "light|dark|blue|purple|gradient", "autoplay": false, "showProgress": true,
 "slides": [{"type": "intro|content|outro", "title": "...", "content": "...", "image": {"query": "..."}}]}`

// Result — итог генерации.
type Result struct {
	Deck           deck.Deck
	Iterations     int
	ToolCalls      int
	ImagesResolved int
}

// Orchestrator — неизменяемый шаблон цикла. Generate безопасен для
// параллельного вызова: история сообщений живёт в стеке вызова.
type Orchestrator struct {
	provider      llm.Provider
	registry      *tools.Registry
	searcher      imagesearch.Searcher
	maxIterations int
	systemPrompt  string
	promptFile    *prompt.File
	traceDir      string
}

// Option настраивает Orchestrator.
type Option func(*Orchestrator)

// WithSearcher включает поиск изображений для слайдов с query без URL.
func WithSearcher(s imagesearch.Searcher) Option {
	return func(o *Orchestrator) { o.searcher = s }
}

// WithMaxIterations задаёт лимит итераций.
func WithMaxIterations(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxIterations = n
		}
	}
}

// WithSystemPrompt заменяет системный промпт.
func WithSystemPrompt(prompt string) Option {
	return func(o *Orchestrator) {
		if strings.TrimSpace(prompt) != "" {
			o.systemPrompt = prompt
		}
	}
}

// WithPrompt берёт стартовые сообщения и параметры модели из файла промпта.
// Имеет приоритет над WithSystemPrompt.
func WithPrompt(pf *prompt.File) Option {
	return func(o *Orchestrator) { o.promptFile = pf }
}

// WithTraceDir включает JSON трейс каждой генерации в dir.
func WithTraceDir(dir string) Option {
	return func(o *Orchestrator) { o.traceDir = dir }
}

// New создаёт Orchestrator.
func New(provider llm.Provider, registry *tools.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider:      provider,
		registry:      registry,
		maxIterations: DefaultMaxIterations,
		systemPrompt:  DefaultSystemPrompt,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Generate создаёт презентацию по теме.
//
// template — предпочитаемый шаблон (подсказка для модели, может быть пустым).
func (o *Orchestrator) Generate(ctx context.Context, topic, template string) (Result, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Result{}, fmt.Errorf("topic is required")
	}
	if o.provider == nil || o.registry == nil {
		return Result{}, fmt.Errorf("orchestrator is not configured")
	}

	messages, err := o.initialMessages(topic, template)
	if err != nil {
		return Result{}, err
	}
	callOpts := []any{o.registry.GetDefinitions()}
	if o.promptFile != nil {
		for _, opt := range o.promptFile.Options() {
			callOpts = append(callOpts, opt)
		}
	}

	rec := o.newRecorder(topic, template)
	res, err := o.loop(ctx, topic, messages, callOpts, rec)
	if rec != nil {
		path, ferr := rec.Finalize(res.Deck.Title, res.Deck.Len(), err)
		if ferr != nil {
			utils.Warn("Orchestrator: trace not saved", "error", ferr)
		} else {
			utils.Info("Orchestrator: trace saved", "path", path)
		}
	}
	return res, err
}

func (o *Orchestrator) loop(ctx context.Context, topic string, messages []llm.Message, callOpts []any, rec *debug.Recorder) (Result, error) {
	var res Result
	for res.Iterations < o.maxIterations {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Iterations++
		iterStart := time.Now()
		if rec != nil {
			rec.StartIteration(res.Iterations, traceRequest(messages, o.registry.Names()))
		}

		// 1. Вызов LLM
		llmStart := time.Now()
		reply, err := o.provider.Generate(ctx, messages, callOpts...)
		if rec != nil {
			rec.RecordLLMResponse(traceResponse(reply, err, time.Since(llmStart)))
		}
		if err != nil {
			return res, fmt.Errorf("iteration %d: %w", res.Iterations, err)
		}
		reply.Role = llm.RoleAssistant
		messages = append(messages, reply)

		// 2. Инструменты
		if len(reply.ToolCalls) > 0 {
			for _, tc := range reply.ToolCalls {
				res.ToolCalls++
				messages = append(messages, llm.ToolResult(tc.ID, o.runTool(ctx, tc, rec)))
			}
			if rec != nil {
				rec.EndIteration(false, time.Since(iterStart))
			}
			continue
		}

		// 3. Финальный ответ
		d, err := parseFinal(reply.Content)
		if err != nil {
			utils.Warn("Orchestrator: final answer rejected",
				"iteration", res.Iterations,
				"error", err)
			if rec != nil {
				rec.RecordRejection(err.Error())
				rec.EndIteration(false, time.Since(iterStart))
			}
			messages = append(messages, llm.User(
				"Your answer is not a valid presentation: "+err.Error()+
					"\nReturn ONLY the corrected presentation JSON."))
			continue
		}
		if rec != nil {
			rec.EndIteration(true, time.Since(iterStart))
		}

		// 4. Изображения
		if o.searcher != nil {
			*d, res.ImagesResolved = imagesearch.ResolveDeck(ctx, o.searcher, *d)
		}
		res.Deck = *d

		utils.Info("Orchestrator: presentation generated",
			"topic", topic,
			"slides", d.Len(),
			"iterations", res.Iterations,
			"tool_calls", res.ToolCalls,
			"images", res.ImagesResolved)
		return res, nil
	}

	return res, ErrMaxIterations
}

// newRecorder создаёт рекордер трейса или nil, если трейс выключен.
func (o *Orchestrator) newRecorder(topic, template string) *debug.Recorder {
	if o.traceDir == "" {
		return nil
	}
	rec, err := debug.NewRecorder(debug.RecorderConfig{
		Dir:             o.traceDir,
		IncludeMessages: true,
		MaxResultSize:   4096,
	}, topic, template)
	if err != nil {
		utils.Warn("Orchestrator: tracing disabled", "error", err)
		return nil
	}
	return rec
}

func traceRequest(messages []llm.Message, toolNames []string) debug.LLMRequest {
	req := debug.LLMRequest{MessagesCount: len(messages), Tools: toolNames}
	for _, m := range messages {
		req.Messages = append(req.Messages, debug.MessageEntry{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
			ToolCalls:  len(m.ToolCalls),
		})
	}
	return req
}

func traceResponse(reply llm.Message, err error, d time.Duration) debug.LLMResponse {
	resp := debug.LLMResponse{Content: reply.Content, Duration: d.Milliseconds()}
	for _, tc := range reply.ToolCalls {
		resp.ToolCalls = append(resp.ToolCalls, debug.ToolCallInfo{ID: tc.ID, Name: tc.Name, Args: tc.Args})
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}

// initialMessages строит начало диалога: из файла промпта или встроенный промпт.
func (o *Orchestrator) initialMessages(topic, template string) ([]llm.Message, error) {
	if o.promptFile != nil {
		themes := make([]string, 0, len(deck.Themes()))
		for _, t := range deck.Themes() {
			themes = append(themes, string(t))
		}
		msgs, err := o.promptFile.RenderMessages(prompt.Data{
			Topic:     topic,
			Template:  template,
			Templates: templates.Names(),
			Themes:    themes,
			Moods:     templates.Moods(),
		})
		if err != nil {
			return nil, fmt.Errorf("render prompt: %w", err)
		}
		return msgs, nil
	}

	request := fmt.Sprintf("Create a presentation about: %s", topic)
	if template != "" {
		request += fmt.Sprintf("\nPreferred template: %s", template)
	}
	return []llm.Message{llm.System(o.systemPrompt), llm.User(request)}, nil
}

// runTool выполняет вызов и всегда возвращает строку для модели:
// ошибки инструмента сериализуются в {"error": {...}}.
func (o *Orchestrator) runTool(ctx context.Context, tc llm.ToolCall, rec *debug.Recorder) string {
	start := time.Now()
	out, err := o.registry.Execute(ctx, tc.Name, tc.Args)
	if err != nil {
		utils.Warn("Orchestrator: tool failed", "tool", tc.Name, "error", err)
		out = tools.ErrorJSON(err)
	}
	if rec != nil {
		exec := debug.ToolExecution{
			Name:     tc.Name,
			Args:     tc.Args,
			Result:   out,
			Duration: time.Since(start).Milliseconds(),
			Success:  err == nil,
		}
		if err != nil {
			exec.Error = err.Error()
		}
		rec.RecordToolExecution(exec)
	}
	return out
}

// parseFinal извлекает Deck из финального ответа модели.
func parseFinal(content string) (*deck.Deck, error) {
	raw := utils.ExtractJSON(utils.CleanJsonBlock(content))
	if raw == "" {
		return nil, fmt.Errorf("%w: no JSON object in the answer", deck.ErrInvalidDeck)
	}
	return deck.Parse([]byte(raw))
}
