package debug

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Recorder накапливает трейс генерации и сохраняет его в JSON файл.
//
// Потокобезопасен. Методы без открытой итерации — no-op.
type Recorder struct {
	mu sync.Mutex

	config  RecorderConfig
	trace   Trace
	current *Iteration
	started time.Time

	visitedTools map[string]struct{}
	errors       []string
}

// RecorderConfig — настройки записи.
type RecorderConfig struct {
	// Dir — директория трейсов (создаётся при необходимости)
	Dir string

	// IncludeMessages — писать полную историю сообщений в каждую итерацию
	IncludeMessages bool

	// MaxResultSize — лимит длины результата инструмента (0 — без лимита)
	MaxResultSize int

	// Now — источник времени (для тестов)
	Now func() time.Time
}

// NewRecorder создаёт Recorder для генерации topic.
func NewRecorder(cfg RecorderConfig, topic, template string) (*Recorder, error) {
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create trace directory: %w", err)
		}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	now := cfg.Now()
	return &Recorder{
		config:  cfg,
		started: now,
		trace: Trace{
			RunID:     fmt.Sprintf("gen_%s_%s", now.Format("20060102_150405"), uuid.NewString()[:8]),
			Timestamp: now,
			Topic:     topic,
			Template:  template,
		},
		visitedTools: make(map[string]struct{}),
	}, nil
}

// RunID возвращает идентификатор трейса (имя файла без .json).
func (r *Recorder) RunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.trace.RunID
}

// StartIteration открывает итерацию с номером num.
func (r *Recorder) StartIteration(num int, req LLMRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.config.IncludeMessages {
		req.Messages = nil
	}
	r.current = &Iteration{Number: num, Request: req}
}

// RecordLLMResponse записывает ответ модели в текущую итерацию.
func (r *Recorder) RecordLLMResponse(resp LLMResponse) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		return
	}
	r.current.Response = resp
	if resp.Error != "" {
		r.errors = append(r.errors, "LLM error: "+resp.Error)
	}
}

// RecordToolExecution записывает выполнение инструмента.
func (r *Recorder) RecordToolExecution(exec ToolExecution) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		return
	}
	if limit := r.config.MaxResultSize; limit > 0 && len(exec.Result) > limit {
		exec.Result = exec.Result[:limit] + "... (truncated)"
		exec.ResultTruncated = true
	}

	r.current.ToolsExecuted = append(r.current.ToolsExecuted, exec)
	r.visitedTools[exec.Name] = struct{}{}
	if !exec.Success && exec.Error != "" {
		r.errors = append(r.errors, fmt.Sprintf("Tool %s: %s", exec.Name, exec.Error))
	}
}

// RecordRejection помечает финальный ответ текущей итерации как отклонённый.
func (r *Recorder) RecordRejection(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		return
	}
	r.current.Rejected = reason
	r.errors = append(r.errors, "Rejected answer: "+reason)
}

// EndIteration закрывает текущую итерацию.
func (r *Recorder) EndIteration(final bool, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		return
	}
	r.current.IsFinal = final
	r.current.Duration = duration.Milliseconds()
	r.trace.Iterations = append(r.trace.Iterations, *r.current)
	r.current = nil
}

// Finalize дописывает итог и сохраняет трейс. Возвращает путь файла.
//
// Незакрытая итерация сохраняется как есть.
func (r *Recorder) Finalize(deckTitle string, slides int, genErr error) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != nil {
		r.trace.Iterations = append(r.trace.Iterations, *r.current)
		r.current = nil
	}

	r.trace.Duration = r.config.Now().Sub(r.started).Milliseconds()
	r.trace.DeckTitle = deckTitle
	r.trace.Slides = slides
	if genErr != nil {
		r.trace.Error = genErr.Error()
	}
	r.trace.Summary = r.buildSummary()

	data, err := json.MarshalIndent(r.trace, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal trace: %w", err)
	}

	path := filepath.Join(r.config.Dir, r.trace.RunID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write trace: %w", err)
	}
	return path, nil
}

func (r *Recorder) buildSummary() Summary {
	s := Summary{
		Errors:       append([]string(nil), r.errors...),
		VisitedTools: make([]string, 0, len(r.visitedTools)),
	}
	for name := range r.visitedTools {
		s.VisitedTools = append(s.VisitedTools, name)
	}
	sort.Strings(s.VisitedTools)

	for _, it := range r.trace.Iterations {
		s.TotalLLMCalls++
		s.TotalLLMDuration += it.Response.Duration
		for _, t := range it.ToolsExecuted {
			s.TotalToolsExecuted++
			s.TotalToolDuration += t.Duration
		}
	}
	return s
}
