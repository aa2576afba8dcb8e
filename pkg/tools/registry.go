// Реестр для хранения, поиска и вызова инструментов.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ilkoid/poncho-slides/pkg/utils"
)

// DefaultTimeout — защитный timeout вызова инструмента.
const DefaultTimeout = 30 * time.Second

// Registry — потокобезопасное хранилище инструментов.
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]Tool
	timeouts map[string]time.Duration
}

// NewRegistry создает новый пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		tools:    make(map[string]Tool),
		timeouts: make(map[string]time.Duration),
	}
}

// validateToolDefinition проверяет что ToolDefinition соответствует JSON Schema.
//
// Валидирует:
//   - Name не пустой
//   - Parameters является JSON объектом с type == "object"
//   - Parameters.required (если есть) является массивом строк
func validateToolDefinition(def ToolDefinition) error {
	// 1. Имя
	if def.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if def.Parameters == nil {
		return fmt.Errorf("tool '%s': parameters cannot be nil", def.Name)
	}

	// 2. Нормализуем через JSON: схемы могут содержать вложенные типы
	paramsJSON, err := json.Marshal(def.Parameters)
	if err != nil {
		return fmt.Errorf("tool '%s': failed to marshal parameters: %w", def.Name, err)
	}
	var params map[string]any
	if err := json.Unmarshal(paramsJSON, &params); err != nil {
		return fmt.Errorf("tool '%s': parameters must be a JSON object, got: %s", def.Name, string(paramsJSON))
	}

	// 3. type == "object"
	typeStr, ok := params["type"].(string)
	if !ok {
		return fmt.Errorf("tool '%s': parameters must have string 'type' field", def.Name)
	}
	if typeStr != "object" {
		return fmt.Errorf("tool '%s': parameters.type must be 'object', got: '%s'", def.Name, typeStr)
	}

	// 4. required — массив строк
	if requiredVal, exists := params["required"]; exists {
		required, ok := requiredVal.([]any)
		if !ok {
			return fmt.Errorf("tool '%s': parameters.required must be an array", def.Name)
		}
		for i, item := range required {
			if _, ok := item.(string); !ok {
				return fmt.Errorf("tool '%s': parameters.required[%d] must be a string, got: %T", def.Name, i, item)
			}
		}
	}

	return nil
}

// Register добавляет инструмент в реестр с валидацией схемы.
//
// Повторная регистрация с тем же именем заменяет инструмент.
func (r *Registry) Register(tool Tool) error {
	def := tool.Definition()
	if err := validateToolDefinition(def); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[def.Name] = tool
	return nil
}

// SetTimeout переопределяет timeout вызова для инструмента.
func (r *Registry) SetTimeout(name string, timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeouts[name] = timeout
}

// Get ищет инструмент по имени.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	if !ok {
		return nil, NewError(CodeNotFound, "tool '%s' not found", name)
	}
	return tool, nil
}

// Names возвращает имена зарегистрированных инструментов по алфавиту.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetDefinitions возвращает определения всех инструментов для отправки в LLM.
// Порядок стабилен (по имени).
func (r *Registry) GetDefinitions() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, t.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Execute вызывает инструмент по имени с защитным timeout.
//
// Аргументы предварительно очищаются от markdown обёртки (```json).
// Если инструмент не уложился в timeout, возвращается ошибка, а
// горутина инструмента завершается сама по отмене контекста.
func (r *Registry) Execute(ctx context.Context, name, argsJSON string) (string, error) {
	tool, err := r.Get(name)
	if err != nil {
		return "", err
	}

	r.mu.RLock()
	timeout, ok := r.timeouts[name]
	r.mu.RUnlock()
	if !ok {
		timeout = DefaultTimeout
	}

	// 1. Санитизируем JSON аргументы
	cleanArgs := utils.CleanJsonBlock(argsJSON)

	// 2. Контекст с timeout
	toolCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type execResult struct {
		output string
		err    error
	}
	resultChan := make(chan execResult, 1)

	start := time.Now()
	go func() {
		out, err := tool.Execute(toolCtx, cleanArgs)
		resultChan <- execResult{out, err}
	}()

	// 3. Ждём результат или отмену
	select {
	case <-toolCtx.Done():
		utils.Warn("Tool execution aborted",
			"tool", name,
			"timeout", timeout,
			"error", toolCtx.Err())
		if toolCtx.Err() == context.DeadlineExceeded {
			return "", NewError(CodeUpstream, "tool '%s' exceeded timeout of %v", name, timeout)
		}
		return "", fmt.Errorf("tool '%s' cancelled: %w", name, toolCtx.Err())

	case res := <-resultChan:
		utils.Debug("Tool executed",
			"tool", name,
			"success", res.err == nil,
			"duration_ms", time.Since(start).Milliseconds())
		return res.output, res.err
	}
}
