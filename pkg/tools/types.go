// Интерфейс Tool и структуры определений.

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// JSONSchema представляет JSON Schema для параметров инструмента.
//
// Формат соответствует JSON Schema specification для Function Calling API.
type JSONSchema map[string]any

// ToolDefinition описывает инструмент для LLM (Function Calling API format).
type ToolDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  JSONSchema `json:"parameters"` // JSON Schema объекта аргументов
}

// Tool — контракт, который должен реализовать любой инструмент.
type Tool interface {
	// Definition возвращает описание инструмента для LLM.
	Definition() ToolDefinition

	// Execute выполняет логику инструмента.
	// argsJSON — это сырой JSON с аргументами, который прислала LLM.
	// Возвращает результат (JSON) или ошибку (обычно *ToolError).
	Execute(ctx context.Context, argsJSON string) (string, error)
}

// Коды ошибок инструментов.
const (
	CodeInvalidArguments = "invalid_arguments"
	CodeNotFound         = "not_found"
	CodeUpstream         = "upstream_error"
)

// ToolError — структурированная ошибка инструмента.
//
// Сериализуется в JSON и возвращается модели как результат вызова,
// чтобы она могла исправить аргументы и повторить.
type ToolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error реализует error.
func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError создаёт ToolError с форматированным сообщением.
func NewError(code, format string, args ...any) *ToolError {
	return &ToolError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ErrorJSON возвращает JSON представление ошибки для передачи в LLM.
//
// Не-ToolError ошибки оборачиваются с кодом upstream_error.
func ErrorJSON(err error) string {
	var te *ToolError
	if !errors.As(err, &te) {
		te = &ToolError{Code: CodeUpstream, Message: err.Error()}
	}
	data, _ := json.Marshal(map[string]*ToolError{"error": te})
	return string(data)
}

// DecodeArgs разбирает argsJSON в v. Пустая строка считается "{}".
func DecodeArgs(argsJSON string, v any) error {
	if argsJSON == "" {
		argsJSON = "{}"
	}
	if err := json.Unmarshal([]byte(argsJSON), v); err != nil {
		return NewError(CodeInvalidArguments, "invalid JSON arguments: %v", err)
	}
	return nil
}

// EncodeResult сериализует результат инструмента.
func EncodeResult(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	return string(data), nil
}
