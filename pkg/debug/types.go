// Package debug записывает трейсы генерации презентаций в JSON.
//
// Один файл на вызов Orchestrator.Generate: запросы к LLM, вызовы
// инструментов, длительности и ошибки. Включается через app.trace_dir.
package debug

import "time"

// Trace — полный трейс одной генерации.
type Trace struct {
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	Topic     string    `json:"topic"`
	Template  string    `json:"template,omitempty"`

	// Duration — общая длительность в миллисекундах
	Duration int64 `json:"duration_ms"`

	Iterations []Iteration `json:"iterations"`
	Summary    Summary     `json:"summary"`

	// DeckTitle — заголовок итогового Deck (пусто при ошибке)
	DeckTitle string `json:"deck_title,omitempty"`
	Slides    int    `json:"slides,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Iteration — один вызов LLM и инструменты, которые он запросил.
type Iteration struct {
	Number        int             `json:"iteration"`
	Duration      int64           `json:"duration_ms"`
	Request       LLMRequest      `json:"llm_request"`
	Response      LLMResponse     `json:"llm_response"`
	ToolsExecuted []ToolExecution `json:"tools_executed,omitempty"`

	// Rejected — финальный ответ не прошёл разбор Deck
	Rejected string `json:"rejected,omitempty"`
	IsFinal  bool   `json:"is_final,omitempty"`
}

// LLMRequest — что ушло в модель.
type LLMRequest struct {
	MessagesCount int            `json:"messages_count"`
	Messages      []MessageEntry `json:"messages,omitempty"`
	Tools         []string       `json:"tools,omitempty"`
}

// LLMResponse — что вернула модель.
type LLMResponse struct {
	Content   string         `json:"content,omitempty"`
	ToolCalls []ToolCallInfo `json:"tool_calls,omitempty"`
	Duration  int64          `json:"duration_ms"`
	Error     string         `json:"error,omitempty"`
}

// ToolCallInfo — вызов инструмента, запрошенный моделью.
type ToolCallInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Args string `json:"args"`
}

// ToolExecution — выполнение одного инструмента.
type ToolExecution struct {
	Name            string `json:"name"`
	Args            string `json:"args,omitempty"`
	Result          string `json:"result,omitempty"`
	ResultTruncated bool   `json:"result_truncated,omitempty"`
	Duration        int64  `json:"duration_ms"`
	Success         bool   `json:"success"`
	Error           string `json:"error,omitempty"`
}

// Summary — агрегаты по трейсу.
type Summary struct {
	TotalLLMCalls      int      `json:"total_llm_calls"`
	TotalToolsExecuted int      `json:"total_tools_executed"`
	TotalLLMDuration   int64    `json:"total_llm_duration_ms"`
	TotalToolDuration  int64    `json:"total_tool_duration_ms"`
	Errors             []string `json:"errors,omitempty"`
	VisitedTools       []string `json:"visited_tools,omitempty"`
}

// MessageEntry — сообщение истории диалога.
type MessageEntry struct {
	Role       string `json:"role"`
	Content    string `json:"content,omitempty"`
	ToolCallID string `json:"tool_call_id,omitempty"`
	ToolCalls  int    `json:"tool_calls,omitempty"`
}
