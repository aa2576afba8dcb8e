// Базовые типы - определяем универсальный язык общения с моделями
package llm

// Role — роль автора сообщения.
type Role string

// Роли сообщений (OpenAI Chat Completions).
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message — одно сообщение истории диалога.
type Message struct {
	Role    Role
	Content string

	// ToolCalls — вызовы инструментов, которые запросила модель (только assistant).
	ToolCalls []ToolCall

	// ToolCallID связывает результат инструмента с вызовом (только tool).
	ToolCallID string

	// Images — URL или data-uri изображений (vision запросы).
	Images []string
}

// ToolCall — запрос модели на вызов инструмента.
type ToolCall struct {
	ID   string
	Name string
	Args string // Сырой JSON аргументов
}

// System создаёт системное сообщение.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User создаёт пользовательское сообщение.
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// ToolResult создаёт сообщение с результатом инструмента.
func ToolResult(callID, content string) Message {
	return Message{Role: RoleTool, ToolCallID: callID, Content: content}
}
