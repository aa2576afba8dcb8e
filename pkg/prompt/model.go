// Структуры данных - описывает формат YAML файла промпта.
package prompt

import "github.com/ilkoid/poncho-slides/pkg/llm"

// File описывает YAML-файл промпта генерации.
//
//	config:
//	  temperature: 0.4
//	messages:
//	  - role: system
//	    content: "You create slide presentations. Templates: {{join .Templates \", \"}}"
//	  - role: user
//	    content: "Create a presentation about: {{.Topic}}"
type File struct {
	Config   Config    `yaml:"config"`
	Messages []Message `yaml:"messages"`
}

// Config - настройки модели для конкретного промпта. Нулевые значения
// не переопределяют определение модели из config.yaml.
type Config struct {
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	Format      string  `yaml:"format"` // "json_object" или пусто
}

// Message - одно сообщение в чате
type Message struct {
	Role    llm.Role `yaml:"role"`    // system, user, assistant
	Content string   `yaml:"content"` // Шаблон с {{.Variables}}
}

// Data — переменные, доступные в шаблонах сообщений.
type Data struct {
	Topic     string
	Template  string   // Предпочитаемый шаблон, может быть пустым
	Templates []string // Имена встроенных шаблонов
	Themes    []string
	Moods     []string // Настроения палитр
}
