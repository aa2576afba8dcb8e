// Загрузка и Рендер - чтение файла и text/template.

package prompt

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/ilkoid/poncho-slides/pkg/llm"
)

// Load загружает, парсит и проверяет YAML файл промпта.
func Load(path string) (*File, error) {
	// 1. Проверяем наличие
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("prompt file not found: %s", path)
	}

	// 2. Читаем байты
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read error: %w", err)
	}

	// 3. Парсим YAML
	var pf File
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("yaml parse error: %w", err)
	}

	// 4. Шаблоны разбираются заранее: ошибка видна при старте, а не на генерации
	if err := pf.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &pf, nil
}

// Validate проверяет роли и синтаксис шаблонов.
func (pf *File) Validate() error {
	if len(pf.Messages) == 0 {
		return fmt.Errorf("prompt has no messages")
	}
	hasUser := false
	for i, msg := range pf.Messages {
		switch msg.Role {
		case llm.RoleSystem, llm.RoleAssistant:
		case llm.RoleUser:
			hasUser = true
		default:
			return fmt.Errorf("message #%d: unsupported role '%s'", i, msg.Role)
		}
		if _, err := parse(msg.Content); err != nil {
			return fmt.Errorf("template parse error in message #%d (%s): %w", i, msg.Role, err)
		}
	}
	if !hasUser {
		return fmt.Errorf("prompt needs at least one user message")
	}
	return nil
}

// RenderMessages подставляет данные во все сообщения.
func (pf *File) RenderMessages(data Data) ([]llm.Message, error) {
	rendered := make([]llm.Message, len(pf.Messages))

	for i, msg := range pf.Messages {
		tmpl, err := parse(msg.Content)
		if err != nil {
			return nil, fmt.Errorf("template parse error in message #%d (%s): %w", i, msg.Role, err)
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("template execute error in message #%d: %w", i, err)
		}

		rendered[i] = llm.Message{
			Role:    msg.Role,
			Content: buf.String(),
		}
	}

	return rendered, nil
}

// Options переводит config промпта в опции вызова LLM.
func (pf *File) Options() []llm.GenerateOption {
	var opts []llm.GenerateOption
	if pf.Config.Model != "" {
		opts = append(opts, llm.WithModel(pf.Config.Model))
	}
	if pf.Config.Temperature > 0 {
		opts = append(opts, llm.WithTemperature(pf.Config.Temperature))
	}
	if pf.Config.MaxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(pf.Config.MaxTokens))
	}
	if pf.Config.Format != "" {
		opts = append(opts, llm.WithFormat(pf.Config.Format))
	}
	return opts
}

var funcs = template.FuncMap{
	"join":  strings.Join,
	"upper": strings.ToUpper,
}

func parse(content string) (*template.Template, error) {
	return template.New("msg").Funcs(funcs).Option("missingkey=error").Parse(content)
}
