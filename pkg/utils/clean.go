// Package utils предоставляет вспомогательные функции для обработки данных.
//
// Включает очистку ответов LLM от markdown-обёртки и извлечение
// JSON-документа презентации из свободного текста.
package utils

import (
	"strings"
	"unicode"
)

// CleanJsonBlock удаляет markdown-обёртку вокруг JSON.
//
// LLM часто возвращает JSON обёрнутым в markdown кодовые блоки:
//
//	```json
//	{"key": "value"}
//	```
//
// Примеры:
//
//	```json {"a": 1} ``` → {"a": 1}
//	``` {"a": 1} ``` → {"a": 1}
func CleanJsonBlock(s string) string {
	s = strings.TrimSpace(s)

	// Удаляем ```json в начале (регистр не важен)
	if len(s) >= 7 && strings.EqualFold(s[:7], "```json") {
		s = s[7:]
	}
	s = strings.TrimPrefix(s, "```")

	// Удаляем ``` в конце
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	return strings.TrimSpace(s)
}

// ExtractJSON извлекает первый JSON-объект из строки.
//
// Скобки внутри строковых литералов не учитываются, поэтому
// текст слайда вида "use {} for maps" не ломает разбор.
// Возвращает пустую строку если объект не найден или не закрыт.
// Не валидирует JSON — для этого json.Unmarshal.
func ExtractJSON(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}

	// Элемент массива не извлекаем
	if start > 0 && s[start-1] == '[' {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}

	return ""
}

// SafeFilename превращает произвольный заголовок в часть имени файла.
//
// Каждый символ, не являющийся буквой или цифрой ASCII, заменяется на "_",
// результат приводится к нижнему регистру. Пустой заголовок даёт fallback.
func SafeFilename(title, fallback string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return fallback
	}

	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
