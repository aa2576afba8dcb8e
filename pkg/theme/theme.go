// Package theme отображает тему презентации в набор стилевых токенов.
//
// Tokens — чистая функция от deck.Theme: никакого глобального изменяемого
// состояния. Рендер (TUI) и экспорт (PDF) получают токены явно.
package theme

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ilkoid/poncho-slides/pkg/deck"
)

// Tokens определяет цвета для элементов слайда.
//
// Каждое поле — lipgloss.Color в hex формате (#rrggbb), чтобы те же
// значения можно было перевести в RGB для PDF.
type Tokens struct {
	Name deck.Theme

	Background lipgloss.Color // Фон карточки слайда
	Foreground lipgloss.Color // Основной текст
	Heading    lipgloss.Color // Заголовок слайда
	Accent     lipgloss.Color // Метка типа, активная точка навигации, прогресс
	Muted      lipgloss.Color // Атрибуция, подсказки
	Error      lipgloss.Color // Плейсхолдер незагруженного изображения
	Border     lipgloss.Color // Рамка карточки

	// Gradient — пара цветов для прогресс-бара (для gradient темы различаются).
	Gradient [2]lipgloss.Color
}

// For возвращает токены для темы. Неизвестная тема даёт light.
func For(t deck.Theme) Tokens {
	switch t {
	case deck.ThemeDark:
		return Tokens{
			Name:       deck.ThemeDark,
			Background: "#111827",
			Foreground: "#e5e7eb",
			Heading:    "#f9fafb",
			Accent:     "#38bdf8",
			Muted:      "#9ca3af",
			Error:      "#f87171",
			Border:     "#374151",
			Gradient:   [2]lipgloss.Color{"#38bdf8", "#38bdf8"},
		}
	case deck.ThemeBlue:
		return Tokens{
			Name:       deck.ThemeBlue,
			Background: "#1e3a8a",
			Foreground: "#dbeafe",
			Heading:    "#ffffff",
			Accent:     "#93c5fd",
			Muted:      "#bfdbfe",
			Error:      "#fca5a5",
			Border:     "#3b82f6",
			Gradient:   [2]lipgloss.Color{"#60a5fa", "#60a5fa"},
		}
	case deck.ThemePurple:
		return Tokens{
			Name:       deck.ThemePurple,
			Background: "#4c1d95",
			Foreground: "#ede9fe",
			Heading:    "#ffffff",
			Accent:     "#c4b5fd",
			Muted:      "#ddd6fe",
			Error:      "#fca5a5",
			Border:     "#8b5cf6",
			Gradient:   [2]lipgloss.Color{"#a78bfa", "#a78bfa"},
		}
	case deck.ThemeGradient:
		return Tokens{
			Name:       deck.ThemeGradient,
			Background: "#312e81",
			Foreground: "#f5f3ff",
			Heading:    "#ffffff",
			Accent:     "#f472b6",
			Muted:      "#c7d2fe",
			Error:      "#fecaca",
			Border:     "#ec4899",
			Gradient:   [2]lipgloss.Color{"#6366f1", "#ec4899"},
		}
	default:
		return Tokens{
			Name:       deck.ThemeLight,
			Background: "#ffffff",
			Foreground: "#1f2937",
			Heading:    "#111827",
			Accent:     "#2563eb",
			Muted:      "#6b7280",
			Error:      "#dc2626",
			Border:     "#d1d5db",
			Gradient:   [2]lipgloss.Color{"#2563eb", "#2563eb"},
		}
	}
}

// RGB разбирает hex цвет (#rgb или #rrggbb) в компоненты 0–255.
//
// Используется PDF экспортом, которому нужны целые RGB.
func RGB(c lipgloss.Color) (r, g, b int, err error) {
	s := strings.TrimPrefix(string(c), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0, 0, 0, fmt.Errorf("color '%s' is not a hex color", c)
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("color '%s': %w", c, err)
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), nil
}

// MustRGB — как RGB, но для заведомо валидных токенов возвращает чёрный при ошибке.
func MustRGB(c lipgloss.Color) (r, g, b int) {
	r, g, b, err := RGB(c)
	if err != nil {
		return 0, 0, 0
	}
	return r, g, b
}
