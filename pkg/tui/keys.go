// Package tui предоставляет reusable KeyMap для просмотрщика слайдов.
package tui

import (
	"strconv"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap определяет клавиатурные сокращения просмотрщика.
//
// Стрелки и GoTo подчиняются transition lock контроллера,
// TogglePlay и Fullscreen — нет.
type KeyMap struct {
	Previous       key.Binding
	Next           key.Binding
	GoTo           key.Binding // 1-9: прямой переход к слайду
	TogglePlay     key.Binding
	Fullscreen     key.Binding
	ExitFullscreen key.Binding
	Reset          key.Binding
	RetryImage     key.Binding
	Export         key.Binding
	ScrollUp       key.Binding
	ScrollDown     key.Binding
	ToggleHelp     key.Binding
	Quit           key.Binding
}

// ShortHelp реализует help.KeyMap интерфейс.
func (km KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		km.Previous,
		km.Next,
		km.TogglePlay,
		km.Fullscreen,
		km.ToggleHelp,
		km.Quit,
	}
}

// FullHelp реализует help.KeyMap интерфейс.
func (km KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{km.Previous, km.Next, km.GoTo, km.Reset},
		{km.TogglePlay, km.Fullscreen, km.ExitFullscreen},
		{km.RetryImage, km.Export, km.ScrollUp, km.ScrollDown},
		{km.ToggleHelp, km.Quit},
	}
}

// DefaultKeyMap возвращает дефолтный KeyMap.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Previous: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous"),
		),
		Next: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next"),
		),
		GoTo: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "go to slide"),
		),
		TogglePlay: key.NewBinding(
			key.WithKeys(" ", "p"),
			key.WithHelp("space", "play/pause"),
		),
		Fullscreen: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "fullscreen"),
		),
		ExitFullscreen: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "exit fullscreen"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r", "home"),
			key.WithHelp("r", "reset"),
		),
		RetryImage: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "retry image"),
		),
		Export: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "export pdf"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
		ToggleHelp: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// DigitIndex возвращает индекс слайда (0-based) для клавиши 1-9.
func DigitIndex(k string) (int, bool) {
	if len(k) != 1 || k[0] < '1' || k[0] > '9' {
		return 0, false
	}
	n, _ := strconv.Atoi(k)
	return n - 1, true
}
