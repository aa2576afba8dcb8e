package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// RunOptions настраивает запуск программы.
type RunOptions struct {
	// AltScreen запускает программу в alternate screen (полноэкранный режим).
	AltScreen bool

	// ProgramOptions — дополнительные опции Bubble Tea (ввод/вывод в тестах).
	ProgramOptions []tea.ProgramOption
}

// Run запускает Bubble Tea модель до выхода или отмены ctx.
//
// Возвращает финальную модель: вызывающий может прочитать из неё состояние.
func Run(ctx context.Context, model tea.Model, opts RunOptions) (tea.Model, error) {
	if model == nil {
		return nil, fmt.Errorf("model is nil")
	}

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	programOpts = append(programOpts, opts.ProgramOptions...)

	p := tea.NewProgram(model, programOpts...)
	final, err := p.Run()
	if err != nil && ctx.Err() == nil {
		return final, fmt.Errorf("TUI error: %w", err)
	}
	return final, nil
}
