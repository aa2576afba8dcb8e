// Package primitives содержит переиспользуемые части просмотрщика:
// строку статуса и прокручиваемое тело слайда.
package primitives

import (
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// NoticeLevel — важность уведомления в строке статуса.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeError
)

// StatusBarManager рисует строку статуса: спиннер фоновой операции
// (экспорт), состояние автопроигрывания, позицию и уведомление.
type StatusBarManager struct {
	spinner spinner.Model
	busy    string // Подпись фоновой операции, "" если её нет
	playing bool
	// position — "Slide 2 of 5"
	position    string
	notice      string
	noticeLevel NoticeLevel
	mu          sync.RWMutex

	cfg StatusBarConfig

	// Extension point: дополнительные сегменты справа
	customExtra func() string
}

// StatusBarConfig holds color configuration for the status bar
type StatusBarConfig struct {
	SpinnerColor    lipgloss.Color // 86 (cyan) во время фоновой операции
	IdleColor       lipgloss.Color // 242 (gray)
	BackgroundColor lipgloss.Color // 235 (dark gray)
	PlayingColor    lipgloss.Color // 42 (green)
	ErrorColor      lipgloss.Color // 196 (red)
	NoticeText      lipgloss.Color // 15 (white)
	ExtraText       lipgloss.Color // 252 (gray)
}

// DefaultStatusBarConfig returns the default color scheme
func DefaultStatusBarConfig() StatusBarConfig {
	return StatusBarConfig{
		SpinnerColor:    lipgloss.Color("86"),
		IdleColor:       lipgloss.Color("242"),
		BackgroundColor: lipgloss.Color("235"),
		PlayingColor:    lipgloss.Color("42"),
		ErrorColor:      lipgloss.Color("196"),
		NoticeText:      lipgloss.Color("15"),
		ExtraText:       lipgloss.Color("252"),
	}
}

// NewStatusBarManager creates a new StatusBarManager with the given configuration
func NewStatusBarManager(cfg StatusBarConfig) *StatusBarManager {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(cfg.SpinnerColor)

	return &StatusBarManager{
		spinner: s,
		cfg:     cfg,
	}
}

// Render returns the status bar as a styled string
func (sm *StatusBarManager) Render() string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	seg := func(fg lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Background(sm.cfg.BackgroundColor).Foreground(fg).Padding(0, 1)
	}

	var parts []string

	// 1. Состояние автопроигрывания
	if sm.playing {
		parts = append(parts, seg(sm.cfg.PlayingColor).Render("▶ Playing"))
	} else {
		parts = append(parts, seg(sm.cfg.IdleColor).Render("⏸ Paused"))
	}

	// 2. Позиция
	if sm.position != "" {
		parts = append(parts, seg(sm.cfg.ExtraText).Render(sm.position))
	}

	// 3. Фоновая операция
	if sm.busy != "" {
		parts = append(parts, seg(sm.cfg.SpinnerColor).Render(sm.spinner.View()+" "+sm.busy))
	}

	// 4. Уведомление
	if sm.notice != "" {
		style := seg(sm.cfg.NoticeText)
		if sm.noticeLevel == NoticeError {
			style = style.Background(sm.cfg.ErrorColor).Bold(true)
		}
		parts = append(parts, style.Render(sm.notice))
	}

	if sm.customExtra != nil {
		if extra := sm.customExtra(); extra != "" {
			parts = append(parts, seg(sm.cfg.ExtraText).Render(extra))
		}
	}

	return strings.Join(parts, "")
}

// Update продвигает анимацию спиннера, пока идёт фоновая операция.
func (sm *StatusBarManager) Update(msg tea.Msg) tea.Cmd {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.busy == "" {
		return nil
	}
	var cmd tea.Cmd
	sm.spinner, cmd = sm.spinner.Update(msg)
	return cmd
}

// StartBusy показывает спиннер с подписью и возвращает Cmd первого тика.
func (sm *StatusBarManager) StartBusy(label string) tea.Cmd {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.busy = label
	return sm.spinner.Tick
}

// StopBusy скрывает спиннер.
func (sm *StatusBarManager) StopBusy() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.busy = ""
}

// IsBusy reports whether a background operation is shown
func (sm *StatusBarManager) IsBusy() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.busy != ""
}

// SetPlaying sets the autoplay indicator
func (sm *StatusBarManager) SetPlaying(playing bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.playing = playing
}

// SetPosition sets the "Slide N of M" segment
func (sm *StatusBarManager) SetPosition(position string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.position = position
}

// SetNotice показывает уведомление; пустая строка его скрывает.
func (sm *StatusBarManager) SetNotice(text string, level NoticeLevel) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.notice = text
	sm.noticeLevel = level
}

// Notice returns the current notice
func (sm *StatusBarManager) Notice() (string, NoticeLevel) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.notice, sm.noticeLevel
}

// SetCustomExtra sets the callback for custom status extra info
func (sm *StatusBarManager) SetCustomExtra(fn func() string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.customExtra = fn
}
