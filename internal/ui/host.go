package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ilkoid/poncho-slides/pkg/slideshow"
	"github.com/ilkoid/poncho-slides/pkg/utils"
)

// fullscreenMsg — контроллер запросил смену режима экрана.
type fullscreenMsg struct {
	enter bool
}

// ScreenHost переводит запросы контроллера в alternate screen терминала.
//
// Контроллер вызывает RequestFullscreen вне своего мьютекса и из любой
// горутины (клавиатура, удалённый пульт); Bubble Tea читает запросы
// через wait и отвечает командами tea.EnterAltScreen / tea.ExitAltScreen.
//
// Хранится только последний запрошенный режим: серия запросов, пришедших
// до чтения, сворачивается в один, и итоговый режим всегда доставляется.
type ScreenHost struct {
	mu      sync.Mutex
	want    bool
	pending chan struct{} // cap 1: есть недоставленный запрос
	done    chan struct{}
}

// NewScreenHost создаёт хост. Передаётся и в slideshow.Options.Host, и в ui.Options.
func NewScreenHost() *ScreenHost {
	return &ScreenHost{
		pending: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// RequestFullscreen реализует slideshow.FullscreenHost. Не блокируется.
func (h *ScreenHost) RequestFullscreen(enter bool) {
	h.mu.Lock()
	h.want = enter
	h.mu.Unlock()

	select {
	case h.pending <- struct{}{}:
	default:
		utils.Debug("Fullscreen request coalesced", "enter", enter)
	}
}

// Close останавливает ожидание запросов.
func (h *ScreenHost) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}

// wait возвращает Cmd, ждущий следующий запрос.
func (h *ScreenHost) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-h.pending:
			h.mu.Lock()
			enter := h.want
			h.mu.Unlock()
			return fullscreenMsg{enter: enter}
		case <-h.done:
			return nil
		}
	}
}

var _ slideshow.FullscreenHost = (*ScreenHost)(nil)
