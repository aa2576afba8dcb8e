package primitives

import (
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

// ViewportManager держит тело слайда в прокручиваемом viewport.
//
// Абзацы хранятся без переноса: при каждом resize текст заново
// переносится под новую ширину. Смена слайда возвращает прокрутку в начало.
type ViewportManager struct {
	viewport   viewport.Model
	paragraphs []string // Исходные абзацы без переноса
	cfg        ViewportConfig
	mu         sync.RWMutex
}

// ViewportConfig holds configuration for ViewportManager
type ViewportConfig struct {
	MinWidth  int // 0 → 20
	MinHeight int // 0 → 1
}

// NewViewportManager creates a new ViewportManager
func NewViewportManager(cfg ViewportConfig) *ViewportManager {
	if cfg.MinWidth <= 0 {
		cfg.MinWidth = 20
	}
	if cfg.MinHeight <= 0 {
		cfg.MinHeight = 1
	}
	return &ViewportManager{
		viewport: viewport.New(cfg.MinWidth, cfg.MinHeight),
		cfg:      cfg,
	}
}

// HandleResize пересчитывает размеры под окно за вычетом header/footer.
func (vm *ViewportManager) HandleResize(msg tea.WindowSizeMsg, headerHeight, footerHeight int) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	// 1. Размеры с нижними границами
	vpHeight := msg.Height - headerHeight - footerHeight
	if vpHeight < vm.cfg.MinHeight {
		vpHeight = vm.cfg.MinHeight
	}
	vpWidth := msg.Width
	if vpWidth < vm.cfg.MinWidth {
		vpWidth = vm.cfg.MinWidth
	}

	vm.viewport.Height = vpHeight
	vm.viewport.Width = vpWidth

	// 2. Перенос под новую ширину
	vm.viewport.SetContent(vm.reflow())

	// 3. Ограничиваем смещение
	maxOffset := vm.viewport.TotalLineCount() - vm.viewport.Height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if vm.viewport.YOffset > maxOffset {
		vm.viewport.YOffset = maxOffset
	}
}

// SetParagraphs заменяет содержимое (новый слайд) и прокручивает в начало.
func (vm *ViewportManager) SetParagraphs(paragraphs []string) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	vm.paragraphs = append([]string(nil), paragraphs...)
	vm.viewport.SetContent(vm.reflow())
	vm.viewport.GotoTop()
}

// reflow переносит абзацы по словам; слова длиннее строки режутся жёстко.
// Абзацы разделяются пустой строкой. Вызывать под mu.
func (vm *ViewportManager) reflow() string {
	width := vm.viewport.Width
	out := make([]string, 0, len(vm.paragraphs))
	for _, p := range vm.paragraphs {
		out = append(out, wrap.String(wordwrap.String(p, width), width))
	}
	return strings.Join(out, "\n\n")
}

// View renders the visible part
func (vm *ViewportManager) View() string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.viewport.View()
}

// GetViewport returns the underlying viewport.Model
func (vm *ViewportManager) GetViewport() viewport.Model {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.viewport
}

// Content returns the source paragraphs
func (vm *ViewportManager) Content() []string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return append([]string(nil), vm.paragraphs...)
}

// ScrollUp scrolls the viewport up by n lines
func (vm *ViewportManager) ScrollUp(n int) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.viewport.LineUp(n)
}

// ScrollDown scrolls the viewport down by n lines
func (vm *ViewportManager) ScrollDown(n int) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.viewport.LineDown(n)
}

// GotoTop scrolls to the top of the viewport
func (vm *ViewportManager) GotoTop() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.viewport.GotoTop()
}

// SetDimensions sets the viewport dimensions directly
func (vm *ViewportManager) SetDimensions(width, height int) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.viewport.Width = width
	vm.viewport.Height = height
	vm.viewport.SetContent(vm.reflow())
}

// GetDimensions returns the current viewport dimensions
func (vm *ViewportManager) GetDimensions() (width, height int) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.viewport.Width, vm.viewport.Height
}
