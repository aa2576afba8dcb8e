// Package ui реализует просмотрщик слайдов на Bubble Tea.
//
// Model ничего не решает сам: клавиши переводятся в вызовы
// slideshow.Controller, а кадр рисуется из его Snapshot. Изменения,
// пришедшие не с клавиатуры (autoplay, загрузка изображений, удалённый
// пульт), приходят событиями через events.Subscriber.
package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ilkoid/poncho-slides/pkg/deck"
	"github.com/ilkoid/poncho-slides/pkg/events"
	"github.com/ilkoid/poncho-slides/pkg/export"
	"github.com/ilkoid/poncho-slides/pkg/slideshow"
	"github.com/ilkoid/poncho-slides/pkg/tui"
	"github.com/ilkoid/poncho-slides/pkg/tui/primitives"
)

// chromeHeight — строки вокруг тела слайда: header, метка, заголовок,
// изображение, прогресс, точки навигации, статус и help.
const chromeHeight = 10

// Exporter запускает фоновый экспорт (реализация: export.Exporter).
type Exporter interface {
	ExportAsync(ctx context.Context, req export.Request, done func(export.Result, error))
}

// exportDoneMsg — результат фонового экспорта.
type exportDoneMsg struct {
	res export.Result
	err error
}

// Options — зависимости просмотрщика.
type Options struct {
	Controller *slideshow.Controller
	Events     events.Subscriber // nil → только клавиатура
	Host       *ScreenHost       // nil → fullscreen только флаг
	Exporter   Exporter          // nil → экспорт недоступен
	Theme      deck.Theme        // Переопределяет тему презентации
	KeyMap     *tui.KeyMap       // nil → tui.DefaultKeyMap()
}

// Model — состояние просмотрщика для Bubble Tea.
type Model struct {
	ctx      context.Context
	ctrl     *slideshow.Controller
	sub      events.Subscriber
	host     *ScreenHost
	exporter Exporter
	theme    deck.Theme

	keys     tui.KeyMap
	help     help.Model
	body     *primitives.ViewportManager
	status   *primitives.StatusBarManager
	progress progress.Model

	// Кадр, собранный из последнего Snapshot
	snap     slideshow.Snapshot
	slide    deck.Slide
	slideErr error

	// shownGen/shownIndex — слайд, чьи абзацы сейчас в body
	shownGen   uint64
	shownIndex int

	exporting bool
	exportCh  chan exportDoneMsg

	width  int
	height int
}

// New создаёт Model. ctx ограничивает фоновые экспорты.
func New(ctx context.Context, opts Options) Model {
	keys := tui.DefaultKeyMap()
	if opts.KeyMap != nil {
		keys = *opts.KeyMap
	}

	m := Model{
		ctx:        ctx,
		ctrl:       opts.Controller,
		sub:        opts.Events,
		host:       opts.Host,
		exporter:   opts.Exporter,
		theme:      opts.Theme,
		keys:       keys,
		help:       help.New(),
		body:       primitives.NewViewportManager(primitives.ViewportConfig{}),
		status:     primitives.NewStatusBarManager(primitives.DefaultStatusBarConfig()),
		progress:   progress.New(progress.WithoutPercentage()),
		shownIndex: -1,
		exportCh:   make(chan exportDoneMsg, 1),
	}
	m.refresh()
	return m
}

// Init запускает чтение событий контроллера и запросов fullscreen.
func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.sub != nil {
		cmds = append(cmds, tui.ReceiveEventCmd(m.sub, tui.ToMsg))
	}
	if m.host != nil {
		cmds = append(cmds, m.host.wait())
	}
	return tea.Batch(cmds...)
}

// refresh перечитывает Snapshot и текущий слайд.
// При смене слайда (или презентации) тело перезаполняется.
func (m *Model) refresh() {
	m.snap = m.ctrl.Snapshot()
	m.slide, m.slideErr = m.ctrl.Current()

	if m.snap.Generation != m.shownGen || m.snap.Index != m.shownIndex {
		m.shownGen = m.snap.Generation
		m.shownIndex = m.snap.Index
		if m.slideErr == nil {
			m.body.SetParagraphs(m.slide.Paragraphs())
		} else {
			m.body.SetParagraphs(nil)
		}
	}

	m.status.SetPlaying(m.snap.Playing)
	if m.snap.Empty() {
		m.status.SetPosition("")
	} else {
		m.status.SetPosition(position(m.snap))
	}
}

// activeTheme — тема кадра: переопределение или тема презентации.
func (m Model) activeTheme() deck.Theme {
	if m.theme != "" {
		return m.theme
	}
	return m.snap.Theme
}
