// Обработка сообщений Bubble Tea.

package ui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ilkoid/poncho-slides/pkg/events"
	"github.com/ilkoid/poncho-slides/pkg/export"
	"github.com/ilkoid/poncho-slides/pkg/tui"
	"github.com/ilkoid/poncho-slides/pkg/tui/primitives"
	"github.com/ilkoid/poncho-slides/pkg/utils"
)

// Update реализует tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.body.HandleResize(msg, chromeHeight, 0)
		m.help.Width = msg.Width
		m.progress.Width = msg.Width - 4
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tui.EventMsg:
		m.refresh()
		if msg.Type == events.EventImage {
			if data, ok := msg.Data.(events.ImageData); ok && data.Err != nil {
				utils.Debug("Viewer: image failed", "slide", data.Slide, "error", data.Err)
			}
		}
		return m, tui.WaitForEvent(m.sub, tui.ToMsg)

	case tui.ClosedMsg:
		// Контроллер остановлен: кадр остаётся последним известным
		return m, nil

	case fullscreenMsg:
		cmd := tea.ExitAltScreen
		if msg.enter {
			cmd = tea.EnterAltScreen
		}
		return m, tea.Batch(cmd, m.host.wait())

	case exportDoneMsg:
		m.exporting = false
		m.status.StopBusy()
		if msg.err != nil {
			m.status.SetNotice("Export failed: "+msg.err.Error(), primitives.NoticeError)
		} else {
			m.status.SetNotice(exportNotice(msg.res), primitives.NoticeInfo)
		}
		return m, nil
	}

	// Тики спиннера и прочее
	return m, m.status.Update(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Previous):
		m.ctrl.Previous()

	case key.Matches(msg, m.keys.Next):
		m.ctrl.Next()

	case key.Matches(msg, m.keys.GoTo):
		if i, ok := tui.DigitIndex(msg.String()); ok {
			m.ctrl.GoTo(i)
		}

	case key.Matches(msg, m.keys.TogglePlay):
		m.ctrl.TogglePlay()

	case key.Matches(msg, m.keys.Fullscreen):
		m.ctrl.ToggleFullscreen()

	case key.Matches(msg, m.keys.ExitFullscreen):
		if m.snap.Fullscreen {
			m.ctrl.ToggleFullscreen()
		}

	case key.Matches(msg, m.keys.Reset):
		m.ctrl.Reset()

	case key.Matches(msg, m.keys.RetryImage):
		m.ctrl.RetryImage(m.snap.Index)

	case key.Matches(msg, m.keys.Export):
		return m.startExport()

	case key.Matches(msg, m.keys.ScrollUp):
		m.body.ScrollUp(1)

	case key.Matches(msg, m.keys.ScrollDown):
		m.body.ScrollDown(1)

	case key.Matches(msg, m.keys.ToggleHelp):
		m.help.ShowAll = !m.help.ShowAll
	}

	m.refresh()
	return m, nil
}

// startExport снимает копию презентации со статусами изображений
// и запускает экспорт в фоне. Повторное нажатие во время экспорта игнорируется.
func (m Model) startExport() (tea.Model, tea.Cmd) {
	if m.exporter == nil {
		m.status.SetNotice("Export is not available", primitives.NoticeError)
		return m, nil
	}
	if m.exporting {
		return m, nil
	}
	if m.snap.Empty() {
		m.status.SetNotice("Export failed: "+errNothingToExport.Error(), primitives.NoticeError)
		return m, nil
	}

	m.exporting = true
	m.status.SetNotice("", primitives.NoticeInfo)
	spin := m.status.StartBusy("Exporting PDF")

	ch := m.exportCh
	req := export.Request{
		Deck:        m.ctrl.Deck(),
		ImageLoaded: m.ctrl.LoadedImages(),
	}
	m.exporter.ExportAsync(m.ctx, req, func(res export.Result, err error) {
		ch <- exportDoneMsg{res: res, err: err}
	})

	return m, tea.Batch(spin, waitExport(ch))
}

var errNothingToExport = errors.New("no content")

func waitExport(ch <-chan exportDoneMsg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

func exportNotice(res export.Result) string {
	s := fmt.Sprintf("Exported %s (%d pages)", res.Path, res.Pages)
	if res.UploadKey != "" {
		s += ", uploaded to " + res.UploadKey
	}
	return s
}
