// Package tui предоставляет reusable helpers для подключения Bubble Tea
// к событиям контроллера слайдов.
//
// Это НЕ готовый просмотрщик (он в internal/ui/), а адаптеры:
//   - pkg/events.* — Port (интерфейсы)
//   - pkg/tui.* — Adapter helpers
//   - internal/ui.* — конкретный рендер
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ilkoid/poncho-slides/pkg/events"
)

// EventMsg конвертирует events.Event в Bubble Tea сообщение.
type EventMsg events.Event

// ClosedMsg приходит когда подписка закрыта (контроллер остановлен).
type ClosedMsg struct{}

// ToMsg — конвертер по умолчанию.
func ToMsg(event events.Event) tea.Msg { return EventMsg(event) }

// ReceiveEventCmd возвращает Bubble Tea Cmd для чтения одного события из Subscriber.
//
// Пример использования в Bubble Tea Model:
//
//	func (m model) Init() tea.Cmd {
//	    return tui.ReceiveEventCmd(m.sub, tui.ToMsg)
//	}
func ReceiveEventCmd(sub events.Subscriber, converter func(events.Event) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-sub.Events()
		if !ok {
			return ClosedMsg{}
		}
		return converter(event)
	}
}

// WaitForEvent возвращает Cmd который ждёт следующего события.
//
// Используется в Update() для продолжения чтения событий:
//
//	case tui.EventMsg:
//	    // ... обработка события
//	    return m, tui.WaitForEvent(m.sub, tui.ToMsg)
func WaitForEvent(sub events.Subscriber, converter func(events.Event) tea.Msg) tea.Cmd {
	return ReceiveEventCmd(sub, converter)
}
