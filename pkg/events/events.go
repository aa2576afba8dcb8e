// Package events предоставляет интерфейсы для реализации Port & Adapter паттерна.
//
// Это Port (интерфейс) для подписки на изменения сессии показа слайдов.
// Контроллер (pkg/slideshow) ничего не знает о рендере: он только
// отправляет события, а любой UI (TUI, WebSocket remote) подписывается на них
// и перечитывает снимок состояния.
//
// # Basic Usage
//
//	bus := events.NewBus(64)
//	ctrl := slideshow.New(ctx, slideshow.Options{Emitter: bus})
//
//	sub := bus.Subscribe()
//	for event := range sub.Events() {
//	    switch event.Type {
//	    case events.EventSlideChanged:
//	        ui.render(ctrl.Snapshot())
//	    case events.EventImage:
//	        ui.refreshImage(event.Data.(events.ImageData).Slide)
//	    }
//	}
//
// # Thread Safety
//
// Все реализации интерфейсов должны быть thread-safe.
package events

import (
	"context"
	"time"
)

// EventType представляет тип события сессии.
type EventType string

const (
	// EventDeckLoaded отправляется при замене Deck (сессия переинициализирована).
	EventDeckLoaded EventType = "deck_loaded"

	// EventSlideChanged отправляется при смене текущего слайда (вручную или autoplay).
	EventSlideChanged EventType = "slide_changed"

	// EventSettled отправляется когда окно перехода закончилось (lock снят).
	EventSettled EventType = "settled"

	// EventPlayback отправляется при переключении play/pause.
	EventPlayback EventType = "playback"

	// EventProgress отправляется на каждом шаге индикатора прогресса.
	EventProgress EventType = "progress"

	// EventImage отправляется при смене статуса изображения слайда.
	EventImage EventType = "image"

	// EventFullscreen отправляется при смене полноэкранного режима.
	EventFullscreen EventType = "fullscreen"

	// EventExport отправляется по завершении экспорта (успех или ошибка).
	EventExport EventType = "export"
)

// EventData — sealed interface для данных события.
//
// Только типы из пакета events могут реализовать этот интерфейс,
// что обеспечивает compile-time type safety.
type EventData interface {
	eventData()
}

// SessionData — общий payload для событий навигации и воспроизведения.
type SessionData struct {
	Generation uint64 // Поколение Deck (растёт при каждой замене)
	Index      int
	Total      int
	Playing    bool
	Fullscreen bool
	Progress   float64
	Automatic  bool // true если смена слайда пришла от autoplay
}

func (SessionData) eventData() {}

// ImageData содержит новый статус изображения слайда.
type ImageData struct {
	Generation uint64
	Slide      int
	Status     string // "pending" | "loaded" | "failed"
	Err        error
}

func (ImageData) eventData() {}

// ExportData содержит результат экспорта.
type ExportData struct {
	Path  string
	Pages int
	Err   error
}

func (ExportData) eventData() {}

// Event представляет событие сессии.
//
// Data содержит типизированные данные события:
//   - EventDeckLoaded, EventSlideChanged, EventSettled, EventPlayback,
//     EventProgress, EventFullscreen: SessionData
//   - EventImage: ImageData
//   - EventExport: ExportData
type Event struct {
	Type      EventType
	Data      EventData
	Timestamp time.Time
}

// Emitter — это Port для отправки событий.
//
// Emitter инвертирует зависимость: контроллер зависит от этого интерфейса,
// а не от конкретного UI.
type Emitter interface {
	// Emit отправляет событие. Не должен блокировать отправителя надолго:
	// контроллер вызывает его на каждом шаге прогресса.
	Emit(ctx context.Context, event Event)
}

// Subscriber позволяет читать события из канала.
type Subscriber interface {
	// Events возвращает read-only канал событий.
	//
	// Канал закрывается при вызове Close() или при закрытии источника.
	Events() <-chan Event

	// Close отписывается и освобождает ресурсы.
	Close()
}

// New создаёт событие с текущим временем.
func New(t EventType, data EventData) Event {
	return Event{Type: t, Data: data, Timestamp: time.Now()}
}
