package events

import (
	"context"
	"sync"
)

// Bus — реализация Emitter с раздачей событий нескольким подписчикам.
//
// Thread-safe. Каждый Subscribe() получает свой буферизованный канал.
// Emit не блокируется: если буфер подписчика заполнен, событие для него
// отбрасывается. Это допустимо, потому что события — лишь сигнал
// "состояние изменилось", а подписчик перечитывает полный снимок.
type Bus struct {
	mu     sync.RWMutex
	subs   map[*busSubscriber]struct{}
	buffer int
	closed bool
}

// NewBus создаёт новый Bus.
//
// buffer определяет размер буфера канала каждого подписчика.
func NewBus(buffer int) *Bus {
	if buffer < 1 {
		buffer = 1
	}
	return &Bus{
		subs:   make(map[*busSubscriber]struct{}),
		buffer: buffer,
	}
}

// Emit отправляет событие всем подписчикам.
//
// Если context отменён, событие не отправляется.
func (b *Bus) Emit(ctx context.Context, event Event) {
	if ctx != nil && ctx.Err() != nil {
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	for s := range b.subs {
		select {
		case s.ch <- event:
		default:
			// Буфер заполнен — подписчик отстаёт, пропускаем
		}
	}
}

// Subscribe возвращает нового Subscriber.
//
// Можно вызвать несколько раз: каждый подписчик получает все события.
// Подписка на закрытый Bus возвращает уже закрытый канал.
func (b *Bus) Subscribe() Subscriber {
	s := &busSubscriber{
		bus: b,
		ch:  make(chan Event, b.buffer),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(s.ch)
		s.done = true
		return s
	}
	b.subs[s] = struct{}{}
	return s
}

// Close закрывает все каналы подписчиков.
//
// После закрытия Emit больше не отправляет события.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for s := range b.subs {
		s.closeLocked()
	}
	b.subs = nil
}

func (b *Bus) unsubscribe(s *busSubscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[s]; ok {
		delete(b.subs, s)
		s.closeLocked()
	}
}

// busSubscriber реализует Subscriber интерфейс.
type busSubscriber struct {
	bus  *Bus
	ch   chan Event
	done bool // защищён bus.mu
}

// Events возвращает read-only канал событий.
func (s *busSubscriber) Events() <-chan Event {
	return s.ch
}

// Close отписывает подписчика и закрывает его канал.
func (s *busSubscriber) Close() {
	s.bus.unsubscribe(s)
}

func (s *busSubscriber) closeLocked() {
	if !s.done {
		s.done = true
		close(s.ch)
	}
}

// Ensure Bus implements Emitter
var _ Emitter = (*Bus)(nil)

// Ensure busSubscriber implements Subscriber
var _ Subscriber = (*busSubscriber)(nil)
