package slideshow

import "time"

// Clock создаёт таймеры контроллера.
//
// В продакшене используется RealClock, в тестах — управляемые часы,
// чтобы двигать время детерминированно.
type Clock interface {
	// AfterFunc вызывает f в отдельной горутине через d.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer — отменяемый отложенный вызов.
type Timer interface {
	// Stop отменяет вызов. Возвращает false если вызов уже произошёл или отменён.
	Stop() bool
}

// RealClock — Clock поверх пакета time.
type RealClock struct{}

// AfterFunc реализует Clock.
func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

var _ Clock = RealClock{}
