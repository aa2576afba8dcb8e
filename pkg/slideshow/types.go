// Package slideshow реализует контроллер показа слайдов.
//
// Controller — чистый state machine: индекс, play/pause, fullscreen,
// статусы изображений и transition lock. Он ничего не рисует; UI
// подписывается на события (pkg/events) и перечитывает Snapshot().
//
// # Состояния
//
//	Idle ──Next/Previous/GoTo──▶ Transitioning ──settle──▶ Idle
//
// Навигация во время Transitioning игнорируется (не ставится в очередь).
// Play/pause и fullscreen от lock не зависят.
//
// # Thread Safety
//
// Все методы thread-safe. Переходы сериализуются мьютексом, события
// отправляются после его освобождения.
package slideshow

import (
	"context"
	"errors"
	"time"

	"github.com/ilkoid/poncho-slides/pkg/deck"
)

var (
	// ErrEmptyDeck возвращается когда в презентации нет слайдов.
	ErrEmptyDeck = errors.New("no content")

	// ErrSlideNotFound — защитная ошибка для индекса вне диапазона.
	ErrSlideNotFound = errors.New("slide not found")
)

// State — состояние навигации.
type State int

const (
	StateIdle State = iota
	StateTransitioning
)

// String возвращает имя состояния.
func (s State) String() string {
	switch s {
	case StateTransitioning:
		return "transitioning"
	default:
		return "idle"
	}
}

// ImageStatus — результат загрузки изображения слайда.
type ImageStatus string

const (
	ImageNone    ImageStatus = "none" // У слайда нет изображения
	ImagePending ImageStatus = "pending"
	ImageLoaded  ImageStatus = "loaded"
	ImageFailed  ImageStatus = "failed"
)

// Config — тайминги контроллера.
type Config struct {
	// AutoplayInterval — сколько показывается слайд при autoplay.
	AutoplayInterval time.Duration

	// TransitionDuration — окно lock после навигации.
	// Должно совпадать с длительностью перехода в рендере.
	TransitionDuration time.Duration

	// ProgressStep — шаг индикатора прогресса.
	ProgressStep time.Duration

	// PreloadTimeout ограничивает одну попытку загрузки изображения.
	PreloadTimeout time.Duration
}

// DefaultConfig возвращает тайминги по умолчанию.
func DefaultConfig() Config {
	return Config{
		AutoplayInterval:   5 * time.Second,
		TransitionDuration: 400 * time.Millisecond,
		ProgressStep:       50 * time.Millisecond,
		PreloadTimeout:     15 * time.Second,
	}
}

// withDefaults подставляет значения по умолчанию вместо нулевых.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.AutoplayInterval <= 0 {
		c.AutoplayInterval = def.AutoplayInterval
	}
	if c.TransitionDuration <= 0 {
		c.TransitionDuration = def.TransitionDuration
	}
	if c.ProgressStep <= 0 || c.ProgressStep > c.AutoplayInterval {
		c.ProgressStep = def.ProgressStep
		if c.ProgressStep > c.AutoplayInterval {
			c.ProgressStep = c.AutoplayInterval
		}
	}
	if c.PreloadTimeout <= 0 {
		c.PreloadTimeout = def.PreloadTimeout
	}
	return c
}

// Preloader загружает изображение по URL.
//
// Реализация: media.Fetcher. Ошибка означает что изображение показать нельзя.
type Preloader interface {
	Preload(ctx context.Context, url string) error
}

// ImageRetainer — Preloader с кэшем загруженного. Load передаёт ему URL
// изображений новой презентации; всё остальное кэш освобождает.
type ImageRetainer interface {
	Retain(urls []string)
}

// FullscreenHost — внешняя возможность войти/выйти из полноэкранного режима.
//
// Вызывается вне мьютекса контроллера, поэтому хост может синхронно
// вызвать SyncFullscreen.
type FullscreenHost interface {
	RequestFullscreen(enter bool)
}

// Snapshot — копия состояния сессии для рендера.
type Snapshot struct {
	SessionID    string
	Generation   uint64
	Title        string
	Theme        deck.Theme
	Total        int
	Index        int
	State        State
	Playing      bool
	Fullscreen   bool
	ShowProgress bool
	Progress     float64
	Images       []ImageStatus
}

// Empty сообщает что показывать нечего.
func (s Snapshot) Empty() bool {
	return s.Total == 0
}

// Transitioning сообщает что lock удерживается.
func (s Snapshot) Transitioning() bool {
	return s.State == StateTransitioning
}

// Image возвращает статус изображения слайда i.
func (s Snapshot) Image(i int) ImageStatus {
	if i < 0 || i >= len(s.Images) {
		return ImageNone
	}
	return s.Images[i]
}
