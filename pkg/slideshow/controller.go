package slideshow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ilkoid/poncho-slides/pkg/deck"
	"github.com/ilkoid/poncho-slides/pkg/events"
	"github.com/ilkoid/poncho-slides/pkg/utils"
)

// Options — зависимости контроллера. Все поля опциональны.
type Options struct {
	Config    Config
	Clock     Clock          // nil → RealClock
	Preloader Preloader      // nil → изображения считаются загруженными
	Host      FullscreenHost // nil → fullscreen только флаг
	Emitter   events.Emitter // nil → события не отправляются
}

// Controller — state machine сессии показа.
type Controller struct {
	mu sync.Mutex

	cfg       Config
	clock     Clock
	preloader Preloader
	host      FullscreenHost
	emitter   events.Emitter

	ctx    context.Context
	cancel context.CancelFunc
	closed bool

	sessionID  string
	generation uint64
	deck       deck.Deck

	index      int
	state      State
	playing    bool
	fullscreen bool
	progress   float64

	images    []ImageStatus
	imageErrs []error
	attempts  []int // номер последней попытки загрузки по слайду

	// Таймеры. seq-токены отсекают колбэки, сработавшие после Stop.
	settleTimer Timer
	settleSeq   uint64
	autoTimer   Timer
	autoSeq     uint64
	progTimer   Timer
	progSeq     uint64
	progElapsed time.Duration // время периода, учтённое в progress

	// autoDeferred — тик autoplay пришёлся на окно lock и ждёт settle.
	autoDeferred bool

	outbox []events.Event
}

// New создаёт контроллер с пустой презентацией.
//
// ctx ограничивает жизнь фоновых загрузок изображений.
func New(ctx context.Context, opts Options) *Controller {
	if ctx == nil {
		ctx = context.Background()
	}
	cctx, cancel := context.WithCancel(ctx)

	c := &Controller{
		cfg:       opts.Config.withDefaults(),
		clock:     opts.Clock,
		preloader: opts.Preloader,
		host:      opts.Host,
		emitter:   opts.Emitter,
		ctx:       cctx,
		cancel:    cancel,
		sessionID: uuid.NewString(),
	}
	if c.clock == nil {
		c.clock = RealClock{}
	}
	return c
}

// Config возвращает действующие тайминги.
func (c *Controller) Config() Config {
	return c.cfg
}

// Load заменяет презентацию и переинициализирует сессию.
//
// Deck копируется: дальнейшие изменения вызывающего не видны контроллеру.
// Индекс → 0, playing → d.Autoplay, все статусы изображений пересчитываются.
// Результаты загрузок от прежней презентации отбрасываются.
func (c *Controller) Load(d *deck.Deck) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.stopAllTimersLocked()
	c.generation++
	if d != nil {
		c.deck = d.Clone()
	} else {
		c.deck = deck.Deck{}
	}

	n := len(c.deck.Slides)
	c.images = make([]ImageStatus, n)
	c.imageErrs = make([]error, n)
	c.attempts = make([]int, n)

	var jobs []preloadJob
	for i, s := range c.deck.Slides {
		if !s.HasImage() {
			c.images[i] = ImageNone
			continue
		}
		jobs = append(jobs, c.startPreloadLocked(i))
	}

	// Кэш прежней презентации освобождается под мьютексом: порядок Retain
	// совпадает с порядком Load.
	if r, ok := c.preloader.(ImageRetainer); ok {
		urls := make([]string, 0, len(jobs))
		for _, job := range jobs {
			urls = append(urls, job.url)
		}
		r.Retain(urls)
	}

	c.resetSessionLocked()
	c.pushLocked(events.EventDeckLoaded, false)

	utils.Info("Deck loaded",
		"session", c.sessionID,
		"generation", c.generation,
		"title", c.deck.Title,
		"slides", n,
		"images", len(jobs))

	out := c.drainLocked()
	c.mu.Unlock()

	c.emit(out)
	c.runPreloads(jobs)
}

// Reset возвращает сессию в начальное состояние текущей презентации.
//
// Статусы изображений сохраняются: Deck не менялся.
func (c *Controller) Reset() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.stopSettleLocked()
	c.resetSessionLocked()
	c.pushLocked(events.EventSlideChanged, false)
	c.pushLocked(events.EventPlayback, false)
	out := c.drainLocked()
	c.mu.Unlock()

	c.emit(out)
}

// resetSessionLocked: index 0, Idle, playing = autoplay флаг презентации.
func (c *Controller) resetSessionLocked() {
	c.index = 0
	c.state = StateIdle
	c.progress = 0
	c.playing = c.deck.Autoplay
	c.restartPlaybackLocked()
}

// Next переходит к следующему слайду (с переходом через конец).
// Возвращает false если запрос проигнорирован.
func (c *Controller) Next() bool {
	return c.step(+1)
}

// Previous переходит к предыдущему слайду (с переходом через начало).
func (c *Controller) Previous() bool {
	return c.step(-1)
}

func (c *Controller) step(delta int) bool {
	c.mu.Lock()
	n := len(c.deck.Slides)
	ok := false
	if n > 0 {
		ok = c.navigateLocked((c.index+delta+n)%n, false)
	}
	out := c.drainLocked()
	c.mu.Unlock()

	c.emit(out)
	return ok
}

// GoTo переходит к слайду i. Индекс вне [0, n-1] молча игнорируется.
func (c *Controller) GoTo(i int) bool {
	c.mu.Lock()
	ok := false
	if i >= 0 && i < len(c.deck.Slides) {
		ok = c.navigateLocked(i, false)
	}
	out := c.drainLocked()
	c.mu.Unlock()

	c.emit(out)
	return ok
}

// navigateLocked — единственная точка смены индекса.
//
// Принимается только в Idle и только если индекс действительно меняется.
// Захватывает lock на TransitionDuration и перезапускает период autoplay.
func (c *Controller) navigateLocked(target int, automatic bool) bool {
	if c.closed || c.state == StateTransitioning || target == c.index {
		return false
	}

	c.index = target
	c.state = StateTransitioning
	c.progress = 0

	c.stopSettleLocked()
	seq := c.settleSeq
	c.settleTimer = c.clock.AfterFunc(c.cfg.TransitionDuration, func() {
		c.onSettle(seq)
	})

	c.restartPlaybackLocked()
	c.pushLocked(events.EventSlideChanged, automatic)
	return true
}

func (c *Controller) onSettle(seq uint64) {
	c.mu.Lock()
	if c.closed || seq != c.settleSeq {
		c.mu.Unlock()
		return
	}
	c.settleTimer = nil
	c.state = StateIdle
	c.pushLocked(events.EventSettled, false)

	if c.autoDeferred && c.playing {
		c.autoDeferred = false
		c.advanceLocked()
	}
	out := c.drainLocked()
	c.mu.Unlock()

	c.emit(out)
}

// Play включает autoplay. Период начинается заново, прогресс с 0.
func (c *Controller) Play() bool {
	return c.SetPlaying(true)
}

// Pause выключает autoplay и отменяет запланированный переход.
func (c *Controller) Pause() bool {
	return c.SetPlaying(false)
}

// TogglePlay переключает play/pause. От transition lock не зависит.
// Чтение и запись playing — под одним захватом мьютекса.
func (c *Controller) TogglePlay() bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.setPlayingLocked(!c.playing)
	out := c.drainLocked()
	c.mu.Unlock()

	c.emit(out)
	return true
}

// SetPlaying устанавливает playing. Возвращает false если значение не изменилось.
func (c *Controller) SetPlaying(playing bool) bool {
	c.mu.Lock()
	if c.closed || c.playing == playing {
		c.mu.Unlock()
		return false
	}
	c.setPlayingLocked(playing)
	out := c.drainLocked()
	c.mu.Unlock()

	c.emit(out)
	return true
}

func (c *Controller) setPlayingLocked(playing bool) {
	c.playing = playing
	if playing {
		c.progress = 0
	}
	c.restartPlaybackLocked()
	c.pushLocked(events.EventPlayback, false)
}

// restartPlaybackLocked отменяет таймеры autoplay/прогресса и, если
// playing, планирует их заново от текущего момента.
func (c *Controller) restartPlaybackLocked() {
	c.stopPlaybackLocked()
	if !c.playing || len(c.deck.Slides) == 0 {
		return
	}

	autoSeq := c.autoSeq
	c.autoTimer = c.clock.AfterFunc(c.cfg.AutoplayInterval, func() {
		c.onAutoplay(autoSeq)
	})

	if c.deck.ShowProgress {
		c.progElapsed = 0
		c.scheduleProgressLocked(c.progSeq)
	}
}

func (c *Controller) stopPlaybackLocked() {
	if c.autoTimer != nil {
		c.autoTimer.Stop()
		c.autoTimer = nil
	}
	if c.progTimer != nil {
		c.progTimer.Stop()
		c.progTimer = nil
	}
	c.autoSeq++
	c.progSeq++
	c.autoDeferred = false
}

func (c *Controller) stopSettleLocked() {
	if c.settleTimer != nil {
		c.settleTimer.Stop()
		c.settleTimer = nil
	}
	c.settleSeq++
}

func (c *Controller) stopAllTimersLocked() {
	c.stopSettleLocked()
	c.stopPlaybackLocked()
}

func (c *Controller) onAutoplay(seq uint64) {
	c.mu.Lock()
	if c.closed || seq != c.autoSeq || !c.playing {
		c.mu.Unlock()
		return
	}
	c.autoTimer = nil

	// Автопереход не врывается в окно ручного перехода.
	if c.state == StateTransitioning {
		c.autoDeferred = true
		c.mu.Unlock()
		return
	}

	c.advanceLocked()
	out := c.drainLocked()
	c.mu.Unlock()

	c.emit(out)
}

// advanceLocked — автоматический Next. Для презентации из одного слайда
// индекс не меняется, но период и прогресс начинаются заново.
func (c *Controller) advanceLocked() {
	n := len(c.deck.Slides)
	if n == 0 {
		return
	}
	if c.navigateLocked((c.index+1)%n, true) {
		return
	}
	c.progress = 0
	c.restartPlaybackLocked()
	c.pushLocked(events.EventProgress, true)
}

// scheduleProgressLocked планирует следующий шаг прогресса. Последний шаг
// укорачивается до остатка периода, так что 100 достигается ровно на нём.
func (c *Controller) scheduleProgressLocked(seq uint64) {
	d := c.cfg.ProgressStep
	if rest := c.cfg.AutoplayInterval - c.progElapsed; rest < d {
		d = rest
	}
	c.progTimer = c.clock.AfterFunc(d, func() {
		c.onProgress(seq, d)
	})
}

func (c *Controller) onProgress(seq uint64, d time.Duration) {
	c.mu.Lock()
	if c.closed || seq != c.progSeq || !c.playing {
		c.mu.Unlock()
		return
	}

	c.progElapsed += d
	if c.progElapsed >= c.cfg.AutoplayInterval {
		c.progress = 100
		c.progTimer = nil
	} else {
		c.progress = 100 * float64(c.progElapsed) / float64(c.cfg.AutoplayInterval)
		c.scheduleProgressLocked(seq)
	}
	c.pushLocked(events.EventProgress, false)
	out := c.drainLocked()
	c.mu.Unlock()

	c.emit(out)
}

// ToggleFullscreen запрашивает у хоста противоположный режим.
// От transition lock не зависит.
func (c *Controller) ToggleFullscreen() bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.fullscreen = !c.fullscreen
	target := c.fullscreen
	c.pushLocked(events.EventFullscreen, false)
	out := c.drainLocked()
	c.mu.Unlock()

	if c.host != nil {
		c.host.RequestFullscreen(target)
	}
	c.emit(out)
	return true
}

// SyncFullscreen приводит флаг к фактическому состоянию хоста.
//
// Вызывается хостом, когда он сам вышел (или вошёл) в полноэкранный режим.
func (c *Controller) SyncFullscreen(actual bool) bool {
	c.mu.Lock()
	if c.closed || c.fullscreen == actual {
		c.mu.Unlock()
		return false
	}
	c.fullscreen = actual
	c.pushLocked(events.EventFullscreen, false)
	out := c.drainLocked()
	c.mu.Unlock()

	c.emit(out)
	return true
}

// Current возвращает текущий слайд.
//
// ErrEmptyDeck для пустой презентации, ErrSlideNotFound если индекс
// каким-то образом оказался вне диапазона.
func (c *Controller) Current() (deck.Slide, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.deck.Slides) == 0 {
		return deck.Slide{}, ErrEmptyDeck
	}
	s, ok := c.deck.Slide(c.index)
	if !ok {
		return deck.Slide{}, fmt.Errorf("%w: index %d of %d", ErrSlideNotFound, c.index, len(c.deck.Slides))
	}
	return s, nil
}

// Deck возвращает копию текущей презентации.
func (c *Controller) Deck() deck.Deck {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deck.Clone()
}

// Snapshot возвращает копию состояния сессии.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	images := make([]ImageStatus, len(c.images))
	copy(images, c.images)

	return Snapshot{
		SessionID:    c.sessionID,
		Generation:   c.generation,
		Title:        c.deck.Title,
		Theme:        c.deck.Theme,
		Total:        len(c.deck.Slides),
		Index:        c.index,
		State:        c.state,
		Playing:      c.playing,
		Fullscreen:   c.fullscreen,
		ShowProgress: c.deck.ShowProgress,
		Progress:     c.progress,
		Images:       images,
	}
}

// Close останавливает таймеры и отменяет фоновые загрузки.
// После Close все операции — no-op.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopAllTimersLocked()
	c.cancel()
}

// pushLocked ставит событие в очередь; отправка — после Unlock.
func (c *Controller) pushLocked(t events.EventType, automatic bool) {
	if c.emitter == nil {
		return
	}
	c.outbox = append(c.outbox, events.New(t, events.SessionData{
		Generation: c.generation,
		Index:      c.index,
		Total:      len(c.deck.Slides),
		Playing:    c.playing,
		Fullscreen: c.fullscreen,
		Progress:   c.progress,
		Automatic:  automatic,
	}))
}

func (c *Controller) pushImageLocked(slide int) {
	if c.emitter == nil {
		return
	}
	c.outbox = append(c.outbox, events.New(events.EventImage, events.ImageData{
		Generation: c.generation,
		Slide:      slide,
		Status:     string(c.images[slide]),
		Err:        c.imageErrs[slide],
	}))
}

func (c *Controller) drainLocked() []events.Event {
	out := c.outbox
	c.outbox = nil
	return out
}

func (c *Controller) emit(out []events.Event) {
	if c.emitter == nil {
		return
	}
	for _, ev := range out {
		c.emitter.Emit(c.ctx, ev)
	}
}
