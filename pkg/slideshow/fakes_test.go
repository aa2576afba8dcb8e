package slideshow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ilkoid/poncho-slides/pkg/deck"
	"github.com/ilkoid/poncho-slides/pkg/events"
)

// fakeClock — ручные часы: таймеры срабатывают только внутри Advance,
// синхронно, в порядке (время, порядок создания).
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	nextID int
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	id      int
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{}
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	t := &fakeTimer{clock: c, id: c.nextID, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// Advance двигает время на d, вызывая все наступившие таймеры.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	for {
		c.mu.Lock()
		due := c.dueLocked(target)
		if due == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = due.at
		due.fired = true
		c.mu.Unlock()

		due.f()
	}
}

func (c *fakeClock) dueLocked(target time.Duration) *fakeTimer {
	active := c.timers[:0]
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			active = append(active, t)
		}
	}
	c.timers = active

	sort.Slice(active, func(i, j int) bool {
		if active[i].at != active[j].at {
			return active[i].at < active[j].at
		}
		return active[i].id < active[j].id
	})
	if len(active) == 0 || active[0].at > target {
		return nil
	}
	return active[0]
}

func (c *fakeClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// fakePreloader: URL из fail падает, URL из block ждёт закрытия канала.
type fakePreloader struct {
	mu    sync.Mutex
	fail  map[string]bool
	block map[string]chan struct{}
	calls map[string]int
}

func newFakePreloader() *fakePreloader {
	return &fakePreloader{
		fail:  make(map[string]bool),
		block: make(map[string]chan struct{}),
		calls: make(map[string]int),
	}
}

func (p *fakePreloader) Preload(ctx context.Context, url string) error {
	p.mu.Lock()
	p.calls[url]++
	fail := p.fail[url]
	gate := p.block[url]
	p.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if fail {
		return errors.New("404 not found")
	}
	return nil
}

func (p *fakePreloader) setFail(url string, fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail[url] = fail
}

// hold блокирует загрузку url до release.
func (p *fakePreloader) hold(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.block[url] = make(chan struct{})
}

func (p *fakePreloader) release(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gate, ok := p.block[url]; ok {
		close(gate)
		delete(p.block, url)
	}
}

func (p *fakePreloader) Calls(url string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[url]
}

// fakeHost записывает запросы fullscreen.
type fakeHost struct {
	mu       sync.Mutex
	requests []bool
}

func (h *fakeHost) RequestFullscreen(enter bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests = append(h.requests, enter)
}

func (h *fakeHost) Requests() []bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]bool(nil), h.requests...)
}

// recorder — Emitter, сохраняющий все события.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Emit(_ context.Context, ev events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) Of(t events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// makeDeck строит презентацию из n слайдов без изображений.
func makeDeck(n int, autoplay, progress bool) *deck.Deck {
	d := &deck.Deck{Title: "Test", Theme: deck.ThemeDark, Autoplay: autoplay, ShowProgress: progress}
	for i := 0; i < n; i++ {
		kind := deck.KindContent
		switch {
		case i == 0:
			kind = deck.KindIntro
		case i == n-1:
			kind = deck.KindOutro
		}
		d.Slides = append(d.Slides, deck.Slide{
			Kind:    kind,
			Heading: fmt.Sprintf("Slide %d", i+1),
			Body:    "Body",
		})
	}
	return d
}

// withImages добавляет изображение каждому слайду: img-0, img-1, ...
func withImages(d *deck.Deck) *deck.Deck {
	for i := range d.Slides {
		d.Slides[i].Image = &deck.Image{URL: fmt.Sprintf("img-%d", i), Photographer: "P"}
	}
	return d
}

type harness struct {
	ctrl   *Controller
	clock  *fakeClock
	loader *fakePreloader
	host   *fakeHost
	events *recorder
}

func newHarness(cfg Config) *harness {
	h := &harness{
		clock:  newFakeClock(),
		loader: newFakePreloader(),
		host:   &fakeHost{},
		events: &recorder{},
	}
	h.ctrl = New(context.Background(), Options{
		Config:    cfg,
		Clock:     h.clock,
		Preloader: h.loader,
		Host:      h.host,
		Emitter:   h.events,
	})
	return h
}
