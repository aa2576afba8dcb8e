package slideshow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/poncho-slides/pkg/deck"
	"github.com/ilkoid/poncho-slides/pkg/events"
)

const settle = 400 * time.Millisecond

func TestNext_IsCyclic(t *testing.T) {
	for n := 1; n <= 6; n++ {
		h := newHarness(DefaultConfig())
		h.ctrl.Load(makeDeck(n, false, false))

		start := h.ctrl.Snapshot().Index
		for i := 0; i < n; i++ {
			h.ctrl.Next()
			h.clock.Advance(settle)
		}
		assert.Equal(t, start, h.ctrl.Snapshot().Index, "n=%d", n)
	}
}

func TestPrevious_IsCyclic(t *testing.T) {
	for n := 1; n <= 6; n++ {
		h := newHarness(DefaultConfig())
		h.ctrl.Load(makeDeck(n, false, false))

		for i := 0; i < n; i++ {
			h.ctrl.Previous()
			if i == 0 {
				assert.Equal(t, n-1, h.ctrl.Snapshot().Index, "previous from 0 wraps to the end")
			}
			h.clock.Advance(settle)
		}
		assert.Equal(t, 0, h.ctrl.Snapshot().Index, "n=%d", n)
	}
}

func TestGoTo_OutOfRangeIsNoop(t *testing.T) {
	h := newHarness(DefaultConfig())
	h.ctrl.Load(makeDeck(3, false, false))
	before := h.ctrl.Snapshot()

	for _, i := range []int{-1, 3, 100} {
		assert.False(t, h.ctrl.GoTo(i))
		assert.Equal(t, before, h.ctrl.Snapshot(), "goTo(%d)", i)
	}

	assert.False(t, h.ctrl.GoTo(0), "goTo(current) changes nothing")
	assert.Equal(t, before, h.ctrl.Snapshot())

	assert.True(t, h.ctrl.GoTo(2))
	assert.Equal(t, 2, h.ctrl.Snapshot().Index)
}

func TestTransitionLock_IgnoresNavigation(t *testing.T) {
	h := newHarness(DefaultConfig())
	h.ctrl.Load(makeDeck(4, false, false))

	require.True(t, h.ctrl.Next())
	snap := h.ctrl.Snapshot()
	assert.Equal(t, 1, snap.Index)
	assert.True(t, snap.Transitioning())

	assert.False(t, h.ctrl.Next())
	assert.False(t, h.ctrl.Previous())
	assert.False(t, h.ctrl.GoTo(3))
	assert.Equal(t, 1, h.ctrl.Snapshot().Index)

	h.clock.Advance(settle - time.Millisecond)
	assert.True(t, h.ctrl.Snapshot().Transitioning(), "lock held for the full settle window")
	assert.False(t, h.ctrl.Next())

	h.clock.Advance(time.Millisecond)
	assert.False(t, h.ctrl.Snapshot().Transitioning())
	assert.Len(t, h.events.Of(events.EventSettled), 1)

	// Запросы не копились: после снятия lock индекс не сдвинулся сам.
	assert.Equal(t, 1, h.ctrl.Snapshot().Index)
	assert.True(t, h.ctrl.Next())
	assert.Equal(t, 2, h.ctrl.Snapshot().Index)
}

func TestLockExemptToggles(t *testing.T) {
	h := newHarness(DefaultConfig())
	h.ctrl.Load(makeDeck(3, false, false))
	require.True(t, h.ctrl.Next())

	assert.True(t, h.ctrl.TogglePlay(), "play/pause works during transition")
	assert.True(t, h.ctrl.Snapshot().Playing)
	assert.True(t, h.ctrl.ToggleFullscreen(), "fullscreen works during transition")
	assert.True(t, h.ctrl.Snapshot().Fullscreen)
}

func TestLoad_ResetsSession(t *testing.T) {
	h := newHarness(DefaultConfig())
	h.loader.setFail("img-1", true)
	h.ctrl.Load(withImages(makeDeck(3, false, false)))

	require.Eventually(t, func() bool {
		return h.ctrl.Snapshot().Image(1) == ImageFailed
	}, time.Second, 5*time.Millisecond)

	h.ctrl.GoTo(2)
	h.ctrl.Play()
	gen := h.ctrl.Snapshot().Generation

	next := makeDeck(2, false, false)
	next.Slides[1].Image = &deck.Image{URL: "other"}
	h.loader.hold("other")
	h.ctrl.Load(next)

	snap := h.ctrl.Snapshot()
	assert.Equal(t, 0, snap.Index)
	assert.False(t, snap.Playing, "playing follows the new deck's autoplay flag")
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, gen+1, snap.Generation)
	assert.Equal(t, []ImageStatus{ImageNone, ImagePending}, snap.Images, "no image state survives a deck change")
	assert.Nil(t, h.ctrl.ImageError(1))

	h.ctrl.Close()
}

func TestLoad_CopiesDeck(t *testing.T) {
	h := newHarness(DefaultConfig())
	d := makeDeck(2, false, false)
	h.ctrl.Load(d)

	d.Slides[0].Heading = "mutated"
	cur, err := h.ctrl.Current()
	require.NoError(t, err)
	assert.Equal(t, "Slide 1", cur.Heading)
}

func TestPause_StopsAutomaticAdvance(t *testing.T) {
	h := newHarness(DefaultConfig())
	h.ctrl.Load(makeDeck(3, true, true))

	h.clock.Advance(4999 * time.Millisecond)
	assert.Equal(t, 0, h.ctrl.Snapshot().Index)

	require.True(t, h.ctrl.Pause())
	progress := h.ctrl.Snapshot().Progress

	h.clock.Advance(time.Minute)
	snap := h.ctrl.Snapshot()
	assert.Equal(t, 0, snap.Index)
	assert.Equal(t, progress, snap.Progress, "progress is inert while paused")

	require.True(t, h.ctrl.Play())
	assert.Equal(t, 0.0, h.ctrl.Snapshot().Progress, "play starts a fresh period")
	h.clock.Advance(5 * time.Second)
	assert.Equal(t, 1, h.ctrl.Snapshot().Index)
}

func TestAutoplay_ThreeSlideScenario(t *testing.T) {
	h := newHarness(DefaultConfig())
	h.ctrl.Load(makeDeck(3, true, true))
	require.True(t, h.ctrl.Snapshot().Playing)

	h.clock.Advance(2500 * time.Millisecond)
	assert.InDelta(t, 50.0, h.ctrl.Snapshot().Progress, 1e-9)

	h.clock.Advance(2500 * time.Millisecond) // t=5000
	snap := h.ctrl.Snapshot()
	assert.Equal(t, 1, snap.Index)
	assert.Equal(t, 0.0, snap.Progress)

	h.clock.Advance(10 * time.Second) // t=15000
	assert.Equal(t, 0, h.ctrl.Snapshot().Index, "autoplay wraps around")

	changes := h.events.Of(events.EventSlideChanged)
	require.Len(t, changes, 3)
	for _, ev := range changes {
		assert.True(t, ev.Data.(events.SessionData).Automatic)
	}
}

func TestAutoplay_SingleSlideRestartsPeriod(t *testing.T) {
	cfg := DefaultConfig()
	h := newHarness(cfg)
	h.ctrl.Load(makeDeck(1, true, true))

	h.clock.Advance(cfg.AutoplayInterval - cfg.ProgressStep)
	assert.InDelta(t, 99.0, h.ctrl.Snapshot().Progress, 1e-9)

	// Один слайд: индекс не меняется, но период начинается заново.
	h.clock.Advance(cfg.ProgressStep)
	snap := h.ctrl.Snapshot()
	assert.Equal(t, 0, snap.Index)
	assert.Equal(t, 0.0, snap.Progress)
}

func TestAutoplay_ManualNavigationRestartsPeriod(t *testing.T) {
	h := newHarness(DefaultConfig())
	h.ctrl.Load(makeDeck(4, true, false))

	h.clock.Advance(4 * time.Second)
	require.True(t, h.ctrl.Next())

	h.clock.Advance(4 * time.Second) // t=8000: старый период уже истёк бы
	assert.Equal(t, 1, h.ctrl.Snapshot().Index)

	h.clock.Advance(time.Second) // t=9000: 5000 после ручного перехода
	assert.Equal(t, 2, h.ctrl.Snapshot().Index)
}

func TestAutoplay_DeferredUntilSettle(t *testing.T) {
	h := newHarness(Config{
		AutoplayInterval:   300 * time.Millisecond,
		TransitionDuration: 400 * time.Millisecond,
	})
	h.ctrl.Load(makeDeck(3, true, false))

	require.True(t, h.ctrl.Next())

	h.clock.Advance(350 * time.Millisecond)
	snap := h.ctrl.Snapshot()
	assert.Equal(t, 1, snap.Index, "autoplay must not fire into a manual settle window")
	assert.True(t, snap.Transitioning())

	h.clock.Advance(50 * time.Millisecond)
	assert.Equal(t, 2, h.ctrl.Snapshot().Index, "deferred tick runs once the lock is released")
}

func TestReset(t *testing.T) {
	h := newHarness(DefaultConfig())
	h.ctrl.Load(makeDeck(3, true, false))

	h.ctrl.Pause()
	h.ctrl.GoTo(2)
	h.ctrl.Reset()

	snap := h.ctrl.Snapshot()
	assert.Equal(t, 0, snap.Index)
	assert.True(t, snap.Playing, "reset restores the deck's autoplay flag")
	assert.False(t, snap.Transitioning(), "reset clears the lock")
	assert.True(t, h.ctrl.Next())
}

func TestEmptyDeck_Fallback(t *testing.T) {
	for _, d := range []*deck.Deck{nil, {Title: "Empty"}, {Title: "Auto", Autoplay: true, ShowProgress: true}} {
		h := newHarness(DefaultConfig())
		h.ctrl.Load(d)

		assert.NotPanics(t, func() {
			h.ctrl.Next()
			h.ctrl.Previous()
			h.ctrl.GoTo(0)
			h.ctrl.Reset()
			h.ctrl.TogglePlay()
			h.ctrl.RetryImage(0)
			h.ctrl.ToggleFullscreen()
			h.clock.Advance(time.Minute)
		})

		snap := h.ctrl.Snapshot()
		assert.True(t, snap.Empty())
		assert.Equal(t, 0, snap.Index)

		_, err := h.ctrl.Current()
		assert.ErrorIs(t, err, ErrEmptyDeck)
		assert.Equal(t, "no content", err.Error())
	}
}

func TestImage_FailureAndRetryIsolation(t *testing.T) {
	h := newHarness(DefaultConfig())
	h.loader.setFail("img-1", true)
	h.ctrl.Load(withImages(makeDeck(3, false, false)))

	require.Eventually(t, func() bool {
		imgs := h.ctrl.Snapshot().Images
		return imgs[0] == ImageLoaded && imgs[1] == ImageFailed && imgs[2] == ImageLoaded
	}, time.Second, 5*time.Millisecond)
	assert.Error(t, h.ctrl.ImageError(1))
	assert.Equal(t, []bool{true, false, true}, h.ctrl.LoadedImages())

	assert.False(t, h.ctrl.RetryImage(0), "only failed images can be retried")
	assert.False(t, h.ctrl.RetryImage(7))

	h.loader.setFail("img-1", false)
	require.True(t, h.ctrl.RetryImage(1))

	require.Eventually(t, func() bool {
		return h.ctrl.Snapshot().Image(1) == ImageLoaded
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, h.loader.Calls("img-0"), "sibling slides are not reloaded")
	assert.Equal(t, 2, h.loader.Calls("img-1"))
	assert.Equal(t, 1, h.loader.Calls("img-2"))
	assert.Nil(t, h.ctrl.ImageError(1))
}

func TestImage_StaleResultsDropped(t *testing.T) {
	h := newHarness(DefaultConfig())
	h.ctrl.Load(withImages(makeDeck(2, false, false)))
	require.Eventually(t, func() bool {
		imgs := h.ctrl.Snapshot().Images
		return imgs[0] == ImageLoaded && imgs[1] == ImageLoaded
	}, time.Second, 5*time.Millisecond)

	next := makeDeck(2, false, false)
	next.Slides[0].Image = &deck.Image{URL: "slow"}
	h.loader.hold("slow")
	h.ctrl.Load(next)

	// Результат загрузки от предыдущей презентации.
	h.ctrl.applyPreload(preloadJob{generation: 1, slide: 0, attempt: 1, url: "img-0"}, nil)
	assert.Equal(t, ImagePending, h.ctrl.Snapshot().Image(0))

	// Результат устаревшей попытки для текущей презентации.
	h.ctrl.applyPreload(preloadJob{generation: 2, slide: 0, attempt: 0, url: "slow"}, nil)
	assert.Equal(t, ImagePending, h.ctrl.Snapshot().Image(0))

	h.loader.release("slow")
	require.Eventually(t, func() bool {
		return h.ctrl.Snapshot().Image(0) == ImageLoaded
	}, time.Second, 5*time.Millisecond)
}

func TestImage_NoPreloaderMarksLoaded(t *testing.T) {
	c := New(context.Background(), Options{Clock: newFakeClock()})
	c.Load(withImages(makeDeck(2, false, false)))

	require.Eventually(t, func() bool {
		imgs := c.Snapshot().Images
		return imgs[0] == ImageLoaded && imgs[1] == ImageLoaded
	}, time.Second, 5*time.Millisecond)
}

func TestFullscreen_Sync(t *testing.T) {
	h := newHarness(DefaultConfig())
	h.ctrl.Load(makeDeck(2, false, false))

	require.True(t, h.ctrl.ToggleFullscreen())
	assert.True(t, h.ctrl.Snapshot().Fullscreen)

	// Хост вышел из полноэкранного режима сам.
	assert.True(t, h.ctrl.SyncFullscreen(false))
	assert.False(t, h.ctrl.Snapshot().Fullscreen)
	assert.False(t, h.ctrl.SyncFullscreen(false), "already in sync")

	require.True(t, h.ctrl.ToggleFullscreen())
	assert.Equal(t, []bool{true, true}, h.host.Requests())
	assert.Len(t, h.events.Of(events.EventFullscreen), 3)
}

func TestClose_StopsEverything(t *testing.T) {
	h := newHarness(DefaultConfig())
	h.ctrl.Load(makeDeck(3, true, true))
	h.ctrl.Close()
	h.ctrl.Close()

	h.clock.Advance(time.Minute)
	assert.Equal(t, 0, h.ctrl.Snapshot().Index)
	assert.False(t, h.ctrl.Next())
	assert.False(t, h.ctrl.TogglePlay())
	assert.False(t, h.ctrl.ToggleFullscreen())
}

func TestCurrent(t *testing.T) {
	h := newHarness(DefaultConfig())
	h.ctrl.Load(makeDeck(3, false, false))
	h.ctrl.GoTo(1)

	s, err := h.ctrl.Current()
	require.NoError(t, err)
	assert.Equal(t, "Slide 2", s.Heading)
	assert.Equal(t, deck.KindContent, s.Kind)
}

func TestConfig_Defaults(t *testing.T) {
	c := Config{AutoplayInterval: 4 * time.Second}.withDefaults()
	assert.Equal(t, 4*time.Second, c.AutoplayInterval)
	assert.Equal(t, 400*time.Millisecond, c.TransitionDuration)
	assert.Equal(t, 50*time.Millisecond, c.ProgressStep)

	tiny := Config{AutoplayInterval: 20 * time.Millisecond}.withDefaults()
	assert.Equal(t, 20*time.Millisecond, tiny.ProgressStep)
}

func TestProgress_CompletesExactlyAtUnevenPeriod(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoplayInterval = 4990 * time.Millisecond
	h := newHarness(cfg)
	h.ctrl.Load(makeDeck(3, true, true))

	// Test 1: 4950ms из 4990ms — ещё не 100
	h.clock.Advance(4950 * time.Millisecond)
	assert.InDelta(t, 100*4950.0/4990.0, h.ctrl.Snapshot().Progress, 1e-9)
	assert.Less(t, h.ctrl.Snapshot().Progress, 100.0)
	assert.Equal(t, 0, h.ctrl.Snapshot().Index)

	// Test 2: за 1ms до конца периода прогресс всё ещё меньше 100
	h.clock.Advance(39 * time.Millisecond)
	assert.Less(t, h.ctrl.Snapshot().Progress, 100.0)

	// Test 3: ровно на периоде — переход, прогресс с нуля
	h.clock.Advance(time.Millisecond)
	snap := h.ctrl.Snapshot()
	assert.Equal(t, 1, snap.Index)
	assert.Equal(t, 0.0, snap.Progress)
}

func TestTogglePlay_ConcurrentTogglesAllApply(t *testing.T) {
	h := newHarness(DefaultConfig())
	h.ctrl.Load(makeDeck(3, false, false))

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, h.ctrl.TogglePlay())
		}()
	}
	wg.Wait()

	// Чётное число переключений возвращает исходное значение
	assert.False(t, h.ctrl.Snapshot().Playing)
	assert.Len(t, h.events.Of(events.EventPlayback), n)
}

// retainingPreloader запоминает наборы URL из Retain.
type retainingPreloader struct {
	*fakePreloader
	mu       sync.Mutex
	retained [][]string
}

func (p *retainingPreloader) Retain(urls []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.retained = append(p.retained, append([]string{}, urls...))
}

func TestLoad_RetainsOnlyCurrentImages(t *testing.T) {
	p := &retainingPreloader{fakePreloader: newFakePreloader()}
	ctrl := New(context.Background(), Options{Clock: newFakeClock(), Preloader: p})
	defer ctrl.Close()

	ctrl.Load(withImages(makeDeck(2, false, false)))
	d := makeDeck(3, false, false)
	d.Slides[1].Image = &deck.Image{URL: "other"}
	ctrl.Load(d)
	ctrl.Load(nil)

	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Equal(t, [][]string{{"img-0", "img-1"}, {"other"}, {}}, p.retained)
}
