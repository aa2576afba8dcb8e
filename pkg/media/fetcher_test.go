package media

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/poncho-slides/pkg/config"
	"github.com/ilkoid/poncho-slides/pkg/deck"
	"github.com/ilkoid/poncho-slides/pkg/slideshow"
)

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 3))))
	return buf.Bytes()
}

func newServer(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	pngData := tinyPNG(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/ok.png", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngData)
	})
	mux.HandleFunc("/html", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>404</html>"))
	})
	mux.HandleFunc("/big", func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte{0xff}, 2048))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestFetcher_FetchAndCache(t *testing.T) {
	srv, hits := newServer(t)
	f := NewFetcherWithClient(config.ImagesConfig{RateLimit: 6000, BurstLimit: 10}, srv.Client())

	img, err := f.Fetch(context.Background(), srv.URL+"/ok.png")
	require.NoError(t, err)
	assert.Equal(t, "png", img.Format)
	assert.Equal(t, 4, img.Width)
	assert.Equal(t, 3, img.Height)

	require.NoError(t, f.Preload(context.Background(), srv.URL+"/ok.png"))
	assert.Equal(t, int32(1), atomic.LoadInt32(hits), "second load served from cache")

	data, ok := f.ImageData(srv.URL + "/ok.png")
	assert.True(t, ok)
	assert.Equal(t, img.Data, data)

	f.Forget(srv.URL + "/ok.png")
	_, ok = f.ImageData(srv.URL + "/ok.png")
	assert.False(t, ok)
}

func TestFetcher_Retain(t *testing.T) {
	srv, hits := newServer(t)
	f := NewFetcherWithClient(config.ImagesConfig{RateLimit: 6000, BurstLimit: 10}, srv.Client())
	ctx := context.Background()
	a, b := srv.URL+"/ok.png?a", srv.URL+"/ok.png?b"

	require.NoError(t, f.Preload(ctx, a))
	require.NoError(t, f.Preload(ctx, b))

	// Test 1: остаётся только b
	f.Retain([]string{b})
	_, ok := f.ImageData(a)
	assert.False(t, ok)
	_, ok = f.ImageData(b)
	assert.True(t, ok)

	// Test 2: URL вне набора загружается, но не кэшируется
	require.NoError(t, f.Preload(ctx, a))
	_, ok = f.ImageData(a)
	assert.False(t, ok)
	assert.Equal(t, int32(3), atomic.LoadInt32(hits))
}

func TestFetcher_DeckReplacementReleasesOldImages(t *testing.T) {
	srv, _ := newServer(t)
	f := NewFetcherWithClient(config.ImagesConfig{RateLimit: 600000, BurstLimit: 200}, srv.Client())

	ctrl := slideshow.New(context.Background(), slideshow.Options{Preloader: f})
	t.Cleanup(ctrl.Close)

	makeDeck := func(n int) *deck.Deck {
		d := &deck.Deck{Title: fmt.Sprintf("Deck %d", n), Theme: deck.ThemeLight}
		for i := 0; i < 3; i++ {
			d.Slides = append(d.Slides, deck.Slide{
				Kind:    deck.KindContent,
				Heading: "H",
				Body:    "B",
				Image:   &deck.Image{URL: fmt.Sprintf("%s/ok.png?deck=%d&img=%d", srv.URL, n, i)},
			})
		}
		return d
	}

	const decks = 50
	for n := 0; n < decks; n++ {
		ctrl.Load(makeDeck(n))
	}

	require.Eventually(t, func() bool {
		for _, loaded := range ctrl.LoadedImages() {
			if !loaded {
				return false
			}
		}
		return true
	}, 5*time.Second, 10*time.Millisecond)

	// Дождаться запоздавших загрузок прежних презентаций
	time.Sleep(50 * time.Millisecond)

	for n := 0; n < decks-1; n++ {
		for i := 0; i < 3; i++ {
			_, ok := f.ImageData(fmt.Sprintf("%s/ok.png?deck=%d&img=%d", srv.URL, n, i))
			assert.False(t, ok, "deck %d image %d", n, i)
		}
	}
	for i := 0; i < 3; i++ {
		_, ok := f.ImageData(fmt.Sprintf("%s/ok.png?deck=%d&img=%d", srv.URL, decks-1, i))
		assert.True(t, ok, "current deck image %d", i)
	}

	f.mu.RLock()
	assert.Len(t, f.cache, 3)
	f.mu.RUnlock()
}

var _ slideshow.ImageRetainer = (*Fetcher)(nil)

func TestFetcher_Errors(t *testing.T) {
	srv, _ := newServer(t)
	f := NewFetcherWithClient(config.ImagesConfig{RateLimit: 6000, BurstLimit: 10, MaxBytes: 1024}, srv.Client())

	err := f.Preload(context.Background(), srv.URL+"/missing")
	assert.ErrorContains(t, err, "status 404")

	err = f.Preload(context.Background(), srv.URL+"/html")
	assert.ErrorIs(t, err, ErrNotImage)

	err = f.Preload(context.Background(), srv.URL+"/big")
	assert.ErrorIs(t, err, ErrTooLarge)

	_, ok := f.ImageData(srv.URL + "/html")
	assert.False(t, ok, "failures are not cached")
}

func TestFetcher_CancelledContext(t *testing.T) {
	srv, _ := newServer(t)
	f := NewFetcherWithClient(config.ImagesConfig{}, srv.Client())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, f.Preload(ctx, srv.URL+"/ok.png"))
}
