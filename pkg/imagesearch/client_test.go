package imagesearch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/poncho-slides/pkg/config"
)

const unsplashBody = `{
  "total": 1,
  "results": [{
    "id": "abc",
    "description": "",
    "alt_description": "gophers at work",
    "urls": {"regular": "https://images.example/abc?w=1080", "small": "https://images.example/abc?w=400"},
    "user": {"name": "Ann Lee", "links": {"html": "https://unsplash.com/@ann"}}
  }]
}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewWithClient(config.ImageSearchConfig{
		AccessKey: "test-key",
		BaseURL:   srv.URL,
		RateLimit: 6000,
	}, srv.Client())
	require.NoError(t, err)
	c.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	return c
}

func TestSearch_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/photos", r.URL.Path)
		assert.Equal(t, "Client-ID test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "go gophers", r.URL.Query().Get("query"))
		assert.Equal(t, "1", r.URL.Query().Get("per_page"))
		assert.Equal(t, "landscape", r.URL.Query().Get("orientation"))
		w.Write([]byte(unsplashBody))
	})

	img, err := c.Search(context.Background(), "  go gophers ")
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, "https://images.example/abc?w=1080", img.URL)
	assert.Equal(t, "gophers at work", img.Alt)
	assert.Equal(t, "Ann Lee", img.Photographer)
	assert.Equal(t, "https://unsplash.com/@ann", img.PhotographerURL)
	assert.Equal(t, "go gophers", img.Query)
}

func TestSearch_NoResultsIsNotAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total": 0, "results": []}`))
	})

	img, err := c.Search(context.Background(), "qwertyuiop")
	assert.NoError(t, err)
	assert.Nil(t, img)

	img, err = c.Search(context.Background(), "   ")
	assert.NoError(t, err)
	assert.Nil(t, img, "empty query short-circuits")
}

func TestSearch_RetriesOn429(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(unsplashBody))
	})

	img, err := c.Search(context.Background(), "gophers")
	require.NoError(t, err)
	assert.NotNil(t, img)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSearch_GivesUpAfterRetries(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Search(context.Background(), "gophers")
	require.Error(t, err)
	assert.Equal(t, ErrRateLimit, ClassifyError(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSearch_AuthErrorNotRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errors":["OAuth error: The access token is invalid"]}`))
	})

	_, err := c.Search(context.Background(), "gophers")
	require.Error(t, err)
	assert.Equal(t, ErrAuthFailed, ClassifyError(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestNewWithClient_RequiresKey(t *testing.T) {
	_, err := NewWithClient(config.ImageSearchConfig{}, http.DefaultClient)
	assert.ErrorContains(t, err, "access_key is required")
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorType
	}{
		{nil, ErrUnknown},
		{errors.New("unsplash api error: status 403, body: forbidden"), ErrAuthFailed},
		{context.DeadlineExceeded, ErrTimeout},
		{errors.New("dial tcp: connection refused"), ErrNetwork},
		{errors.New("dial tcp: lookup api.unsplash.com: no such host"), ErrNetwork},
		{errors.New("max retries exceeded, last error: unsplash api error: status 429"), ErrRateLimit},
		{errors.New("something odd"), ErrUnknown},
	}

	for _, tt := range tests {
		got := ClassifyError(tt.err)
		assert.Equal(t, tt.want, got, "%v", tt.err)
		assert.NotEmpty(t, got.HumanMessage())
	}
}
