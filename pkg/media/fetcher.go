// Package media загружает изображения слайдов.
//
// Fetcher — "тупой" HTTP клиент: GET по URL с ограничением размера,
// rate limiting и проверкой что ответ действительно изображение.
// Успешно загруженные байты кэшируются в памяти по URL: просмотрщик
// вызывает Preload, экспорт потом берёт те же байты через ImageData
// без повторного запроса.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // GIF
	_ "image/jpeg" // JPEG
	_ "image/png"  // PNG
	"io"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/ilkoid/poncho-slides/pkg/config"
	"github.com/ilkoid/poncho-slides/pkg/utils"
)

// ErrTooLarge — ответ больше images.max_bytes.
var ErrTooLarge = errors.New("image exceeds size limit")

// ErrNotImage — ответ не декодируется как изображение.
var ErrNotImage = errors.New("response is not an image")

// HTTPClient интерфейс для выполнения HTTP запросов.
//
// Стандартный *http.Client реализует этот интерфейс.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Image — загруженное изображение.
type Image struct {
	Data   []byte
	Format string // "jpeg", "png", "gif"
	Width  int
	Height int
}

// Fetcher загружает и кэширует изображения.
type Fetcher struct {
	httpClient HTTPClient
	limiter    *rate.Limiter
	maxBytes   int64
	userAgent  string

	mu    sync.RWMutex
	cache map[string]Image
	keep  map[string]struct{} // nil — кэшируется всё
}

// NewFetcher создаёт Fetcher из конфигурации.
// Поля с нулевыми значениями используют дефолты через GetDefaults().
func NewFetcher(cfg config.ImagesConfig) *Fetcher {
	cfg = cfg.GetDefaults()
	return NewFetcherWithClient(cfg, &http.Client{Timeout: cfg.Timeout})
}

// NewFetcherWithClient — как NewFetcher, но с заданным HTTP клиентом (тесты).
func NewFetcherWithClient(cfg config.ImagesConfig, client HTTPClient) *Fetcher {
	cfg = cfg.GetDefaults()

	// rate_limit в запросах/минуту → rate.Limit в запросах/секунду
	ratePerSec := float64(cfg.RateLimit) / 60.0

	return &Fetcher{
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), cfg.BurstLimit),
		maxBytes:   cfg.MaxBytes,
		userAgent:  cfg.UserAgent,
		cache:      make(map[string]Image),
	}
}

// Preload загружает изображение (или берёт из кэша).
//
// Реализует slideshow.Preloader.
func (f *Fetcher) Preload(ctx context.Context, url string) error {
	_, err := f.Fetch(ctx, url)
	return err
}

// Fetch возвращает изображение по URL. Повторный вызов для того же URL
// отдаёт кэшированный результат. Ошибки не кэшируются: ручной retry
// должен реально повторить запрос.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Image, error) {
	if img, ok := f.cached(url); ok {
		return img, nil
	}

	// 1. Ждем разрешения от лимитера
	if err := f.limiter.Wait(ctx); err != nil {
		return Image{}, fmt.Errorf("rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Image{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "image/*")

	// 2. Выполняем запрос
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Image{}, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	if resp.ContentLength > f.maxBytes {
		return Image{}, fmt.Errorf("fetch %s: %w (%d bytes)", url, ErrTooLarge, resp.ContentLength)
	}

	// 3. Читаем не больше лимита (+1 байт чтобы заметить превышение)
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("read %s: %w", url, err)
	}
	if int64(len(data)) > f.maxBytes {
		return Image{}, fmt.Errorf("fetch %s: %w", url, ErrTooLarge)
	}

	// 4. Проверяем что это изображение (только заголовок, без полного декодирования)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("fetch %s: %w: %v", url, ErrNotImage, err)
	}

	img := Image{Data: data, Format: format, Width: cfg.Width, Height: cfg.Height}

	f.mu.Lock()
	if _, ok := f.keep[url]; ok || f.keep == nil {
		f.cache[url] = img
	}
	f.mu.Unlock()

	utils.Debug("Image fetched", "url", url, "format", format, "size", len(data),
		"width", cfg.Width, "height", cfg.Height)
	return img, nil
}

// ImageData возвращает кэшированные байты изображения.
//
// Реализует export.ImageSource: экспорт встраивает только уже загруженное.
func (f *Fetcher) ImageData(url string) ([]byte, bool) {
	img, ok := f.cached(url)
	if !ok {
		return nil, false
	}
	return img.Data, true
}

// Retain оставляет в кэше только urls; дальнейшие загрузки других URL
// не кэшируются (запоздавшие ответы от прежней презентации).
//
// Реализует slideshow.ImageRetainer.
func (f *Fetcher) Retain(urls []string) {
	keep := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		keep[u] = struct{}{}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.keep = keep
	for u := range f.cache {
		if _, ok := keep[u]; !ok {
			delete(f.cache, u)
		}
	}
}

// Forget удаляет URL из кэша.
func (f *Fetcher) Forget(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.cache, url)
}

func (f *Fetcher) cached(url string) (Image, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	img, ok := f.cache[url]
	return img, ok
}
