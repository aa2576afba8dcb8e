// Package imagesearch ищет изображения для слайдов через Unsplash API.
//
// Это тонкий SDK: HTTP клиент с retry, rate limiting и классификацией
// ошибок, плюс приведение ответа Unsplash к deck.Image. Релевантность
// не ранжируется: берётся первый результат поиска.
//
// Контракт Searcher: запрос → ноль или одно изображение. Отсутствие
// результата — (nil, nil), а не ошибка.
package imagesearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ilkoid/poncho-slides/pkg/config"
	"github.com/ilkoid/poncho-slides/pkg/deck"
	"github.com/ilkoid/poncho-slides/pkg/utils"
)

// Searcher находит изображение по текстовому запросу.
type Searcher interface {
	Search(ctx context.Context, query string) (*deck.Image, error)
}

// HTTPClient интерфейс для выполнения HTTP запросов.
//
// Позволяет мокировать HTTP клиент в тестах.
// Стандартный *http.Client реализует этот интерфейс.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client — клиент Unsplash Search API.
type Client struct {
	accessKey     string
	baseURL       string
	httpClient    HTTPClient
	retryAttempts int
	limiter       *rate.Limiter

	// sleep — пауза между повторами (подменяется в тестах)
	sleep func(ctx context.Context, d time.Duration) error
}

// NewFromConfig создает клиент из конфигурации.
//
// Поля с нулевыми значениями используют дефолтные значения через GetDefaults().
func NewFromConfig(cfg config.ImageSearchConfig) (*Client, error) {
	cfg = cfg.GetDefaults()
	return NewWithClient(cfg, &http.Client{Timeout: cfg.Timeout})
}

// NewWithClient создает клиент с заданным HTTP клиентом.
func NewWithClient(cfg config.ImageSearchConfig, httpClient HTTPClient) (*Client, error) {
	cfg = cfg.GetDefaults()

	if cfg.AccessKey == "" {
		return nil, fmt.Errorf("image_search.access_key is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid image_search.base_url: %w", err)
	}

	// rate_limit в запросах/минуту → rate.Limit в запросах/секунду
	ratePerSec := float64(cfg.RateLimit) / 60.0

	return &Client{
		accessKey:     cfg.AccessKey,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:    httpClient,
		retryAttempts: cfg.RetryAttempts,
		limiter:       rate.NewLimiter(rate.Limit(ratePerSec), cfg.BurstLimit),
		sleep:         sleepCtx,
	}, nil
}

// searchResponse — ответ GET /search/photos (только нужные поля).
type searchResponse struct {
	Total   int     `json:"total"`
	Results []photo `json:"results"`
}

type photo struct {
	ID             string `json:"id"`
	Description    string `json:"description"`
	AltDescription string `json:"alt_description"`
	URLs           struct {
		Regular string `json:"regular"`
		Small   string `json:"small"`
	} `json:"urls"`
	User struct {
		Name  string `json:"name"`
		Links struct {
			HTML string `json:"html"`
		} `json:"links"`
	} `json:"user"`
}

// Search ищет одно горизонтальное изображение по запросу.
//
// Пустой запрос или пустая выдача — (nil, nil).
func (c *Client) Search(ctx context.Context, query string) (*deck.Image, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", "1")
	params.Set("orientation", "landscape")

	var resp searchResponse
	if err := c.get(ctx, "/search/photos", params, &resp); err != nil {
		return nil, err
	}

	if len(resp.Results) == 0 {
		utils.Debug("Image search: no results", "query", query)
		return nil, nil
	}

	p := resp.Results[0]
	imgURL := p.URLs.Regular
	if imgURL == "" {
		imgURL = p.URLs.Small
	}
	if imgURL == "" {
		return nil, nil
	}

	alt := p.AltDescription
	if alt == "" {
		alt = p.Description
	}
	if alt == "" {
		alt = query
	}

	return &deck.Image{
		URL:             imgURL,
		Alt:             alt,
		Photographer:    p.User.Name,
		PhotographerURL: p.User.Links.HTML,
		Query:           query,
	}, nil
}

// get выполняет GET запрос с retry логикой и rate limiting.
//
// Сетевые ошибки и 429/5xx повторяются, остальные статусы — сразу ошибка.
func (c *Client) get(ctx context.Context, path string, params url.Values, dest any) error {
	u := c.baseURL + path
	if params != nil {
		u += "?" + params.Encode()
	}

	var lastErr error

	for i := 0; i < c.retryAttempts; i++ {
		// 1. Ждем разрешения от лимитера
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Client-ID "+c.accessKey)
		req.Header.Set("Accept-Version", "v1")
		req.Header.Set("Accept", "application/json")

		// 2. Выполняем запрос
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			continue // Сетевая ошибка, пробуем еще
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		// 3. Обработка 429 (Too Many Requests) и 5xx
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("unsplash api error: status %d", resp.StatusCode)
			if err := c.sleep(ctx, retryAfter(resp.Header)); err != nil {
				return err
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unsplash api error: status %d, body: %s", resp.StatusCode, truncate(string(body), 200))
		}

		if err := json.Unmarshal(body, dest); err != nil {
			return fmt.Errorf("unmarshal error: %w", err)
		}

		return nil // Успех
	}

	return fmt.Errorf("max retries exceeded, last error: %v", lastErr)
}

// retryAfter читает Retry-After (секунды), дефолт 1s.
func retryAfter(h http.Header) time.Duration {
	if s := h.Get("Retry-After"); s != "" {
		if sec, err := strconv.Atoi(s); err == nil && sec >= 0 {
			return time.Duration(sec) * time.Second
		}
	}
	return time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ Searcher = (*Client)(nil)
