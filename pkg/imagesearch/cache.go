package imagesearch

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ilkoid/poncho-slides/pkg/deck"
	"github.com/ilkoid/poncho-slides/pkg/utils"
)

// Cache хранит результаты поиска в SQLite.
//
// Ключ — нормализованный запрос. Кэшируются и пустые выдачи,
// чтобы не тратить лимит API на заведомо пустые запросы.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// OpenCache открывает (или создаёт) файл кэша.
func OpenCache(path string, ttl time.Duration) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping cache: %w", err)
	}

	c := &Cache{db: db, ttl: ttl, now: time.Now}
	if err := c.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	utils.Info("Image search cache opened", "path", path, "ttl", ttl)
	return c, nil
}

func (c *Cache) createTables() error {
	createTable := `
	CREATE TABLE IF NOT EXISTS image_search (
		query TEXT PRIMARY KEY,
		found INTEGER NOT NULL,
		payload TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);`
	if _, err := c.db.Exec(createTable); err != nil {
		return fmt.Errorf("failed to create image_search table: %w", err)
	}
	return nil
}

// Get возвращает закэшированный результат.
//
// hit=false если записи нет или она старше TTL. img=nil при hit=true
// означает закэшированную пустую выдачу.
func (c *Cache) Get(ctx context.Context, query string) (img *deck.Image, hit bool, err error) {
	var (
		found     bool
		payload   string
		createdAt int64
	)
	row := c.db.QueryRowContext(ctx,
		`SELECT found, payload, created_at FROM image_search WHERE query = ?`, NormalizeQuery(query))
	if err := row.Scan(&found, &payload, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache lookup: %w", err)
	}

	if c.ttl > 0 && c.now().Sub(time.Unix(createdAt, 0)) > c.ttl {
		return nil, false, nil
	}
	if !found {
		return nil, true, nil
	}

	var cached deck.Image
	if err := json.Unmarshal([]byte(payload), &cached); err != nil {
		return nil, false, fmt.Errorf("cache decode: %w", err)
	}
	return &cached, true, nil
}

// Put сохраняет результат (nil — пустая выдача).
func (c *Cache) Put(ctx context.Context, query string, img *deck.Image) error {
	payload := ""
	if img != nil {
		data, err := json.Marshal(img)
		if err != nil {
			return fmt.Errorf("cache encode: %w", err)
		}
		payload = string(data)
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO image_search (query, found, payload, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(query) DO UPDATE SET found = excluded.found, payload = excluded.payload, created_at = excluded.created_at`,
		NormalizeQuery(query), img != nil, payload, c.now().Unix())
	if err != nil {
		return fmt.Errorf("cache store: %w", err)
	}
	return nil
}

// Purge удаляет записи старше TTL. Возвращает количество удалённых.
func (c *Cache) Purge(ctx context.Context) (int64, error) {
	if c.ttl <= 0 {
		return 0, nil
	}
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM image_search WHERE created_at < ?`, c.now().Add(-c.ttl).Unix())
	if err != nil {
		return 0, fmt.Errorf("cache purge: %w", err)
	}
	return res.RowsAffected()
}

// Close закрывает соединение с базой.
func (c *Cache) Close() error {
	return c.db.Close()
}

// NormalizeQuery приводит запрос к ключу кэша: нижний регистр, одиночные пробелы.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// CachedSearcher — Searcher поверх кэша.
//
// Ошибки кэша не ломают поиск: они логируются, и запрос идёт в API.
type CachedSearcher struct {
	next  Searcher
	cache *Cache
}

// NewCachedSearcher оборачивает searcher кэшем.
func NewCachedSearcher(next Searcher, cache *Cache) *CachedSearcher {
	return &CachedSearcher{next: next, cache: cache}
}

// Search реализует Searcher.
func (s *CachedSearcher) Search(ctx context.Context, query string) (*deck.Image, error) {
	if NormalizeQuery(query) == "" {
		return nil, nil
	}

	img, hit, err := s.cache.Get(ctx, query)
	if err != nil {
		utils.Warn("Image cache read failed", "query", query, "error", err)
	} else if hit {
		utils.Debug("Image cache hit", "query", query, "found", img != nil)
		return img, nil
	}

	img, err = s.next.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Put(ctx, query, img); err != nil {
		utils.Warn("Image cache write failed", "query", query, "error", err)
	}
	return img, nil
}

var _ Searcher = (*CachedSearcher)(nil)
