package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ilkoid/poncho-slides/pkg/config"
	"github.com/ilkoid/poncho-slides/pkg/events"
	"github.com/ilkoid/poncho-slides/pkg/s3storage"
	"github.com/ilkoid/poncho-slides/pkg/utils"
)

// ErrExportFailed оборачивает любую ошибку экспорта.
//
// Для пользователя это одно уведомление; состояние сессии не затрагивается.
var ErrExportFailed = errors.New("export failed")

// Uploader загружает готовый файл (реализация: s3storage.Client).
type Uploader interface {
	Upload(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
}

// Result — итог экспорта.
type Result struct {
	Path      string // Локальный путь файла
	Pages     int
	Bytes     int64
	UploadKey string // Ключ в S3, если была загрузка
}

// Exporter пишет документы на диск и (опционально) в S3.
type Exporter struct {
	cfg      config.ExportConfig
	images   ImageSource
	uploader Uploader
	emitter  events.Emitter
	now      func() time.Time
}

// Option настраивает Exporter.
type Option func(*Exporter)

// WithUploader включает загрузку экспортов.
func WithUploader(u Uploader) Option {
	return func(e *Exporter) { e.uploader = u }
}

// WithEmitter включает событие EventExport по завершении ExportAsync.
func WithEmitter(em events.Emitter) Option {
	return func(e *Exporter) { e.emitter = em }
}

// New создаёт Exporter. images может быть nil — тогда изображения
// заменяются маркером.
func New(cfg config.ExportConfig, images ImageSource, opts ...Option) *Exporter {
	e := &Exporter{
		cfg:    cfg.GetDefaults(),
		images: images,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Filename возвращает детерминированное имя файла для заголовка.
//
//	"Go Concurrency" → "go_concurrency_presentation.pdf"
//	""               → "presentation_presentation.pdf"
func Filename(title, ext string) string {
	if ext == "" {
		ext = "pdf"
	}
	return utils.SafeFilename(title, "presentation") + "_presentation." + ext
}

// RendererFor выбирает рендер по формату ("pdf" по умолчанию, "txt").
func RendererFor(format string) (Renderer, error) {
	switch format {
	case "", "pdf":
		return PDFRenderer{}, nil
	case "txt", "text":
		return TextRenderer{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown format '%s'", ErrExportFailed, format)
	}
}

// Export синхронно строит и пишет документ.
//
// Запрос копируется до начала работы: вызывающий может менять свои
// данные сразу после вызова.
func (e *Exporter) Export(ctx context.Context, req Request) (Result, error) {
	req = req.clone()
	return e.export(ctx, req)
}

// ExportAsync запускает экспорт в фоне и вызывает done по завершении.
//
// Снимок запроса делается синхронно, до возврата из ExportAsync.
func (e *Exporter) ExportAsync(ctx context.Context, req Request, done func(Result, error)) {
	req = req.clone()
	go func() {
		res, err := e.export(ctx, req)
		if e.emitter != nil {
			e.emitter.Emit(context.WithoutCancel(ctx), events.New(events.EventExport, events.ExportData{
				Path:  res.Path,
				Pages: res.Pages,
				Err:   err,
			}))
		}
		if done != nil {
			done(res, err)
		}
	}()
}

func (e *Exporter) export(ctx context.Context, req Request) (Result, error) {
	start := e.now()

	renderer, err := RendererFor(req.Format)
	if err != nil {
		return Result{}, err
	}

	// 1. Строим документ
	doc := BuildDocument(req, e.images, BuildOptions{
		MaxImageWidth:  e.cfg.MaxImageWidth,
		MaxImageHeight: e.cfg.MaxImageWidth * 3 / 4,
		JPEGQuality:    e.cfg.JPEGQuality,
		Now:            e.now,
	})
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	// 2. Рендерим в память
	var buf bytes.Buffer
	pages, err := renderer.Render(doc, &buf)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	// 3. Пишем файл атомарно (tmp + rename)
	name := Filename(req.Deck.Title, renderer.Extension())
	path, err := writeAtomic(e.cfg.OutputDir, name, buf.Bytes())
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	res := Result{Path: path, Pages: pages, Bytes: int64(buf.Len())}

	// 4. Загрузка в S3 (если включена)
	if e.cfg.Upload && e.uploader != nil {
		key, err := e.uploader.Upload(ctx, name, bytes.NewReader(buf.Bytes()), int64(buf.Len()), renderer.ContentType())
		if err != nil {
			// Локальный файл уже записан: сообщаем об ошибке, но путь возвращаем
			return res, fmt.Errorf("%w: upload: %v", ErrExportFailed, err)
		}
		res.UploadKey = key
	}

	utils.Info("Export finished",
		"path", res.Path,
		"pages", res.Pages,
		"bytes", res.Bytes,
		"upload", res.UploadKey,
		"duration", e.now().Sub(start))
	return res, nil
}

func writeAtomic(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename: %w", err)
	}
	return path, nil
}

var _ Uploader = (*s3storage.Client)(nil)
