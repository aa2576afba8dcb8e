// Package export сериализует презентацию в постраничный документ.
//
// Экспорт разделён на два шага:
//
//  1. BuildDocument — чистое построение Document из снимка Deck:
//     титульный блок и по странице на слайд. Изображение встраивается
//     только если оно загрузилось; иначе на странице текстовый маркер.
//  2. Renderer — перевод Document в байты (PDF через fpdf или текст).
//
// Ошибка с изображением одного слайда никогда не прерывает экспорт
// остальных страниц.
package export

import (
	"fmt"
	"time"

	"github.com/ilkoid/poncho-slides/pkg/deck"
	"github.com/ilkoid/poncho-slides/pkg/utils"
)

// ImageMissingMarker заменяет изображение, которое не удалось встроить.
const ImageMissingMarker = "[Image could not be loaded]"

// ImageSource отдаёт байты уже загруженного изображения.
//
// Реализация: media.Fetcher (кэш просмотрщика).
type ImageSource interface {
	ImageData(url string) ([]byte, bool)
}

// Request — снимок для экспорта.
type Request struct {
	Deck deck.Deck

	// ImageLoaded[i] — изображение слайда i загрузилось в просмотрщике.
	// nil — статусы неизвестны (экспорт из CLI), пробуем все изображения.
	ImageLoaded []bool

	// Format: "pdf" (по умолчанию) или "txt".
	Format string
}

// clone возвращает копию запроса, не разделяющую память с вызывающим.
func (r Request) clone() Request {
	out := r
	out.Deck = r.Deck.Clone()
	if r.ImageLoaded != nil {
		out.ImageLoaded = append([]bool(nil), r.ImageLoaded...)
	}
	return out
}

// Document — презентация, готовая к рендеру.
type Document struct {
	Title   string
	Theme   deck.Theme
	Created time.Time
	Pages   []Page
}

// Page — одна страница документа (один слайд).
type Page struct {
	Number     int
	Total      int
	Kind       string // Метка типа: "Introduction", "Content", "Conclusion"
	Heading    string
	Paragraphs []string

	Image *PageImage

	// ImageMissing — у слайда было изображение, но встроить его нельзя.
	ImageMissing bool
}

// Position возвращает строку вида "Slide 2 of 5".
func (p Page) Position() string {
	return fmt.Sprintf("Slide %d of %d", p.Number, p.Total)
}

// PageImage — JPEG, вписанный в рамку, плюс подпись.
type PageImage struct {
	Data        []byte
	Width       int // пиксели
	Height      int
	Alt         string
	Attribution string // "Photo by X", пусто если автор неизвестен
}

// BuildOptions — параметры встраивания изображений.
type BuildOptions struct {
	MaxImageWidth  int // пиксели
	MaxImageHeight int
	JPEGQuality    int
	Now            func() time.Time
}

// BuildDocument строит документ из запроса. Вход не изменяется.
func BuildDocument(req Request, images ImageSource, opts BuildOptions) Document {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	d := req.Deck
	doc := Document{
		Title:   d.Title,
		Theme:   d.Theme,
		Created: opts.Now(),
		Pages:   make([]Page, 0, len(d.Slides)),
	}
	if doc.Title == "" {
		doc.Title = "Presentation"
	}

	for i, s := range d.Slides {
		page := Page{
			Number:     i + 1,
			Total:      len(d.Slides),
			Kind:       s.Kind.Label(),
			Heading:    s.Heading,
			Paragraphs: s.Paragraphs(),
		}

		if s.HasImage() {
			img, err := embedImage(req, i, s.Image, images, opts)
			if err != nil {
				utils.Warn("Export: image skipped", "slide", i, "url", s.Image.URL, "error", err)
				page.ImageMissing = true
			} else {
				page.Image = img
			}
		}

		doc.Pages = append(doc.Pages, page)
	}

	return doc
}

// embedImage готовит изображение слайда i или объясняет почему нельзя.
func embedImage(req Request, i int, ref *deck.Image, images ImageSource, opts BuildOptions) (*PageImage, error) {
	if req.ImageLoaded != nil && (i >= len(req.ImageLoaded) || !req.ImageLoaded[i]) {
		return nil, fmt.Errorf("image was not loaded in the viewer")
	}
	if images == nil {
		return nil, fmt.Errorf("no image source")
	}

	data, ok := images.ImageData(ref.URL)
	if !ok {
		return nil, fmt.Errorf("image bytes not available")
	}

	fitted, err := utils.FitImage(data, opts.MaxImageWidth, opts.MaxImageHeight, opts.JPEGQuality)
	if err != nil {
		return nil, err
	}

	return &PageImage{
		Data:        fitted.Data,
		Width:       fitted.Width,
		Height:      fitted.Height,
		Alt:         ref.Alt,
		Attribution: ref.Attribution(),
	}, nil
}
