// Package deck описывает модель презентации: Deck (набор слайдов + метаданные) и Slide.
//
// Deck приходит извне целиком (от оркестратора, из файла, через remote API)
// и проверяется на границе системы через Parse/Validate. Внутри приложения
// Deck считается неизменяемым: при новом контенте он заменяется целиком.
package deck

import (
	"strings"
)

// Kind — тип слайда. Влияет только на раскладку, не на поведение.
type Kind string

const (
	KindIntro   Kind = "intro"
	KindContent Kind = "content"
	KindOutro   Kind = "outro"
)

// Valid проверяет что тип слайда из допустимого набора.
func (k Kind) Valid() bool {
	switch k {
	case KindIntro, KindContent, KindOutro:
		return true
	}
	return false
}

// Label возвращает человекочитаемую метку типа (для рендера и экспорта).
func (k Kind) Label() string {
	switch k {
	case KindIntro:
		return "Introduction"
	case KindOutro:
		return "Conclusion"
	default:
		return "Content"
	}
}

// Theme — визуальная тема презентации.
type Theme string

const (
	ThemeLight    Theme = "light"
	ThemeDark     Theme = "dark"
	ThemeBlue     Theme = "blue"
	ThemePurple   Theme = "purple"
	ThemeGradient Theme = "gradient"
)

// Themes возвращает все поддерживаемые темы в стабильном порядке.
func Themes() []Theme {
	return []Theme{ThemeLight, ThemeDark, ThemeBlue, ThemePurple, ThemeGradient}
}

// Valid проверяет что тема из допустимого набора.
func (t Theme) Valid() bool {
	for _, known := range Themes() {
		if t == known {
			return true
		}
	}
	return false
}

// Image — ссылка на изображение слайда с атрибуцией.
//
// Query — поисковый запрос, которым изображение было найдено (или будет найдено
// через pkg/imagesearch, если URL ещё пустой).
type Image struct {
	URL             string `json:"url,omitempty" yaml:"url,omitempty" jsonschema:"description=Resolved image URL."`
	Alt             string `json:"alt,omitempty" yaml:"alt,omitempty" jsonschema:"description=Alternative text."`
	Photographer    string `json:"photographer,omitempty" yaml:"photographer,omitempty" jsonschema:"description=Attribution name."`
	PhotographerURL string `json:"photographerUrl,omitempty" yaml:"photographer_url,omitempty" jsonschema:"description=Attribution link."`
	Query           string `json:"query,omitempty" yaml:"query,omitempty" jsonschema:"description=Search query that produced (or will produce) the image."`
}

// Resolved сообщает что у изображения есть URL и его можно загружать.
func (i *Image) Resolved() bool {
	return i != nil && strings.TrimSpace(i.URL) != ""
}

// Attribution возвращает строку атрибуции ("Photo by X") или пустую строку.
func (i *Image) Attribution() string {
	if i == nil || i.Photographer == "" {
		return ""
	}
	return "Photo by " + i.Photographer
}

// Slide — одна единица контента презентации.
//
// Идентичность слайда — его позиция в Deck.Slides.
type Slide struct {
	Kind    Kind   `json:"type" yaml:"type" jsonschema:"required,enum=intro,enum=content,enum=outro,description=Slide layout kind."`
	Heading string `json:"title" yaml:"title" jsonschema:"required,description=Short slide heading."`
	Body    string `json:"content" yaml:"content" jsonschema:"required,description=Slide text; paragraphs are separated by a blank line."`
	Image   *Image `json:"image,omitempty" yaml:"image,omitempty" jsonschema:"description=Optional image reference."`
}

// Paragraphs разбивает Body на абзацы.
//
// Разделитель — пустая строка. Одиночные переводы строк внутри абзаца
// сохраняются. Пустые абзацы отбрасываются.
func (s Slide) Paragraphs() []string {
	body := strings.ReplaceAll(s.Body, "\r\n", "\n")
	raw := strings.Split(body, "\n\n")

	paragraphs := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// HasImage сообщает что у слайда есть загружаемое изображение.
func (s Slide) HasImage() bool {
	return s.Image.Resolved()
}

// Deck — упорядоченный набор слайдов плюс метаданные презентации.
type Deck struct {
	Title        string  `json:"title" yaml:"title" jsonschema:"required,description=Presentation title."`
	Theme        Theme   `json:"theme,omitempty" yaml:"theme,omitempty" jsonschema:"enum=light,enum=dark,enum=blue,enum=purple,enum=gradient,description=Visual theme."`
	Slides       []Slide `json:"slides" yaml:"slides" jsonschema:"required,description=Ordered slides."`
	Autoplay     bool    `json:"autoplay,omitempty" yaml:"autoplay,omitempty" jsonschema:"description=Start playing automatically."`
	ShowProgress bool    `json:"showProgress,omitempty" yaml:"show_progress,omitempty" jsonschema:"description=Show the autoplay progress bar."`
}

// Len возвращает количество слайдов.
func (d *Deck) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Slides)
}

// Empty сообщает что в презентации нет слайдов.
func (d *Deck) Empty() bool {
	return d.Len() == 0
}

// Slide возвращает слайд по индексу. ok=false если индекс вне диапазона.
func (d *Deck) Slide(i int) (Slide, bool) {
	if d == nil || i < 0 || i >= len(d.Slides) {
		return Slide{}, false
	}
	return d.Slides[i], true
}

// Clone возвращает глубокую копию Deck.
//
// Используется экспортом: асинхронный процесс работает со снимком
// и не видит (и не делает) изменений исходного Deck.
func (d Deck) Clone() Deck {
	out := d
	if d.Slides != nil {
		out.Slides = make([]Slide, len(d.Slides))
		for i, s := range d.Slides {
			if s.Image != nil {
				img := *s.Image
				s.Image = &img
			}
			out.Slides[i] = s
		}
	}
	return out
}
