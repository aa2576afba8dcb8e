package deck

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidDeck — базовая ошибка валидации. Все ошибки Validate оборачивают её.
var ErrInvalidDeck = errors.New("invalid deck")

// Лимиты на размеры полей (защита рендера от мусорных данных).
const (
	MaxSlides       = 100
	MaxHeadingRunes = 200
	MaxBodyRunes    = 8000
)

// Validate проверяет Deck на соответствие схеме.
//
// Проверяет:
//   - Title не пустой
//   - Theme пустая или из допустимого набора
//   - количество слайдов не больше MaxSlides
//   - у каждого слайда валидный Kind, непустые Heading и Body
//   - Image (если есть) содержит URL или Query
//
// Пустой список слайдов допустим: это корректное состояние "нет контента".
// Возвращает все найденные нарушения сразу (errors.Join), каждое оборачивает ErrInvalidDeck.
func (d *Deck) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: deck is nil", ErrInvalidDeck)
	}

	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidDeck}, args...)...))
	}

	if strings.TrimSpace(d.Title) == "" {
		add("title is required")
	}
	if d.Theme != "" && !d.Theme.Valid() {
		add("unknown theme '%s'", d.Theme)
	}
	if len(d.Slides) > MaxSlides {
		add("too many slides: %d (max %d)", len(d.Slides), MaxSlides)
	}

	for i, s := range d.Slides {
		if !s.Kind.Valid() {
			add("slides[%d].type must be one of intro|content|outro, got '%s'", i, s.Kind)
		}
		if strings.TrimSpace(s.Heading) == "" {
			add("slides[%d].title is required", i)
		} else if n := len([]rune(s.Heading)); n > MaxHeadingRunes {
			add("slides[%d].title is too long: %d runes (max %d)", i, n, MaxHeadingRunes)
		}
		if strings.TrimSpace(s.Body) == "" {
			add("slides[%d].content is required", i)
		} else if n := len([]rune(s.Body)); n > MaxBodyRunes {
			add("slides[%d].content is too long: %d runes (max %d)", i, n, MaxBodyRunes)
		}
		if s.Image != nil && strings.TrimSpace(s.Image.URL) == "" && strings.TrimSpace(s.Image.Query) == "" {
			add("slides[%d].image needs url or query", i)
		}
	}

	return errors.Join(errs...)
}

// Normalize заполняет необязательные поля дефолтами.
//
// Пустая тема становится light. Пробелы по краям заголовков срезаются.
func (d *Deck) Normalize() {
	if d.Theme == "" {
		d.Theme = ThemeLight
	}
	d.Title = strings.TrimSpace(d.Title)
	for i := range d.Slides {
		d.Slides[i].Heading = strings.TrimSpace(d.Slides[i].Heading)
	}
}

// Parse разбирает Deck из JSON и валидирует его.
//
// Неизвестные поля отклоняются: duck-typed данные от инструментов
// должны быть отсеяны здесь, до контроллера.
func Parse(data []byte) (*Deck, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var d Deck
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("%w: parse json: %v", ErrInvalidDeck, err)
	}
	return finish(&d)
}

// ParseYAML разбирает Deck из YAML и валидирует его.
func ParseYAML(data []byte) (*Deck, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var d Deck
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("%w: parse yaml: %v", ErrInvalidDeck, err)
	}
	return finish(&d)
}

// Load читает Deck из файла. Формат определяется по расширению (.yaml/.yml или JSON).
func Load(path string) (*Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read deck file: %w", err)
	}
	return Decode(path, data)
}

// Decode разбирает данные, выбирая формат по имени источника.
func Decode(name string, data []byte) (*Deck, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return Parse(data)
	}
}

// Marshal сериализует Deck в JSON с отступами.
func Marshal(d Deck) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

func finish(d *Deck) (*Deck, error) {
	d.Normalize()
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}
