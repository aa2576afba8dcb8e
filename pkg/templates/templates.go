// Package templates содержит статические шаблоны презентаций и цветовые палитры.
//
// Шаблон — это набор слайдов с плейсхолдером {topic}. Expand подставляет тему
// и возвращает готовый deck.Deck: изображения ещё не найдены, у слайдов
// заполнен только поисковый запрос (см. imagesearch.ResolveDeck).
package templates

import (
	"sort"
	"strings"

	"github.com/ilkoid/poncho-slides/pkg/deck"
)

// Placeholder заменяется темой презентации.
const Placeholder = "{topic}"

// DefaultTemplate используется для неизвестных имён шаблонов.
const DefaultTemplate = "business"

// SlideTemplate — слайд шаблона до подстановки темы.
type SlideTemplate struct {
	Kind       deck.Kind
	Heading    string
	Body       string
	ImageQuery string // Пусто — слайд без изображения
}

// Template — именованный шаблон презентации.
type Template struct {
	Name        string
	Description string
	Theme       deck.Theme
	Slides      []SlideTemplate
}

var registry = map[string]Template{
	"business": {
		Name:        "business",
		Description: "Business overview: problem, solution, market, roadmap.",
		Theme:       deck.ThemeBlue,
		Slides: []SlideTemplate{
			{deck.KindIntro, "{topic}", "A business perspective on {topic}.\n\nWhere we are, where we are going, and why it matters.", "{topic} business team"},
			{deck.KindContent, "The Challenge", "Organizations working with {topic} face rising costs and fragmented tooling.\n\nDecision makers lack a single view of progress.", "{topic} challenge"},
			{deck.KindContent, "Our Approach", "We treat {topic} as a product, not a project.\n\nSmall teams own outcomes end to end and ship in short cycles.", "{topic} strategy meeting"},
			{deck.KindContent, "Market Opportunity", "Demand for {topic} keeps growing across every segment we track.\n\nEarly movers capture most of the value.", "{topic} market growth"},
			{deck.KindContent, "Roadmap", "Quarter 1: foundations.\n\nQuarter 2: first customers.\n\nQuarter 3: scale and automation.", ""},
			{deck.KindOutro, "Next Steps", "Agree on scope for {topic}, name an owner, and schedule the first review.\n\nQuestions?", "{topic} handshake"},
		},
	},
	"education": {
		Name:        "education",
		Description: "Lesson plan: objectives, key concepts, example, recap.",
		Theme:       deck.ThemeLight,
		Slides: []SlideTemplate{
			{deck.KindIntro, "Introduction to {topic}", "Today we explore {topic}.\n\nBy the end of this lesson you will be able to explain the core ideas in your own words.", "{topic} classroom"},
			{deck.KindContent, "Learning Objectives", "Define {topic} and its key terms.\n\nDescribe how the parts fit together.\n\nApply the ideas to a simple example.", ""},
			{deck.KindContent, "Key Concepts", "Every topic rests on a few fundamentals.\n\nFor {topic}, start with the vocabulary, then the relationships between ideas.", "{topic} concept diagram"},
			{deck.KindContent, "Worked Example", "Let us walk through {topic} step by step.\n\nNotice where each concept appears in practice.", "{topic} example"},
			{deck.KindOutro, "Recap", "We covered the definition, concepts and an example of {topic}.\n\nTry the exercises before the next session.", "{topic} books"},
		},
	},
	"product_launch": {
		Name:        "product_launch",
		Description: "Product launch: announcement, features, pricing, availability.",
		Theme:       deck.ThemeGradient,
		Slides: []SlideTemplate{
			{deck.KindIntro, "Introducing {topic}", "Meet {topic}: built for people who want results without the overhead.", "{topic} product launch"},
			{deck.KindContent, "Why {topic}", "Existing options are slow, complex and expensive.\n\n{topic} removes the friction.", "{topic} innovation"},
			{deck.KindContent, "Key Features", "Fast setup in minutes.\n\nWorks with the tools you already use.\n\nSecure by default.", "{topic} features technology"},
			{deck.KindContent, "Pricing", "Free for individuals.\n\nTeam plans scale with usage, with no long-term commitment.", ""},
			{deck.KindOutro, "Available Today", "{topic} is available now.\n\nSign up and start in under five minutes.", "{topic} celebration"},
		},
	},
}

// Names возвращает имена шаблонов по алфавиту.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get возвращает шаблон по имени.
func Get(name string) (Template, bool) {
	t, ok := registry[normalizeName(name)]
	return t, ok
}

// Lookup возвращает шаблон по имени или шаблон по умолчанию.
// Второе значение false, если сработал fallback.
func Lookup(name string) (Template, bool) {
	if t, ok := Get(name); ok {
		return t, true
	}
	return registry[DefaultTemplate], false
}

// Expand подставляет тему в шаблон и возвращает Deck.
func (t Template) Expand(topic string) deck.Deck {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = "Untitled"
	}
	fill := func(s string) string { return strings.ReplaceAll(s, Placeholder, topic) }

	d := deck.Deck{
		Title:        topic,
		Theme:        t.Theme,
		Slides:       make([]deck.Slide, 0, len(t.Slides)),
		ShowProgress: true,
	}
	for _, st := range t.Slides {
		s := deck.Slide{
			Kind:    st.Kind,
			Heading: fill(st.Heading),
			Body:    fill(st.Body),
		}
		if st.ImageQuery != "" {
			s.Image = &deck.Image{Query: fill(st.ImageQuery), Alt: fill(st.Heading)}
		}
		d.Slides = append(d.Slides, s)
	}
	return d
}

// normalizeName допускает "Product Launch", "product-launch" и т.п.
func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(name)
}
