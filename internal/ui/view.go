// Отрисовка кадра.

package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ilkoid/poncho-slides/pkg/deck"
	"github.com/ilkoid/poncho-slides/pkg/slideshow"
	"github.com/ilkoid/poncho-slides/pkg/theme"
)

// Тексты запасных кадров.
const (
	noContentText     = "No content"
	slideNotFoundText = "Slide not found"
	retryHint         = "press i to retry"
	loadingImageText  = "Loading image..."
)

// View реализует tea.Model.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	tokens := theme.For(m.activeTheme())
	st := newStyles(tokens)

	var b strings.Builder

	// 1. Header: название и позиция
	title := m.snap.Title
	if title == "" {
		title = "Presentation"
	}
	header := title
	if !m.snap.Empty() {
		header += "  ·  " + position(m.snap)
	}
	b.WriteString(st.header.Width(m.width).Render(header))
	b.WriteString("\n")

	// 2. Слайд или запасной кадр
	switch {
	case m.snap.Empty() || errors.Is(m.slideErr, slideshow.ErrEmptyDeck):
		b.WriteString(st.fallback.Render(noContentText))
		b.WriteString("\n")
	case m.slideErr != nil:
		b.WriteString(st.fallback.Render(slideNotFoundText))
		b.WriteString("\n")
	default:
		b.WriteString(m.renderSlide(st))
	}

	// 3. Прогресс autoplay
	if m.snap.ShowProgress && !m.snap.Empty() {
		b.WriteString("  " + m.progress.ViewAs(m.snap.Progress/100))
		b.WriteString("\n")
	}

	// 4. Точки навигации
	if m.snap.Total > 1 {
		b.WriteString(renderDots(m.snap, st))
		b.WriteString("\n")
	}

	// 5. Статус и подсказки; в fullscreen подсказки скрыты
	b.WriteString(m.status.Render())
	if !m.snap.Fullscreen || m.help.ShowAll {
		b.WriteString("\n")
		b.WriteString(m.help.View(m.keys))
	}

	return b.String()
}

func (m Model) renderSlide(st styles) string {
	var b strings.Builder

	label := strings.ToUpper(m.slide.Kind.Label())
	heading := st.heading
	if m.snap.Transitioning() {
		heading = heading.Faint(true)
	}
	b.WriteString(st.label.Render(label))
	b.WriteString("\n")
	b.WriteString(heading.Render(m.slide.Heading))
	b.WriteString("\n\n")

	b.WriteString(st.body.Render(m.body.View()))
	b.WriteString("\n")

	if img := m.renderImage(st); img != "" {
		b.WriteString(img)
		b.WriteString("\n")
	}
	return b.String()
}

// renderImage показывает состояние изображения текущего слайда.
func (m Model) renderImage(st styles) string {
	if !m.slide.HasImage() {
		return ""
	}
	img := m.slide.Image

	switch m.snap.Image(m.snap.Index) {
	case slideshow.ImagePending:
		return st.muted.Render(loadingImageText)
	case slideshow.ImageFailed:
		return st.errorMsg.Render("Image could not be loaded · " + retryHint)
	case slideshow.ImageLoaded:
		return st.muted.Render(imageCaption(img))
	default:
		return ""
	}
}

func imageCaption(img *deck.Image) string {
	caption := "[image"
	if img.Alt != "" {
		caption += ": " + img.Alt
	}
	caption += "]"
	if a := img.Attribution(); a != "" {
		caption += "  " + a
	}
	return caption
}

// renderDots рисует точки навигации; активная выделена.
func renderDots(s slideshow.Snapshot, st styles) string {
	dots := make([]string, s.Total)
	for i := range dots {
		if i == s.Index {
			dots[i] = st.dotOn.Render("●")
		} else {
			dots[i] = st.dotOff.Render("○")
		}
	}
	return lipgloss.NewStyle().Padding(0, 2).Render(strings.Join(dots, " "))
}

// position — "Slide 2 of 5".
func position(s slideshow.Snapshot) string {
	return fmt.Sprintf("Slide %d of %d", s.Index+1, s.Total)
}
