package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

// TextRenderer пишет документ как текстовый раздаточный материал.
//
// Те же страницы, что и в PDF, с переносом по словам на Width колонок.
type TextRenderer struct {
	Width int // 0 → 72
}

// Extension реализует Renderer.
func (TextRenderer) Extension() string { return "txt" }

// ContentType реализует Renderer.
func (TextRenderer) ContentType() string { return "text/plain; charset=utf-8" }

// Render реализует Renderer.
func (t TextRenderer) Render(doc Document, w io.Writer) (int, error) {
	width := t.Width
	if width <= 0 {
		width = 72
	}

	bw := bufio.NewWriter(w)
	rule := strings.Repeat("=", width)

	// 1. Титульный блок
	fmt.Fprintln(bw, rule)
	fmt.Fprintln(bw, wordwrap.String(doc.Title, width))
	fmt.Fprintf(bw, "%d slides | %s\n", len(doc.Pages), doc.Created.Format("2006-01-02"))
	fmt.Fprintln(bw, rule)

	// 2. Страницы
	for _, p := range doc.Pages {
		fmt.Fprintln(bw)
		fmt.Fprintf(bw, "%s | %s\n", p.Position(), p.Kind)
		fmt.Fprintln(bw, wordwrap.String(strings.ToUpper(p.Heading), width))
		fmt.Fprintln(bw, strings.Repeat("-", width))

		for _, para := range p.Paragraphs {
			fmt.Fprintln(bw, wordwrap.String(para, width))
			fmt.Fprintln(bw)
		}

		switch {
		case p.Image != nil:
			caption := "[Image"
			if p.Image.Alt != "" {
				caption += ": " + p.Image.Alt
			}
			caption += "]"
			fmt.Fprintln(bw, indent.String(wordwrap.String(caption, width-2), 2))
			if p.Image.Attribution != "" {
				fmt.Fprintln(bw, indent.String(p.Image.Attribution, 2))
			}
		case p.ImageMissing:
			fmt.Fprintln(bw, indent.String(ImageMissingMarker, 2))
		}
	}

	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("write text: %w", err)
	}
	return len(doc.Pages) + 1, nil
}

var _ Renderer = TextRenderer{}
