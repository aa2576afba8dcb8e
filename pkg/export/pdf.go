package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-pdf/fpdf"

	"github.com/ilkoid/poncho-slides/pkg/theme"
	"github.com/ilkoid/poncho-slides/pkg/utils"
)

// Renderer переводит Document в байты.
type Renderer interface {
	// Render пишет документ в w и возвращает количество страниц.
	Render(doc Document, w io.Writer) (int, error)
	Extension() string
	ContentType() string
}

// Геометрия страницы A4 landscape, мм.
const (
	pageW       = 297.0
	pageH       = 210.0
	margin      = 15.0
	footerY     = pageH - 12
	textColW    = 150.0 // ширина текста, если справа изображение
	imageColX   = margin + textColW + 10
	imageColW   = pageW - margin - imageColX
	imageColMax = 120.0 // максимальная высота изображения
	pxToMM      = 25.4 / 96
)

// PDFRenderer рисует документ через fpdf встроенными шрифтами.
//
// Встроенные шрифты поддерживают cp1252: символы вне кодировки
// заменяются транслятором fpdf.
type PDFRenderer struct {
	// NoCompression отключает сжатие потоков (удобно для диагностики и тестов).
	NoCompression bool
}

// Extension реализует Renderer.
func (PDFRenderer) Extension() string { return "pdf" }

// ContentType реализует Renderer.
func (PDFRenderer) ContentType() string { return "application/pdf" }

// Render реализует Renderer.
func (pr PDFRenderer) Render(doc Document, w io.Writer) (int, error) {
	tokens := theme.For(doc.Theme)

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetCompression(!pr.NoCompression)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("poncho-slides", false)
	pdf.SetCreationDate(doc.Created)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	r := &pdfPage{pdf: pdf, tr: tr, tokens: tokens, title: doc.Title}

	// Фон и колонтитул рисуются на каждой странице, включая
	// страницы, созданные автопереносом длинного текста.
	pdf.SetHeaderFuncMode(r.background, false)
	pdf.SetFooterFunc(r.footer)

	// 1. Титульная страница
	r.titlePage(doc)

	// 2. По странице на слайд
	for _, p := range doc.Pages {
		r.slidePage(p)
		if pdf.Err() {
			return 0, fmt.Errorf("render slide %d: %w", p.Number, pdf.Error())
		}
	}

	pages := pdf.PageCount()
	if err := pdf.Output(w); err != nil {
		return 0, fmt.Errorf("write pdf: %w", err)
	}
	return pages, nil
}

// pdfPage хранит состояние рендера между страницами.
type pdfPage struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	tokens theme.Tokens
	title  string
	pos    string // "Slide N of M" для колонтитула текущей страницы
}

func (r *pdfPage) setText(c lipgloss.Color) {
	red, g, b := theme.MustRGB(c)
	r.pdf.SetTextColor(red, g, b)
}

func (r *pdfPage) background() {
	red, g, b := theme.MustRGB(r.tokens.Background)
	r.pdf.SetFillColor(red, g, b)
	r.pdf.Rect(0, 0, pageW, pageH, "F")

	ar, ag, ab := theme.MustRGB(r.tokens.Gradient[0])
	r.pdf.SetFillColor(ar, ag, ab)
	r.pdf.Rect(0, 0, pageW, 3, "F")
}

func (r *pdfPage) footer() {
	r.pdf.SetY(footerY)
	r.pdf.SetFont("Helvetica", "", 9)
	r.setText(r.tokens.Muted)
	r.pdf.CellFormat(pageW/2-margin, 6, r.tr(r.title), "", 0, "L", false, 0, "")
	r.pdf.CellFormat(pageW/2-margin, 6, r.tr(r.pos), "", 0, "R", false, 0, "")
}

func (r *pdfPage) titlePage(doc Document) {
	r.pdf.AddPage()
	r.pos = ""

	r.pdf.SetY(70)
	r.pdf.SetFont("Helvetica", "B", 34)
	r.setText(r.tokens.Heading)
	r.pdf.MultiCell(0, 14, r.tr(doc.Title), "", "C", false)

	r.pdf.Ln(6)
	r.pdf.SetFont("Helvetica", "", 13)
	r.setText(r.tokens.Muted)
	sub := fmt.Sprintf("%d slides  |  %s", len(doc.Pages), doc.Created.Format("2006-01-02"))
	r.pdf.CellFormat(0, 8, r.tr(sub), "", 1, "C", false, 0, "")
}

func (r *pdfPage) slidePage(p Page) {
	// Колонтитул предыдущей страницы рисуется внутри AddPage,
	// поэтому позиция обновляется после.
	r.pdf.AddPage()
	r.pos = p.Position()

	hasImageCol := p.Image != nil || p.ImageMissing
	textW := pageW - 2*margin
	if hasImageCol {
		textW = textColW
	}

	// Метка: "SLIDE 2 OF 5 - CONTENT"
	r.pdf.SetFont("Helvetica", "B", 10)
	r.setText(r.tokens.Accent)
	label := strings.ToUpper(p.Position() + "  -  " + p.Kind)
	r.pdf.CellFormat(textW, 6, r.tr(label), "", 1, "L", false, 0, "")
	r.pdf.Ln(2)

	// Заголовок
	r.pdf.SetFont("Helvetica", "B", 24)
	r.setText(r.tokens.Heading)
	r.pdf.MultiCell(textW, 11, r.tr(p.Heading), "", "L", false)
	r.pdf.Ln(4)
	contentTop := r.pdf.GetY()

	// Изображение (или маркер) справа, до текста: длинный текст может
	// перенестись на следующую страницу, изображение остаётся на первой.
	if hasImageCol {
		r.imageBlock(p, contentTop)
		r.pdf.SetXY(margin, contentTop)
	}

	// Текст: абзацы отдельными блоками
	r.pdf.SetFont("Helvetica", "", 13)
	r.setText(r.tokens.Foreground)
	for _, para := range p.Paragraphs {
		r.pdf.MultiCell(textW, 6.5, r.tr(para), "", "L", false)
		r.pdf.Ln(3)
	}
}

// imageBlock встраивает изображение или рисует маркер.
// Ошибка встраивания сбрасывается и деградирует до маркера.
func (r *pdfPage) imageBlock(p Page, top float64) {
	if p.Image != nil {
		err := r.drawImage(p, top)
		if err == nil {
			return
		}
		utils.Warn("PDF: image embed failed", "slide", p.Number, "error", err)
	}
	r.drawMarker(top)
}

func (r *pdfPage) drawImage(p Page, top float64) error {
	name := fmt.Sprintf("slide-%d", p.Number)
	opts := fpdf.ImageOptions{ImageType: "JPG"}

	r.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(p.Image.Data))
	if r.pdf.Err() {
		err := r.pdf.Error()
		r.pdf.ClearError()
		return err
	}

	w, h := FitMM(p.Image.Width, p.Image.Height, imageColW, imageColMax)
	x := imageColX + (imageColW-w)/2
	r.pdf.ImageOptions(name, x, top, w, h, false, opts, 0, "")
	if r.pdf.Err() {
		err := r.pdf.Error()
		r.pdf.ClearError()
		return err
	}

	if p.Image.Attribution != "" {
		r.pdf.SetXY(imageColX, top+h+2)
		r.pdf.SetFont("Helvetica", "I", 9)
		r.setText(r.tokens.Muted)
		r.pdf.CellFormat(imageColW, 5, r.tr(p.Image.Attribution), "", 0, "C", false, 0, "")
	}
	return nil
}

func (r *pdfPage) drawMarker(top float64) {
	red, g, b := theme.MustRGB(r.tokens.Border)
	r.pdf.SetDrawColor(red, g, b)
	r.pdf.Rect(imageColX, top, imageColW, 40, "D")

	r.pdf.SetXY(imageColX, top+17)
	r.pdf.SetFont("Helvetica", "I", 11)
	r.setText(r.tokens.Error)
	r.pdf.CellFormat(imageColW, 6, ImageMissingMarker, "", 0, "C", false, 0, "")
}

// FitMM вписывает изображение wpx×hpx в рамку maxW×maxH мм.
//
// Пиксели переводятся в мм при 96 dpi; изображение уменьшается до рамки,
// но не растягивается больше чем вдвое от естественного размера.
func FitMM(wpx, hpx int, maxW, maxH float64) (float64, float64) {
	if wpx <= 0 || hpx <= 0 {
		return 0, 0
	}
	w := float64(wpx) * pxToMM
	h := float64(hpx) * pxToMM

	scale := maxW / w
	if s := maxH / h; s < scale {
		scale = s
	}
	if scale > 2 {
		scale = 2
	}
	return w * scale, h * scale
}

var _ Renderer = PDFRenderer{}
