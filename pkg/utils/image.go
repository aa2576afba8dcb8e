package utils

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/gif" // Регистрируем GIF декодер
	_ "image/png" // Регистрируем PNG декодер

	"github.com/nfnt/resize"
)

// FittedImage — изображение, перекодированное в JPEG и вписанное в рамку.
type FittedImage struct {
	Data   []byte
	Width  int
	Height int
}

// FitImage вписывает изображение в maxWidth×maxHeight с сохранением пропорций.
//
// Параметры:
//   - data: байты исходного изображения (JPEG, PNG, GIF)
//   - maxWidth, maxHeight: рамка в пикселях; 0 — без ограничения по оси
//   - quality: качество JPEG (1-100), 0 → 85
//
// Изображение никогда не увеличивается. Результат всегда JPEG:
// PDF экспорт встраивает один формат.
func FitImage(data []byte, maxWidth, maxHeight, quality int) (FittedImage, error) {
	if quality <= 0 || quality > 100 {
		quality = 85
	}

	// 1. Декодируем изображение
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return FittedImage{}, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return FittedImage{}, fmt.Errorf("decode image: empty bounds %dx%d", b.Dx(), b.Dy())
	}

	// 2. Вычисляем размер с сохранением aspect ratio
	w, h := FitBox(b.Dx(), b.Dy(), maxWidth, maxHeight)

	// 3. Ресайзим используя Lanczos3, если нужно
	if w != b.Dx() || h != b.Dy() {
		img = resize.Resize(uint(w), uint(h), img, resize.Lanczos3)
	}

	// 4. Кодируем в JPEG
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return FittedImage{}, fmt.Errorf("encode jpeg: %w", err)
	}

	return FittedImage{Data: buf.Bytes(), Width: w, Height: h}, nil
}

// FitBox вписывает w×h в рамку maxW×maxH без увеличения.
//
// 0 в maxW или maxH снимает ограничение по этой оси.
// Результат не меньше 1×1 для ненулевого входа.
func FitBox(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}

	scale := 1.0
	if maxW > 0 && w > maxW {
		scale = float64(maxW) / float64(w)
	}
	if maxH > 0 && float64(h)*scale > float64(maxH) {
		scale = float64(maxH) / float64(h)
	}

	nw := int(float64(w) * scale)
	nh := int(float64(h) * scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}
