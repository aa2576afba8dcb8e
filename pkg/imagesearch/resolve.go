package imagesearch

import (
	"context"

	"github.com/ilkoid/poncho-slides/pkg/deck"
	"github.com/ilkoid/poncho-slides/pkg/utils"
)

// ResolveDeck заполняет изображения слайдов, у которых есть запрос, но нет URL.
//
// Best effort: ошибка поиска или пустая выдача оставляют слайд без
// изображения (поле Image = nil). Возвращает новую копию Deck и количество
// найденных изображений; исходный Deck не меняется.
func ResolveDeck(ctx context.Context, s Searcher, d deck.Deck) (deck.Deck, int) {
	out := d.Clone()
	if s == nil {
		return out, 0
	}

	resolved := 0
	for i := range out.Slides {
		img := out.Slides[i].Image
		if img == nil || img.URL != "" {
			continue
		}
		if ctx.Err() != nil {
			out.Slides[i].Image = nil
			continue
		}

		found, err := s.Search(ctx, img.Query)
		if err != nil {
			utils.Warn("Image search failed",
				"slide", i,
				"query", img.Query,
				"type", ClassifyError(err).String(),
				"error", err)
			out.Slides[i].Image = nil
			continue
		}
		if found == nil {
			out.Slides[i].Image = nil
			continue
		}

		// Alt из презентации приоритетнее описания фотографии
		if img.Alt != "" {
			found.Alt = img.Alt
		}
		found.Query = img.Query
		out.Slides[i].Image = found
		resolved++
	}

	return out, resolved
}
