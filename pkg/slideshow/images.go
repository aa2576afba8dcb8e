package slideshow

import (
	"context"
	"fmt"

	"github.com/ilkoid/poncho-slides/pkg/utils"
)

// preloadJob — одна попытка загрузки изображения слайда.
type preloadJob struct {
	generation uint64
	slide      int
	attempt    int
	url        string
}

// startPreloadLocked помечает слайд pending и готовит задание.
// Сама загрузка запускается после Unlock через runPreloads.
func (c *Controller) startPreloadLocked(i int) preloadJob {
	c.attempts[i]++
	c.images[i] = ImagePending
	c.imageErrs[i] = nil
	return preloadJob{
		generation: c.generation,
		slide:      i,
		attempt:    c.attempts[i],
		url:        c.deck.Slides[i].Image.URL,
	}
}

// runPreloads запускает загрузки в фоне: контроллер на них не блокируется.
func (c *Controller) runPreloads(jobs []preloadJob) {
	for _, job := range jobs {
		go c.preload(job)
	}
}

func (c *Controller) preload(job preloadJob) {
	var err error
	if c.preloader != nil {
		ctx, cancel := context.WithTimeout(c.ctx, c.cfg.PreloadTimeout)
		err = c.preloader.Preload(ctx, job.url)
		cancel()
	}
	c.applyPreload(job, err)
}

// applyPreload применяет результат, только если он относится к текущей
// презентации и к последней попытке для этого слайда.
func (c *Controller) applyPreload(job preloadJob, err error) {
	c.mu.Lock()
	if c.closed || job.generation != c.generation ||
		job.slide >= len(c.attempts) || c.attempts[job.slide] != job.attempt {
		c.mu.Unlock()
		utils.Debug("Stale image result dropped", "slide", job.slide, "generation", job.generation)
		return
	}

	if err != nil {
		c.images[job.slide] = ImageFailed
		c.imageErrs[job.slide] = fmt.Errorf("slide %d image: %w", job.slide+1, err)
		utils.Warn("Image preload failed", "slide", job.slide, "url", job.url, "error", err)
	} else {
		c.images[job.slide] = ImageLoaded
		c.imageErrs[job.slide] = nil
	}
	c.pushImageLocked(job.slide)
	out := c.drainLocked()
	c.mu.Unlock()

	c.emit(out)
}

// RetryImage повторяет загрузку изображения слайда i.
//
// Допустимо только для слайда в статусе failed. Остальные слайды не затрагиваются.
// Автоматических повторов нет — только ручной.
func (c *Controller) RetryImage(i int) bool {
	c.mu.Lock()
	if c.closed || i < 0 || i >= len(c.images) || c.images[i] != ImageFailed {
		c.mu.Unlock()
		return false
	}
	job := c.startPreloadLocked(i)
	c.pushImageLocked(i)
	out := c.drainLocked()
	c.mu.Unlock()

	utils.Info("Retrying image", "slide", i, "url", job.url)
	c.emit(out)
	c.runPreloads([]preloadJob{job})
	return true
}

// ImageError возвращает ошибку последней загрузки слайда i (nil если нет).
func (c *Controller) ImageError(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.imageErrs) {
		return nil
	}
	return c.imageErrs[i]
}

// LoadedImages возвращает маску слайдов с успешно загруженным изображением.
//
// Используется экспортом: встраиваются только загруженные изображения.
func (c *Controller) LoadedImages() []bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]bool, len(c.images))
	for i, st := range c.images {
		out[i] = st == ImageLoaded
	}
	return out
}
