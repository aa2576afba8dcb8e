// Package app собирает компоненты приложения из конфигурации.
//
// Один и тот же набор Components используется всеми подкомандами CLI
// (просмотр, генерация, экспорт) и удалённым пультом.
package app

import (
	"errors"
	"fmt"

	"github.com/ilkoid/poncho-slides/pkg/config"
	"github.com/ilkoid/poncho-slides/pkg/export"
	"github.com/ilkoid/poncho-slides/pkg/imagesearch"
	"github.com/ilkoid/poncho-slides/pkg/llm"
	"github.com/ilkoid/poncho-slides/pkg/llm/openai"
	"github.com/ilkoid/poncho-slides/pkg/media"
	"github.com/ilkoid/poncho-slides/pkg/orchestrator"
	"github.com/ilkoid/poncho-slides/pkg/prompt"
	"github.com/ilkoid/poncho-slides/pkg/s3storage"
	"github.com/ilkoid/poncho-slides/pkg/slideshow"
	"github.com/ilkoid/poncho-slides/pkg/tools"
	"github.com/ilkoid/poncho-slides/pkg/utils"
)

// ErrNoModel — генерация запрошена, но модель не настроена.
var ErrNoModel = errors.New("no chat model configured (models.default_chat)")

// Components содержит все компоненты приложения.
//
// Необязательные зависимости равны nil, если не настроены:
//   - Searcher — нет ключа Unsplash
//   - Uploader — export.upload выключен
//   - LLM, Orchestrator — нет models.default_chat
type Components struct {
	Config       *config.AppConfig
	Fetcher      *media.Fetcher
	Searcher     imagesearch.Searcher
	Uploader     *s3storage.Client
	Exporter     *export.Exporter
	Registry     *tools.Registry
	LLM          llm.Provider
	Orchestrator *orchestrator.Orchestrator

	cache *imagesearch.Cache
}

// Initialize создаёт компоненты из конфигурации.
func Initialize(cfg *config.AppConfig) (*Components, error) {
	c := &Components{Config: cfg}

	// 1. Загрузчик изображений (preload + байты для экспорта)
	c.Fetcher = media.NewFetcher(cfg.Images)

	// 2. Поиск изображений (опционально, с sqlite кэшем)
	if cfg.ImageSearch.Enabled() {
		client, err := imagesearch.NewFromConfig(cfg.ImageSearch)
		if err != nil {
			return nil, fmt.Errorf("failed to create image search client: %w", err)
		}
		c.Searcher = client

		searchCfg := cfg.ImageSearch.GetDefaults()
		if searchCfg.CachePath != "" {
			cache, err := imagesearch.OpenCache(searchCfg.CachePath, searchCfg.CacheTTL)
			if err != nil {
				// Кэш — оптимизация: работаем без него
				utils.Warn("Image search cache disabled", "path", searchCfg.CachePath, "error", err)
			} else {
				c.cache = cache
				c.Searcher = imagesearch.NewCachedSearcher(client, cache)
			}
		}
		utils.Info("Image search initialized", "provider", searchCfg.Provider, "cache", c.cache != nil)
	}

	// 3. S3 для загрузки экспортов
	var exportOpts []export.Option
	if cfg.Export.Upload {
		uploader, err := s3storage.New(cfg.S3)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		c.Uploader = uploader
		exportOpts = append(exportOpts, export.WithUploader(uploader))
		utils.Info("S3 client initialized", "bucket", cfg.S3.Bucket)
	}
	c.Exporter = export.New(cfg.Export, c.Fetcher, exportOpts...)

	// 4. Инструменты
	c.Registry = tools.NewRegistry()
	if err := SetupTools(c.Registry, cfg, c.Searcher); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	// 5. LLM и оркестратор (опционально)
	if modelDef, ok := cfg.GetChatModel(""); ok {
		provider, err := NewLLMProvider(modelDef)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.LLM = provider

		orchOpts := []orchestrator.Option{
			orchestrator.WithSearcher(c.Searcher),
			orchestrator.WithTraceDir(cfg.App.TraceDir),
		}
		if path := cfg.Models.PromptFile; path != "" {
			pf, err := prompt.Load(path)
			if err != nil {
				c.Close()
				return nil, fmt.Errorf("failed to load prompt: %w", err)
			}
			orchOpts = append(orchOpts, orchestrator.WithPrompt(pf))
			utils.Info("Generation prompt loaded", "path", path)
		}
		c.Orchestrator = orchestrator.New(provider, c.Registry, orchOpts...)
		utils.Info("LLM provider created", "provider", modelDef.Provider, "model", modelDef.ModelName)
	}

	return c, nil
}

// NewLLMProvider создаёт провайдера по определению модели.
//
// Все поддерживаемые провайдеры говорят на OpenAI-совместимом API.
func NewLLMProvider(modelDef config.ModelDef) (llm.Provider, error) {
	switch modelDef.Provider {
	case "", "openai", "openrouter", "zai", "deepseek", "ollama":
		return openai.NewClient(modelDef), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider '%s'", modelDef.Provider)
	}
}

// ViewerConfig переводит секцию viewer в настройки контроллера.
func (c *Components) ViewerConfig() slideshow.Config {
	v := c.Config.Viewer.GetDefaults()
	sc := slideshow.DefaultConfig()
	sc.AutoplayInterval = v.AutoplayInterval
	sc.TransitionDuration = v.Transition
	sc.ProgressStep = v.ProgressStep
	if t := c.Config.Images.GetDefaults().Timeout; t > 0 {
		sc.PreloadTimeout = t
	}
	return sc
}

// RequireOrchestrator возвращает оркестратор или ErrNoModel.
func (c *Components) RequireOrchestrator() (*orchestrator.Orchestrator, error) {
	if c.Orchestrator == nil {
		return nil, ErrNoModel
	}
	return c.Orchestrator, nil
}

// Close освобождает ресурсы (sqlite кэш).
func (c *Components) Close() {
	if c.cache != nil {
		if err := c.cache.Close(); err != nil {
			utils.Warn("Failed to close image search cache", "error", err)
		}
		c.cache = nil
	}
}
