package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ilkoid/poncho-slides/pkg/deck"
)

// AppConfig — корневая структура конфигурации.
// Она зеркалит структуру config.yaml.
type AppConfig struct {
	Viewer      ViewerConfig          `yaml:"viewer"`
	ImageSearch ImageSearchConfig     `yaml:"image_search"`
	Images      ImagesConfig          `yaml:"images"`
	Export      ExportConfig          `yaml:"export"`
	S3          S3Config              `yaml:"s3"`
	Models      ModelsConfig          `yaml:"models"`
	Tools       map[string]ToolConfig `yaml:"tools"`
	Remote      RemoteConfig          `yaml:"remote"`
	App         AppSpecific           `yaml:"app"`
}

// ViewerConfig — тайминги и вид просмотрщика.
type ViewerConfig struct {
	AutoplayInterval time.Duration `yaml:"autoplay_interval"` // Сколько показывается слайд при autoplay
	Transition       time.Duration `yaml:"transition"`        // Окно перехода (transition lock)
	ProgressStep     time.Duration `yaml:"progress_step"`     // Шаг индикатора прогресса
	Theme            string        `yaml:"theme"`             // Переопределяет тему презентации (пусто — из Deck)
	AltScreen        bool          `yaml:"alt_screen"`        // Стартовать в полноэкранном режиме
}

// GetDefaults возвращает дефолтные значения для незаполненных полей.
func (c *ViewerConfig) GetDefaults() ViewerConfig {
	result := *c

	if result.AutoplayInterval <= 0 {
		result.AutoplayInterval = 5 * time.Second
	}
	if result.Transition <= 0 {
		result.Transition = 400 * time.Millisecond
	}
	if result.ProgressStep <= 0 {
		result.ProgressStep = 50 * time.Millisecond
	}

	return result
}

// ImageSearchConfig — настройки поиска изображений (Unsplash API).
type ImageSearchConfig struct {
	Provider      string        `yaml:"provider"`       // Пока только "unsplash"
	AccessKey     string        `yaml:"access_key"`     // Поддерживает ${VAR}
	BaseURL       string        `yaml:"base_url"`       // Базовый URL API
	RateLimit     int           `yaml:"rate_limit"`     // Запросов в минуту
	BurstLimit    int           `yaml:"burst_limit"`    // Burst для rate limiter
	RetryAttempts int           `yaml:"retry_attempts"` // Количество retry попыток
	Timeout       time.Duration `yaml:"timeout"`        // Timeout HTTP запроса
	CachePath     string        `yaml:"cache_path"`     // SQLite файл кэша (пусто — без кэша)
	CacheTTL      time.Duration `yaml:"cache_ttl"`      // Время жизни записи кэша
}

// GetDefaults возвращает дефолтные значения для незаполненных полей.
func (c *ImageSearchConfig) GetDefaults() ImageSearchConfig {
	result := *c

	if result.Provider == "" {
		result.Provider = "unsplash"
	}
	if result.BaseURL == "" {
		result.BaseURL = "https://api.unsplash.com"
	}
	if result.RateLimit == 0 {
		result.RateLimit = 50 // demo лимит Unsplash: 50 запросов в час, держим запас по минутам
	}
	if result.BurstLimit == 0 {
		result.BurstLimit = 5
	}
	if result.RetryAttempts == 0 {
		result.RetryAttempts = 3
	}
	if result.Timeout == 0 {
		result.Timeout = 15 * time.Second
	}
	if result.CacheTTL == 0 {
		result.CacheTTL = 7 * 24 * time.Hour
	}

	return result
}

// Enabled сообщает что поиск изображений настроен.
func (c *ImageSearchConfig) Enabled() bool {
	return c.AccessKey != ""
}

// ImagesConfig — загрузка изображений слайдов (preload).
type ImagesConfig struct {
	Timeout    time.Duration `yaml:"timeout"`     // Одна попытка загрузки
	MaxBytes   int64         `yaml:"max_bytes"`   // Ограничение размера ответа
	RateLimit  int           `yaml:"rate_limit"`  // Запросов в минуту к CDN
	BurstLimit int           `yaml:"burst_limit"` // Burst
	UserAgent  string        `yaml:"user_agent"`
}

// GetDefaults возвращает дефолтные значения для незаполненных полей.
func (c *ImagesConfig) GetDefaults() ImagesConfig {
	result := *c

	if result.Timeout == 0 {
		result.Timeout = 15 * time.Second
	}
	if result.MaxBytes == 0 {
		result.MaxBytes = 10 << 20
	}
	if result.RateLimit == 0 {
		result.RateLimit = 120
	}
	if result.BurstLimit == 0 {
		result.BurstLimit = 8
	}
	if result.UserAgent == "" {
		result.UserAgent = "poncho-slides/1.0"
	}

	return result
}

// ExportConfig — экспорт в PDF.
type ExportConfig struct {
	OutputDir     string `yaml:"output_dir"`
	MaxImageWidth int    `yaml:"max_image_width"` // Ширина встраиваемого изображения в пикселях
	JPEGQuality   int    `yaml:"jpeg_quality"`
	Upload        bool   `yaml:"upload"` // Загружать PDF в S3 после экспорта
}

// GetDefaults возвращает дефолтные значения для незаполненных полей.
func (c *ExportConfig) GetDefaults() ExportConfig {
	result := *c

	if result.OutputDir == "" {
		result.OutputDir = "."
	}
	if result.MaxImageWidth == 0 {
		result.MaxImageWidth = 1600
	}
	if result.JPEGQuality == 0 {
		result.JPEGQuality = 85
	}

	return result
}

// S3Config — настройки объектного хранилища.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"` // Поддерживает ${VAR}
	SecretKey string `yaml:"secret_key"` // Поддерживает ${VAR}
	UseSSL    bool   `yaml:"use_ssl"`
	Prefix    string `yaml:"prefix"` // Префикс ключей экспорта, по умолчанию "exports/"
}

// GetDefaults возвращает дефолтные значения для незаполненных полей.
func (c *S3Config) GetDefaults() S3Config {
	result := *c
	if result.Prefix == "" {
		result.Prefix = "exports/"
	}
	return result
}

// ModelsConfig — настройки AI моделей.
type ModelsConfig struct {
	DefaultChat string              `yaml:"default_chat"` // Алиас модели генерации презентаций
	Definitions map[string]ModelDef `yaml:"definitions"`  // Словарь определений моделей
	PromptFile  string              `yaml:"prompt_file"`  // YAML промпт генерации (пусто — встроенный)
}

// ModelDef — параметры конкретной модели.
type ModelDef struct {
	Provider    string        `yaml:"provider"`   // "openai", "zai" и другие OpenAI-совместимые
	ModelName   string        `yaml:"model_name"` // Реальное имя в API
	APIKey      string        `yaml:"api_key"`    // Поддерживает ${VAR}
	BaseURL     string        `yaml:"base_url"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"` // Go умеет парсить строки вида "60s", "1m"
}

// ToolConfig — настройки инструментов.
type ToolConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Description string        `yaml:"description"` // Переопределяет описание для LLM
	Timeout     time.Duration `yaml:"timeout"`
}

// RemoteConfig — HTTP/WebSocket пульт управления.
type RemoteConfig struct {
	Addr           string   `yaml:"addr"` // Пусто — пульт выключен
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// AppSpecific — общие настройки приложения.
type AppSpecific struct {
	Debug    bool   `yaml:"debug"`
	LogDir   string `yaml:"log_dir"`
	TraceDir string `yaml:"trace_dir"` // JSON трейсы генерации (пусто — выключены)
}

// Load читает YAML файл, подставляет ENV переменные и возвращает готовую структуру.
//
// Перед подстановкой подгружается .env рядом с конфигом (если есть):
// уже установленные переменные окружения не перезаписываются.
func Load(path string) (*AppConfig, error) {
	// 1. Проверяем существование файла
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found at: %s", path)
	}

	// 2. Подгружаем .env (отсутствие файла — не ошибка)
	envPath := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envPath, err)
	}

	// 3. Читаем файл целиком
	rawBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// 4. Подставляем переменные окружения.
	// os.ExpandEnv заменяет ${VAR} или $VAR на значение из системы.
	contentWithEnv := os.ExpandEnv(string(rawBytes))

	// 5. Парсим YAML в структуру
	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(contentWithEnv), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	// 6. Валидируем критические настройки
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validate проверяет обязательные поля.
func (c *AppConfig) validate() error {
	if c.Viewer.AutoplayInterval < 0 || c.Viewer.Transition < 0 || c.Viewer.ProgressStep < 0 {
		return fmt.Errorf("viewer durations must not be negative")
	}
	if c.Viewer.ProgressStep > 0 && c.Viewer.AutoplayInterval > 0 &&
		c.Viewer.ProgressStep > c.Viewer.AutoplayInterval {
		return fmt.Errorf("viewer.progress_step (%s) exceeds viewer.autoplay_interval (%s)",
			c.Viewer.ProgressStep, c.Viewer.AutoplayInterval)
	}

	if t := deck.Theme(c.Viewer.Theme); t != "" && !t.Valid() {
		return fmt.Errorf("viewer.theme '%s' is not a known theme", t)
	}

	if p := c.ImageSearch.Provider; p != "" && p != "unsplash" {
		return fmt.Errorf("image_search.provider '%s' is not supported", p)
	}

	// S3 нужен только для загрузки экспортов
	if c.Export.Upload {
		if c.S3.Bucket == "" {
			return fmt.Errorf("s3.bucket is required when export.upload is enabled")
		}
		if c.S3.Endpoint == "" {
			return fmt.Errorf("s3.endpoint is required when export.upload is enabled")
		}
	}

	if c.Models.DefaultChat != "" {
		if _, ok := c.Models.Definitions[c.Models.DefaultChat]; !ok {
			return fmt.Errorf("default_chat model '%s' is not defined in definitions", c.Models.DefaultChat)
		}
	}
	return nil
}

// Helper методы для удобства доступа (Syntactic sugar)

// GetChatModel возвращает конфигурацию модели по имени или модели по умолчанию.
func (c *AppConfig) GetChatModel(name string) (ModelDef, bool) {
	if name == "" {
		name = c.Models.DefaultChat
	}
	m, ok := c.Models.Definitions[name]
	return m, ok
}

// ModelNames возвращает имена определений моделей по алфавиту.
func (c *AppConfig) ModelNames() []string {
	names := make([]string, 0, len(c.Models.Definitions))
	for name := range c.Models.Definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToolEnabled сообщает включён ли инструмент.
//
// Инструмент без записи в секции tools считается включённым.
func (c *AppConfig) ToolEnabled(name string) bool {
	tc, ok := c.Tools[name]
	if !ok {
		return true
	}
	return tc.Enabled
}

// Default возвращает конфигурацию для запуска без config.yaml.
//
// Ключ Unsplash берётся из окружения, если он задан.
func Default() *AppConfig {
	return &AppConfig{
		ImageSearch: ImageSearchConfig{AccessKey: os.Getenv("UNSPLASH_ACCESS_KEY")},
		Tools:       map[string]ToolConfig{},
	}
}
