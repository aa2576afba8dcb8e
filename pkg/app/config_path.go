package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilkoid/poncho-slides/pkg/config"
)

// ConfigPathFinder определяет стратегию поиска пути к config.yaml.
//
// По умолчанию используется DefaultConfigPathFinder, но можно
// реализовать свою стратегию для тестов.
type ConfigPathFinder interface {
	// FindConfigPath возвращает путь к конфигу или "" если файл не найден.
	FindConfigPath() string
}

// DefaultConfigPathFinder реализует стандартную стратегию поиска config.yaml.
//
// Порядок поиска:
//  1. Флаг -config (если указан, возвращается даже если файла нет)
//  2. Текущая директория (./config.yaml)
//  3. Директория бинарника
//  4. Родительская директория (для запуска из cmd/slides/)
type DefaultConfigPathFinder struct {
	ConfigFlag string
}

// FindConfigPath реализует ConfigPathFinder.
func (f *DefaultConfigPathFinder) FindConfigPath() string {
	// 1. Флаг имеет приоритет
	if f.ConfigFlag != "" {
		return resolveAbsPath(f.ConfigFlag)
	}

	candidates := []string{"config.yaml"}

	// 2-3. Текущая директория, затем директория бинарника
	if execPath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(execPath), "config.yaml"))
	}

	// 4. Родительские директории
	candidates = append(candidates,
		filepath.Join("..", "config.yaml"),
		filepath.Join("..", "..", "config.yaml"))

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return resolveAbsPath(p)
		}
	}
	return ""
}

// InitializeConfig находит и загружает конфигурацию.
//
// Если файл не найден и путь не задан явно, используется config.Default():
// просмотрщик работает без конфига. Явно указанный отсутствующий файл — ошибка.
func InitializeConfig(finder ConfigPathFinder) (*config.AppConfig, string, error) {
	cfgPath := finder.FindConfigPath()
	if cfgPath == "" {
		return config.Default(), "", nil
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config from %s: %w", cfgPath, err)
	}
	return cfg, cfgPath, nil
}

func resolveAbsPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
