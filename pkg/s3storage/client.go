// Package s3storage — "тупой" S3 клиент для выгрузки экспортов.
//
// Экспорт пишет PDF локально и, если включено export.upload,
// загружает тот же файл в бакет под префиксом (по умолчанию "exports/").
package s3storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ilkoid/poncho-slides/pkg/config"
)

// ClientInterface определяет интерфейс для S3 клиента.
// Используется для мокания в тестах и внедрения зависимостей.
type ClientInterface interface {
	Upload(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
	ListFiles(ctx context.Context) ([]StoredObject, error)
}

// Client — клиент над minio.
type Client struct {
	api    *minio.Client
	bucket string
	prefix string
}

// Проверка что Client реализует ClientInterface
var _ ClientInterface = (*Client)(nil)

// StoredObject - сырой объект из S3
type StoredObject struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Name возвращает имя файла без префикса.
func (o StoredObject) Name() string {
	return path.Base(o.Key)
}

// New создает клиент, используя наш конфиг.
func New(cfg config.S3Config) (*Client, error) {
	cfg = cfg.GetDefaults()
	if cfg.Bucket == "" || cfg.Endpoint == "" {
		return nil, fmt.Errorf("s3.endpoint and s3.bucket are required")
	}

	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		api:    minioClient,
		bucket: cfg.Bucket,
		prefix: normalizePrefix(cfg.Prefix),
	}, nil
}

// Key возвращает полный ключ объекта для имени файла.
func (c *Client) Key(name string) string {
	return ObjectKey(c.prefix, name)
}

// Upload загружает содержимое r под prefix+name. Возвращает ключ объекта.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	key := c.Key(name)

	info, err := c.api.PutObject(ctx, c.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return info.Key, nil
}

// ListFiles возвращает загруженные экспорты, новые первыми.
func (c *Client) ListFiles(ctx context.Context) ([]StoredObject, error) {
	var objects []StoredObject

	opts := minio.ListObjectsOptions{
		Prefix:    c.prefix,
		Recursive: true,
	}

	for obj := range c.api.ListObjects(ctx, c.bucket, opts) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		// Пропускаем саму "папку"
		if obj.Key == c.prefix {
			continue
		}
		objects = append(objects, StoredObject{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}

	SortNewestFirst(objects)
	return objects, nil
}

// ObjectKey склеивает префикс и имя файла.
func ObjectKey(prefix, name string) string {
	return normalizePrefix(prefix) + strings.TrimLeft(path.Base(name), "/")
}

// SortNewestFirst упорядочивает объекты по времени изменения (новые первыми).
func SortNewestFirst(objects []StoredObject) {
	sort.SliceStable(objects, func(i, j int) bool {
		return objects[i].LastModified.After(objects[j].LastModified)
	})
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimLeft(prefix, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}
