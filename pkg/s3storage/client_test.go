package s3storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ilkoid/poncho-slides/pkg/config"
)

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "exports/deck.pdf", ObjectKey("exports/", "deck.pdf"))
	assert.Equal(t, "exports/deck.pdf", ObjectKey("exports", "out/dir/deck.pdf"))
	assert.Equal(t, "exports/deck.pdf", ObjectKey("/exports", "deck.pdf"))
	assert.Equal(t, "deck.pdf", ObjectKey("", "deck.pdf"))
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	objs := []StoredObject{
		{Key: "exports/a.pdf", LastModified: base},
		{Key: "exports/c.pdf", LastModified: base.Add(2 * time.Hour)},
		{Key: "exports/b.pdf", LastModified: base.Add(time.Hour)},
	}
	SortNewestFirst(objs)

	var names []string
	for _, o := range objs {
		names = append(names, o.Name())
	}
	assert.Equal(t, []string{"c.pdf", "b.pdf", "a.pdf"}, names)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(config.S3Config{})
	assert.ErrorContains(t, err, "required")

	c, err := New(config.S3Config{Endpoint: "localhost:9000", Bucket: "decks"})
	assert.NoError(t, err, "minio client construction does not touch the network")
	assert.Equal(t, "exports/x.pdf", c.Key("x.pdf"))
}
