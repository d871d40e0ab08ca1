package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPublicURLRoundTrip(t *testing.T) {
	base := "https://xyz.supabase.co/storage/v1"
	url := PublicURL(base, DefaultBucket, "public/post_1700000000000.jpg")

	assert.Equal(t, "https://xyz.supabase.co/storage/v1/object/public/Zeus/public/post_1700000000000.jpg", url)

	path, ok := PathFromURL(url, DefaultBucket)
	assert.True(t, ok)
	assert.Equal(t, "public/post_1700000000000.jpg", path)
}

func TestPathFromURL(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		want   string
		wantOK bool
	}{
		{"no marker", "https://cdn.example.com/img.jpg", "", false},
		{"marker at end", "https://x/object/public/Zeus/", "", false},
		{"first marker wins", "https://x/object/public/Zeus/public/Zeus/a.jpg", "public/Zeus/a.jpg", true},
		{"case sensitive", "https://x/object/public/zeus/a.jpg", "", false},
		{"bucket name in base url", "https://cdn.example.com/Zeus/storage/v1/object/public/Zeus/public/post_1.jpg", "public/post_1.jpg", true},
		{"without public prefix", "https://cdn.example.com/Zeus/public/post_1.jpg", "public/post_1.jpg", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PathFromURL(tt.url, DefaultBucket)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPathGeneratorUnique(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	g := NewPathGenerator()
	g.now = func() time.Time { return fixed }

	assert.Equal(t, "public/post_1700000000000.jpg", g.Next())
	assert.Equal(t, "public/post_1700000000001.jpg", g.Next())
	assert.Equal(t, "public/post_1700000000002.jpg", g.Next())
}
