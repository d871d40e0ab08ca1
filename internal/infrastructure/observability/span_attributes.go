package observability

import (
	"go.opentelemetry.io/otel/attribute"

	"zeus-backend/internal/domain"
)

// PostAttributes describes a post without its free text.
func PostAttributes(p domain.Post) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("post.category", p.Category),
		attribute.Int("post.image_count", len(p.ImageURLs)),
	}
	if p.ID != "" {
		attrs = append(attrs, attribute.String("post.id", p.ID))
	}
	return attrs
}

// StoreAttributes describes a remote store call.
func StoreAttributes(store, operation, target string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("store.kind", store),
		attribute.String("store.operation", operation),
		attribute.String("store.target", target),
	}
}
