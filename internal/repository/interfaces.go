// Package repository defines the remote document store contract shared by the
// postgrest and postgres drivers, together with its filter model.
package repository

import "context"

// Collection names used by the bulletin board.
const (
	CollectionPosts      = "posts"
	CollectionCategories = "categories"
)

// Server-assigned fields.
const (
	FieldID        = "id"
	FieldCreatedAt = "created_at"
)

// Document is a single record of a collection, keyed by wire field name.
// Drivers assign "id" (and "created_at" for posts) on insert.
type Document map[string]any

// DocumentStore is the remote document store client. Every call is an
// independent round trip; there are no transactions.
type DocumentStore interface {
	// Insert writes doc and returns the server-assigned id.
	Insert(ctx context.Context, collection string, doc Document) (string, error)

	// Update overwrites the fields present in doc on every record matching filter.
	Update(ctx context.Context, collection string, filter Predicate, doc Document) error

	// Delete removes every record matching filter. Matching nothing is not an error.
	Delete(ctx context.Context, collection string, filter Predicate) error

	// SelectAll reads the whole collection.
	SelectAll(ctx context.Context, collection string) ([]Document, error)

	// SelectFiltered reads the records matching filter.
	SelectFiltered(ctx context.Context, collection string, filter Predicate) ([]Document, error)
}
