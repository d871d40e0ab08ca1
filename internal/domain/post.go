// Package domain contains the core data structures for the bulletin board,
// independent of the document store, object store or API layers.
package domain

import "strings"

// Field names of the "posts" collection as they appear on the wire.
const (
	FieldID        = "id"
	FieldTitle     = "title"
	FieldContent   = "content"
	FieldImageURL  = "image_url"
	FieldImageURLs = "image_urls"
	FieldCategory  = "category"
	FieldCreatedAt = "created_at"
)

// Post is a single bulletin-board entry.
//
// ImageURLs is the only image representation inside the process; the legacy
// single-image field exists only on PostRecord.
type Post struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Category  string   `json:"category"`
	ImageURLs []string `json:"image_urls"`
	CreatedAt string   `json:"created_at,omitempty"`
}

// PostRecord is the stored shape of a post. Records written before multi-image
// support only carry ImageURL.
type PostRecord struct {
	ID        string   `json:"id,omitempty"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	ImageURL  *string  `json:"image_url"`
	ImageURLs []string `json:"image_urls"`
	Category  string   `json:"category"`
	CreatedAt string   `json:"created_at,omitempty"`
}

// ToRecord derives the stored shape, duplicating the first image into the
// legacy field. ID and CreatedAt are carried so callers can key updates.
func (p Post) ToRecord() PostRecord {
	urls := make([]string, len(p.ImageURLs))
	copy(urls, p.ImageURLs)

	return PostRecord{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		ImageURL:  p.LegacyImageURL(),
		ImageURLs: urls,
		Category:  p.Category,
		CreatedAt: p.CreatedAt,
	}
}

// LegacyImageURL returns the first image URL, or nil for a post without images.
func (p Post) LegacyImageURL() *string {
	if len(p.ImageURLs) == 0 {
		return nil
	}
	first := p.ImageURLs[0]
	return &first
}

// ToPost normalizes a stored record. A record with only the legacy field reads
// as a one-image post, and an empty category reads as fallbackCategory.
func (r PostRecord) ToPost(fallbackCategory string) Post {
	urls := make([]string, 0, len(r.ImageURLs))
	urls = append(urls, r.ImageURLs...)
	if len(urls) == 0 && r.ImageURL != nil && *r.ImageURL != "" {
		urls = append(urls, *r.ImageURL)
	}

	category := r.Category
	if strings.TrimSpace(category) == "" {
		category = fallbackCategory
	}

	return Post{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		Category:  category,
		ImageURLs: urls,
		CreatedAt: r.CreatedAt,
	}
}

// ReferencedImageURLs is the union of the legacy field and the list, in list
// order, without duplicates. Used to find every blob a record points at.
func (r PostRecord) ReferencedImageURLs() []string {
	seen := make(map[string]struct{}, len(r.ImageURLs)+1)
	out := make([]string, 0, len(r.ImageURLs)+1)

	add := func(u string) {
		if u == "" {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}

	if r.ImageURL != nil {
		add(*r.ImageURL)
	}
	for _, u := range r.ImageURLs {
		add(u)
	}
	return out
}
