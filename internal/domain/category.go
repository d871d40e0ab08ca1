package domain

import (
	"slices"
	"strings"
)

// FieldName is the only attribute of the "categories" collection besides id.
const FieldName = "name"

// Category is a user-facing label. The name acts as the key for deletion;
// duplicate names are allowed in the store.
type Category struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// CategoryNames returns the sorted, de-duplicated, non-blank names of cats.
func CategoryNames(cats []Category) []string {
	names := make([]string, 0, len(cats))
	for _, c := range cats {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		names = append(names, c.Name)
	}
	slices.Sort(names)
	return slices.Compact(names)
}
