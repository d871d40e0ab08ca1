package repository

import "fmt"

// ErrUnknownCollection is returned by drivers that keep an allow-list of collections.
type ErrUnknownCollection struct {
	Collection string
}

func (e ErrUnknownCollection) Error() string {
	return fmt.Sprintf("unknown collection %q", e.Collection)
}

// IsUnknownCollection checks if an error is an unknown collection error.
func IsUnknownCollection(err error) bool {
	_, ok := err.(ErrUnknownCollection)
	return ok
}
