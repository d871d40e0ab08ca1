package repository

import (
	"fmt"
	"strings"
)

// Predicate is a filter over documents. Drivers translate it into their own
// query language; Matches evaluates it in process.
type Predicate interface {
	predicate()
}

// Eq matches documents whose Field equals Value.
type Eq struct {
	Field string
	Value string
}

// ILike matches documents whose Field contains Substring, ignoring case.
type ILike struct {
	Field     string
	Substring string
}

// Or matches documents satisfying any of its predicates. An empty Or matches nothing.
type Or []Predicate

func (Eq) predicate()    {}
func (ILike) predicate() {}
func (Or) predicate()    {}

// AnyContains builds the search predicate: any of fields contains q, ignoring case.
func AnyContains(q string, fields ...string) Predicate {
	or := make(Or, 0, len(fields))
	for _, f := range fields {
		or = append(or, ILike{Field: f, Substring: q})
	}
	return or
}

// Matches reports whether doc satisfies p.
func Matches(p Predicate, doc Document) bool {
	switch p := p.(type) {
	case Eq:
		v, ok := doc[p.Field]
		return ok && v != nil && stringValue(v) == p.Value
	case ILike:
		v, ok := doc[p.Field]
		if !ok || v == nil {
			return false
		}
		return strings.Contains(strings.ToLower(stringValue(v)), strings.ToLower(p.Substring))
	case Or:
		for _, inner := range p {
			if Matches(inner, doc) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Validate rejects predicates a driver cannot translate.
func Validate(p Predicate) error {
	switch p := p.(type) {
	case Eq:
		if p.Field == "" {
			return fmt.Errorf("eq predicate without field")
		}
	case ILike:
		if p.Field == "" {
			return fmt.Errorf("ilike predicate without field")
		}
	case Or:
		for _, inner := range p {
			if err := Validate(inner); err != nil {
				return err
			}
		}
	case nil:
		return fmt.Errorf("nil predicate")
	default:
		return fmt.Errorf("unsupported predicate %T", p)
	}
	return nil
}

func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
