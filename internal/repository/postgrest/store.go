// Package postgrest implements repository.DocumentStore over the Supabase REST
// interface (PostgREST).
package postgrest

import (
	"context"
	"fmt"
	"strings"

	"zeus-backend/internal/repository"

	postgrestgo "github.com/supabase-community/postgrest-go"
)

// Querier is the part of *supabase.Client (or *postgrest.Client) the store needs.
type Querier interface {
	From(table string) *postgrestgo.QueryBuilder
}

// Store issues one REST round trip per call.
type Store struct {
	client Querier
}

// NewStore creates a document store over client.
func NewStore(client Querier) *Store {
	return &Store{client: client}
}

var _ repository.DocumentStore = (*Store)(nil)

// ordered sorts posts oldest first, the order the postgres driver uses. The
// categories table has no created_at column and is sorted by the feed.
func ordered(collection string, fb *postgrestgo.FilterBuilder) *postgrestgo.FilterBuilder {
	if collection != repository.CollectionPosts {
		return fb
	}
	return fb.Order(repository.FieldCreatedAt, &postgrestgo.OrderOpts{Ascending: true})
}

func (s *Store) Insert(ctx context.Context, collection string, doc repository.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	raw, _, err := s.client.From(collection).
		Insert(doc, false, "", "representation", "").
		Execute()
	if err != nil {
		return "", fmt.Errorf("insert into %s: %w", collection, err)
	}

	rows, err := repository.DecodeRows(raw)
	if err != nil {
		return "", fmt.Errorf("insert into %s: %w", collection, err)
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("insert into %s: no row returned", collection)
	}
	return repository.IDString(rows[0][repository.FieldID]), nil
}

func (s *Store) Update(ctx context.Context, collection string, filter repository.Predicate, doc repository.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fb := s.client.From(collection).Update(doc, "minimal", "")
	fb, err := applyFilter(fb, filter)
	if err != nil {
		return err
	}
	if _, _, err := fb.Execute(); err != nil {
		return fmt.Errorf("update %s: %w", collection, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection string, filter repository.Predicate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fb := s.client.From(collection).Delete("minimal", "")
	fb, err := applyFilter(fb, filter)
	if err != nil {
		return err
	}
	if _, _, err := fb.Execute(); err != nil {
		return fmt.Errorf("delete from %s: %w", collection, err)
	}
	return nil
}

func (s *Store) SelectAll(ctx context.Context, collection string) ([]repository.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, _, err := ordered(collection, s.client.From(collection).Select("*", "", false)).Execute()
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", collection, err)
	}
	return repository.DecodeRows(raw)
}

func (s *Store) SelectFiltered(ctx context.Context, collection string, filter repository.Predicate) ([]repository.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fb, err := applyFilter(s.client.From(collection).Select("*", "", false), filter)
	if err != nil {
		return nil, err
	}
	raw, _, err := ordered(collection, fb).Execute()
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", collection, err)
	}
	return repository.DecodeRows(raw)
}

func applyFilter(fb *postgrestgo.FilterBuilder, p repository.Predicate) (*postgrestgo.FilterBuilder, error) {
	if err := repository.Validate(p); err != nil {
		return nil, err
	}

	switch p := p.(type) {
	case repository.Eq:
		return fb.Eq(p.Field, p.Value), nil
	case repository.ILike:
		return fb.Ilike(p.Field, ilikePattern(p.Substring)), nil
	case repository.Or:
		expr, err := orExpression(p)
		if err != nil {
			return nil, err
		}
		return fb.Or(expr, ""), nil
	}
	return nil, fmt.Errorf("unsupported predicate %T", p)
}

// orExpression renders the body of an or=(...) filter, e.g.
// title.ilike."*q*",content.ilike."*q*".
func orExpression(or repository.Or) (string, error) {
	if len(or) == 0 {
		return "", fmt.Errorf("empty or predicate")
	}

	parts := make([]string, 0, len(or))
	for _, inner := range or {
		switch p := inner.(type) {
		case repository.Eq:
			parts = append(parts, p.Field+".eq."+quote(p.Value))
		case repository.ILike:
			parts = append(parts, p.Field+".ilike."+quote(ilikePattern(p.Substring)))
		case repository.Or:
			nested, err := orExpression(p)
			if err != nil {
				return "", err
			}
			parts = append(parts, "or("+nested+")")
		default:
			return "", fmt.Errorf("unsupported predicate %T", inner)
		}
	}
	return strings.Join(parts, ","), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`, `*`, `\*`)

// ilikePattern matches substring literally anywhere in the value. PostgREST
// reads * as %, so * is escaped along with the LIKE wildcards.
func ilikePattern(substring string) string {
	return "*" + likeEscaper.Replace(substring) + "*"
}

// quote wraps a value in double quotes so commas and parentheses survive the
// or=(...) grammar.
func quote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `"` + v + `"`
}
