// Package postgres implements repository.DocumentStore on PostgreSQL. Each
// collection is a table holding the record body in a JSONB column next to the
// server-assigned id and created_at.
package postgres

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"zeus-backend/internal/repository"

	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Open connects to dsn with the lib/pq driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

type Store struct {
	db     *sql.DB
	tables map[string]string
}

// NewStore creates a store limited to the given collections.
func NewStore(db *sql.DB, collections ...string) *Store {
	tables := make(map[string]string, len(collections))
	for _, c := range collections {
		tables[c] = pq.QuoteIdentifier(c)
	}
	return &Store{db: db, tables: tables}
}

var _ repository.DocumentStore = (*Store)(nil)

func (s *Store) table(collection string) (string, error) {
	t, ok := s.tables[collection]
	if !ok {
		return "", repository.ErrUnknownCollection{Collection: collection}
	}
	return t, nil
}

func (s *Store) Insert(ctx context.Context, collection string, doc repository.Document) (string, error) {
	table, err := s.table(collection)
	if err != nil {
		return "", err
	}
	body, err := marshalBody(doc)
	if err != nil {
		return "", err
	}

	var id string
	query := fmt.Sprintf(`INSERT INTO %s (doc) VALUES ($1::jsonb) RETURNING id::text`, table)
	if err := s.db.QueryRowContext(ctx, query, body).Scan(&id); err != nil {
		return "", fmt.Errorf("insert into %s: %w", collection, err)
	}
	return id, nil
}

func (s *Store) Update(ctx context.Context, collection string, filter repository.Predicate, doc repository.Document) error {
	table, err := s.table(collection)
	if err != nil {
		return err
	}
	body, err := marshalBody(doc)
	if err != nil {
		return err
	}

	args := []any{body}
	where, err := buildWhere(filter, &args)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE %s SET doc = doc || $1::jsonb WHERE %s`, table, where)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update %s: %w", collection, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection string, filter repository.Predicate) error {
	table, err := s.table(collection)
	if err != nil {
		return err
	}

	var args []any
	where, err := buildWhere(filter, &args)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE %s`, table, where)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete from %s: %w", collection, err)
	}
	return nil
}

func (s *Store) SelectAll(ctx context.Context, collection string) ([]repository.Document, error) {
	table, err := s.table(collection)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id::text, doc, created_at FROM %s ORDER BY created_at`, table)
	return s.query(ctx, collection, query)
}

func (s *Store) SelectFiltered(ctx context.Context, collection string, filter repository.Predicate) ([]repository.Document, error) {
	table, err := s.table(collection)
	if err != nil {
		return nil, err
	}

	var args []any
	where, err := buildWhere(filter, &args)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id::text, doc, created_at FROM %s WHERE %s ORDER BY created_at`, table, where)
	return s.query(ctx, collection, query, args...)
}

func (s *Store) query(ctx context.Context, collection, query string, args ...any) ([]repository.Document, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", collection, err)
	}
	defer rows.Close()

	docs := []repository.Document{}
	for rows.Next() {
		var (
			id        string
			body      []byte
			createdAt time.Time
		)
		if err := rows.Scan(&id, &body, &createdAt); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", collection, err)
		}

		doc := repository.Document{}
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode %s row %s: %w", collection, id, err)
		}
		doc[repository.FieldID] = id
		doc[repository.FieldCreatedAt] = createdAt.UTC().Format(time.RFC3339Nano)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", collection, err)
	}
	return docs, nil
}

// marshalBody drops the server-assigned columns from doc.
func marshalBody(doc repository.Document) ([]byte, error) {
	body := make(repository.Document, len(doc))
	for k, v := range doc {
		if k == repository.FieldID || k == repository.FieldCreatedAt {
			continue
		}
		body[k] = v
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return raw, nil
}

// buildWhere renders p as a SQL condition, appending its parameters to args.
// Field names are bound as parameters too, never interpolated.
func buildWhere(p repository.Predicate, args *[]any) (string, error) {
	if err := repository.Validate(p); err != nil {
		return "", err
	}

	switch p := p.(type) {
	case repository.Eq:
		return column(p.Field, args) + " = " + bind(args, p.Value), nil
	case repository.ILike:
		return column(p.Field, args) + " ILIKE " + bind(args, "%"+escapeLike(p.Substring)+"%"), nil
	case repository.Or:
		if len(p) == 0 {
			return "FALSE", nil
		}
		parts := make([]string, 0, len(p))
		for _, inner := range p {
			cond, err := buildWhere(inner, args)
			if err != nil {
				return "", err
			}
			parts = append(parts, cond)
		}
		return "(" + strings.Join(parts, " OR ") + ")", nil
	}
	return "", fmt.Errorf("unsupported predicate %T", p)
}

func column(field string, args *[]any) string {
	switch field {
	case repository.FieldID:
		return "id::text"
	case repository.FieldCreatedAt:
		return "created_at::text"
	default:
		return "doc->>" + bind(args, field)
	}
}

func bind(args *[]any, v any) string {
	*args = append(*args, v)
	return fmt.Sprintf("$%d", len(*args))
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
