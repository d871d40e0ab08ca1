package postgres

import (
	"context"
	"testing"

	"zeus-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildWhere(t *testing.T) {
	tests := []struct {
		name     string
		p        repository.Predicate
		initial  []any
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "eq on id",
			p:        repository.Eq{Field: "id", Value: "abc"},
			wantSQL:  "id::text = $1",
			wantArgs: []any{"abc"},
		},
		{
			name:     "eq on document field after body param",
			p:        repository.Eq{Field: "category", Value: "공지"},
			initial:  []any{"{}"},
			wantSQL:  "doc->>$2 = $3",
			wantArgs: []any{"{}", "category", "공지"},
		},
		{
			name:     "search escapes wildcards",
			p:        repository.AnyContains("50%_off", "title", "content"),
			wantSQL:  "(doc->>$1 ILIKE $2 OR doc->>$3 ILIKE $4)",
			wantArgs: []any{"title", `%50\%\_off%`, "content", `%50\%\_off%`},
		},
		{
			name:    "empty or matches nothing",
			p:       repository.Or{},
			wantSQL: "FALSE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := tt.initial
			sql, err := buildWhere(tt.p, &args)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestBuildWhereRejectsInvalid(t *testing.T) {
	var args []any
	_, err := buildWhere(nil, &args)
	assert.Error(t, err)
}

func TestMarshalBodyDropsServerColumns(t *testing.T) {
	raw, err := marshalBody(repository.Document{"id": "1", "created_at": "x", "title": "t"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"t"}`, string(raw))
}

func TestUnknownCollection(t *testing.T) {
	s := NewStore(nil, repository.CollectionPosts)
	_, err := s.Insert(context.Background(), "users", repository.Document{})
	assert.True(t, repository.IsUnknownCollection(err))
}
