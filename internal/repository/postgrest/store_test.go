package postgrest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"zeus-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	postgrestgo "github.com/supabase-community/postgrest-go"
)

func TestOrExpression(t *testing.T) {
	tests := []struct {
		name string
		or   repository.Or
		want string
	}{
		{
			name: "search over title and content",
			or:   repository.AnyContains("hello", "title", "content").(repository.Or),
			want: `title.ilike."*hello*",content.ilike."*hello*"`,
		},
		{
			name: "reserved characters are quoted",
			or:   repository.Or{repository.ILike{Field: "title", Substring: `a,b)"c`}},
			want: `title.ilike."*a,b)\"c*"`,
		},
		{
			name: "like wildcards are literal",
			or:   repository.AnyContains(`50%_a*b\`, "title").(repository.Or),
			want: `title.ilike."*50\\%\\_a\\*b\\\\*"`,
		},
		{
			name: "nested",
			or: repository.Or{
				repository.Eq{Field: "category", Value: "공지"},
				repository.Or{repository.Eq{Field: "id", Value: "1"}},
			},
			want: `category.eq."공지",or(id.eq."1")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := orExpression(tt.or)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOrExpressionRejectsEmpty(t *testing.T) {
	_, err := orExpression(repository.Or{})
	assert.Error(t, err)
}

func TestQuoteEscapesBackslash(t *testing.T) {
	assert.Equal(t, `"a\\b"`, quote(`a\b`))
}

func TestILikePattern(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"physics", "*physics*"},
		{"_", `*\_*`},
		{"50%", `*50\%*`},
		{"a*b", `*a\*b*`},
		{`a\b`, `*a\\b*`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ilikePattern(tt.in))
		})
	}
}

// recordedRequest is what the REST stub saw for one call.
type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Prefer string
	Body   string
}

type restStub struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
}

func (s *restStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.requests = append(s.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Prefer: r.Header.Get("Prefer"),
		Body:   string(raw),
	})
	status, body := s.status, s.body
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (s *restStub) last(t *testing.T) recordedRequest {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.requests)
	return s.requests[len(s.requests)-1]
}

func newTestStore(t *testing.T, stub *restStub) *Store {
	t.Helper()
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)
	return NewStore(postgrestgo.NewClient(srv.URL, "public", nil))
}

func TestInsertReturnsServerID(t *testing.T) {
	stub := &restStub{status: http.StatusCreated, body: `[{"id": 9007199254740993, "title": "Exam Notice"}]`}
	store := newTestStore(t, stub)

	id, err := store.Insert(context.Background(), repository.CollectionPosts,
		repository.Document{"title": "Exam Notice", "image_urls": []string{"a"}})
	require.NoError(t, err)
	assert.Equal(t, "9007199254740993", id)

	req := stub.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/posts", req.Path)
	assert.Contains(t, req.Prefer, "return=representation")

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(req.Body), &body))
	assert.Equal(t, "Exam Notice", body["title"])
}

func TestInsertWithoutReturnedRow(t *testing.T) {
	store := newTestStore(t, &restStub{status: http.StatusCreated, body: `[]`})

	_, err := store.Insert(context.Background(), repository.CollectionPosts, repository.Document{"title": "t"})
	assert.ErrorContains(t, err, "no row returned")
}

func TestUpdateAndDeleteSendFilters(t *testing.T) {
	stub := &restStub{status: http.StatusNoContent}
	store := newTestStore(t, stub)
	ctx := context.Background()

	require.NoError(t, store.Update(ctx, repository.CollectionPosts,
		repository.Eq{Field: "id", Value: "42"}, repository.Document{"category": "Announcements"}))
	req := stub.last(t)
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, "/posts", req.Path)
	assert.Equal(t, "eq.42", req.Query.Get("id"))
	assert.Contains(t, req.Body, "Announcements")

	require.NoError(t, store.Delete(ctx, repository.CollectionCategories,
		repository.Eq{Field: "name", Value: "Chemistry"}))
	req = stub.last(t)
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/categories", req.Path)
	assert.Equal(t, "eq.Chemistry", req.Query.Get("name"))
}

func TestSelectOrdersPostsAndFilters(t *testing.T) {
	stub := &restStub{body: `[{"id": "1", "title": "a"}, {"id": "2", "title": "b"}]`}
	store := newTestStore(t, stub)
	ctx := context.Background()

	docs, err := store.SelectAll(ctx, repository.CollectionPosts)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "1", repository.IDString(docs[0]["id"]))
	req := stub.last(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.True(t, strings.HasPrefix(req.Query.Get("order"), "created_at.asc"), req.Query.Get("order"))

	_, err = store.SelectFiltered(ctx, repository.CollectionPosts, repository.AnyContains("a_b", "title", "content"))
	require.NoError(t, err)
	req = stub.last(t)
	assert.Equal(t, `(title.ilike."*a\\_b*",content.ilike."*a\\_b*")`, req.Query.Get("or"))

	_, err = store.SelectFiltered(ctx, repository.CollectionPosts, repository.ILike{Field: "title", Substring: "50%"})
	require.NoError(t, err)
	assert.Equal(t, `ilike.*50\%*`, stub.last(t).Query.Get("title"))

	_, err = store.SelectAll(ctx, repository.CollectionCategories)
	require.NoError(t, err)
	assert.Empty(t, stub.last(t).Query.Get("order"))
}

func TestErrorStatusIsReturned(t *testing.T) {
	stub := &restStub{status: http.StatusForbidden, body: `{"code": "42501", "message": "permission denied for table posts"}`}
	store := newTestStore(t, stub)
	ctx := context.Background()

	_, err := store.Insert(ctx, repository.CollectionPosts, repository.Document{"title": "t"})
	assert.Error(t, err)

	err = store.Update(ctx, repository.CollectionPosts, repository.Eq{Field: "id", Value: "1"}, repository.Document{"title": "t"})
	assert.Error(t, err)

	_, err = store.SelectAll(ctx, repository.CollectionPosts)
	assert.Error(t, err)
}

func TestInvalidFilterIsRejectedBeforeRequest(t *testing.T) {
	stub := &restStub{}
	store := newTestStore(t, stub)

	err := store.Delete(context.Background(), repository.CollectionPosts, repository.Or{})
	assert.Error(t, err)
	assert.Empty(t, stub.requests)
}
