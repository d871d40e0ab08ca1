package repository

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatches(t *testing.T) {
	doc := Document{"id": "7", "title": "Hello World", "content": "body text", "category": "공지"}

	tests := []struct {
		name string
		p    Predicate
		want bool
	}{
		{"eq hit", Eq{Field: "id", Value: "7"}, true},
		{"eq miss", Eq{Field: "id", Value: "8"}, false},
		{"eq missing field", Eq{Field: "nope", Value: ""}, false},
		{"ilike case insensitive", ILike{Field: "title", Substring: "hello"}, true},
		{"ilike upper query", ILike{Field: "content", Substring: "BODY"}, true},
		{"ilike miss", ILike{Field: "title", Substring: "bye"}, false},
		{"or any", AnyContains("text", "title", "content"), true},
		{"or none", AnyContains("zzz", "title", "content"), false},
		{"empty or", Or{}, false},
		{"unicode eq", Eq{Field: "category", Value: "공지"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.p, doc))
		})
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(Eq{Field: "id", Value: "1"}))
	assert.NoError(t, Validate(AnyContains("q", "title", "content")))
	assert.Error(t, Validate(nil))
	assert.Error(t, Validate(Eq{Value: "1"}))
	assert.Error(t, Validate(Or{ILike{Substring: "x"}}))
}

func TestDecodeRowsAndIDs(t *testing.T) {
	docs, err := DecodeRows([]byte(`[{"id": 12345678901234, "title": "a"}, {"id": "abc", "title": "b"}]`))
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "12345678901234", IDString(docs[0]["id"]))
	assert.Equal(t, "abc", IDString(docs[1]["id"]))
	assert.Equal(t, "", IDString(nil))
	assert.Equal(t, json.Number("12345678901234"), docs[0]["id"])

	empty, err := DecodeRows([]byte("  "))
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = DecodeRows([]byte("{not json"))
	assert.Error(t, err)
}

func TestEncodeDecodeNumericID(t *testing.T) {
	type record struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}

	var r record
	require.NoError(t, Decode(Document{"id": json.Number("42"), "title": "x"}, &r))
	assert.Equal(t, "42", r.ID)

	doc, err := Encode(record{ID: "1", Title: "t"})
	require.NoError(t, err)
	assert.Equal(t, "t", doc["title"])
}
