package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Encode converts a tagged struct into a Document using its JSON field names.
func Encode(v any) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return doc, nil
}

// Decode fills a tagged struct from doc. Numeric ids are rendered as strings.
func Decode(doc Document, v any) error {
	normalized := make(Document, len(doc))
	for k, val := range doc {
		normalized[k] = val
	}
	if id, ok := normalized["id"]; ok && id != nil {
		normalized["id"] = IDString(id)
	}

	raw, err := json.Marshal(normalized)
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

// IDString renders a server-assigned id (uuid string, bigint, json.Number) as a string.
func IDString(id any) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprint(v)
	}
}

// DecodeRows parses a JSON array of records preserving numeric precision.
func DecodeRows(raw []byte) ([]Document, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return []Document{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var docs []Document
	if err := dec.Decode(&docs); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	if docs == nil {
		docs = []Document{}
	}
	return docs, nil
}
