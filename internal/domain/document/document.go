package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/kailas-cloud/simdex/internal/domain"
)

// Record field names.
const (
	FieldID      = "id"
	FieldContent = "content"
)

// reservedFields are owned by the training pipeline and must not appear in input records.
var reservedFields = []string{"tokens", "vector"}

// Document is an input document (immutable value object).
type Document struct {
	id      string
	content string
}

// New validates and creates a Document. The ID is opaque but must be non-empty;
// empty content is allowed and yields a document without terms.
func New(id, content string) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document ID is required")
	}
	return Document{id: id, content: content}, nil
}

// ID returns the document identifier.
func (d Document) ID() string { return d.id }

// Content returns the document text content.
func (d Document) Content() string { return d.content }

// FromRecord converts a loosely typed record into a Document.
// index is the record position, used for error reporting.
func FromRecord(index int, rec map[string]any) (Document, error) {
	if rec == nil {
		return Document{}, domain.NewInputShapeError(index, "", "record must be an object")
	}
	for _, f := range reservedFields {
		if _, ok := rec[f]; ok {
			return Document{}, domain.NewInputShapeError(index, f, "is a reserved field")
		}
	}

	rawID, ok := rec[FieldID]
	if !ok || rawID == nil {
		return Document{}, domain.NewInputShapeError(index, FieldID, "is required")
	}
	id, err := idString(rawID)
	if err != nil {
		return Document{}, domain.NewInputShapeError(index, FieldID, err.Error())
	}

	rawContent, ok := rec[FieldContent]
	if !ok || rawContent == nil {
		return Document{}, domain.NewInputShapeError(index, FieldContent, "is required")
	}
	content, ok := rawContent.(string)
	if !ok {
		return Document{}, domain.NewInputShapeError(index, FieldContent, "must be a string")
	}

	doc, err := New(id, content)
	if err != nil {
		return Document{}, domain.NewInputShapeError(index, FieldID, err.Error())
	}
	return doc, nil
}

func idString(v any) (string, error) {
	switch id := v.(type) {
	case string:
		return id, nil
	case json.Number:
		return id.String(), nil
	case float64:
		if math.IsNaN(id) || math.IsInf(id, 0) {
			return "", fmt.Errorf("must be a finite number")
		}
		return strconv.FormatFloat(id, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(id), nil
	case int64:
		return strconv.FormatInt(id, 10), nil
	default:
		return "", fmt.Errorf("must be a string or a number")
	}
}

// DecodeList parses a JSON array of document records.
func DecodeList(data []byte) ([]Document, error) {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, domain.NewInputShapeError(-1, "", "documents must be a JSON array: "+err.Error())
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, domain.NewInputShapeError(-1, "", "unexpected data after the documents array")
	}
	return FromJSONValue(raw)
}

// FromJSONValue converts an already decoded JSON value (expected to be an array
// of objects) into documents.
func FromJSONValue(raw any) ([]Document, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, domain.NewInputShapeError(-1, "", "documents must be a JSON array")
	}
	docs := make([]Document, len(items))
	for i, item := range items {
		rec, ok := item.(map[string]any)
		if !ok {
			return nil, domain.NewInputShapeError(i, "", "record must be an object")
		}
		doc, err := FromRecord(i, rec)
		if err != nil {
			return nil, err
		}
		docs[i] = doc
	}
	return docs, nil
}

// CheckUnique verifies that no two documents share an ID.
func CheckUnique(docs []Document) error {
	seen := make(map[string]int, len(docs))
	for i := range docs {
		if prev, ok := seen[docs[i].id]; ok {
			return domain.NewInputShapeError(i, FieldID,
				fmt.Sprintf("%q duplicates document %d", docs[i].id, prev))
		}
		seen[docs[i].id] = i
	}
	return nil
}

// Processed is a document reduced to its ordered feature terms.
type Processed struct {
	ID     string
	Tokens []string
}
