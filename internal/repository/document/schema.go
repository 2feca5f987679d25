package document

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/recall/internal/db"
	"github.com/kailas-cloud/recall/internal/domain"
)

// Hash field names of an indexed document.
const (
	FieldTitle       = "title"
	FieldContent     = "content"
	FieldSourceType  = "source_type"
	FieldSourceID    = "source_id"
	FieldPermissions = "permissions"
	FieldCreatedAt   = "created_at" // unix seconds
	FieldUpdatedAt   = "updated_at" // unix seconds
	FieldVector      = "vector"
	FieldMetadata    = "metadata" // JSON object, not indexed
)

// PermissionSeparator joins permissions inside the TAG field.
const PermissionSeparator = ","

// titleWeight makes title matches count double in BM25.
const titleWeight = 2.0

// TextFields are the BM25-searchable fields.
var TextFields = []string{FieldTitle, FieldContent}

// ReturnFields are the fields search providers read back (everything except the vector).
var ReturnFields = []string{
	FieldTitle, FieldContent, FieldSourceType, FieldSourceID,
	FieldPermissions, FieldCreatedAt, FieldUpdatedAt, FieldMetadata,
}

// IndexDefinition describes the document index for the given embedding size.
func IndexDefinition(dims, hnswM, efConstruct int) (*db.IndexDefinition, error) {
	return db.NewIndex(domain.DocumentIndex).
		Prefix(domain.DocumentKeyPrefix).
		WeightedText(FieldTitle, titleWeight).
		Text(FieldContent).
		CaseSensitiveTag(FieldPermissions).
		Tag(FieldSourceType).
		SortableNumeric(FieldCreatedAt).
		Numeric(FieldUpdatedAt).
		VectorHNSW(FieldVector, dims, db.DistanceCosine, hnswM, efConstruct).
		Build()
}

// Key returns the hash key of a document.
func Key(id string) string {
	return domain.DocumentKeyPrefix + id
}

// EncodeMetadata renders free-form metadata as the FieldMetadata value. Empty maps encode to "".
func EncodeMetadata(meta map[string]string) (string, error) {
	if len(meta) == 0 {
		return "", nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	return string(b), nil
}

// DecodeMetadata parses a FieldMetadata value. Empty input yields nil.
func DecodeMetadata(raw string) (map[string]string, error) {
	if raw == "" {
		return nil, nil
	}
	var meta map[string]string
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return meta, nil
}

// IDFromKey strips the document key prefix.
func IDFromKey(key string) string {
	return strings.TrimPrefix(key, domain.DocumentKeyPrefix)
}
