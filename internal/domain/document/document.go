package document

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
	"time"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// MaxContentSize is the maximum document content size in bytes.
const MaxContentSize = 163840 // 160KB

// Params carries the fields of a parsed document handed over for indexing.
type Params struct {
	ID          string
	Title       string
	Content     string
	SourceType  string
	SourceID    string
	Permissions []string
	Metadata    map[string]string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Document is an already-parsed corpus document (immutable value object).
type Document struct {
	id          string
	title       string
	content     string
	sourceType  string
	sourceID    string
	permissions []string
	metadata    map[string]string
	createdAt   time.Time
	updatedAt   time.Time
	vector      []float32
}

// New validates and creates a Document.
// ID: ^[a-zA-Z0-9_.-]+$, 1-256 chars. Content: non-empty, max 160KB.
// At least one permission is required; "*" opens the document to everyone.
// A zero CreatedAt defaults to now, a zero UpdatedAt to CreatedAt.
func New(p Params, now time.Time) (Document, error) {
	if p.ID == "" {
		return Document{}, fmt.Errorf("document ID is required")
	}
	if len(p.ID) > 256 {
		return Document{}, fmt.Errorf("document ID too long (max 256)")
	}
	if !idRegex.MatchString(p.ID) {
		return Document{}, fmt.Errorf("document ID must be alphanumeric with dots, underscores and hyphens")
	}
	if strings.TrimSpace(p.Content) == "" {
		return Document{}, fmt.Errorf("content is required")
	}
	if len(p.Content) > MaxContentSize {
		return Document{}, fmt.Errorf("content too large (max %d bytes)", MaxContentSize)
	}
	if p.SourceType == "" {
		return Document{}, fmt.Errorf("source type is required")
	}

	perms := make([]string, 0, len(p.Permissions))
	for _, perm := range p.Permissions {
		perm = strings.TrimSpace(perm)
		if perm == "" {
			continue
		}
		if strings.Contains(perm, ",") {
			return Document{}, fmt.Errorf("permission %q must not contain a comma", perm)
		}
		perms = append(perms, perm)
	}
	if len(perms) == 0 {
		return Document{}, fmt.Errorf("at least one permission is required")
	}

	created := p.CreatedAt
	if created.IsZero() {
		created = now
	}
	updated := p.UpdatedAt
	if updated.IsZero() {
		updated = created
	}

	return Document{
		id:          p.ID,
		title:       p.Title,
		content:     p.Content,
		sourceType:  p.SourceType,
		sourceID:    p.SourceID,
		permissions: perms,
		metadata:    maps.Clone(p.Metadata),
		createdAt:   created.UTC(),
		updatedAt:   updated.UTC(),
	}, nil
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Title returns the document title.
func (d *Document) Title() string { return d.title }

// Content returns the document text content.
func (d *Document) Content() string { return d.content }

// SourceType returns the originating system (e.g. "slack", "gdrive").
func (d *Document) SourceType() string { return d.sourceType }

// SourceID returns the identifier inside the originating system.
func (d *Document) SourceID() string { return d.sourceID }

// Permissions returns the ACL entries allowed to see the document.
func (d *Document) Permissions() []string { return slices.Clone(d.permissions) }

// Metadata returns free-form string metadata.
func (d *Document) Metadata() map[string]string { return d.metadata }

// CreatedAt returns the creation time (UTC).
func (d *Document) CreatedAt() time.Time { return d.createdAt }

// UpdatedAt returns the last update time (UTC).
func (d *Document) UpdatedAt() time.Time { return d.updatedAt }

// Vector returns the embedding vector.
func (d *Document) Vector() []float32 { return d.vector }

// EmbeddingText is the text embedded for semantic search: title and content.
func (d *Document) EmbeddingText() string {
	if d.title == "" {
		return d.content
	}
	return d.title + "\n\n" + d.content
}

// WithVector returns a copy with the given vector set.
func (d *Document) WithVector(v []float32) Document {
	c := *d
	c.vector = v
	return c
}
