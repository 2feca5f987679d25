package document

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/recall/internal/db"
	"github.com/kailas-cloud/recall/internal/domain"
	domdoc "github.com/kailas-cloud/recall/internal/domain/document"
)

// store is the consumer interface for documents (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	Del(ctx context.Context, key string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Repo stores documents as hashes covered by the document index.
type Repo struct {
	store       store
	dims        int
	hnswM       int
	efConstruct int
}

// New creates a document repository for vectors of the given dimension.
func New(s store, dims, hnswM, efConstruct int) *Repo {
	return &Repo{store: s, dims: dims, hnswM: hnswM, efConstruct: efConstruct}
}

// EnsureIndex creates the document index unless it already exists.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, domain.DocumentIndex)
	if err != nil {
		return fmt.Errorf("check index %s: %w", domain.DocumentIndex, err)
	}
	if exists {
		return nil
	}

	def, err := IndexDefinition(r.dims, r.hnswM, r.efConstruct)
	if err != nil {
		return fmt.Errorf("build index definition: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", domain.DocumentIndex, err)
	}
	return nil
}

// Upsert writes a vectorized document, replacing indexed fields of an existing one.
func (r *Repo) Upsert(ctx context.Context, doc *domdoc.Document) error {
	if len(doc.Vector()) != r.dims {
		return fmt.Errorf("got %d, want %d: %w", len(doc.Vector()), r.dims, domain.ErrVectorDimMismatch)
	}

	key := Key(doc.ID())
	fields, err := toHash(doc)
	if err != nil {
		return err
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// BatchUpsert writes vectorized documents in one pipelined round-trip.
// Dimensions are checked for every document before anything is written.
func (r *Repo) BatchUpsert(ctx context.Context, docs []domdoc.Document) error {
	items := make([]db.HashSetItem, len(docs))
	for i := range docs {
		if n := len(docs[i].Vector()); n != r.dims {
			return fmt.Errorf("document %s: got %d, want %d: %w", docs[i].ID(), n, r.dims, domain.ErrVectorDimMismatch)
		}
		fields, err := toHash(&docs[i])
		if err != nil {
			return fmt.Errorf("document %s: %w", docs[i].ID(), err)
		}
		items[i] = db.HashSetItem{Key: Key(docs[i].ID()), Fields: fields}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset %d documents: %w", len(items), err)
	}
	return nil
}

// Delete removes a document. Returns domain.ErrDocumentNotFound when absent.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := Key(id)
	existed, err := r.store.Del(ctx, key)
	if err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	if !existed {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func toHash(doc *domdoc.Document) (map[string]string, error) {
	meta, err := EncodeMetadata(doc.Metadata())
	if err != nil {
		return nil, err
	}
	fields := make(map[string]string, 9)
	if meta != "" {
		fields[FieldMetadata] = meta
	}
	fields[FieldTitle] = doc.Title()
	fields[FieldContent] = doc.Content()
	fields[FieldSourceType] = doc.SourceType()
	fields[FieldSourceID] = doc.SourceID()
	fields[FieldPermissions] = strings.Join(doc.Permissions(), PermissionSeparator)
	fields[FieldCreatedAt] = strconv.FormatInt(doc.CreatedAt().Unix(), 10)
	fields[FieldUpdatedAt] = strconv.FormatInt(doc.UpdatedAt().Unix(), 10)
	fields[FieldVector] = vectorToBytes(doc.Vector())
	return fields, nil
}

// vectorToBytes encodes a vector as little-endian FLOAT32, the layout the HNSW field expects.
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
