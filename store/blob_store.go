package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/threadline/comments-backend/models"
	"github.com/threadline/comments-backend/services"
)

var (
	// ErrBlobNotFound is returned by a Blob that holds no data yet.
	ErrBlobNotFound = errors.New("blob not found")
	// ErrWatchUnsupported is returned when the blob medium cannot report changes.
	ErrWatchUnsupported = errors.New("blob medium does not support change notifications")
)

// Blob is a single opaque document the comment forest is persisted into.
type Blob interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// Watcher reports changes to persisted data made outside this process.
type Watcher interface {
	Watch(ctx context.Context, onChange func()) error
}

// BlobStore keeps the whole forest in one JSON document and mutates it in
// memory on every write.
type BlobStore struct {
	mu   sync.Mutex
	blob Blob
	log  zerolog.Logger
}

func NewBlobStore(blob Blob, log zerolog.Logger) *BlobStore {
	return &BlobStore{
		blob: blob,
		log:  log.With().Str("component", "blob-store").Logger(),
	}
}

func (s *BlobStore) ListAll(ctx context.Context) ([]models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	forest, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return services.FlattenForest(forest), nil
}

// Insert attaches the record to the stored forest. A reply whose parent is not
// in the forest is dropped without error; an id already in the forest is
// rejected.
func (s *BlobStore) Insert(ctx context.Context, c models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	forest, err := s.load(ctx)
	if err != nil {
		return err
	}
	if services.FindNode(forest, c.ID) != nil {
		return fmt.Errorf("%w: duplicate comment id %q", services.ErrStoreUnavailable, c.ID)
	}

	node := &models.Node{ID: c.ID, Text: c.Text, CreatedAt: c.CreatedAt}
	parentID := ""
	if !c.IsRoot() {
		parentID = *c.ParentID
	}
	forest, attached := services.AttachReply(forest, parentID, node)
	if !attached {
		s.log.Warn().Str("comment_id", c.ID).Str("parent_id", parentID).Msg("parent not in stored forest, reply dropped")
		return nil
	}
	return s.save(ctx, forest)
}

func (s *BlobStore) DeleteCascading(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	forest, err := s.load(ctx)
	if err != nil {
		return err
	}
	forest, removed := services.RemoveSubtree(forest, id)
	if !removed {
		return nil
	}
	return s.save(ctx, forest)
}

// Watch forwards external change notifications of the underlying blob.
func (s *BlobStore) Watch(ctx context.Context, onChange func()) error {
	w, ok := s.blob.(Watcher)
	if !ok {
		return ErrWatchUnsupported
	}
	return w.Watch(ctx, onChange)
}

func (s *BlobStore) load(ctx context.Context) ([]*models.Node, error) {
	data, err := s.blob.Read(ctx)
	if errors.Is(err, ErrBlobNotFound) {
		return []*models.Node{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read blob: %v", services.ErrStoreUnavailable, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []*models.Node{}, nil
	}

	var wire []models.WireComment
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", services.ErrMalformedData, err)
	}
	return services.FromWireForest(wire)
}

func (s *BlobStore) save(ctx context.Context, forest []*models.Node) error {
	data, err := json.MarshalIndent(services.ToWireForest(forest), "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode blob: %v", services.ErrStoreUnavailable, err)
	}
	if err := s.blob.Write(ctx, data); err != nil {
		return fmt.Errorf("%w: write blob: %v", services.ErrStoreUnavailable, err)
	}
	s.log.Debug().Int("comments", services.CountNodes(forest)).Msg("blob saved")
	return nil
}
