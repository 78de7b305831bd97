package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/threadline/comments-backend/models"
)

// RecordStore persists flat comment records.
type RecordStore interface {
	// ListAll returns every record ordered by creation time ascending.
	ListAll(ctx context.Context) ([]models.Comment, error)
	Insert(ctx context.Context, c models.Comment) error
	// DeleteCascading removes the record and every record below it. Unknown
	// ids are not an error.
	DeleteCascading(ctx context.Context, id string) error
}

// CommentService applies comment operations against an authoritative store
// and materializes the forest on every read.
type CommentService struct {
	store RecordStore
	log   zerolog.Logger
	now   func() time.Time
	newID func() string
}

func NewCommentService(store RecordStore, log zerolog.Logger) *CommentService {
	return &CommentService{
		store: store,
		log:   log.With().Str("component", "comment-service").Logger(),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// ListComments loads all records and builds the forest.
func (s *CommentService) ListComments(ctx context.Context) ([]*models.Node, error) {
	records, err := s.store.ListAll(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("list comments")
		return nil, storeError(err)
	}
	return BuildTree(records), nil
}

// AddComment validates the text, stores a new record and returns it as a
// node without replies.
func (s *CommentService) AddComment(ctx context.Context, text, parentID string) (*models.Node, error) {
	text, err := NormalizeText(text)
	if err != nil {
		return nil, err
	}

	node := &models.Node{
		ID:        s.newID(),
		Text:      text,
		CreatedAt: s.now().UTC(),
		ParentID:  parentID,
		Replies:   []*models.Node{},
	}
	if err := s.store.Insert(ctx, node.Record()); err != nil {
		s.log.Error().Err(err).Str("parent_id", parentID).Msg("insert comment")
		return nil, storeError(err)
	}

	s.log.Debug().Str("comment_id", node.ID).Str("parent_id", parentID).Msg("comment added")
	return node, nil
}

// DeleteComment removes the comment and its whole subtree.
func (s *CommentService) DeleteComment(ctx context.Context, id string) error {
	if err := s.store.DeleteCascading(ctx, id); err != nil {
		s.log.Error().Err(err).Str("comment_id", id).Msg("delete comment")
		return storeError(err)
	}
	s.log.Debug().Str("comment_id", id).Msg("comment deleted")
	return nil
}

func storeError(err error) error {
	switch {
	case errors.Is(err, ErrParentNotFound),
		errors.Is(err, ErrMalformedData),
		errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
