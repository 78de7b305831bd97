package client

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/threadline/comments-backend/models"
	"github.com/threadline/comments-backend/services"
)

// Mode selects how the session keeps its forest in step with the backend.
type Mode int

const (
	// ModeRemote treats the backend as authoritative: replies trigger a full
	// reload because the new node's position is only known server side.
	ModeRemote Mode = iota
	// ModeLocal patches the in-memory forest directly after every write.
	ModeLocal
)

// Backend is the comment capability a session drives. *APIClient and
// *services.CommentService both satisfy it.
type Backend interface {
	ListComments(ctx context.Context) ([]*models.Node, error)
	AddComment(ctx context.Context, text, parentID string) (*models.Node, error)
	DeleteComment(ctx context.Context, id string) error
}

// ChangeSource signals that the persisted comments changed elsewhere.
type ChangeSource interface {
	Watch(ctx context.Context, onChange func()) error
}

// Session holds one user's view of the comment forest.
type Session struct {
	backend Backend
	mode    Mode
	log     zerolog.Logger

	// ops serializes backend operations; mu guards the fields below.
	ops     sync.Mutex
	mu      sync.RWMutex
	forest  []*models.Node
	loading bool
	errMsg  string
}

func NewSession(backend Backend, mode Mode, log zerolog.Logger) *Session {
	return &Session{
		backend: backend,
		mode:    mode,
		log:     log.With().Str("component", "comment-session").Logger(),
		forest:  []*models.Node{},
	}
}

// Comments returns the current forest. Later mutations copy the nodes they
// change, so a returned forest stays as it was. Callers must not modify it.
func (s *Session) Comments() []*models.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*models.Node(nil), s.forest...)
}

func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the last user-visible error message, empty when the last
// operation succeeded.
func (s *Session) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// Load replaces the forest with a fresh copy from the backend. On failure
// the previous forest is kept.
func (s *Session) Load(ctx context.Context) error {
	s.ops.Lock()
	defer s.ops.Unlock()
	return s.load(ctx)
}

// Refetch is Load under the name the UI uses for its retry affordance.
func (s *Session) Refetch(ctx context.Context) error {
	return s.Load(ctx)
}

func (s *Session) load(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()

	forest, err := s.backend.ListComments(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = "Failed to load comments: " + err.Error()
		s.log.Error().Err(err).Msg("load comments")
		return err
	}
	s.forest = forest
	return nil
}

// AddComment posts a comment or reply and brings the forest up to date. Once
// the backend has accepted the comment no error is returned: a failed reload
// after a remote reply only shows up in Err, so retrying cannot post it twice.
func (s *Session) AddComment(ctx context.Context, text, parentID string) error {
	if _, err := services.NormalizeText(text); err != nil {
		return err
	}

	s.ops.Lock()
	defer s.ops.Unlock()

	s.setErr("")
	node, err := s.backend.AddComment(ctx, text, parentID)
	if err != nil {
		s.setErr("Failed to add comment: " + err.Error())
		s.log.Error().Err(err).Str("parent_id", parentID).Msg("add comment")
		return err
	}

	if parentID != "" && s.mode == ModeRemote {
		if err := s.load(ctx); err != nil {
			s.log.Warn().Err(err).Str("comment_id", node.ID).Msg("reply saved, reload failed")
		}
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var attached bool
	s.forest, attached = services.AttachReply(s.forest, parentID, node)
	if !attached {
		s.log.Warn().Str("comment_id", node.ID).Str("parent_id", parentID).Msg("parent not in forest, reply not shown")
	}
	return nil
}

// DeleteComment removes the comment and its replies from the backend and
// then from the forest.
func (s *Session) DeleteComment(ctx context.Context, id string) error {
	s.ops.Lock()
	defer s.ops.Unlock()

	s.setErr("")
	if err := s.backend.DeleteComment(ctx, id); err != nil {
		s.setErr("Failed to delete comment: " + err.Error())
		s.log.Error().Err(err).Str("comment_id", id).Msg("delete comment")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.forest, _ = services.RemoveSubtree(s.forest, id)
	return nil
}

// Watch reloads the whole forest whenever src reports an external change.
// Unsaved local state is overwritten; the last writer wins.
func (s *Session) Watch(ctx context.Context, src ChangeSource) error {
	return src.Watch(ctx, func() {
		if err := s.Load(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Warn().Err(err).Msg("reload after external change")
		}
	})
}

func (s *Session) setErr(msg string) {
	s.mu.Lock()
	s.errMsg = msg
	s.mu.Unlock()
}
