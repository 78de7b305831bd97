package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/threadline/comments-backend/middleware"
	"github.com/threadline/comments-backend/models"
	"github.com/threadline/comments-backend/services"
)

// CommentBackend is the set of comment operations the HTTP layer exposes.
type CommentBackend interface {
	ListComments(ctx context.Context) ([]*models.Node, error)
	AddComment(ctx context.Context, text, parentID string) (*models.Node, error)
	DeleteComment(ctx context.Context, id string) error
}

type CommentController struct {
	comments CommentBackend
	metrics  *middleware.Metrics
	log      zerolog.Logger
}

func NewCommentController(comments CommentBackend, metrics *middleware.Metrics, log zerolog.Logger) *CommentController {
	return &CommentController{
		comments: comments,
		metrics:  metrics,
		log:      log.With().Str("component", "comment-controller").Logger(),
	}
}

// GetComments returns the whole forest in wire form.
func (h *CommentController) GetComments(c *gin.Context) {
	forest, err := h.comments.ListComments(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("fetch comments")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}
	c.JSON(http.StatusOK, services.ToWireForest(forest))
}

// CreateComment adds a root comment or a reply.
func (h *CommentController) CreateComment(c *gin.Context) {
	var req models.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Text is required"})
		return
	}

	node, err := h.comments.AddComment(c.Request.Context(), req.Text, req.ParentID)
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Text is required"})
		return
	case errors.Is(err, services.ErrParentNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Parent comment not found"})
		return
	case err != nil:
		h.log.Error().Err(err).Msg("add comment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add comment"})
		return
	}

	if h.metrics != nil {
		h.metrics.CommentsCreated.Inc()
	}
	c.JSON(http.StatusCreated, services.ToWire(node))
}

// DeleteComment removes a comment with all of its replies. Unknown ids
// still answer 204.
func (h *CommentController) DeleteComment(c *gin.Context) {
	id := c.Param("id")
	if err := h.comments.DeleteComment(c.Request.Context(), id); err != nil {
		h.log.Error().Err(err).Str("comment_id", id).Msg("delete comment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		return
	}

	if h.metrics != nil {
		h.metrics.DeleteRequests.Inc()
	}
	c.Status(http.StatusNoContent)
}
