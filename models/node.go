package models

import "time"

// Node is the materialized tree form of a Comment.
type Node struct {
	ID        string
	Text      string
	CreatedAt time.Time
	ParentID  string
	Replies   []*Node
}

// Record returns the flat form of the node without its replies.
func (n *Node) Record() Comment {
	c := Comment{ID: n.ID, Text: n.Text, CreatedAt: n.CreatedAt}
	if n.ParentID != "" {
		parent := n.ParentID
		c.ParentID = &parent
	}
	return c
}

// WireComment is the JSON interchange shape shared by the HTTP API and the
// persisted blob.
type WireComment struct {
	ID        string        `json:"id"`
	Text      string        `json:"text"`
	CreatedAt string        `json:"createdAt"`
	ParentID  string        `json:"parentId,omitempty"`
	Replies   []WireComment `json:"replies"`
}

// CreateCommentRequest is the body accepted by POST /api/comments.
type CreateCommentRequest struct {
	Text     string `json:"text" binding:"required,notblank"`
	ParentID string `json:"parentId,omitempty"`
}
