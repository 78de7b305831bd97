package services

import (
	"fmt"
	"time"

	"github.com/threadline/comments-backend/models"
)

// TimeFormat is the interchange format of createdAt: ISO-8601, UTC, milliseconds.
const TimeFormat = "2006-01-02T15:04:05.000Z"

// BuildTree turns a flat, creation-ordered record list into a forest.
// Records whose parent is not in the list are dropped.
func BuildTree(records []models.Comment) []*models.Node {
	nodes := make([]*models.Node, len(records))
	index := make(map[string]*models.Node, len(records))

	for i, rec := range records {
		n := &models.Node{
			ID:        rec.ID,
			Text:      rec.Text,
			CreatedAt: rec.CreatedAt,
			Replies:   []*models.Node{},
		}
		if !rec.IsRoot() {
			n.ParentID = *rec.ParentID
		}
		nodes[i] = n
		index[rec.ID] = n
	}

	roots := make([]*models.Node, 0)
	for i, rec := range records {
		n := nodes[i]
		if rec.IsRoot() {
			roots = append(roots, n)
			continue
		}
		if parent, ok := index[n.ParentID]; ok {
			parent.Replies = append(parent.Replies, n)
		}
	}
	return roots
}

// FlattenForest lists every node of the forest in pre-order. Sibling order is
// kept, so BuildTree(FlattenForest(f)) rebuilds f.
func FlattenForest(forest []*models.Node) []models.Comment {
	out := make([]models.Comment, 0, len(forest))
	var walk func(nodes []*models.Node)
	walk = func(nodes []*models.Node) {
		for _, n := range nodes {
			out = append(out, n.Record())
			walk(n.Replies)
		}
	}
	walk(forest)
	return out
}

// ToWire converts a node and its replies to the interchange form.
func ToWire(n *models.Node) models.WireComment {
	w := models.WireComment{
		ID:        n.ID,
		Text:      n.Text,
		CreatedAt: n.CreatedAt.UTC().Format(TimeFormat),
		ParentID:  n.ParentID,
		Replies:   make([]models.WireComment, 0, len(n.Replies)),
	}
	for _, r := range n.Replies {
		w.Replies = append(w.Replies, ToWire(r))
	}
	return w
}

// FromWire parses the interchange form back into a node. The parent of every
// nested reply is the node it is nested in, whatever its parentId says.
func FromWire(w models.WireComment) (*models.Node, error) {
	return fromWire(w, w.ParentID)
}

func fromWire(w models.WireComment, parentID string) (*models.Node, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, w.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: comment %q: %v", ErrMalformedData, w.ID, err)
	}
	if w.ID == "" {
		return nil, fmt.Errorf("%w: comment without id", ErrMalformedData)
	}

	n := &models.Node{
		ID:        w.ID,
		Text:      w.Text,
		CreatedAt: createdAt.UTC(),
		ParentID:  parentID,
		Replies:   make([]*models.Node, 0, len(w.Replies)),
	}
	for _, rw := range w.Replies {
		r, err := fromWire(rw, w.ID)
		if err != nil {
			return nil, err
		}
		n.Replies = append(n.Replies, r)
	}
	return n, nil
}

func ToWireForest(forest []*models.Node) []models.WireComment {
	out := make([]models.WireComment, 0, len(forest))
	for _, n := range forest {
		out = append(out, ToWire(n))
	}
	return out
}

// FromWireForest converts a whole forest; nothing is returned if any node
// fails. Top-level entries are roots and nested entries belong to their
// enclosing node, so stray parentId fields are ignored.
func FromWireForest(wire []models.WireComment) ([]*models.Node, error) {
	out := make([]*models.Node, 0, len(wire))
	for _, w := range wire {
		n, err := fromWire(w, "")
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
