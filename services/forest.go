package services

import "github.com/threadline/comments-backend/models"

// FindNode searches the whole forest depth-first.
func FindNode(forest []*models.Node, id string) *models.Node {
	for _, n := range forest {
		if n.ID == id {
			return n
		}
		if found := FindNode(n.Replies, id); found != nil {
			return found
		}
	}
	return nil
}

// AttachReply appends n under parentID, or as a root when parentID is empty.
// When the parent is not in the forest the forest is returned unchanged and
// attached is false. Nodes on the path to the parent are copied, so earlier
// forests are left as they were.
func AttachReply(forest []*models.Node, parentID string, n *models.Node) (out []*models.Node, attached bool) {
	if n.Replies == nil {
		n.Replies = []*models.Node{}
	}
	if parentID == "" {
		n.ParentID = ""
		out = make([]*models.Node, 0, len(forest)+1)
		return append(append(out, forest...), n), true
	}

	previous := n.ParentID
	n.ParentID = parentID
	out, attached = attachUnder(forest, parentID, n)
	if !attached {
		n.ParentID = previous
		return forest, false
	}
	return out, true
}

func attachUnder(nodes []*models.Node, parentID string, n *models.Node) ([]*models.Node, bool) {
	for i, node := range nodes {
		var replies []*models.Node
		if node.ID == parentID {
			replies = make([]*models.Node, 0, len(node.Replies)+1)
			replies = append(append(replies, node.Replies...), n)
		} else if r, ok := attachUnder(node.Replies, parentID, n); ok {
			replies = r
		} else {
			continue
		}
		cp := *node
		cp.Replies = replies
		out := append([]*models.Node(nil), nodes...)
		out[i] = &cp
		return out, true
	}
	return nodes, false
}

// RemoveSubtree drops the node with the given id and all of its descendants,
// wherever it sits in the forest. Ancestors of a removed node are copied;
// untouched subtrees are shared with the input.
func RemoveSubtree(forest []*models.Node, id string) (out []*models.Node, removed bool) {
	out = make([]*models.Node, 0, len(forest))
	for _, n := range forest {
		if n.ID == id {
			removed = true
			continue
		}
		if replies, childRemoved := RemoveSubtree(n.Replies, id); childRemoved {
			cp := *n
			cp.Replies = replies
			n = &cp
			removed = true
		}
		out = append(out, n)
	}
	if !removed {
		return forest, false
	}
	return out, true
}

// CountNodes returns the number of nodes reachable from the roots.
func CountNodes(forest []*models.Node) int {
	total := 0
	for _, n := range forest {
		total += 1 + CountNodes(n.Replies)
	}
	return total
}
