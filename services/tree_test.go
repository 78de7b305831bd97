package services

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadline/comments-backend/models"
)

var baseTime = time.Date(2049, 1, 1, 10, 0, 0, 0, time.UTC)

func record(id, parent string, minute int) models.Comment {
	c := models.Comment{
		ID:        id,
		Text:      "comment " + id,
		CreatedAt: baseTime.Add(time.Duration(minute) * time.Minute),
	}
	if parent != "" {
		p := parent
		c.ParentID = &p
	}
	return c
}

func ids(nodes []*models.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func TestBuildTree_NestedReplies(t *testing.T) {
	records := []models.Comment{
		record("1", "", 0),
		record("2", "1", 1),
		record("3", "", 2),
		record("4", "2", 3),
	}

	roots := BuildTree(records)

	require.Len(t, roots, 2)
	assert.Equal(t, []string{"1", "3"}, ids(roots))
	require.Len(t, roots[0].Replies, 1)
	assert.Equal(t, "2", roots[0].Replies[0].ID)
	assert.Equal(t, "1", roots[0].Replies[0].ParentID)
	require.Len(t, roots[0].Replies[0].Replies, 1)
	assert.Equal(t, "4", roots[0].Replies[0].Replies[0].ID)
	assert.Empty(t, roots[1].Replies)
}

func TestBuildTree_EmptyInput(t *testing.T) {
	roots := BuildTree(nil)
	assert.NotNil(t, roots)
	assert.Empty(t, roots)
}

func TestBuildTree_DropsOrphans(t *testing.T) {
	records := []models.Comment{
		record("1", "missing", 0),
		record("2", "", 1),
		record("3", "1", 2),
	}

	roots := BuildTree(records)

	assert.Equal(t, []string{"2"}, ids(roots))
	assert.Empty(t, roots[0].Replies)
	assert.Nil(t, FindNode(roots, "1"))
	assert.Nil(t, FindNode(roots, "3"))
}

func TestBuildTree_PreservesInputOrder(t *testing.T) {
	records := []models.Comment{
		record("c", "", 0),
		record("a", "", 1),
		record("c3", "c", 2),
		record("c1", "c", 3),
		record("b", "", 4),
		record("c2", "c", 5),
	}

	roots := BuildTree(records)

	assert.Equal(t, []string{"c", "a", "b"}, ids(roots))
	assert.Equal(t, []string{"c3", "c1", "c2"}, ids(roots[0].Replies))
}

func TestBuildTree_ReplyBeforeParent(t *testing.T) {
	records := []models.Comment{
		record("2", "1", 1),
		record("1", "", 0),
	}

	roots := BuildTree(records)

	require.Len(t, roots, 1)
	assert.Equal(t, "1", roots[0].ID)
	assert.Equal(t, []string{"2"}, ids(roots[0].Replies))
}

func TestBuildTree_CycleIsUnreachable(t *testing.T) {
	records := []models.Comment{
		record("a", "b", 0),
		record("b", "a", 1),
		record("self", "self", 2),
		record("root", "", 3),
	}

	roots := BuildTree(records)

	assert.Equal(t, []string{"root"}, ids(roots))
	assert.Equal(t, 1, CountNodes(roots))
}

func TestBuildTree_DeepChain(t *testing.T) {
	const depth = 5000
	records := make([]models.Comment, 0, depth)
	records = append(records, record("n0", "", 0))
	for i := 1; i < depth; i++ {
		records = append(records, record(idFor(i), idFor(i-1), i))
	}

	roots := BuildTree(records)

	require.Len(t, roots, 1)
	assert.Equal(t, depth, CountNodes(roots))
}

func idFor(i int) string {
	return "n" + strconv.Itoa(i)
}

func TestWireRoundTrip(t *testing.T) {
	roots := BuildTree([]models.Comment{
		record("1", "", 0),
		record("2", "1", 1),
		record("3", "2", 2),
		record("4", "", 3),
	})

	wire := ToWireForest(roots)
	back, err := FromWireForest(wire)

	require.NoError(t, err)
	assert.Equal(t, roots, back)
}

func TestToWire_Format(t *testing.T) {
	n := &models.Node{
		ID:        "1",
		Text:      "hello",
		CreatedAt: time.Date(2049, 1, 1, 10, 0, 0, 123456789, time.FixedZone("X", 3600)),
	}

	w := ToWire(n)

	assert.Equal(t, "2049-01-01T09:00:00.123Z", w.CreatedAt)
	assert.Empty(t, w.ParentID)
	assert.NotNil(t, w.Replies)
	assert.Empty(t, w.Replies)
}

func TestFromWire_MalformedTimestamp(t *testing.T) {
	_, err := FromWireForest([]models.WireComment{
		{ID: "1", Text: "ok", CreatedAt: "2049-01-01T10:00:00.000Z"},
		{ID: "2", Text: "bad", CreatedAt: "yesterday"},
	})

	assert.ErrorIs(t, err, ErrMalformedData)
}

func TestFlattenForest_RebuildsSameForest(t *testing.T) {
	roots := BuildTree([]models.Comment{
		record("1", "", 0),
		record("2", "", 1),
		record("3", "1", 2),
		record("4", "2", 3),
		record("5", "1", 4),
	})

	flat := FlattenForest(roots)

	assert.Equal(t, []string{"1", "3", "5", "2", "4"}, []string{flat[0].ID, flat[1].ID, flat[2].ID, flat[3].ID, flat[4].ID})
	assert.Equal(t, roots, BuildTree(flat))
}

func TestFromWireForest_ParentFollowsNesting(t *testing.T) {
	const ts = "2049-01-01T10:00:00.000Z"
	wire := []models.WireComment{{
		ID: "1", Text: "root", CreatedAt: ts, ParentID: "stray",
		Replies: []models.WireComment{
			{ID: "2", Text: "no parent field", CreatedAt: ts, Replies: []models.WireComment{
				{ID: "3", Text: "wrong parent field", CreatedAt: ts, ParentID: "1"},
			}},
		},
	}}

	forest, err := FromWireForest(wire)
	require.NoError(t, err)

	assert.Empty(t, forest[0].ParentID)
	assert.Equal(t, "1", forest[0].Replies[0].ParentID)
	assert.Equal(t, "2", forest[0].Replies[0].Replies[0].ParentID)

	rebuilt := BuildTree(FlattenForest(forest))
	require.Len(t, rebuilt, 1)
	require.Len(t, rebuilt[0].Replies, 1)
	assert.Equal(t, []string{"3"}, ids(rebuilt[0].Replies[0].Replies))
}

func TestFromWire_KeepsTopLevelParent(t *testing.T) {
	n, err := FromWire(models.WireComment{ID: "2", Text: "reply", CreatedAt: "2049-01-01T10:00:00.000Z", ParentID: "1"})

	require.NoError(t, err)
	assert.Equal(t, "1", n.ParentID)
}
