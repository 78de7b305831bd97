package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/threadline/comments-backend/middleware"
	"github.com/threadline/comments-backend/routes"
	"github.com/threadline/comments-backend/services"
	"github.com/threadline/comments-backend/store"
	"github.com/threadline/comments-backend/ws"
)

type testServer struct {
	*httptest.Server
	hub *ws.Hub
}

func (s *testServer) apiURL() string {
	return s.URL + "/api"
}

func (s *testServer) wsURL() string {
	return "ws" + s.URL[len("http"):] + "/ws/comments"
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, middleware.RegisterValidators())

	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	st := store.NewGormStore(db)
	require.NoError(t, st.Migrate(context.Background()))

	hub := ws.NewHub(zerolog.Nop())
	r := routes.NewEngine([]string{"*"}, nil, zerolog.Nop())
	routes.SetupRouter(r, routes.Deps{
		Comments: services.NewCommentService(st, zerolog.Nop()),
		Store:    st,
		Hub:      hub,
		Log:      zerolog.Nop(),
	})

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
		st.Close()
	})
	return &testServer{Server: srv, hub: hub}
}

func TestAPIClient_AddListDelete(t *testing.T) {
	srv := newTestServer(t)
	api := NewAPIClient(srv.apiURL(), 5*time.Second)
	ctx := context.Background()

	root, err := api.AddComment(ctx, "  hello  ", "")
	require.NoError(t, err)
	assert.Equal(t, "hello", root.Text)
	assert.Empty(t, root.ParentID)
	assert.NotNil(t, root.Replies)

	reply, err := api.AddComment(ctx, "reply", root.ID)
	require.NoError(t, err)
	assert.Equal(t, root.ID, reply.ParentID)

	forest, err := api.ListComments(ctx)
	require.NoError(t, err)
	require.Len(t, forest, 1)
	require.Len(t, forest[0].Replies, 1)
	assert.Equal(t, reply.ID, forest[0].Replies[0].ID)

	require.NoError(t, api.DeleteComment(ctx, root.ID))
	forest, err = api.ListComments(ctx)
	require.NoError(t, err)
	assert.Empty(t, forest)
}

func TestAPIClient_DeleteUnknownIsNoop(t *testing.T) {
	srv := newTestServer(t)
	api := NewAPIClient(srv.apiURL(), 5*time.Second)

	assert.NoError(t, api.DeleteComment(context.Background(), "does-not-exist"))
}

func TestAPIClient_Errors(t *testing.T) {
	srv := newTestServer(t)
	api := NewAPIClient(srv.apiURL(), 5*time.Second)
	ctx := context.Background()

	_, err := api.AddComment(ctx, "   ", "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Text is required", apiErr.Message)
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	_, err = api.AddComment(ctx, "orphan", "missing-parent")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Parent comment not found", apiErr.Message)
	assert.ErrorIs(t, err, services.ErrParentNotFound)
}

func TestAPIClient_ServerFailure(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Failed to fetch comments"}`))
	}))
	defer broken.Close()

	_, err := NewAPIClient(broken.URL+"/api", time.Second).ListComments(context.Background())

	assert.ErrorIs(t, err, services.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "Failed to fetch comments")
}

func TestAPIClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL + "/api"
	srv.Close()

	_, err := NewAPIClient(base, time.Second).ListComments(context.Background())

	assert.ErrorIs(t, err, services.ErrStoreUnavailable)
}
