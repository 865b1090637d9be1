package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prompthub/services/library-api/internal/domain/session"
	"prompthub/services/library-api/internal/infrastructure/kvstore"
	"prompthub/services/library-api/internal/interfaces/httpserver/middlewares"
)

func newSessionRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	manager := session.NewManager(kvstore.NewMemoryStore(), nil, zerolog.Nop())
	t.Cleanup(manager.Close)

	handler := NewSessionHandler(manager, zerolog.Nop())
	router := gin.New()
	group := router.Group("/v1/sessions", middlewares.ClientID())
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
	group.POST("/:id/join", handler.Join)
	group.POST("/:id/feed", handler.AddFeedItem)
	group.POST("/:id/feed/:itemId/like", handler.Like)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, clientID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if clientID != "" {
		req.Header.Set("X-Client-Id", clientID)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSessionRoutes_RequireClientID(t *testing.T) {
	router := newSessionRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/sessions", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionRoutes_CreateJoinPost(t *testing.T) {
	router := newSessionRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/sessions", "browser-1", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.SessionID)

	rec = doJSON(t, router, http.MethodPost, "/v1/sessions/"+created.SessionID+"/join", "browser-1",
		`{"name":"Ann","department":"Support"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/v1/sessions/"+created.SessionID+"/feed", "browser-1",
		`{"kind":"text","title":"Ticket summarizer","use_case":"support","prompt":"Summarize this ticket..."}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var item struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))

	rec = doJSON(t, router, http.MethodPost,
		"/v1/sessions/"+created.SessionID+"/feed/"+item.ID+"/like", "browser-1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/v1/sessions/"+created.SessionID, "browser-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var record session.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	require.Len(t, record.FeedItems, 1)
	assert.Equal(t, 1, record.FeedItems[0].LikeCount)
	require.Len(t, record.Participants, 1)
	assert.Equal(t, "Ann", record.Participants[0].Name)
}

func TestSessionRoutes_PostWithoutJoinForbidden(t *testing.T) {
	router := newSessionRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/sessions", "browser-1", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	// a different client that never joined
	rec = doJSON(t, router, http.MethodPost, "/v1/sessions/"+created.SessionID+"/feed", "browser-2",
		`{"kind":"text","title":"T","use_case":"U","prompt":"P"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSessionRoutes_GetUnknownSession(t *testing.T) {
	router := newSessionRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/sessions/nope", "browser-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
