package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"prompthub/services/library-api/internal/domain/session"
	"prompthub/services/library-api/internal/infrastructure/auth"
	"prompthub/services/library-api/internal/infrastructure/metrics"
	"prompthub/services/library-api/internal/interfaces/httpserver/middlewares"
	"prompthub/services/library-api/internal/interfaces/httpserver/requests"
	"prompthub/services/library-api/internal/interfaces/httpserver/responses"
	"prompthub/services/library-api/internal/utils/platformerrors"
)

// SessionHandler exposes the collaborative session endpoints. Each client
// id gets its own session store so remembered identity and the active
// session track the caller, not the process.
type SessionHandler struct {
	manager *session.Manager
	log     zerolog.Logger
}

func NewSessionHandler(manager *session.Manager, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		manager: manager,
		log:     log.With().Str("component", "session-handler").Logger(),
	}
}

func (h *SessionHandler) store(c *gin.Context) *session.Store {
	return h.manager.StoreFor(middlewares.ClientIDFromContext(c), auth.Subject(c))
}

// Create starts a new session. Authenticated callers own the session;
// anonymous ones get the shared owner sentinel.
func (h *SessionHandler) Create(c *gin.Context) {
	ownerID := auth.Subject(c)
	id, err := h.store(c).CreateSession(c.Request.Context(), ownerID)
	if err != nil {
		responses.HandleError(c, err, "failed to create session")
		return
	}
	metrics.SessionsCreatedTotal.Inc()
	c.JSON(http.StatusCreated, gin.H{"session_id": id})
}

// List returns the caller's sessions, skipping ids whose documents are gone.
func (h *SessionHandler) List(c *gin.Context) {
	records, err := h.store(c).ListSessions(c.Request.Context(), auth.Subject(c))
	if err != nil {
		responses.HandleError(c, err, "failed to list sessions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": records})
}

// Get loads one session document.
func (h *SessionHandler) Get(c *gin.Context) {
	record, err := h.store(c).GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "failed to load session")
		return
	}
	if record == nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeNotFound, "session not found",
			"b4c8d2e6-1f3a-4b5c-8d7e-9f0a1b2c3d4f")
		return
	}
	c.JSON(http.StatusOK, record)
}

// Attach makes a session the store's active one and starts watching for
// concurrent changes.
func (h *SessionHandler) Attach(c *gin.Context) {
	store := h.store(c)
	if err := store.Attach(c.Request.Context(), c.Param("id")); err != nil {
		responses.HandleError(c, err, "failed to attach to session")
		return
	}
	c.JSON(http.StatusOK, store.Current())
}

// Resync re-reads the active session document, dropping any stale cache.
func (h *SessionHandler) Resync(c *gin.Context) {
	store := h.store(c)
	if err := store.Resync(c.Request.Context()); err != nil {
		responses.HandleError(c, err, "failed to resync session")
		return
	}
	c.JSON(http.StatusOK, store.Current())
}

// Join adds the caller to a session's participant list.
func (h *SessionHandler) Join(c *gin.Context) {
	var req requests.JoinSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	participant, err := h.store(c).JoinSession(c.Request.Context(), c.Param("id"), req.Name, req.Department)
	if err != nil {
		responses.HandleError(c, err, "failed to join session")
		return
	}
	metrics.SessionJoinsTotal.Inc()
	c.JSON(http.StatusOK, participant)
}

// Participant returns the identity this client joined the session with.
func (h *SessionHandler) Participant(c *gin.Context) {
	participant, err := h.store(c).LocalParticipant(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "failed to load participant")
		return
	}
	if participant == nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeNotFound, "not joined",
			"c5d9e3f7-2a4b-4c6d-9e8f-0a1b2c3d4e50")
		return
	}
	c.JSON(http.StatusOK, participant)
}

// AddFeedItem posts a shared case to the session feed.
func (h *SessionHandler) AddFeedItem(c *gin.Context) {
	var req requests.AddFeedItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.store(c).AddFeedItem(c.Request.Context(), c.Param("id"), session.AddFeedItemInput{
		Kind:       session.Kind(req.Kind),
		Title:      req.Title,
		UseCase:    req.UseCase,
		PromptBody: req.PromptBody,
		ImageURL:   req.ImageURL,
		LinkURL:    req.LinkURL,
	})
	if err != nil {
		responses.HandleError(c, err, "failed to post feed item")
		return
	}
	metrics.FeedItemsTotal.WithLabelValues(req.Kind).Inc()
	c.JSON(http.StatusCreated, item)
}

// Like bumps a feed item's like counter.
func (h *SessionHandler) Like(c *gin.Context) {
	if err := h.store(c).ToggleLike(c.Request.Context(), c.Param("id"), c.Param("itemId")); err != nil {
		responses.HandleError(c, err, "failed to like feed item")
		return
	}
	c.Status(http.StatusNoContent)
}

// Comment appends a comment to a feed item.
func (h *SessionHandler) Comment(c *gin.Context) {
	var req requests.AddFeedCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store(c).AddComment(c.Request.Context(), c.Param("id"), c.Param("itemId"), req.Text); err != nil {
		responses.HandleError(c, err, "failed to comment on feed item")
		return
	}
	c.Status(http.StatusNoContent)
}

// Rate records a star rating on a feed item.
func (h *SessionHandler) Rate(c *gin.Context) {
	var req requests.RateFeedItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store(c).RateItem(c.Request.Context(), c.Param("id"), c.Param("itemId"), req.Stars); err != nil {
		responses.HandleError(c, err, "failed to rate feed item")
		return
	}
	c.Status(http.StatusNoContent)
}
