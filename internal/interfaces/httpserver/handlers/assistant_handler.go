package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"prompthub/services/library-api/internal/domain/prompt"
	"prompthub/services/library-api/internal/interfaces/httpserver/requests"
	"prompthub/services/library-api/internal/interfaces/httpserver/responses"
)

// AssistantHandler exposes the catalog search assistant.
type AssistantHandler struct {
	service *prompt.Service
	log     zerolog.Logger
}

func NewAssistantHandler(service *prompt.Service, log zerolog.Logger) *AssistantHandler {
	return &AssistantHandler{
		service: service,
		log:     log.With().Str("component", "assistant-handler").Logger(),
	}
}

// Search answers a free-text query with recommendations grounded on the
// live catalog.
func (h *AssistantHandler) Search(c *gin.Context) {
	var req requests.SearchPromptsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.SearchPrompts(c.Request.Context(), req.Query)
	if err != nil {
		responses.HandleError(c, err, "assistant search failed")
		return
	}
	c.JSON(http.StatusOK, result)
}
