package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"prompthub/services/library-api/internal/domain/prompt"
	"prompthub/services/library-api/internal/infrastructure/metrics"
	"prompthub/services/library-api/internal/interfaces/httpserver/requests"
	"prompthub/services/library-api/internal/interfaces/httpserver/responses"
)

// maxPhotoBytes caps proof-of-use uploads at 8 MiB.
const maxPhotoBytes = 8 << 20

// PromptHandler exposes the catalog endpoints.
type PromptHandler struct {
	service *prompt.Service
	log     zerolog.Logger
}

func NewPromptHandler(service *prompt.Service, log zerolog.Logger) *PromptHandler {
	return &PromptHandler{
		service: service,
		log:     log.With().Str("component", "prompt-handler").Logger(),
	}
}

// List returns catalog cards matching the query filters.
func (h *PromptHandler) List(c *gin.Context) {
	filter := prompt.Filter{
		Tag:       c.Query("tag"),
		Search:    c.Query("search"),
		SessionID: c.Query("session_id"),
	}
	cards, err := h.service.ListCards(c.Request.Context(), filter)
	if err != nil {
		responses.HandleError(c, err, "failed to list cards")
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": cards})
}

// Get loads one card and counts the view.
func (h *PromptHandler) Get(c *gin.Context) {
	card, err := h.service.GetCard(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "failed to load card")
		return
	}
	c.JSON(http.StatusOK, card)
}

// Create screens and publishes a prompt submission.
func (h *PromptHandler) Create(c *gin.Context) {
	var req requests.CreateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	card, err := h.service.CreateCard(c.Request.Context(), prompt.CreateCardInput{
		Title:      req.Title,
		UseCase:    req.UseCase,
		PromptBody: req.PromptBody,
		Tags:       req.Tags,
		AuthorName: req.AuthorName,
		AuthorRole: req.AuthorRole,
		SessionID:  req.SessionID,
	})
	if err != nil {
		metrics.RecordSafetyCheck(false)
		responses.HandleError(c, err, "failed to publish card")
		return
	}
	metrics.RecordSafetyCheck(true)
	c.JSON(http.StatusCreated, card)
}

// Delete removes a card. Admin only.
func (h *PromptHandler) Delete(c *gin.Context) {
	if err := h.service.DeleteCard(c.Request.Context(), c.Param("id")); err != nil {
		responses.HandleError(c, err, "failed to delete card")
		return
	}
	c.Status(http.StatusNoContent)
}

// Rate records a star rating on a card.
func (h *PromptHandler) Rate(c *gin.Context) {
	var req requests.RateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.RateCard(c.Request.Context(), c.Param("id"), req.Stars); err != nil {
		responses.HandleError(c, err, "failed to rate card")
		return
	}
	c.Status(http.StatusNoContent)
}

// Comment appends a comment to a card.
func (h *PromptHandler) Comment(c *gin.Context) {
	var req requests.CommentCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.CommentCard(c.Request.Context(), c.Param("id"), req.AuthorName, req.Text); err != nil {
		responses.HandleError(c, err, "failed to comment on card")
		return
	}
	c.Status(http.StatusNoContent)
}

// AttachPhoto uploads a proof-of-use image for a card. The payload is the
// raw image body; the content type is sniffed, not trusted.
func (h *PromptHandler) AttachPhoto(c *gin.Context) {
	order, _ := strconv.Atoi(c.Query("order"))

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPhotoBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return
	}
	if len(data) > maxPhotoBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "photo exceeds size limit"})
		return
	}

	photo, err := h.service.AttachPhoto(c.Request.Context(), c.Param("id"), data, order)
	if err != nil {
		metrics.RecordPhotoUpload("unknown", "error")
		responses.HandleError(c, err, "failed to attach photo")
		return
	}
	metrics.RecordPhotoUpload(c.ContentType(), "success")
	c.JSON(http.StatusCreated, photo)
}

// Report files a moderation report against a card or comment.
func (h *PromptHandler) Report(c *gin.Context) {
	var req requests.ReportContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	report, err := h.service.ReportContent(c.Request.Context(), prompt.ReportInput{
		PromptID:  req.PromptID,
		CommentID: req.CommentID,
		Reason:    req.Reason,
	})
	if err != nil {
		responses.HandleError(c, err, "failed to file report")
		return
	}
	c.JSON(http.StatusCreated, report)
}

// ResolveReport marks a report as handled. Admin only.
func (h *PromptHandler) ResolveReport(c *gin.Context) {
	if err := h.service.ResolveReport(c.Request.Context(), c.Param("id")); err != nil {
		responses.HandleError(c, err, "failed to resolve report")
		return
	}
	c.Status(http.StatusNoContent)
}
