package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pitchcraft/pitchcraft-api/internal/auth"
	"github.com/pitchcraft/pitchcraft-api/internal/dtos"
	"github.com/pitchcraft/pitchcraft-api/internal/services"
)

// Hint for the polling client, in seconds.
const pollRetryAfter = "5"

// Callback bodies are a few KB of generated text; 1 MiB is generous. The
// endpoint can run without auth, so the read has to be bounded.
const maxCallbackBody = 1 << 20

type GenerationHandler struct {
	GenerationService *services.GenerationService
	CallbackService   *services.CallbackService

	// Shared secret the engine must present on callbacks. Empty disables
	// the check (not every engine can attach headers to callbacks).
	CallbackSecret string
}

func NewGenerationHandler(g *services.GenerationService, cb *services.CallbackService, callbackSecret string) *GenerationHandler {
	return &GenerationHandler{
		GenerationService: g,
		CallbackService:   cb,
		CallbackSecret:    callbackSecret,
	}
}

// GeneratePitch is POST /pitches/:id/generate — the pitch job initiator.
func (h *GenerationHandler) GeneratePitch(c *gin.Context) {
	var req dtos.GeneratePitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}

	requestID, err := h.GenerationService.StartPitchGeneration(
		c.Request.Context(), auth.CurrentUserID(c), c.Param("id"), &req)
	if err != nil {
		h.respondInitiationError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dtos.GenerationStartedResponse{Success: true, RequestID: requestID})
}

// GenerateGuidance is POST /pitches/:id/guidance — the guidance job initiator.
func (h *GenerationHandler) GenerateGuidance(c *gin.Context) {
	var req dtos.GenerateGuidanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}

	requestID, err := h.GenerationService.StartGuidanceGeneration(
		c.Request.Context(), auth.CurrentUserID(c), c.Param("id"), &req)
	if err != nil {
		h.respondInitiationError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dtos.GenerationStartedResponse{Success: true, RequestID: requestID})
}

func (h *GenerationHandler) respondInitiationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Pitch not found"})
	case errors.Is(err, services.ErrInsufficientCredits):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "Insufficient credit balance"})
	case errors.Is(err, services.ErrAlreadyInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "A generation is already in progress or the pitch is finalised"})
	case errors.Is(err, services.ErrUpstreamUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Generation service is unavailable, please try again"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// Status is GET /generations/status?requestId=... — the status poller. It
// never mutates anything, and everything short of "content present" reads as
// pending.
func (h *GenerationHandler) Status(c *gin.Context) {
	requestID := c.Query("requestId")
	if requestID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "requestId query parameter is required"})
		return
	}
	kind := c.DefaultQuery("type", "pitch")

	done, content := h.GenerationService.PollStatus(auth.CurrentUserID(c), requestID, kind)
	if !done {
		c.Header("Retry-After", pollRetryAfter)
		c.JSON(http.StatusOK, dtos.GenerationStatusResponse{Status: "pending"})
		return
	}
	c.JSON(http.StatusOK, dtos.GenerationStatusResponse{Status: "completed", Content: content})
}

// Callback is POST /webhooks/generation — invoked by the workflow engine
// when a job finishes. Unknown correlation ids get a 200 with a warning so
// the engine doesn't retry forever against a record that will never exist.
func (h *GenerationHandler) Callback(c *gin.Context) {
	if h.CallbackSecret != "" {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token != h.CallbackSecret {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid callback token"})
			return
		}
	}

	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxCallbackBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Callback body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable request body"})
		return
	}

	outcome, err := h.CallbackService.Process(raw)
	switch {
	case errors.Is(err, services.ErrMalformedPayload),
		errors.Is(err, services.ErrMissingCorrelationID),
		errors.Is(err, services.ErrMissingContent):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if !outcome.Matched {
		c.JSON(http.StatusOK, gin.H{"success": true, "warning": outcome.Warning})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "requestId": outcome.RequestID})
}
