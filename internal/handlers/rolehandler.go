package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pitchcraft/pitchcraft-api/internal/dtos"
	"github.com/pitchcraft/pitchcraft-api/internal/services"
)

type RoleHandler struct {
	LLMService *services.LLMService
}

func NewRoleHandler(llm *services.LLMService) *RoleHandler {
	return &RoleHandler{LLMService: llm}
}

// ExtractRole is POST /roles/extract: paste a job ad, get back structured
// role fields to prefill the pitch form.
func (h *RoleHandler) ExtractRole(c *gin.Context) {
	if h.LLMService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Role extraction is not configured"})
		return
	}

	var req dtos.RoleExtractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}

	extractedJSON, err := h.LLMService.ExtractRoleDetails(c.Request.Context(), req.RawHTML)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "AI Extraction failed: " + err.Error()})
		return
	}

	// json.RawMessage keeps Go from re-escaping the model's JSON string.
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    json.RawMessage(extractedJSON),
	})
}
