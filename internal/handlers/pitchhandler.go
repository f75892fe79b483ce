package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pitchcraft/pitchcraft-api/internal/auth"
	"github.com/pitchcraft/pitchcraft-api/internal/dtos"
	"github.com/pitchcraft/pitchcraft-api/internal/services"
)

type PitchHandler struct {
	PitchService  *services.PitchService
	CreditService *services.CreditService
}

func NewPitchHandler(p *services.PitchService, c *services.CreditService) *PitchHandler {
	return &PitchHandler{PitchService: p, CreditService: c}
}

func (h *PitchHandler) CreatePitch(c *gin.Context) {
	var req dtos.CreatePitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}

	pitch, err := h.PitchService.CreatePitch(auth.CurrentUserID(c), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create pitch: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, pitch)
}

func (h *PitchHandler) ListPitches(c *gin.Context) {
	pitches, err := h.PitchService.ListPitches(auth.CurrentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list pitches: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, pitches)
}

func (h *PitchHandler) GetPitch(c *gin.Context) {
	pitch, err := h.PitchService.GetPitch(auth.CurrentUserID(c), c.Param("id"))
	if errors.Is(err, services.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Pitch not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, pitch)
}

func (h *PitchHandler) UpdatePitch(c *gin.Context) {
	var req dtos.UpdatePitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}

	pitch, err := h.PitchService.UpdatePitch(auth.CurrentUserID(c), c.Param("id"), &req)
	if errors.Is(err, services.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Pitch not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, pitch)
}

func (h *PitchHandler) DeletePitch(c *gin.Context) {
	err := h.PitchService.DeletePitch(auth.CurrentUserID(c), c.Param("id"))
	if errors.Is(err, services.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Pitch not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PitchHandler) ListEvents(c *gin.Context) {
	events, err := h.PitchService.ListEvents(auth.CurrentUserID(c), c.Param("id"))
	if errors.Is(err, services.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Pitch not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *PitchHandler) GetCredits(c *gin.Context) {
	balance, err := h.CreditService.Balance(auth.CurrentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"credit_balance": balance})
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
