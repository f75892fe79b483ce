package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/pitchcraft/pitchcraft-api/internal/dtos"
	"github.com/pitchcraft/pitchcraft-api/internal/models"
	"github.com/pitchcraft/pitchcraft-api/internal/workflow"
	"gorm.io/gorm"
)

// GenerationService is the job initiator side of the async bridge: it charges
// the credit, claims the pitch row, and dispatches the job to the workflow
// engine. Results come back later through the CallbackService.
type GenerationService struct {
	DB       *gorm.DB
	Workflow *workflow.Client
	Credits  *CreditService

	CallbackBaseURL string
	PitchTimeout    time.Duration
	GuidanceTimeout time.Duration
}

func NewGenerationService(db *gorm.DB, wf *workflow.Client, credits *CreditService, callbackBaseURL string, pitchTimeout, guidanceTimeout time.Duration) *GenerationService {
	return &GenerationService{
		DB:              db,
		Workflow:        wf,
		Credits:         credits,
		CallbackBaseURL: callbackBaseURL,
		PitchTimeout:    pitchTimeout,
		GuidanceTimeout: guidanceTimeout,
	}
}

func (s *GenerationService) callbackURL() string {
	return s.CallbackBaseURL + "/api/v1/webhooks/generation"
}

// StartPitchGeneration runs the full initiation sequence for a pitch job:
// ownership check, credit charge, atomic claim, dispatch. On any failure after
// the charge the credit is refunded, so the net effect of a failed initiation
// is zero. Returns the request id the client should poll with (by convention,
// the pitch id).
func (s *GenerationService) StartPitchGeneration(ctx context.Context, userID, pitchID string, req *dtos.GeneratePitchRequest) (string, error) {
	var pitch models.Pitch
	err := s.DB.Where("id = ? AND user_id = ?", pitchID, userID).First(&pitch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}

	if err := s.Credits.Charge(userID); err != nil {
		return "", err
	}

	// Claim the row: check-and-transition in one statement so two
	// near-simultaneous initiations can't both launch a job. The execution
	// id is set equal to the pitch id here; that equality is a convention,
	// not an accident, and lookups still check both columns.
	inputJSON, marshalErr := marshalStarExamples(req.StarExamples)
	if marshalErr != nil {
		s.refund(userID, pitchID)
		return "", marshalErr
	}
	res := s.DB.Model(&models.Pitch{}).
		Where("id = ? AND user_id = ? AND status IN ? AND agent_execution_id IS NULL",
			pitchID, userID, []models.PitchStatus{models.PitchStatusDraft, models.PitchStatusFailed}).
		Updates(map[string]interface{}{
			"agent_execution_id":  pitchID,
			"status":              models.PitchStatusDraft,
			"role_name":           req.RoleName,
			"role_level":          req.RoleLevel,
			"role_description":    req.RoleDescription,
			"years_experience":    req.YearsExperience,
			"relevant_experience": req.RelevantExperience,
			"pitch_word_limit":    req.PitchWordLimit,
			"star_examples_json":  inputJSON,
		})
	if res.Error != nil {
		s.refund(userID, pitchID)
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		s.refund(userID, pitchID)
		return "", ErrAlreadyInProgress
	}

	inputVars, err := pitchInputVariables(pitchID, req)
	if err != nil {
		s.rollback(userID, pitchID, err)
		return "", err
	}

	dispatchCtx, cancel := context.WithTimeout(ctx, s.PitchTimeout)
	defer cancel()
	err = s.Workflow.Run(dispatchCtx, workflow.RunRequest{
		Agent:          workflow.PitchAgent,
		VersionLabel:   workflow.VersionForStarCount(len(req.StarExamples)),
		InputVariables: inputVars,
		CallbackURL:    s.callbackURL(),
	})
	if err != nil {
		s.rollback(userID, pitchID, err)
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	s.logEvent(pitchID, "GENERATION_STARTED", fmt.Sprintf("Pitch generation dispatched (%d STAR examples)", len(req.StarExamples)))
	log.Printf("🚀 Pitch generation dispatched for %s", pitchID)
	return pitchID, nil
}

// StartGuidanceGeneration dispatches a guidance job. Guidance is free and can
// run regardless of lifecycle status, but still at most one job per pitch.
func (s *GenerationService) StartGuidanceGeneration(ctx context.Context, userID, pitchID string, req *dtos.GenerateGuidanceRequest) (string, error) {
	var pitch models.Pitch
	err := s.DB.Where("id = ? AND user_id = ?", pitchID, userID).First(&pitch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}

	res := s.DB.Model(&models.Pitch{}).
		Where("id = ? AND user_id = ? AND agent_execution_id IS NULL", pitchID, userID).
		Update("agent_execution_id", pitchID)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		return "", ErrAlreadyInProgress
	}

	dispatchCtx, cancel := context.WithTimeout(ctx, s.GuidanceTimeout)
	defer cancel()
	err = s.Workflow.Run(dispatchCtx, workflow.RunRequest{
		Agent:          workflow.GuidanceAgent,
		InputVariables: guidanceInputVariables(pitchID, req),
		CallbackURL:    s.callbackURL(),
	})
	if err != nil {
		// Guidance has no charge to unwind, just release the claim.
		s.clearExecutionID(pitchID, "")
		s.logEvent(pitchID, "GUIDANCE_FAILED", err.Error())
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	s.logEvent(pitchID, "GUIDANCE_STARTED", "Guidance generation dispatched")
	log.Printf("🚀 Guidance generation dispatched for %s", pitchID)
	return pitchID, nil
}

// PollStatus answers "is this job done yet" for the polling client. Anything
// that is not a present result collapses to pending: an unknown id and a slow
// job look the same from here, on purpose, so transient lookup trouble never
// surfaces as a hard failure mid-poll.
func (s *GenerationService) PollStatus(userID, requestID, kind string) (done bool, content string) {
	var pitch models.Pitch
	err := s.DB.Where("(agent_execution_id = ? OR id = ?) AND user_id = ?", requestID, requestID, userID).
		First(&pitch).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("⚠️  Status lookup failed for %s: %v", requestID, err)
		}
		return false, ""
	}

	if kind == "guidance" {
		content = pitch.AIGuidance
	} else {
		content = pitch.PitchContent
	}
	return content != "", content
}

// StartReaper launches the background sweep that fails out generations whose
// callback never arrived, so rows don't sit in-progress forever.
func (s *GenerationService) StartReaper(interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for range ticker.C {
			if n, err := s.ReapStale(maxAge); err != nil {
				log.Printf("⚠️  Reaper sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("🧹 Reaper failed out %d stale generation(s)", n)
			}
		}
	}()
}

// ReapStale clears execution ids on rows that have been in-progress longer
// than maxAge with no result of either kind, marks them failed and refunds
// nothing (the engine accepted the job; the charge stands).
func (s *GenerationService) ReapStale(maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	var stale []models.Pitch
	err := s.DB.Where("agent_execution_id IS NOT NULL AND pitch_content = '' AND ai_guidance = '' AND updated_at < ?", cutoff).
		Find(&stale).Error
	if err != nil {
		return 0, err
	}

	for _, p := range stale {
		s.clearExecutionID(p.ID, models.PitchStatusFailed)
		s.logEvent(p.ID, "GENERATION_REAPED", fmt.Sprintf("No callback received within %v, marked failed", maxAge))
	}
	return len(stale), nil
}

// rollback unwinds a failed pitch dispatch: release the claim, mark failed,
// give the credit back. After this the row must never look in-progress.
func (s *GenerationService) rollback(userID, pitchID string, cause error) {
	s.clearExecutionID(pitchID, models.PitchStatusFailed)
	s.refund(userID, pitchID)
	s.logEvent(pitchID, "GENERATION_FAILED", cause.Error())
	log.Printf("❌ Dispatch failed for %s, rolled back: %v", pitchID, cause)
}

func (s *GenerationService) clearExecutionID(pitchID string, status models.PitchStatus) {
	updates := map[string]interface{}{"agent_execution_id": nil}
	if status != "" {
		updates["status"] = status
	}
	if err := s.DB.Model(&models.Pitch{}).Where("id = ?", pitchID).Updates(updates).Error; err != nil {
		log.Printf("⚠️  Failed to clear execution id for %s: %v", pitchID, err)
	}
}

func (s *GenerationService) refund(userID, pitchID string) {
	if err := s.Credits.Refund(userID); err != nil {
		log.Printf("⚠️  Refund failed for user %s (pitch %s): %v", userID, pitchID, err)
	}
}

func (s *GenerationService) logEvent(pitchID, eventType, details string) {
	event := models.PitchEvent{PitchID: pitchID, EventType: eventType, Details: details}
	if err := s.DB.Create(&event).Error; err != nil {
		log.Printf("⚠️  Failed to log %s event for %s: %v", eventType, pitchID, err)
	}
}

func marshalStarExamples(examples []dtos.StarExample) (string, error) {
	b, err := json.Marshal(examples)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
