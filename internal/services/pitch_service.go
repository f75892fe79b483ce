package services

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/pitchcraft/pitchcraft-api/internal/dtos"
	"github.com/pitchcraft/pitchcraft-api/internal/models"
	"gorm.io/gorm"
)

type PitchService struct {
	DB *gorm.DB
}

func NewPitchService(db *gorm.DB) *PitchService {
	return &PitchService{DB: db}
}

// CreatePitch creates a new draft owned by the caller.
func (s *PitchService) CreatePitch(userID string, req *dtos.CreatePitchRequest) (*models.Pitch, error) {
	starJSON := ""
	if len(req.StarExamples) > 0 {
		b, err := json.Marshal(req.StarExamples)
		if err != nil {
			return nil, err
		}
		starJSON = string(b)
	}

	wordLimit := req.PitchWordLimit
	if wordLimit == 0 {
		wordLimit = 650
	}

	pitch := &models.Pitch{
		ID:                 uuid.NewString(),
		UserID:             userID,
		RoleName:           req.RoleName,
		RoleLevel:          req.RoleLevel,
		RoleDescription:    req.RoleDescription,
		YearsExperience:    req.YearsExperience,
		RelevantExperience: req.RelevantExperience,
		PitchWordLimit:     wordLimit,
		StarExamplesJSON:   starJSON,
		Status:             models.PitchStatusDraft,
	}
	if err := s.DB.Create(pitch).Error; err != nil {
		return nil, err
	}
	return pitch, nil
}

func (s *PitchService) ListPitches(userID string) ([]models.Pitch, error) {
	var pitches []models.Pitch
	err := s.DB.Where("user_id = ?", userID).Order("updated_at DESC").Find(&pitches).Error
	return pitches, err
}

// GetPitch fetches a single pitch, scoped to the owner. A pitch that exists
// but belongs to someone else is indistinguishable from one that doesn't.
func (s *PitchService) GetPitch(userID, pitchID string) (*models.Pitch, error) {
	var pitch models.Pitch
	err := s.DB.Where("id = ? AND user_id = ?", pitchID, userID).First(&pitch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pitch, nil
}

// UpdatePitch applies a partial edit. This is the direct-edit path that
// bypasses the generation protocol entirely.
func (s *PitchService) UpdatePitch(userID, pitchID string, req *dtos.UpdatePitchRequest) (*models.Pitch, error) {
	pitch, err := s.GetPitch(userID, pitchID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.RoleName != nil {
		updates["role_name"] = *req.RoleName
	}
	if req.RoleLevel != nil {
		updates["role_level"] = *req.RoleLevel
	}
	if req.RoleDescription != nil {
		updates["role_description"] = *req.RoleDescription
	}
	if req.YearsExperience != nil {
		updates["years_experience"] = *req.YearsExperience
	}
	if req.RelevantExperience != nil {
		updates["relevant_experience"] = *req.RelevantExperience
	}
	if req.PitchWordLimit != nil {
		updates["pitch_word_limit"] = *req.PitchWordLimit
	}
	if req.StarExamples != nil {
		b, err := json.Marshal(req.StarExamples)
		if err != nil {
			return nil, err
		}
		updates["star_examples_json"] = string(b)
	}
	if req.PitchContent != nil {
		updates["pitch_content"] = *req.PitchContent
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}

	if len(updates) > 0 {
		if err := s.DB.Model(pitch).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.GetPitch(userID, pitchID)
}

func (s *PitchService) DeletePitch(userID, pitchID string) error {
	res := s.DB.Where("id = ? AND user_id = ?", pitchID, userID).Delete(&models.Pitch{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListEvents returns the activity trail for an owned pitch.
func (s *PitchService) ListEvents(userID, pitchID string) ([]models.PitchEvent, error) {
	if _, err := s.GetPitch(userID, pitchID); err != nil {
		return nil, err
	}
	var events []models.PitchEvent
	err := s.DB.Where("pitch_id = ?", pitchID).Order("created_at ASC").Find(&events).Error
	return events, err
}
