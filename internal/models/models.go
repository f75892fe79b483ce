package models

import (
	"time"

	"gorm.io/gorm"
)

// PitchStatus tracks where a pitch sits in its lifecycle.
// A pitch stays DRAFT while a generation job is running; the callback
// moves it to FINAL once content lands.
type PitchStatus string

const (
	PitchStatusDraft     PitchStatus = "DRAFT"
	PitchStatusFinal     PitchStatus = "FINAL"
	PitchStatusSubmitted PitchStatus = "SUBMITTED"
	PitchStatusFailed    PitchStatus = "FAILED"
)

type User struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Email string `gorm:"uniqueIndex;not null" json:"email"`

	// Consumable generation credits. Only the initiator path touches this,
	// always via a single conditional UPDATE.
	CreditBalance int `gorm:"not null;default:0" json:"credit_balance"`
}

type Pitch struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Every read and write is scoped to this. No exceptions.
	UserID string `gorm:"size:36;index;not null" json:"user_id"`

	RoleName           string `gorm:"not null" json:"role_name"`
	RoleLevel          string `json:"role_level"`
	RoleDescription    string `gorm:"type:text" json:"role_description"`
	YearsExperience    int    `json:"years_experience"`
	RelevantExperience string `gorm:"type:text" json:"relevant_experience"`
	PitchWordLimit     int    `gorm:"default:650" json:"pitch_word_limit"`

	// Structured STAR examples as submitted, JSON-encoded.
	StarExamplesJSON string `gorm:"type:text" json:"star_examples_json"`

	// Correlation handle for the async job. By convention it is assigned
	// equal to the pitch ID at claim time, but lookups always check both
	// columns. NULL means no job is in flight.
	AgentExecutionID *string `gorm:"size:64;index" json:"agent_execution_id"`

	// Outputs, written only by the callback receiver.
	AIGuidance   string `gorm:"type:text" json:"ai_guidance"`
	PitchContent string `gorm:"type:text" json:"pitch_content"`

	Status PitchStatus `gorm:"size:16;default:'DRAFT'" json:"status"`
}

// PitchEvent is an append-only activity trail for a pitch.
type PitchEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	PitchID   string    `gorm:"size:36;index" json:"pitch_id"`
	EventType string    `json:"event_type"`
	Details   string    `gorm:"type:text" json:"details"`
}
