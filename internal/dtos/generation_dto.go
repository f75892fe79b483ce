package dtos

// GeneratePitchRequest launches a full pitch generation job. The engine's
// agent version is picked from the STAR example count (2, 3 or 4).
type GeneratePitchRequest struct {
	RoleName           string        `json:"role_name" binding:"required"`
	RoleLevel          string        `json:"role_level"`
	RoleDescription    string        `json:"role_description" binding:"required"`
	YearsExperience    int           `json:"years_experience"`
	RelevantExperience string        `json:"relevant_experience" binding:"required"`
	PitchWordLimit     int           `json:"pitch_word_limit" binding:"required,min=100,max=2000"`
	StarExamples       []StarExample `json:"star_examples" binding:"required,min=2,max=4,dive"`
}

// GenerateGuidanceRequest launches a guidance job (free, text-only advice).
type GenerateGuidanceRequest struct {
	RoleName           string `json:"role_name" binding:"required"`
	RoleLevel          string `json:"role_level"`
	RoleDescription    string `json:"role_description" binding:"required"`
	YearsExperience    int    `json:"years_experience"`
	RelevantExperience string `json:"relevant_experience" binding:"required"`
}

type GenerationStartedResponse struct {
	Success   bool   `json:"success"`
	RequestID string `json:"requestId"`
}

type GenerationStatusResponse struct {
	Status  string `json:"status"`
	Content string `json:"content,omitempty"`
}

type RoleExtractionRequest struct {
	RawHTML string `json:"raw_html" binding:"required"`
	URL     string `json:"url"`
}
