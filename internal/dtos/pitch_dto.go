package dtos

// StarSituation / StarTask / StarAction / StarResult mirror the guided
// questionnaire on the client. They arrive structured and get flattened to
// plain text before dispatch to the workflow engine.
type StarSituation struct {
	WhereAndWhen string `json:"where_and_when" binding:"required"`
	Challenge    string `json:"challenge" binding:"required"`
}

type StarTask struct {
	Responsibility string `json:"responsibility" binding:"required"`
	Constraints    string `json:"constraints"`
}

type StarActionStep struct {
	What    string `json:"what" binding:"required"`
	How     string `json:"how"`
	Outcome string `json:"outcome"`
}

type StarAction struct {
	Steps []StarActionStep `json:"steps" binding:"required,min=1,dive"`
}

type StarResult struct {
	Outcome string `json:"outcome" binding:"required"`
	Benefit string `json:"benefit"`
}

type StarExample struct {
	Situation StarSituation `json:"situation" binding:"required"`
	Task      StarTask      `json:"task" binding:"required"`
	Action    StarAction    `json:"action" binding:"required"`
	Result    StarResult    `json:"result" binding:"required"`
}

type CreatePitchRequest struct {
	RoleName           string        `json:"role_name" binding:"required"`
	RoleLevel          string        `json:"role_level"`
	RoleDescription    string        `json:"role_description"`
	YearsExperience    int           `json:"years_experience"`
	RelevantExperience string        `json:"relevant_experience"`
	PitchWordLimit     int           `json:"pitch_word_limit"`
	StarExamples       []StarExample `json:"star_examples" binding:"omitempty,max=4,dive"`
}

// UpdatePitchRequest is a partial update; nil pointers mean "leave as is".
// Users can hand-edit generated content here, outside the job protocol.
// Status only moves forward: a pitch never returns to DRAFT by hand.
type UpdatePitchRequest struct {
	RoleName           *string       `json:"role_name"`
	RoleLevel          *string       `json:"role_level"`
	RoleDescription    *string       `json:"role_description"`
	YearsExperience    *int          `json:"years_experience"`
	RelevantExperience *string       `json:"relevant_experience"`
	PitchWordLimit     *int          `json:"pitch_word_limit"`
	StarExamples       []StarExample `json:"star_examples" binding:"omitempty,max=4,dive"`
	PitchContent       *string       `json:"pitch_content"`
	Status             *string       `json:"status" binding:"omitempty,oneof=FINAL SUBMITTED"`
}
