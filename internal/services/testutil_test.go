package services

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/pitchcraft/pitchcraft-api/internal/dtos"
	"github.com/pitchcraft/pitchcraft-api/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// A uniquely named shared in-memory database: every pooled connection
	// sees the same tables, and tests stay isolated from each other.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Pitch{}, &models.PitchEvent{}))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, credits int) *models.User {
	t.Helper()
	user := &models.User{
		ID:            uuid.NewString(),
		Email:         uuid.NewString() + "@example.com",
		CreditBalance: credits,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedPitch(t *testing.T, db *gorm.DB, userID string) *models.Pitch {
	t.Helper()
	pitch := &models.Pitch{
		ID:             uuid.NewString(),
		UserID:         userID,
		RoleName:       "Data Analyst",
		RoleLevel:      "APS6",
		PitchWordLimit: 650,
		Status:         models.PitchStatusDraft,
	}
	require.NoError(t, db.Create(pitch).Error)
	return pitch
}

func sampleStarExamples(n int) []dtos.StarExample {
	examples := make([]dtos.StarExample, 0, n)
	for i := 0; i < n; i++ {
		examples = append(examples, dtos.StarExample{
			Situation: dtos.StarSituation{WhereAndWhen: "Dept. of Health, 2022", Challenge: "Fragmented reporting"},
			Task:      dtos.StarTask{Responsibility: "Consolidate data sources", Constraints: "Daily deadlines"},
			Action: dtos.StarAction{Steps: []dtos.StarActionStep{
				{What: "Designed a schema", How: "Python/pandas", Outcome: "80% less cleaning"},
				{What: "Automated dashboards", How: "Tableau API"},
			}},
			Result: dtos.StarResult{Outcome: "Reporting in 30 min", Benefit: "Faster policy adjustments"},
		})
	}
	return examples
}

var sampleGuidanceRequest = dtos.GenerateGuidanceRequest{
	RoleName:           "Data Analyst",
	RoleLevel:          "APS6",
	RoleDescription:    "Provide data-driven insights for policy teams.",
	YearsExperience:    5,
	RelevantExperience: "5 years analysing large datasets",
}

func samplePitchRequest(starCount int) *dtos.GeneratePitchRequest {
	return &dtos.GeneratePitchRequest{
		RoleName:           "Data Analyst",
		RoleLevel:          "APS6",
		RoleDescription:    "Provide data-driven insights for policy teams.",
		YearsExperience:    5,
		RelevantExperience: "5 years analysing large datasets",
		PitchWordLimit:     650,
		StarExamples:       sampleStarExamples(starCount),
	}
}
