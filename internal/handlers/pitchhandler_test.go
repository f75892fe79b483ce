package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/pitchcraft/pitchcraft-api/internal/auth"
	"github.com/pitchcraft/pitchcraft-api/internal/models"
	"github.com/pitchcraft/pitchcraft-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type pitchEnv struct {
	router *gin.Engine
	db     *gorm.DB
}

func newPitchEnv(t *testing.T) *pitchEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Pitch{}, &models.PitchEvent{}))

	h := NewPitchHandler(services.NewPitchService(db), services.NewCreditService(db))

	r := gin.New()
	authed := r.Group("/api/v1", auth.RequireUser(db, testJWTSecret))
	authed.PUT("/pitches/:id", h.UpdatePitch)
	authed.GET("/pitches/:id", h.GetPitch)

	return &pitchEnv{router: r, db: db}
}

func (e *pitchEnv) seed(t *testing.T) (*models.User, *models.Pitch) {
	t.Helper()
	user := &models.User{ID: uuid.NewString(), Email: uuid.NewString() + "@example.com"}
	require.NoError(t, e.db.Create(user).Error)
	pitch := &models.Pitch{ID: uuid.NewString(), UserID: user.ID, RoleName: "Analyst", PitchWordLimit: 650, Status: models.PitchStatusDraft}
	require.NoError(t, e.db.Create(pitch).Error)
	return user, pitch
}

func TestUpdatePitchStatusTransitions(t *testing.T) {
	env := newPitchEnv(t)
	user, pitch := env.seed(t)
	require.NoError(t, env.db.Model(pitch).Update("status", models.PitchStatusFinal).Error)
	token := tokenFor(t, user.ID)
	testEnv := &testEnv{router: env.router, db: env.db}

	// Status never moves backwards to DRAFT by hand.
	body, _ := json.Marshal(map[string]string{"status": "DRAFT"})
	w := testEnv.do(t, http.MethodPut, "/api/v1/pitches/"+pitch.ID, token, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var unchanged models.Pitch
	require.NoError(t, env.db.First(&unchanged, "id = ?", pitch.ID).Error)
	assert.Equal(t, models.PitchStatusFinal, unchanged.Status)

	// Forward to SUBMITTED is allowed.
	body, _ = json.Marshal(map[string]string{"status": "SUBMITTED"})
	w = testEnv.do(t, http.MethodPut, "/api/v1/pitches/"+pitch.ID, token, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var submitted models.Pitch
	require.NoError(t, env.db.First(&submitted, "id = ?", pitch.ID).Error)
	assert.Equal(t, models.PitchStatusSubmitted, submitted.Status)
}

func TestUpdatePitchPartialEdit(t *testing.T) {
	env := newPitchEnv(t)
	user, pitch := env.seed(t)
	token := tokenFor(t, user.ID)
	testEnv := &testEnv{router: env.router, db: env.db}

	body, _ := json.Marshal(map[string]interface{}{"role_level": "EL1"})
	w := testEnv.do(t, http.MethodPut, "/api/v1/pitches/"+pitch.ID, token, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated models.Pitch
	require.NoError(t, env.db.First(&updated, "id = ?", pitch.ID).Error)
	assert.Equal(t, "EL1", updated.RoleLevel)
	assert.Equal(t, "Analyst", updated.RoleName)
	assert.Equal(t, models.PitchStatusDraft, updated.Status)
}
