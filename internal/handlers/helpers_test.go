package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	appdb "ahara/internal/db"
	"ahara/models"
)

var testDatabaseSeq atomic.Int64

func withTestSessionManager(t *testing.T) *scs.SessionManager {
	t.Helper()
	original := sessionManager
	sm := scs.New()
	sessionManager = sm
	t.Cleanup(func() { sessionManager = original })
	return sm
}

func withTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	original := database
	dsn := fmt.Sprintf("file:handlers-test-%d?mode=memory&cache=shared", testDatabaseSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)
	require.NoError(t, appdb.AutoMigrate(db))
	database = db
	t.Cleanup(func() {
		database = original
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func loadSessionContext(t *testing.T, sm *scs.SessionManager, req *http.Request) *http.Request {
	t.Helper()
	ctx, err := sm.Load(req.Context(), "")
	require.NoError(t, err)
	return req.WithContext(ctx)
}

// apiRequest builds a request already carrying the practitioner's session.
func apiRequest(method, target string, body any, practitioner models.User) *http.Request {
	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(v)
	default:
		payload, err := json.Marshal(v)
		if err != nil {
			panic(err)
		}
		reader = strings.NewReader(string(payload))
	}
	req := httptest.NewRequest(method, target, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	session := Session{UserID: practitioner.ID, Email: practitioner.Email, Name: practitioner.Name, Role: models.NormalizeRole(practitioner.Role)}
	return req.WithContext(withSession(context.Background(), session))
}

func seedPractitioner(t *testing.T, db *gorm.DB, email, role string) models.User {
	t.Helper()
	user := models.User{Email: email, PasswordHash: "x", Name: "Dr. " + strings.Split(email, "@")[0], Role: role}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedFood(t *testing.T, db *gorm.DB, food models.Food) models.Food {
	t.Helper()
	if food.Category == "" {
		food.Category = "grains"
	}
	if food.PrimaryTaste == "" {
		food.PrimaryTaste = models.TasteSweet
	}
	if food.Temperature == "" {
		food.Temperature = models.TemperatureNeutral
	}
	if food.Digestibility == "" {
		food.Digestibility = models.DigestibilityModerate
	}
	food.IsActive = true
	require.NoError(t, db.Create(&food).Error)
	return food
}

func seedPatient(t *testing.T, db *gorm.DB, practitioner models.User, name string) models.Patient {
	t.Helper()
	patient := models.Patient{
		PractitionerID: practitioner.ID,
		FullName:       name,
		Age:            34,
		Gender:         models.GenderFemale,
		DietaryHabit:   models.HabitVegetarian,
	}
	require.NoError(t, db.Create(&patient).Error)
	return patient
}

func decodeResponse[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeResponse[map[string]string](t, w)["error"]
}

func floatPtr(v float64) *float64 { return &v }

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }
