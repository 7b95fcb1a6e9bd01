package handlers

import (
	"net/http"
	"strings"

	"gorm.io/gorm"

	applog "ahara/internal/log"
	"ahara/models"
)

// MyPlan lists the diet charts recorded for the signed-in patient, newest first. A
// patient account is matched to practitioner records through their email address.
func MyPlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if database == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	ctx := r.Context()
	email := strings.ToLower(strings.TrimSpace(session.Email))
	if email == "" {
		writeJSON(w, http.StatusOK, []dietChartResponse{})
		return
	}

	var patients []models.Patient
	if err := database.WithContext(ctx).Where("lower(email) = ?", email).Find(&patients).Error; err != nil {
		applog.Error(ctx, "failed to resolve patient records", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load your plan")
		return
	}
	if len(patients) == 0 {
		writeJSON(w, http.StatusOK, []dietChartResponse{})
		return
	}
	byID := make(map[uint]models.Patient, len(patients))
	ids := make([]uint, 0, len(patients))
	for _, p := range patients {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	var charts []models.DietChart
	err := database.WithContext(ctx).
		Where("patient_id IN ?", ids).
		Order("created_at desc, id desc").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order asc, id asc")
		}).
		Preload("Items.Food", func(db *gorm.DB) *gorm.DB {
			return db.Unscoped()
		}).
		Find(&charts).Error
	if err != nil {
		applog.Error(ctx, "failed to load patient diet charts", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load your plan")
		return
	}

	out := make([]dietChartResponse, 0, len(charts))
	for _, chart := range charts {
		out = append(out, projectDietChart(chart, byID[chart.PatientID]))
	}
	applog.Debug(ctx, "patient plan served", "charts", len(out))
	writeJSON(w, http.StatusOK, out)
}
