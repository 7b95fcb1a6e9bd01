package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	applog "ahara/internal/log"
	"ahara/internal/nutrition"
	"ahara/models"
)

type patientResponse struct {
	ID                   uint                   `json:"id"`
	FullName             string                 `json:"full_name"`
	Age                  int                    `json:"age"`
	Gender               string                 `json:"gender"`
	ContactNumber        string                 `json:"contact_number"`
	Email                string                 `json:"email"`
	DietaryHabit         string                 `json:"dietary_habit"`
	MealFrequency        int                    `json:"meal_frequency"`
	WaterIntakeLiters    float64                `json:"water_intake_liters"`
	BowelMovementsPerDay int                    `json:"bowel_movements_per_day"`
	MedicalHistory       string                 `json:"medical_history"`
	Allergies            string                 `json:"allergies"`
	CurrentMedications   string                 `json:"current_medications"`
	HeightCm             *float64               `json:"height_cm"`
	WeightKg             *float64               `json:"weight_kg"`
	BMI                  *float64               `json:"bmi"`
	AssessedDosha        string                 `json:"assessed_dosha"`
	CreatedAt            time.Time              `json:"created_at"`
	UpdatedAt            time.Time              `json:"updated_at"`
	DietCharts           []dietChartSummaryJSON `json:"diet_charts,omitempty"`
}

type dietChartSummaryJSON struct {
	ID            uint     `json:"id"`
	Title         string   `json:"title"`
	ChartDate     string   `json:"chart_date"`
	TotalCalories *float64 `json:"total_calories"`
}

type patientRequest struct {
	FullName             string   `json:"full_name"`
	Age                  int      `json:"age"`
	Gender               string   `json:"gender"`
	ContactNumber        string   `json:"contact_number"`
	Email                string   `json:"email"`
	DietaryHabit         string   `json:"dietary_habit"`
	MealFrequency        int      `json:"meal_frequency"`
	WaterIntakeLiters    float64  `json:"water_intake_liters"`
	BowelMovementsPerDay int      `json:"bowel_movements_per_day"`
	MedicalHistory       string   `json:"medical_history"`
	Allergies            string   `json:"allergies"`
	CurrentMedications   string   `json:"current_medications"`
	HeightCm             *float64 `json:"height_cm"`
	WeightKg             *float64 `json:"weight_kg"`
	AssessedDosha        string   `json:"assessed_dosha"`
}

func projectPatient(patient models.Patient) patientResponse {
	resp := patientResponse{
		ID:                   patient.ID,
		FullName:             patient.FullName,
		Age:                  patient.Age,
		Gender:               patient.Gender,
		ContactNumber:        patient.ContactNumber,
		Email:                patient.Email,
		DietaryHabit:         patient.DietaryHabit,
		MealFrequency:        patient.MealFrequency,
		WaterIntakeLiters:    patient.WaterIntakeLiters,
		BowelMovementsPerDay: patient.BowelMovementsPerDay,
		MedicalHistory:       patient.MedicalHistory,
		Allergies:            patient.Allergies,
		CurrentMedications:   patient.CurrentMedications,
		HeightCm:             patient.HeightCm,
		WeightKg:             patient.WeightKg,
		AssessedDosha:        patient.AssessedDosha,
		CreatedAt:            patient.CreatedAt,
		UpdatedAt:            patient.UpdatedAt,
	}
	if bmi, ok := patient.BMI(); ok {
		rounded := nutrition.RoundTo(bmi, 1)
		resp.BMI = &rounded
	}
	for _, chart := range patient.DietCharts {
		resp.DietCharts = append(resp.DietCharts, dietChartSummaryJSON{
			ID:            chart.ID,
			Title:         chart.Title,
			ChartDate:     chart.ChartDate,
			TotalCalories: chart.TotalCalories,
		})
	}
	return resp
}

// normalize validates the request before anything is written. It returns a message for the
// first failing field.
func (req *patientRequest) normalize() string {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Gender = strings.ToLower(strings.TrimSpace(req.Gender))
	req.DietaryHabit = models.NormalizeDietaryHabit(req.DietaryHabit)
	req.Email = strings.TrimSpace(req.Email)
	if req.MealFrequency <= 0 {
		req.MealFrequency = 3
	}
	if req.WaterIntakeLiters <= 0 {
		req.WaterIntakeLiters = 2
	}
	if req.BowelMovementsPerDay <= 0 {
		req.BowelMovementsPerDay = 1
	}
	if strings.TrimSpace(req.AssessedDosha) != "" {
		label, ok := normalizeDoshaLabel(req.AssessedDosha)
		if !ok {
			return "assessed_dosha must be vata, pitta, kapha or a combination such as vata-pitta"
		}
		req.AssessedDosha = label
	}

	switch {
	case req.FullName == "":
		return "full_name is required"
	case req.Age <= 0:
		return "age must be greater than zero"
	case !models.ValidGender(req.Gender):
		return "gender must be male, female or other"
	case !models.ValidDietaryHabit(req.DietaryHabit):
		return "dietary_habit must be vegetarian, non_vegetarian, vegan or eggetarian"
	case req.Email != "" && !strings.Contains(req.Email, "@"):
		return "email is invalid"
	case req.HeightCm != nil && *req.HeightCm <= 0:
		return "height_cm must be positive"
	case req.WeightKg != nil && *req.WeightKg <= 0:
		return "weight_kg must be positive"
	}
	return ""
}

func (req patientRequest) apply(patient *models.Patient) {
	patient.FullName = req.FullName
	patient.Age = req.Age
	patient.Gender = req.Gender
	patient.ContactNumber = strings.TrimSpace(req.ContactNumber)
	patient.Email = req.Email
	patient.DietaryHabit = req.DietaryHabit
	patient.MealFrequency = req.MealFrequency
	patient.WaterIntakeLiters = req.WaterIntakeLiters
	patient.BowelMovementsPerDay = req.BowelMovementsPerDay
	patient.MedicalHistory = strings.TrimSpace(req.MedicalHistory)
	patient.Allergies = strings.TrimSpace(req.Allergies)
	patient.CurrentMedications = strings.TrimSpace(req.CurrentMedications)
	patient.HeightCm = req.HeightCm
	patient.WeightKg = req.WeightKg
	patient.AssessedDosha = req.AssessedDosha
}

// PatientResource handles REST-style interactions with the practitioner's patients.
func PatientResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "patient request without database")
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	session, ok := sessionFromContext(r.Context())
	if !ok {
		applog.Debug(r.Context(), "patient request missing authenticated user")
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	segments := resourcePath(r, "/app/api/patients")
	if len(segments) == 0 {
		switch r.Method {
		case http.MethodGet:
			listPatients(w, r, session)
		case http.MethodPost:
			createPatient(w, r, session)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	patientID, ok := parseID(segments[0])
	if !ok {
		applog.Debug(r.Context(), "invalid patient identifier", "identifier", segments[0])
		writeJSONError(w, http.StatusNotFound, "patient not found")
		return
	}

	if len(segments) > 1 && segments[1] == "diet-charts" {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		listPatientDietCharts(w, r, session, patientID)
		return
	}

	switch r.Method {
	case http.MethodGet:
		showPatient(w, r, session, patientID)
	case http.MethodPut:
		updatePatient(w, r, session, patientID)
	case http.MethodDelete:
		deletePatient(w, r, session, patientID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func ownedPatients(session Session) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("practitioner_id = ?", session.UserID)
	}
}

func findPatient(r *http.Request, session Session, patientID uint) (*models.Patient, error) {
	patient := &models.Patient{}
	err := database.WithContext(r.Context()).Scopes(ownedPatients(session)).First(patient, patientID).Error
	if err != nil {
		return nil, err
	}
	return patient, nil
}

func respondPatientLookupError(w http.ResponseWriter, r *http.Request, patientID uint, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeJSONError(w, http.StatusNotFound, "patient not found")
		return
	}
	applog.Error(r.Context(), "failed to load patient", "error", err, "patientID", patientID)
	writeJSONError(w, http.StatusInternalServerError, "unable to load patient")
}

func listPatients(w http.ResponseWriter, r *http.Request, session Session) {
	ctx := r.Context()
	query := database.WithContext(ctx).Scopes(ownedPatients(session)).Order("created_at desc")
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		query = query.Where("lower(full_name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}

	var patients []models.Patient
	if err := query.Find(&patients).Error; err != nil {
		applog.Error(ctx, "failed to list patients", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load patients")
		return
	}

	responses := make([]patientResponse, 0, len(patients))
	for _, patient := range patients {
		responses = append(responses, projectPatient(patient))
	}
	writeJSON(w, http.StatusOK, responses)
}

func showPatient(w http.ResponseWriter, r *http.Request, session Session, patientID uint) {
	patient := &models.Patient{}
	err := database.WithContext(r.Context()).
		Scopes(ownedPatients(session)).
		Preload("DietCharts", func(db *gorm.DB) *gorm.DB {
			return db.Order("chart_date desc, id desc")
		}).
		First(patient, patientID).Error
	if err != nil {
		respondPatientLookupError(w, r, patientID, err)
		return
	}
	writeJSON(w, http.StatusOK, projectPatient(*patient))
}

func createPatient(w http.ResponseWriter, r *http.Request, session Session) {
	ctx := r.Context()
	var req patientRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.normalize(); msg != "" {
		applog.Debug(ctx, "patient validation failed", "reason", msg)
		writeJSONError(w, http.StatusBadRequest, msg)
		return
	}

	patient := models.Patient{PractitionerID: session.UserID}
	req.apply(&patient)
	if err := database.WithContext(ctx).Create(&patient).Error; err != nil {
		applog.Error(ctx, "failed to create patient", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to create patient")
		return
	}
	invalidateDashboard(r, session.UserID)
	applog.Debug(ctx, "patient created", "patientID", patient.ID)
	writeJSON(w, http.StatusCreated, projectPatient(patient))
}

func updatePatient(w http.ResponseWriter, r *http.Request, session Session, patientID uint) {
	ctx := r.Context()
	var req patientRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.normalize(); msg != "" {
		applog.Debug(ctx, "patient validation failed", "reason", msg)
		writeJSONError(w, http.StatusBadRequest, msg)
		return
	}

	patient, err := findPatient(r, session, patientID)
	if err != nil {
		respondPatientLookupError(w, r, patientID, err)
		return
	}
	req.apply(patient)
	if err := database.WithContext(ctx).Save(patient).Error; err != nil {
		applog.Error(ctx, "failed to update patient", "error", err, "patientID", patientID)
		writeJSONError(w, http.StatusInternalServerError, "unable to update patient")
		return
	}
	applog.Debug(ctx, "patient updated", "patientID", patientID)
	writeJSON(w, http.StatusOK, projectPatient(*patient))
}

func deletePatient(w http.ResponseWriter, r *http.Request, session Session, patientID uint) {
	ctx := r.Context()
	if _, err := findPatient(r, session, patientID); err != nil {
		respondPatientLookupError(w, r, patientID, err)
		return
	}

	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var chartIDs []uint
		if err := tx.Model(&models.DietChart{}).Where("patient_id = ?", patientID).Pluck("id", &chartIDs).Error; err != nil {
			return err
		}
		if len(chartIDs) > 0 {
			if err := tx.Where("diet_chart_id IN ?", chartIDs).Delete(&models.DietChartItem{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", chartIDs).Delete(&models.DietChart{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Unscoped().Where("patient_id = ?", patientID).Delete(&models.MealCalendarEntry{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Patient{}, patientID).Error
	})
	if err != nil {
		applog.Error(ctx, "failed to delete patient", "error", err, "patientID", patientID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete patient")
		return
	}
	invalidateDashboard(r, session.UserID)
	applog.Debug(ctx, "patient deleted", "patientID", patientID)
	w.WriteHeader(http.StatusNoContent)
}

// normalizeDoshaLabel accepts a single dosha or a "-" joined combination as produced by
// the constitution quiz.
func normalizeDoshaLabel(value string) (string, bool) {
	parts := strings.Split(value, "-")
	normalized := make([]string, 0, len(parts))
	for _, part := range parts {
		dosha, ok := models.ParseDosha(part)
		if !ok {
			return "", false
		}
		normalized = append(normalized, string(dosha))
	}
	return strings.Join(normalized, "-"), true
}
