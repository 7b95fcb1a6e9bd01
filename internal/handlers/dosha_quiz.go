package handlers

import (
	"errors"
	"net/http"
	"strings"

	applog "ahara/internal/log"
	"ahara/internal/quiz"
)

type quizSubmission struct {
	Answers   map[string]string `json:"answers"`
	PatientID *uint             `json:"patient_id"`
}

type quizResponse struct {
	quiz.Result
	PatientID *uint `json:"patient_id,omitempty"`
	Saved     bool  `json:"saved"`
}

// DoshaQuiz serves the constitution questionnaire and scores submissions.
func DoshaQuiz(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"questions": quiz.Questions()})
	case http.MethodPost:
		scoreDoshaQuiz(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func scoreDoshaQuiz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var submission quizSubmission
	if err := decodeJSON(w, r, &submission); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := quiz.Score(submission.Answers)
	if err != nil {
		if errors.Is(err, quiz.ErrIncomplete) {
			writeJSONError(w, http.StatusBadRequest, "Please answer all questions before submitting.")
			return
		}
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := quizResponse{Result: result, PatientID: submission.PatientID}
	if submission.PatientID == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	session, ok := sessionFromContext(ctx)
	if !ok || database == nil {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	patient, err := findPatient(r, session, *submission.PatientID)
	if err != nil {
		respondPatientLookupError(w, r, *submission.PatientID, err)
		return
	}
	label := strings.ToLower(result.Dominant)
	if err := database.WithContext(ctx).Model(patient).Update("assessed_dosha", label).Error; err != nil {
		applog.Error(ctx, "failed to store quiz result", "error", err, "patientID", patient.ID)
		writeJSONError(w, http.StatusInternalServerError, "unable to save the assessment")
		return
	}
	applog.Debug(ctx, "dosha assessment stored", "patientID", patient.ID, "dosha", label)
	resp.Saved = true
	writeJSON(w, http.StatusOK, resp)
}
