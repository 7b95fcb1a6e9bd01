package handlers

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	applog "ahara/internal/log"
	"ahara/models"
)

type profileResponse struct {
	ID             uint   `json:"id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	Role           string `json:"role"`
	Qualification  string `json:"qualification"`
	Specialization string `json:"specialization"`
	ContactNumber  string `json:"contact_number"`
}

type profileRequest struct {
	Name           string `json:"name"`
	Qualification  string `json:"qualification"`
	Specialization string `json:"specialization"`
	ContactNumber  string `json:"contact_number"`
}

func projectProfile(user models.User) profileResponse {
	return profileResponse{
		ID:             user.ID,
		Email:          user.Email,
		Name:           user.Name,
		Role:           models.NormalizeRole(user.Role),
		Qualification:  user.Qualification,
		Specialization: user.Specialization,
		ContactNumber:  user.ContactNumber,
	}
}

// Profile shows and updates the signed-in practitioner's details.
func Profile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPut {
		applog.Debug(r.Context(), "profile request with unsupported method", "method", r.Method)
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

	var user models.User
	if err := database.WithContext(ctx).First(&user, session.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSONError(w, http.StatusUnauthorized, "account no longer exists")
			return
		}
		applog.Error(ctx, "unable to load practitioner profile", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load account")
		return
	}

	if r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, projectProfile(user))
		return
	}

	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeJSONError(w, http.StatusBadRequest, "name is required")
		return
	}
	updates := map[string]any{
		"name":           name,
		"qualification":  strings.TrimSpace(req.Qualification),
		"specialization": strings.TrimSpace(req.Specialization),
		"contact_number": strings.TrimSpace(req.ContactNumber),
	}
	if err := database.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
		applog.Error(ctx, "failed to persist practitioner profile", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}
	user.Name = name
	user.Qualification = updates["qualification"].(string)
	user.Specialization = updates["specialization"].(string)
	user.ContactNumber = updates["contact_number"].(string)
	if sessionManager != nil {
		sessionManager.Put(ctx, sessionUserNameKey, name)
	}
	applog.Debug(ctx, "practitioner profile updated", "userID", user.ID)
	writeJSON(w, http.StatusOK, projectProfile(user))
}
