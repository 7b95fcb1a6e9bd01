package handlers

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	applog "ahara/internal/log"
	"ahara/internal/views/pages"
	"ahara/models"
)

const (
	minPasswordLength  = 8
	msgSignupFailed    = "We couldn't create your account right now. Please try again."
	msgEmailRegistered = "An account with that email already exists."
)

type signupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Qualification   string `json:"qualification"`
	Specialization  string `json:"specialization"`
	ContactNumber   string `json:"contact_number"`
	Role            string `json:"role"`
}

func (req *signupRequest) normalize() string {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Qualification = strings.TrimSpace(req.Qualification)
	req.Specialization = strings.TrimSpace(req.Specialization)
	req.ContactNumber = strings.TrimSpace(req.ContactNumber)
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	if req.Role == "" {
		req.Role = models.RoleDietitian
	}
	switch {
	case req.Name == "":
		return "Please provide your full name."
	case req.Email == "" || !strings.Contains(req.Email, "@"):
		return "Please provide a valid email address."
	case len(req.Password) < minPasswordLength:
		return "Password must be at least 8 characters long."
	case req.Password != req.ConfirmPassword:
		return "Passwords do not match."
	case req.Role != models.RoleDietitian && req.Role != models.RolePatient:
		return "Please choose either the dietitian or the patient account type."
	}
	return ""
}

func readSignup(w http.ResponseWriter, r *http.Request, jsonBody bool) (signupRequest, error) {
	var req signupRequest
	if jsonBody {
		err := decodeJSON(w, r, &req)
		return req, err
	}
	if err := r.ParseForm(); err != nil {
		return req, err
	}
	return signupRequest{
		Name:            r.PostFormValue("name"),
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
		Qualification:   r.PostFormValue("qualification"),
		Specialization:  r.PostFormValue("specialization"),
		ContactNumber:   r.PostFormValue("contact_number"),
		Role:            r.PostFormValue("role"),
	}, nil
}

// Signup registers an account and signs it in. Visitors may register as a dietitian
// or as a patient; the admin role is never self-assigned.
func Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		if ActiveSession(r) {
			redirectToApp(w, r)
			return
		}
		renderSignup(w, r, "", signupRequest{})
		return
	case http.MethodPost:
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	jsonClient := hasJSONBody(r)
	fail := func(status int, message string, req signupRequest) {
		if jsonClient {
			writeJSONError(w, status, message)
			return
		}
		renderSignup(w, r, message, req)
	}

	if sessionManager == nil || database == nil {
		applog.Debug(ctx, "registration dependencies unavailable", "hasSession", sessionManager != nil, "hasDatabase", database != nil)
		fail(http.StatusServiceUnavailable, "Registration is not available right now.", signupRequest{})
		return
	}

	req, err := readSignup(w, r, jsonClient)
	if err != nil {
		applog.Debug(ctx, "unreadable signup submission", "error", err)
		fail(http.StatusBadRequest, "Invalid signup submission.", signupRequest{})
		return
	}
	if msg := req.normalize(); msg != "" {
		applog.Debug(ctx, "signup rejected", "reason", msg)
		fail(http.StatusBadRequest, msg, req)
		return
	}

	if _, err := findUserByEmail(r, req.Email); err == nil {
		fail(http.StatusConflict, msgEmailRegistered, req)
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		applog.Error(ctx, "failed to check existing user", "error", err)
		fail(http.StatusInternalServerError, msgSignupFailed, req)
		return
	}

	user := &models.User{
		Email:          req.Email,
		Name:           req.Name,
		Role:           req.Role,
		Qualification:  req.Qualification,
		Specialization: req.Specialization,
		ContactNumber:  req.ContactNumber,
	}
	if err := createUser(r, user, req.Password); err != nil {
		applog.Error(ctx, "failed to create user", "error", err)
		fail(http.StatusInternalServerError, msgSignupFailed, req)
		return
	}
	if err := establishSession(r, user); err != nil {
		applog.Error(ctx, "failed to establish session after signup", "error", err, "userID", user.ID)
		fail(http.StatusInternalServerError, "We couldn't sign you in after creating your account. Please try again.", req)
		return
	}

	applog.Info(ctx, "account registered", "userID", user.ID, "role", user.Role)
	if jsonClient {
		writeJSON(w, http.StatusCreated, projectProfile(*user))
		return
	}
	redirectToApp(w, r)
}

func renderSignup(w http.ResponseWriter, r *http.Request, message string, req signupRequest) {
	component := pages.Signup(message, req.Name, req.Email, req.Role)
	if isHTMX(r) {
		component = pages.SignupPartial(message, req.Name, req.Email, req.Role)
	}
	renderHTML(w, r, component)
}
