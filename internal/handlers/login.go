package handlers

import (
	"net/http"
	"strings"

	"github.com/a-h/templ"

	applog "ahara/internal/log"
	"ahara/internal/views/pages"
)

const msgSignInFailed = "We were unable to sign you in. Please try again."

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Login renders the sign-in form and processes credentials. Browsers post the form and
// are redirected into the workspace; clients posting JSON get the session back as JSON.
func Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		if ActiveSession(r) {
			redirectToApp(w, r)
			return
		}
		renderLogin(w, r, popLoginMessage(r), "")
	case http.MethodPost:
		jsonClient := hasJSONBody(r)
		if sessionManager == nil || database == nil {
			applog.Debug(ctx, "authentication dependencies unavailable", "hasSession", sessionManager != nil, "hasDatabase", database != nil)
			if jsonClient {
				writeJSONError(w, http.StatusServiceUnavailable, "authentication not available")
				return
			}
			http.Error(w, "authentication not available", http.StatusServiceUnavailable)
			return
		}

		creds, err := readCredentials(w, r, jsonClient)
		if err != nil {
			applog.Debug(ctx, "unreadable login submission", "error", err)
			if jsonClient {
				writeJSONError(w, http.StatusBadRequest, err.Error())
				return
			}
			http.Error(w, "invalid form submission", http.StatusBadRequest)
			return
		}
		if creds.Email == "" || creds.Password == "" {
			loginFailed(w, r, jsonClient, http.StatusBadRequest, "Email and password are required.", creds.Email)
			return
		}

		if !authenticate(w, r, creds.Email, creds.Password) {
			applog.Debug(ctx, "authentication failed", "email", strings.ToLower(creds.Email))
			message := popLoginMessage(r)
			if message == "" {
				message = msgSignInFailed
			}
			loginFailed(w, r, jsonClient, http.StatusUnauthorized, message, creds.Email)
			return
		}

		session, _ := loadSession(r)
		applog.Info(ctx, "practitioner signed in", "userID", session.UserID)
		if jsonClient {
			writeJSON(w, http.StatusOK, sessionResponse{ID: session.UserID, Email: session.Email, Name: session.Name, Role: session.Role})
			return
		}
		redirectToApp(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// readCredentials decodes a JSON body or a urlencoded form.
func readCredentials(w http.ResponseWriter, r *http.Request, jsonBody bool) (credentials, error) {
	var creds credentials
	if jsonBody {
		if err := decodeJSON(w, r, &creds); err != nil {
			return creds, err
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return creds, err
		}
		creds = credentials{Email: r.PostFormValue("email"), Password: r.PostFormValue("password")}
	}
	creds.Email = strings.TrimSpace(creds.Email)
	return creds, nil
}

func loginFailed(w http.ResponseWriter, r *http.Request, jsonClient bool, status int, message, email string) {
	if jsonClient {
		writeJSONError(w, status, message)
		return
	}
	renderLogin(w, r, message, email)
}

func popLoginMessage(r *http.Request) string {
	if sessionManager == nil {
		return ""
	}
	return sessionManager.PopString(r.Context(), sessionLoginMessageKey)
}

func renderLogin(w http.ResponseWriter, r *http.Request, message, email string) {
	component := pages.Login(message, email)
	if isHTMX(r) {
		component = pages.LoginPartial(message, email)
	}
	renderHTML(w, r, component)
}

func renderHTML(w http.ResponseWriter, r *http.Request, component templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(r.Context(), w); err != nil {
		applog.Error(r.Context(), "failed to render page", "error", err, "path", r.URL.Path)
		http.Error(w, "unable to render page", http.StatusInternalServerError)
	}
}
