package handlers

import (
	"net/http"

	applog "ahara/internal/log"
	"ahara/internal/views/pages"
)

// Home sends visitors to the workspace when signed in and to the login page otherwise.
func Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if _, ok := loadSession(r); ok {
		redirectToApp(w, r)
		return
	}
	redirectToLogin(w, r)
}

// App renders the workspace landing page.
func App(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		redirectToLogin(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.Workspace(session.Name, session.IsPatient()).Render(r.Context(), w); err != nil {
		applog.Error(r.Context(), "failed to render workspace", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
