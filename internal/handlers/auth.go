package handlers

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/alexedwards/scs/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"ahara/internal/ai"
	"ahara/internal/cache"
	applog "ahara/internal/log"
	"ahara/internal/security"
	"ahara/models"
)

const (
	sessionAuthenticatedKey = "auth:authenticated"
	sessionLoginMessageKey  = "auth:message"
	sessionUserIDKey        = "auth:user:id"
	sessionUserEmailKey     = "auth:user:email"
	sessionUserNameKey      = "auth:user:name"
	sessionUserRoleKey      = "auth:user:role"
)

var (
	sessionManager *scs.SessionManager
	database       *gorm.DB
	assistant      *ai.Client
	tokens         *security.Tokens
	dashboardCache *cache.Dashboard
)

// Configure installs the shared dependencies used by the HTTP handlers.
func Configure(sm *scs.SessionManager, db *gorm.DB) {
	sessionManager = sm
	database = db
}

// ConfigureAI installs the chat completion client used by the assistant and import tools.
func ConfigureAI(client *ai.Client) {
	assistant = client
}

// ConfigureTokens installs the bearer token service.
func ConfigureTokens(t *security.Tokens) {
	tokens = t
}

// ConfigureCache installs the dashboard cache. A nil cache disables caching.
func ConfigureCache(c *cache.Dashboard) {
	dashboardCache = c
}

// Session is the authenticated account attached to a request.
type Session struct {
	UserID uint
	Email  string
	Name   string
	Role   string
}

// IsAdmin reports whether the practitioner holds the admin role.
func (s Session) IsAdmin() bool {
	return s.Role == models.RoleAdmin
}

// IsPatient reports whether the account belongs to a patient rather than a practitioner.
func (s Session) IsPatient() bool {
	return s.Role == models.RolePatient
}

type sessionContextKey struct{}

func withSession(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

func sessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(sessionContextKey{}).(Session)
	return session, ok && session.UserID > 0
}

func createUser(r *http.Request, user *models.User, password string) error {
	if database == nil {
		return gorm.ErrInvalidDB
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.Name = strings.TrimSpace(user.Name)
	user.Role = models.NormalizeRole(user.Role)
	user.PasswordHash = string(hashed)

	return database.WithContext(r.Context()).Create(user).Error
}

func findUserByEmail(r *http.Request, email string) (*models.User, error) {
	if database == nil {
		return nil, gorm.ErrInvalidDB
	}

	user := &models.User{}
	err := database.WithContext(r.Context()).Where("lower(email) = ?", strings.ToLower(email)).First(user).Error
	if err != nil {
		return nil, err
	}
	return user, nil
}

// authenticate verifies the provided credentials and populates the session if successful.
func authenticate(w http.ResponseWriter, r *http.Request, email, password string) bool {
	if sessionManager == nil {
		http.Error(w, "authentication not available", http.StatusServiceUnavailable)
		return false
	}

	user, err := findUserByEmail(r, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			sessionManager.Put(r.Context(), sessionLoginMessageKey, "Invalid email or password. Please try again.")
		} else {
			applog.Error(r.Context(), "failed to load user during login", "error", err)
			sessionManager.Put(r.Context(), sessionLoginMessageKey, "We were unable to sign you in. Please try again.")
		}
		return false
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		sessionManager.Put(r.Context(), sessionLoginMessageKey, "Invalid email or password. Please try again.")
		return false
	}

	if err := establishSession(r, user); err != nil {
		applog.Error(r.Context(), "failed to establish session", "error", err)
		sessionManager.Put(r.Context(), sessionLoginMessageKey, "We were unable to sign you in. Please try again.")
		return false
	}

	return true
}

func establishSession(r *http.Request, user *models.User) error {
	if sessionManager == nil {
		return errors.New("session manager not configured")
	}
	if err := sessionManager.RenewToken(r.Context()); err != nil {
		return err
	}
	sessionManager.Put(r.Context(), sessionAuthenticatedKey, true)
	sessionManager.Put(r.Context(), sessionUserIDKey, int(user.ID))
	sessionManager.Put(r.Context(), sessionUserEmailKey, user.Email)
	sessionManager.Put(r.Context(), sessionUserNameKey, user.Name)
	sessionManager.Put(r.Context(), sessionUserRoleKey, models.NormalizeRole(user.Role))
	return nil
}

func loadSession(r *http.Request) (Session, bool) {
	if !ActiveSession(r) {
		return Session{}, false
	}
	ctx := r.Context()
	return Session{
		UserID: uint(sessionManager.GetInt(ctx, sessionUserIDKey)),
		Email:  sessionManager.GetString(ctx, sessionUserEmailKey),
		Name:   sessionManager.GetString(ctx, sessionUserNameKey),
		Role:   models.NormalizeRole(sessionManager.GetString(ctx, sessionUserRoleKey)),
	}, true
}

// RequireAuthentication ensures the user has an active session before accessing the
// resource and attaches it to the request context.
func RequireAuthentication(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := loadSession(r)
		if !ok {
			if wantsJSON(r) {
				applog.Debug(r.Context(), "rejecting unauthenticated api request", "path", r.URL.Path)
				writeJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			redirectToLogin(w, r)
			return
		}
		ctx := applog.WithAttrs(r.Context(), "userID", session.UserID)
		next.ServeHTTP(w, r.WithContext(withSession(ctx, session)))
	})
}

// RequireRole rejects requests whose session does not hold one of the given roles. It
// expects RequireAuthentication or RequireBearerToken to run first.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := sessionFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !slices.Contains(roles, session.Role) {
				applog.Debug(r.Context(), "rejecting request for role", "role", session.Role, "path", r.URL.Path)
				if wantsJSON(r) {
					writeJSONError(w, http.StatusForbidden, "forbidden")
					return
				}
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireBearerToken authenticates requests carrying an Authorization bearer token issued
// by IssueToken.
func RequireBearerToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tokens == nil {
			writeJSONError(w, http.StatusServiceUnavailable, "token authentication not available")
			return
		}
		raw, ok := security.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := tokens.Parse(raw)
		if err != nil {
			applog.Debug(r.Context(), "rejecting bearer token", "error", err)
			writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		session := Session{UserID: claims.UserID, Email: claims.Email, Name: claims.Name, Role: models.NormalizeRole(claims.Role)}
		ctx := applog.WithAttrs(r.Context(), "userID", session.UserID)
		next.ServeHTTP(w, r.WithContext(withSession(ctx, session)))
	})
}

// Logout destroys the current session and redirects the user to the login screen.
func Logout(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodPost:
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if sessionManager != nil {
		if err := sessionManager.Destroy(r.Context()); err != nil {
			applog.Error(r.Context(), "failed to destroy session", "error", err)
		}
	}

	redirectToLogin(w, r)
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func redirectToApp(w http.ResponseWriter, r *http.Request) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/app")
		w.WriteHeader(http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/app", http.StatusSeeOther)
}

// ActiveSession returns true when the current request has an authenticated session.
func ActiveSession(r *http.Request) bool {
	if sessionManager == nil {
		return false
	}
	return sessionManager.GetBool(r.Context(), sessionAuthenticatedKey) && sessionManager.GetInt(r.Context(), sessionUserIDKey) > 0
}
