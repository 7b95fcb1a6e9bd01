package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"ahara/internal/handlers"
	applog "ahara/internal/log"
	"ahara/models"
)

const requestIDHeader = "X-Request-ID"

type route struct {
	pattern string
	handler http.HandlerFunc
	roles   []string
}

var (
	practitioners = []string{models.RoleDietitian, models.RoleAdmin}
	patientsOnly  = []string{models.RolePatient}
)

// appRoutes are served behind the session cookie. Patterns ending in "/" also match
// their bare form. Routes without roles are open to every signed-in account.
var appRoutes = []route{
	{"/app", handlers.App, nil},
	{"/app/api/foods/", handlers.FoodResource, practitioners},
	{"/app/api/patients/", handlers.PatientResource, practitioners},
	{"/app/api/diet-charts/", handlers.DietChartResource, practitioners},
	{"/app/api/meal-calendar/", handlers.MealCalendarResource, practitioners},
	{"/app/api/meal-templates/", handlers.MealTemplateResource, practitioners},
	{"/app/api/my-plan", handlers.MyPlan, patientsOnly},
	{"/app/api/dosha-quiz", handlers.DoshaQuiz, nil},
	{"/app/api/assistant", handlers.Assistant, nil},
	{"/app/api/dashboard", handlers.Dashboard, practitioners},
	{"/app/api/profile", handlers.Profile, nil},
	{"/app/api/tokens", handlers.IssueToken, nil},
	{"/app/diet-charts/", handlers.PrintDietChart, practitioners},
	{"/app/tools/import-foods", handlers.ToolsImportFoods, practitioners},
}

func newRouter() http.Handler {
	mux := http.NewServeMux()
	ctx := context.Background()
	applog.Debug(ctx, "registering http routes")

	mux.HandleFunc("/healthz", handlers.Health)
	mux.HandleFunc("/login", handlers.Login)
	mux.HandleFunc("/signup", handlers.Signup)
	mux.HandleFunc("/logout", handlers.Logout)
	applog.Debug(ctx, "public routes registered", "paths", "/healthz,/login,/signup,/logout")

	for _, rt := range appRoutes {
		var next http.Handler = rt.handler
		if len(rt.roles) > 0 {
			next = handlers.RequireRole(rt.roles...)(next)
		}
		protected := handlers.RequireAuthentication(next)
		mux.Handle(rt.pattern, protected)
		if bare := strings.TrimSuffix(rt.pattern, "/"); bare != rt.pattern {
			mux.Handle(bare, protected)
		}
		applog.Debug(ctx, "route registered", "path", rt.pattern, "protected", true, "roles", strings.Join(rt.roles, ","))
	}

	mux.Handle("/api/assistant", handlers.RequireBearerToken(http.HandlerFunc(handlers.Assistant)))
	applog.Debug(ctx, "route registered", "path", "/api/assistant", "bearer", true)

	mux.HandleFunc("/", handlers.Home)
	applog.Debug(ctx, "route registered", "path", "/")
	return withRequestID(mux)
}

// withRequestID tags every request with an id, reusing the caller's when present, and
// attaches it to the request's log records.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := applog.WithAttrs(r.Context(), "requestID", id, "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
