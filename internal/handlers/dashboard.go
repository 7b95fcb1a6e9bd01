package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"ahara/internal/cache"
	applog "ahara/internal/log"
	"ahara/models"
)

type dashboardCounts struct {
	Patients    int64           `json:"patients"`
	DietCharts  int64           `json:"diet_charts"`
	ActiveFoods int64           `json:"active_foods"`
	Platform    *platformCounts `json:"platform,omitempty"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// platformCounts is the practice-wide breakdown only admins receive.
type platformCounts struct {
	Users           int64 `json:"users"`
	Dietitians      int64 `json:"dietitians"`
	PatientAccounts int64 `json:"patient_accounts"`
	Foods           int64 `json:"foods"`
	DietCharts      int64 `json:"diet_charts"`
}

type dashboardResponse struct {
	dashboardCounts
	Cached bool `json:"cached"`
}

// Dashboard reports the practitioner's headline counts. Admins also get the
// practice-wide breakdown of accounts, foods and charts.
func Dashboard(w http.ResponseWriter, r *http.Request) {
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

	var cached dashboardCounts
	err := dashboardCache.Load(ctx, session.UserID, &cached)
	switch {
	case err == nil:
		applog.Debug(ctx, "dashboard served from cache")
		writeJSON(w, http.StatusOK, dashboardResponse{dashboardCounts: cached, Cached: true})
		return
	case !errors.Is(err, cache.ErrMiss):
		applog.Warn(ctx, "dashboard cache read failed", "error", err)
	}

	counts, err := loadDashboardCounts(ctx, session)
	if err != nil {
		applog.Error(ctx, "failed to load dashboard counts", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load dashboard")
		return
	}
	if err := dashboardCache.Store(ctx, session.UserID, counts); err != nil {
		applog.Warn(ctx, "dashboard cache write failed", "error", err)
	}
	writeJSON(w, http.StatusOK, dashboardResponse{dashboardCounts: counts})
}

// loadDashboardCounts runs the count queries concurrently. Every query must succeed.
func loadDashboardCounts(ctx context.Context, session Session) (dashboardCounts, error) {
	counts := dashboardCounts{GeneratedAt: nowFunc().UTC()}
	g, gctx := errgroup.WithContext(ctx)
	db := database.WithContext(gctx)

	g.Go(func() error {
		return db.Model(&models.Patient{}).Where("practitioner_id = ?", session.UserID).Count(&counts.Patients).Error
	})
	g.Go(func() error {
		return db.Model(&models.DietChart{}).Where("practitioner_id = ?", session.UserID).Count(&counts.DietCharts).Error
	})
	g.Go(func() error {
		return db.Model(&models.Food{}).Scopes(activeFoods).Count(&counts.ActiveFoods).Error
	})
	if session.IsAdmin() {
		platform := &platformCounts{}
		counts.Platform = platform
		g.Go(func() error {
			return db.Model(&models.User{}).Count(&platform.Users).Error
		})
		g.Go(func() error {
			return db.Model(&models.User{}).Where("role = ?", models.RoleDietitian).Count(&platform.Dietitians).Error
		})
		g.Go(func() error {
			return db.Model(&models.User{}).Where("role = ?", models.RolePatient).Count(&platform.PatientAccounts).Error
		})
		g.Go(func() error {
			return db.Model(&models.Food{}).Count(&platform.Foods).Error
		})
		g.Go(func() error {
			return db.Model(&models.DietChart{}).Count(&platform.DietCharts).Error
		})
	}

	if err := g.Wait(); err != nil {
		return dashboardCounts{}, err
	}
	return counts, nil
}

func invalidateDashboard(r *http.Request, practitionerID uint) {
	if err := dashboardCache.Invalidate(r.Context(), practitionerID); err != nil {
		applog.Warn(r.Context(), "failed to invalidate dashboard cache", "error", err, "practitionerID", practitionerID)
	}
}

func invalidateAllDashboards(r *http.Request) {
	if err := dashboardCache.InvalidateAll(r.Context()); err != nil {
		applog.Warn(r.Context(), "failed to invalidate dashboard caches", "error", err)
	}
}
