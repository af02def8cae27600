package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cbc-energia/fieldops-backend/api/controllers"
	"github.com/cbc-energia/fieldops-backend/api/middleware"
	"github.com/cbc-energia/fieldops-backend/internal/ai"
	"github.com/cbc-energia/fieldops-backend/internal/alerts"
	"github.com/cbc-energia/fieldops-backend/internal/connectivity"
	"github.com/cbc-energia/fieldops-backend/internal/identity"
	"github.com/cbc-energia/fieldops-backend/internal/markers"
	"github.com/cbc-energia/fieldops-backend/internal/routelog"
	"github.com/cbc-energia/fieldops-backend/internal/syncengine"
	"github.com/cbc-energia/fieldops-backend/internal/visits"
	"github.com/cbc-energia/fieldops-backend/pkg/auth/session"
	"github.com/cbc-energia/fieldops-backend/pkg/config"
	"github.com/cbc-energia/fieldops-backend/pkg/enums"
	"github.com/cbc-energia/fieldops-backend/pkg/kv"
	"github.com/cbc-energia/fieldops-backend/pkg/logger"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	Store          kv.Store
	Sessions       *session.Manager
	Identity       identity.Service
	Visits         visits.Service
	Routes         routelog.Service
	Markers        markers.Service
	AI             ai.Service
	Alerts         *alerts.Sink
	Monitor        *connectivity.Monitor
	Engine         *syncengine.Engine
	MetricsHandler http.Handler
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.Store))
	})

	if d.MetricsHandler != nil {
		r.Handle("/metrics", d.MetricsHandler)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.AuthLogin(d.Identity, d.Sessions, cfg.JWT, logg))
		if cfg.App.IsDev() || cfg.FeatureFlags.DemoAccounts {
			r.Get("/demo-accounts", controllers.AuthDemoAccounts(d.Identity, logg))
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
			r.Post("/logout", controllers.AuthLogout(d.Identity, d.Sessions, logg))
			r.Get("/me", controllers.AuthMe(d.Identity, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))

		r.Route("/visits", func(r chi.Router) {
			r.Post("/", controllers.VisitCreate(d.Visits, logg))
			r.Get("/", controllers.VisitList(d.Visits, logg))
			r.Get("/markers", controllers.VisitMarkers(d.Visits, d.Markers, logg))
		})

		r.Route("/routes", func(r chi.Router) {
			r.Post("/samples", controllers.RouteSample(d.Routes, logg))
			r.Get("/days", controllers.RouteDays(d.Routes, logg))
			r.Get("/today", controllers.RouteToday(d.Routes, logg))
			r.Get("/days/{day}", controllers.RouteByDay(d.Routes, logg))
		})

		r.Route("/markers/config", func(r chi.Router) {
			r.Get("/", controllers.MarkerConfigGet(d.Markers, logg))
			r.Get("/colors", controllers.MarkerColors(logg))
			r.Put("/{key}", controllers.MarkerConfigUpdate(d.Markers, logg))
			r.Post("/reset", controllers.MarkerConfigReset(d.Markers, logg))
		})

		r.Route("/sync", func(r chi.Router) {
			r.Get("/status", controllers.SyncStatus(d.Engine, logg))
			r.Put("/online", controllers.SyncSetOnline(d.Monitor, d.Engine, logg))
			r.Post("/trigger", controllers.SyncTrigger(d.Engine, logg))
		})

		r.Get("/alerts", controllers.AlertsPeek(d.Alerts, logg))
		r.Post("/alerts/drain", controllers.AlertsDrain(d.Alerts, logg))

		r.Route("/ai", func(r chi.Router) {
			r.Get("/analyze", controllers.AIAnalyze(d.AI, logg))
			r.Post("/report", controllers.AIReport(d.AI, d.Visits, logg))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.RoleAdmin), logg))
			r.Get("/summary", controllers.ReportSummary(d.Visits, logg))
			r.Get("/export.xlsx", controllers.ReportExport(d.Visits, logg))
		})
	})

	return r
}
