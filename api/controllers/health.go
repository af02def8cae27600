package controllers

import (
	"net/http"

	"github.com/cbc-energia/fieldops-backend/api/responses"
	"github.com/cbc-energia/fieldops-backend/pkg/config"
	"github.com/cbc-energia/fieldops-backend/pkg/kv"
	"github.com/cbc-energia/fieldops-backend/pkg/logger"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FieldOps-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks the durable store before reporting ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, store kv.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FieldOps-Env", cfg.App.Env)

		status := "ready"
		code := http.StatusOK
		if store != nil {
			var probe any
			if _, err := store.Load(r.Context(), kv.KeyAuthUser, &probe); err != nil {
				if logg != nil {
					logg.Error(r.Context(), "health.store", err)
				}
				status = "degraded"
				code = http.StatusServiceUnavailable
			}
		}

		responses.WriteSuccessStatus(w, code, map[string]string{"status": status})
	}
}
