package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/rattanstore-backend/api/responses"
	"github.com/angelmondragon/rattanstore-backend/pkg/config"
	"github.com/angelmondragon/rattanstore-backend/pkg/enums"
	"github.com/angelmondragon/rattanstore-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

type pinger interface {
	Ping(context.Context) error
}

type storageModer interface {
	StorageMode() enums.StorageMode
}

type readyResponse struct {
	Status      string            `json:"status"`
	Checks      map[string]string `json:"checks"`
	StorageMode enums.StorageMode `json:"storageMode,omitempty"`
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RattanStore-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings Redis and the database. Redis is required; a missing or
// failing database only degrades readiness because orders fall back to memory.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP pinger, redisP pinger, store storageModer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RattanStore-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		resp := readyResponse{Status: "ready", Checks: map[string]string{}}
		status := http.StatusOK

		if err := ping(ctx, redisP); err != nil {
			resp.Checks["redis"] = "unavailable"
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			if logg != nil {
				logg.Error(ctx, "health.redis_unavailable", err)
			}
		} else {
			resp.Checks["redis"] = "ok"
		}

		if err := ping(ctx, dbP); err != nil {
			resp.Checks["database"] = "unavailable"
			if resp.Status == "ready" {
				resp.Status = "degraded"
			}
			if logg != nil {
				logg.Warn(logg.WithField(ctx, "error", err.Error()), "health.database_unavailable")
			}
		} else {
			resp.Checks["database"] = "ok"
		}

		if store != nil {
			resp.StorageMode = store.StorageMode()
			if resp.StorageMode.IsDegraded() && resp.Status == "ready" {
				resp.Status = "degraded"
			}
		}

		responses.WriteSuccessStatus(w, status, resp)
	}
}

func ping(ctx context.Context, p pinger) error {
	if p == nil {
		return errNotConfigured
	}
	return p.Ping(ctx)
}
