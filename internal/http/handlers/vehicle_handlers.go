package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"evlogger/internal/poller"
	"evlogger/internal/vehicle"
)

// VehicleService is the orchestrator surface the handlers depend on.
type VehicleService interface {
	Status(ctx context.Context) (*poller.StatusResult, error)
	Battery(ctx context.Context) (int, error)
	ForceRefreshNow(ctx context.Context) (*poller.StatusResult, error)
	SyncTrips(ctx context.Context) error
	Charge(ctx context.Context, action string, wait bool) (string, error)
}

// NewIndexHandler lists the available endpoints.
func NewIndexHandler() http.HandlerFunc {
	endpoints := map[string]string{
		"/":              "this help page",
		"/status":        "detailed vehicle status (battery, range, charging state, ...)",
		"/battery":       "battery percentage, plain text",
		"/force_refresh": "force refresh vehicle state (auth required)",
		"/trips/sync":    "reconcile daily stats and trips now (auth required)",
		"/charge":        "charge control, action=start|stop&synchronous=true|false (auth required)",
		"/auth/login":    "obtain a bearer token",
		"/ws":            "live log entry stream",
		"/health":        "liveness probe",
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"available_endpoints": endpoints,
			"note":                "all endpoints return JSON except /battery which returns plain text",
		})
	}
}

// NewStatusHandler returns GET /status handler.
func NewStatusHandler(svc VehicleService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := svc.Status(r.Context())
		if err != nil {
			writeRemoteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

// NewBatteryHandler returns GET /battery handler. Plain text body.
func NewBatteryHandler(svc VehicleService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pct, err := svc.Battery(r.Context())
		if err != nil {
			writeRemoteError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, strconv.Itoa(pct))
	}
}

// NewForceRefreshHandler returns POST /force_refresh handler.
func NewForceRefreshHandler(svc VehicleService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := svc.ForceRefreshNow(r.Context())
		if err != nil {
			writeRemoteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"action": "force_refresh",
			"status": status,
		})
	}
}

// NewTripsSyncHandler returns POST /trips/sync handler.
func NewTripsSyncHandler(svc VehicleService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.SyncTrips(r.Context()); err != nil {
			writeRemoteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"action": "trips_sync",
			"status": "success",
		})
	}
}

// NewChargeHandler returns POST /charge handler.
func NewChargeHandler(svc VehicleService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		action := r.URL.Query().Get("action")
		if action == "" {
			action = "start"
		}
		wait, _ := strconv.ParseBool(r.URL.Query().Get("synchronous"))

		status, err := svc.Charge(r.Context(), action, wait)
		if err != nil {
			if errors.Is(err, poller.ErrInvalidChargeAction) {
				writeError(w, http.StatusBadRequest, "invalid action, use 'start' or 'stop'")
				return
			}
			writeRemoteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"action": "charge_" + action,
			"status": status,
		})
	}
}

// NewHealthHandler returns GET /health handler.
func NewHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func writeRemoteError(w http.ResponseWriter, err error) {
	switch vehicle.KindOf(err) {
	case vehicle.KindRateLimited:
		writeError(w, http.StatusTooManyRequests, "vendor api rate limited")
	case vehicle.KindTimeout:
		writeError(w, http.StatusGatewayTimeout, "vehicle did not respond")
	case vehicle.KindAPIError:
		writeError(w, http.StatusBadGateway, "vendor api error")
	default:
		writeError(w, http.StatusInternalServerError, "request failed")
	}
}
