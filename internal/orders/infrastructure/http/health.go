// Package http is the ops-only surface: liveness, readiness and prometheus
// metrics. All business traffic goes over the bus.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/skalarhq/orders-service/pkg/metrics"
)

type Handler struct {
	log  *slog.Logger
	pool *pgxpool.Pool
	rdb  *redis.Client
}

func NewHandler(log *slog.Logger, pool *pgxpool.Pool, rdb *redis.Client) *Handler {
	return &Handler{log: log, pool: pool, rdb: rdb}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)
	r.Handle("/metrics", metrics.Handler())

	return r
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if err := h.pool.Ping(r.Context()); err != nil {
		h.log.Warn("readiness: postgres unreachable", "err", err)
		http.Error(w, "postgres unreachable", http.StatusServiceUnavailable)
		return
	}
	if err := h.rdb.Ping(r.Context()).Err(); err != nil {
		h.log.Warn("readiness: redis unreachable", "err", err)
		http.Error(w, "redis unreachable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}
