package httpx

import (
	"net/http"

	"github.com/gukii/tanStartMultiUserAgent/internal/app"
	"github.com/gukii/tanStartMultiUserAgent/internal/store"
	"github.com/gukii/tanStartMultiUserAgent/internal/ws"
	"github.com/gukii/tanStartMultiUserAgent/pkg/metrics"
)

// NewRouter wires up all HTTP routes, middleware, and handlers. db may be
// nil when the submission archive is disabled.
func NewRouter(cfg app.Config, hub *ws.Hub, db *store.Postgres) http.Handler {
	mw := NewMiddleware(cfg)
	rooms := &RoomsAPI{Hub: hub}
	subs := &SubmissionsAPI{DB: db, Hub: hub}

	mux := http.NewServeMux()

	// Health / readiness / metrics
	mux.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/readyz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/metrics", metrics.Handler())

	// WebSocket endpoint (not rate limited: one upgrade per peer)
	mux.Handle("/ws", http.HandlerFunc(hub.ServeWS))

	// Room inspection + submission archive
	mux.Handle("GET /api/rooms", mw.Wrap(http.HandlerFunc(rooms.List)))
	mux.Handle("GET /api/rooms/{id}", mw.Wrap(http.HandlerFunc(rooms.Get)))
	mux.Handle("POST /api/rooms/{id}/submissions", mw.Wrap(http.HandlerFunc(subs.Create)))
	mux.Handle("GET /api/rooms/{id}/submissions", mw.Wrap(http.HandlerFunc(subs.List)))

	return mux
}
