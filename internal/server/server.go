package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mwhitfield/redline/internal/paginate"
)

// Handler assembles the full HTTP surface: the transcript API, the WebSocket
// event stream, and Prometheus metrics.
func Handler(hub *Hub, store TranscriptStore, summarizer Summarizer, pageCfg paginate.Config) http.Handler {
	mux := http.NewServeMux()

	registerWSRoute(mux, hub)
	registerAPIRoutes(mux, store, hub, summarizer, pageCfg)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return mux
}
