package rest

import (
	"net/http"

	"github.com/dmitrijs2005/wastewatch/internal/logging"
	"github.com/dmitrijs2005/wastewatch/internal/server/metrics"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps collects what the HTTP surface needs.
type RouterDeps struct {
	Users      AuthService
	Tokens     TokenVerifier
	Storage    Pinger
	Metrics    *metrics.Metrics
	Gatherer   prometheus.Gatherer
	Logger     logging.Logger
	CORSOrigin string
}

// NewRouter assembles routes and middleware. The outer chain runs for
// every request, matched or not.
func NewRouter(d RouterDeps) http.Handler {
	log := d.Logger
	if log == nil {
		log = logging.Nop()
	}
	origin := d.CORSOrigin
	if origin == "" {
		origin = "*"
	}

	h := NewHandlers(d.Users, d.Storage, d.Metrics, log)
	gate := NewAuthMiddleware(d.Tokens, d.Metrics, log)

	r := mux.NewRouter()
	r.Use(instrument(d.Metrics))

	r.HandleFunc("/signup", h.Signup).Methods(http.MethodPost)
	r.HandleFunc("/signin", h.Signin).Methods(http.MethodPost)
	r.Handle("/dashboard", gate.Handler(http.HandlerFunc(h.Dashboard))).Methods(http.MethodGet)
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, messageResponse{Message: "Not Found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, messageResponse{Message: "Method Not Allowed"})
	})

	var handler http.Handler = r
	for _, mw := range []mux.MiddlewareFunc{CORS(origin), Recovery(log), Logger(log), RequestID} {
		handler = mw(handler)
	}
	return handler
}
