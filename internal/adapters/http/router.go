package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/nattawat-k/fracture-triage/internal/core/ports"
	"github.com/nattawat-k/fracture-triage/internal/guest"
	"github.com/nattawat-k/fracture-triage/internal/observability/metrics"
)

type RouterConfig struct {
	JWTSecret      string
	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int
	InFlightWait   time.Duration
}

type Router struct {
	submitUC   ports.CaseSubmitter
	reviewUC   ports.CaseReviewer
	deleteUC   ports.CaseDeleter
	cases      ports.CaseRepository
	identities ports.IdentityRepository
	guests     *guest.Resolver
	metrics    *metrics.HTTPServerMetrics

	jwtSecret []byte
	cfg       RouterConfig
}

func NewRouter(
	submitUC ports.CaseSubmitter,
	reviewUC ports.CaseReviewer,
	deleteUC ports.CaseDeleter,
	cases ports.CaseRepository,
	identities ports.IdentityRepository,
	guests *guest.Resolver,
	m *metrics.HTTPServerMetrics,
	cfg RouterConfig,
) *Router {
	return &Router{
		submitUC:   submitUC,
		reviewUC:   reviewUC,
		deleteUC:   deleteUC,
		cases:      cases,
		identities: identities,
		guests:     guests,
		metrics:    m,
		jwtSecret:  []byte(cfg.JWTSecret),
		cfg:        cfg,
	}
}

func (rt *Router) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/v1/cases", rt.casesCollection)
	api.HandleFunc("/v1/cases/", rt.casesItem)
	api.HandleFunc("/v1/users", rt.listUsers)
	api.HandleFunc("/v1/users/", rt.updateUserRole)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}
	mux.Handle("/v1/", rt.identityMiddleware(api))

	handler := http.Handler(mux)
	handler = backpressureMiddleware(handler, rt.cfg.MaxInFlight, rt.cfg.InFlightWait)
	handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware("api", handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
