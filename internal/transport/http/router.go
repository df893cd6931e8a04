package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	obsmw "wizardguard/internal/observability/middleware"
)

// RouterConfig carries the transport-level knobs.
type RouterConfig struct {
	// CORSOrigins is a comma-separated allow list. Empty allows any origin,
	// which suits a browser game served from a CDN.
	CORSOrigins string

	// RequestsPerMinute caps per-IP request rate. Default 60.
	RequestsPerMinute int
}

// NewRouter builds the HTTP surface: the five validation operations, the
// discrete action records, game config/status, health and metrics.
func NewRouter(cfg RouterConfig, h *Handler) http.Handler {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(httprate.LimitByIP(cfg.RequestsPerMinute, time.Minute))

	origins := []string{"*"}
	if cfg.CORSOrigins != "" {
		origins = strings.Split(cfg.CORSOrigins, ",")
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(obsmw.WithRequestID)
	r.Use(obsmw.WithMetrics)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/game", func(r chi.Router) {
		r.Get("/config", h.GameConfig)
		r.Get("/status", h.Status)

		r.Post("/arrow-shot", h.ArrowShot)
		r.Post("/item-hit", h.ItemHit)
		r.Post("/bomb-hit", h.BombHit)

		r.Post("/request-device-permission", h.RequestDevicePermission)
		r.Post("/validate-secure-action", h.ValidateSecureAction)
		r.Post("/report-suspicious-activity", h.ReportSuspiciousActivity)
		r.Post("/real-time-validation", h.RealTimeValidation)
	})

	return r
}
