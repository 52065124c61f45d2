// Package router assembles the HTTP surface of the platform.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/terapiaconect/platform/internal/accounts"
	"github.com/terapiaconect/platform/internal/availability"
	httpmiddleware "github.com/terapiaconect/platform/internal/http/middleware"
	"github.com/terapiaconect/platform/internal/recordings"
	"github.com/terapiaconect/platform/internal/scheduling"
	"github.com/terapiaconect/platform/internal/sessions"
	"github.com/terapiaconect/platform/internal/therapists"
	"github.com/terapiaconect/platform/internal/tokenledger"
	"github.com/terapiaconect/platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	AccountsHandler     *accounts.Handler
	TherapistsHandler   *therapists.Handler
	AvailabilityHandler *availability.Handler
	SchedulingHandler   *scheduling.Handler
	SessionsHandler     *sessions.Handler
	PresenceHub         *sessions.PresenceHub
	RecordingsHandler   *recordings.Handler
	UsageHandler        *tokenledger.Handler
	MetricsHandler      http.Handler

	JWTSecret          string
	CORSAllowedOrigins []string

	// Auth endpoints get their own limiter; credential stuffing is the
	// main abuse vector.
	AuthRatePerSec float64
	AuthRateBurst  int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	authRate := cfg.AuthRatePerSec
	if authRate <= 0 {
		authRate = 5
	}
	authBurst := cfg.AuthRateBurst
	if authBurst <= 0 {
		authBurst = 10
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}

		public.Route("/auth", func(auth chi.Router) {
			auth.Use(httpmiddleware.RateLimit(authRate, authBurst))
			auth.Post("/register", cfg.AccountsHandler.Register)
			auth.Post("/login", cfg.AccountsHandler.Login)
		})

		// Browsing therapists and their availability needs no account.
		public.Get("/therapists", cfg.TherapistsHandler.List)
		public.Get("/therapists/{therapistID}", cfg.TherapistsHandler.Get)
		public.Get("/therapists/{therapistID}/availability", cfg.AvailabilityHandler.ListForTherapist)
	})

	// Authenticated endpoints
	r.Group(func(authed chi.Router) {
		authed.Use(httpmiddleware.Auth(cfg.JWTSecret))

		authed.Get("/me", cfg.AccountsHandler.Me)

		authed.With(httpmiddleware.RequireRole(accounts.RoleTherapist)).
			Patch("/therapists/me", cfg.TherapistsHandler.UpdateMe)

		authed.Route("/availability", func(av chi.Router) {
			av.Use(httpmiddleware.RequireRole(accounts.RoleTherapist, accounts.RoleAdmin))
			av.Post("/", cfg.AvailabilityHandler.Create)
			av.Delete("/{windowID}", cfg.AvailabilityHandler.Delete)
		})

		authed.Route("/appointments", func(ap chi.Router) {
			ap.Get("/", cfg.SchedulingHandler.List)
			ap.With(httpmiddleware.RequireRole(accounts.RoleClient)).
				Post("/", cfg.SchedulingHandler.Create)
			ap.Patch("/{appointmentID}/status", cfg.SchedulingHandler.UpdateStatus)
		})

		if cfg.SessionsHandler != nil {
			authed.Route("/sessions", func(sess chi.Router) {
				sess.Post("/", cfg.SessionsHandler.Start)
				sess.Route("/{sessionID}", func(one chi.Router) {
					one.Get("/", cfg.SessionsHandler.Get)
					one.Post("/join", cfg.SessionsHandler.Join)
					one.Post("/end", cfg.SessionsHandler.End)
					one.Get("/insights", cfg.SessionsHandler.Insights)
					if cfg.RecordingsHandler != nil {
						one.Post("/recordings", cfg.RecordingsHandler.Upload)
						one.Get("/recordings", cfg.RecordingsHandler.List)
						one.Get("/transcript", cfg.RecordingsHandler.Transcript)
					}
				})
			})
			if cfg.PresenceHub != nil {
				authed.Get("/sessions/{sessionID}/presence", func(w http.ResponseWriter, r *http.Request) {
					q := r.URL.Query()
					q.Set("session", chi.URLParam(r, "sessionID"))
					r.URL.RawQuery = q.Encode()
					cfg.PresenceHub.HandleWebSocket(w, r)
				})
			}
		}

		if cfg.UsageHandler != nil {
			authed.With(httpmiddleware.RequireRole(accounts.RoleAdmin)).
				Get("/admin/usage", cfg.UsageHandler.Usage)
		}
	})

	return r
}
