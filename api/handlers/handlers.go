// Package handlers exposes the vault engine over HTTP. Mutating endpoints
// require a signed envelope: the caller fetches a one-time nonce, signs the
// canonical message for the action with their ed25519 key, and sends signer,
// nonce, and signature alongside the action parameters.
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"

	"github.com/sparklabs/ideavault/api/metrics"
	"github.com/sparklabs/ideavault/api/vault"
)

// Handlers carries the dependencies shared by all HTTP handlers.
type Handlers struct {
	engine *vault.Engine
	nonces NonceStore
	clock  clockwork.Clock
	log    *slog.Logger
	ready  func() error
}

// Config carries the handler dependencies.
type Config struct {
	Engine *vault.Engine
	Nonces NonceStore
	Clock  clockwork.Clock
	Logger *slog.Logger
	// Ready reports whether backing services are reachable; nil means
	// always ready.
	Ready func() error
}

// New builds the handler set.
func New(cfg Config) *Handlers {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Handlers{
		engine: cfg.Engine,
		nonces: cfg.Nonces,
		clock:  cfg.Clock,
		log:    cfg.Logger,
		ready:  cfg.Ready,
	}
}

func (h *Handlers) now() time.Time {
	return h.clock.Now().UTC()
}

// Router wires all routes with CORS, metrics, and rate limiting.
func (h *Handlers) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
	r.Get("/version", h.GetVersion)

	r.Route("/api", func(r chi.Router) {
		r.Get("/auth/nonce", h.GetNonce)

		r.Get("/admin/config", h.GetAdminConfig)
		r.Get("/vaults", h.ListVaults)
		r.Get("/vaults/{address}", h.GetVault)
		r.Get("/vaults/{address}/balance", h.GetCustodyBalance)
		r.Get("/vaults/{address}/deposits/{user}", h.GetUserDeposit)
		r.Get("/events", h.ListEvents)

		// Mutations are signed and rate limited per IP.
		r.Group(func(r chi.Router) {
			r.Use(RateLimitMiddleware(MutationRateLimiter))

			r.Post("/admin/config", h.InitializeAdminConfig)
			r.Post("/admin/update", h.UpdateAdmin)
			r.Post("/admin/pause", h.TogglePause)

			r.Post("/vaults", h.InitializeVault)
			r.Post("/vaults/{address}/deposit", h.Deposit)
			r.Post("/vaults/{address}/withdraw", h.Withdraw)
			r.Post("/vaults/{address}/sweep", h.AdminWithdraw)
		})
	})

	return r
}
