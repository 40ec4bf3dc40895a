package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/myvoice974/account-api/internal/application/account"
	"github.com/myvoice974/account-api/internal/application/recovery"
	"github.com/myvoice974/account-api/internal/config"
	"github.com/myvoice974/account-api/internal/transport/http/handler"
	appmiddleware "github.com/myvoice974/account-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	var signer account.TokenSigner
	if deps.JWTProvider != nil {
		signer = deps.JWTProvider
	}
	var googleVerifier account.GoogleVerifier
	if deps.GoogleVerifier != nil {
		googleVerifier = deps.GoogleVerifier
	}

	accountSvc := account.NewService(account.ServiceDeps{
		UserRepo: deps.UserRepo,
		Signer:   signer,
		Google:   googleVerifier,
	})
	recoverySvc := recovery.NewService(recovery.ServiceDeps{
		OtpRepo:  deps.OtpRepo,
		UserRepo: deps.UserRepo,
		Mailer:   deps.Mailer,
	})

	healthH := handler.NewHealthHandler()
	sessionH := handler.NewSessionHandler(accountSvc)
	userH := handler.NewUserHandler(accountSvc)
	pwH := handler.NewPasswordRecoveryHandler(recoverySvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/users", userH.Register)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.With(sensitiveRL.Limit).Post("/sessions/google", sessionH.Google)
		r.With(sensitiveRL.Limit).Post("/password-recovery/{action}", pwH.Action)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/users/me", userH.Me)
			r.Put("/users/me", userH.UpdateMe)
		})
	})

	return r
}
