// Package server assembles the chi router: global middleware, CORS, the API
// documentation and every route of the service, mounted both at the root and
// under /api.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/user/opledger-go/apperror"
	"github.com/user/opledger-go/auth"
	"github.com/user/opledger-go/config"
	// Registers the OpenAPI document read by httpSwagger.
	_ "github.com/user/opledger-go/docs"
	"github.com/user/opledger-go/logging"
	"github.com/user/opledger-go/operations"
	"github.com/user/opledger-go/users"
)

// Version is reported by GET /status. Overridden at build time with -ldflags.
var Version = "dev"

// Deps are the collaborators the router wires together.
type Deps struct {
	Config     *config.ServerConfig
	Logger     *zap.Logger
	Tokens     auth.TokenValidator
	Users      auth.UserFinder
	Auth       *auth.Handlers
	Operations *operations.Handlers
	Profiles   *users.UserHandlers
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Status    string    `json:"status" example:"active"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// NewRouter builds the HTTP handler for the whole service.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// IMPORTANT: chi requires all middleware to be registered before any routes.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(d.Logger))
	r.Use(recoverer(d.Logger))
	r.Use(cors.Handler(corsOptions(d.Config.CORSAllowedOrigins)))

	// Set before mounting /api so the sub-router inherits them.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apperror.WriteError(w, r, d.Logger, apperror.NewNotFoundError("endpoint not found", nil))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apperror.WriteError(w, r, d.Logger, apperror.NewAppError(apperror.MethodNotAllowedError, "method not allowed", nil))
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Group(func(r chi.Router) { mountRoutes(r, d) })
	r.Route("/api", func(r chi.Router) { mountRoutes(r, d) })

	return r
}

func mountRoutes(r chi.Router, d Deps) {
	timeout := middleware.Timeout(d.Config.RequestTimeout)

	r.With(timeout).Get("/status", handleStatus())
	r.With(timeout).Post("/register", d.Auth.HandleRegister())
	r.With(timeout).Post("/login", d.Auth.HandleLogin())

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(d.Tokens, d.Users, d.Logger))

		// Long-lived; runs without the request timeout.
		r.Get("/operations/stream", d.Operations.HandleStream())

		r.Group(func(r chi.Router) {
			r.Use(timeout)

			r.Post("/operations", d.Operations.HandleCreate())
			r.Get("/operations", d.Operations.HandleList())
			r.Get("/profile", d.Profiles.HandleGetProfile())
			r.Get("/user/profile", d.Profiles.HandleGetProfile())

			r.With(auth.RequireRole(d.Logger, auth.RoleAdmin)).Get("/admin/users", d.Profiles.HandleListUsers())
		})
	})
}

// handleStatus godoc
// @Summary Service status
// @Description Liveness probe.
// @Tags System
// @Produce json
// @Success 200 {object} server.StatusResponse
// @Router /status [get]
func handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apperror.WriteJSON(w, http.StatusOK, StatusResponse{
			Status:    "active",
			Timestamp: time.Now().UTC(),
			Version:   Version,
		})
	}
}

func corsOptions(origins []string) cors.Options {
	wildcard := false
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		// Browsers refuse credentials together with a wildcard origin.
		AllowCredentials: !wildcard,
		MaxAge:           300,
	}
}

// recoverer turns a handler panic into a logged 500 with the standard JSON body.
func recoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if err, ok := rvr.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rvr)
				}
				logger.Error("panic recovered",
					zap.Any("panic", rvr),
					zap.String("path", r.URL.Path),
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.Stack("stack"),
				)
				apperror.WriteJSON(w, http.StatusInternalServerError,
					apperror.NewInternalError("internal server error", nil).ToResponse())
			}()
			next.ServeHTTP(w, r)
		})
	}
}
