package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/handyhub/accounts/docs"
	"github.com/handyhub/accounts/internal/api/handler"
	"github.com/handyhub/accounts/internal/api/middleware"
	"github.com/handyhub/accounts/internal/api/session"
	"github.com/handyhub/accounts/internal/core/domain"
	"github.com/handyhub/accounts/internal/core/ports"
	"github.com/handyhub/accounts/internal/core/service"
	"github.com/handyhub/accounts/internal/infrastructure/config"
)

const metricsSubsystem = "http"

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Config *config.Config
	Log    zerolog.Logger

	// Users is nil when DATABASE_URL is unset; account endpoints then answer 503.
	Users ports.UserRepository
	// Sessions is nil when Redis is not configured.
	Sessions ports.SessionStore
	// Checks are the dependencies reported by the readiness probe.
	Checks map[string]handler.Pinger

	// Registry receives the HTTP metrics. Defaults to the global registry,
	// which also holds the account counters.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(metricsMiddleware(deps.Registry))

	// --- Dependencies ---
	cookies := session.Cookies{Secure: deps.Config.IsProduction()}

	var (
		creator     ports.UserCreator
		authService ports.AuthService
	)
	if deps.Users != nil {
		svc := service.NewAuthService(deps.Users, deps.Sessions, deps.Config.JWTSecret, domain.SessionTTL,
			deps.Log.With().Str("component", "auth_service").Logger())
		creator, authService = svc, svc
	}

	registerHandler := handler.NewRegisterHandler(creator, cookies, deps.Log.With().Str("component", "register_handler").Logger())
	authHandler := handler.NewAuthHandler(authService, cookies, deps.Log.With().Str("component", "auth_handler").Logger())

	// --- Auth routes ---
	auth := e.Group("/api/auth")
	auth.POST("/register", registerHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)

	// --- Session routes ---
	if authService == nil {
		e.GET("/api/auth/me", handler.Unavailable)
		e.GET("/api/providers/me/business", handler.Unavailable)
	} else {
		requireSession := middleware.Auth(authService)
		e.GET("/api/auth/me", authHandler.Me, requireSession)

		providers := e.Group("/api/providers", requireSession, middleware.RequireUserType(domain.UserTypeProvider))
		providers.GET("/me/business", authHandler.Business)
	}

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Checks)

	e.GET("/health", healthHandler.Liveness)            // liveness
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness

	// --- Operations ---
	e.GET("/metrics", metricsHandler(deps.Registry))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

func metricsMiddleware(reg *prometheus.Registry) echo.MiddlewareFunc {
	if reg == nil {
		return echoprometheus.NewMiddleware(metricsSubsystem)
	}
	return echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  metricsSubsystem,
		Registerer: reg,
	})
}

func metricsHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}
