package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/frs/profile-directory/docs"
	"github.com/frs/profile-directory/internal/api/handler"
	"github.com/frs/profile-directory/internal/api/middleware"
	"github.com/frs/profile-directory/internal/core/domain"
	"github.com/frs/profile-directory/internal/core/ports"
)

// Dependencies are the services the HTTP layer is built on.
type Dependencies struct {
	JWTSecret string
	Logger    zerolog.Logger
	Media     domain.MediaResolver
	// LeadSource is reported to the CRM for leads from the public form.
	LeadSource string

	Auth         ports.AuthService
	Profiles     ports.ProfileService
	Activity     ports.ActivityService
	Tasks        ports.TaskService
	Integrations ports.IntegrationService
	Claims       ports.ClaimsService
	Resync       ports.ResyncEnqueuer
	Health       *handler.HealthDependenciesHandler
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	e.Use(echoprometheus.NewMiddleware("profiles_http"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	profileHandler := handler.NewProfileHandler(deps.Profiles, deps.Media)
	directoryHandler := handler.NewDirectoryHandler(deps.Profiles, deps.Media)
	activityHandler := handler.NewActivityHandler(deps.Activity)
	taskHandler := handler.NewTaskHandler(deps.Tasks)
	integrationHandler := handler.NewIntegrationHandler(deps.Integrations)
	leadHandler := handler.NewLeadHandler(deps.Integrations, deps.LeadSource)
	claimsHandler := handler.NewClaimsHandler(deps.Claims)
	adminHandler := handler.NewAdminHandler(deps.Profiles, deps.Resync)
	healthHandler := handler.NewHealthHandler()

	// --- Health probes, metrics and docs (no auth required) ---
	e.GET("/health", healthHandler.Liveness) // liveness  – is the process alive?
	if deps.Health != nil {
		e.GET("/health/ready", deps.Health.Readiness) // readiness – are dependencies up?
	}
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	v1 := e.Group("/v1")

	// --- Public directory ---
	v1.GET("/directory", directoryHandler.List)
	v1.GET("/directory/:slug", directoryHandler.Get)
	v1.POST("/profiles/:id/leads", leadHandler.Submit)

	auth := middleware.Auth(deps.JWTSecret)
	adminOnly := middleware.RBAC(domain.RoleAdmin)
	selfOrAdmin := middleware.SelfOrRole("id", domain.RoleAdmin)

	// --- Profiles ---
	v1.GET("/profiles", profileHandler.List, auth, adminOnly)
	v1.POST("/profiles", profileHandler.Create, auth, adminOnly)
	v1.DELETE("/profiles/:id", profileHandler.Delete, auth, adminOnly)

	self := v1.Group("/profiles/:id", auth, selfOrAdmin)
	self.GET("", profileHandler.Get)
	self.PUT("", profileHandler.Update)
	self.GET("/activity", activityHandler.List)
	self.GET("/claims", claimsHandler.Get)

	self.GET("/tasks", taskHandler.List)
	self.POST("/tasks", taskHandler.Create)
	self.GET("/tasks/:task_id", taskHandler.Get)
	self.PUT("/tasks/:task_id", taskHandler.Update)
	self.DELETE("/tasks/:task_id", taskHandler.Delete)

	self.GET("/integrations/:sink", integrationHandler.Status)
	self.POST("/integrations/:sink/connect", integrationHandler.Connect)
	self.POST("/integrations/:sink/disconnect", integrationHandler.Disconnect)
	self.POST("/integrations/:sink/test", integrationHandler.Test)

	// --- Admin ---
	v1.POST("/admin/resync", adminHandler.Resync, auth, adminOnly)

	return e
}

// requestLogger writes one structured access log line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil || v.Status >= 500 {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("http request")
			return nil
		},
	})
}
