package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/onekingdom/assessment-system/internal/api/handler"
	"github.com/onekingdom/assessment-system/internal/api/middleware"
	"github.com/onekingdom/assessment-system/internal/core/domain"
	"github.com/onekingdom/assessment-system/internal/core/ports"
	"github.com/onekingdom/assessment-system/internal/infrastructure/http/handlers"
)

// Services bundles the wired use-case implementations the router exposes.
type Services struct {
	Auth        ports.AuthService
	Users       ports.UserService
	Assessments ports.AssessmentService
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(svcs Services, db *mongo.Database, rdb *redis.Client, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("assessment"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(svcs.Auth)
	userHandler := handler.NewUserHandler(svcs.Users)
	assessmentHandler := handler.NewAssessmentHandler(svcs.Assessments)
	requireAuth := middleware.Auth(svcs.Auth)
	managersOnly := middleware.RBAC(domain.RoleAdmin, domain.RoleCoach)

	// --- Auth routes ---
	e.POST("/v1/auth/login", authHandler.Login)
	e.GET("/v1/auth/token-check", authHandler.TokenCheck, requireAuth)

	// --- User management ---
	users := e.Group("/v1/users", requireAuth)
	users.POST("", userHandler.Create)
	users.GET("", userHandler.List, managersOnly)
	users.GET("/:id", userHandler.Get)
	users.PUT("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Delete)

	// --- Assessments ---
	assessments := e.Group("/v1/assessments", requireAuth)
	assessments.POST("", assessmentHandler.Create, managersOnly)
	assessments.GET("", assessmentHandler.List)
	assessments.GET("/:id", assessmentHandler.Get)
	assessments.PUT("/:id/answers", assessmentHandler.SetAnswers)
	assessments.PUT("/:id/coach", assessmentHandler.AssignCoach, managersOnly)
	assessments.PUT("/:id/owner", assessmentHandler.ReassignOwner, managersOnly)
	assessments.POST("/:id/collaborators", assessmentHandler.AddCollaborator, managersOnly)
	assessments.DELETE("/:id/collaborators/:user_id", assessmentHandler.RemoveCollaborator, managersOnly)
	assessments.PUT("/:id/segments/:segment_id", assessmentHandler.ToggleSegment, managersOnly)
	assessments.GET("/:id/segments/navigate", assessmentHandler.Navigate)
	assessments.POST("/:id/notify", assessmentHandler.Notify)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
