package httpserver

import (
	"context"
	"errors"
	"time"

	"bizadmin/internal/domain"
	"bizadmin/internal/logger"
	authsvc "bizadmin/internal/service/auth"
	calcsvc "bizadmin/internal/service/calculation"
	customersvc "bizadmin/internal/service/customer"
	onboardingsvc "bizadmin/internal/service/onboarding"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// CustomerService is the customer registry as seen by the handlers.
type CustomerService interface {
	Create(ctx context.Context, in customersvc.Input) (*domain.Customer, error)
	Update(ctx context.Context, id string, in customersvc.Input) (*domain.Customer, error)
	Get(ctx context.Context, id string) (*domain.Customer, error)
	List(ctx context.Context) ([]domain.CustomerSummary, error)
	AddContact(ctx context.Context, customerID string, in customersvc.ContactInput) (*domain.Contact, error)
	Onboardings(ctx context.Context, customerID string) ([]domain.ProjectSummary, error)
	Calculations(ctx context.Context, customerID string) ([]domain.Calculation, error)
}

type OnboardingService interface {
	Create(ctx context.Context, in onboardingsvc.CreateInput, actor *domain.Identity) (*domain.Onboarding, error)
	Get(ctx context.Context, id string) (*domain.Onboarding, error)
	Update(ctx context.Context, id string, in onboardingsvc.PatchInput) (*domain.Onboarding, error)
	UpdateStatus(ctx context.Context, id, raw string) (*domain.Onboarding, error)
	Projects(ctx context.Context) ([]domain.ProjectSummary, error)
}

type CalculationService interface {
	Create(ctx context.Context, in calcsvc.CreateInput, actor *domain.Identity) (*domain.Calculation, error)
	Get(ctx context.Context, id string) (*domain.Calculation, error)
	Update(ctx context.Context, id string, in calcsvc.PatchInput) (*domain.Calculation, error)
	UpdateStatus(ctx context.Context, id, raw string) (*domain.Calculation, error)
	List(ctx context.Context) ([]domain.Calculation, error)
	Stats(ctx context.Context) (*domain.Stats, error)
	RenderPDF(ctx context.Context, id string) ([]byte, *domain.Calculation, error)
	SendByEmail(ctx context.Context, id string, in calcsvc.SendInput) error
}

type AuthService interface {
	Enabled() bool
	Register(ctx context.Context, in authsvc.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	Verify(token string) (*domain.Identity, error)
}

// Deps are the services behind the API routes.
type Deps struct {
	CustomerSvc    CustomerService
	OnboardingSvc  OnboardingService
	CalculationSvc CalculationService
	AuthSvc        AuthService
}

func (d Deps) validate() error {
	switch {
	case d.CustomerSvc == nil:
		return errors.New("customer service is required")
	case d.OnboardingSvc == nil:
		return errors.New("onboarding service is required")
	case d.CalculationSvc == nil:
		return errors.New("calculation service is required")
	case d.AuthSvc == nil:
		return errors.New("auth service is required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(log *logger.Logger, db *pgxpool.Pool, deps Deps, opts Options) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	log = logger.OrNop(log)

	router := gin.New()
	router.Use(gin.Recovery(), requestID(), requestLogger(log))
	if opts.TracingService != "" {
		router.Use(otelgin.Middleware(opts.TracingService))
	}
	router.Use(corsMiddleware(opts.CORSOrigins))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{deps: deps, logger: log}

	api := router.Group("/api")
	api.POST("/auth/register", h.register)
	api.POST("/auth/login", h.login)

	secured := api.Group("", authMiddleware(deps.AuthSvc))
	secured.GET("/me", h.me)

	secured.GET("/customers", h.listCustomers)
	secured.POST("/customers", h.createCustomer)
	secured.GET("/customers/:id", h.getCustomer)
	secured.PUT("/customers/:id", h.updateCustomer)
	secured.POST("/customers/:id/contacts", h.addContact)
	secured.GET("/customers/:id/onboardings", h.customerOnboardings)
	secured.GET("/customers/:id/kalkulationen", h.customerCalculations)

	secured.GET("/onboarding", h.listProjects)
	secured.POST("/onboarding", h.createOnboarding)
	secured.GET("/onboarding/projects", h.listProjects)
	secured.GET("/onboarding/:id", h.getOnboarding)
	secured.PATCH("/onboarding/:id", h.updateOnboarding)
	secured.PATCH("/onboarding/:id/status", h.updateOnboardingStatus)

	secured.GET("/kalkulationen", h.listCalculations)
	secured.POST("/kalkulationen", h.createCalculation)
	secured.GET("/kalkulationen/stats", h.calculationStats)
	secured.GET("/kalkulationen/:id", h.getCalculation)
	secured.PATCH("/kalkulationen/:id", h.updateCalculation)
	secured.PATCH("/kalkulationen/:id/status", h.updateCalculationStatus)
	secured.GET("/kalkulationen/:id/pdf", h.calculationPDF)
	secured.POST("/kalkulationen/:id/send-email", h.sendCalculation)

	return router, nil
}

type handlers struct {
	deps   Deps
	logger *logger.Logger
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Disposition", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
