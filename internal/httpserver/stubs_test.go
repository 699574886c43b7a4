package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bizadmin/internal/domain"
	authsvc "bizadmin/internal/service/auth"
	calcsvc "bizadmin/internal/service/calculation"
	customersvc "bizadmin/internal/service/customer"
	onboardingsvc "bizadmin/internal/service/onboarding"
	"github.com/gin-gonic/gin"
)

const testID = "11111111-1111-1111-1111-111111111111"

type stubCustomerService struct {
	customer *domain.Customer
	contact  *domain.Contact
	err      error
	lastIn   customersvc.Input
}

func (s *stubCustomerService) Create(_ context.Context, in customersvc.Input) (*domain.Customer, error) {
	s.lastIn = in
	return s.customer, s.err
}

func (s *stubCustomerService) Update(_ context.Context, _ string, in customersvc.Input) (*domain.Customer, error) {
	s.lastIn = in
	return s.customer, s.err
}

func (s *stubCustomerService) Get(_ context.Context, _ string) (*domain.Customer, error) {
	return s.customer, s.err
}

func (s *stubCustomerService) List(context.Context) ([]domain.CustomerSummary, error) {
	if s.customer == nil {
		return []domain.CustomerSummary{}, s.err
	}
	return []domain.CustomerSummary{{Customer: *s.customer, ContactCount: 1}}, s.err
}

func (s *stubCustomerService) AddContact(context.Context, string, customersvc.ContactInput) (*domain.Contact, error) {
	return s.contact, s.err
}

func (s *stubCustomerService) Onboardings(context.Context, string) ([]domain.ProjectSummary, error) {
	return []domain.ProjectSummary{}, s.err
}

func (s *stubCustomerService) Calculations(context.Context, string) ([]domain.Calculation, error) {
	return []domain.Calculation{}, s.err
}

type stubOnboardingService struct {
	onboarding *domain.Onboarding
	err        error
	calls      int
	actor      *domain.Identity
	lastCreate onboardingsvc.CreateInput
}

func (s *stubOnboardingService) Create(_ context.Context, in onboardingsvc.CreateInput, actor *domain.Identity) (*domain.Onboarding, error) {
	s.calls++
	s.lastCreate = in
	s.actor = actor
	return s.onboarding, s.err
}

func (s *stubOnboardingService) Get(context.Context, string) (*domain.Onboarding, error) {
	return s.onboarding, s.err
}

func (s *stubOnboardingService) Update(context.Context, string, onboardingsvc.PatchInput) (*domain.Onboarding, error) {
	s.calls++
	return s.onboarding, s.err
}

func (s *stubOnboardingService) UpdateStatus(_ context.Context, _ string, raw string) (*domain.Onboarding, error) {
	if _, err := domain.ParseStatus(raw); err != nil {
		return nil, err
	}
	return s.onboarding, s.err
}

func (s *stubOnboardingService) Projects(context.Context) ([]domain.ProjectSummary, error) {
	return []domain.ProjectSummary{{ID: testID, Title: "Umzug", HasNetwork: true, HardwareCount: 2}}, s.err
}

type stubCalculationService struct {
	calc    *domain.Calculation
	stats   *domain.Stats
	pdf     []byte
	err     error
	sendErr error
	sent    calcsvc.SendInput
}

func (s *stubCalculationService) Create(context.Context, calcsvc.CreateInput, *domain.Identity) (*domain.Calculation, error) {
	return s.calc, s.err
}

func (s *stubCalculationService) Get(context.Context, string) (*domain.Calculation, error) {
	return s.calc, s.err
}

func (s *stubCalculationService) Update(context.Context, string, calcsvc.PatchInput) (*domain.Calculation, error) {
	return s.calc, s.err
}

func (s *stubCalculationService) UpdateStatus(_ context.Context, _ string, raw string) (*domain.Calculation, error) {
	if _, err := domain.ParseStatus(raw); err != nil {
		return nil, err
	}
	return s.calc, s.err
}

func (s *stubCalculationService) List(context.Context) ([]domain.Calculation, error) {
	return []domain.Calculation{}, s.err
}

func (s *stubCalculationService) Stats(context.Context) (*domain.Stats, error) {
	return s.stats, s.err
}

func (s *stubCalculationService) RenderPDF(context.Context, string) ([]byte, *domain.Calculation, error) {
	return s.pdf, s.calc, s.err
}

func (s *stubCalculationService) SendByEmail(_ context.Context, _ string, in calcsvc.SendInput) error {
	s.sent = in
	return s.sendErr
}

type stubAuthService struct {
	enabled  bool
	user     *domain.User
	identity *domain.Identity
	loginErr error
}

func (s *stubAuthService) Enabled() bool { return s.enabled }

func (s *stubAuthService) Register(context.Context, authsvc.RegisterInput) (*domain.User, error) {
	return s.user, nil
}

func (s *stubAuthService) Login(context.Context, string, string) (*domain.User, string, error) {
	if s.loginErr != nil {
		return nil, "", s.loginErr
	}
	return s.user, "signed-token", nil
}

func (s *stubAuthService) Verify(token string) (*domain.Identity, error) {
	if token != "good" || s.identity == nil {
		return nil, authsvc.ErrInvalidToken
	}
	return s.identity, nil
}

func testDeps() Deps {
	return Deps{
		CustomerSvc:    &stubCustomerService{},
		OnboardingSvc:  &stubOnboardingService{},
		CalculationSvc: &stubCalculationService{},
		AuthSvc:        &stubAuthService{},
	}
}

func newTestRouter(t *testing.T, deps Deps) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router, err := buildRouter(nil, nil, deps, Options{CORSOrigins: []string{"http://localhost:5173"}})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return router
}

func do(router http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}
