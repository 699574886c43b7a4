package customer

import (
	"context"
	"strings"

	"bizadmin/internal/domain"
	"bizadmin/internal/logger"
	custrepo "bizadmin/internal/repository/customer"
)

// OnboardingLister lists the onboardings of one customer.
type OnboardingLister interface {
	List(ctx context.Context, customerID string) ([]domain.ProjectSummary, error)
}

// CalculationLister lists the calculations of one customer.
type CalculationLister interface {
	List(ctx context.Context, customerID string) ([]domain.Calculation, error)
}

// Service implements the customer registry.
type Service struct {
	repo         custrepo.Repository
	onboardings  OnboardingLister
	calculations CalculationLister
	logger       *logger.Logger
}

// New creates a Service.
func New(repo custrepo.Repository, onboardings OnboardingLister, calculations CalculationLister, log *logger.Logger) *Service {
	return &Service{
		repo:         repo,
		onboardings:  onboardings,
		calculations: calculations,
		logger:       logger.OrNop(log).With("service", "customer"),
	}
}

// ContactInput mirrors an incoming contact payload.
type ContactInput struct {
	FirstName string `json:"firstName"`
	Name      string `json:"name"`
	Position  string `json:"position"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

// Input captures the seven core customer fields plus an optional first contact.
type Input struct {
	CompanyName string        `json:"firmenname"`
	Street      string        `json:"strasse"`
	HouseNumber string        `json:"hausnummer"`
	PostalCode  string        `json:"plz"`
	City        string        `json:"ort"`
	Phone       string        `json:"telefonnummer"`
	Email       string        `json:"email"`
	Contact     *ContactInput `json:"contact"`
}

// Prepare normalises and validates in. The contact is returned only when
// both its name and first name are present; blank phone, email and position
// are filled from the customer.
func Prepare(in Input) (domain.Customer, *domain.Contact, error) {
	c := domain.Customer{
		CompanyName: in.CompanyName,
		Street:      in.Street,
		HouseNumber: in.HouseNumber,
		PostalCode:  in.PostalCode,
		City:        in.City,
		Phone:       in.Phone,
		Email:       in.Email,
	}
	c.Normalize()
	if err := c.Validate(); err != nil {
		return domain.Customer{}, nil, err
	}
	if in.Contact == nil {
		return c, nil, nil
	}
	ct, ok := contactFrom(*in.Contact)
	if !ok {
		return c, nil, nil
	}
	if ct.Email != "" && !domain.ValidEmail(ct.Email) {
		return domain.Customer{}, nil, domain.NewValidationError("contact.email", "invalid email address")
	}
	ct = ct.WithDefaultsFrom(c)
	return c, &ct, nil
}

// Create registers a customer and, optionally, its first contact atomically.
func (s *Service) Create(ctx context.Context, in Input) (*domain.Customer, error) {
	c, contact, err := Prepare(in)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, c, contact)
	if err != nil {
		return nil, err
	}
	s.logger.Info("customer created", "id", created.ID, "with_contact", contact != nil)
	return created, nil
}

// Update replaces the seven core fields of customer id.
func (s *Service) Update(ctx context.Context, id string, in Input) (*domain.Customer, error) {
	if !domain.ValidID(id) {
		return nil, domain.ErrNotFound
	}
	in.Contact = nil
	c, _, err := Prepare(in)
	if err != nil {
		return nil, err
	}
	c.ID = id
	return s.repo.Update(ctx, c)
}

// Get returns the customer with all contacts.
func (s *Service) Get(ctx context.Context, id string) (*domain.Customer, error) {
	if !domain.ValidID(id) {
		return nil, domain.ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// List returns every customer newest-first with contact and onboarding counts.
func (s *Service) List(ctx context.Context) ([]domain.CustomerSummary, error) {
	return s.repo.List(ctx)
}

// AddContact attaches a contact to an existing customer.
func (s *Service) AddContact(ctx context.Context, customerID string, in ContactInput) (*domain.Contact, error) {
	c, err := s.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	ct, ok := contactFrom(in)
	if !ok {
		return nil, domain.NewValidationError("name", "first name and name required")
	}
	if ct.Email != "" && !domain.ValidEmail(ct.Email) {
		return nil, domain.NewValidationError("email", "invalid email address")
	}
	ct = ct.WithDefaultsFrom(*c)
	ct.CustomerID = c.ID
	return s.repo.AddContact(ctx, ct)
}

// Onboardings lists the customer's onboardings newest-first.
func (s *Service) Onboardings(ctx context.Context, customerID string) ([]domain.ProjectSummary, error) {
	if _, err := s.Get(ctx, customerID); err != nil {
		return nil, err
	}
	return s.onboardings.List(ctx, customerID)
}

// Calculations lists the customer's calculations newest-first.
func (s *Service) Calculations(ctx context.Context, customerID string) ([]domain.Calculation, error) {
	if _, err := s.Get(ctx, customerID); err != nil {
		return nil, err
	}
	return s.calculations.List(ctx, customerID)
}

func contactFrom(in ContactInput) (domain.Contact, bool) {
	ct := domain.Contact{
		FirstName: strings.TrimSpace(in.FirstName),
		Name:      strings.TrimSpace(in.Name),
		Position:  strings.TrimSpace(in.Position),
		Phone:     strings.TrimSpace(in.Phone),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
	}
	return ct, ct.FirstName != "" && ct.Name != ""
}
