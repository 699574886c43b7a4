package onboarding

import (
	"context"
	"strings"

	"bizadmin/internal/domain"
	"bizadmin/internal/logger"
	onbrepo "bizadmin/internal/repository/onboarding"
	customersvc "bizadmin/internal/service/customer"
)

// Service implements the onboarding aggregate.
type Service struct {
	repo   onbrepo.Repository
	logger *logger.Logger
}

// New creates a Service.
func New(repo onbrepo.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, logger: logger.OrNop(log).With("service", "onboarding")}
}

// CreateInput is the final payload of the onboarding wizard. Exactly one of
// CustomerID (existing customer) and Customer (register in the same
// transaction) must be set.
type CreateInput struct {
	CustomerID  string             `json:"customerId"`
	Customer    *customersvc.Input `json:"customer"`
	EmployeeID  *string            `json:"employeeId"`
	Status      domain.Status      `json:"status"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Budget      *float64           `json:"budget"`
	StartDate   *domain.Date       `json:"startDate"`
	EndDate     *domain.Date       `json:"endDate"`
	Network     domain.Network     `json:"network"`
	Hardware    []domain.Hardware  `json:"hardware"`
	Mail        domain.Mail        `json:"mail"`
	Software    []domain.Software  `json:"software"`
	Backup      domain.Backup      `json:"backup"`
	Notes       string             `json:"notes"`
}

// PatchInput replaces each present part; absent parts stay as they are.
type PatchInput struct {
	Status      *domain.Status        `json:"status"`
	Title       *string               `json:"title"`
	Description *string               `json:"description"`
	Budget      domain.NullableNumber `json:"budget"`
	StartDate   *domain.Date          `json:"startDate"`
	EndDate     *domain.Date          `json:"endDate"`
	Network     *domain.Network       `json:"network"`
	Hardware    *[]domain.Hardware    `json:"hardware"`
	Mail        *domain.Mail          `json:"mail"`
	Software    *[]domain.Software    `json:"software"`
	Backup      *domain.Backup        `json:"backup"`
	Notes       *string               `json:"notes"`
}

// Create stores a complete onboarding. The employee defaults to actor.
func (s *Service) Create(ctx context.Context, in CreateInput, actor *domain.Identity) (*domain.Onboarding, error) {
	in.CustomerID = strings.TrimSpace(in.CustomerID)
	switch {
	case in.CustomerID != "" && in.Customer != nil:
		return nil, domain.NewValidationError("customer", "send either customerId or customer, not both")
	case in.CustomerID == "" && in.Customer == nil:
		return nil, domain.NewValidationError("customerId", "required")
	}

	o := domain.Onboarding{
		CustomerID:  in.CustomerID,
		EmployeeID:  attribute(in.EmployeeID, actor),
		Status:      in.Status,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Budget:      domain.RoundCentsPtr(in.Budget),
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Network:     in.Network,
		Hardware:    nonNil(in.Hardware),
		Mail:        in.Mail,
		Software:    nonNil(in.Software),
		Backup:      in.Backup,
		Notes:       in.Notes,
	}
	if o.Status == "" {
		o.Status = domain.StatusNew
	}
	if o.EmployeeID != nil && !domain.ValidID(*o.EmployeeID) {
		return nil, domain.ErrInvalidReference
	}

	if in.Customer != nil {
		c, contact, err := customersvc.Prepare(*in.Customer)
		if err != nil {
			return nil, err
		}
		if err := o.Validate(); err != nil {
			return nil, err
		}
		created, err := s.repo.CreateWithCustomer(ctx, c, contact, o)
		if err != nil {
			return nil, err
		}
		s.logger.Info("onboarding created with customer", "id", created.ID, "customer_id", created.CustomerID)
		return created, nil
	}

	if err := o.Validate(); err != nil {
		return nil, err
	}
	if !domain.ValidID(o.CustomerID) {
		return nil, domain.ErrInvalidReference
	}
	created, err := s.repo.Create(ctx, o)
	if err != nil {
		return nil, err
	}
	s.logger.Info("onboarding created", "id", created.ID, "customer_id", created.CustomerID,
		"hardware", len(created.Hardware), "software", len(created.Software))
	return created, nil
}

// Get hydrates the full aggregate.
func (s *Service) Get(ctx context.Context, id string) (*domain.Onboarding, error) {
	if !domain.ValidID(id) {
		return nil, domain.ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// Update applies the patch with wholesale-replace semantics per present part.
func (s *Service) Update(ctx context.Context, id string, in PatchInput) (*domain.Onboarding, error) {
	if !domain.ValidID(id) {
		return nil, domain.ErrNotFound
	}
	p := domain.OnboardingPatch{
		Status:      in.Status,
		Title:       in.Title,
		Description: in.Description,
		Budget:      domain.RoundCentsPtr(in.Budget.Ptr()),
		ClearBudget: in.Budget.Cleared(),
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Network:     in.Network,
		Hardware:    in.Hardware,
		Mail:        in.Mail,
		Software:    in.Software,
		Backup:      in.Backup,
		Notes:       in.Notes,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, p)
}

// UpdateStatus moves the onboarding to any member of the workflow enum.
func (s *Service) UpdateStatus(ctx context.Context, id, raw string) (*domain.Onboarding, error) {
	status, err := domain.ParseStatus(raw)
	if err != nil {
		return nil, err
	}
	if !domain.ValidID(id) {
		return nil, domain.ErrNotFound
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Projects returns every onboarding with derived counts, newest-first.
func (s *Service) Projects(ctx context.Context) ([]domain.ProjectSummary, error) {
	return s.repo.List(ctx, "")
}

func attribute(explicit *string, actor *domain.Identity) *string {
	if explicit != nil && strings.TrimSpace(*explicit) != "" {
		id := strings.TrimSpace(*explicit)
		return &id
	}
	if actor != nil && actor.UserID != "" {
		id := actor.UserID
		return &id
	}
	return nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
