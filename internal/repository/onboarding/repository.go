package onboarding

import (
	"context"

	"bizadmin/internal/domain"
)

// Repository persists the onboarding aggregate: header, one network, mail and
// backup profile each, and ordered hardware and software lists.
type Repository interface {
	Create(ctx context.Context, o domain.Onboarding) (*domain.Onboarding, error)
	// CreateWithCustomer registers the customer and its onboarding in one transaction.
	CreateWithCustomer(ctx context.Context, c domain.Customer, contact *domain.Contact, o domain.Onboarding) (*domain.Onboarding, error)
	GetByID(ctx context.Context, id string) (*domain.Onboarding, error)
	// Update replaces every part present in the patch; hardware and software lists are deleted and reinserted.
	Update(ctx context.Context, id string, patch domain.OnboardingPatch) (*domain.Onboarding, error)
	UpdateStatus(ctx context.Context, id string, status domain.Status) error
	// List returns summaries newest-first; a non-empty customerID restricts to that customer.
	List(ctx context.Context, customerID string) ([]domain.ProjectSummary, error)
}
