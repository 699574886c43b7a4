package customer

import (
	"context"

	"bizadmin/internal/domain"
)

// Repository persists customers and their contacts.
type Repository interface {
	// Create inserts the customer and, when contact is non-nil, its first contact in one transaction.
	Create(ctx context.Context, c domain.Customer, contact *domain.Contact) (*domain.Customer, error)
	Update(ctx context.Context, c domain.Customer) (*domain.Customer, error)
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	List(ctx context.Context) ([]domain.CustomerSummary, error)
	AddContact(ctx context.Context, contact domain.Contact) (*domain.Contact, error)
}
