package calculation

import (
	"context"

	"bizadmin/internal/domain"
)

// Repository persists calculations and their ordered line items.
type Repository interface {
	// Create stores the header with its precomputed totals and every line item in one transaction.
	Create(ctx context.Context, c domain.Calculation) (*domain.Calculation, error)
	GetByID(ctx context.Context, id string) (*domain.Calculation, error)
	// Update applies the patch; present items replace the whole list and totals are recomputed.
	Update(ctx context.Context, id string, patch domain.CalculationPatch) (*domain.Calculation, error)
	UpdateStatus(ctx context.Context, id string, status domain.Status) error
	// List returns headers newest-first; a non-empty customerID restricts to that customer.
	List(ctx context.Context, customerID string) ([]domain.Calculation, error)
	Aggregates
}

// Aggregates are the independent reporting queries behind the dashboard stats.
// The month window is [from, to).
type Aggregates interface {
	CountCustomers(ctx context.Context) (int, error)
	CountOpenOnboardings(ctx context.Context) (int, error)
	SumHours(ctx context.Context, from, to domain.Date) (float64, error)
	SumDoneRevenue(ctx context.Context, from, to domain.Date) (float64, error)
	CountOpenCalculations(ctx context.Context) (int, error)
}
