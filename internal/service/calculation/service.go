package calculation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"bizadmin/internal/delivery"
	"bizadmin/internal/domain"
	"bizadmin/internal/logger"
	calcrepo "bizadmin/internal/repository/calculation"
	"golang.org/x/sync/errgroup"
)

// Delivery renders a calculation and mails it.
type Delivery interface {
	Render(c domain.Calculation) ([]byte, error)
	SendCalculation(ctx context.Context, c domain.Calculation, req delivery.Request) error
}

// Service implements the calculation aggregate.
type Service struct {
	repo     calcrepo.Repository
	delivery Delivery
	logger   *logger.Logger
	now      func() time.Time
}

// New creates a Service. delivery may be nil when PDF and mail are not configured.
func New(repo calcrepo.Repository, d Delivery, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		delivery: d,
		logger:   logger.OrNop(log).With("service", "calculation"),
		now:      time.Now,
	}
}

// LineItemInput is one Dienstleistung as sent by the client.
type LineItemInput struct {
	Description     string        `json:"beschreibung"`
	Section         string        `json:"kategorie"`
	Quantity        domain.Number `json:"anzahl"`
	DurationPerUnit domain.Number `json:"dauer_pro_einheit"`
	HourlyRate      domain.Number `json:"stundensatz"`
	Note            string        `json:"notiz"`
}

// CreateInput captures a new calculation.
type CreateInput struct {
	CustomerID string          `json:"kunde_id"`
	EmployeeID *string         `json:"mitarbeiter_id"`
	HourlyRate domain.Number   `json:"stundensatz"`
	VATPercent domain.Number   `json:"mwst_prozent"`
	Items      []LineItemInput `json:"dienstleistungen"`
}

// PatchInput replaces the present header fields and, when Items is set, the whole line item list.
type PatchInput struct {
	HourlyRate domain.Number    `json:"stundensatz"`
	VATPercent domain.Number    `json:"mwst_prozent"`
	Status     *string          `json:"status"`
	EmployeeID *string          `json:"mitarbeiter_id"`
	Items      *[]LineItemInput `json:"dienstleistungen"`
}

// SendInput addresses the PDF mail.
type SendInput struct {
	To      string   `json:"to"`
	CC      []string `json:"cc"`
	Subject string   `json:"subject"`
	Message string   `json:"message"`
}

// Create prices the line items at the header rate and stores the calculation
// with status new, dated today.
func (s *Service) Create(ctx context.Context, in CreateInput, actor *domain.Identity) (*domain.Calculation, error) {
	customerID := strings.TrimSpace(in.CustomerID)
	if customerID == "" {
		return nil, domain.NewValidationError("kunde_id", "required")
	}
	if !domain.ValidID(customerID) {
		return nil, domain.ErrInvalidReference
	}
	if !in.HourlyRate.Set {
		return nil, domain.NewValidationError("stundensatz", "required")
	}
	if len(in.Items) == 0 {
		return nil, domain.NewValidationError("dienstleistungen", "at least one line item required")
	}
	items, err := toLineItems(in.Items)
	if err != nil {
		return nil, err
	}
	// Round to the stored scale first so the totals agree with the persisted rows.
	rate := domain.RoundCents(in.HourlyRate.Value)
	vat := domain.RoundCents(in.VATPercent.Or(domain.DefaultVATPercent))
	patch := domain.CalculationPatch{HourlyRate: &rate, VATPercent: &vat, Items: &items}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	employee := attribute(in.EmployeeID, actor)
	if employee != nil && !domain.ValidID(*employee) {
		return nil, domain.ErrInvalidReference
	}

	hours, price := domain.Totals(items, rate)
	c := domain.Calculation{
		CustomerID: customerID,
		EmployeeID: employee,
		Date:       domain.NewDate(s.now()),
		HourlyRate: rate,
		VATPercent: vat,
		Status:     domain.StatusNew,
		TotalHours: hours,
		TotalPrice: price,
		Items:      items,
	}
	created, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, err
	}
	s.logger.Info("calculation created", "id", created.ID, "customer_id", customerID,
		"total_hours", created.TotalHours, "total_price", created.TotalPrice)
	return created, nil
}

// Get returns the header and its ordered line items.
func (s *Service) Get(ctx context.Context, id string) (*domain.Calculation, error) {
	if !domain.ValidID(id) {
		return nil, domain.ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// Update applies the patch; totals are recomputed when items or the rate change.
func (s *Service) Update(ctx context.Context, id string, in PatchInput) (*domain.Calculation, error) {
	if !domain.ValidID(id) {
		return nil, domain.ErrNotFound
	}
	p := domain.CalculationPatch{
		HourlyRate: domain.RoundCentsPtr(in.HourlyRate.Ptr()),
		VATPercent: domain.RoundCentsPtr(in.VATPercent.Ptr()),
		EmployeeID: in.EmployeeID,
	}
	if in.Status != nil {
		status, err := domain.ParseStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		p.Status = &status
	}
	if p.EmployeeID != nil && !domain.ValidID(*p.EmployeeID) {
		return nil, domain.ErrInvalidReference
	}
	if in.Items != nil {
		items, err := toLineItems(*in.Items)
		if err != nil {
			return nil, err
		}
		p.Items = &items
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, p)
}

// UpdateStatus moves the calculation to any member of the workflow enum.
func (s *Service) UpdateStatus(ctx context.Context, id, raw string) (*domain.Calculation, error) {
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

// List returns every calculation newest-first.
func (s *Service) List(ctx context.Context) ([]domain.Calculation, error) {
	return s.repo.List(ctx, "")
}

// Stats re-aggregates the dashboard figures; the five queries run concurrently.
func (s *Service) Stats(ctx context.Context) (*domain.Stats, error) {
	from, to := domain.MonthRange(s.now())
	var out domain.Stats

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.repo.CountCustomers(gctx)
		out.CustomerCount = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountOpenOnboardings(gctx)
		out.OpenOnboardings = n
		return err
	})
	g.Go(func() error {
		v, err := s.repo.SumHours(gctx, from, to)
		out.MonthHours = v
		return err
	})
	g.Go(func() error {
		v, err := s.repo.SumDoneRevenue(gctx, from, to)
		out.MonthRevenue = v
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountOpenCalculations(gctx)
		out.OpenCalculations = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// RenderPDF renders the stored calculation.
func (s *Service) RenderPDF(ctx context.Context, id string) ([]byte, *domain.Calculation, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if s.delivery == nil {
		return nil, nil, fmt.Errorf("%w: pdf rendering not configured", domain.ErrDependency)
	}
	pdf, err := s.delivery.Render(*c)
	if err != nil {
		s.logger.Error("render pdf", "id", id, "err", err)
		return nil, nil, fmt.Errorf("%w: render pdf", domain.ErrDependency)
	}
	return pdf, c, nil
}

// SendByEmail renders the calculation and mails it once. Collaborator
// failures surface as domain.ErrDependency; the cause is only logged.
func (s *Service) SendByEmail(ctx context.Context, id string, in SendInput) error {
	req, err := normaliseSend(in)
	if err != nil {
		return err
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if req.Subject == "" {
		req.Subject = DefaultSubject(*c)
	}
	if s.delivery == nil {
		return fmt.Errorf("%w: mail delivery not configured", domain.ErrDependency)
	}
	if err := s.delivery.SendCalculation(ctx, *c, req); err != nil {
		s.logger.Error("send calculation", "id", id, "to", req.To, "err", err)
		return fmt.Errorf("%w: send mail", domain.ErrDependency)
	}
	s.logger.Info("calculation sent", "id", id, "to", req.To, "cc", len(req.CC))
	return nil
}

// DefaultSubject is used when the caller sends no subject.
func DefaultSubject(c domain.Calculation) string {
	subject := "Kalkulation " + c.Date.String()
	if c.CustomerName != "" {
		subject += " – " + c.CustomerName
	}
	return subject
}

func normaliseSend(in SendInput) (delivery.Request, error) {
	to := strings.TrimSpace(in.To)
	if to == "" {
		return delivery.Request{}, domain.NewValidationError("to", "required")
	}
	if !domain.ValidEmail(to) {
		return delivery.Request{}, domain.NewValidationError("to", "invalid email address")
	}
	req := delivery.Request{To: to, Subject: strings.TrimSpace(in.Subject), Body: in.Message}
	for _, cc := range in.CC {
		cc = strings.TrimSpace(cc)
		if cc == "" {
			continue
		}
		if !domain.ValidEmail(cc) {
			return delivery.Request{}, domain.NewValidationError("cc", "invalid email address "+cc)
		}
		req.CC = append(req.CC, cc)
	}
	return req, nil
}

// toLineItems applies the numeric policy: anzahl defaults to 1 and must be a
// whole number >= 1, dauer_pro_einheit defaults to 0, an absent stundensatz
// falls back to the header rate at read time.
func toLineItems(in []LineItemInput) ([]domain.LineItem, error) {
	out := make([]domain.LineItem, 0, len(in))
	for i, li := range in {
		qty := li.Quantity.Or(1)
		if qty != math.Trunc(qty) {
			return nil, domain.NewValidationError(fmt.Sprintf("dienstleistungen[%d].anzahl", i), "must be a whole number")
		}
		if qty > domain.MaxQuantity {
			return nil, domain.NewValidationError(fmt.Sprintf("dienstleistungen[%d].anzahl", i), "too large")
		}
		item := domain.LineItem{
			Description:     strings.TrimSpace(li.Description),
			Section:         strings.TrimSpace(li.Section),
			Quantity:        int(qty),
			DurationPerUnit: domain.RoundCents(li.DurationPerUnit.Or(0)),
			HourlyRate:      domain.RoundCentsPtr(li.HourlyRate.Ptr()),
			Note:            li.Note,
		}
		if err := item.Validate(); err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				return nil, domain.NewValidationError(fmt.Sprintf("dienstleistungen[%d].%s", i, verr.Field), verr.Message)
			}
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
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
