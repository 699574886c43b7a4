package calculation

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"bizadmin/internal/delivery"
	"bizadmin/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	customerID = "11111111-1111-1111-1111-111111111111"
	employeeID = "22222222-2222-2222-2222-222222222222"
	calcID     = "44444444-4444-4444-4444-444444444444"
)

var fixedNow = time.Date(2026, 5, 20, 15, 4, 5, 0, time.UTC)

type memoryRepo struct {
	stored        map[string]domain.Calculation
	statusUpdates int
	aggErr        error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{stored: map[string]domain.Calculation{}}
}

func (r *memoryRepo) Create(_ context.Context, c domain.Calculation) (*domain.Calculation, error) {
	if c.CustomerID != customerID {
		return nil, domain.ErrInvalidReference
	}
	c.ID = calcID
	c.CustomerName = "Acme GmbH"
	c.ItemCount = len(c.Items)
	r.stored[c.ID] = c
	return &c, nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*domain.Calculation, error) {
	c, ok := r.stored[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (r *memoryRepo) Update(ctx context.Context, id string, p domain.CalculationPatch) (*domain.Calculation, error) {
	c, ok := r.stored[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if p.HourlyRate != nil {
		c.HourlyRate = *p.HourlyRate
	}
	if p.VATPercent != nil {
		c.VATPercent = *p.VATPercent
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.EmployeeID != nil {
		c.EmployeeID = p.EmployeeID
	}
	if p.Items != nil {
		c.Items = *p.Items
	}
	if p.Items != nil || p.HourlyRate != nil {
		c.TotalHours, c.TotalPrice = domain.Totals(c.Items, c.HourlyRate)
	}
	r.stored[id] = c
	return r.GetByID(ctx, id)
}

func (r *memoryRepo) UpdateStatus(_ context.Context, id string, status domain.Status) error {
	c, ok := r.stored[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.statusUpdates++
	c.Status = status
	r.stored[id] = c
	return nil
}

func (r *memoryRepo) List(context.Context, string) ([]domain.Calculation, error) {
	out := make([]domain.Calculation, 0, len(r.stored))
	for _, c := range r.stored {
		out = append(out, c)
	}
	return out, nil
}

func (r *memoryRepo) CountCustomers(context.Context) (int, error)        { return 4, nil }
func (r *memoryRepo) CountOpenOnboardings(context.Context) (int, error)  { return 2, nil }
func (r *memoryRepo) CountOpenCalculations(context.Context) (int, error) { return 3, nil }

func (r *memoryRepo) SumHours(_ context.Context, from, to domain.Date) (float64, error) {
	if from.String() != "2026-05-01" || to.String() != "2026-06-01" {
		return 0, errors.New("unexpected month window")
	}
	return 12.5, nil
}

func (r *memoryRepo) SumDoneRevenue(context.Context, domain.Date, domain.Date) (float64, error) {
	if r.aggErr != nil {
		return 0, r.aggErr
	}
	return 1062.5, nil
}

type fakeDelivery struct {
	sends   int
	lastReq delivery.Request
	sendErr error
}

func (f *fakeDelivery) Render(domain.Calculation) ([]byte, error) {
	return []byte("%PDF-1.3 fake"), nil
}

func (f *fakeDelivery) SendCalculation(_ context.Context, _ domain.Calculation, req delivery.Request) error {
	f.sends++
	f.lastReq = req
	return f.sendErr
}

func newService(repo *memoryRepo, d Delivery) *Service {
	svc := New(repo, d, nil)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func item(desc string, qty, dur float64) LineItemInput {
	return LineItemInput{Description: desc, Quantity: domain.NewNumber(qty), DurationPerUnit: domain.NewNumber(dur)}
}

func TestCreate_ComputesTotalsAtHeaderRate(t *testing.T) {
	repo := newMemoryRepo()
	svc := newService(repo, nil)

	override := domain.NewNumber(150)
	items := []LineItemInput{item("Einrichtung", 2, 3), item("Schulung", 3, 1)}
	items[1].HourlyRate = override

	actor := &domain.Identity{UserID: employeeID, Name: "Chef"}
	c, err := svc.Create(context.Background(), CreateInput{
		CustomerID: customerID,
		HourlyRate: domain.NewNumber(85),
		Items:      items,
	}, actor)
	require.NoError(t, err)

	assert.Equal(t, 9.0, c.TotalHours)
	assert.Equal(t, 765.0, c.TotalPrice, "stored total ignores per-line overrides")
	assert.Equal(t, domain.StatusNew, c.Status)
	assert.Equal(t, domain.DefaultVATPercent, c.VATPercent)
	assert.Equal(t, "2026-05-20", c.Date.String())
	require.NotNil(t, c.EmployeeID)
	assert.Equal(t, employeeID, *c.EmployeeID)

	// read-time totals use the override
	assert.Equal(t, 960.0, c.NetTotal())
}

func TestCreate_SingleItemDefaults(t *testing.T) {
	svc := newService(newMemoryRepo(), nil)

	c, err := svc.Create(context.Background(), CreateInput{
		CustomerID: customerID,
		HourlyRate: domain.NewNumber(100),
		VATPercent: domain.NewNumber(7),
		Items:      []LineItemInput{{Description: "Wartung", DurationPerUnit: domain.NewNumber(4)}},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 4.0, c.TotalHours)
	assert.Equal(t, 400.0, c.TotalPrice)
	assert.Equal(t, 7.0, c.VATPercent)
	assert.Equal(t, 1, c.Items[0].Quantity)
	assert.Nil(t, c.EmployeeID)
}

func TestCreate_DecodesNumericStrings(t *testing.T) {
	var in CreateInput
	body := `{"kunde_id":"` + customerID + `","stundensatz":"85,50","dienstleistungen":[{"beschreibung":"Setup","anzahl":"2","dauer_pro_einheit":1.5}]}`
	require.NoError(t, json.Unmarshal([]byte(body), &in))

	c, err := newService(newMemoryRepo(), nil).Create(context.Background(), in, nil)
	require.NoError(t, err)
	assert.Equal(t, 85.5, c.HourlyRate)
	assert.Equal(t, 3.0, c.TotalHours)
	assert.Equal(t, 256.5, c.TotalPrice)
}

func TestCreate_Validation(t *testing.T) {
	svc := newService(newMemoryRepo(), nil)
	ctx := context.Background()
	valid := []LineItemInput{item("Setup", 1, 1)}

	cases := []struct {
		name  string
		in    CreateInput
		want  error
		field string
	}{
		{"missing customer", CreateInput{HourlyRate: domain.NewNumber(80), Items: valid}, domain.ErrValidation, "kunde_id"},
		{"malformed customer", CreateInput{CustomerID: "abc", HourlyRate: domain.NewNumber(80), Items: valid}, domain.ErrInvalidReference, ""},
		{"missing rate", CreateInput{CustomerID: customerID, Items: valid}, domain.ErrValidation, "stundensatz"},
		{"no items", CreateInput{CustomerID: customerID, HourlyRate: domain.NewNumber(80)}, domain.ErrValidation, "dienstleistungen"},
		{"fractional quantity", CreateInput{CustomerID: customerID, HourlyRate: domain.NewNumber(80), Items: []LineItemInput{item("x", 1.5, 1)}}, domain.ErrValidation, "dienstleistungen[0].anzahl"},
		{"zero quantity", CreateInput{CustomerID: customerID, HourlyRate: domain.NewNumber(80), Items: []LineItemInput{item("x", 0, 1)}}, domain.ErrValidation, "dienstleistungen[0].anzahl"},
		{"negative duration", CreateInput{CustomerID: customerID, HourlyRate: domain.NewNumber(80), Items: []LineItemInput{valid[0], item("y", 1, -2)}}, domain.ErrValidation, "dienstleistungen[1].dauer_pro_einheit"},
		{"quantity beyond integer range", CreateInput{CustomerID: customerID, HourlyRate: domain.NewNumber(80), Items: []LineItemInput{item("x", 3000000000, 1)}}, domain.ErrValidation, "dienstleistungen[0].anzahl"},
		{"duration beyond column", CreateInput{CustomerID: customerID, HourlyRate: domain.NewNumber(80), Items: []LineItemInput{item("x", 1, 1e9)}}, domain.ErrValidation, "dienstleistungen[0].dauer_pro_einheit"},
		{"rate beyond column", CreateInput{CustomerID: customerID, HourlyRate: domain.NewNumber(1e9), Items: valid}, domain.ErrValidation, "hourlyRate"},
		{"vat above 100", CreateInput{CustomerID: customerID, HourlyRate: domain.NewNumber(80), VATPercent: domain.NewNumber(120), Items: valid}, domain.ErrValidation, ""},
		{"unknown customer", CreateInput{CustomerID: employeeID, HourlyRate: domain.NewNumber(80), Items: valid}, domain.ErrInvalidReference, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.in, nil)
			require.ErrorIs(t, err, tc.want)
			if tc.field != "" {
				var verr *domain.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tc.field, verr.Field)
			}
		})
	}
}

func TestCreate_RoundsToStoredScale(t *testing.T) {
	repo := newMemoryRepo()
	svc := newService(repo, nil)
	ctx := context.Background()

	override := domain.NewNumber(10.005)
	sub := item("Kabel", 4, 0.125)
	withRate := item("Patch", 1, 1)
	withRate.HourlyRate = override
	c, err := svc.Create(ctx, CreateInput{
		CustomerID: customerID,
		HourlyRate: domain.NewNumber(85.555),
		Items:      []LineItemInput{sub, withRate},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 85.56, c.HourlyRate)
	assert.Equal(t, 0.13, c.Items[0].DurationPerUnit)
	require.NotNil(t, c.Items[1].HourlyRate)
	assert.Equal(t, 10.01, *c.Items[1].HourlyRate)
	assert.Equal(t, 1.52, c.TotalHours)
	assert.Equal(t, 130.05, c.TotalPrice)

	// re-pricing at the same rate from the stored rows leaves the totals alone
	c, err = svc.Update(ctx, calcID, PatchInput{HourlyRate: domain.NewNumber(85.555)})
	require.NoError(t, err)
	assert.Equal(t, 1.52, c.TotalHours)
	assert.Equal(t, 130.05, c.TotalPrice)

	items := []LineItemInput{item("Server", 9, 1)}
	c, err = svc.Update(ctx, calcID, PatchInput{Items: &items})
	require.NoError(t, err)
	assert.Equal(t, 9.0, c.TotalHours)
	assert.Equal(t, 770.04, c.TotalPrice)
}

func TestUpdate_RecomputesTotals(t *testing.T) {
	repo := newMemoryRepo()
	svc := newService(repo, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{
		CustomerID: customerID,
		HourlyRate: domain.NewNumber(85),
		Items:      []LineItemInput{item("a", 2, 3), item("b", 3, 1)},
	}, nil)
	require.NoError(t, err)

	items := []LineItemInput{item("neu", 1, 4)}
	c, err := svc.Update(ctx, calcID, PatchInput{HourlyRate: domain.NewNumber(100), Items: &items})
	require.NoError(t, err)
	assert.Equal(t, 4.0, c.TotalHours)
	assert.Equal(t, 400.0, c.TotalPrice)
	assert.Equal(t, domain.StatusNew, c.Status)

	c, err = svc.Update(ctx, calcID, PatchInput{HourlyRate: domain.NewNumber(50)})
	require.NoError(t, err)
	assert.Equal(t, 200.0, c.TotalPrice)

	bad := "archived"
	_, err = svc.Update(ctx, calcID, PatchInput{Status: &bad})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Update(ctx, "nope", PatchInput{})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateStatus(t *testing.T) {
	repo := newMemoryRepo()
	svc := newService(repo, nil)
	ctx := context.Background()
	_, err := svc.Create(ctx, CreateInput{CustomerID: customerID, HourlyRate: domain.NewNumber(85), Items: []LineItemInput{item("a", 1, 1)}}, nil)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, calcID, "archived")
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, repo.statusUpdates, "invalid status must not reach storage")

	c, err := svc.UpdateStatus(ctx, calcID, "done")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, c.Status)

	c, err = svc.UpdateStatus(ctx, calcID, "new")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNew, c.Status, "transitions are unrestricted")

	_, err = svc.UpdateStatus(ctx, "not-a-uuid", "done")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStats(t *testing.T) {
	repo := newMemoryRepo()
	stats, err := newService(repo, nil).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{
		CustomerCount:    4,
		OpenOnboardings:  2,
		MonthHours:       12.5,
		MonthRevenue:     1062.5,
		OpenCalculations: 3,
	}, *stats)

	repo.aggErr = errors.New("connection reset")
	_, err = newService(repo, nil).Stats(context.Background())
	require.Error(t, err)
}

func TestSendByEmail(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	d := &fakeDelivery{}
	svc := newService(repo, d)
	_, err := svc.Create(ctx, CreateInput{CustomerID: customerID, HourlyRate: domain.NewNumber(85), Items: []LineItemInput{item("a", 1, 1)}}, nil)
	require.NoError(t, err)

	t.Run("requires recipient", func(t *testing.T) {
		err := svc.SendByEmail(ctx, calcID, SendInput{})
		require.ErrorIs(t, err, domain.ErrValidation)
		assert.Zero(t, d.sends)
	})

	t.Run("rejects malformed cc", func(t *testing.T) {
		err := svc.SendByEmail(ctx, calcID, SendInput{To: "kunde@example.com", CC: []string{"nope"}})
		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("default subject", func(t *testing.T) {
		err := svc.SendByEmail(ctx, calcID, SendInput{To: " kunde@example.com ", CC: []string{"", "chef@example.com"}})
		require.NoError(t, err)
		assert.Equal(t, 1, d.sends)
		assert.Equal(t, "kunde@example.com", d.lastReq.To)
		assert.Equal(t, []string{"chef@example.com"}, d.lastReq.CC)
		assert.Equal(t, "Kalkulation 2026-05-20 – Acme GmbH", d.lastReq.Subject)
	})

	t.Run("unknown calculation", func(t *testing.T) {
		err := svc.SendByEmail(ctx, employeeID, SendInput{To: "kunde@example.com"})
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("transport failure is a dependency error", func(t *testing.T) {
		d.sends = 0
		d.sendErr = errors.New("535 authentication failed")
		err := svc.SendByEmail(ctx, calcID, SendInput{To: "kunde@example.com", Subject: "Angebot"})
		require.ErrorIs(t, err, domain.ErrDependency)
		assert.NotContains(t, err.Error(), "535")
		assert.Equal(t, 1, d.sends, "no retry")
	})

	t.Run("delivery not configured", func(t *testing.T) {
		err := newService(repo, nil).SendByEmail(ctx, calcID, SendInput{To: "kunde@example.com"})
		require.ErrorIs(t, err, domain.ErrDependency)
	})
}

func TestRenderPDF(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := newService(repo, &fakeDelivery{})
	_, err := svc.Create(ctx, CreateInput{CustomerID: customerID, HourlyRate: domain.NewNumber(85), Items: []LineItemInput{item("a", 1, 1)}}, nil)
	require.NoError(t, err)

	pdf, c, err := svc.RenderPDF(ctx, calcID)
	require.NoError(t, err)
	assert.Equal(t, calcID, c.ID)
	assert.Contains(t, string(pdf), "%PDF")

	_, _, err = svc.RenderPDF(ctx, "x")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
