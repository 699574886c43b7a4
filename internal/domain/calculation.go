package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultVATPercent applies when a calculation is created without a VAT rate.
const DefaultVATPercent = 19.0

const (
	// MaxAmount is the largest value a NUMERIC(10, 2) rate or duration column holds.
	MaxAmount = 99999999.99
	// MaxQuantity is the largest anzahl an INTEGER column holds.
	MaxQuantity = math.MaxInt32
)

// LineItem is one priced row (Dienstleistung) of a calculation.
type LineItem struct {
	ID              string   `json:"id,omitempty"`
	CalculationID   string   `json:"kalkulation_id,omitempty"`
	Description     string   `json:"beschreibung"`
	Section         string   `json:"kategorie,omitempty"`
	Quantity        int      `json:"anzahl"`
	DurationPerUnit float64  `json:"dauer_pro_einheit"`
	HourlyRate      *float64 `json:"stundensatz"`
	Note            string   `json:"notiz,omitempty"`
}

// Hours is quantity times duration per unit.
func (li LineItem) Hours() float64 {
	return float64(li.Quantity) * li.DurationPerUnit
}

// EffectiveRate resolves the per-line override against the calculation's default rate.
func (li LineItem) EffectiveRate(defaultRate float64) float64 {
	if li.HourlyRate != nil {
		return *li.HourlyRate
	}
	return defaultRate
}

// Total is hours times the effective rate.
func (li LineItem) Total(defaultRate float64) float64 {
	return RoundCents(li.Hours() * li.EffectiveRate(defaultRate))
}

// Validate enforces quantity >= 1 and non-negative duration and override.
func (li LineItem) Validate() error {
	if strings.TrimSpace(li.Description) == "" {
		return NewValidationError("beschreibung", "required")
	}
	if li.Quantity < 1 {
		return NewValidationError("anzahl", "must be at least 1")
	}
	if li.Quantity > MaxQuantity {
		return NewValidationError("anzahl", "too large")
	}
	if li.DurationPerUnit < 0 || math.IsNaN(li.DurationPerUnit) {
		return NewValidationError("dauer_pro_einheit", "must not be negative")
	}
	if li.DurationPerUnit > MaxAmount {
		return NewValidationError("dauer_pro_einheit", "too large")
	}
	if li.HourlyRate != nil && *li.HourlyRate < 0 {
		return NewValidationError("stundensatz", "must not be negative")
	}
	if li.HourlyRate != nil && *li.HourlyRate > MaxAmount {
		return NewValidationError("stundensatz", "too large")
	}
	return nil
}

// Calculation is a priced, itemised hourly-work estimate for a customer.
type Calculation struct {
	ID              string     `json:"id"`
	CustomerID      string     `json:"kunde_id"`
	CustomerName    string     `json:"kunde_name,omitempty"`
	CustomerAddress *Address   `json:"kunde_adresse,omitempty"`
	EmployeeID      *string    `json:"mitarbeiter_id"`
	EmployeeName    string     `json:"mitarbeiter_name,omitempty"`
	Date            Date       `json:"datum"`
	HourlyRate      float64    `json:"stundensatz"`
	VATPercent      float64    `json:"mwst_prozent"`
	Status          Status     `json:"status"`
	TotalHours      float64    `json:"total_hours"`
	TotalPrice      float64    `json:"total_price"`
	Items           []LineItem `json:"dienstleistungen"`
	ItemCount       int        `json:"dienstleistungen_count"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Totals sums hours over items and prices them at the header rate.
// Per-line overrides do not enter the stored total; see NetTotal.
func Totals(items []LineItem, hourlyRate float64) (hours, price float64) {
	for _, li := range items {
		hours += li.Hours()
	}
	hours = RoundCents(hours)
	return hours, RoundCents(hours * hourlyRate)
}

// NetTotal sums line totals using each line's effective rate at read time.
func (c Calculation) NetTotal() float64 {
	var sum float64
	for _, li := range c.Items {
		sum += li.Total(c.HourlyRate)
	}
	return RoundCents(sum)
}

// VATAmount is the VAT on NetTotal.
func (c Calculation) VATAmount() float64 {
	return RoundCents(c.NetTotal() * c.VATPercent / 100)
}

// GrossTotal is NetTotal plus VAT.
func (c Calculation) GrossTotal() float64 {
	return RoundCents(c.NetTotal() + c.VATAmount())
}

// CalculationPatch carries the header fields and optional replacement line items of an update.
type CalculationPatch struct {
	HourlyRate *float64
	VATPercent *float64
	Status     *Status
	EmployeeID *string
	Items      *[]LineItem
}

// Validate checks every present field.
func (p CalculationPatch) Validate() error {
	if p.HourlyRate != nil && *p.HourlyRate < 0 {
		return NewValidationError("hourlyRate", "must not be negative")
	}
	if p.HourlyRate != nil && *p.HourlyRate > MaxAmount {
		return NewValidationError("hourlyRate", "too large")
	}
	if p.VATPercent != nil && (*p.VATPercent < 0 || *p.VATPercent > 100) {
		return NewValidationError("vatPercent", "must be between 0 and 100")
	}
	if p.Status != nil && !p.Status.Valid() {
		return NewValidationError("status", "must be one of new, in-progress, done")
	}
	if p.Items != nil {
		if len(*p.Items) == 0 {
			return NewValidationError("dienstleistungen", "at least one line item required")
		}
		for _, li := range *p.Items {
			if err := li.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Stats is the dashboard reporting view, re-aggregated on every call.
type Stats struct {
	CustomerCount    int     `json:"customer_count"`
	OpenOnboardings  int     `json:"open_onboardings"`
	MonthHours       float64 `json:"month_hours"`
	MonthRevenue     float64 `json:"month_revenue"`
	OpenCalculations int     `json:"open_calculations"`
}

// RoundCents rounds v to two decimals, half away from zero, on its shortest
// decimal form. This is what a NUMERIC(_, 2) column stores for the same value,
// so 85.555 becomes 85.56 even though its binary form lies just below.
func RoundCents(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	neg := v < 0
	s := strconv.FormatFloat(math.Abs(v), 'f', -1, 64)
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) <= 2 {
		return v
	}
	cents, err := strconv.ParseInt(whole+frac[:2], 10, 64)
	if err != nil {
		return math.Round(v*100) / 100
	}
	if frac[2] >= '5' {
		cents++
	}
	out := float64(cents) / 100
	if neg {
		out = -out
	}
	return out
}

// RoundCentsPtr rounds *v in a copy; nil stays nil.
func RoundCentsPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := RoundCents(*v)
	return &r
}
