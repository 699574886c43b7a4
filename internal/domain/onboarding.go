package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// AccessType is the internet access technology of a site.
type AccessType string

const (
	AccessDSL        AccessType = "DSL"
	AccessVDSL       AccessType = "VDSL"
	AccessFiber      AccessType = "fiber"
	AccessCable      AccessType = "cable"
	AccessLTE        AccessType = "LTE"
	AccessLeasedLine AccessType = "leased-line"
	AccessSatellite  AccessType = "satellite"
	AccessOther      AccessType = "other"
)

// AccessTypes lists the accepted access types.
var AccessTypes = []AccessType{AccessDSL, AccessVDSL, AccessFiber, AccessCable, AccessLTE, AccessLeasedLine, AccessSatellite, AccessOther}

// Valid reports whether a is empty (not yet surveyed) or a known access type.
func (a AccessType) Valid() bool {
	if a == "" {
		return true
	}
	for _, known := range AccessTypes {
		if a == known {
			return true
		}
	}
	return false
}

// MailProvider is the mail platform in use.
type MailProvider string

const (
	MailExchange MailProvider = "Exchange"
	MailO365     MailProvider = "O365"
	MailGmail    MailProvider = "Gmail"
	MailIMAP     MailProvider = "IMAP"
	MailOther    MailProvider = "other"
)

// MailProviders lists the accepted mail providers.
var MailProviders = []MailProvider{MailExchange, MailO365, MailGmail, MailIMAP, MailOther}

// Valid reports whether p is empty or a known provider.
func (p MailProvider) Valid() bool {
	if p == "" {
		return true
	}
	for _, known := range MailProviders {
		if p == known {
			return true
		}
	}
	return false
}

// Network is the network profile of an onboarding.
type Network struct {
	AccessType      AccessType `json:"accessType"`
	Firewall        string     `json:"firewall"`
	FixedIP         bool       `json:"fixedIp"`
	IPAddress       string     `json:"ipAddress,omitempty"`
	VPNRequired     bool       `json:"vpnRequired"`
	VPNUsersCurrent int        `json:"vpnUsersCurrent"`
	VPNUsersPlanned int        `json:"vpnUsersPlanned"`
	Notes           string     `json:"notes"`
}

// HardwareDetails holds either a structured object or free text.
type HardwareDetails struct {
	Structured map[string]interface{}
	Freeform   string
}

// IsZero reports whether neither variant carries data.
func (d HardwareDetails) IsZero() bool {
	return len(d.Structured) == 0 && d.Freeform == ""
}

// Text is the persisted representation: JSON for structured details, raw text otherwise.
func (d HardwareDetails) Text() (string, error) {
	if d.Structured != nil {
		b, err := json.Marshal(d.Structured)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return d.Freeform, nil
}

// DetailsFromText parses a persisted value, preferring a JSON object.
func DetailsFromText(s string) HardwareDetails {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "{") {
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(trimmed), &m); err == nil {
			return HardwareDetails{Structured: m}
		}
	}
	return HardwareDetails{Freeform: s}
}

func (d HardwareDetails) MarshalJSON() ([]byte, error) {
	if d.Structured != nil {
		return json.Marshal(d.Structured)
	}
	if d.Freeform == "" {
		return []byte("null"), nil
	}
	return json.Marshal(d.Freeform)
}

func (d *HardwareDetails) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*d = HardwareDetails{}
	case len(b) > 0 && b[0] == '{':
		var m map[string]interface{}
		if err := json.Unmarshal(b, &m); err != nil {
			return err
		}
		*d = HardwareDetails{Structured: m}
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*d = DetailsFromText(s)
	default:
		// numbers, booleans and arrays are kept verbatim as text
		*d = HardwareDetails{Freeform: string(b)}
	}
	return nil
}

// Hardware is one surveyed device.
type Hardware struct {
	ID           string          `json:"id,omitempty"`
	Type         string          `json:"type"`
	Manufacturer string          `json:"manufacturer"`
	Model        string          `json:"model"`
	SerialNumber string          `json:"serialNumber"`
	Location     string          `json:"location"`
	IP           string          `json:"ip"`
	Details      HardwareDetails `json:"details"`
	Notes        string          `json:"notes"`
}

// Mail is the mail profile of an onboarding.
type Mail struct {
	Provider        MailProvider `json:"provider"`
	Mailboxes       int          `json:"mailboxes"`
	SharedMailboxes int          `json:"sharedMailboxes"`
	Storage         string       `json:"storage"`
	POP3Connector   bool         `json:"pop3Connector"`
	MobileAccess    bool         `json:"mobileAccess"`
	Notes           string       `json:"notes"`
}

// Requirement is a typed system requirement of a software item, e.g. RAM / 16GB.
type Requirement struct {
	Type   string `json:"type"`
	Detail string `json:"detail"`
}

// Application is a named application bundled in a software item.
type Application struct {
	Name string `json:"name"`
}

// Applications accepts a newline-delimited string or a list of {name} objects.
type Applications []Application

func (a *Applications) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = nil
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = ApplicationsFromText(s)
		return nil
	}
	var list []Application
	if err := json.Unmarshal(b, &list); err != nil {
		return NewValidationError("applications", "expected text or a list of {name}")
	}
	out := make(Applications, 0, len(list))
	for _, app := range list {
		if name := strings.TrimSpace(app.Name); name != "" {
			out = append(out, Application{Name: name})
		}
	}
	*a = out
	return nil
}

// ApplicationsFromText splits s on newlines, dropping blank lines.
func ApplicationsFromText(s string) Applications {
	var out Applications
	for _, line := range strings.Split(s, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			out = append(out, Application{Name: name})
		}
	}
	return out
}

// Software is one software product in use at the customer.
type Software struct {
	ID               string        `json:"id,omitempty"`
	Name             string        `json:"name"`
	Licenses         int           `json:"licenses"`
	Criticality      string        `json:"criticality"`
	Description      string        `json:"description"`
	Antivirus        string        `json:"antivirus"`
	Interfaces       string        `json:"interfaces"`
	Maintenance      bool          `json:"maintenance"`
	MigrationSupport bool          `json:"migrationSupport"`
	Applications     Applications  `json:"applications"`
	Requirements     []Requirement `json:"requirements"`
}

// Backup is the backup profile of an onboarding.
type Backup struct {
	Tool      string `json:"tool"`
	Interval  string `json:"interval"`
	Retention string `json:"retention"`
	Location  string `json:"location"`
	Size      string `json:"size"`
	Info      string `json:"info"`
}

// Onboarding is the customer infrastructure survey aggregate.
type Onboarding struct {
	ID           string     `json:"id"`
	CustomerID   string     `json:"customerId"`
	CustomerName string     `json:"customerName,omitempty"`
	EmployeeID   *string    `json:"employeeId,omitempty"`
	EmployeeName string     `json:"employeeName,omitempty"`
	Status       Status     `json:"status"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Budget       *float64   `json:"budget"`
	StartDate    *Date      `json:"startDate"`
	EndDate      *Date      `json:"endDate"`
	Network      Network    `json:"network"`
	Hardware     []Hardware `json:"hardware"`
	Mail         Mail       `json:"mail"`
	Software     []Software `json:"software"`
	Backup       Backup     `json:"backup"`
	Notes        string     `json:"notes"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// OnboardingPatch replaces each present part wholesale; nil parts are left untouched.
// ClearBudget resets the budget to null and wins over Budget.
type OnboardingPatch struct {
	Status      *Status
	Title       *string
	Description *string
	Budget      *float64
	ClearBudget bool
	StartDate   *Date
	EndDate     *Date
	Network     *Network
	Hardware    *[]Hardware
	Mail        *Mail
	Software    *[]Software
	Backup      *Backup
	Notes       *string
}

// ProjectSummary is an onboarding list row with derived counts.
type ProjectSummary struct {
	ID            string    `json:"id"`
	CustomerID    string    `json:"customerId"`
	CustomerName  string    `json:"customerName"`
	EmployeeName  string    `json:"employeeName,omitempty"`
	Title         string    `json:"title"`
	Status        Status    `json:"status"`
	HasNetwork    bool      `json:"has_network"`
	HardwareCount int       `json:"hardware_count"`
	SoftwareCount int       `json:"software_count"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ValidateNetwork checks enum membership and counters.
func ValidateNetwork(n Network) error {
	if !n.AccessType.Valid() {
		return NewValidationError("network.accessType", "unknown access type")
	}
	if n.VPNUsersCurrent < 0 || n.VPNUsersPlanned < 0 {
		return NewValidationError("network.vpnUsers", "must not be negative")
	}
	return nil
}

// ValidateMail checks enum membership and counters.
func ValidateMail(m Mail) error {
	if !m.Provider.Valid() {
		return NewValidationError("mail.provider", "unknown provider")
	}
	if m.Mailboxes < 0 || m.SharedMailboxes < 0 {
		return NewValidationError("mail.mailboxes", "must not be negative")
	}
	return nil
}

// ValidateSoftware checks every software item.
func ValidateSoftware(items []Software) error {
	for _, s := range items {
		if strings.TrimSpace(s.Name) == "" {
			return NewValidationError("software.name", "required")
		}
		if s.Licenses < 0 {
			return NewValidationError("software.licenses", "must not be negative")
		}
	}
	return nil
}

// Validate checks every part present in the patch.
func (p OnboardingPatch) Validate() error {
	if p.Status != nil && !p.Status.Valid() {
		return NewValidationError("status", "must be one of new, in-progress, done")
	}
	if p.Budget != nil && *p.Budget < 0 {
		return NewValidationError("budget", "must not be negative")
	}
	if p.StartDate != nil && p.EndDate != nil && !p.StartDate.IsZero() && !p.EndDate.IsZero() && p.EndDate.Before(p.StartDate.Time) {
		return NewValidationError("endDate", "must not be before startDate")
	}
	if p.Network != nil {
		if err := ValidateNetwork(*p.Network); err != nil {
			return err
		}
	}
	if p.Mail != nil {
		if err := ValidateMail(*p.Mail); err != nil {
			return err
		}
	}
	if p.Software != nil {
		if err := ValidateSoftware(*p.Software); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks every part of the aggregate before it is created. The
// customer reference is resolved by the caller.
func (o Onboarding) Validate() error {
	hw, sw := o.Hardware, o.Software
	return OnboardingPatch{
		Status:    &o.Status,
		Budget:    o.Budget,
		StartDate: o.StartDate,
		EndDate:   o.EndDate,
		Network:   &o.Network,
		Hardware:  &hw,
		Mail:      &o.Mail,
		Software:  &sw,
	}.Validate()
}
