package onboarding

import (
	"context"
	"errors"
	"time"

	"bizadmin/internal/db"
	"bizadmin/internal/domain"
	"bizadmin/internal/logger"
	customerrepo "bizadmin/internal/repository/customer"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, log *logger.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger.OrNop(log).With("repo", "onboarding")}
}

func (r *postgresRepo) Create(ctx context.Context, o domain.Onboarding) (*domain.Onboarding, error) {
	var id string
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`, o.CustomerID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrInvalidReference
		}
		var err error
		id, err = insertOnboarding(ctx, tx, o)
		return err
	})
	if err != nil {
		r.logFailure("create onboarding", err, "customer_id", o.CustomerID)
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) CreateWithCustomer(ctx context.Context, c domain.Customer, contact *domain.Contact, o domain.Onboarding) (*domain.Onboarding, error) {
	var id string
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		created, err := customerrepo.CreateTx(ctx, tx, c, contact)
		if err != nil {
			return err
		}
		o.CustomerID = created.ID
		id, err = insertOnboarding(ctx, tx, o)
		return err
	})
	if err != nil {
		r.logFailure("create customer with onboarding", err, "email", c.Email)
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Onboarding, error) {
	const q = `
SELECT o.id::text, o.customer_id::text, c.firmenname, o.employee_id::text, COALESCE(u.name, ''),
       o.status::text, o.title, o.description, o.budget::float8, o.start_date, o.end_date, o.notes,
       o.created_at, o.updated_at,
       COALESCE(n.access_type, ''), COALESCE(n.firewall, ''), COALESCE(n.fixed_ip, false), COALESCE(n.ip_address, ''),
       COALESCE(n.vpn_required, false), COALESCE(n.vpn_users_current, 0), COALESCE(n.vpn_users_planned, 0), COALESCE(n.notes, ''),
       COALESCE(m.provider, ''), COALESCE(m.mailboxes, 0), COALESCE(m.shared_mailboxes, 0), COALESCE(m.storage, ''),
       COALESCE(m.pop3_connector, false), COALESCE(m.mobile_access, false), COALESCE(m.notes, ''),
       COALESCE(b.tool, ''), COALESCE(b.interval_label, ''), COALESCE(b.retention, ''), COALESCE(b.location, ''),
       COALESCE(b.size, ''), COALESCE(b.info, '')
FROM onboardings o
JOIN customers c ON c.id = o.customer_id
LEFT JOIN users u ON u.id = o.employee_id
LEFT JOIN onboarding_network n ON n.onboarding_id = o.id
LEFT JOIN onboarding_mail m ON m.onboarding_id = o.id
LEFT JOIN onboarding_backup b ON b.onboarding_id = o.id
WHERE o.id = $1
`
	var (
		o          domain.Onboarding
		status     string
		start, end *time.Time
		access     string
		provider   string
	)
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&o.ID, &o.CustomerID, &o.CustomerName, &o.EmployeeID, &o.EmployeeName,
		&status, &o.Title, &o.Description, &o.Budget, &start, &end, &o.Notes,
		&o.CreatedAt, &o.UpdatedAt,
		&access, &o.Network.Firewall, &o.Network.FixedIP, &o.Network.IPAddress,
		&o.Network.VPNRequired, &o.Network.VPNUsersCurrent, &o.Network.VPNUsersPlanned, &o.Network.Notes,
		&provider, &o.Mail.Mailboxes, &o.Mail.SharedMailboxes, &o.Mail.Storage,
		&o.Mail.POP3Connector, &o.Mail.MobileAccess, &o.Mail.Notes,
		&o.Backup.Tool, &o.Backup.Interval, &o.Backup.Retention, &o.Backup.Location,
		&o.Backup.Size, &o.Backup.Info,
	)
	if err != nil {
		return nil, db.TranslateError(err)
	}
	o.Status = domain.Status(status)
	o.Network.AccessType = domain.AccessType(access)
	o.Mail.Provider = domain.MailProvider(provider)
	o.StartDate = dateFrom(start)
	o.EndDate = dateFrom(end)

	if o.Hardware, err = r.hardware(ctx, o.ID); err != nil {
		return nil, err
	}
	if o.Software, err = r.software(ctx, o.ID); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *postgresRepo) Update(ctx context.Context, id string, p domain.OnboardingPatch) (*domain.Onboarding, error) {
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		var locked string
		if err := tx.QueryRow(ctx, `SELECT id::text FROM onboardings WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
			return err
		}

		var status *string
		if p.Status != nil {
			s := string(*p.Status)
			status = &s
		}
		const header = `
UPDATE onboardings
SET status      = COALESCE($2::workflow_status, status),
    title       = COALESCE($3, title),
    description = COALESCE($4, description),
    budget      = CASE WHEN $11::boolean THEN NULL ELSE COALESCE($5::numeric, budget) END,
    start_date  = CASE WHEN $6::boolean THEN $7::date ELSE start_date END,
    end_date    = CASE WHEN $8::boolean THEN $9::date ELSE end_date END,
    notes       = COALESCE($10, notes),
    updated_at  = now()
WHERE id = $1
`
		if _, err := tx.Exec(ctx, header, id, status, p.Title, p.Description, p.Budget,
			p.StartDate != nil, dateArg(p.StartDate), p.EndDate != nil, dateArg(p.EndDate), p.Notes,
			p.ClearBudget,
		); err != nil {
			return err
		}

		if p.Network != nil {
			if err := writeNetwork(ctx, tx, id, *p.Network); err != nil {
				return err
			}
		}
		if p.Mail != nil {
			if err := writeMail(ctx, tx, id, *p.Mail); err != nil {
				return err
			}
		}
		if p.Backup != nil {
			if err := writeBackup(ctx, tx, id, *p.Backup); err != nil {
				return err
			}
		}
		if p.Hardware != nil {
			if err := replaceHardware(ctx, tx, id, *p.Hardware); err != nil {
				return err
			}
		}
		if p.Software != nil {
			if err := replaceSoftware(ctx, tx, id, *p.Software); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.logFailure("update onboarding", err, "id", id)
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE onboardings SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	if err != nil {
		return db.TranslateError(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) List(ctx context.Context, customerID string) ([]domain.ProjectSummary, error) {
	const q = `
SELECT o.id::text, o.customer_id::text, c.firmenname, COALESCE(u.name, ''), o.title, o.status::text,
       COALESCE(n.access_type <> '', false),
       (SELECT COUNT(*) FROM onboarding_hardware h WHERE h.onboarding_id = o.id),
       (SELECT COUNT(*) FROM onboarding_software s WHERE s.onboarding_id = o.id),
       o.created_at
FROM onboardings o
JOIN customers c ON c.id = o.customer_id
LEFT JOIN users u ON u.id = o.employee_id
LEFT JOIN onboarding_network n ON n.onboarding_id = o.id
WHERE $1 = '' OR o.customer_id::text = $1
ORDER BY o.created_at DESC, o.id
`
	rows, err := r.pool.Query(ctx, q, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.ProjectSummary{}
	for rows.Next() {
		var (
			s      domain.ProjectSummary
			status string
		)
		if err := rows.Scan(
			&s.ID, &s.CustomerID, &s.CustomerName, &s.EmployeeName, &s.Title, &status,
			&s.HasNetwork, &s.HardwareCount, &s.SoftwareCount, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		s.Status = domain.Status(status)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *postgresRepo) hardware(ctx context.Context, onboardingID string) ([]domain.Hardware, error) {
	const q = `
SELECT id::text, type, manufacturer, model, serial_number, location, ip, details, notes
FROM onboarding_hardware
WHERE onboarding_id = $1
ORDER BY position
`
	rows, err := r.pool.Query(ctx, q, onboardingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Hardware{}
	for rows.Next() {
		var (
			h       domain.Hardware
			details string
		)
		if err := rows.Scan(&h.ID, &h.Type, &h.Manufacturer, &h.Model, &h.SerialNumber, &h.Location, &h.IP, &details, &h.Notes); err != nil {
			return nil, err
		}
		h.Details = domain.DetailsFromText(details)
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *postgresRepo) software(ctx context.Context, onboardingID string) ([]domain.Software, error) {
	const q = `
SELECT id::text, name, licenses, criticality, description, antivirus, interfaces, maintenance, migration_support
FROM onboarding_software
WHERE onboarding_id = $1
ORDER BY position
`
	rows, err := r.pool.Query(ctx, q, onboardingID)
	if err != nil {
		return nil, err
	}
	out := []domain.Software{}
	index := map[string]int{}
	for rows.Next() {
		var s domain.Software
		if err := rows.Scan(&s.ID, &s.Name, &s.Licenses, &s.Criticality, &s.Description, &s.Antivirus, &s.Interfaces, &s.Maintenance, &s.MigrationSupport); err != nil {
			rows.Close()
			return nil, err
		}
		s.Applications = domain.Applications{}
		s.Requirements = []domain.Requirement{}
		index[s.ID] = len(out)
		out = append(out, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	const reqQ = `
SELECT r.software_id::text, r.type, r.detail
FROM onboarding_software_requirements r
JOIN onboarding_software s ON s.id = r.software_id
WHERE s.onboarding_id = $1
ORDER BY r.software_id, r.position
`
	reqRows, err := r.pool.Query(ctx, reqQ, onboardingID)
	if err != nil {
		return nil, err
	}
	for reqRows.Next() {
		var (
			softwareID string
			req        domain.Requirement
		)
		if err := reqRows.Scan(&softwareID, &req.Type, &req.Detail); err != nil {
			reqRows.Close()
			return nil, err
		}
		if i, ok := index[softwareID]; ok {
			out[i].Requirements = append(out[i].Requirements, req)
		}
	}
	reqRows.Close()
	if err := reqRows.Err(); err != nil {
		return nil, err
	}

	const appQ = `
SELECT a.software_id::text, a.name
FROM onboarding_software_apps a
JOIN onboarding_software s ON s.id = a.software_id
WHERE s.onboarding_id = $1
ORDER BY a.software_id, a.position
`
	appRows, err := r.pool.Query(ctx, appQ, onboardingID)
	if err != nil {
		return nil, err
	}
	defer appRows.Close()
	for appRows.Next() {
		var softwareID, name string
		if err := appRows.Scan(&softwareID, &name); err != nil {
			return nil, err
		}
		if i, ok := index[softwareID]; ok {
			out[i].Applications = append(out[i].Applications, domain.Application{Name: name})
		}
	}
	return out, appRows.Err()
}

func (r *postgresRepo) logFailure(msg string, err error, kv ...interface{}) {
	if errors.Is(err, domain.ErrTransaction) {
		r.logger.Error(msg, append(kv, "err", err)...)
	}
}

// insertOnboarding writes the header and every sub-entity of o on tx.
func insertOnboarding(ctx context.Context, tx pgx.Tx, o domain.Onboarding) (string, error) {
	const q = `
INSERT INTO onboardings (customer_id, employee_id, status, title, description, budget, start_date, end_date, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id::text
`
	var id string
	if err := tx.QueryRow(ctx, q,
		o.CustomerID, o.EmployeeID, string(o.Status), o.Title, o.Description, o.Budget,
		dateArg(o.StartDate), dateArg(o.EndDate), o.Notes,
	).Scan(&id); err != nil {
		return "", err
	}
	if err := writeNetwork(ctx, tx, id, o.Network); err != nil {
		return "", err
	}
	if err := writeMail(ctx, tx, id, o.Mail); err != nil {
		return "", err
	}
	if err := writeBackup(ctx, tx, id, o.Backup); err != nil {
		return "", err
	}
	if err := replaceHardware(ctx, tx, id, o.Hardware); err != nil {
		return "", err
	}
	if err := replaceSoftware(ctx, tx, id, o.Software); err != nil {
		return "", err
	}
	return id, nil
}

func writeNetwork(ctx context.Context, tx pgx.Tx, id string, n domain.Network) error {
	const q = `
INSERT INTO onboarding_network (onboarding_id, access_type, firewall, fixed_ip, ip_address, vpn_required, vpn_users_current, vpn_users_planned, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (onboarding_id) DO UPDATE
SET access_type = EXCLUDED.access_type, firewall = EXCLUDED.firewall, fixed_ip = EXCLUDED.fixed_ip,
    ip_address = EXCLUDED.ip_address, vpn_required = EXCLUDED.vpn_required,
    vpn_users_current = EXCLUDED.vpn_users_current, vpn_users_planned = EXCLUDED.vpn_users_planned,
    notes = EXCLUDED.notes
`
	_, err := tx.Exec(ctx, q, id, string(n.AccessType), n.Firewall, n.FixedIP, n.IPAddress, n.VPNRequired, n.VPNUsersCurrent, n.VPNUsersPlanned, n.Notes)
	return err
}

func writeMail(ctx context.Context, tx pgx.Tx, id string, m domain.Mail) error {
	const q = `
INSERT INTO onboarding_mail (onboarding_id, provider, mailboxes, shared_mailboxes, storage, pop3_connector, mobile_access, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (onboarding_id) DO UPDATE
SET provider = EXCLUDED.provider, mailboxes = EXCLUDED.mailboxes, shared_mailboxes = EXCLUDED.shared_mailboxes,
    storage = EXCLUDED.storage, pop3_connector = EXCLUDED.pop3_connector, mobile_access = EXCLUDED.mobile_access,
    notes = EXCLUDED.notes
`
	_, err := tx.Exec(ctx, q, id, string(m.Provider), m.Mailboxes, m.SharedMailboxes, m.Storage, m.POP3Connector, m.MobileAccess, m.Notes)
	return err
}

func writeBackup(ctx context.Context, tx pgx.Tx, id string, b domain.Backup) error {
	const q = `
INSERT INTO onboarding_backup (onboarding_id, tool, interval_label, retention, location, size, info)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (onboarding_id) DO UPDATE
SET tool = EXCLUDED.tool, interval_label = EXCLUDED.interval_label, retention = EXCLUDED.retention,
    location = EXCLUDED.location, size = EXCLUDED.size, info = EXCLUDED.info
`
	_, err := tx.Exec(ctx, q, id, b.Tool, b.Interval, b.Retention, b.Location, b.Size, b.Info)
	return err
}

// replaceHardware deletes the onboarding's hardware list and inserts items in order.
func replaceHardware(ctx context.Context, tx pgx.Tx, id string, items []domain.Hardware) error {
	if _, err := tx.Exec(ctx, `DELETE FROM onboarding_hardware WHERE onboarding_id = $1`, id); err != nil {
		return err
	}
	const q = `
INSERT INTO onboarding_hardware (onboarding_id, position, type, manufacturer, model, serial_number, location, ip, details, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`
	for i, h := range items {
		details, err := h.Details.Text()
		if err != nil {
			return domain.NewValidationError("hardware.details", "not serialisable")
		}
		if _, err := tx.Exec(ctx, q, id, i, h.Type, h.Manufacturer, h.Model, h.SerialNumber, h.Location, h.IP, details, h.Notes); err != nil {
			return err
		}
	}
	return nil
}

// replaceSoftware deletes the onboarding's software list (requirements and
// applications cascade) and inserts items in order.
func replaceSoftware(ctx context.Context, tx pgx.Tx, id string, items []domain.Software) error {
	if _, err := tx.Exec(ctx, `DELETE FROM onboarding_software WHERE onboarding_id = $1`, id); err != nil {
		return err
	}
	const q = `
INSERT INTO onboarding_software (onboarding_id, position, name, licenses, criticality, description, antivirus, interfaces, maintenance, migration_support)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id::text
`
	for i, s := range items {
		var softwareID string
		if err := tx.QueryRow(ctx, q, id, i, s.Name, s.Licenses, s.Criticality, s.Description, s.Antivirus, s.Interfaces, s.Maintenance, s.MigrationSupport).Scan(&softwareID); err != nil {
			return err
		}
		for j, req := range s.Requirements {
			if _, err := tx.Exec(ctx, `
INSERT INTO onboarding_software_requirements (software_id, position, type, detail)
VALUES ($1, $2, $3, $4)
`, softwareID, j, req.Type, req.Detail); err != nil {
				return err
			}
		}
		for j, app := range s.Applications {
			if _, err := tx.Exec(ctx, `
INSERT INTO onboarding_software_apps (software_id, position, name)
VALUES ($1, $2, $3)
`, softwareID, j, app.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// dateArg maps an absent or zero date to SQL NULL.
func dateArg(d *domain.Date) *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

func dateFrom(t *time.Time) *domain.Date {
	if t == nil {
		return nil
	}
	d := domain.NewDate(*t)
	return &d
}
