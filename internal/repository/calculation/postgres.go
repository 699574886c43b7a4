package calculation

import (
	"context"
	"errors"
	"time"

	"bizadmin/internal/db"
	"bizadmin/internal/domain"
	"bizadmin/internal/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const headerSelect = `
SELECT k.id::text, k.customer_id::text, c.firmenname, c.strasse, c.hausnummer, c.plz, c.ort,
       k.employee_id::text, COALESCE(u.name, ''),
       k.datum, k.stundensatz::float8, k.mwst_prozent::float8, k.status::text,
       k.total_hours::float8, k.total_price::float8,
       (SELECT COUNT(*) FROM calculation_items i WHERE i.calculation_id = k.id),
       k.created_at, k.updated_at
FROM calculations k
JOIN customers c ON c.id = k.customer_id
LEFT JOIN users u ON u.id = k.employee_id
`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, log *logger.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger.OrNop(log).With("repo", "calculation")}
}

func (r *postgresRepo) Create(ctx context.Context, c domain.Calculation) (*domain.Calculation, error) {
	var id string
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`, c.CustomerID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrInvalidReference
		}

		const q = `
INSERT INTO calculations (customer_id, employee_id, datum, stundensatz, mwst_prozent, status, total_hours, total_price)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id::text
`
		if err := tx.QueryRow(ctx, q,
			c.CustomerID, c.EmployeeID, c.Date.Time, c.HourlyRate, c.VATPercent, string(c.Status), c.TotalHours, c.TotalPrice,
		).Scan(&id); err != nil {
			return err
		}
		return insertItems(ctx, tx, id, c.Items)
	})
	if err != nil {
		r.logFailure("create calculation", err, "customer_id", c.CustomerID)
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Calculation, error) {
	c, err := scanHeader(r.pool.QueryRow(ctx, headerSelect+`WHERE k.id = $1`, id))
	if err != nil {
		return nil, db.TranslateError(err)
	}

	const linesQuery = `
SELECT id::text, calculation_id::text, beschreibung, kategorie, anzahl, dauer_pro_einheit::float8, stundensatz::float8, notiz
FROM calculation_items
WHERE calculation_id = $1
ORDER BY position
`
	rows, err := r.pool.Query(ctx, linesQuery, c.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	c.Items = []domain.LineItem{}
	for rows.Next() {
		var li domain.LineItem
		if err := rows.Scan(&li.ID, &li.CalculationID, &li.Description, &li.Section, &li.Quantity, &li.DurationPerUnit, &li.HourlyRate, &li.Note); err != nil {
			return nil, err
		}
		c.Items = append(c.Items, li)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *postgresRepo) Update(ctx context.Context, id string, p domain.CalculationPatch) (*domain.Calculation, error) {
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		var locked string
		if err := tx.QueryRow(ctx, `SELECT id::text FROM calculations WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
			return err
		}

		var status *string
		if p.Status != nil {
			s := string(*p.Status)
			status = &s
		}
		const header = `
UPDATE calculations
SET stundensatz  = COALESCE($2::numeric, stundensatz),
    mwst_prozent = COALESCE($3::numeric, mwst_prozent),
    status       = COALESCE($4::workflow_status, status),
    employee_id  = COALESCE($5::uuid, employee_id),
    updated_at   = now()
WHERE id = $1
`
		if _, err := tx.Exec(ctx, header, id, p.HourlyRate, p.VATPercent, status, p.EmployeeID); err != nil {
			return err
		}

		if p.Items != nil {
			if _, err := tx.Exec(ctx, `DELETE FROM calculation_items WHERE calculation_id = $1`, id); err != nil {
				return err
			}
			if err := insertItems(ctx, tx, id, *p.Items); err != nil {
				return err
			}
		}
		if p.Items != nil || p.HourlyRate != nil {
			return updateTotals(ctx, tx, id)
		}
		return nil
	})
	if err != nil {
		r.logFailure("update calculation", err, "id", id)
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE calculations SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	if err != nil {
		return db.TranslateError(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) List(ctx context.Context, customerID string) ([]domain.Calculation, error) {
	rows, err := r.pool.Query(ctx, headerSelect+`
WHERE $1 = '' OR k.customer_id::text = $1
ORDER BY k.created_at DESC, k.id
`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Calculation{}
	for rows.Next() {
		c, err := scanHeader(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *postgresRepo) CountCustomers(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM customers`).Scan(&n)
	return n, err
}

func (r *postgresRepo) CountOpenOnboardings(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM onboardings WHERE status IN ('new', 'in-progress')`).Scan(&n)
	return n, err
}

func (r *postgresRepo) SumHours(ctx context.Context, from, to domain.Date) (float64, error) {
	var sum float64
	err := r.pool.QueryRow(ctx, `
SELECT COALESCE(SUM(total_hours), 0)::float8
FROM calculations
WHERE datum >= $1 AND datum < $2
`, from.Time, to.Time).Scan(&sum)
	return sum, err
}

func (r *postgresRepo) SumDoneRevenue(ctx context.Context, from, to domain.Date) (float64, error) {
	var sum float64
	err := r.pool.QueryRow(ctx, `
SELECT COALESCE(SUM(total_price), 0)::float8
FROM calculations
WHERE datum >= $1 AND datum < $2 AND status = 'done'
`, from.Time, to.Time).Scan(&sum)
	return sum, err
}

func (r *postgresRepo) CountOpenCalculations(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM calculations WHERE status IN ('new', 'in-progress')`).Scan(&n)
	return n, err
}

func (r *postgresRepo) logFailure(msg string, err error, kv ...interface{}) {
	if errors.Is(err, domain.ErrTransaction) {
		r.logger.Error(msg, append(kv, "err", err)...)
	}
}

func insertItems(ctx context.Context, tx pgx.Tx, calculationID string, items []domain.LineItem) error {
	const q = `
INSERT INTO calculation_items (calculation_id, position, beschreibung, kategorie, anzahl, dauer_pro_einheit, stundensatz, notiz)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`
	for i, li := range items {
		if _, err := tx.Exec(ctx, q, calculationID, i, li.Description, li.Section, li.Quantity, li.DurationPerUnit, li.HourlyRate, li.Note); err != nil {
			return err
		}
	}
	return nil
}

// updateTotals recomputes total_hours from the stored items and prices them at the header rate.
func updateTotals(ctx context.Context, tx pgx.Tx, calculationID string) error {
	_, err := tx.Exec(ctx, `
UPDATE calculations k
SET total_hours = s.hours,
    total_price = ROUND(s.hours * k.stundensatz, 2)
FROM (
	SELECT ROUND(COALESCE(SUM(anzahl * dauer_pro_einheit), 0), 2) AS hours
	FROM calculation_items
	WHERE calculation_id = $1
) s
WHERE k.id = $1
`, calculationID)
	return err
}

func scanHeader(row pgx.Row) (*domain.Calculation, error) {
	var (
		c      domain.Calculation
		addr   domain.Address
		datum  time.Time
		status string
	)
	if err := row.Scan(
		&c.ID, &c.CustomerID, &c.CustomerName,
		&addr.Street, &addr.HouseNumber, &addr.PostalCode, &addr.City,
		&c.EmployeeID, &c.EmployeeName,
		&datum, &c.HourlyRate, &c.VATPercent, &status,
		&c.TotalHours, &c.TotalPrice, &c.ItemCount,
		&c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.CustomerAddress = &addr
	c.Date = domain.NewDate(datum)
	c.Status = domain.Status(status)
	return &c, nil
}
