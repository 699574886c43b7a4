package customer

import (
	"context"
	"errors"
	"fmt"

	"bizadmin/internal/db"
	"bizadmin/internal/domain"
	"bizadmin/internal/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const customerColumns = `id::text, firmenname, strasse, hausnummer, plz, ort, telefonnummer, email, created_at, updated_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, log *logger.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger.OrNop(log).With("repo", "customer")}
}

func (r *postgresRepo) Create(ctx context.Context, c domain.Customer, contact *domain.Contact) (*domain.Customer, error) {
	var out *domain.Customer
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		created, err := CreateTx(ctx, tx, c, contact)
		if err != nil {
			return err
		}
		out = created
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrTransaction) {
			r.logger.Error("create customer", "email", c.Email, "err", err)
		}
		return nil, err
	}
	return out, nil
}

// CreateTx inserts a customer (and optional contact) on an open transaction.
// The caller owns commit and rollback. A customer sharing the email OR the
// company name of an existing one is rejected with domain.ErrAlreadyExists.
func CreateTx(ctx context.Context, q db.Querier, c domain.Customer, contact *domain.Contact) (*domain.Customer, error) {
	if err := checkDuplicate(ctx, q, c, ""); err != nil {
		return nil, err
	}

	const insert = `
INSERT INTO customers (firmenname, strasse, hausnummer, plz, ort, telefonnummer, email)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + customerColumns
	created, err := scanCustomer(q.QueryRow(ctx, insert,
		c.CompanyName, c.Street, c.HouseNumber, c.PostalCode, c.City, c.Phone, c.Email,
	))
	if err != nil {
		return nil, db.TranslateError(err)
	}

	created.Contacts = []domain.Contact{}
	if contact != nil {
		ct := *contact
		ct.CustomerID = created.ID
		saved, err := insertContact(ctx, q, ct)
		if err != nil {
			return nil, err
		}
		created.Contacts = append(created.Contacts, *saved)
	}
	return created, nil
}

func (r *postgresRepo) Update(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	if err := checkDuplicate(ctx, r.pool, c, c.ID); err != nil {
		return nil, err
	}
	const q = `
UPDATE customers
SET firmenname = $2, strasse = $3, hausnummer = $4, plz = $5, ort = $6,
    telefonnummer = $7, email = $8, updated_at = now()
WHERE id = $1
RETURNING ` + customerColumns
	updated, err := scanCustomer(r.pool.QueryRow(ctx, q,
		c.ID, c.CompanyName, c.Street, c.HouseNumber, c.PostalCode, c.City, c.Phone, c.Email,
	))
	if err != nil {
		return nil, db.TranslateError(err)
	}
	contacts, err := r.contacts(ctx, updated.ID)
	if err != nil {
		return nil, err
	}
	updated.Contacts = contacts
	return updated, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	const q = `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	c, err := scanCustomer(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, db.TranslateError(err)
	}
	contacts, err := r.contacts(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Contacts = contacts
	return c, nil
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.CustomerSummary, error) {
	const q = `
SELECT c.id::text, c.firmenname, c.strasse, c.hausnummer, c.plz, c.ort, c.telefonnummer, c.email,
       c.created_at, c.updated_at,
       COALESCE(ct.n, 0), COALESCE(ob.n, 0)
FROM customers c
LEFT JOIN (SELECT customer_id, COUNT(*) AS n FROM contacts GROUP BY customer_id) ct ON ct.customer_id = c.id
LEFT JOIN (SELECT customer_id, COUNT(*) AS n FROM onboardings GROUP BY customer_id) ob ON ob.customer_id = c.id
ORDER BY c.created_at DESC, c.id
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.CustomerSummary{}
	for rows.Next() {
		var s domain.CustomerSummary
		if err := rows.Scan(
			&s.ID, &s.CompanyName, &s.Street, &s.HouseNumber, &s.PostalCode, &s.City, &s.Phone, &s.Email,
			&s.CreatedAt, &s.UpdatedAt,
			&s.ContactCount, &s.OnboardingCount,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *postgresRepo) AddContact(ctx context.Context, contact domain.Contact) (*domain.Contact, error) {
	return insertContact(ctx, r.pool, contact)
}

func (r *postgresRepo) contacts(ctx context.Context, customerID string) ([]domain.Contact, error) {
	const q = `
SELECT id::text, customer_id::text, vorname, name, position, telefon, email
FROM contacts
WHERE customer_id = $1
ORDER BY created_at ASC, id
`
	rows, err := r.pool.Query(ctx, q, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Contact{}
	for rows.Next() {
		var ct domain.Contact
		if err := rows.Scan(&ct.ID, &ct.CustomerID, &ct.FirstName, &ct.Name, &ct.Position, &ct.Phone, &ct.Email); err != nil {
			return nil, err
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

func insertContact(ctx context.Context, q db.Querier, ct domain.Contact) (*domain.Contact, error) {
	const insert = `
INSERT INTO contacts (customer_id, vorname, name, position, telefon, email)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id::text, customer_id::text, vorname, name, position, telefon, email
`
	var out domain.Contact
	err := q.QueryRow(ctx, insert, ct.CustomerID, ct.FirstName, ct.Name, ct.Position, ct.Phone, ct.Email).Scan(
		&out.ID, &out.CustomerID, &out.FirstName, &out.Name, &out.Position, &out.Phone, &out.Email,
	)
	if err != nil {
		return nil, db.TranslateError(err)
	}
	return &out, nil
}

// checkDuplicate rejects c when another customer (other than exceptID) shares its email or company name.
func checkDuplicate(ctx context.Context, q db.Querier, c domain.Customer, exceptID string) error {
	const dup = `
SELECT lower(email) = lower($1), lower(firmenname) = lower($2)
FROM customers
WHERE (lower(email) = lower($1) OR lower(firmenname) = lower($2))
  AND ($3 = '' OR id::text <> $3)
LIMIT 1
`
	var sameEmail, sameName bool
	err := q.QueryRow(ctx, dup, c.Email, c.CompanyName, exceptID).Scan(&sameEmail, &sameName)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil
	case err != nil:
		return err
	case sameEmail:
		return domain.NewDuplicateError(fmt.Sprintf("a customer with email %s already exists", c.Email))
	default:
		return domain.NewDuplicateError(fmt.Sprintf("a customer named %s already exists", c.CompanyName))
	}
}

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	if err := row.Scan(
		&c.ID, &c.CompanyName, &c.Street, &c.HouseNumber, &c.PostalCode, &c.City, &c.Phone, &c.Email,
		&c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}
