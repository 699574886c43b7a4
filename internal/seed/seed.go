package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// Admin is the initial administrator account.
type Admin struct {
	Email    string
	Name     string
	Password string
}

type customerSeed struct {
	Firmenname    string
	Strasse       string
	Hausnummer    string
	PLZ           string
	Ort           string
	Telefonnummer string
	Email         string
	Contact       contactSeed
}

type contactSeed struct {
	Vorname  string
	Name     string
	Position string
}

var demoCustomer = customerSeed{
	Firmenname:    "Muster Handwerk GmbH",
	Strasse:       "Werkstraße",
	Hausnummer:    "12",
	PLZ:           "50667",
	Ort:           "Köln",
	Telefonnummer: "0221 123456",
	Email:         "info@muster-handwerk.de",
	Contact:       contactSeed{Vorname: "Petra", Name: "Muster", Position: "Geschäftsführung"},
}

// Apply inserts an admin user and a demo customer for manual testing. It is
// idempotent via ON CONFLICT; existing rows are left untouched.
func Apply(ctx context.Context, pool *pgxpool.Pool, admin Admin) error {
	if err := ensureAdmin(ctx, pool, admin); err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	if err := ensureCustomer(ctx, pool, demoCustomer); err != nil {
		return fmt.Errorf("ensure customer %s: %w", demoCustomer.Firmenname, err)
	}
	return nil
}

func ensureAdmin(ctx context.Context, pool *pgxpool.Pool, admin Admin) error {
	if len(admin.Password) < 8 {
		return errors.New("admin password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO users (email, name, role, password_hash)
VALUES ($1, $2, 'admin', $3)
ON CONFLICT ((lower(email))) DO NOTHING
`
	_, err = pool.Exec(ctx, q, strings.ToLower(strings.TrimSpace(admin.Email)), admin.Name, string(hash))
	return err
}

func ensureCustomer(ctx context.Context, pool *pgxpool.Pool, c customerSeed) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const q = `
INSERT INTO customers (firmenname, strasse, hausnummer, plz, ort, telefonnummer, email)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT DO NOTHING
RETURNING id::text
`
	var id string
	err = tx.QueryRow(ctx, q, c.Firmenname, c.Strasse, c.Hausnummer, c.PLZ, c.Ort, c.Telefonnummer, c.Email).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	const contact = `
INSERT INTO contacts (customer_id, vorname, name, position, telefon, email)
VALUES ($1, $2, $3, $4, $5, $6)
`
	if _, err := tx.Exec(ctx, contact, id, c.Contact.Vorname, c.Contact.Name, c.Contact.Position, c.Telefonnummer, c.Email); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
