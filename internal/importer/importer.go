package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"bizadmin/internal/domain"
	"bizadmin/internal/logger"
	customersvc "bizadmin/internal/service/customer"
)

// CustomerWriter is the part of the customer registry the importer needs.
type CustomerWriter interface {
	Create(ctx context.Context, in customersvc.Input) (*domain.Customer, error)
	AddContact(ctx context.Context, customerID string, in customersvc.ContactInput) (*domain.Contact, error)
}

// Result summarises an import run.
type Result struct {
	Customers int
	Contacts  int
	// Skipped lists company names rejected as duplicates.
	Skipped []string
	// SkippedContacts lists rows whose contact lacked a first name or name, or was rejected.
	SkippedContacts []int
}

// CSVImporter reads customer CSV exports. A row with firmenname starts a new
// customer; rows without it add contacts to the preceding customer.
type CSVImporter struct {
	reader    *csv.Reader
	customers CustomerWriter
	logger    *logger.Logger
}

func NewCSVImporter(r io.Reader, customers CustomerWriter, log *logger.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:    csvr,
		customers: customers,
		logger:    logger.OrNop(log).With("component", "importer"),
	}
}

type csvRow struct {
	customer *customersvc.Input
	contact  *customersvc.ContactInput
	// partial is set when only one of first name and name is present.
	partial bool
}

type contactRow struct {
	in   customersvc.ContactInput
	line int
}

type pending struct {
	customer customersvc.Input
	extra    []contactRow
	line     int
}

// Run parses every row and creates customers with their contacts.
func (i *CSVImporter) Run(ctx context.Context) (Result, error) {
	var res Result
	headers, err := i.reader.Read()
	if err != nil {
		return res, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["firmenname"]; !ok {
		return res, errors.New("missing firmenname column")
	}

	var current *pending
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return res, fmt.Errorf("read row %d: %w", line, err)
		}

		row := parseRow(record, index)
		switch {
		case row.customer != nil:
			if err := i.flush(ctx, current, &res); err != nil {
				return res, err
			}
			current = &pending{customer: *row.customer, line: line}
			if row.partial {
				i.skipContact(&res, line, "contact needs first name and name")
			}
		case row.contact != nil || row.partial:
			if current == nil {
				return res, fmt.Errorf("row %d: contact row before any customer", line)
			}
			if row.partial {
				i.skipContact(&res, line, "contact needs first name and name")
				continue
			}
			current.extra = append(current.extra, contactRow{in: *row.contact, line: line})
		}
	}
	if err := i.flush(ctx, current, &res); err != nil {
		return res, err
	}
	return res, nil
}

func (i *CSVImporter) flush(ctx context.Context, p *pending, res *Result) error {
	if p == nil {
		return nil
	}
	created, err := i.customers.Create(ctx, p.customer)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			i.logger.Warn("duplicate customer skipped", "row", p.line, "firmenname", p.customer.CompanyName, "err", err)
			res.Skipped = append(res.Skipped, p.customer.CompanyName)
			return nil
		}
		return fmt.Errorf("row %d: create customer %q: %w", p.line, p.customer.CompanyName, err)
	}
	res.Customers++
	res.Contacts += len(created.Contacts)
	for _, contact := range p.extra {
		if _, err := i.customers.AddContact(ctx, created.ID, contact.in); err != nil {
			if errors.Is(err, domain.ErrValidation) {
				i.skipContact(res, contact.line, err.Error())
				continue
			}
			return fmt.Errorf("row %d: add contact to %q: %w", contact.line, p.customer.CompanyName, err)
		}
		res.Contacts++
	}
	return nil
}

func (i *CSVImporter) skipContact(res *Result, line int, reason string) {
	i.logger.Warn("contact skipped", "row", line, "reason", reason)
	res.SkippedContacts = append(res.SkippedContacts, line)
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) csvRow {
	var row csvRow
	contact := customersvc.ContactInput{
		FirstName: pick(record, index, "ansprechpartner_vorname"),
		Name:      pick(record, index, "ansprechpartner_name"),
		Position:  pick(record, index, "ansprechpartner_position"),
		Phone:     pick(record, index, "ansprechpartner_telefon"),
		Email:     pick(record, index, "ansprechpartner_email"),
	}
	hasContact := contact.FirstName != "" && contact.Name != ""
	row.partial = !hasContact && (contact.FirstName != "" || contact.Name != "")
	if hasContact {
		row.contact = &contact
	}

	name := pick(record, index, "firmenname")
	if name == "" {
		return row
	}
	in := customersvc.Input{
		CompanyName: name,
		Street:      pick(record, index, "strasse"),
		HouseNumber: pick(record, index, "hausnummer"),
		PostalCode:  pick(record, index, "plz"),
		City:        pick(record, index, "ort"),
		Phone:       pick(record, index, "telefonnummer"),
		Email:       pick(record, index, "email"),
	}
	if hasContact {
		in.Contact = &contact
	}
	row.customer = &in
	return row
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
