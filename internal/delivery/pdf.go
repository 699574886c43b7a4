package delivery

import (
	"bytes"
	"fmt"
	"time"

	"bizadmin/internal/domain"
	"github.com/go-pdf/fpdf"
)

// Renderer lays out a calculation as an A4 PDF.
type Renderer struct {
	company  string
	now      func() time.Time
	compress bool
}

// NewRenderer returns a Renderer that prints company in the letterhead.
func NewRenderer(company string) *Renderer {
	return &Renderer{company: company, now: time.Now, compress: true}
}

var columns = []struct {
	title string
	width float64
	align string
}{
	{"Beschreibung", 70, "L"},
	{"Anzahl", 18, "R"},
	{"Dauer (h)", 22, "R"},
	{"Satz", 30, "R"},
	{"Summe", 35, "R"},
}

// Render returns the PDF bytes. Line rates are resolved against the header
// rate at render time.
func (r *Renderer) Render(c domain.Calculation) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetCreationDate(r.now())
	pdf.SetTitle("Kalkulation "+c.Date.String(), true)
	pdf.SetCreator(r.company, true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 8, tr(r.company), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr("Kalkulation vom "+c.Date.Format("02.01.2006")), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, tr(c.CustomerName), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	if c.CustomerAddress != nil {
		for _, line := range c.CustomerAddress.Lines() {
			pdf.CellFormat(0, 5, tr(line), "", 1, "L", false, 0, "")
		}
		pdf.Ln(2)
	}
	pdf.CellFormat(0, 5, tr("Status: "+string(c.Status)), "", 1, "L", false, 0, "")
	if c.EmployeeName != "" {
		pdf.CellFormat(0, 5, tr("Bearbeiter: "+c.EmployeeName), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 5, tr("Stundensatz: "+FormatEUR(c.HourlyRate)), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range columns {
		pdf.CellFormat(col.width, 7, tr(col.title), "1", 0, col.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	section := ""
	for _, li := range c.Items {
		if li.Section != "" && li.Section != section {
			section = li.Section
			pdf.SetFont("Helvetica", "I", 9)
			pdf.CellFormat(175, 6, tr(section), "LR", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 10)
		}
		cells := []string{
			li.Description,
			fmt.Sprintf("%d", li.Quantity),
			FormatHours(li.DurationPerUnit),
			FormatEUR(li.EffectiveRate(c.HourlyRate)),
			FormatEUR(li.Total(c.HourlyRate)),
		}
		for i, col := range columns {
			pdf.CellFormat(col.width, 6, tr(cells[i]), "1", 0, col.align, false, 0, "")
		}
		pdf.Ln(-1)
		if li.Note != "" {
			pdf.SetFont("Helvetica", "", 8)
			pdf.MultiCell(175, 4, tr(li.Note), "LRB", "L", false)
			pdf.SetFont("Helvetica", "", 10)
		}
	}
	pdf.Ln(4)

	totals := []struct {
		label string
		value string
	}{
		{"Stunden gesamt", FormatHours(c.TotalHours) + " h"},
		{"Netto", FormatEUR(c.NetTotal())},
		{fmt.Sprintf("MwSt %s %%", FormatHours(c.VATPercent)), FormatEUR(c.VATAmount())},
		{"Brutto", FormatEUR(c.GrossTotal())},
	}
	for i, t := range totals {
		if i == len(totals)-1 {
			pdf.SetFont("Helvetica", "B", 11)
		}
		pdf.CellFormat(140, 6, tr(t.label), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, tr(t.value), "", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render calculation %s: %w", c.ID, err)
	}
	return buf.Bytes(), nil
}
