// Package report renders a user's active expenses as a PDF document.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"expense-ledger/internal/models"

	"github.com/go-pdf/fpdf"
)

const (
	// CurrencyPrefix precedes every amount in the report.
	CurrencyPrefix = "Rs. "

	categoryWidth = 15
	noteWidth     = 30

	emptyNotice = "No active expenses found."
)

// Row is the text of one table row.
type Row struct {
	Date     string
	Category string
	Amount   string
	Note     string
}

// column describes a table column: header, width in mm and row alignment.
type column struct {
	title string
	width float64
	align string
}

var columns = []column{
	{"Date", 30, ""},
	{"Category", 40, ""},
	{"Amount", 30, "R"},
	{"Note", 80, ""},
}

// Rows converts expenses into table rows, preserving order.
func Rows(expenses []models.Expense) []Row {
	rows := make([]Row, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, Row{
			Date:     e.Date.String(),
			Category: truncate(e.Category, categoryWidth),
			Amount:   FormatAmount(e.Amount),
			Note:     NoteText(e.Note),
		})
	}
	return rows
}

// FormatAmount formats m with the report's currency prefix.
func FormatAmount(m models.Money) string {
	return CurrencyPrefix + m.String()
}

// TotalLine is the trailing summary line of the table.
func TotalLine(expenses []models.Expense) string {
	var total models.Money
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return "Total Active Expenses: " + FormatAmount(total)
}

// NoteText returns the note as printed: "-" when empty, cut to 30
// characters, with anything outside printable ASCII replaced by '?'.
func NoteText(note string) string {
	if note == "" {
		note = "-"
	}
	note = truncate(note, noteWidth)
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e {
			return '?'
		}
		return r
	}, note)
}

func truncate(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Render writes the report for email to w. Expenses are printed in the
// given order.
func Render(w io.Writer, email string, expenses []models.Expense, generated time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetTitle("Expense Report", false)
	pdf.SetCreationDate(generated)
	pdf.AddPage()

	// Core fonts are cp1252 encoded.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Expense Report", "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, tr("User: "+email), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, "Generated: "+generated.Format("2006-01-02 15:04"), "", 1, "", false, 0, "")
	pdf.Ln(5)

	if len(expenses) == 0 {
		pdf.SetFont("Arial", "", 12)
		pdf.CellFormat(0, 10, emptyNotice, "", 1, "", false, 0, "")
		return output(pdf, w)
	}

	pdf.SetFont("Arial", "B", 10)
	for _, c := range columns {
		pdf.CellFormat(c.width, 8, c.title, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range Rows(expenses) {
		cells := []string{row.Date, tr(row.Category), row.Amount, row.Note}
		for i, c := range columns {
			pdf.CellFormat(c.width, 8, cells[i], "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 10, TotalLine(expenses), "", 1, "R", false, 0, "")

	return output(pdf, w)
}

func output(pdf *fpdf.Fpdf, w io.Writer) error {
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}
