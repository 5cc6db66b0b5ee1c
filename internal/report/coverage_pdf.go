package report

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"rota-go/internal/model"
)

// CoverageReport is the content of a printable coverage report.
type CoverageReport struct {
	Title     string
	StoreID   string
	From      string
	To        string
	Buckets   []model.CoverageBucket
	Conflicts []model.Conflict
}

var statusFill = map[model.CoverageStatus][3]int{
	model.CoverageUnderstaffed: {248, 215, 218},
	model.CoverageOptimal:      {212, 237, 218},
	model.CoverageOverstaffed:  {255, 243, 205},
}

// WriteCoveragePDF renders the hourly coverage table followed by the
// conflict list as an A4 PDF.
func WriteCoveragePDF(w io.Writer, r CoverageReport) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(r.Title, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, r.Title)
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 8, fmt.Sprintf("Store %s, %s to %s", r.StoreID, r.From, r.To))
	pdf.Ln(12)

	header := []string{"Date", "Hour", "Required", "Scheduled", "Coverage", "Status"}
	widths := []float64{32, 18, 26, 26, 28, 40}

	pdf.SetFont("Arial", "B", 11)
	for i, h := range header {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	if len(r.Buckets) == 0 {
		pdf.CellFormat(170, 8, "No shifts in range.", "1", 1, "L", false, 0, "")
	}
	for _, b := range r.Buckets {
		rgb := statusFill[b.Status]
		pdf.SetFillColor(rgb[0], rgb[1], rgb[2])
		cells := []string{
			b.Date,
			fmt.Sprintf("%02d:00", b.Hour),
			fmt.Sprintf("%d", b.Required),
			fmt.Sprintf("%d", b.Scheduled),
			fmt.Sprintf("%.0f%%", b.Coverage),
			string(b.Status),
		}
		for i, c := range cells {
			align := "R"
			if i == 0 || i == 5 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 7, c, "1", 0, align, true, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(8)
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, fmt.Sprintf("Conflicts (%d)", len(r.Conflicts)))
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	if len(r.Conflicts) == 0 {
		pdf.Cell(0, 8, "No conflicts detected.")
		pdf.Ln(8)
	}
	for _, c := range r.Conflicts {
		pdf.MultiCell(0, 6, fmt.Sprintf("[%s] %s: %s", c.Severity, c.Kind, c.Message), "", "", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing coverage PDF: %w", err)
	}
	return nil
}
