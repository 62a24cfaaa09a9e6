package reportsvc

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolconnect/core/leave"
)

var columns = []struct {
	title string
	width float64
}{
	{"Type", 50},
	{"From", 28},
	{"To", 28},
	{"Days", 16},
	{"Status", 26},
	{"Applied", 28},
}

// Leaves writes the applied-leaves list of one applicant as an A4 PDF.
func Leaves(w io.Writer, applicant string, apps []leave.Application) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Applied Leaves", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Applied Leaves")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Applicant: %s", applicant))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 11)
	for _, col := range columns {
		pdf.CellFormat(col.width, 8, col.title, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 11)
	if len(apps) == 0 {
		pdf.Cell(0, 8, "No leave applications.")
	}
	for _, app := range apps {
		row := []string{
			app.LeaveType,
			app.StartDate.String(),
			app.EndDate.String(),
			fmt.Sprintf("%d", app.Days()),
			string(app.Status),
			app.AppliedDate.String(),
		}
		for i, col := range columns {
			pdf.CellFormat(col.width, 8, row[i], "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	return errors.Wrap(pdf.Output(w), "rendering leave report")
}

// LeavesPDF is Leaves into a byte slice.
func LeavesPDF(applicant string, apps []leave.Application) ([]byte, error) {
	var buf bytes.Buffer
	if err := Leaves(&buf, applicant, apps); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
