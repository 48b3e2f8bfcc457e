package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/sentrascan/sentra/internal/compliance"
	"github.com/sentrascan/sentra/internal/engine"
	"github.com/sentrascan/sentra/internal/finding"
)

const pdfMaxFindings = 50

// WritePDF renders a printable assessment report: identity, severity
// summary, framework verdicts, then finding detail.
func WritePDF(w io.Writer, result *engine.Result) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, fmt.Sprintf("Security Assessment: %s", result.Target), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Scan ID: %s", result.ScanID), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Scan kind: %s", result.Kind), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Started: %s", result.StartedAt.Format("2006-01-02 15:04:05 MST")), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Completed: %s", result.CompletedAt.Format("2006-01-02 15:04:05 MST")), "", 1, "", false, 0, "")
	pdf.Ln(5)

	findings := result.Findings()
	counts := finding.CountBySeverity(findings)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Summary", "", 1, "", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Findings: %d | Critical: %d | High: %d | Medium: %d | Low: %d | Info: %d",
		len(findings),
		counts[finding.SeverityCritical], counts[finding.SeverityHigh],
		counts[finding.SeverityMedium], counts[finding.SeverityLow],
		counts[finding.SeverityInfo]), "", 1, "", false, 0, "")
	pdf.Ln(5)

	if len(result.Assessments) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, "Compliance", "", 1, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		for _, a := range result.Assessments {
			pdf.CellFormat(0, 6, fmt.Sprintf("%s %s: %.1f (%s, %d applicable controls)",
				a.Name, a.Version, a.Score, a.Status, a.Applicable), "", 1, "", false, 0, "")
			for _, c := range a.Controls {
				if c.Status != compliance.StatusFailed {
					continue
				}
				pdf.SetFont("Arial", "", 9)
				pdf.MultiCell(0, 5, fmt.Sprintf("  %s failed (%d): %s", c.ControlID, c.Score, c.Requirement), "", "", false)
				pdf.SetFont("Arial", "", 10)
			}
		}
		pdf.Ln(5)
	}

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Findings", "", 1, "", false, 0, "")
	pdf.Ln(2)

	for i, f := range findings {
		if i == pdfMaxFindings {
			pdf.SetFont("Arial", "I", 9)
			pdf.CellFormat(0, 6, fmt.Sprintf("... %d additional findings omitted ...", len(findings)-pdfMaxFindings), "", 1, "", false, 0, "")
			break
		}
		if pdf.GetY() > 250 {
			pdf.AddPage()
		}

		pdf.SetFont("Arial", "B", 11)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(0, 7, fmt.Sprintf("[%s] %s", strings.ToUpper(string(f.Severity)), f.Name), "", 1, "", true, 0, "")
		pdf.SetFont("Arial", "", 9)
		if f.Description != "" {
			pdf.MultiCell(0, 5, f.Description, "", "", false)
		}
		if f.Evidence != "" {
			pdf.MultiCell(0, 5, "Evidence: "+f.Evidence, "", "", false)
		}
		if f.Remediation != "" {
			pdf.MultiCell(0, 5, "Remediation: "+f.Remediation, "", "", false)
		}
		pdf.Ln(2)
	}

	return pdf.Output(w)
}
