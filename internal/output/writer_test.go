package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sentrascan/sentra/internal/compliance"
	"github.com/sentrascan/sentra/internal/engine"
	"github.com/sentrascan/sentra/internal/finding"
	"github.com/sentrascan/sentra/internal/webscan"
	errs "github.com/sentrascan/sentra/internal/shared/errors"
)

func sampleResult() *engine.Result {
	return &engine.Result{
		ScanID: "11111111-2222-3333-4444-555555555555",
		Target: "https://app.example.test/",
		Kind:   engine.KindWeb,
		Web: &webscan.Result{
			Target: "https://app.example.test/",
			Findings: []finding.Finding{
				{ID: "sql-injection", Name: "SQL injection", Severity: finding.SeverityCritical, Description: "d", Evidence: "e", Remediation: "r"},
				{ID: "csrf-vulnerable-form", Name: "POST form without CSRF protection", Severity: finding.SeverityMedium},
			},
		},
		Assessments: []*compliance.FrameworkAssessment{{
			FrameworkID: "pci-dss",
			Name:        "PCI DSS",
			Version:     "4.0",
			Status:      compliance.NonCompliant,
			Score:       42.5,
			Applicable:  2,
			Controls: []compliance.ControlAssessment{
				{ControlID: "6.2.4", Requirement: "req", Status: compliance.StatusFailed, Score: 20},
			},
		}},
		StartedAt:   time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		CompletedAt: time.Date(2026, 8, 1, 10, 5, 0, 0, time.UTC),
	}
}

func TestWriteJSONSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleResult(), Options{Format: "json"}); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	var summary map[string]any
	if err := json.Unmarshal(buf.Bytes(), &summary); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if summary["scan_id"] != "11111111-2222-3333-4444-555555555555" {
		t.Errorf("scan_id = %v", summary["scan_id"])
	}
	counts, ok := summary["severity_counts"].(map[string]any)
	if !ok || counts["critical"] != float64(1) || counts["medium"] != float64(1) {
		t.Errorf("severity_counts = %v", summary["severity_counts"])
	}
	if strings.Contains(buf.String(), `"remediation"`) {
		t.Error("summary output leaked comprehensive fields")
	}
}

func TestWriteJSONComprehensive(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleResult(), Options{Format: "json", Comprehensive: true}); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	var full engine.Result
	if err := json.Unmarshal(buf.Bytes(), &full); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if full.Web == nil || len(full.Web.Findings) != 2 {
		t.Error("comprehensive output missing full web result")
	}
	if len(full.Assessments) != 1 || len(full.Assessments[0].Controls) != 1 {
		t.Error("comprehensive output missing control detail")
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleResult(), Options{Format: "csv", Comprehensive: true}); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	// header + 2 findings + 1 framework + 1 control
	if len(rows) != 5 {
		t.Fatalf("got %d rows, want 5", len(rows))
	}
	if rows[0][2] != "record" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][3] != "sql-injection" || rows[1][5] != "critical" {
		t.Errorf("first finding row = %v", rows[1])
	}
	if rows[3][2] != "framework" || rows[4][2] != "control" {
		t.Errorf("assessment rows = %v / %v", rows[3], rows[4])
	}
}

func TestWriteUnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleResult(), Options{Format: "xml"}); !errors.Is(err, errs.ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	if err := WriteFile(path, sampleResult(), Options{Format: "json"}); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading result file: %v", err)
	}
	if !json.Valid(data) {
		t.Error("result file is not valid JSON")
	}
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePDF(&buf, sampleResult()); err != nil {
		t.Fatalf("WritePDF error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Error("output does not start with a PDF header")
	}
}
