package output

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/sentrascan/sentra/internal/engine"
)

// writeCSV emits one row per finding, followed by one row per framework
// assessment when any were computed. Comprehensive adds evidence and
// remediation columns.
func writeCSV(w io.Writer, result *engine.Result, comprehensive bool) error {
	cw := csv.NewWriter(w)

	header := []string{"scan_id", "target", "record", "id", "name", "severity", "description"}
	if comprehensive {
		header = append(header, "evidence", "remediation")
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, f := range result.Findings() {
		row := []string{result.ScanID, result.Target, "finding", f.ID, f.Name, string(f.Severity), f.Description}
		if comprehensive {
			row = append(row, f.Evidence, f.Remediation)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	for _, a := range result.Assessments {
		row := []string{
			result.ScanID, result.Target, "framework", a.FrameworkID, a.Name,
			string(a.Status), fmt.Sprintf("score %.1f over %d applicable controls", a.Score, a.Applicable),
		}
		if comprehensive {
			row = append(row, "", "")
		}
		if err := cw.Write(row); err != nil {
			return err
		}
		if !comprehensive {
			continue
		}
		for _, c := range a.Controls {
			row := []string{
				result.ScanID, result.Target, "control", c.ControlID, c.Requirement,
				string(c.Status), fmt.Sprintf("score %d", c.Score),
				fmt.Sprintf("%d finding(s)", len(c.Findings)), "",
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
