package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/sentrascan/sentra/internal/engine"
	"github.com/sentrascan/sentra/internal/finding"
)

// jsonSummary is the compact (non-comprehensive) JSON shape: identity,
// severity counts, finding headlines and framework scores only.
type jsonSummary struct {
	ScanID      string             `json:"scan_id"`
	Target      string             `json:"target"`
	Kind        engine.Kind        `json:"kind"`
	StartedAt   time.Time          `json:"started_at"`
	CompletedAt time.Time          `json:"completed_at"`
	Severities  map[string]int     `json:"severity_counts"`
	Findings    []jsonFindingBrief `json:"findings"`
	Frameworks  []jsonFrameworkRow `json:"frameworks,omitempty"`
}

type jsonFindingBrief struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Severity finding.Severity `json:"severity"`
}

type jsonFrameworkRow struct {
	ID     string  `json:"id"`
	Score  float64 `json:"score"`
	Status string  `json:"status"`
}

func writeJSON(w io.Writer, result *engine.Result, comprehensive bool) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if comprehensive {
		return enc.Encode(result)
	}

	findings := result.Findings()
	severities := make(map[string]int)
	for sev, n := range finding.CountBySeverity(findings) {
		severities[string(sev)] = n
	}
	summary := jsonSummary{
		ScanID:      result.ScanID,
		Target:      result.Target,
		Kind:        result.Kind,
		StartedAt:   result.StartedAt,
		CompletedAt: result.CompletedAt,
		Severities:  severities,
		Findings:    make([]jsonFindingBrief, 0, len(findings)),
	}
	for _, f := range findings {
		summary.Findings = append(summary.Findings, jsonFindingBrief{ID: f.ID, Name: f.Name, Severity: f.Severity})
	}
	for _, a := range result.Assessments {
		summary.Frameworks = append(summary.Frameworks, jsonFrameworkRow{
			ID: a.FrameworkID, Score: a.Score, Status: string(a.Status),
		})
	}
	return enc.Encode(summary)
}
