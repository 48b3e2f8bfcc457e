package compliance

import (
	"time"

	"github.com/sentrascan/sentra/internal/finding"
)

// ControlStatus is the verdict for one control.
type ControlStatus string

const (
	StatusPassed        ControlStatus = "passed"
	StatusPartial       ControlStatus = "partial"
	StatusFailed        ControlStatus = "failed"
	StatusNotApplicable ControlStatus = "not-applicable"
)

// FrameworkStatus is the rollup verdict for a whole framework.
type FrameworkStatus string

const (
	Compliant          FrameworkStatus = "compliant"
	PartiallyCompliant FrameworkStatus = "partially-compliant"
	NonCompliant       FrameworkStatus = "non-compliant"
)

// Evidence is a non-finding observation from a scan, e.g. a successful
// authenticated login. It counts toward controls of its category.
type Evidence struct {
	Category string `json:"category"`
	Note     string `json:"note"`
}

// ControlAssessment is the scored verdict for one control in one run.
type ControlAssessment struct {
	ControlID   string            `json:"control_id"`
	Requirement string            `json:"requirement"`
	Category    string            `json:"category"`
	Status      ControlStatus     `json:"status"`
	Score       int               `json:"score"`
	Findings    []finding.Finding `json:"findings,omitempty"`
	Evidence    []string          `json:"evidence,omitempty"`
}

// FrameworkAssessment rolls every control of one framework up into a
// single score and status.
type FrameworkAssessment struct {
	FrameworkID string              `json:"framework_id"`
	Name        string              `json:"name"`
	Version     string              `json:"version"`
	Status      FrameworkStatus     `json:"status"`
	Score       float64             `json:"score"`
	Applicable  int                 `json:"applicable_controls"`
	Controls    []ControlAssessment `json:"controls"`
	AssessedAt  time.Time           `json:"assessed_at"`
}

// Assess scores one framework against the findings and evidence of a
// completed scan. Controls that match neither findings nor evidence are
// not-applicable and excluded from the framework mean.
func Assess(frameworkID string, findings []finding.Finding, evidence []Evidence) (*FrameworkAssessment, error) {
	fw, err := FrameworkByID(frameworkID)
	if err != nil {
		return nil, err
	}
	return assessFramework(fw, findings, evidence), nil
}

func assessFramework(fw *Framework, findings []finding.Finding, evidence []Evidence) *FrameworkAssessment {
	assessment := &FrameworkAssessment{
		FrameworkID: fw.ID,
		Name:        fw.Name,
		Version:     fw.Version,
		Controls:    make([]ControlAssessment, 0, len(fw.Controls)),
		AssessedAt:  time.Now().UTC(),
	}

	var total int
	for _, control := range fw.Controls {
		ca := assessControl(control, findings, evidence)
		assessment.Controls = append(assessment.Controls, ca)
		if ca.Status == StatusNotApplicable {
			continue
		}
		assessment.Applicable++
		total += ca.Score
	}

	if assessment.Applicable > 0 {
		assessment.Score = float64(total) / float64(assessment.Applicable)
	}
	switch {
	case assessment.Score >= 85:
		assessment.Status = Compliant
	case assessment.Score >= 60:
		assessment.Status = PartiallyCompliant
	default:
		assessment.Status = NonCompliant
	}
	return assessment
}

// AssessAll runs every requested framework. An empty request selects the
// whole catalog.
func AssessAll(frameworkIDs []string, findings []finding.Finding, evidence []Evidence) ([]*FrameworkAssessment, error) {
	if len(frameworkIDs) == 0 {
		frameworkIDs = FrameworkIDs()
	}
	assessments := make([]*FrameworkAssessment, 0, len(frameworkIDs))
	for _, id := range frameworkIDs {
		assessment, err := Assess(id, findings, evidence)
		if err != nil {
			return nil, err
		}
		assessments = append(assessments, assessment)
	}
	return assessments, nil
}

func assessControl(control Control, findings []finding.Finding, evidence []Evidence) ControlAssessment {
	ca := ControlAssessment{
		ControlID:   control.ID,
		Requirement: control.Requirement,
		Category:    control.Category,
		Findings:    matchControl(control, findings),
	}
	for _, ev := range evidence {
		if ev.Category == control.Category {
			ca.Evidence = append(ca.Evidence, ev.Note)
		}
	}

	ca.Status, ca.Score = scoreControl(ca.Findings, ca.Evidence)
	return ca
}

// scoreControl implements the fixed scoring table. Classification is by
// worst severity present; critical counts with high, info-only findings
// count as evidence of a clean check.
func scoreControl(matched []finding.Finding, evidence []string) (ControlStatus, int) {
	var high, medium, low int
	for _, f := range matched {
		switch f.Severity {
		case finding.SeverityCritical, finding.SeverityHigh:
			high++
		case finding.SeverityMedium:
			medium++
		case finding.SeverityLow:
			low++
		}
	}

	switch {
	case high > 0:
		score := 40 - 20*high
		if score < 0 {
			score = 0
		}
		return StatusFailed, score
	case medium > 0:
		score := 80 - 10*medium
		if score < 50 {
			score = 50
		}
		return StatusPartial, score
	case low > 0:
		score := 90 - 5*low
		if score < 70 {
			score = 70
		}
		return StatusPartial, score
	case len(matched) > 0 || len(evidence) > 0:
		return StatusPassed, 100
	default:
		return StatusNotApplicable, 0
	}
}
