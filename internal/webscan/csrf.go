package webscan

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sentrascan/sentra/internal/finding"
)

// authFormMarkers exclude login and registration forms from the CSRF
// audit: they predate the session, so token protection is not expected.
var authFormMarkers = []string{"login", "logon", "signin", "sign-in", "register", "signup", "sign-up"}

func isAuthForm(form FormDescriptor) bool {
	haystacks := []string{strings.ToLower(form.ID), strings.ToLower(form.Action)}
	for _, haystack := range haystacks {
		for _, marker := range authFormMarkers {
			if strings.Contains(haystack, marker) {
				return true
			}
		}
	}
	return false
}

// checkCSRF flags state-changing POST forms that carry no recognizable
// anti-CSRF hidden field.
func checkCSRF(_ context.Context, crawl *CrawlResult, _ *CheckContext) []finding.Finding {
	var findings []finding.Finding

	for _, form := range crawl.Forms {
		if form.Method != http.MethodPost {
			continue
		}
		if form.HasCSRFProtection || isAuthForm(form) {
			continue
		}
		findings = append(findings, finding.Finding{
			ID:          "csrf-vulnerable-form",
			Name:        "POST form without CSRF protection",
			Severity:    finding.SeverityMedium,
			Description: fmt.Sprintf("Form %q posting to %s carries no recognizable anti-CSRF token field.", form.ID, form.Action),
			Evidence:    fmt.Sprintf("form %q on %s, fields: %s", form.ID, form.PageURL, fieldNames(form)),
			Remediation: "Include a per-session anti-CSRF token in every state-changing form and validate it server side.",
		})
	}
	return findings
}

func fieldNames(form FormDescriptor) string {
	names := make([]string, 0, len(form.Fields))
	for _, f := range form.Fields {
		names = append(names, f.Name)
	}
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}
