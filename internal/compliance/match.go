package compliance

import (
	"strings"

	"github.com/sentrascan/sentra/internal/finding"
)

// tagMatchers fixes, per check tag, the finding id substrings that count
// against a control carrying the tag. The rules are part of the engine
// contract: catalogs reference tags, never raw finding ids.
var tagMatchers = map[string][]string{
	"open-ports":         {"open-port-", "database-port-", "exposed-service-"},
	"ssh-security":       {"ssh-"},
	"ssl-tls":            {"tls-", "header-missing-strict-transport-security"},
	"security-headers":   {"header-missing-"},
	"session-management": {"cookie-", "csrf-"},
	"authentication":     {"auth-", "login-", "default-credential"},
	"injection":          {"sql-injection", "xss-", "lfi-", "reflected-parameter"},
	"data-protection":    {"sensitive-data-", "exposed-"},
	"patching":           {"outdated-software-"},
	"redirects":          {"open-redirect"},
}

// matchesTag reports whether a finding id belongs to a tag's family.
func matchesTag(findingID, tag string) bool {
	for _, sub := range tagMatchers[tag] {
		if strings.Contains(findingID, sub) {
			return true
		}
	}
	return false
}

// matchControl selects the findings counting against one control.
func matchControl(control Control, findings []finding.Finding) []finding.Finding {
	var matched []finding.Finding
	for _, f := range findings {
		for _, tag := range control.Checks {
			if matchesTag(f.ID, tag) {
				matched = append(matched, f)
				break
			}
		}
	}
	return matched
}
