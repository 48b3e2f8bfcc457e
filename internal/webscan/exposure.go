package webscan

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/sentrascan/sentra/internal/finding"
)

// sensitivePatterns is the static regex catalog matched against every
// crawled page body. Matches are redacted before they become evidence.
var sensitivePatterns = []struct {
	id       string
	name     string
	severity finding.Severity
	pattern  *regexp.Regexp
}{
	{"sensitive-data-aws-key", "AWS access key", finding.SeverityCritical,
		regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`)},
	{"sensitive-data-private-key", "Private key material", finding.SeverityCritical,
		regexp.MustCompile(`-----BEGIN (?:RSA |EC |OPENSSH |DSA )?PRIVATE KEY-----`)},
	{"sensitive-data-db-connection", "Database connection string", finding.SeverityHigh,
		regexp.MustCompile(`(?i)\b(?:mysql|postgres(?:ql)?|mongodb(?:\+srv)?)://[^\s"'<>]+:[^\s"'<>]+@[^\s"'<>]+`)},
	{"sensitive-data-api-key", "API key", finding.SeverityHigh,
		regexp.MustCompile(`(?i)\b(?:api[_-]?key|apikey|api[_-]?secret)["'\s:=]+["']?[A-Za-z0-9_\-]{20,}`)},
	{"sensitive-data-ssn", "Social security number", finding.SeverityHigh,
		regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{"sensitive-data-credit-card", "Credit card number", finding.SeverityHigh,
		regexp.MustCompile(`\b(?:4\d{3}|5[1-5]\d{2}|3[47]\d{2}|6011)[ -]?\d{4}[ -]?\d{4}[ -]?\d{1,4}\b`)},
}

// exposedPaths are probed directly against the site root; any of these
// answering with content is an exposure regardless of page links.
var exposedPaths = []string{
	"/.env",
	"/.git/config",
	"/config.php.bak",
	"/backup.sql",
	"/phpinfo.php",
	"/.htpasswd",
	"/wp-config.php.bak",
	"/server-status",
}

// checkSensitiveData scans crawled bodies against the pattern catalog and
// probes the fixed list of commonly exposed paths.
func checkSensitiveData(ctx context.Context, crawl *CrawlResult, cc *CheckContext) []finding.Finding {
	var findings []finding.Finding

	// passive pass over what the crawler already fetched
	for _, spec := range sensitivePatterns {
		var evidence []string
		for _, page := range crawl.Pages {
			if page.HTML == "" {
				continue
			}
			if match := spec.pattern.FindString(page.HTML); match != "" {
				evidence = append(evidence, fmt.Sprintf("%s: %s", page.URL, redact(match)))
			}
		}
		if len(evidence) == 0 {
			continue
		}
		findings = append(findings, finding.Finding{
			ID:          spec.id,
			Name:        spec.name + " exposed in page content",
			Severity:    spec.severity,
			Description: fmt.Sprintf("%s material appears in %d crawled response(s).", spec.name, len(evidence)),
			Evidence:    summarizeURLs(evidence),
			Remediation: "Remove secrets from served content and rotate any exposed credentials.",
		})
	}

	// active pass over the fixed exposure paths
	if crawl.BaseURL != nil && cc.Client != nil {
		for _, path := range exposedPaths {
			if ctx.Err() != nil {
				break
			}
			target := crawl.BaseURL.ResolveReference(&url.URL{Path: path}).String()
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
			if err != nil {
				continue
			}
			resp, err := cc.Client.Do(req)
			if err != nil {
				continue
			}
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()

			if resp.StatusCode == http.StatusOK && len(strings.TrimSpace(string(body))) > 0 {
				findings = append(findings, finding.Finding{
					ID:          "exposed-path" + strings.ReplaceAll(path, "/", "-"),
					Name:        "Commonly sensitive path accessible: " + path,
					Severity:    finding.SeverityHigh,
					Description: fmt.Sprintf("%s is directly accessible and returned content.", path),
					Evidence:    fmt.Sprintf("GET %s -> 200 (%d bytes)", target, len(body)),
					Remediation: "Block direct access to configuration, VCS and backup files.",
				})
			}
		}
	}

	return findings
}

// redact keeps enough of a match to identify it without reproducing the
// secret.
func redact(match string) string {
	if len(match) <= 8 {
		return match[:1] + "…"
	}
	return match[:4] + "…" + match[len(match)-4:]
}
