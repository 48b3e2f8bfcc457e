package webscan

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sentrascan/sentra/internal/finding"
)

// xssProbePayload is reflected unescaped only when the target neither
// encodes nor strips markup.
const xssProbePayload = `<script>alert('sentra-xss')</script>`

// checkXSS injects the probe payload into one text field per GET form and
// flags responses that reflect it unescaped.
func checkXSS(ctx context.Context, crawl *CrawlResult, cc *CheckContext) []finding.Finding {
	var findings []finding.Finding

	for _, form := range crawl.Forms {
		if form.Method != http.MethodGet {
			continue
		}
		field := firstTextField(form)
		if field == "" {
			continue
		}

		body, _, err := submitGet(ctx, cc.Client, form.Action, url.Values{field: {xssProbePayload}})
		if err != nil {
			continue
		}
		if strings.Contains(body, xssProbePayload) {
			findings = append(findings, finding.Finding{
				ID:          "xss-reflected",
				Name:        "Reflected cross-site scripting",
				Severity:    finding.SeverityHigh,
				Description: fmt.Sprintf("Form %q on %s reflects script input unescaped via field %q.", form.ID, form.PageURL, field),
				Evidence:    fmt.Sprintf("payload %q reflected verbatim from %s", xssProbePayload, form.Action),
				Remediation: "HTML-encode user input before rendering; set a restrictive Content-Security-Policy.",
			})
		}
	}
	return findings
}

// sqlErrorFingerprints identify database engines leaking through error
// pages after a break-out payload.
var sqlErrorFingerprints = []struct {
	pattern string
	engine  string
}{
	{"you have an error in your sql syntax", "MySQL"},
	{"warning: mysql", "MySQL"},
	{"unclosed quotation mark after the character string", "SQL Server"},
	{"microsoft ole db provider for sql server", "SQL Server"},
	{"pg::syntaxerror", "PostgreSQL"},
	{"pg_query()", "PostgreSQL"},
	{"syntax error at or near", "PostgreSQL"},
	{"ora-00933", "Oracle"},
	{"ora-01756", "Oracle"},
	{"sqlite3::sqlexception", "SQLite"},
	{"sqlite_error", "SQLite"},
	{"sql syntax error", "generic SQL"},
}

var sqlProbePayloads = []string{
	`'`,
	`"`,
	`' OR '1'='1`,
	`1' AND '1'='2`,
	`'; --`,
}

// sqlParamPattern selects the fields worth probing: identifiers and
// search inputs are where injection typically lands.
func isSQLProbeField(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range []string{"id", "search", "query", "q", "user", "name", "cat", "item", "order"} {
		if lower == marker || strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// checkSQLInjection sends break-out payloads through form fields and URL
// parameters, flagging database error fingerprints in responses.
func checkSQLInjection(ctx context.Context, crawl *CrawlResult, cc *CheckContext) []finding.Finding {
	var findings []finding.Finding
	seen := map[string]bool{}

	probe := func(action, field, location string) {
		for _, payload := range sqlProbePayloads {
			body, _, err := submitGet(ctx, cc.Client, action, url.Values{field: {payload}})
			if err != nil {
				continue
			}
			lower := strings.ToLower(body)
			for _, fp := range sqlErrorFingerprints {
				if !strings.Contains(lower, fp.pattern) {
					continue
				}
				key := action + "|" + field
				if seen[key] {
					return
				}
				seen[key] = true
				findings = append(findings, finding.Finding{
					ID:          "sql-injection",
					Name:        "SQL injection",
					Severity:    finding.SeverityCritical,
					Description: fmt.Sprintf("Parameter %q at %s triggers a %s error with payload %q.", field, location, fp.engine, payload),
					Evidence:    fmt.Sprintf("response matched %s fingerprint %q", fp.engine, fp.pattern),
					Remediation: "Use parameterized queries; never interpolate user input into SQL.",
				})
				return
			}
		}
	}

	for _, form := range crawl.Forms {
		for _, field := range form.Fields {
			if field.Type == "hidden" || field.Type == "submit" || !isSQLProbeField(field.Name) {
				continue
			}
			probe(form.Action, field.Name, form.PageURL)
		}
	}

	for _, page := range crawl.Pages {
		u, err := url.Parse(page.URL)
		if err != nil {
			continue
		}
		base := *u
		base.RawQuery = ""
		for param := range u.Query() {
			if isSQLProbeField(param) {
				probe(base.String(), param, page.URL)
			}
		}
	}
	return findings
}

// lfi traversal payloads and the fingerprints proving a file was read.
var lfiPayloads = []string{
	"../../../../etc/passwd",
	"....//....//....//etc/passwd",
	"/etc/passwd",
	"..\\..\\..\\..\\windows\\win.ini",
	"C:\\windows\\win.ini",
}

var lfiFingerprints = []string{
	"root:x:0:0:",
	"daemon:x:",
	"[extensions]",
	"[fonts]",
}

func isLFIProbeField(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range []string{"file", "path", "page", "dir", "view", "template", "include", "doc"} {
		if lower == marker || strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// checkLFI sends path-traversal payloads through file-looking parameters.
func checkLFI(ctx context.Context, crawl *CrawlResult, cc *CheckContext) []finding.Finding {
	var findings []finding.Finding
	seen := map[string]bool{}

	probe := func(action, field, location string) {
		for _, payload := range lfiPayloads {
			body, _, err := submitGet(ctx, cc.Client, action, url.Values{field: {payload}})
			if err != nil {
				continue
			}
			for _, fp := range lfiFingerprints {
				if !strings.Contains(body, fp) {
					continue
				}
				key := action + "|" + field
				if seen[key] {
					return
				}
				seen[key] = true
				findings = append(findings, finding.Finding{
					ID:          "lfi-path-traversal",
					Name:        "Local file inclusion",
					Severity:    finding.SeverityHigh,
					Description: fmt.Sprintf("Parameter %q at %s serves local file contents for payload %q.", field, location, payload),
					Evidence:    fmt.Sprintf("response contained fingerprint %q", fp),
					Remediation: "Resolve file parameters against an allow-list; reject path separators.",
				})
				return
			}
		}
	}

	for _, form := range crawl.Forms {
		for _, field := range form.Fields {
			if isLFIProbeField(field.Name) {
				probe(form.Action, field.Name, form.PageURL)
			}
		}
	}
	for _, page := range crawl.Pages {
		u, err := url.Parse(page.URL)
		if err != nil {
			continue
		}
		base := *u
		base.RawQuery = ""
		for param := range u.Query() {
			if isLFIProbeField(param) {
				probe(base.String(), param, page.URL)
			}
		}
	}
	return findings
}

// submitGet issues a GET with the merged query values and returns up to
// maxBodyBytes of the response.
func submitGet(ctx context.Context, client *http.Client, action string, values url.Values) (string, *http.Response, error) {
	u, err := url.Parse(action)
	if err != nil {
		return "", nil, err
	}
	query := u.Query()
	for key, vals := range values {
		for _, v := range vals {
			query.Set(key, v)
		}
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", resp, err
	}
	return string(body), resp, nil
}

func firstTextField(form FormDescriptor) string {
	for _, field := range form.Fields {
		switch field.Type {
		case "text", "search", "email", "url", "":
			return field.Name
		}
	}
	return ""
}
