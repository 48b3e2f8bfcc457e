package webscan

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/sentrascan/sentra/internal/finding"
)

// securityHeaderCatalog is the fixed set of response headers audited on
// every crawled page, each with its own severity.
var securityHeaderCatalog = []struct {
	header   string
	severity finding.Severity
	remedy   string
}{
	{"Strict-Transport-Security", finding.SeverityMedium, "Add 'Strict-Transport-Security: max-age=31536000; includeSubDomains'"},
	{"Content-Security-Policy", finding.SeverityMedium, "Define a Content-Security-Policy appropriate for the application"},
	{"X-Frame-Options", finding.SeverityMedium, "Add 'X-Frame-Options: DENY' or 'SAMEORIGIN'"},
	{"X-Content-Type-Options", finding.SeverityLow, "Add 'X-Content-Type-Options: nosniff'"},
	{"Referrer-Policy", finding.SeverityLow, "Add 'Referrer-Policy: strict-origin-when-cross-origin'"},
	{"Permissions-Policy", finding.SeverityLow, "Add 'Permissions-Policy' to limit browser features"},
	{"X-XSS-Protection", finding.SeverityInfo, "Add 'X-XSS-Protection: 0' and rely on CSP instead"},
}

// checkSecurityHeaders audits every crawled page against the header
// catalog. One finding per missing header per affected URL set.
func checkSecurityHeaders(_ context.Context, crawl *CrawlResult, _ *CheckContext) []finding.Finding {
	missing := make(map[string][]string) // header -> affected urls

	for _, page := range crawl.Pages {
		if page.Headers == nil {
			continue
		}
		for _, spec := range securityHeaderCatalog {
			if spec.header == "Strict-Transport-Security" && !strings.HasPrefix(page.URL, "https://") {
				continue // HSTS only applies to HTTPS responses
			}
			if page.Headers.Get(spec.header) == "" {
				missing[spec.header] = append(missing[spec.header], page.URL)
			}
		}
	}

	var findings []finding.Finding
	for _, spec := range securityHeaderCatalog {
		urls, ok := missing[spec.header]
		if !ok {
			continue
		}
		findings = append(findings, finding.Finding{
			ID:          "header-missing-" + strings.ToLower(spec.header),
			Name:        fmt.Sprintf("Missing %s header", spec.header),
			Severity:    spec.severity,
			Description: fmt.Sprintf("The %s response header is not set on %d page(s).", spec.header, len(urls)),
			Evidence:    summarizeURLs(urls),
			Remediation: spec.remedy,
		})
	}
	return findings
}

// sessionCookiePattern marks cookies whose name suggests session or auth
// use; missing flags on those are more severe.
var sessionCookiePattern = regexp.MustCompile(`(?i)(sess|auth|token|login|jwt|sid)`)

func checkCookieFlags(_ context.Context, crawl *CrawlResult, _ *CheckContext) []finding.Finding {
	type cookieIssue struct {
		urls    []string
		session bool
	}
	issues := map[string]*cookieIssue{} // "flag|cookie-name" -> issue

	record := func(flag, name, pageURL string, session bool) {
		key := flag + "|" + name
		issue, ok := issues[key]
		if !ok {
			issue = &cookieIssue{session: session}
			issues[key] = issue
		}
		issue.urls = append(issue.urls, pageURL)
	}

	for _, page := range crawl.Pages {
		https := strings.HasPrefix(page.URL, "https://")
		for _, cookie := range page.Cookies {
			session := sessionCookiePattern.MatchString(cookie.Name)
			if https && !cookie.Secure {
				record("secure", cookie.Name, page.URL, session)
			}
			if !cookie.HttpOnly {
				record("httponly", cookie.Name, page.URL, session)
			}
			if cookie.SameSite == 0 { // attribute absent
				record("samesite", cookie.Name, page.URL, session)
			}
		}
	}

	flagDetail := map[string]struct {
		base    finding.Severity
		session finding.Severity
		label   string
		remedy  string
	}{
		"secure":   {finding.SeverityMedium, finding.SeverityHigh, "Secure", "Set the Secure flag so the cookie is never sent over plaintext HTTP."},
		"httponly": {finding.SeverityLow, finding.SeverityMedium, "HttpOnly", "Set HttpOnly so scripts cannot read the cookie."},
		"samesite": {finding.SeverityLow, finding.SeverityMedium, "SameSite", "Set SameSite=Lax or Strict to limit cross-site sending."},
	}

	var findings []finding.Finding
	for key, issue := range issues {
		flag, name, _ := strings.Cut(key, "|")
		detail := flagDetail[flag]
		severity := detail.base
		kind := "cookie"
		if issue.session {
			severity = detail.session
			kind = "session cookie"
		}
		findings = append(findings, finding.Finding{
			ID:          "cookie-missing-" + flag,
			Name:        fmt.Sprintf("Cookie %q lacks the %s flag", name, detail.label),
			Severity:    severity,
			Description: fmt.Sprintf("The %s %q is set without the %s attribute.", kind, name, detail.label),
			Evidence:    summarizeURLs(issue.urls),
			Remediation: detail.remedy,
		})
	}
	return findings
}

var resourceURLPattern = regexp.MustCompile(`(?i)(?:src|href)\s*=\s*["'](http://[^"']+)["']`)

// checkMixedContent flags plaintext HTTP resources embedded in HTTPS pages.
func checkMixedContent(_ context.Context, crawl *CrawlResult, _ *CheckContext) []finding.Finding {
	var evidence []string
	for _, page := range crawl.Pages {
		if !strings.HasPrefix(page.URL, "https://") || page.HTML == "" {
			continue
		}
		for _, m := range resourceURLPattern.FindAllStringSubmatch(page.HTML, -1) {
			evidence = append(evidence, fmt.Sprintf("%s loads %s", page.URL, m[1]))
		}
	}
	if len(evidence) == 0 {
		return nil
	}
	return []finding.Finding{{
		ID:          "tls-mixed-content",
		Name:        "Mixed content on HTTPS pages",
		Severity:    finding.SeverityMedium,
		Description: fmt.Sprintf("%d HTTP resource reference(s) were found on HTTPS pages.", len(evidence)),
		Evidence:    summarizeURLs(evidence),
		Remediation: "Serve all embedded resources over HTTPS.",
	}}
}

// checkReflectedParams flags pages that echo URL query values verbatim
// into their markup, a precondition for reflected XSS.
func checkReflectedParams(_ context.Context, crawl *CrawlResult, _ *CheckContext) []finding.Finding {
	var evidence []string
	for _, page := range crawl.Pages {
		if page.HTML == "" {
			continue
		}
		u, err := url.Parse(page.URL)
		if err != nil {
			continue
		}
		for param, values := range u.Query() {
			for _, value := range values {
				if len(value) >= 4 && strings.Contains(page.HTML, value) {
					evidence = append(evidence, fmt.Sprintf("%s reflects %s=%q", page.URL, param, value))
				}
			}
		}
	}
	if len(evidence) == 0 {
		return nil
	}
	return []finding.Finding{{
		ID:          "reflected-parameter",
		Name:        "URL parameters reflected into page markup",
		Severity:    finding.SeverityMedium,
		Description: fmt.Sprintf("%d query value(s) appear verbatim in response markup.", len(evidence)),
		Evidence:    summarizeURLs(evidence),
		Remediation: "Encode user input before rendering it into HTML.",
	}}
}

// summarizeURLs caps the evidence list so findings stay readable.
func summarizeURLs(urls []string) string {
	const maxShown = 5
	if len(urls) <= maxShown {
		return strings.Join(urls, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(urls[:maxShown], ", "), len(urls)-maxShown)
}
