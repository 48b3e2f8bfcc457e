package webscan

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sentrascan/sentra/internal/finding"
)

// redirectParamNames are the query parameters applications conventionally
// use to carry a post-action destination.
var redirectParamNames = []string{
	"redirect", "redirect_to", "redirect_url", "url", "next", "return",
	"returnurl", "return_url", "goto", "dest", "destination", "continue",
}

// redirectProbeHost is the external domain injected into redirect
// parameters; a 3xx Location pointing there proves the open redirect.
const redirectProbeHost = "evil.example.org"

var redirectProbePayloads = []string{
	"https://" + redirectProbeHost + "/",
	"//" + redirectProbeHost + "/",
}

func isRedirectParam(name string) bool {
	lower := strings.ToLower(name)
	for _, known := range redirectParamNames {
		if lower == known {
			return true
		}
	}
	return false
}

// checkOpenRedirect injects external destinations into known redirect
// parameter names across crawled URLs and forms, flagging servers that
// answer with a 3xx to the injected domain.
func checkOpenRedirect(ctx context.Context, crawl *CrawlResult, cc *CheckContext) []finding.Finding {
	// redirects must be observed, not followed
	client := noRedirectClient(cc.Client)

	var findings []finding.Finding
	seen := map[string]bool{}

	probe := func(action, param, location string) {
		if seen[action+"|"+param] {
			return
		}
		for _, payload := range redirectProbePayloads {
			u, err := url.Parse(action)
			if err != nil {
				return
			}
			query := u.Query()
			query.Set(param, payload)
			u.RawQuery = query.Encode()

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
			if err != nil {
				continue
			}
			resp, err := client.Do(req)
			if err != nil {
				continue
			}
			loc := resp.Header.Get("Location")
			resp.Body.Close()

			if resp.StatusCode >= 300 && resp.StatusCode < 400 && locationHostMatches(loc, redirectProbeHost) {
				seen[action+"|"+param] = true
				findings = append(findings, finding.Finding{
					ID:          "open-redirect",
					Name:        "Open redirect",
					Severity:    finding.SeverityMedium,
					Description: fmt.Sprintf("Parameter %q at %s redirects to an attacker-chosen domain.", param, location),
					Evidence:    fmt.Sprintf("%d redirect to %q for payload %q", resp.StatusCode, loc, payload),
					Remediation: "Validate redirect destinations against an allow-list of local paths.",
				})
				return
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
			if isRedirectParam(param) {
				probe(base.String(), param, page.URL)
			}
		}
	}
	for _, form := range crawl.Forms {
		for _, field := range form.Fields {
			if isRedirectParam(field.Name) {
				probe(form.Action, field.Name, form.PageURL)
			}
		}
	}
	return findings
}

func locationHostMatches(location, host string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Hostname(), host)
}

// noRedirectClient clones the scan client with redirect following off.
func noRedirectClient(base *http.Client) *http.Client {
	clone := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	if base != nil {
		clone.Timeout = base.Timeout
		clone.Transport = base.Transport
		clone.Jar = base.Jar
	}
	return clone
}
