package webscan

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sentrascan/sentra/internal/finding"
)

// softwareCutoffs lists server-side products with the oldest version
// still considered maintained. Anything below the cutoff is flagged.
var softwareCutoffs = []struct {
	product string
	header  string
	pattern *regexp.Regexp
	minimum string
}{
	{"apache", "Server", regexp.MustCompile(`(?i)apache/([\d.]+)`), "2.4"},
	{"nginx", "Server", regexp.MustCompile(`(?i)nginx/([\d.]+)`), "1.18"},
	{"php", "X-Powered-By", regexp.MustCompile(`(?i)php/([\d.]+)`), "7.4"},
	{"iis", "Server", regexp.MustCompile(`(?i)microsoft-iis/([\d.]+)`), "10.0"},
}

// jqueryVersionPattern catches version strings in script src attributes
// and in the jQuery banner comment some bundles embed.
var jqueryVersionPattern = regexp.MustCompile(`(?i)jquery[.-]([\d]+\.[\d]+(?:\.[\d]+)?)(?:\.min)?\.js`)

const jqueryMinimum = "3.0"

// checkOutdatedSoftware parses version banners from response headers and
// well-known client-side library references.
func checkOutdatedSoftware(_ context.Context, crawl *CrawlResult, _ *CheckContext) []finding.Finding {
	var findings []finding.Finding
	flagged := make(map[string]bool)

	for _, page := range crawl.Pages {
		for _, spec := range softwareCutoffs {
			value := page.Headers.Get(spec.header)
			if value == "" {
				continue
			}
			m := spec.pattern.FindStringSubmatch(value)
			if m == nil {
				continue
			}
			version := m[1]
			id := "outdated-software-" + spec.product
			if flagged[id] || compareVersions(version, spec.minimum) >= 0 {
				continue
			}
			flagged[id] = true
			findings = append(findings, finding.Finding{
				ID:          id,
				Name:        fmt.Sprintf("Outdated %s version %s", spec.product, version),
				Severity:    finding.SeverityMedium,
				Description: fmt.Sprintf("The %s header advertises %s %s, below the maintained %s line.", spec.header, spec.product, version, spec.minimum),
				Evidence:    fmt.Sprintf("%s: %s (%s)", spec.header, value, page.URL),
				Remediation: fmt.Sprintf("Upgrade %s to a supported release and suppress version banners.", spec.product),
			})
		}

		if !flagged["outdated-software-jquery"] && page.HTML != "" {
			if m := jqueryVersionPattern.FindStringSubmatch(page.HTML); m != nil {
				if compareVersions(m[1], jqueryMinimum) < 0 {
					flagged["outdated-software-jquery"] = true
					findings = append(findings, finding.Finding{
						ID:          "outdated-software-jquery",
						Name:        "Outdated jQuery version " + m[1],
						Severity:    finding.SeverityLow,
						Description: fmt.Sprintf("The page loads jQuery %s, below the maintained %s line.", m[1], jqueryMinimum),
						Evidence:    fmt.Sprintf("jquery-%s referenced on %s", m[1], page.URL),
						Remediation: "Upgrade jQuery to a current 3.x release.",
					})
				}
			}
		}
	}

	return findings
}

// compareVersions compares dotted numeric versions segment by segment.
// Missing segments compare as zero, so "2.4" equals "2.4.0".
func compareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		av, bv := 0, 0
		if i < len(as) {
			av, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bv, _ = strconv.Atoi(bs[i])
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}
