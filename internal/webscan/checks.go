package webscan

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sentrascan/sentra/internal/finding"
	errs "github.com/sentrascan/sentra/internal/shared/errors"
)

// CheckContext carries the shared collaborators a check may use for
// active probing.
type CheckContext struct {
	Client  *http.Client
	Logger  *zap.SugaredLogger
	Timeout time.Duration
}

// CheckFunc inspects the accumulated crawl results and returns findings.
// Checks are independent; a failing check is logged and skipped, never
// aborting the scan.
type CheckFunc func(ctx context.Context, crawl *CrawlResult, cc *CheckContext) []finding.Finding

// checkRegistry is the closed set of check names. Unknown names are
// rejected at configuration-parse time.
var checkRegistry = map[string]CheckFunc{
	"security-headers":  checkSecurityHeaders,
	"cookie-flags":      checkCookieFlags,
	"mixed-content":     checkMixedContent,
	"reflected-params":  checkReflectedParams,
	"xss":               checkXSS,
	"csrf":              checkCSRF,
	"sql-injection":     checkSQLInjection,
	"lfi":               checkLFI,
	"sensitive-data":    checkSensitiveData,
	"open-redirect":     checkOpenRedirect,
	"outdated-software": checkOutdatedSoftware,
}

// checkOrder fixes execution order so scans are deterministic. Passive
// checks run before active probes.
var checkOrder = []string{
	"security-headers",
	"cookie-flags",
	"mixed-content",
	"reflected-params",
	"outdated-software",
	"sensitive-data",
	"csrf",
	"xss",
	"sql-injection",
	"lfi",
	"open-redirect",
}

// ResolveChecks validates the requested check names and returns them in
// canonical execution order. An empty request selects every check.
func ResolveChecks(names []string) ([]string, error) {
	if len(names) == 0 {
		return append([]string(nil), checkOrder...), nil
	}

	requested := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := checkRegistry[name]; !ok {
			return nil, fmt.Errorf("%w: %q", errs.ErrUnknownCheck, name)
		}
		requested[name] = true
	}

	ordered := make([]string, 0, len(requested))
	for _, name := range checkOrder {
		if requested[name] {
			ordered = append(ordered, name)
		}
	}
	return ordered, nil
}

// CheckNames lists every registered check in execution order.
func CheckNames() []string {
	return append([]string(nil), checkOrder...)
}
