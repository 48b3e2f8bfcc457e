// Package webscan implements the authenticated web application audit:
// breadth-first crawling, form harvesting, and a fixed registry of
// passive and active security checks.
package webscan

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"time"

	"go.uber.org/zap"

	"github.com/sentrascan/sentra/internal/finding"
	"github.com/sentrascan/sentra/internal/scan"
	errs "github.com/sentrascan/sentra/internal/shared/errors"
)

// State names the scanner's current phase. Observable through State() for
// progress display; transitions are one-directional per scan.
type State string

const (
	StateIdle           State = "idle"
	StateAuthenticating State = "authenticating"
	StateCrawling       State = "crawling"
	StateChecking       State = "checking"
	StateCompleted      State = "completed"
	StateError          State = "error"
)

// Options configures a web scan.
type Options struct {
	MaxPages    int
	MaxDepth    int
	Timeout     time.Duration
	Checks      []string // empty means every registered check
	Credentials *Credentials
}

// ScanDetails is the per-run side channel for recoverable errors and
// timing. Errors here never abort a scan.
type ScanDetails struct {
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	Errors      []string  `json:"errors,omitempty"`
}

// Result is the web scan's plain-data output tree.
type Result struct {
	Target       string            `json:"target"`
	Auth         AuthResult        `json:"auth"`
	Pages        []CrawledPage     `json:"pages"`
	Forms        []FormDescriptor  `json:"forms"`
	PagesCrawled int               `json:"pages_crawled"`
	FormsFound   int               `json:"forms_found"`
	ChecksRun    []string          `json:"checks_run"`
	Findings     []finding.Finding `json:"findings"`
	Details      ScanDetails       `json:"scan_details"`
}

// Scanner runs the full web audit pipeline. One scan per instance at a
// time; Abort stops the crawl and skips remaining checks.
type Scanner struct {
	scan.Lifecycle

	opts    Options
	logger  *zap.SugaredLogger
	emitter *scan.Emitter
	state   State
}

// NewScanner builds a web scanner. The listener may be nil.
func NewScanner(opts Options, logger *zap.SugaredLogger, listener scan.Listener) *Scanner {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Scanner{
		opts:    opts,
		logger:  logger,
		emitter: scan.NewEmitter(listener),
		state:   StateIdle,
	}
}

// State reports the phase of the scan in flight, or the last terminal
// phase once the scan has finished.
func (s *Scanner) State() State {
	return s.state
}

// Abort requests cooperative cancellation and notifies the subscriber.
func (s *Scanner) Abort() {
	if s.Running() {
		s.Lifecycle.Abort()
		s.emitter.Aborted()
	}
}

// Scan audits target: optional authentication bootstrap, bounded crawl,
// then the selected checks in fixed order. Findings come back sorted by
// descending severity.
//
// Invalid target syntax and unknown check names fail immediately;
// per-page and per-check failures are recorded in the result's details
// and never abort the scan.
func (s *Scanner) Scan(ctx context.Context, target string) (*Result, error) {
	if err := s.Begin(); err != nil {
		return nil, err
	}
	defer s.End()
	s.emitter.Reset()

	checks, err := ResolveChecks(s.opts.Checks)
	if err != nil {
		s.state = StateError
		return nil, err
	}

	result := &Result{
		Target:    target,
		ChecksRun: checks,
		Details:   ScanDetails{StartedAt: time.Now().UTC()},
	}

	jar, _ := cookiejar.New(nil)
	client := NewHTTPClient(s.opts.Timeout, jar)

	s.logger.Infow("web scan started", "target", target, "checks", len(checks))

	if s.opts.Credentials != nil && s.opts.Credentials.Username != "" {
		s.state = StateAuthenticating
		auth := &Authenticator{Client: client, Logger: s.logger}
		result.Auth = auth.Authenticate(ctx, target, s.opts.Credentials)
		if result.Auth.Attempted && !result.Auth.Authenticated {
			result.Details.Errors = append(result.Details.Errors,
				fmt.Sprintf("authentication failed: %s", result.Auth.Message))
			s.logger.Warnw("authentication failed, continuing unauthenticated",
				"target", target, "reason", result.Auth.Message)
		}
	}

	s.state = StateCrawling
	crawler := &Crawler{
		MaxPages: s.opts.MaxPages,
		MaxDepth: s.opts.MaxDepth,
		Timeout:  s.opts.Timeout,
		Client:   client,
		Logger:   s.logger,
	}
	crawl, err := crawler.Crawl(ctx, target, &s.Lifecycle, s.emitter)
	if err != nil {
		s.state = StateError
		return nil, err
	}
	result.Pages = crawl.Pages
	result.Forms = crawl.Forms
	result.PagesCrawled = len(crawl.Pages)
	result.FormsFound = len(crawl.Forms)
	result.Details.Errors = append(result.Details.Errors, crawl.Errors...)

	s.state = StateChecking
	cc := &CheckContext{Client: client, Logger: s.logger, Timeout: s.opts.Timeout}
	for i, name := range checks {
		if s.Aborted() || ctx.Err() != nil {
			break
		}
		s.emitter.Progress("checking", i+1, len(checks), name)
		result.Findings = append(result.Findings, s.runCheck(ctx, name, crawl, cc, result)...)
	}

	finding.Sort(result.Findings)
	result.Details.CompletedAt = time.Now().UTC()

	if s.Aborted() {
		s.state = StateCompleted
		result.Details.Errors = append(result.Details.Errors, errs.ErrScanAborted.Error())
		s.logger.Infow("web scan aborted", "target", target, "findings", len(result.Findings))
		return result, nil
	}

	s.state = StateCompleted
	s.emitter.Completed()
	s.logger.Infow("web scan completed",
		"target", target,
		"pages", result.PagesCrawled,
		"findings", len(result.Findings))
	return result, nil
}

// runCheck isolates one check. A panicking check is recorded and skipped
// so a single misbehaving probe cannot take down the scan.
func (s *Scanner) runCheck(ctx context.Context, name string, crawl *CrawlResult, cc *CheckContext, result *Result) (findings []finding.Finding) {
	defer func() {
		if r := recover(); r != nil {
			result.Details.Errors = append(result.Details.Errors,
				fmt.Sprintf("check %s panicked: %v", name, r))
			s.logger.Errorw("check panicked", "check", name, "panic", r)
			findings = nil
		}
	}()
	return checkRegistry[name](ctx, crawl, cc)
}
