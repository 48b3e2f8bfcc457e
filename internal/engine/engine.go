// Package engine validates plain-data scan requests, routes them to the
// network or web scanner, and rolls scan output up into compliance
// assessments.
package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sentrascan/sentra/internal/compliance"
	"github.com/sentrascan/sentra/internal/finding"
	"github.com/sentrascan/sentra/internal/netscan"
	"github.com/sentrascan/sentra/internal/scan"
	"github.com/sentrascan/sentra/internal/webscan"
	errs "github.com/sentrascan/sentra/internal/shared/errors"
)

// Kind names the scanner a request was routed to.
type Kind string

const (
	KindNetwork Kind = "network"
	KindWeb     Kind = "web"
)

// Request is the plain-data invocation contract. URL targets route to
// the web scanner, everything else to the network scanner.
type Request struct {
	Target      string               `json:"target"`
	TimeoutMS   int                  `json:"timeout_ms,omitempty"`
	Concurrency int                  `json:"concurrency,omitempty"`
	Ports       string               `json:"ports,omitempty"`
	Checks      []string             `json:"checks,omitempty"`
	Frameworks  []string             `json:"frameworks,omitempty"`
	Credentials *webscan.Credentials `json:"credentials,omitempty"`
	PingEnabled bool                 `json:"ping_enabled,omitempty"`
}

// Result is the aggregate output tree for one request.
type Result struct {
	ScanID      string                            `json:"scan_id"`
	Target      string                            `json:"target"`
	Kind        Kind                              `json:"kind"`
	Network     *netscan.Result                   `json:"network,omitempty"`
	Web         *webscan.Result                   `json:"web,omitempty"`
	Assessments []*compliance.FrameworkAssessment `json:"assessments,omitempty"`
	StartedAt   time.Time                         `json:"started_at"`
	CompletedAt time.Time                         `json:"completed_at"`
}

// Findings returns the flat finding list regardless of routing.
func (r *Result) Findings() []finding.Finding {
	switch {
	case r.Network != nil:
		return r.Network.Findings
	case r.Web != nil:
		return r.Web.Findings
	}
	return nil
}

type aborter interface{ Abort() }

// Engine builds one scanner per request and runs it. Abort forwards to
// whatever scan is currently in flight.
type Engine struct {
	logger   *zap.SugaredLogger
	listener scan.Listener

	mu     sync.Mutex
	active aborter
}

// New builds an engine. The listener may be nil.
func New(logger *zap.SugaredLogger, listener scan.Listener) *Engine {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Engine{logger: logger, listener: listener}
}

// Abort cancels the scan in flight, if any.
func (e *Engine) Abort() {
	e.mu.Lock()
	active := e.active
	e.mu.Unlock()
	if active != nil {
		active.Abort()
	}
}

// Run validates req, executes the routed scan, and assesses the selected
// frameworks against its findings. Validation failures return a typed
// error and no partial result.
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Target) == "" {
		return nil, errs.ErrEmptyTarget
	}
	ports, err := parsePorts(req.Ports)
	if err != nil {
		return nil, err
	}
	for _, id := range req.Frameworks {
		if _, err := compliance.FrameworkByID(id); err != nil {
			return nil, err
		}
	}

	result := &Result{
		ScanID:    uuid.NewString(),
		Target:    req.Target,
		StartedAt: time.Now().UTC(),
	}

	timeout := time.Duration(req.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	if isWebTarget(req.Target) {
		result.Kind = KindWeb
		if _, err := webscan.ResolveChecks(req.Checks); err != nil {
			return nil, err
		}
		result.Web, err = e.runWeb(ctx, req, timeout)
	} else {
		result.Kind = KindNetwork
		result.Network, err = e.runNetwork(ctx, req, timeout, ports)
	}
	if err != nil {
		return nil, err
	}

	if len(req.Frameworks) > 0 {
		result.Assessments, err = compliance.AssessAll(req.Frameworks, result.Findings(), e.evidence(result))
		if err != nil {
			return nil, err
		}
	}

	result.CompletedAt = time.Now().UTC()
	return result, nil
}

func (e *Engine) runNetwork(ctx context.Context, req Request, timeout time.Duration, ports []int) (*netscan.Result, error) {
	scanner := netscan.NewScanner(netscan.Options{
		Concurrency: netscan.ClampConcurrency(req.Concurrency),
		Timeout:     timeout,
		Ports:       ports,
		PingEnabled: req.PingEnabled,
	}, e.logger, e.listener)

	e.setActive(scanner)
	defer e.setActive(nil)
	return scanner.Scan(ctx, req.Target)
}

func (e *Engine) runWeb(ctx context.Context, req Request, timeout time.Duration) (*webscan.Result, error) {
	scanner := webscan.NewScanner(webscan.Options{
		Timeout:     timeout,
		Checks:      req.Checks,
		Credentials: req.Credentials,
	}, e.logger, e.listener)

	e.setActive(scanner)
	defer e.setActive(nil)
	return scanner.Scan(ctx, req.Target)
}

// evidence derives the non-finding observations compliance controls may
// pass on: a confirmed authenticated session, a reachable target.
func (e *Engine) evidence(result *Result) []compliance.Evidence {
	var evidence []compliance.Evidence
	if result.Web != nil && result.Web.Auth.Authenticated {
		evidence = append(evidence, compliance.Evidence{
			Category: "access-control",
			Note:     fmt.Sprintf("authenticated successfully via %s", result.Web.Auth.Method),
		})
	}
	if result.Network != nil && result.Network.ActiveHosts > 0 {
		evidence = append(evidence, compliance.Evidence{
			Category: "network",
			Note:     fmt.Sprintf("%d host(s) reachable and probed", result.Network.ActiveHosts),
		})
	}
	return evidence
}

func (e *Engine) setActive(a aborter) {
	e.mu.Lock()
	e.active = a
	e.mu.Unlock()
}

func isWebTarget(target string) bool {
	lower := strings.ToLower(target)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func parsePorts(spec string) ([]int, error) {
	if spec == "" {
		return nil, nil
	}
	return netscan.ParsePortSpec(spec)
}
