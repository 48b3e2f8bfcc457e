// Package netscan implements network discovery: CIDR expansion, bounded
// reachability probing, TCP port scanning, service and OS fingerprinting,
// and asset classification.
package netscan

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sentrascan/sentra/internal/finding"
	"github.com/sentrascan/sentra/internal/scan"
	errs "github.com/sentrascan/sentra/internal/shared/errors"
)

// Options configures a network scan.
type Options struct {
	Concurrency int
	Timeout     time.Duration
	RateLimit   int
	Ports       []int // empty means DefaultPorts
	PingEnabled bool
	SkipPorts   bool // discovery only
}

// ScanDetails is the per-run side channel for per-unit recoverable errors
// and timing. Errors here never abort a scan.
type ScanDetails struct {
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	Errors      []string  `json:"errors,omitempty"`
}

// Result is the network scan's plain-data output tree.
type Result struct {
	Target                string            `json:"target"`
	Probes                []ProbeResult     `json:"probes"`
	Assets                []*ServiceAsset   `json:"assets"`
	Findings              []finding.Finding `json:"findings"`
	ActiveHosts           int               `json:"active_hosts"`
	TotalAssetsDiscovered int               `json:"total_assets_discovered"`
	Details               ScanDetails       `json:"scan_details"`
}

// Scanner runs the full network probe pipeline. One scan per instance at
// a time; Abort stops scheduling new hosts and ports.
type Scanner struct {
	scan.Lifecycle

	opts    Options
	logger  *zap.SugaredLogger
	emitter *scan.Emitter

	// probeOverride replaces the real host probe in tests.
	probeOverride func(ctx context.Context, ip string) ProbeResult
}

// NewScanner builds a network scanner. The listener may be nil.
func NewScanner(opts Options, logger *zap.SugaredLogger, listener scan.Listener) *Scanner {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Scanner{
		opts:    opts,
		logger:  logger,
		emitter: scan.NewEmitter(listener),
	}
}

// Abort requests cooperative cancellation and notifies the subscriber.
func (s *Scanner) Abort() {
	if s.Running() {
		s.Lifecycle.Abort()
		s.emitter.Aborted()
	}
}

// Scan probes the target (host, IP or CIDR), port-scans reachable hosts,
// runs service and OS detection, classifies assets and derives findings.
//
// Invalid target syntax fails immediately; per-host failures are recorded
// in the result's details and never abort the scan.
func (s *Scanner) Scan(ctx context.Context, target string) (*Result, error) {
	if err := s.Begin(); err != nil {
		return nil, err
	}
	defer s.End()
	s.emitter.Reset()

	hosts, err := ExpandTarget(target)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Target:  target,
		Details: ScanDetails{StartedAt: time.Now().UTC()},
	}

	s.logger.Infow("network scan started", "target", target, "hosts", len(hosts))

	prober := &Prober{
		Concurrency: s.opts.Concurrency,
		Timeout:     s.opts.Timeout,
		RateLimit:   s.opts.RateLimit,
		PingEnabled: s.opts.PingEnabled,
		Logger:      s.logger,
		probeFunc:   s.probeOverride,
	}
	result.Probes = prober.Run(ctx, hosts, &s.Lifecycle, s.emitter)

	for i := range result.Probes {
		probe := &result.Probes[i]
		if probe.Status != HostUp {
			continue
		}
		result.ActiveHosts++

		if s.Aborted() {
			break
		}

		asset := s.buildAsset(ctx, probe)
		result.Assets = append(result.Assets, asset)
		result.Findings = append(result.Findings, FindingsForAsset(asset)...)
	}
	result.TotalAssetsDiscovered = len(result.Assets)

	finding.Sort(result.Findings)
	result.Details.CompletedAt = time.Now().UTC()

	if s.Aborted() {
		result.Details.Errors = append(result.Details.Errors, errs.ErrScanAborted.Error())
		s.logger.Infow("network scan aborted", "target", target, "assets", result.TotalAssetsDiscovered)
		return result, nil
	}

	s.emitter.Completed()
	s.logger.Infow("network scan completed",
		"target", target,
		"active_hosts", result.ActiveHosts,
		"findings", len(result.Findings))
	return result, nil
}

// buildAsset runs the enrichment passes for one live host. Each pass is
// best effort; missing data stays absent.
func (s *Scanner) buildAsset(ctx context.Context, probe *ProbeResult) *ServiceAsset {
	asset := &ServiceAsset{
		IP:              probe.IP,
		Hostname:        probe.Hostname,
		Status:          probe.Status,
		LatencyMS:       probe.LatencyMS,
		AssetType:       AssetUnknown,
		DiscoveryMethod: "network",
	}

	if s.opts.SkipPorts {
		return asset
	}

	portScanner := &PortScanner{
		Concurrency: s.opts.Concurrency,
		Timeout:     s.opts.Timeout,
		Logger:      s.logger,
	}
	asset.Ports = OpenPorts(portScanner.Scan(ctx, probe.IP, s.opts.Ports, &s.Lifecycle, s.emitter))

	var sshBanner, httpServer string
	for i := range asset.Ports {
		if s.Aborted() {
			break
		}
		port := &asset.Ports[i]
		detected := DetectService(ctx, probe.IP, port.Port, s.opts.Timeout)
		if detected.Service != "" {
			port.Service = detected.Service
		}
		port.Banner = detected.Banner
		asset.AddServices(port.Service)

		switch {
		case port.Port == 22:
			sshBanner = detected.Banner
		case webPortNumber(port.Port):
			if httpServer == "" {
				httpServer = detected.Banner
			}
		}
	}

	guess := DetectOS(probe.TTL, sshBanner, httpServer)
	if guess.Name != "unknown" {
		asset.OperatingSystem = guess.Name
		asset.OSConfidence = guess.Confidence
	}
	asset.AssetType = Classify(asset.Services)
	return asset
}

func webPortNumber(port int) bool {
	_, ok := webPorts[port]
	return ok
}
