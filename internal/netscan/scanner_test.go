package netscan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sentrascan/sentra/internal/scan"
	errs "github.com/sentrascan/sentra/internal/shared/errors"
)

// stubProbe marks the given addresses up and everything else down.
func stubProbe(upHosts ...string) func(ctx context.Context, ip string) ProbeResult {
	up := make(map[string]bool, len(upHosts))
	for _, h := range upHosts {
		up[h] = true
	}
	return func(_ context.Context, ip string) ProbeResult {
		if up[ip] {
			return ProbeResult{IP: ip, Status: HostUp, LatencyMS: 1.2, TTL: 64}
		}
		return ProbeResult{IP: ip, Status: HostDown}
	}
}

func TestScanCIDRTwoUpTwoDown(t *testing.T) {
	s := NewScanner(Options{Concurrency: 4, Timeout: time.Second, PingEnabled: true, SkipPorts: true}, nil, nil)
	s.probeOverride = stubProbe("10.0.0.1", "10.0.0.2")

	result, err := s.Scan(context.Background(), "10.0.0.0/30")
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	if len(result.Probes) != 2 {
		t.Errorf("probed %d hosts, want 2 (/30 usable hosts)", len(result.Probes))
	}
	if result.ActiveHosts != 2 {
		t.Errorf("ActiveHosts = %d, want 2", result.ActiveHosts)
	}
	if result.TotalAssetsDiscovered != 2 {
		t.Errorf("TotalAssetsDiscovered = %d, want 2", result.TotalAssetsDiscovered)
	}
	for _, asset := range result.Assets {
		if asset.DiscoveryMethod != "network" {
			t.Errorf("asset %s DiscoveryMethod = %q, want network", asset.IP, asset.DiscoveryMethod)
		}
	}
}

func TestScanIdempotentLiveness(t *testing.T) {
	run := func() map[string]HostStatus {
		s := NewScanner(Options{Concurrency: 8, Timeout: time.Second, SkipPorts: true}, nil, nil)
		s.probeOverride = stubProbe("192.168.5.3", "192.168.5.9")
		result, err := s.Scan(context.Background(), "192.168.5.0/28")
		if err != nil {
			t.Fatalf("Scan error: %v", err)
		}
		statuses := make(map[string]HostStatus, len(result.Probes))
		for _, p := range result.Probes {
			statuses[p.IP] = p.Status
		}
		return statuses
	}

	first := run()
	second := run()
	if len(first) != len(second) {
		t.Fatalf("probe counts differ: %d vs %d", len(first), len(second))
	}
	for ip, status := range first {
		if second[ip] != status {
			t.Errorf("host %s status changed between identical scans: %s vs %s", ip, status, second[ip])
		}
	}
}

func TestScanSingleFlight(t *testing.T) {
	s := NewScanner(Options{Concurrency: 1, Timeout: time.Second, SkipPorts: true}, nil, nil)

	started := make(chan struct{}, 1)
	release := make(chan struct{})
	s.probeOverride = func(_ context.Context, ip string) ProbeResult {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return ProbeResult{IP: ip, Status: HostDown}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = s.Scan(context.Background(), "10.1.0.1")
	}()

	<-started
	_, err := s.Scan(context.Background(), "10.1.0.2")
	if !errors.Is(err, errs.ErrScanInProgress) {
		t.Errorf("concurrent Scan error = %v, want ErrScanInProgress", err)
	}

	close(release)
	wg.Wait()

	// the instance is reusable after the first scan finishes
	s.probeOverride = stubProbe()
	if _, err := s.Scan(context.Background(), "10.1.0.3"); err != nil {
		t.Errorf("Scan after completion failed: %v", err)
	}
}

func TestScanInvalidTarget(t *testing.T) {
	s := NewScanner(Options{}, nil, nil)
	if _, err := s.Scan(context.Background(), "10.0.0.0/99"); !errors.Is(err, errs.ErrInvalidCIDR) {
		t.Errorf("Scan(bad cidr) error = %v, want ErrInvalidCIDR", err)
	}
	if _, err := s.Scan(context.Background(), ""); !errors.Is(err, errs.ErrEmptyTarget) {
		t.Errorf("Scan(empty) error = %v, want ErrEmptyTarget", err)
	}
	if !errors.Is(func() error { _, err := s.Scan(context.Background(), "x y"); return err }(), errs.ErrInvalidTarget) {
		t.Error("Scan(malformed host) should fail with ErrInvalidTarget")
	}
}

func TestScanAbortMidway(t *testing.T) {
	s := NewScanner(Options{Concurrency: 1, Timeout: time.Second, SkipPorts: true}, nil, nil)

	var probed int
	var mu sync.Mutex
	s.probeOverride = func(_ context.Context, ip string) ProbeResult {
		mu.Lock()
		probed++
		n := probed
		mu.Unlock()
		if n == 2 {
			s.Abort()
		}
		return ProbeResult{IP: ip, Status: HostUp}
	}

	done := make(chan struct{})
	var result *Result
	go func() {
		defer close(done)
		result, _ = s.Scan(context.Background(), "10.2.0.0/24")
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("aborted scan did not return")
	}

	mu.Lock()
	defer mu.Unlock()
	if probed >= 254 {
		t.Errorf("abort did not stop scheduling: %d hosts probed", probed)
	}
	if result == nil {
		t.Fatal("aborted scan returned nil result")
	}
	var recorded bool
	for _, e := range result.Details.Errors {
		if e == errs.ErrScanAborted.Error() {
			recorded = true
		}
	}
	if !recorded {
		t.Errorf("Details.Errors = %v, want abort recorded", result.Details.Errors)
	}
}

func TestScanEmitsEvents(t *testing.T) {
	var mu sync.Mutex
	var kinds []scan.EventKind
	listener := func(e scan.Event) {
		mu.Lock()
		kinds = append(kinds, e.Kind)
		mu.Unlock()
	}

	s := NewScanner(Options{Concurrency: 4, Timeout: time.Second, SkipPorts: true}, nil, listener)
	s.probeOverride = stubProbe("10.3.0.1")

	if _, err := s.Scan(context.Background(), "10.3.0.0/30"); err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	var sawProgress, sawCompleted bool
	for _, k := range kinds {
		switch k {
		case scan.EventProgress:
			sawProgress = true
		case scan.EventCompleted:
			sawCompleted = true
		}
	}
	if !sawProgress {
		t.Error("no progress events delivered")
	}
	if !sawCompleted {
		t.Error("no completed event delivered")
	}
}
