package netscan

import (
	"context"
	"testing"
	"time"

	"github.com/sentrascan/sentra/internal/scan"
)

func TestClampConcurrency(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, DefaultConcurrency},
		{-5, DefaultConcurrency},
		{1, 1},
		{50, 50},
		{500, 500},
		{501, MaxConcurrency},
		{99999, MaxConcurrency},
	}
	for _, tt := range tests {
		if got := ClampConcurrency(tt.in); got != tt.want {
			t.Errorf("ClampConcurrency(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPingOutputPatterns(t *testing.T) {
	linuxOut := "64 bytes from 10.0.0.1: icmp_seq=1 ttl=64 time=13.5 ms"
	if m := pingLatencyPattern.FindStringSubmatch(linuxOut); len(m) < 2 || m[1] != "13.5" {
		t.Errorf("latency not parsed from linux output: %v", m)
	}
	if m := pingTTLPattern.FindStringSubmatch(linuxOut); len(m) < 2 || m[1] != "64" {
		t.Errorf("ttl not parsed from linux output: %v", m)
	}

	windowsOut := "Reply from 10.0.0.1: bytes=32 time=13ms TTL=56"
	if m := pingLatencyPattern.FindStringSubmatch(windowsOut); len(m) < 2 || m[1] != "13" {
		t.Errorf("latency not parsed from windows output: %v", m)
	}
	if m := pingTTLPattern.FindStringSubmatch(windowsOut); len(m) < 2 || m[1] != "56" {
		t.Errorf("ttl not parsed from windows output: %v", m)
	}

	subMs := "Reply from 127.0.0.1: bytes=32 time<1ms TTL=128"
	if m := pingLatencyPattern.FindStringSubmatch(subMs); len(m) < 2 || m[1] != "1" {
		t.Errorf("sub-millisecond latency not parsed: %v", m)
	}
}

func TestProberRunOneResultPerAddress(t *testing.T) {
	p := &Prober{
		Concurrency: 4,
		Timeout:     time.Second,
		probeFunc: func(_ context.Context, ip string) ProbeResult {
			return ProbeResult{IP: ip, Status: HostDown}
		},
	}

	ips := []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4", "10.0.0.5"}
	var lc scan.Lifecycle
	results := p.Run(context.Background(), ips, &lc, scan.NewEmitter(nil))

	if len(results) != len(ips) {
		t.Fatalf("got %d results, want %d", len(results), len(ips))
	}
	seen := make(map[string]bool)
	for _, r := range results {
		if seen[r.IP] {
			t.Errorf("duplicate result for %s", r.IP)
		}
		seen[r.IP] = true
	}
}

func TestProberRunRespectsAbort(t *testing.T) {
	var lc scan.Lifecycle
	if err := lc.Begin(); err != nil {
		t.Fatal(err)
	}
	defer lc.End()
	lc.Abort()

	p := &Prober{
		Concurrency: 2,
		probeFunc: func(_ context.Context, ip string) ProbeResult {
			t.Errorf("probe ran for %s after abort", ip)
			return ProbeResult{IP: ip}
		},
	}
	results := p.Run(context.Background(), []string{"10.0.0.1", "10.0.0.2"}, &lc, scan.NewEmitter(nil))
	if len(results) != 0 {
		t.Errorf("aborted run produced %d results, want 0", len(results))
	}
}

func TestTrimDot(t *testing.T) {
	if got := trimDot("host.example.com."); got != "host.example.com" {
		t.Errorf("trimDot = %q", got)
	}
	if got := trimDot("plain"); got != "plain" {
		t.Errorf("trimDot mangled undotted name: %q", got)
	}
	if got := trimDot(""); got != "" {
		t.Errorf("trimDot(\"\") = %q", got)
	}
}
