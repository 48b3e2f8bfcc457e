package netscan

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sentrascan/sentra/internal/scan"
)

// HostStatus is a probed host's liveness verdict.
type HostStatus string

const (
	HostUp      HostStatus = "up"
	HostDown    HostStatus = "down"
	HostUnknown HostStatus = "unknown"
)

// ProbeResult is one address's reachability outcome.
type ProbeResult struct {
	IP        string     `json:"ip"`
	Status    HostStatus `json:"status"`
	Hostname  string     `json:"hostname,omitempty"`
	MAC       string     `json:"mac,omitempty"`
	LatencyMS float64    `json:"latency_ms,omitempty"`
	TTL       int        `json:"ttl,omitempty"`
}

const (
	// DefaultConcurrency is used when the caller supplies no valid limit.
	DefaultConcurrency = 50
	// MaxConcurrency caps the worker pool size.
	MaxConcurrency = 500
)

// fallbackPorts are tried with TCP connect when ICMP yields nothing. A host
// answering on any of these is up even if it drops ping.
var fallbackPorts = []int{80, 443, 22, 445}

// Prober performs concurrency-bounded reachability probes.
type Prober struct {
	Concurrency int
	Timeout     time.Duration
	RateLimit   int // probes per second, 0 means unlimited
	PingEnabled bool
	Logger      *zap.SugaredLogger

	// probeFunc is swappable for tests.
	probeFunc func(ctx context.Context, ip string) ProbeResult
}

// ClampConcurrency normalizes a requested concurrency into [1, MaxConcurrency],
// defaulting values below 1.
func ClampConcurrency(n int) int {
	if n < 1 {
		return DefaultConcurrency
	}
	if n > MaxConcurrency {
		return MaxConcurrency
	}
	return n
}

// Run probes every address with a bounded worker pool. One result per
// address; ordering is not significant. Cancellation is checked before
// each host starts; hosts already in flight run to their own timeout.
func (p *Prober) Run(ctx context.Context, ips []string, lc *scan.Lifecycle, em *scan.Emitter) []ProbeResult {
	probe := p.probeFunc
	if probe == nil {
		probe = p.probeHost
	}

	workers := ClampConcurrency(p.Concurrency)
	var limiter *rate.Limiter
	if p.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(p.RateLimit), p.RateLimit)
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	results := make([]ProbeResult, 0, len(ips))
	scanned := 0
	total := len(ips)

	for _, ip := range ips {
		if lc != nil && lc.Aborted() {
			break
		}
		wg.Add(1)
		go func(addr string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if lc != nil && lc.Aborted() {
				return
			}
			if limiter != nil {
				_ = limiter.Wait(ctx)
			}

			res := probe(ctx, addr)

			mu.Lock()
			results = append(results, res)
			scanned++
			done := scanned
			mu.Unlock()

			em.Progress("discovery", done, total, addr)
		}(ip)
	}

	wg.Wait()
	return results
}

// probeHost checks one address: system ping when enabled, falling back to
// TCP connects on common ports. Failures degrade to "down", never error.
func (p *Prober) probeHost(ctx context.Context, ip string) ProbeResult {
	res := ProbeResult{IP: ip, Status: HostDown}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	if p.PingEnabled {
		if latency, ttl, ok := pingHost(ctx, ip, timeout); ok {
			res.Status = HostUp
			res.LatencyMS = latency
			res.TTL = ttl
			res.Hostname = reverseLookup(ctx, ip, timeout)
			res.MAC = lookupMAC(ip)
			return res
		}
	}

	// TCP connect fallback: some hosts drop ICMP but answer on a service port.
	for _, port := range fallbackPorts {
		start := time.Now()
		conn, err := net.DialTimeout("tcp", net.JoinHostPort(ip, strconv.Itoa(port)), timeout)
		if err == nil {
			conn.Close()
			res.Status = HostUp
			res.LatencyMS = float64(time.Since(start).Microseconds()) / 1000
			res.Hostname = reverseLookup(ctx, ip, timeout)
			res.MAC = lookupMAC(ip)
			return res
		}
	}

	return res
}

var (
	pingLatencyPattern = regexp.MustCompile(`time[=<]([\d.]+) ?ms`)
	pingTTLPattern     = regexp.MustCompile(`(?i)ttl=(\d+)`)
)

// pingHost shells out to the platform ping binary. Raw ICMP sockets need
// elevated privileges, the system binary does not. The binary being absent
// or failing is treated as "no answer".
func pingHost(ctx context.Context, ip string, timeout time.Duration) (latencyMS float64, ttl int, ok bool) {
	var cmd *exec.Cmd
	var stdout bytes.Buffer

	cmdCtx, cancel := context.WithTimeout(ctx, timeout+time.Second)
	defer cancel()

	if runtime.GOOS == "windows" {
		ms := int(timeout.Milliseconds())
		if ms < 1 {
			ms = 1000
		}
		cmd = exec.CommandContext(cmdCtx, "ping", "-n", "1", "-w", fmt.Sprint(ms), ip)
	} else {
		sec := int(timeout.Seconds())
		if sec < 1 {
			sec = 1
		}
		cmd = exec.CommandContext(cmdCtx, "ping", "-c", "1", "-W", fmt.Sprint(sec), ip)
	}

	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return 0, 0, false
	}

	output := stdout.String()
	if m := pingLatencyPattern.FindStringSubmatch(output); len(m) > 1 {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			latencyMS = v
		}
	}
	if m := pingTTLPattern.FindStringSubmatch(output); len(m) > 1 {
		if v, err := strconv.Atoi(m[1]); err == nil {
			ttl = v
		}
	}
	return latencyMS, ttl, true
}

// reverseLookup resolves a PTR record best effort; empty on failure.
func reverseLookup(ctx context.Context, ip string, timeout time.Duration) string {
	lookupCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resolver := &net.Resolver{PreferGo: true}
	names, err := resolver.LookupAddr(lookupCtx, ip)
	if err != nil || len(names) == 0 {
		return ""
	}
	return trimDot(names[0])
}

func trimDot(name string) string {
	if len(name) > 0 && name[len(name)-1] == '.' {
		return name[:len(name)-1]
	}
	return name
}
