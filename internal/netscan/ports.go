package netscan

import (
	"context"
	"net"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sentrascan/sentra/internal/scan"
)

// PortState is a probed port's verdict.
type PortState string

const (
	PortOpen     PortState = "open"
	PortClosed   PortState = "closed"
	PortFiltered PortState = "filtered"
)

// PortResult is the outcome for one port on one host. Service and Banner
// are filled by the detection pass and stay empty when it fails.
type PortResult struct {
	Port     int       `json:"port"`
	Protocol string    `json:"protocol"`
	State    PortState `json:"state"`
	Service  string    `json:"service,omitempty"`
	Banner   string    `json:"banner,omitempty"`
}

// DefaultPorts is scanned when no port specification is supplied.
var DefaultPorts = []int{
	21, 22, 23, 25, 53, 80, 110, 135, 139, 143, 389, 443, 445, 636,
	1433, 1883, 3306, 3389, 5432, 5900, 6379, 8080, 8443, 27017,
}

// PortScanner performs bounded-concurrency TCP connect scans.
type PortScanner struct {
	Concurrency int
	Timeout     time.Duration
	Logger      *zap.SugaredLogger
}

// Scan connect-probes each port on host. Open is recorded only on a
// successful connection; timeouts map to filtered and refusals to closed.
// Cancellation stops scheduling new ports.
func (s *PortScanner) Scan(ctx context.Context, host string, ports []int, lc *scan.Lifecycle, em *scan.Emitter) []PortResult {
	if len(ports) == 0 {
		ports = DefaultPorts
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	workers := ClampConcurrency(s.Concurrency)
	if workers > len(ports) {
		workers = len(ports)
	}

	portChan := make(chan int)
	resultChan := make(chan PortResult, len(ports))
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for port := range portChan {
				resultChan <- checkPort(host, port, timeout)
			}
		}()
	}

	go func() {
		defer close(portChan)
		for _, port := range ports {
			if lc != nil && lc.Aborted() {
				return
			}
			select {
			case portChan <- port:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]PortResult, 0, len(ports))
	done := 0
	for res := range resultChan {
		results = append(results, res)
		done++
		em.Progress("port-scan", done, len(ports), host+":"+strconv.Itoa(res.Port))
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Port < results[j].Port })
	return results
}

// OpenPorts filters a result set down to open ports.
func OpenPorts(results []PortResult) []PortResult {
	open := make([]PortResult, 0, len(results))
	for _, r := range results {
		if r.State == PortOpen {
			open = append(open, r)
		}
	}
	return open
}

func checkPort(host string, port int, timeout time.Duration) PortResult {
	res := PortResult{Port: port, Protocol: "tcp"}

	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), timeout)
	if err == nil {
		conn.Close()
		res.State = PortOpen
		res.Service = ServiceName(port)
		return res
	}

	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		res.State = PortFiltered
		return res
	}
	res.State = PortClosed
	return res
}

// ServiceName returns the conventional service name for a well-known port.
func ServiceName(port int) string {
	services := map[int]string{
		21:    "ftp",
		22:    "ssh",
		23:    "telnet",
		25:    "smtp",
		53:    "dns",
		80:    "http",
		110:   "pop3",
		135:   "msrpc",
		139:   "netbios-ssn",
		143:   "imap",
		389:   "ldap",
		443:   "https",
		445:   "smb",
		587:   "submission",
		636:   "ldaps",
		1433:  "mssql",
		1883:  "mqtt",
		2049:  "nfs",
		3306:  "mysql",
		3389:  "rdp",
		5432:  "postgresql",
		5683:  "coap",
		5900:  "vnc",
		6379:  "redis",
		8080:  "http-alt",
		8443:  "https-alt",
		8883:  "mqtt-tls",
		27017: "mongodb",
	}
	if name, ok := services[port]; ok {
		return name
	}
	return "unknown"
}
