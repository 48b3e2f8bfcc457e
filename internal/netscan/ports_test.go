package netscan

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/sentrascan/sentra/internal/scan"
)

func TestPortScannerDetectsOpenAndClosed(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to open listener: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	openPort := ln.Addr().(*net.TCPAddr).Port
	closedPort := unusedPort(t)

	scanner := &PortScanner{Concurrency: 4, Timeout: time.Second}
	var lc scan.Lifecycle
	results := scanner.Scan(context.Background(), "127.0.0.1", []int{openPort, closedPort}, &lc, scan.NewEmitter(nil))

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	states := make(map[int]PortState)
	for _, r := range results {
		states[r.Port] = r.State
	}
	if states[openPort] != PortOpen {
		t.Errorf("port %d state = %s, want open", openPort, states[openPort])
	}
	if states[closedPort] != PortClosed {
		t.Errorf("port %d state = %s, want closed", closedPort, states[closedPort])
	}
}

func TestPortScannerAbortStopsScheduling(t *testing.T) {
	var lc scan.Lifecycle
	if err := lc.Begin(); err != nil {
		t.Fatal(err)
	}
	defer lc.End()
	lc.Abort()

	ports := make([]int, 0, 50)
	for p := 20000; p < 20050; p++ {
		ports = append(ports, p)
	}

	scanner := &PortScanner{Concurrency: 2, Timeout: 500 * time.Millisecond}
	done := make(chan []PortResult, 1)
	go func() {
		done <- scanner.Scan(context.Background(), "127.0.0.1", ports, &lc, scan.NewEmitter(nil))
	}()

	select {
	case results := <-done:
		if len(results) != 0 {
			t.Errorf("aborted scan produced %d results, want 0", len(results))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("aborted scan did not return promptly")
	}
}

func TestOpenPortsFilter(t *testing.T) {
	results := []PortResult{
		{Port: 80, State: PortOpen},
		{Port: 81, State: PortClosed},
		{Port: 82, State: PortFiltered},
		{Port: 443, State: PortOpen},
	}
	open := OpenPorts(results)
	if len(open) != 2 || open[0].Port != 80 || open[1].Port != 443 {
		t.Errorf("OpenPorts = %v, want ports 80 and 443", open)
	}
}

func TestServiceName(t *testing.T) {
	tests := []struct {
		port int
		want string
	}{
		{22, "ssh"},
		{80, "http"},
		{443, "https"},
		{3306, "mysql"},
		{5432, "postgresql"},
		{6379, "redis"},
		{27017, "mongodb"},
		{1883, "mqtt"},
		{41234, "unknown"},
	}
	for _, tt := range tests {
		if got := ServiceName(tt.port); got != tt.want {
			t.Errorf("ServiceName(%d) = %q, want %q", tt.port, got, tt.want)
		}
	}
}

// unusedPort reserves then releases a port so it is very likely closed.
func unusedPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

func TestCheckPortClosedVerdict(t *testing.T) {
	port := unusedPort(t)
	res := checkPort("127.0.0.1", port, time.Second)
	if res.State != PortClosed {
		t.Errorf("checkPort on closed port %s = %s, want closed", strconv.Itoa(port), res.State)
	}
}
