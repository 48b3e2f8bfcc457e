package netscan

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// webPorts get an HTTP(S) request instead of a raw banner grab.
var webPorts = map[int]bool{80: false, 443: true, 8080: false, 8443: true}

const maxBannerBytes = 512

var titlePattern = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

// ServiceProbe is the detail learned about one open port beyond its
// conventional name. All fields are best effort.
type ServiceProbe struct {
	Service string
	Banner  string
	Title   string
}

// DetectService enriches an open port with banner and service identity.
// Web-looking ports get an HTTP request for the Server header and page
// title; port 22 reads the SSH identification line; everything else gets
// a passive banner read. Errors leave fields empty, they never propagate.
func DetectService(ctx context.Context, host string, port int, timeout time.Duration) ServiceProbe {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	if useTLS, ok := webPorts[port]; ok {
		return probeHTTP(ctx, host, port, useTLS, timeout)
	}
	if port == 22 {
		return probeSSH(host, port, timeout)
	}
	return probeBanner(host, port, timeout)
}

func probeHTTP(ctx context.Context, host string, port int, useTLS bool, timeout time.Duration) ServiceProbe {
	probe := ServiceProbe{Service: ServiceName(port)}

	scheme := "http"
	if useTLS {
		scheme = "https"
	}
	target := fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(host, strconv.Itoa(port)))

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			// assessment targets routinely carry self-signed certificates
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return probe
	}
	resp, err := client.Do(req)
	if err != nil {
		return probe
	}
	defer resp.Body.Close()

	if server := resp.Header.Get("Server"); server != "" {
		probe.Banner = server
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err == nil {
		if m := titlePattern.FindSubmatch(body); len(m) > 1 {
			probe.Title = strings.TrimSpace(string(m[1]))
		}
	}
	return probe
}

// probeSSH reads the identification string the server volunteers first,
// e.g. "SSH-2.0-OpenSSH_8.9p1 Ubuntu-3ubuntu0.1".
func probeSSH(host string, port int, timeout time.Duration) ServiceProbe {
	probe := ServiceProbe{Service: "ssh"}

	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), timeout)
	if err != nil {
		return probe
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	line, err := bufio.NewReader(io.LimitReader(conn, maxBannerBytes)).ReadString('\n')
	if err != nil && line == "" {
		return probe
	}
	probe.Banner = strings.TrimSpace(line)
	return probe
}

func probeBanner(host string, port int, timeout time.Duration) ServiceProbe {
	probe := ServiceProbe{Service: ServiceName(port)}

	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), timeout)
	if err != nil {
		return probe
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	buf := make([]byte, maxBannerBytes)
	n, err := conn.Read(buf)
	if err != nil || n == 0 {
		return probe
	}
	probe.Banner = strings.TrimSpace(string(buf[:n]))
	return probe
}
