package netscan

import "strings"

// OSGuess is one heuristic signal's operating system verdict.
type OSGuess struct {
	Name       string `json:"name"`
	Confidence int    `json:"confidence"` // 0-100
	Source     string `json:"source"`     // "ttl", "ssh-banner", "http-header"
}

// DetectOS combines the available signals into a best-effort guess.
//
// Signals are evaluated in the fixed order TTL, SSH banner, HTTP Server
// header; the highest confidence wins and ties go to the later signal in
// that order. That tie-break is a known heuristic weakness kept for
// predictability, not a confidence ranking.
func DetectOS(ttl int, sshBanner, httpServer string) OSGuess {
	var best OSGuess

	for _, g := range []OSGuess{
		guessFromTTL(ttl),
		guessFromSSHBanner(sshBanner),
		guessFromHTTPServer(httpServer),
	} {
		if g.Name != "" && g.Confidence >= best.Confidence {
			best = g
		}
	}

	if best.Name == "" {
		return OSGuess{Name: "unknown"}
	}
	return best
}

// guessFromTTL buckets the observed TTL. Defaults differ per OS family:
// Unix-likes start at 64, Windows at 128, most network gear at 255.
func guessFromTTL(ttl int) OSGuess {
	switch {
	case ttl <= 0:
		return OSGuess{}
	case ttl <= 64:
		return OSGuess{Name: "Linux/Unix", Confidence: 80, Source: "ttl"}
	case ttl <= 128:
		return OSGuess{Name: "Windows", Confidence: 80, Source: "ttl"}
	case ttl <= 255:
		return OSGuess{Name: "Network Device", Confidence: 60, Source: "ttl"}
	}
	return OSGuess{}
}

var sshBannerHints = []struct {
	substr     string
	name       string
	confidence int
}{
	{"ubuntu", "Ubuntu Linux", 85},
	{"debian", "Debian Linux", 85},
	{"centos", "CentOS Linux", 85},
	{"fedora", "Fedora Linux", 85},
	{"freebsd", "FreeBSD", 85},
	{"windows", "Windows", 85},
	{"cisco", "Cisco IOS", 85},
	{"mikrotik", "MikroTik RouterOS", 85},
	{"openssh", "Linux/Unix", 70},
	{"dropbear", "Embedded Linux", 70},
}

func guessFromSSHBanner(banner string) OSGuess {
	if banner == "" {
		return OSGuess{}
	}
	lower := strings.ToLower(banner)
	for _, hint := range sshBannerHints {
		if strings.Contains(lower, hint.substr) {
			return OSGuess{Name: hint.name, Confidence: hint.confidence, Source: "ssh-banner"}
		}
	}
	return OSGuess{}
}

var httpServerHints = []struct {
	substr     string
	name       string
	confidence int
}{
	{"microsoft-iis", "Windows", 80},
	{"win32", "Windows", 75},
	{"win64", "Windows", 75},
	{"ubuntu", "Ubuntu Linux", 75},
	{"debian", "Debian Linux", 75},
	{"centos", "CentOS Linux", 75},
	{"unix", "Linux/Unix", 65},
	{"nginx", "Linux/Unix", 55},
	{"apache", "Linux/Unix", 50},
}

func guessFromHTTPServer(server string) OSGuess {
	if server == "" {
		return OSGuess{}
	}
	lower := strings.ToLower(server)
	for _, hint := range httpServerHints {
		if strings.Contains(lower, hint.substr) {
			return OSGuess{Name: hint.name, Confidence: hint.confidence, Source: "http-header"}
		}
	}
	return OSGuess{}
}
