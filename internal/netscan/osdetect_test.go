package netscan

import "testing"

func TestGuessFromTTLBuckets(t *testing.T) {
	tests := []struct {
		ttl      int
		wantName string
		wantConf int
	}{
		{64, "Linux/Unix", 80},
		{52, "Linux/Unix", 80},
		{128, "Windows", 80},
		{115, "Windows", 80},
		{255, "Network Device", 60},
		{240, "Network Device", 60},
		{0, "", 0},
		{-1, "", 0},
		{300, "", 0},
	}

	for _, tt := range tests {
		g := guessFromTTL(tt.ttl)
		if g.Name != tt.wantName || g.Confidence != tt.wantConf {
			t.Errorf("guessFromTTL(%d) = %q/%d, want %q/%d",
				tt.ttl, g.Name, g.Confidence, tt.wantName, tt.wantConf)
		}
	}
}

func TestGuessFromSSHBanner(t *testing.T) {
	tests := []struct {
		banner string
		want   string
	}{
		{"SSH-2.0-OpenSSH_8.9p1 Ubuntu-3ubuntu0.1", "Ubuntu Linux"},
		{"SSH-2.0-OpenSSH_7.4 Debian-10+deb9u7", "Debian Linux"},
		{"SSH-2.0-OpenSSH_for_Windows_8.1", "Windows"},
		{"SSH-2.0-OpenSSH_8.0", "Linux/Unix"},
		{"SSH-2.0-dropbear_2020.81", "Embedded Linux"},
		{"SSH-2.0-Cisco-1.25", "Cisco IOS"},
		{"", ""},
		{"SSH-2.0-SomethingElse", ""},
	}

	for _, tt := range tests {
		if g := guessFromSSHBanner(tt.banner); g.Name != tt.want {
			t.Errorf("guessFromSSHBanner(%q) = %q, want %q", tt.banner, g.Name, tt.want)
		}
	}
}

func TestDetectOSHighestConfidenceWins(t *testing.T) {
	// SSH banner (85) beats TTL bucket (80).
	g := DetectOS(64, "SSH-2.0-OpenSSH_8.9p1 Ubuntu-3ubuntu0.1", "")
	if g.Name != "Ubuntu Linux" || g.Source != "ssh-banner" {
		t.Errorf("DetectOS = %q from %q, want Ubuntu Linux from ssh-banner", g.Name, g.Source)
	}

	// TTL alone.
	g = DetectOS(128, "", "")
	if g.Name != "Windows" || g.Source != "ttl" {
		t.Errorf("DetectOS = %q from %q, want Windows from ttl", g.Name, g.Source)
	}
}

func TestDetectOSTieBreakPrefersLaterSignal(t *testing.T) {
	// TTL says Windows at 80; a generic IIS header also scores 80. The
	// fixed evaluation order means the HTTP signal, coming later, wins.
	g := DetectOS(128, "", "Microsoft-IIS/10.0")
	if g.Source != "http-header" {
		t.Errorf("tie should go to the later signal, got source %q", g.Source)
	}
	if g.Name != "Windows" {
		t.Errorf("DetectOS = %q, want Windows", g.Name)
	}
}

func TestDetectOSNoSignals(t *testing.T) {
	g := DetectOS(0, "", "")
	if g.Name != "unknown" {
		t.Errorf("DetectOS with no signals = %q, want unknown", g.Name)
	}
	if g.Confidence != 0 {
		t.Errorf("confidence = %d, want 0", g.Confidence)
	}
}
