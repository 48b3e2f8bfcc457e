package netscan

import (
	"errors"
	"testing"

	errs "github.com/sentrascan/sentra/internal/shared/errors"
)

func TestExpandCIDRHostCounts(t *testing.T) {
	tests := []struct {
		cidr string
		want int
	}{
		{"192.168.1.0/24", 254},
		{"10.0.0.0/30", 2},
		{"10.0.0.0/31", 2},
		{"10.0.0.5/32", 1},
		{"172.16.0.0/28", 14},
		{"10.0.0.0/29", 6},
	}

	for _, tt := range tests {
		t.Run(tt.cidr, func(t *testing.T) {
			hosts, err := ExpandCIDR(tt.cidr)
			if err != nil {
				t.Fatalf("ExpandCIDR(%q) error: %v", tt.cidr, err)
			}
			if len(hosts) != tt.want {
				t.Errorf("ExpandCIDR(%q) yielded %d hosts, want %d", tt.cidr, len(hosts), tt.want)
			}
		})
	}
}

func TestExpandCIDRExcludesNetworkAndBroadcast(t *testing.T) {
	hosts, err := ExpandCIDR("192.168.1.0/24")
	if err != nil {
		t.Fatalf("ExpandCIDR error: %v", err)
	}
	if hosts[0] != "192.168.1.1" {
		t.Errorf("first host = %s, want 192.168.1.1", hosts[0])
	}
	if hosts[len(hosts)-1] != "192.168.1.254" {
		t.Errorf("last host = %s, want 192.168.1.254", hosts[len(hosts)-1])
	}
}

func TestExpandCIDRInvalid(t *testing.T) {
	for _, cidr := range []string{"not-a-cidr", "10.0.0.0/33", "10.0.0.0", "2001:db8::/64"} {
		if _, err := ExpandCIDR(cidr); err == nil {
			t.Errorf("ExpandCIDR(%q) expected error", cidr)
		}
	}
}

func TestExpandTarget(t *testing.T) {
	tests := []struct {
		target  string
		want    int
		wantErr bool
	}{
		{"10.0.0.0/30", 2, false},
		{"10.0.0.1", 1, false},
		{"example.com", 1, false},
		{"", 0, true},
		{"bad target", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			hosts, err := ExpandTarget(tt.target)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ExpandTarget(%q) expected error", tt.target)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExpandTarget(%q) error: %v", tt.target, err)
			}
			if len(hosts) != tt.want {
				t.Errorf("ExpandTarget(%q) yielded %d entries, want %d", tt.target, len(hosts), tt.want)
			}
		})
	}
}

func TestParsePortSpec(t *testing.T) {
	tests := []struct {
		spec    string
		want    []int
		wantErr bool
	}{
		{"80", []int{80}, false},
		{"22,80,443", []int{22, 80, 443}, false},
		{"443,22,80", []int{22, 80, 443}, false},
		{"20-25", []int{20, 21, 22, 23, 24, 25}, false},
		{"22,80,100-102", []int{22, 80, 100, 101, 102}, false},
		{"80,80,80", []int{80}, false},
		{"", nil, true},
		{"abc", nil, true},
		{"0", nil, true},
		{"70000", nil, true},
		{"100-50", nil, true},
		{"22,", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			ports, err := ParsePortSpec(tt.spec)
			if tt.wantErr {
				if !errors.Is(err, errs.ErrInvalidPortSpec) {
					t.Errorf("ParsePortSpec(%q) = %v, want ErrInvalidPortSpec", tt.spec, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePortSpec(%q) error: %v", tt.spec, err)
			}
			if len(ports) != len(tt.want) {
				t.Fatalf("ParsePortSpec(%q) = %v, want %v", tt.spec, ports, tt.want)
			}
			for i := range ports {
				if ports[i] != tt.want[i] {
					t.Errorf("ParsePortSpec(%q) = %v, want %v", tt.spec, ports, tt.want)
					break
				}
			}
		})
	}
}
