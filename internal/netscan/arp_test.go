package netscan

import (
	"strings"
	"testing"
)

const arpTableFixture = `IP address       HW type     Flags       HW address            Mask     Device
192.168.1.1      0x1         0x2         aa:bb:cc:dd:ee:01     *        eth0
192.168.1.50     0x1         0x0         00:00:00:00:00:00     *        eth0
10.0.0.7         0x1         0x2         aa:bb:cc:dd:ee:02     *        eth1
`

func TestMACFromARPTable(t *testing.T) {
	tests := []struct {
		ip   string
		want string
	}{
		{"192.168.1.1", "aa:bb:cc:dd:ee:01"},
		{"10.0.0.7", "aa:bb:cc:dd:ee:02"},
		{"192.168.1.50", ""}, // incomplete entry
		{"192.168.1.99", ""}, // not cached
	}
	for _, tt := range tests {
		got := macFromARPTable(strings.NewReader(arpTableFixture), tt.ip)
		if got != tt.want {
			t.Errorf("macFromARPTable(%s) = %q, want %q", tt.ip, got, tt.want)
		}
	}
}

func TestMACFromARPTableEmpty(t *testing.T) {
	if got := macFromARPTable(strings.NewReader(""), "10.0.0.7"); got != "" {
		t.Errorf("empty table returned %q", got)
	}
}
