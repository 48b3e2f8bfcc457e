package netscan

import (
	"bufio"
	"io"
	"os"
	"runtime"
	"strings"
)

// arpTablePath is the kernel's ARP cache, swappable in tests.
var arpTablePath = "/proc/net/arp"

// lookupMAC resolves a hardware address from the local ARP cache. Only
// hosts on the local segment appear there; anything else stays absent.
func lookupMAC(ip string) string {
	if runtime.GOOS != "linux" {
		return ""
	}
	f, err := os.Open(arpTablePath)
	if err != nil {
		return ""
	}
	defer f.Close()
	return macFromARPTable(f, ip)
}

// macFromARPTable scans /proc/net/arp formatted rows for ip. Incomplete
// entries (all-zero hardware address) count as absent.
func macFromARPTable(r io.Reader, ip string) string {
	scanner := bufio.NewScanner(r)
	header := true
	for scanner.Scan() {
		if header {
			header = false
			continue
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || fields[0] != ip {
			continue
		}
		if fields[3] == "00:00:00:00:00:00" {
			return ""
		}
		return fields[3]
	}
	return ""
}
