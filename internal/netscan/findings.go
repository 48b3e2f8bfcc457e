package netscan

import (
	"fmt"
	"strings"

	"github.com/sentrascan/sentra/internal/finding"
)

// exposure severity per open service, mirroring the risk an exposed port
// carries on an internet-facing host.
var portFindings = map[int]struct {
	id       string
	severity finding.Severity
	name     string
	remedy   string
}{
	23:    {"open-port-telnet", finding.SeverityCritical, "Telnet service exposed", "Disable telnet; use SSH for remote administration."},
	3389:  {"open-port-rdp", finding.SeverityHigh, "RDP service exposed", "Restrict RDP to VPN or trusted addresses."},
	5900:  {"open-port-vnc", finding.SeverityHigh, "VNC service exposed", "Restrict VNC to VPN or trusted addresses."},
	21:    {"open-port-ftp", finding.SeverityMedium, "FTP service exposed", "Prefer SFTP/FTPS; restrict access if FTP is required."},
	22:    {"ssh-port-exposed", finding.SeverityLow, "SSH service exposed", "Enforce key-based auth and restrict source addresses."},
	445:   {"open-port-smb", finding.SeverityHigh, "SMB service exposed", "Block SMB at the network boundary."},
	139:   {"open-port-netbios", finding.SeverityMedium, "NetBIOS service exposed", "Block NetBIOS at the network boundary."},
	3306:  {"database-port-mysql", finding.SeverityHigh, "MySQL port exposed", "Bind the database to internal interfaces only."},
	5432:  {"database-port-postgresql", finding.SeverityHigh, "PostgreSQL port exposed", "Bind the database to internal interfaces only."},
	1433:  {"database-port-mssql", finding.SeverityHigh, "SQL Server port exposed", "Bind the database to internal interfaces only."},
	6379:  {"database-port-redis", finding.SeverityHigh, "Redis port exposed", "Require auth and bind Redis to internal interfaces."},
	27017: {"database-port-mongodb", finding.SeverityHigh, "MongoDB port exposed", "Enable auth and bind MongoDB to internal interfaces."},
	389:   {"open-port-ldap", finding.SeverityMedium, "LDAP service exposed", "Restrict directory access to internal networks."},
	161:   {"open-port-snmp", finding.SeverityMedium, "SNMP service exposed", "Use SNMPv3 and restrict access."},
}

// FindingsForAsset converts an asset's open ports into findings for the
// compliance engine. Ports without a specific rule yield an informational
// open-port record.
func FindingsForAsset(asset *ServiceAsset) []finding.Finding {
	if asset == nil {
		return nil
	}

	findings := make([]finding.Finding, 0, len(asset.Ports))
	for _, port := range asset.Ports {
		if port.State != PortOpen {
			continue
		}
		if spec, ok := portFindings[port.Port]; ok {
			findings = append(findings, finding.Finding{
				ID:          spec.id,
				Name:        spec.name,
				Severity:    spec.severity,
				Description: fmt.Sprintf("%s on %s (port %d/%s)", spec.name, asset.IP, port.Port, port.Protocol),
				Evidence:    evidenceForPort(asset.IP, port),
				Remediation: spec.remedy,
			})
			continue
		}
		findings = append(findings, finding.Finding{
			ID:          "open-port-" + port.Service,
			Name:        fmt.Sprintf("Open port %d (%s)", port.Port, port.Service),
			Severity:    finding.SeverityInfo,
			Description: fmt.Sprintf("Port %d/%s is open on %s", port.Port, port.Protocol, asset.IP),
			Evidence:    evidenceForPort(asset.IP, port),
		})
	}
	return findings
}

func evidenceForPort(ip string, port PortResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%d %s", ip, port.Port, port.State)
	if port.Banner != "" {
		fmt.Fprintf(&b, " banner=%q", port.Banner)
	}
	return b.String()
}
