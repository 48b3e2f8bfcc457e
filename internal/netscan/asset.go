package netscan

// AssetType classifies a host by the services it exposes.
type AssetType string

const (
	AssetWebServer        AssetType = "web-server"
	AssetDatabaseServer   AssetType = "database-server"
	AssetFileServer       AssetType = "file-server"
	AssetMailServer       AssetType = "mail-server"
	AssetDomainController AssetType = "domain-controller"
	AssetNetworkDevice    AssetType = "network-device"
	AssetWorkstation      AssetType = "workstation"
	AssetIoTDevice        AssetType = "iot-device"
	AssetUnknown          AssetType = "unknown"
)

// ServiceAsset is a host enriched by the port-scan, service-detection and
// classification passes. It is built additively and not mutated after
// classification completes.
type ServiceAsset struct {
	IP              string       `json:"ip"`
	Hostname        string       `json:"hostname,omitempty"`
	Status          HostStatus   `json:"status"`
	LatencyMS       float64      `json:"latency_ms,omitempty"`
	Ports           []PortResult `json:"ports,omitempty"`
	Services        []string     `json:"services,omitempty"`
	AssetType       AssetType    `json:"asset_type"`
	OperatingSystem string       `json:"operating_system,omitempty"`
	OSConfidence    int          `json:"os_confidence,omitempty"`
	DiscoveryMethod string       `json:"discovery_method"`
}

// AddServices merges service names into the deduplicated service list.
func (a *ServiceAsset) AddServices(names ...string) {
	for _, name := range names {
		if name == "" || name == "unknown" {
			continue
		}
		exists := false
		for _, have := range a.Services {
			if have == name {
				exists = true
				break
			}
		}
		if !exists {
			a.Services = append(a.Services, name)
		}
	}
}

// classification rules in precedence order; the first rule whose service
// set intersects the asset's services decides the type.
var assetRules = []struct {
	assetType AssetType
	services  map[string]bool
}{
	{AssetDomainController, map[string]bool{"ldap": true, "ldaps": true, "kerberos": true}},
	{AssetDatabaseServer, map[string]bool{"mysql": true, "postgresql": true, "mssql": true, "mongodb": true, "redis": true, "oracle": true}},
	{AssetMailServer, map[string]bool{"smtp": true, "submission": true, "pop3": true, "imap": true}},
	{AssetFileServer, map[string]bool{"smb": true, "netbios-ssn": true, "ftp": true, "nfs": true}},
	{AssetWebServer, map[string]bool{"http": true, "https": true, "http-alt": true, "https-alt": true}},
	{AssetNetworkDevice, map[string]bool{"telnet": true, "snmp": true}},
	{AssetIoTDevice, map[string]bool{"mqtt": true, "mqtt-tls": true, "coap": true}},
	{AssetWorkstation, map[string]bool{"rdp": true, "vnc": true, "msrpc": true}},
}

// Classify derives the asset type from the deduplicated services. Rules
// are checked in a fixed precedence order so a host running both a
// database and a web server classifies as a database server.
func Classify(services []string) AssetType {
	for _, rule := range assetRules {
		for _, svc := range services {
			if rule.services[svc] {
				return rule.assetType
			}
		}
	}
	return AssetUnknown
}
