package netscan

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		services []string
		want     AssetType
	}{
		{"web server", []string{"http", "https"}, AssetWebServer},
		{"database beats web", []string{"http", "mysql"}, AssetDatabaseServer},
		{"domain controller beats database", []string{"ldap", "postgresql"}, AssetDomainController},
		{"mail server", []string{"smtp", "imap"}, AssetMailServer},
		{"file server", []string{"smb"}, AssetFileServer},
		{"network device", []string{"telnet"}, AssetNetworkDevice},
		{"iot device", []string{"mqtt"}, AssetIoTDevice},
		{"workstation", []string{"rdp"}, AssetWorkstation},
		{"nothing recognizable", []string{"gopher"}, AssetUnknown},
		{"empty", nil, AssetUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.services); got != tt.want {
				t.Errorf("Classify(%v) = %s, want %s", tt.services, got, tt.want)
			}
		})
	}
}

func TestAddServicesDeduplicates(t *testing.T) {
	asset := &ServiceAsset{}
	asset.AddServices("http", "ssh", "http", "", "unknown", "ssh")

	if len(asset.Services) != 2 {
		t.Fatalf("got %d services, want 2: %v", len(asset.Services), asset.Services)
	}
	if asset.Services[0] != "http" || asset.Services[1] != "ssh" {
		t.Errorf("services = %v, want [http ssh]", asset.Services)
	}
}

func TestFindingsForAsset(t *testing.T) {
	asset := &ServiceAsset{
		IP: "10.0.0.5",
		Ports: []PortResult{
			{Port: 23, Protocol: "tcp", State: PortOpen, Service: "telnet"},
			{Port: 3306, Protocol: "tcp", State: PortOpen, Service: "mysql", Banner: "5.7.30"},
			{Port: 8081, Protocol: "tcp", State: PortOpen, Service: "unknown"},
			{Port: 443, Protocol: "tcp", State: PortClosed, Service: "https"},
		},
	}

	findings := FindingsForAsset(asset)
	if len(findings) != 3 {
		t.Fatalf("got %d findings, want 3 (closed port excluded)", len(findings))
	}

	byID := make(map[string]int)
	for _, f := range findings {
		byID[f.ID]++
	}
	if byID["open-port-telnet"] != 1 {
		t.Error("missing open-port-telnet finding")
	}
	if byID["database-port-mysql"] != 1 {
		t.Error("missing database-port-mysql finding")
	}
	if byID["open-port-unknown"] != 1 {
		t.Error("unmapped open port should yield an informational finding")
	}

	for _, f := range findings {
		if !f.Severity.IsValid() {
			t.Errorf("finding %s has invalid severity %q", f.ID, f.Severity)
		}
	}
}

func TestFindingsForAssetNil(t *testing.T) {
	if got := FindingsForAsset(nil); got != nil {
		t.Errorf("FindingsForAsset(nil) = %v, want nil", got)
	}
}
