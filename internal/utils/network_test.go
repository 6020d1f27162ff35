package utils

import (
	"testing"
)

func TestNetmaskToCIDR(t *testing.T) {
	tests := []struct {
		name     string
		netmask  string
		expected int
		wantErr  bool
	}{
		{"Class C", "255.255.255.0", 24, false},
		{"Class B", "255.255.0.0", 16, false},
		{"Class A", "255.0.0.0", 8, false},
		{"Single host", "255.255.255.255", 32, false},
		{"Subnet /25", "255.255.255.128", 25, false},
		{"Invalid format", "invalid", 0, true},
		{"IPv6 format", "ffff:ffff:ffff::", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NetmaskToCIDR(tt.netmask)
			if (err != nil) != tt.wantErr {
				t.Errorf("NetmaskToCIDR() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && result != tt.expected {
				t.Errorf("NetmaskToCIDR() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestCIDRToNetmask(t *testing.T) {
	tests := []struct {
		name     string
		cidr     int
		expected string
		wantErr  bool
	}{
		{"Class C", 24, "255.255.255.0", false},
		{"Class B", 16, "255.255.0.0", false},
		{"Class A", 8, "255.0.0.0", false},
		{"Single host", 32, "255.255.255.255", false},
		{"Zero", 0, "0.0.0.0", false},
		{"Invalid negative", -1, "", true},
		{"Invalid > 32", 33, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := CIDRToNetmask(tt.cidr)
			if (err != nil) != tt.wantErr {
				t.Errorf("CIDRToNetmask() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && result != tt.expected {
				t.Errorf("CIDRToNetmask() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestValidateIPv4(t *testing.T) {
	tests := []struct {
		name    string
		ip      string
		wantErr bool
	}{
		{"Valid IP", "192.168.1.1", false},
		{"Valid IP 2", "10.0.0.1", false},
		{"Loopback", "127.0.0.1", false},
		{"Broadcast", "255.255.255.255", false},
		{"Invalid format", "invalid", true},
		{"IPv6", "2001:db8::1", true},
		{"Out of range", "256.256.256.256", true},
		{"Empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIPv4(tt.ip)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIPv4() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateHost(t *testing.T) {
	tests := []struct {
		host    string
		wantErr bool
	}{
		{"192.168.1.10", false},
		{"broker.local", false},
		{"plc-01", false},
		{"", true},
		{"-bad.example", true},
		{"999.1.1.1", true},
		{"has space", true},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			err := ValidateHost(tt.host)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateHost(%q) error = %v, wantErr %v", tt.host, err, tt.wantErr)
			}
		})
	}
}

func TestValidateCIDR(t *testing.T) {
	tests := []struct {
		name    string
		cidr    string
		want    string
		hosts   int
		wantErr bool
	}{
		{"Class C", "192.168.1.0/24", "192.168.1.0/24", 254, false},
		{"Host bits masked", "192.168.1.77/24", "192.168.1.0/24", 254, false},
		{"Point to point", "10.0.0.0/31", "10.0.0.0/31", 2, false},
		{"Single host", "10.0.0.5/32", "10.0.0.5/32", 1, false},
		{"Dotted netmask", "172.16.4.9/255.255.252.0", "172.16.4.0/22", 1022, false},
		{"Bad netmask", "172.16.4.0/255.x.0.0", "", 0, true},
		{"Missing prefix", "192.168.1.0", "", 0, true},
		{"IPv6", "2001:db8::/32", "", 0, true},
		{"Garbage", "subnet", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ValidateCIDR(tt.cidr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateCIDR(%q) error = %v, wantErr %v", tt.cidr, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if p.String() != tt.want {
				t.Errorf("ValidateCIDR(%q) = %s, want %s", tt.cidr, p, tt.want)
			}
			if got := HostsInCIDR(p); got != tt.hosts {
				t.Errorf("HostsInCIDR(%s) = %d, want %d", p, got, tt.hosts)
			}
		})
	}
}

func TestPrefixContains(t *testing.T) {
	p, err := ValidateCIDR("192.168.1.0/24")
	if err != nil {
		t.Fatal(err)
	}
	if !PrefixContains(p, "192.168.1.10") {
		t.Error("192.168.1.10 should be inside 192.168.1.0/24")
	}
	if PrefixContains(p, "192.168.2.10") {
		t.Error("192.168.2.10 should be outside 192.168.1.0/24")
	}
	if PrefixContains(p, "nope") {
		t.Error("invalid address should not be contained")
	}
}

func TestDescribeCIDR(t *testing.T) {
	p, err := ValidateCIDR("192.168.1.0/24")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := DescribeCIDR(p), "192.168.1.0/24 (255.255.255.0, 254 hosts)"; got != want {
		t.Errorf("DescribeCIDR() = %q, want %q", got, want)
	}
}
