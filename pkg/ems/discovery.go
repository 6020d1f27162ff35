package ems

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/Bibi40k/ems-provision/configs"
	"github.com/Bibi40k/ems-provision/internal/utils"
	"github.com/Bibi40k/ems-provision/pkg/wizard"
)

// DiscoveredDevice is one device reported by a discovery scan.
type DiscoveredDevice struct {
	ID       string `yaml:"id" json:"id"`
	Type     string `yaml:"type" json:"type"`
	Vendor   string `yaml:"vendor,omitempty" json:"vendor,omitempty"`
	Model    string `yaml:"model,omitempty" json:"model,omitempty"`
	IP       string `yaml:"ip" json:"ip"`
	Port     int    `yaml:"port" json:"port"`
	Protocol string `yaml:"protocol" json:"protocol"`
	Status   string `yaml:"status" json:"status"`
}

// Online reports whether the device answered the scan.
func (d DiscoveredDevice) Online() bool { return d.Status == StatusOnline }

// Discover runs a simulated scan of cidr. It returns the configured sample
// devices; no packets are sent. Every sample is returned. Samples without a
// protocol of their own are labelled with the requested one.
func Discover(cidr, protocol string) ([]DiscoveredDevice, error) {
	if _, err := utils.ValidateCIDR(cidr); err != nil {
		return nil, err
	}
	if protocol != "" {
		if _, ok := configs.Defaults.Protocols[protocol]; !ok {
			return nil, fmt.Errorf("unknown protocol %q", protocol)
		}
	}
	var out []DiscoveredDevice
	for _, s := range configs.Defaults.Discovery {
		p := s.Protocol
		if p == "" {
			p = protocol
		}
		out = append(out, DiscoveredDevice{
			ID:       s.ID,
			Type:     s.Type,
			Vendor:   s.Vendor,
			Model:    s.Model,
			IP:       s.IP,
			Port:     s.Port,
			Protocol: p,
			Status:   s.Status,
		})
	}
	return out, nil
}

// WithProtocol returns the devices speaking protocol. An empty protocol
// keeps them all.
func WithProtocol(devices []DiscoveredDevice, protocol string) []DiscoveredDevice {
	if protocol == "" {
		return devices
	}
	var out []DiscoveredDevice
	for _, d := range devices {
		if d.Protocol == protocol {
			out = append(out, d)
		}
	}
	return out
}

// InRange returns the devices whose address lies inside cidr.
func InRange(devices []DiscoveredDevice, cidr string) []DiscoveredDevice {
	p, err := utils.ValidateCIDR(cidr)
	if err != nil {
		return nil
	}
	var out []DiscoveredDevice
	for _, d := range devices {
		if utils.PrefixContains(p, d.IP) {
			out = append(out, d)
		}
	}
	return out
}

// DiscoveredFrom decodes the discovered devices stored under key. Values
// restored from a YAML draft arrive as generic maps and are converted.
func DiscoveredFrom(data wizard.FormData, key string) []DiscoveredDevice {
	switch v := data[key].(type) {
	case nil:
		return nil
	case []DiscoveredDevice:
		return v
	default:
		raw, err := yaml.Marshal(v)
		if err != nil {
			return nil
		}
		var out []DiscoveredDevice
		if err := yaml.Unmarshal(raw, &out); err != nil {
			return nil
		}
		return out
	}
}

func hasOnline(devices []DiscoveredDevice, deviceType string) bool {
	for _, d := range devices {
		if d.Type == deviceType && d.Online() {
			return true
		}
	}
	return false
}
