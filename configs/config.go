// Package configs provides library defaults loaded from an embedded YAML file.
// All hardcoded catalog values (device types, protocols, roles) live in
// defaults.yaml.
package configs

import (
	_ "embed"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Defaults holds all library default values (loaded from defaults.yaml at startup).
var Defaults LibDefaults

func init() {
	if err := yaml.Unmarshal(defaultsYAML, &Defaults); err != nil {
		panic("ems-provision: invalid defaults.yaml: " + err.Error())
	}
}

// LibDefaults holds all configurable library defaults.
type LibDefaults struct {
	Store            StoreDefaults                   `yaml:"store"`
	Site             SiteDefaults                    `yaml:"site"`
	Device           DeviceDefaults                  `yaml:"device"`
	Protocols        map[string]ProtocolDefault      `yaml:"protocols"`
	DeviceTypes      []DeviceTypeInfo                `yaml:"device_types"`
	CapabilityGroups map[string]CapabilityGroup      `yaml:"capability_groups"`
	Roles            []RoleInfo                      `yaml:"roles"`
	Users            UserDefaults                    `yaml:"users"`
	Discovery        []DiscoverySample               `yaml:"discovery"`
	Commissioning    map[string][]CommissioningCheck `yaml:"commissioning"`
}

// StoreDefaults holds persistence defaults.
type StoreDefaults struct {
	Kind     string `yaml:"kind"`
	DataDir  string `yaml:"data_dir"`
	DraftDir string `yaml:"draft_dir"`
}

// SiteDefaults holds site provisioning defaults.
type SiteDefaults struct {
	DefaultLat     float64  `yaml:"default_lat"`
	DefaultLng     float64  `yaml:"default_lng"`
	Timezone       string   `yaml:"timezone"`
	BESSInitialSoC int      `yaml:"bess_initial_soc"`
	ReservedNames  []string `yaml:"reserved_names"`
	Types          []string `yaml:"types"`
	Topologies     []string `yaml:"topologies"`
	Breakers       int      `yaml:"breakers"`
}

// DeviceDefaults holds polling defaults for new devices.
type DeviceDefaults struct {
	PollIntervalSeconds int `yaml:"poll_interval_s"`
	TimeoutMs           int `yaml:"timeout_ms"`
	Retries             int `yaml:"retries"`
}


// ProtocolDefault holds connection defaults for one protocol.
type ProtocolDefault struct {
	Label     string `yaml:"label"`
	Transport string `yaml:"transport"` // tcp, serial or broker
	Port      int    `yaml:"port,omitempty"`
	UnitID    int    `yaml:"unit_id,omitempty"`
	TimeoutMs int    `yaml:"timeout_ms,omitempty"`
	Baudrate  int    `yaml:"baudrate,omitempty"`
	Parity    string `yaml:"parity,omitempty"`
	StopBits  int    `yaml:"stop_bits,omitempty"`
	QoS       int    `yaml:"qos,omitempty"`
}

// DeviceTypeInfo describes one device type and its capability groups.
type DeviceTypeInfo struct {
	Value  string   `yaml:"value"`
	Label  string   `yaml:"label"`
	Groups []string `yaml:"groups"`
}

// CapabilityGroup is a titled set of capabilities.
type CapabilityGroup struct {
	Title        string       `yaml:"title"`
	Capabilities []Capability `yaml:"capabilities"`
}

// Capability is a single controllable or observable feature.
type Capability struct {
	Key   string `yaml:"key"`
	Label string `yaml:"label"`
}

// RoleInfo is an RBAC role and its permission flags. Nothing enforces them.
type RoleInfo struct {
	Name        string `yaml:"name"`
	Map         bool   `yaml:"map"`
	Control     bool   `yaml:"control"`
	Sampling    bool   `yaml:"sampling"`
	Publish     bool   `yaml:"publish"`
	Secrets     bool   `yaml:"secrets"`
	DualConfirm bool   `yaml:"dual_confirm"`
}

// UserDefaults holds account policy defaults.
type UserDefaults struct {
	PasswordMinLength int `yaml:"password_min_length"`
}

// DiscoverySample is one simulated discovery result.
type DiscoverySample struct {
	ID       string `yaml:"id"`
	Type     string `yaml:"type"`
	Vendor   string `yaml:"vendor"`
	Model    string `yaml:"model"`
	IP       string `yaml:"ip"`
	Port     int    `yaml:"port"`
	Protocol string `yaml:"protocol,omitempty"`
	Status   string `yaml:"status"`
}

// CommissioningCheck is one item of a device type's commissioning checklist.
// Pass and Fail are the simulated result details.
type CommissioningCheck struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Required bool   `yaml:"required"`
	Pass     string `yaml:"pass"`
	Fail     string `yaml:"fail"`
}

// ProtocolNames returns the configured protocol keys in sorted order.
func (d LibDefaults) ProtocolNames() []string {
	out := make([]string, 0, len(d.Protocols))
	for k := range d.Protocols {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// RoleNames returns role names in catalog order.
func (d LibDefaults) RoleNames() []string {
	out := make([]string, len(d.Roles))
	for i, r := range d.Roles {
		out[i] = r.Name
	}
	return out
}

// DeviceType looks up a device type by value.
func (d LibDefaults) DeviceType(value string) (DeviceTypeInfo, bool) {
	for _, t := range d.DeviceTypes {
		if t.Value == value {
			return t, true
		}
	}
	return DeviceTypeInfo{}, false
}
