// Package ems holds the EMS provisioning domain: sites, devices, device
// profiles and users, the wizard definitions that collect them, and the
// builders that turn completed form data into records.
package ems

import (
	"slices"
	"time"

	"github.com/Bibi40k/ems-provision/configs"
)

// Protocol names accepted by the device wizards.
const (
	ProtocolModbusTCP = "modbus_tcp"
	ProtocolModbusRTU = "modbus_rtu"
	ProtocolRS485     = "rs485"
	ProtocolMQTT      = "mqtt"
)

// Transport kinds declared per protocol in configs/defaults.yaml.
const (
	TransportTCP    = "tcp"
	TransportSerial = "serial"
	TransportBroker = "broker"
)

// Site status values.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Site is a provisioned plant.
type Site struct {
	ID          string     `yaml:"id" json:"id"`
	Name        string     `yaml:"name" json:"name"`
	Code        string     `yaml:"code,omitempty" json:"code,omitempty"`
	Type        string     `yaml:"type" json:"type"`
	Operator    string     `yaml:"operator,omitempty" json:"operator,omitempty"`
	Contact     Contact    `yaml:"contact,omitempty" json:"contact,omitempty"`
	Location    Location   `yaml:"location" json:"location"`
	Capacity    Capacity   `yaml:"capacity" json:"capacity"`
	CapacityMW  float64    `yaml:"capacity_mw" json:"capacity_mw"`
	SoC         *int       `yaml:"soc,omitempty" json:"soc,omitempty"`
	Status      string     `yaml:"status" json:"status"`
	Discovery   Discovery  `yaml:"discovery,omitempty" json:"discovery,omitempty"`
	Automation  Automation `yaml:"automation,omitempty" json:"automation,omitempty"`
	Grid        Grid       `yaml:"grid,omitempty" json:"grid,omitempty"`
	CreatedAt   time.Time  `yaml:"created_at" json:"created_at"`
	CreatedBy   string     `yaml:"created_by,omitempty" json:"created_by,omitempty"`
	DeviceCount int        `yaml:"device_count" json:"device_count"`
}

// Key implements store.Record.
func (s Site) Key() string { return s.ID }

// Contact is the site's responsible person.
type Contact struct {
	Name  string `yaml:"name,omitempty" json:"name,omitempty"`
	Email string `yaml:"email,omitempty" json:"email,omitempty"`
	Phone string `yaml:"phone,omitempty" json:"phone,omitempty"`
}

// Location is the site's geographic position.
type Location struct {
	Lat      float64 `yaml:"lat" json:"lat"`
	Lng      float64 `yaml:"lng" json:"lng"`
	Country  string  `yaml:"country,omitempty" json:"country,omitempty"`
	City     string  `yaml:"city,omitempty" json:"city,omitempty"`
	Address  string  `yaml:"address,omitempty" json:"address,omitempty"`
	Timezone string  `yaml:"timezone" json:"timezone"`
}

// Capacity describes installed generation and storage.
type Capacity struct {
	DCMWp         float64 `yaml:"dc_mwp,omitempty" json:"dc_mwp,omitempty"`
	ACMVA         float64 `yaml:"ac_mva,omitempty" json:"ac_mva,omitempty"`
	Topology      string  `yaml:"topology,omitempty" json:"topology,omitempty"`
	InverterCount int     `yaml:"inverter_count" json:"inverter_count"`
	HasBESS       bool    `yaml:"has_bess" json:"has_bess"`
	BESSKWh       float64 `yaml:"bess_kwh,omitempty" json:"bess_kwh,omitempty"`
	BESSKW        float64 `yaml:"bess_kw,omitempty" json:"bess_kw,omitempty"`
}

// Discovery records the network scan that preceded provisioning.
type Discovery struct {
	CIDR     string             `yaml:"cidr,omitempty" json:"cidr,omitempty"`
	Protocol string             `yaml:"protocol,omitempty" json:"protocol,omitempty"`
	Devices  []DiscoveredDevice `yaml:"devices,omitempty" json:"devices,omitempty"`
}

// Automation holds breaker control settings.
type Automation struct {
	Breakers    []Breaker `yaml:"breakers,omitempty" json:"breakers,omitempty"`
	PulseMs     int       `yaml:"pulse_ms,omitempty" json:"pulse_ms,omitempty"`
	DualConfirm bool      `yaml:"dual_confirm" json:"dual_confirm"`
}

// Breaker is one controllable breaker on the site.
type Breaker struct {
	Name      string `yaml:"name" json:"name"`
	OpenCoil  string `yaml:"open_coil,omitempty" json:"open_coil,omitempty"`
	CloseCoil string `yaml:"close_coil,omitempty" json:"close_coil,omitempty"`
}

// Grid holds grid connection and tariff settings.
type Grid struct {
	ExportLimitKW float64 `yaml:"export_limit_kw,omitempty" json:"export_limit_kw,omitempty"`
	GridCode      string  `yaml:"grid_code,omitempty" json:"grid_code,omitempty"`
	TariffPlan    string  `yaml:"tariff_plan,omitempty" json:"tariff_plan,omitempty"`
	Currency      string  `yaml:"currency,omitempty" json:"currency,omitempty"`
}

// Device is a field device attached to a site.
type Device struct {
	ID            string            `yaml:"id" json:"id"`
	PlantID       string            `yaml:"plant_id" json:"plant_id"`
	Type          string            `yaml:"type" json:"type"`
	Make          string            `yaml:"make" json:"make"`
	Model         string            `yaml:"model" json:"model"`
	ProfileID     string            `yaml:"profile_id,omitempty" json:"profile_id,omitempty"`
	Protocol      string            `yaml:"protocol" json:"protocol"`
	Connection    Connection        `yaml:"connection" json:"connection"`
	PollInterval  int               `yaml:"poll_interval_s" json:"poll_interval_s"`
	Retries       int               `yaml:"retries" json:"retries"`
	PointMap      string            `yaml:"point_map,omitempty" json:"point_map,omitempty"`
	Capabilities  map[string]bool   `yaml:"capabilities,omitempty" json:"capabilities,omitempty"`
	Overrides     map[string]string `yaml:"overrides,omitempty" json:"overrides,omitempty"`
	// Commissioning is CommissionActive or CommissionDraft.
	Commissioning string            `yaml:"commissioning,omitempty" json:"commissioning,omitempty"`
	CreatedAt     time.Time         `yaml:"created_at" json:"created_at"`
}

// Key implements store.Record.
func (d Device) Key() string { return d.ID }

// Connection holds protocol-specific transport settings. Only the fields of
// the device's transport are set.
type Connection struct {
	Host        string `yaml:"host,omitempty" json:"host,omitempty"`
	Port        int    `yaml:"port,omitempty" json:"port,omitempty"`
	UnitID      int    `yaml:"unit_id,omitempty" json:"unit_id,omitempty"`
	TimeoutMs   int    `yaml:"timeout_ms,omitempty" json:"timeout_ms,omitempty"`
	SerialPort  string `yaml:"serial_port,omitempty" json:"serial_port,omitempty"`
	Baudrate    int    `yaml:"baudrate,omitempty" json:"baudrate,omitempty"`
	Parity      string `yaml:"parity,omitempty" json:"parity,omitempty"`
	StopBits    int    `yaml:"stop_bits,omitempty" json:"stop_bits,omitempty"`
	TopicPrefix string `yaml:"topic_prefix,omitempty" json:"topic_prefix,omitempty"`
	QoS         int    `yaml:"qos,omitempty" json:"qos,omitempty"`
}

// Profile is a reusable device template.
type Profile struct {
	ID           string          `yaml:"id" json:"id"`
	Name         string          `yaml:"name" json:"name"`
	Vendor       string          `yaml:"vendor,omitempty" json:"vendor,omitempty"`
	Version      string          `yaml:"version,omitempty" json:"version,omitempty"`
	DeviceType   string          `yaml:"device_type" json:"device_type"`
	Protocol     string          `yaml:"protocol,omitempty" json:"protocol,omitempty"`
	Points       []PointMapEntry `yaml:"points" json:"points"`
	Capabilities []string        `yaml:"capabilities,omitempty" json:"capabilities,omitempty"`
	CreatedAt    time.Time       `yaml:"created_at" json:"created_at"`
}

// Key implements store.Record.
func (p Profile) Key() string { return p.ID }

// PointMapEntry maps one register to a named point.
type PointMapEntry struct {
	Address  int     `yaml:"address" json:"address"`
	Name     string  `yaml:"name" json:"name"`
	DataType string  `yaml:"data_type" json:"data_type"`
	Scale    float64 `yaml:"scale" json:"scale"`
	Unit     string  `yaml:"unit,omitempty" json:"unit,omitempty"`
}

// User is an operator account.
type User struct {
	ID           string    `yaml:"id" json:"id"`
	Username     string    `yaml:"username" json:"username"`
	FullName     string    `yaml:"full_name,omitempty" json:"full_name,omitempty"`
	Email        string    `yaml:"email" json:"email"`
	Role         string    `yaml:"role" json:"role"`
	Sites        []string  `yaml:"sites,omitempty" json:"sites,omitempty"`
	PasswordHash string    `yaml:"password_hash" json:"password_hash"`
	MFA          bool      `yaml:"mfa" json:"mfa"`
	CreatedAt    time.Time `yaml:"created_at" json:"created_at"`
}

// Key implements store.Record.
func (u User) Key() string { return u.Username }

// DeviceTypes returns the catalog of device type values.
func DeviceTypes() []string {
	out := make([]string, len(configs.Defaults.DeviceTypes))
	for i, t := range configs.Defaults.DeviceTypes {
		out[i] = t.Value
	}
	return out
}

// DeviceTypeLabel returns the display name for a device type, or the value
// itself when unknown.
func DeviceTypeLabel(value string) string {
	if t, ok := configs.Defaults.DeviceType(value); ok {
		return t.Label
	}
	return value
}

// CapabilitiesFor returns the capability keys a device type may declare, in
// catalog order.
func CapabilitiesFor(deviceType string) []string {
	t, ok := configs.Defaults.DeviceType(deviceType)
	if !ok {
		return nil
	}
	var out []string
	for _, g := range t.Groups {
		for _, c := range configs.Defaults.CapabilityGroups[g].Capabilities {
			if !slices.Contains(out, c.Key) {
				out = append(out, c.Key)
			}
		}
	}
	return out
}

// Transport returns the transport kind of a protocol, or "" when unknown.
func Transport(protocol string) string {
	return configs.Defaults.Protocols[protocol].Transport
}
