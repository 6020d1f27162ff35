package ems

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/Bibi40k/ems-provision/configs"
	"github.com/Bibi40k/ems-provision/internal/utils"
	"github.com/Bibi40k/ems-provision/pkg/wizard"
)

// DeviceWizardName identifies add-device drafts.
const DeviceWizardName = "device"

// Device form fields.
const (
	FieldDeviceType   = "device_type"
	FieldProfileID    = "profile_id"
	FieldDeviceID     = "id"
	FieldPlantID      = "plant_id"
	FieldMake         = "make"
	FieldModel        = "model"
	FieldProtocol     = "protocol"
	FieldHost         = "host"
	FieldPort         = "port"
	FieldUnitID       = "unit_id"
	FieldTimeoutMs    = "timeout_ms"
	FieldSerialPort   = "serial_port"
	FieldBaudrate     = "baudrate"
	FieldParity       = "parity"
	FieldStopBits     = "stop_bits"
	FieldTopicPrefix  = "topic_prefix"
	FieldQoS          = "qos"
	FieldPollInterval = "poll_interval_s"
	FieldPointMap     = "point_map"
	FieldCapabilities = "capabilities"
)

// NoProfile is the profile selection meaning "configure manually".
const NoProfile = "none"

var (
	deviceIDRE = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)
	baudrates  = []int{1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200}
)

// DeviceOptions configures the add-device wizard. Nil lookups accept any value.
type DeviceOptions struct {
	IDTaken       func(id string) bool
	SiteExists    func(id string) bool
	ProfileExists func(id string) bool
}

// DeviceWizard returns the seven-step add-device definition.
func DeviceWizard(opts DeviceOptions) wizard.Definition {
	return wizard.Definition{
		Name: DeviceWizardName,
		Steps: []wizard.StepSpec{
			{
				Label:    "Device Type",
				Fields:   []string{FieldDeviceType},
				Validate: wizard.Rules(knownDeviceType(FieldDeviceType)),
			},
			{
				Label:  "Profile Selection",
				Fields: []string{FieldProfileID},
				Validate: wizard.Rules(
					wizard.Check(FieldProfileID, func(data wizard.FormData) string {
						id := wizard.String(data, FieldProfileID)
						if id == "" || id == NoProfile || opts.ProfileExists == nil {
							return ""
						}
						if !opts.ProfileExists(id) {
							return "unknown profile"
						}
						return ""
					}),
				),
			},
			{
				Label:  "Basic Information",
				Fields: []string{FieldDeviceID, FieldPlantID, FieldMake, FieldModel},
				Validate: wizard.Rules(
					wizard.Required(FieldDeviceID),
					wizard.MatchRegexp(FieldDeviceID, deviceIDRE, "letters, digits, '.', '_' and '-' only"),
					wizard.Check(FieldDeviceID, func(data wizard.FormData) string {
						if opts.IDTaken != nil && opts.IDTaken(wizard.String(data, FieldDeviceID)) {
							return "device ID already exists"
						}
						return ""
					}),
					wizard.Required(FieldPlantID),
					wizard.Check(FieldPlantID, func(data wizard.FormData) string {
						id := wizard.String(data, FieldPlantID)
						if id != "" && opts.SiteExists != nil && !opts.SiteExists(id) {
							return "unknown site"
						}
						return ""
					}),
					wizard.Required(FieldMake),
					wizard.Required(FieldModel),
				),
			},
			{
				Label: "Connection Details",
				Fields: []string{FieldProtocol, FieldHost, FieldPort, FieldUnitID, FieldTimeoutMs,
					FieldSerialPort, FieldBaudrate, FieldParity, FieldStopBits, FieldTopicPrefix, FieldQoS, FieldPollInterval},
				Validate: ConnectionValidator(),
			},
			{
				Label:    "Point Map Configuration",
				Fields:   []string{FieldPointMap},
				Validate: wizard.Rules(wizard.MatchRegexp(FieldPointMap, pointMapNameRE, "must be a point map name or file path")),
			},
			{
				Label:    "Capabilities",
				Fields:   []string{FieldCapabilities},
				Validate: wizard.Rules(allowedCapabilities(FieldDeviceType, FieldCapabilities)),
			},
			{
				Label:    "Validation",
				Fields:   []string{FieldConfirm},
				Validate: wizard.Rules(confirmed()),
			},
		},
	}
}

var pointMapNameRE = regexp.MustCompile(`^[A-Za-z0-9_./-]+$`)

// ConnectionValidator checks the connection fields for the selected
// protocol. Empty numeric fields are accepted and take protocol defaults.
func ConnectionValidator() wizard.Validator {
	isTransport := func(kind string) func(wizard.FormData) bool {
		return func(data wizard.FormData) bool {
			return Transport(wizard.String(data, FieldProtocol)) == kind
		}
	}
	return wizard.Rules(
		wizard.Required(FieldProtocol),
		wizard.OneOf(FieldProtocol, configs.Defaults.ProtocolNames()...),
		wizard.When(isTransport(TransportTCP),
			requiredHost(),
			wizard.Optional(FieldPort, wizard.IntRange(FieldPort, 1, 65535)),
			wizard.Optional(FieldUnitID, wizard.IntRange(FieldUnitID, 1, 247)),
			wizard.Optional(FieldTimeoutMs, wizard.IntRange(FieldTimeoutMs, 100, 60000)),
		),
		wizard.When(isTransport(TransportSerial),
			wizard.Required(FieldSerialPort),
			wizard.Optional(FieldBaudrate, wizard.Check(FieldBaudrate, func(data wizard.FormData) string {
				b, ok := wizard.Int(data, FieldBaudrate)
				if !ok || !slices.Contains(baudrates, b) {
					return "unsupported baud rate"
				}
				return ""
			})),
			wizard.Optional(FieldParity, wizard.OneOf(FieldParity, "N", "E", "O")),
			wizard.Optional(FieldStopBits, wizard.IntRange(FieldStopBits, 1, 2)),
			wizard.Optional(FieldUnitID, wizard.IntRange(FieldUnitID, 1, 247)),
		),
		wizard.When(isTransport(TransportBroker),
			requiredHost(),
			wizard.Optional(FieldPort, wizard.IntRange(FieldPort, 1, 65535)),
			wizard.Required(FieldTopicPrefix),
			wizard.Optional(FieldQoS, wizard.IntRange(FieldQoS, 0, 2)),
		),
		wizard.Optional(FieldPollInterval, wizard.IntRange(FieldPollInterval, 1, 86400)),
	)
}

func requiredHost() wizard.Rule {
	return func(data wizard.FormData, errs map[string]string) {
		wizard.Required(FieldHost)(data, errs)
		wizard.Check(FieldHost, func(data wizard.FormData) string {
			h := wizard.String(data, FieldHost)
			if h == "" {
				return ""
			}
			if err := utils.ValidateHost(h); err != nil {
				return "invalid host"
			}
			return ""
		})(data, errs)
	}
}

func knownDeviceType(field string) wizard.Rule {
	return wizard.Check(field, func(data wizard.FormData) string {
		v := wizard.String(data, field)
		if v == "" {
			return "required"
		}
		if _, ok := configs.Defaults.DeviceType(v); !ok {
			return "unknown device type"
		}
		return ""
	})
}

func allowedCapabilities(typeField, field string) wizard.Rule {
	return wizard.Check(field, func(data wizard.FormData) string {
		allowed := CapabilitiesFor(wizard.String(data, typeField))
		var bad []string
		for _, c := range wizard.Strings(data, field) {
			if !slices.Contains(allowed, c) {
				bad = append(bad, c)
			}
		}
		if len(bad) > 0 {
			return "not supported by device type: " + strings.Join(bad, ", ")
		}
		return ""
	})
}

// ApplyProfile pre-fills device form fields from a profile. Fields the
// operator already set are kept.
func ApplyProfile(data wizard.FormData, p Profile) wizard.FormData {
	out := data.Clone()
	set := func(k string, v any) {
		if wizard.String(out, k) == "" {
			out[k] = v
		}
	}
	out[FieldProfileID] = p.ID
	set(FieldMake, p.Vendor)
	set(FieldModel, p.Name)
	if p.Protocol != "" {
		set(FieldProtocol, p.Protocol)
	}
	set(FieldPointMap, slugOrName(p))
	if len(p.Capabilities) > 0 {
		set(FieldCapabilities, slices.Clone(p.Capabilities))
	}
	return out
}

func slugOrName(p Profile) string {
	if p.ID != "" {
		return "profiles/" + p.ID
	}
	return p.Name
}

// BuildDevice turns completed device form data into a Device. Unset
// connection fields take the protocol defaults.
func BuildDevice(data wizard.FormData, now time.Time) (Device, error) {
	protocol := wizard.String(data, FieldProtocol)
	pd, ok := configs.Defaults.Protocols[protocol]
	if !ok {
		return Device{}, fmt.Errorf("unknown protocol %q", protocol)
	}
	dd := configs.Defaults.Device

	d := Device{
		ID:        wizard.String(data, FieldDeviceID),
		PlantID:   wizard.String(data, FieldPlantID),
		Type:      wizard.String(data, FieldDeviceType),
		Make:      wizard.String(data, FieldMake),
		Model:     wizard.String(data, FieldModel),
		Protocol:  protocol,
		PointMap:  wizard.String(data, FieldPointMap),
		Retries:   dd.Retries,
		CreatedAt: now.UTC(),
	}
	if d.ID == "" {
		return Device{}, fmt.Errorf("device ID is required")
	}
	if p := wizard.String(data, FieldProfileID); p != NoProfile {
		d.ProfileID = p
	}
	d.PollInterval = intOr(data, FieldPollInterval, dd.PollIntervalSeconds)

	c := &d.Connection
	switch pd.Transport {
	case TransportTCP:
		c.Host = wizard.String(data, FieldHost)
		c.Port = intOr(data, FieldPort, pd.Port)
		c.UnitID = intOr(data, FieldUnitID, pd.UnitID)
		c.TimeoutMs = intOr(data, FieldTimeoutMs, orInt(pd.TimeoutMs, dd.TimeoutMs))
	case TransportSerial:
		c.SerialPort = wizard.String(data, FieldSerialPort)
		c.Baudrate = intOr(data, FieldBaudrate, pd.Baudrate)
		c.Parity = wizard.String(data, FieldParity)
		if c.Parity == "" {
			c.Parity = pd.Parity
		}
		c.StopBits = intOr(data, FieldStopBits, pd.StopBits)
		c.UnitID = intOr(data, FieldUnitID, orInt(pd.UnitID, 1))
	case TransportBroker:
		c.Host = wizard.String(data, FieldHost)
		c.Port = intOr(data, FieldPort, pd.Port)
		c.TopicPrefix = wizard.String(data, FieldTopicPrefix)
		c.QoS = intOr(data, FieldQoS, pd.QoS)
	}

	if caps := wizard.Strings(data, FieldCapabilities); len(caps) > 0 {
		d.Capabilities = make(map[string]bool, len(caps))
		for _, k := range caps {
			d.Capabilities[k] = true
		}
	}
	d.Commissioning = Commission(data).Outcome()
	return d, nil
}

func intOr(data wizard.FormData, key string, def int) int {
	if wizard.String(data, key) == "" {
		return def
	}
	if v, ok := wizard.Int(data, key); ok {
		return v
	}
	return def
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
