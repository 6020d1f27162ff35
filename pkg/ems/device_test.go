package ems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bibi40k/ems-provision/pkg/wizard"
)

func TestDeviceWizardLabels(t *testing.T) {
	def := DeviceWizard(DeviceOptions{})
	require.NoError(t, def.Check())
	assert.Equal(t, []string{
		"Device Type", "Profile Selection", "Basic Information", "Connection Details",
		"Point Map Configuration", "Capabilities", "Validation",
	}, def.Labels())
	for _, s := range def.Steps {
		assert.NotNil(t, s.Validate, s.Label)
	}
}

func TestDeviceBasics(t *testing.T) {
	def := DeviceWizard(DeviceOptions{
		IDTaken:       func(id string) bool { return id == "inv-1" },
		SiteExists:    func(id string) bool { return id == "kny-01" },
		ProfileExists: func(id string) bool { return id == "p1" },
	})

	typ := def.Steps[0].Validate
	assert.Equal(t, "required", typ(wizard.FormData{}).FieldErrors[FieldDeviceType])
	assert.Equal(t, "unknown device type", typ(wizard.FormData{FieldDeviceType: "toaster"}).FieldErrors[FieldDeviceType])
	assert.True(t, typ(wizard.FormData{FieldDeviceType: "inverter"}).OK)

	prof := def.Steps[1].Validate
	assert.True(t, prof(wizard.FormData{}).OK)
	assert.True(t, prof(wizard.FormData{FieldProfileID: NoProfile}).OK)
	assert.True(t, prof(wizard.FormData{FieldProfileID: "p1"}).OK)
	assert.False(t, prof(wizard.FormData{FieldProfileID: "p2"}).OK)

	basic := def.Steps[2].Validate
	res := basic(wizard.FormData{})
	assert.Equal(t, map[string]string{
		FieldDeviceID: "required", FieldPlantID: "required", FieldMake: "required", FieldModel: "required",
	}, res.FieldErrors)

	res = basic(wizard.FormData{FieldDeviceID: "inv-1", FieldPlantID: "nowhere", FieldMake: "SMA", FieldModel: "STP"})
	assert.Equal(t, "device ID already exists", res.FieldErrors[FieldDeviceID])
	assert.Equal(t, "unknown site", res.FieldErrors[FieldPlantID])

	res = basic(wizard.FormData{FieldDeviceID: "bad id", FieldPlantID: "kny-01", FieldMake: "SMA", FieldModel: "STP"})
	assert.Contains(t, res.FieldErrors[FieldDeviceID], "letters")

	assert.True(t, basic(wizard.FormData{FieldDeviceID: "inv-2", FieldPlantID: "kny-01", FieldMake: "SMA", FieldModel: "STP"}).OK)
}

func TestConnectionValidator(t *testing.T) {
	v := ConnectionValidator()
	tests := []struct {
		name string
		data wizard.FormData
		want map[string]string
	}{
		{"missing protocol", wizard.FormData{}, map[string]string{FieldProtocol: "required"}},
		{"tcp ok with defaults", wizard.FormData{FieldProtocol: ProtocolModbusTCP, FieldHost: "192.168.1.10"}, nil},
		{"tcp missing host", wizard.FormData{FieldProtocol: ProtocolModbusTCP}, map[string]string{FieldHost: "required"}},
		{"tcp bad values", wizard.FormData{FieldProtocol: ProtocolModbusTCP, FieldHost: "-x", FieldPort: 70000, FieldUnitID: 0},
			map[string]string{FieldHost: "invalid host", FieldPort: "must be between 1 and 65535", FieldUnitID: "must be between 1 and 247"}},
		{"rtu ok", wizard.FormData{FieldProtocol: ProtocolModbusRTU, FieldSerialPort: "/dev/ttyUSB0", FieldBaudrate: "19200", FieldParity: "E"}, nil},
		{"rtu bad", wizard.FormData{FieldProtocol: ProtocolRS485, FieldBaudrate: "1000", FieldParity: "X"},
			map[string]string{FieldSerialPort: "required", FieldBaudrate: "unsupported baud rate", FieldParity: "must be one of: N, E, O"}},
		{"mqtt ok", wizard.FormData{FieldProtocol: ProtocolMQTT, FieldHost: "broker.local", FieldTopicPrefix: "site/kny", FieldQoS: "0"}, nil},
		{"mqtt missing topic", wizard.FormData{FieldProtocol: ProtocolMQTT, FieldHost: "broker.local", FieldQoS: 3},
			map[string]string{FieldTopicPrefix: "required", FieldQoS: "must be between 0 and 2"}},
		{"poll interval", wizard.FormData{FieldProtocol: ProtocolModbusTCP, FieldHost: "plc", FieldPollInterval: "0"},
			map[string]string{FieldPollInterval: "must be between 1 and 86400"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v(tt.data)
			if tt.want == nil {
				assert.True(t, res.OK, res.String())
				return
			}
			assert.Equal(t, tt.want, res.FieldErrors)
		})
	}
}

func TestDeviceCapabilities(t *testing.T) {
	v := DeviceWizard(DeviceOptions{}).Steps[5].Validate
	assert.True(t, v(wizard.FormData{FieldDeviceType: "bms", FieldCapabilities: []string{"battery_charge_control"}}).OK)
	res := v(wizard.FormData{FieldDeviceType: "meter", FieldCapabilities: "energy_measurement, open_breaker"})
	assert.Equal(t, "not supported by device type: open_breaker", res.FieldErrors[FieldCapabilities])
}

func TestCapabilitiesFor(t *testing.T) {
	caps := CapabilitiesFor("inverter")
	assert.Contains(t, caps, "set_active_power_limit")
	assert.Contains(t, caps, "open_breaker")
	assert.NotContains(t, caps, "cell_balancing")
	assert.Nil(t, CapabilitiesFor("toaster"))
	assert.Equal(t, "Solar Inverter", DeviceTypeLabel("inverter"))
	assert.Equal(t, "toaster", DeviceTypeLabel("toaster"))
	assert.Contains(t, DeviceTypes(), "bms")
}

func TestBuildDevice(t *testing.T) {
	t.Run("modbus tcp defaults", func(t *testing.T) {
		d, err := BuildDevice(wizard.FormData{
			FieldDeviceType: "inverter", FieldProfileID: NoProfile, FieldDeviceID: "inv-2", FieldPlantID: "kny-01",
			FieldMake: "SMA", FieldModel: "STP", FieldProtocol: ProtocolModbusTCP, FieldHost: "10.0.0.5",
			FieldCapabilities: []any{"open_breaker"},
		}, fixedNow)
		require.NoError(t, err)
		assert.Equal(t, Connection{Host: "10.0.0.5", Port: 502, UnitID: 1, TimeoutMs: 3000}, d.Connection)
		assert.Equal(t, 60, d.PollInterval)
		assert.Equal(t, 3, d.Retries)
		assert.Empty(t, d.ProfileID)
		assert.Equal(t, map[string]bool{"open_breaker": true}, d.Capabilities)
		assert.Equal(t, CommissionActive, d.Commissioning)
	})

	t.Run("rtu overrides", func(t *testing.T) {
		d, err := BuildDevice(wizard.FormData{
			FieldDeviceID: "m1", FieldProtocol: ProtocolModbusRTU, FieldSerialPort: "/dev/ttyS0",
			FieldBaudrate: "19200", FieldPollInterval: 5,
		}, fixedNow)
		require.NoError(t, err)
		assert.Equal(t, Connection{SerialPort: "/dev/ttyS0", Baudrate: 19200, Parity: "N", StopBits: 1, UnitID: 1}, d.Connection)
		assert.Equal(t, 5, d.PollInterval)
	})

	t.Run("mqtt qos zero kept", func(t *testing.T) {
		d, err := BuildDevice(wizard.FormData{
			FieldDeviceID: "b1", FieldProtocol: ProtocolMQTT, FieldHost: "broker", FieldTopicPrefix: "ems", FieldQoS: "0",
		}, fixedNow)
		require.NoError(t, err)
		assert.Equal(t, Connection{Host: "broker", Port: 1883, TopicPrefix: "ems"}, d.Connection)
		assert.Equal(t, CommissionDraft, d.Commissioning, "no SunSpec over MQTT")
	})

	t.Run("unknown protocol", func(t *testing.T) {
		_, err := BuildDevice(wizard.FormData{FieldDeviceID: "x", FieldProtocol: "canbus"}, fixedNow)
		assert.Error(t, err)
	})
}

func TestApplyProfile(t *testing.T) {
	p := Profile{ID: "p1", Name: "STP 110", Vendor: "SMA", Protocol: ProtocolModbusTCP, Capabilities: []string{"open_breaker"}}
	in := wizard.FormData{FieldMake: "Custom"}
	out := ApplyProfile(in, p)

	assert.Equal(t, "Custom", out[FieldMake])
	assert.Equal(t, "STP 110", out[FieldModel])
	assert.Equal(t, ProtocolModbusTCP, out[FieldProtocol])
	assert.Equal(t, "p1", out[FieldProfileID])
	assert.Equal(t, "profiles/p1", out[FieldPointMap])
	assert.NotContains(t, in, FieldModel)
}
