package ems

import (
	"github.com/Bibi40k/ems-provision/configs"
	"github.com/Bibi40k/ems-provision/pkg/wizard"
)

// Commissioning outcomes stored on a device.
const (
	CommissionActive = "active"
	CommissionDraft  = "draft"
)

// CheckResult is the outcome of one commissioning check.
type CheckResult struct {
	ID       string
	Name     string
	Required bool
	Passed   bool
	Detail   string
}

// CommissioningReport is a simulated commissioning run for one device.
type CommissioningReport struct {
	DeviceType string
	Results    []CheckResult
}

// Checklist returns the commissioning checks for deviceType. Types without
// their own list use the inverter checklist.
func Checklist(deviceType string) []configs.CommissioningCheck {
	if checks, ok := configs.Defaults.Commissioning[deviceType]; ok {
		return checks
	}
	return configs.Defaults.Commissioning["inverter"]
}

// Commission runs the checklist against the entered device fields. No
// traffic is sent: link checks pass when the connection settings are
// valid, SunSpec needs a Modbus transport, everything else is a dry-run
// and passes.
func Commission(data wizard.FormData) CommissioningReport {
	deviceType := wizard.String(data, FieldDeviceType)
	linkOK := ConnectionValidator()(data).OK
	transport := Transport(wizard.String(data, FieldProtocol))

	r := CommissioningReport{DeviceType: deviceType}
	for _, c := range Checklist(deviceType) {
		passed := true
		switch c.ID {
		case "conn":
			passed = linkOK
		case "sunspec":
			passed = linkOK && (transport == TransportTCP || transport == TransportSerial)
		}
		detail := c.Pass
		if !passed {
			detail = c.Fail
		}
		r.Results = append(r.Results, CheckResult{ID: c.ID, Name: c.Name, Required: c.Required, Passed: passed, Detail: detail})
	}
	return r
}

// Counts returns passed and total checks, overall and for required ones.
func (r CommissioningReport) Counts() (passed, total, requiredPassed, requiredTotal int) {
	for _, c := range r.Results {
		total++
		if c.Passed {
			passed++
		}
		if c.Required {
			requiredTotal++
			if c.Passed {
				requiredPassed++
			}
		}
	}
	return passed, total, requiredPassed, requiredTotal
}

// CanActivate reports whether every required check passed.
func (r CommissioningReport) CanActivate() bool {
	_, _, rp, rt := r.Counts()
	return rp == rt
}

// Outcome is CommissionActive when the device can be activated, else
// CommissionDraft.
func (r CommissioningReport) Outcome() string {
	if r.CanActivate() {
		return CommissionActive
	}
	return CommissionDraft
}
