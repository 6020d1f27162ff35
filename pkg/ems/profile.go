package ems

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Bibi40k/ems-provision/configs"
	"github.com/Bibi40k/ems-provision/pkg/wizard"
)

// ProfileWizardName identifies profile editor drafts.
const ProfileWizardName = "profile"

// Profile form fields. Device type, protocol and capabilities share the
// device form keys.
const (
	FieldProfileName = "profile_name"
	FieldVendor      = "vendor"
	FieldVersion     = "version"
	FieldPoints      = "points"
)

// PointDataTypes lists the register encodings a point map may use.
var PointDataTypes = []string{"uint16", "int16", "uint32", "int32", "float32", "boolean", "bitfield16"}

// ProfileOptions configures the profile editor.
type ProfileOptions struct {
	NameTaken func(name string) bool
}

// ProfileWizard returns the five-step profile editor definition.
func ProfileWizard(opts ProfileOptions) wizard.Definition {
	return wizard.Definition{
		Name: ProfileWizardName,
		Steps: []wizard.StepSpec{
			{
				Label:  "Identity",
				Fields: []string{FieldProfileName, FieldVendor, FieldVersion},
				Validate: wizard.Rules(
					wizard.Required(FieldProfileName),
					wizard.Check(FieldProfileName, func(data wizard.FormData) string {
						if opts.NameTaken != nil && opts.NameTaken(wizard.String(data, FieldProfileName)) {
							return "profile name already exists"
						}
						return ""
					}),
				),
			},
			{
				Label:  "Device Type",
				Fields: []string{FieldDeviceType, FieldProtocol},
				Validate: wizard.Rules(
					knownDeviceType(FieldDeviceType),
					wizard.Optional(FieldProtocol, wizard.OneOf(FieldProtocol, configs.Defaults.ProtocolNames()...)),
				),
			},
			{
				Label:  "Point Map",
				Fields: []string{FieldPoints},
				Validate: wizard.Rules(
					wizard.Required(FieldPoints),
					wizard.Check(FieldPoints, func(data wizard.FormData) string {
						if _, err := ParsePointMap(pointLines(data)); err != nil {
							return err.Error()
						}
						return ""
					}),
				),
			},
			{
				Label:    "Capabilities",
				Fields:   []string{FieldCapabilities},
				Validate: wizard.Rules(allowedCapabilities(FieldDeviceType, FieldCapabilities)),
			},
			{
				Label:    "Review",
				Fields:   []string{FieldConfirm},
				Validate: wizard.Rules(confirmed()),
			},
		},
	}
}

// pointLines returns the point map text as lines. The field holds either a
// list of lines or one multi-line string.
func pointLines(data wizard.FormData) []string {
	if s, ok := data[FieldPoints].(string); ok {
		return strings.Split(s, "\n")
	}
	return wizard.Strings(data, FieldPoints)
}

// ParsePointMap parses "address:name:type[:scale[:unit]]" lines. Blank lines
// and lines starting with '#' are skipped. Scale defaults to 1.
func ParsePointMap(lines []string) ([]PointMapEntry, error) {
	var out []PointMapEntry
	seen := map[string]bool{}
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ":")
		if len(parts) < 3 || len(parts) > 5 {
			return nil, fmt.Errorf("line %d: want address:name:type[:scale[:unit]]", i+1)
		}
		for j := range parts {
			parts[j] = strings.TrimSpace(parts[j])
		}
		addr, err := strconv.Atoi(parts[0])
		if err != nil || addr < 0 || addr > 65535 {
			return nil, fmt.Errorf("line %d: invalid register address %q", i+1, parts[0])
		}
		name := parts[1]
		if name == "" {
			return nil, fmt.Errorf("line %d: point name is empty", i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("line %d: duplicate point %q", i+1, name)
		}
		seen[name] = true
		if !slices.Contains(PointDataTypes, parts[2]) {
			return nil, fmt.Errorf("line %d: unknown data type %q", i+1, parts[2])
		}
		e := PointMapEntry{Address: addr, Name: name, DataType: parts[2], Scale: 1}
		if len(parts) > 3 && parts[3] != "" {
			if e.Scale, err = strconv.ParseFloat(parts[3], 64); err != nil || e.Scale == 0 {
				return nil, fmt.Errorf("line %d: invalid scale %q", i+1, parts[3])
			}
		}
		if len(parts) > 4 {
			e.Unit = parts[4]
		}
		out = append(out, e)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("point map has no points")
	}
	return out, nil
}

// FormatPointMap renders entries in the ParsePointMap line format.
func FormatPointMap(points []PointMapEntry) []string {
	out := make([]string, len(points))
	for i, p := range points {
		line := fmt.Sprintf("%d:%s:%s:%s", p.Address, p.Name, p.DataType, strconv.FormatFloat(p.Scale, 'f', -1, 64))
		if p.Unit != "" {
			line += ":" + p.Unit
		}
		out[i] = line
	}
	return out
}

// BuildProfile turns completed profile form data into a Profile with a new ID.
func BuildProfile(data wizard.FormData, now time.Time) (Profile, error) {
	points, err := ParsePointMap(pointLines(data))
	if err != nil {
		return Profile{}, err
	}
	p := Profile{
		ID:           uuid.NewString(),
		Name:         wizard.String(data, FieldProfileName),
		Vendor:       wizard.String(data, FieldVendor),
		Version:      wizard.String(data, FieldVersion),
		DeviceType:   wizard.String(data, FieldDeviceType),
		Protocol:     wizard.String(data, FieldProtocol),
		Points:       points,
		Capabilities: wizard.Strings(data, FieldCapabilities),
		CreatedAt:    now.UTC(),
	}
	if p.Name == "" {
		return Profile{}, fmt.Errorf("profile name is required")
	}
	return p, nil
}
