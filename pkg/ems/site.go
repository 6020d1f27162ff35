package ems

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/Bibi40k/ems-provision/configs"
	"github.com/Bibi40k/ems-provision/internal/utils"
	"github.com/Bibi40k/ems-provision/pkg/wizard"
)

// SiteWizardName identifies site provisioning drafts.
const SiteWizardName = "site"

// Site form fields.
const (
	FieldSiteName      = "name"
	FieldSiteCode      = "code"
	FieldSiteType      = "type"
	FieldOperator      = "operator"
	FieldContactName   = "contact_name"
	FieldContactEmail  = "contact_email"
	FieldContactPhone  = "contact_phone"
	FieldLat           = "lat"
	FieldLng           = "lng"
	FieldCountry       = "country"
	FieldCity          = "city"
	FieldAddress       = "address"
	FieldTimezone      = "timezone"
	FieldDCMWp         = "dc_mwp"
	FieldACMVA         = "ac_mva"
	FieldTopology      = "topology"
	FieldInverterCount = "inverter_count"
	FieldHasBESS       = "has_bess"
	FieldBESSKWh       = "bess_kwh"
	FieldBESSKW        = "bess_kw"
	FieldScanCIDR      = "scan_cidr"
	FieldScanProtocol  = "scan_protocol"
	FieldDiscovered    = "discovered"
	FieldBreakers      = "breakers"
	FieldPulseMs       = "pulse_ms"
	FieldDualConfirm   = "dual_confirm"
	FieldExportLimitKW = "export_limit_kw"
	FieldGridCode      = "grid_code"
	FieldTariffPlan    = "tariff_plan"
	FieldCurrency      = "currency"
	FieldConfirm       = "confirm"
)

// SiteOptions configures the site provisioning wizard.
type SiteOptions struct {
	// NameTaken reports whether a site with this name already exists.
	NameTaken func(name string) bool
}

// SiteWizard returns the seven-step site provisioning definition.
func SiteWizard(opts SiteOptions) wizard.Definition {
	d := configs.Defaults.Site
	return wizard.Definition{
		Name: SiteWizardName,
		Steps: []wizard.StepSpec{
			{
				Label:  "Basics",
				Fields: []string{FieldSiteName, FieldSiteCode, FieldSiteType, FieldOperator, FieldContactName, FieldContactEmail, FieldContactPhone},
				Validate: wizard.Rules(
					wizard.Required(FieldSiteName),
					wizard.Check(FieldSiteName, func(data wizard.FormData) string {
						return siteNameProblem(wizard.String(data, FieldSiteName), opts.NameTaken)
					}),
					wizard.Optional(FieldSiteType, wizard.OneOf(FieldSiteType, d.Types...)),
					wizard.Email(FieldContactEmail),
					wizard.Phone(FieldContactPhone),
				),
			},
			{
				Label:  "Location",
				Fields: []string{FieldLat, FieldLng, FieldCountry, FieldCity, FieldAddress, FieldTimezone},
				Validate: wizard.Rules(
					wizard.FloatRange(FieldLat, -90, 90),
					wizard.FloatRange(FieldLng, -180, 180),
					wizard.Check(FieldTimezone, func(data wizard.FormData) string {
						if tz := wizard.String(data, FieldTimezone); strings.ContainsAny(tz, " \t") {
							return "must not contain spaces"
						}
						return ""
					}),
				),
			},
			{
				Label:  "Capacity",
				Fields: []string{FieldDCMWp, FieldACMVA, FieldTopology, FieldInverterCount, FieldHasBESS, FieldBESSKWh, FieldBESSKW},
				Validate: wizard.Rules(
					wizard.Optional(FieldDCMWp, wizard.FloatRange(FieldDCMWp, 0, 10000)),
					wizard.Optional(FieldACMVA, wizard.FloatRange(FieldACMVA, 0, 10000)),
					wizard.Optional(FieldTopology, wizard.OneOf(FieldTopology, d.Topologies...)),
					wizard.IntRange(FieldInverterCount, 1, 10000),
					wizard.When(func(data wizard.FormData) bool { return wizard.Bool(data, FieldHasBESS) },
						positive(FieldBESSKWh),
						positive(FieldBESSKW),
					),
				),
			},
			{
				Label:  "Discovery",
				Fields: []string{FieldScanCIDR, FieldScanProtocol, FieldDiscovered},
				Validate: wizard.Rules(
					wizard.Optional(FieldScanCIDR, wizard.Check(FieldScanCIDR, func(data wizard.FormData) string {
						if _, err := utils.ValidateCIDR(wizard.String(data, FieldScanCIDR)); err != nil {
							return err.Error()
						}
						return ""
					})),
					wizard.Check(FieldDiscovered, discoveryProblem),
				),
			},
			{
				Label:  "Automation",
				Fields: []string{FieldBreakers, FieldPulseMs, FieldDualConfirm},
				Validate: wizard.Rules(
					wizard.Optional(FieldPulseMs, wizard.IntRange(FieldPulseMs, 50, 5000)),
				),
			},
			{
				Label:  "Grid & Tariff",
				Fields: []string{FieldExportLimitKW, FieldGridCode, FieldTariffPlan, FieldCurrency},
				Validate: wizard.Rules(
					wizard.Optional(FieldExportLimitKW, wizard.FloatRange(FieldExportLimitKW, 0, 1e7)),
				),
			},
			{
				Label:    "Summary",
				Fields:   []string{FieldConfirm},
				Validate: wizard.Rules(confirmed()),
			},
		},
	}
}

func siteNameProblem(name string, taken func(string) bool) string {
	if name == "" {
		return ""
	}
	for _, r := range configs.Defaults.Site.ReservedNames {
		if strings.EqualFold(name, r) {
			return "site name already exists"
		}
	}
	if taken != nil && taken(name) {
		return "site name already exists"
	}
	return ""
}

func discoveryProblem(data wizard.FormData) string {
	found := DiscoveredFrom(data, FieldDiscovered)
	if n, _ := wizard.Int(data, FieldInverterCount); n > 0 && !hasOnline(found, "inverter") {
		return "no online inverter discovered"
	}
	if wizard.Bool(data, FieldHasBESS) && !hasOnline(found, "bms") {
		return "no online BMS discovered"
	}
	return ""
}

func positive(field string) wizard.Rule {
	return wizard.Check(field, func(data wizard.FormData) string {
		v, ok := wizard.Float(data, field)
		if !ok {
			return "must be a number"
		}
		if v <= 0 {
			return "must be greater than 0"
		}
		return ""
	})
}

func confirmed() wizard.Rule {
	return wizard.Check(FieldConfirm, func(data wizard.FormData) string {
		if !wizard.Bool(data, FieldConfirm) {
			return "confirmation required"
		}
		return ""
	})
}

// BuildSite turns completed site form data into a Site.
func BuildSite(data wizard.FormData, now time.Time) (Site, error) {
	d := configs.Defaults.Site
	name := wizard.String(data, FieldSiteName)
	if name == "" {
		return Site{}, fmt.Errorf("site name is required")
	}
	code := wizard.String(data, FieldSiteCode)
	id := code
	if id == "" {
		id = name
	}
	id = slug.Make(id)
	if id == "" {
		id = "site"
	}

	siteType := wizard.String(data, FieldSiteType)
	if siteType == "" {
		siteType = d.Types[0]
	}

	s := Site{
		ID:       id,
		Name:     name,
		Code:     code,
		Type:     siteType,
		Operator: wizard.String(data, FieldOperator),
		Contact: Contact{
			Name:  wizard.String(data, FieldContactName),
			Email: wizard.String(data, FieldContactEmail),
			Phone: wizard.String(data, FieldContactPhone),
		},
		Location: Location{
			Country:  wizard.String(data, FieldCountry),
			City:     wizard.String(data, FieldCity),
			Address:  wizard.String(data, FieldAddress),
			Timezone: wizard.String(data, FieldTimezone),
		},
		Status:    StatusOnline,
		CreatedAt: now.UTC(),
	}
	s.Location.Lat, _ = wizard.Float(data, FieldLat)
	s.Location.Lng, _ = wizard.Float(data, FieldLng)
	if s.Location.Lat == 0 {
		s.Location.Lat = d.DefaultLat
	}
	if s.Location.Lng == 0 {
		s.Location.Lng = d.DefaultLng
	}
	if s.Location.Timezone == "" {
		s.Location.Timezone = d.Timezone
	}

	c := &s.Capacity
	c.DCMWp, _ = wizard.Float(data, FieldDCMWp)
	c.ACMVA, _ = wizard.Float(data, FieldACMVA)
	c.Topology = wizard.String(data, FieldTopology)
	c.InverterCount, _ = wizard.Int(data, FieldInverterCount)
	c.HasBESS = wizard.Bool(data, FieldHasBESS)
	if c.HasBESS {
		c.BESSKWh, _ = wizard.Float(data, FieldBESSKWh)
		c.BESSKW, _ = wizard.Float(data, FieldBESSKW)
		soc := d.BESSInitialSoC
		s.SoC = &soc
	}
	s.CapacityMW = c.ACMVA
	if s.CapacityMW == 0 {
		s.CapacityMW = c.DCMWp
	}

	cidr := wizard.String(data, FieldScanCIDR)
	if p, err := utils.ValidateCIDR(cidr); err == nil {
		cidr = p.String()
	}
	s.Discovery = Discovery{
		CIDR:     cidr,
		Protocol: wizard.String(data, FieldScanProtocol),
		Devices:  DiscoveredFrom(data, FieldDiscovered),
	}
	s.DeviceCount = len(s.Discovery.Devices)

	s.Automation.PulseMs, _ = wizard.Int(data, FieldPulseMs)
	s.Automation.DualConfirm = wizard.Bool(data, FieldDualConfirm)
	s.Automation.Breakers = breakers(data, d.Breakers)

	s.Grid.ExportLimitKW, _ = wizard.Float(data, FieldExportLimitKW)
	s.Grid.GridCode = wizard.String(data, FieldGridCode)
	s.Grid.TariffPlan = wizard.String(data, FieldTariffPlan)
	s.Grid.Currency = wizard.String(data, FieldCurrency)
	return s, nil
}

// breakers returns the named breakers, or n default names when none were given.
func breakers(data wizard.FormData, n int) []Breaker {
	names := wizard.Strings(data, FieldBreakers)
	if len(names) == 0 {
		for i := 1; i <= n; i++ {
			names = append(names, fmt.Sprintf("CB-%d", i))
		}
	}
	names = slices.Compact(names)
	out := make([]Breaker, len(names))
	for i, n := range names {
		out[i] = Breaker{
			Name:      n,
			OpenCoil:  fmt.Sprintf("DO%d", i*2+1),
			CloseCoil: fmt.Sprintf("DO%d", i*2+2),
		}
	}
	return out
}
