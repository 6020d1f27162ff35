package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/Bibi40k/ems-provision/configs"
	"github.com/Bibi40k/ems-provision/internal/utils"
	"github.com/Bibi40k/ems-provision/pkg/ems"
	"github.com/Bibi40k/ems-provision/pkg/wizard"
)

func constant(s string) func(wizard.FormData) string {
	return func(wizard.FormData) string { return s }
}

func list(items ...string) func(wizard.FormData) []string {
	return func(wizard.FormData) []string { return items }
}

func unless(field string) func(wizard.FormData) bool {
	return func(d wizard.FormData) bool { return !wizard.Bool(d, field) }
}

func transportIn(kinds ...string) func(wizard.FormData) bool {
	return func(d wizard.FormData) bool {
		return !slices.Contains(kinds, ems.Transport(wizard.String(d, ems.FieldProtocol)))
	}
}

func protocolDefault(pick func(configs.ProtocolDefault) string) func(wizard.FormData) string {
	return func(d wizard.FormData) string {
		return pick(configs.Defaults.Protocols[wizard.String(d, ems.FieldProtocol)])
	}
}

func itoaNonZero(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func summaryHook(p *promptSet) stepHook {
	return func(data, _ wizard.FormData) error {
		printSummary(os.Stdout, *p, data)
		return nil
	}
}

func sitePrompts(a *app) promptSet {
	d := configs.Defaults.Site
	p := promptSet{
		fields: map[string]fieldPrompt{
			ems.FieldSiteName:      {label: "Site name", kind: fieldText},
			ems.FieldSiteCode:      {label: "Site code (optional)", kind: fieldText},
			ems.FieldSiteType:      {label: "Site type", kind: fieldSelect, options: list(d.Types...)},
			ems.FieldOperator:      {label: "Operator", kind: fieldText, def: constant(a.cfg.Operator)},
			ems.FieldContactName:   {label: "Contact name", kind: fieldText},
			ems.FieldContactEmail:  {label: "Contact e-mail", kind: fieldText},
			ems.FieldContactPhone:  {label: "Contact phone", kind: fieldText},
			ems.FieldLat:           {label: "Latitude", kind: fieldFloat, def: constant(strconv.FormatFloat(d.DefaultLat, 'f', -1, 64))},
			ems.FieldLng:           {label: "Longitude", kind: fieldFloat, def: constant(strconv.FormatFloat(d.DefaultLng, 'f', -1, 64))},
			ems.FieldCountry:       {label: "Country", kind: fieldText},
			ems.FieldCity:          {label: "City", kind: fieldText},
			ems.FieldAddress:       {label: "Address", kind: fieldText},
			ems.FieldTimezone:      {label: "Timezone", kind: fieldText, def: constant(d.Timezone)},
			ems.FieldDCMWp:         {label: "DC capacity (MWp)", kind: fieldFloat},
			ems.FieldACMVA:         {label: "AC capacity (MVA)", kind: fieldFloat},
			ems.FieldTopology:      {label: "Topology", kind: fieldSelect, options: list(d.Topologies...)},
			ems.FieldInverterCount: {label: "Inverter count", kind: fieldInt, def: constant("1")},
			ems.FieldHasBESS: {label: "Battery storage (BESS) installed?", kind: fieldBool, def: func(data wizard.FormData) string {
				return strconv.FormatBool(strings.Contains(wizard.String(data, ems.FieldSiteType), "BESS"))
			}},
			ems.FieldBESSKWh:       {label: "BESS energy (kWh)", kind: fieldFloat, skip: unless(ems.FieldHasBESS)},
			ems.FieldBESSKW:        {label: "BESS power (kW)", kind: fieldFloat, skip: unless(ems.FieldHasBESS)},
			ems.FieldScanCIDR:      {label: "Scan network (CIDR)", kind: fieldText, def: constant("192.168.1.0/24")},
			ems.FieldScanProtocol:  {label: "Scan protocol", kind: fieldSelect, options: list(configs.Defaults.ProtocolNames()...)},
			ems.FieldBreakers:      {label: "Breakers (comma separated)", kind: fieldText, def: func(wizard.FormData) string { return defaultBreakers(d.Breakers) }},
			ems.FieldPulseMs:       {label: "Breaker pulse (ms)", kind: fieldInt, def: constant("200")},
			ems.FieldDualConfirm:   {label: "Require dual confirmation for control?", kind: fieldBool, def: constant("true")},
			ems.FieldExportLimitKW: {label: "Grid export limit (kW, optional)", kind: fieldFloat},
			ems.FieldGridCode:      {label: "Grid code (optional)", kind: fieldText},
			ems.FieldTariffPlan:    {label: "Tariff plan (optional)", kind: fieldText},
			ems.FieldCurrency:      {label: "Currency", kind: fieldText},
			ems.FieldConfirm:       {label: "Create this site?", kind: fieldBool, def: constant("true")},
		},
		after: map[string]stepHook{
			"Discovery": discoveryHook,
		},
	}
	p.before = map[string]stepHook{"Summary": summaryHook(&p)}
	return p
}

func defaultBreakers(n int) string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("CB-%d", i+1)
	}
	return strings.Join(names, ",")
}

// discoveryHook runs the simulated scan with the entered range and protocol.
func discoveryHook(data, updates wizard.FormData) error {
	cidr := wizard.String(data, ems.FieldScanCIDR)
	protocol := wizard.String(data, ems.FieldScanProtocol)
	found, err := ems.Discover(cidr, protocol)
	if err != nil {
		fmt.Printf("  %s✗ %v%s\n", clrRed, err, clrReset)
		updates[ems.FieldDiscovered] = []ems.DiscoveredDevice{}
		return nil
	}
	reportScan(os.Stdout, cidr, found)
	updates[ems.FieldDiscovered] = found
	return nil
}

// reportScan prints the scanned range and its results. Simulated devices
// outside the range are still reported, with a warning.
func reportScan(out io.Writer, cidr string, found []ems.DiscoveredDevice) {
	if p, err := utils.ValidateCIDR(cidr); err == nil {
		fmt.Fprintf(out, "  Scanned %s\n", utils.DescribeCIDR(p))
	}
	if n := len(found) - len(ems.InRange(found, cidr)); n > 0 {
		fmt.Fprintf(out, "  %s⚠ %d device(s) lie outside %s%s\n", clrYellow, n, cidr, clrReset)
	}
	printDiscovered(out, found)
}

func devicePrompts(a *app) promptSet {
	dd := configs.Defaults.Device
	p := promptSet{
		fields: map[string]fieldPrompt{
			ems.FieldDeviceType: {label: "Device type", kind: fieldSelect, options: list(ems.DeviceTypes()...)},
			ems.FieldProfileID:  {label: "Device profile", kind: fieldSelect, options: a.profileOptions},
			ems.FieldDeviceID:   {label: "Device ID", kind: fieldText},
			ems.FieldPlantID:    {label: "Site ID", kind: fieldSelect, options: a.siteOptions},
			ems.FieldMake:       {label: "Make", kind: fieldText},
			ems.FieldModel:      {label: "Model", kind: fieldText},
			ems.FieldProtocol:   {label: "Protocol", kind: fieldSelect, options: list(configs.Defaults.ProtocolNames()...)},
			ems.FieldHost:       {label: "Host", kind: fieldText, skip: transportIn(ems.TransportTCP, ems.TransportBroker)},
			ems.FieldPort: {label: "Port", kind: fieldInt, skip: transportIn(ems.TransportTCP, ems.TransportBroker),
				def: protocolDefault(func(p configs.ProtocolDefault) string { return itoaNonZero(p.Port) })},
			ems.FieldUnitID: {label: "Unit ID", kind: fieldInt, skip: transportIn(ems.TransportTCP, ems.TransportSerial),
				def: protocolDefault(func(p configs.ProtocolDefault) string { return itoaNonZero(max(p.UnitID, 1)) })},
			ems.FieldTimeoutMs: {label: "Timeout (ms)", kind: fieldInt, skip: transportIn(ems.TransportTCP),
				def: constant(strconv.Itoa(dd.TimeoutMs))},
			ems.FieldSerialPort: {label: "Serial port", kind: fieldPath, skip: transportIn(ems.TransportSerial), def: constant("/dev/ttyUSB0")},
			ems.FieldBaudrate: {label: "Baud rate", kind: fieldSelect, skip: transportIn(ems.TransportSerial),
				options: list("1200", "2400", "4800", "9600", "19200", "38400", "57600", "115200"),
				def:     protocolDefault(func(p configs.ProtocolDefault) string { return itoaNonZero(p.Baudrate) })},
			ems.FieldParity: {label: "Parity", kind: fieldSelect, skip: transportIn(ems.TransportSerial), options: list("N", "E", "O")},
			ems.FieldStopBits: {label: "Stop bits", kind: fieldInt, skip: transportIn(ems.TransportSerial),
				def: protocolDefault(func(p configs.ProtocolDefault) string { return itoaNonZero(p.StopBits) })},
			ems.FieldTopicPrefix: {label: "Topic prefix", kind: fieldText, skip: transportIn(ems.TransportBroker), def: func(d wizard.FormData) string {
				return "ems/" + wizard.String(d, ems.FieldPlantID) + "/" + wizard.String(d, ems.FieldDeviceID)
			}},
			ems.FieldQoS: {label: "MQTT QoS", kind: fieldInt, skip: transportIn(ems.TransportBroker),
				def: protocolDefault(func(p configs.ProtocolDefault) string { return strconv.Itoa(p.QoS) })},
			ems.FieldPollInterval: {label: "Poll interval (s)", kind: fieldInt, def: constant(strconv.Itoa(dd.PollIntervalSeconds))},
			ems.FieldPointMap:     {label: "Point map (name or file, optional)", kind: fieldPath},
			ems.FieldCapabilities: {label: "Capabilities", kind: fieldMulti, options: capabilityOptions},
			ems.FieldConfirm:      {label: "Add this device?", kind: fieldBool, def: constant("true")},
		},
		after: map[string]stepHook{
			"Profile Selection": a.applyProfileHook,
		},
	}
	summary := summaryHook(&p)
	p.before = map[string]stepHook{"Validation": func(data, updates wizard.FormData) error {
		if err := summary(data, updates); err != nil {
			return err
		}
		printCommissioning(os.Stdout, ems.Commission(data))
		return nil
	}}
	return p
}

func capabilityOptions(d wizard.FormData) []string {
	return ems.CapabilitiesFor(wizard.String(d, ems.FieldDeviceType))
}

func (a *app) siteOptions(wizard.FormData) []string {
	sites, err := a.sites.List()
	if err != nil {
		return nil
	}
	out := make([]string, len(sites))
	for i, s := range sites {
		out[i] = s.ID
	}
	return out
}

// profileOptions lists profiles matching the chosen device type, plus "none".
func (a *app) profileOptions(d wizard.FormData) []string {
	out := []string{ems.NoProfile}
	profiles, err := a.profiles.List()
	if err != nil {
		return out
	}
	typ := wizard.String(d, ems.FieldDeviceType)
	for _, p := range profiles {
		if typ == "" || p.DeviceType == typ {
			out = append(out, p.ID)
		}
	}
	return out
}

// applyProfileHook pre-fills later steps from the selected profile.
func (a *app) applyProfileHook(data, updates wizard.FormData) error {
	id := wizard.String(data, ems.FieldProfileID)
	if id == "" || id == ems.NoProfile {
		return nil
	}
	p, err := a.profiles.Get(id)
	if err != nil {
		return nil
	}
	filled := ems.ApplyProfile(data, p)
	for k, v := range filled {
		if wizard.String(data, k) == "" {
			updates[k] = v
		}
	}
	fmt.Printf("  %sUsing profile %s (%d points)%s\n", clrGray, p.Name, len(p.Points), clrReset)
	for _, l := range ems.FormatPointMap(p.Points) {
		fmt.Printf("    %s%s%s\n", clrDim, l, clrReset)
	}
	return nil
}

func profilePrompts() promptSet {
	p := promptSet{
		fields: map[string]fieldPrompt{
			ems.FieldProfileName:  {label: "Profile name", kind: fieldText},
			ems.FieldVendor:       {label: "Vendor", kind: fieldText},
			ems.FieldVersion:      {label: "Version", kind: fieldText, def: constant("1.0")},
			ems.FieldDeviceType:   {label: "Device type", kind: fieldSelect, options: list(ems.DeviceTypes()...)},
			ems.FieldProtocol:     {label: "Protocol", kind: fieldSelect, options: list(configs.Defaults.ProtocolNames()...)},
			ems.FieldPoints:       {label: "Points address:name:type[:scale[:unit]] (@file to import)", kind: fieldLines},
			ems.FieldCapabilities: {label: "Capabilities", kind: fieldMulti, options: capabilityOptions},
			ems.FieldConfirm:      {label: "Save this profile?", kind: fieldBool, def: constant("true")},
		},
		after: map[string]stepHook{
			"Point Map": importPointsHook,
		},
	}
	p.before = map[string]stepHook{"Review": summaryHook(&p)}
	return p
}

// importPointsHook replaces a single "@path" line with the file's lines.
func importPointsHook(data, updates wizard.FormData) error {
	lines := wizard.Strings(data, ems.FieldPoints)
	if len(lines) != 1 || !strings.HasPrefix(lines[0], "@") {
		return nil
	}
	path := expandHome(strings.TrimPrefix(lines[0], "@"))
	raw, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("  %s✗ import %s: %v%s\n", clrRed, path, err, clrReset)
		return nil
	}
	updates[ems.FieldPoints] = strings.Split(strings.TrimSpace(string(raw)), "\n")
	return nil
}

func userPrompts(a *app) promptSet {
	p := promptSet{
		fields: map[string]fieldPrompt{
			ems.FieldUsername:        {label: "Username", kind: fieldText},
			ems.FieldFullName:        {label: "Full name", kind: fieldText},
			ems.FieldEmail:           {label: "E-mail", kind: fieldText},
			ems.FieldRole:            {label: "Role", kind: fieldSelect, options: list(configs.Defaults.RoleNames()...)},
			ems.FieldSites:           {label: "Sites", kind: fieldMulti, options: a.siteOptions},
			ems.FieldPassword:        {label: "Password", kind: fieldPassword},
			ems.FieldPasswordConfirm: {label: "Confirm password", kind: fieldPassword},
			ems.FieldMFA:             {label: "Require MFA?", kind: fieldBool, def: constant("true")},
			ems.FieldConfirm:         {label: "Create this user?", kind: fieldBool, def: constant("true")},
		},
		after: map[string]stepHook{
			"Role": rolePermissionsHook,
		},
		secret: ems.SecretFields,
	}
	p.before = map[string]stepHook{"Review": summaryHook(&p)}
	return p
}

// rolePermissionsHook shows what the chosen role may do.
func rolePermissionsHook(data, _ wizard.FormData) error {
	r, ok := ems.Role(wizard.String(data, ems.FieldRole))
	if !ok {
		return nil
	}
	flags := []struct {
		name string
		on   bool
	}{
		{"map", r.Map}, {"control", r.Control}, {"sampling", r.Sampling},
		{"publish", r.Publish}, {"secrets", r.Secrets}, {"dual confirm", r.DualConfirm},
	}
	var granted []string
	for _, f := range flags {
		if f.on {
			granted = append(granted, f.name)
		}
	}
	if len(granted) == 0 {
		granted = []string{"read-only"}
	}
	fmt.Printf("  %s%s: %s%s\n", clrGray, r.Name, strings.Join(granted, ", "), clrReset)
	return nil
}
