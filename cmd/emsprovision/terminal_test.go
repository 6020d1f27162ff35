package main

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	iwizard "github.com/Bibi40k/ems-provision/internal/wizard"
	"github.com/Bibi40k/ems-provision/pkg/ems"
	"github.com/Bibi40k/ems-provision/pkg/wizard"
)

func TestNumericValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"", ""},
		{"  ", ""},
		{"42", 42},
		{" -3 ", -3},
		{"2.5", 2.5},
		{"1e3", 1000.0},
		{"abc", "abc"},
		{"12kW", "12kW"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, numericValue(tt.in))
		})
	}
}

func TestChoiceOptions(t *testing.T) {
	labels := []string{"A", "B", "C"}
	tests := []struct {
		name string
		pos  iwizard.Position
		want []string
	}{
		{"first step fresh", iwizard.Position{Step: 0, Steps: 3, Labels: labels},
			[]string{choiceNext, choiceSave, choiceCancel}},
		{"middle step", iwizard.Position{Step: 1, Steps: 3, VisitedMax: 1, Labels: labels},
			[]string{choiceNext, choiceBack, choiceJump, choiceSave, choiceCancel}},
		{"back at first after visiting", iwizard.Position{Step: 0, Steps: 3, VisitedMax: 2, Labels: labels},
			[]string{choiceNext, choiceJump, choiceSave, choiceCancel}},
		{"last step", iwizard.Position{Step: 2, Steps: 3, VisitedMax: 2, Labels: labels},
			[]string{choiceFinish, choiceBack, choiceJump, choiceSave, choiceCancel}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, choiceOptions(tt.pos))
		})
	}
}

func TestStepBar(t *testing.T) {
	bar := stepBar([]string{"Basics", "Location", "Capacity"}, 1)
	assert.Contains(t, bar, "✓ Basics")
	assert.Contains(t, bar, "● Location")
	assert.Contains(t, bar, "○ Capacity")
	assert.Less(t, strings.Index(bar, "Basics"), strings.Index(bar, "Location"))
}

func TestStepRendererHeader(t *testing.T) {
	var buf bytes.Buffer
	render := stepRenderer(&buf, "Add User", []string{"Account", "Role", "Credentials", "Review"})
	render(2, wizard.FormData{})
	out := buf.String()
	assert.Contains(t, out, "[3/4]")
	assert.Contains(t, out, "Credentials")
	assert.Contains(t, out, "Add User")
}

func TestPrintSummaryMasksSecrets(t *testing.T) {
	p := promptSet{
		fields: map[string]fieldPrompt{
			ems.FieldUsername: {label: "Username"},
			ems.FieldPassword: {label: "Password"},
		},
		secret: []string{ems.FieldPassword},
	}
	data := wizard.FormData{
		ems.FieldUsername: "alice",
		ems.FieldPassword: "s3cret-pass",
		ems.FieldConfirm:  true,
		"internal":        "hidden",
	}
	var buf bytes.Buffer
	printSummary(&buf, p, data)
	out := buf.String()
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "********")
	assert.NotContains(t, out, "s3cret-pass")
	assert.NotContains(t, out, "hidden")
}

func TestPrintCommissioning(t *testing.T) {
	var buf bytes.Buffer
	printCommissioning(&buf, ems.Commission(wizard.FormData{
		ems.FieldDeviceType:  "inverter",
		ems.FieldProtocol:    ems.ProtocolMQTT,
		ems.FieldHost:        "broker",
		ems.FieldTopicPrefix: "ems",
	}))
	out := buf.String()
	assert.Contains(t, out, "SunSpec model read")
	assert.Contains(t, out, "No SunSpec response")
	assert.Contains(t, out, "(optional)")
	assert.Contains(t, out, "4/5 passed, required 3/4")
	assert.Contains(t, out, "saved as "+ems.CommissionDraft)
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "Konya", truncate("Konya", 60))

	addr := strings.Repeat("ğ", 70)
	got := truncate(addr, 60)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 60, utf8.RuneCountInString(got))
	assert.Equal(t, strings.Repeat("ğ", 57)+"...", got)

	var buf bytes.Buffer
	printSummary(&buf, promptSet{fields: map[string]fieldPrompt{ems.FieldAddress: {label: "Address"}}},
		wizard.FormData{ems.FieldAddress: addr})
	assert.True(t, utf8.ValidString(buf.String()))
}

func TestPrintDiscovered(t *testing.T) {
	var buf bytes.Buffer
	printDiscovered(&buf, nil)
	assert.Contains(t, buf.String(), "No devices found")

	buf.Reset()
	printDiscovered(&buf, []ems.DiscoveredDevice{
		{ID: "inv-1", Type: "inverter", Vendor: "Generic", Model: "SunSpec-103", IP: "192.168.1.10", Port: 502, Status: ems.StatusOnline},
		{ID: "meter-1", Type: "meter", IP: "192.168.1.30", Port: 502, Status: ems.StatusOffline},
	})
	out := buf.String()
	assert.Contains(t, out, "Found 2 device(s)")
	assert.Contains(t, out, "192.168.1.10:502")
	assert.Contains(t, out, "meter-1")
}

func TestShowErrorsUsesLabels(t *testing.T) {
	var buf bytes.Buffer
	u := &terminalUI{
		prompts: promptSet{fields: map[string]fieldPrompt{ems.FieldSiteName: {label: "Site name"}}},
		out:     &buf,
	}
	u.ShowErrors(wizard.StepSpec{Label: "Basics"}, wizard.Invalid(map[string]string{
		ems.FieldSiteName: "site name already exists",
		"other":           "bad",
	}))
	out := buf.String()
	assert.Contains(t, out, "Basics has errors")
	assert.Contains(t, out, "Site name:")
	assert.Contains(t, out, "site name already exists")
	assert.Contains(t, out, "other:")
}
