package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	survey "github.com/AlecAivazis/survey/v2"

	iwizard "github.com/Bibi40k/ems-provision/internal/wizard"
	"github.com/Bibi40k/ems-provision/pkg/ems"
	"github.com/Bibi40k/ems-provision/pkg/wizard"
)

type fieldKind int

const (
	fieldText fieldKind = iota
	fieldInt
	fieldFloat
	fieldBool
	fieldSelect
	fieldMulti
	fieldPassword
	fieldLines
	fieldPath
)

// fieldPrompt describes how one form field is asked for.
type fieldPrompt struct {
	label   string
	kind    fieldKind
	options func(data wizard.FormData) []string
	def     func(data wizard.FormData) string
	skip    func(data wizard.FormData) bool
}

// stepHook runs around the field prompts of one step. It may add to updates.
type stepHook func(data, updates wizard.FormData) error

// promptSet is the terminal layout of one wizard.
type promptSet struct {
	fields map[string]fieldPrompt
	before map[string]stepHook
	after  map[string]stepHook
	secret []string
}

// terminalUI implements the wizard driver UI on a terminal.
type terminalUI struct {
	prompts promptSet
	out     io.Writer
}

var _ iwizard.UI = (*terminalUI)(nil)

func newTerminalUI(p promptSet) *terminalUI {
	return &terminalUI{prompts: p, out: os.Stdout}
}

func (u *terminalUI) Collect(ctx context.Context, _ int, step wizard.StepSpec, data wizard.FormData) (wizard.FormData, error) {
	merged := data.Clone()
	updates := wizard.FormData{}
	if h := u.prompts.before[step.Label]; h != nil {
		if err := h(merged, updates); err != nil {
			return nil, err
		}
		for k, v := range updates {
			merged[k] = v
		}
	}
	for _, f := range step.Fields {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, ok := u.prompts.fields[f]
		if !ok {
			continue
		}
		if p.skip != nil && p.skip(merged) {
			continue
		}
		v := u.ask(p, merged, f)
		updates[f] = v
		merged[f] = v
	}
	if h := u.prompts.after[step.Label]; h != nil {
		if err := h(merged, updates); err != nil {
			return nil, err
		}
	}
	return updates, nil
}

func (u *terminalUI) ask(p fieldPrompt, data wizard.FormData, key string) any {
	current := wizard.String(data, key)
	if current == "" && p.def != nil {
		current = p.def(data)
	}
	switch p.kind {
	case fieldInt, fieldFloat:
		return numericValue(readLine(p.label, current))
	case fieldBool:
		def := wizard.Bool(wizard.FormData{"v": current}, "v")
		return readYesNo(p.label, def)
	case fieldSelect:
		var opts []string
		if p.options != nil {
			opts = p.options(data)
		}
		if len(opts) == 0 {
			return readLine(p.label, current)
		}
		if current == "" || !slices.Contains(opts, current) {
			current = opts[0]
		}
		return interactiveSelect(opts, current, p.label)
	case fieldMulti:
		var opts []string
		if p.options != nil {
			opts = p.options(data)
		}
		cur := wizard.Strings(data, key)
		if len(opts) == 0 {
			return wizard.Strings(wizard.FormData{"v": readLine(p.label+" (comma separated)", strings.Join(cur, ","))}, "v")
		}
		var picked []string
		def := slices.DeleteFunc(slices.Clone(cur), func(s string) bool { return !slices.Contains(opts, s) })
		if err := surveyMultiSelect(&survey.MultiSelect{Message: p.label, Options: opts, Default: def}, &picked); err != nil {
			return cur
		}
		return picked
	case fieldPassword:
		pw := readPassword(p.label)
		if pw == "" {
			if s, ok := data[key].(string); ok {
				return s
			}
		}
		return pw
	case fieldLines:
		var cur []string
		if s, ok := data[key].(string); ok {
			cur = strings.Split(s, "\n")
		} else {
			cur = wizard.Strings(data, key)
		}
		return readLines(p.label, cur)
	case fieldPath:
		return readFilePath(p.label, current)
	default:
		return readLine(p.label, current)
	}
}

// numericValue stores whole numbers as int and other numbers as float64.
// Anything else is kept as text so the validator can report it.
func numericValue(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

const (
	choiceNext   = "Next →"
	choiceFinish = "Finish ✓"
	choiceBack   = "← Back"
	choiceJump   = "Jump to step…"
	choiceSave   = "Save draft"
	choiceCancel = "Cancel"
)

func choiceOptions(pos iwizard.Position) []string {
	opts := []string{choiceNext}
	if pos.IsLast() {
		opts[0] = choiceFinish
	}
	if pos.Step > 0 {
		opts = append(opts, choiceBack)
	}
	if pos.VisitedMax > 0 {
		opts = append(opts, choiceJump)
	}
	return append(opts, choiceSave, choiceCancel)
}

func (u *terminalUI) Choose(ctx context.Context, pos iwizard.Position) (iwizard.Choice, error) {
	opts := choiceOptions(pos)
	for {
		if err := ctx.Err(); err != nil {
			return iwizard.Choice{}, err
		}
		switch interactiveSelect(opts, opts[0], "Continue:") {
		case choiceBack:
			return iwizard.Choice{Action: iwizard.ActionBack}, nil
		case choiceJump:
			var labels []string
			for i := 0; i <= pos.VisitedMax && i < len(pos.Labels); i++ {
				labels = append(labels, fmt.Sprintf("%d. %s", i+1, pos.Labels[i]))
			}
			pick := interactiveSelect(labels, labels[min(pos.Step, len(labels)-1)], "Jump to:")
			return iwizard.Choice{Action: iwizard.ActionJump, Target: slices.Index(labels, pick)}, nil
		case choiceSave:
			return iwizard.Choice{Action: iwizard.ActionSave}, nil
		case choiceCancel:
			if readYesNoDanger("Discard this wizard?") {
				return iwizard.Choice{Action: iwizard.ActionCancel}, nil
			}
		default:
			return iwizard.Choice{Action: iwizard.ActionNext}, nil
		}
	}
}

func (u *terminalUI) ShowErrors(step wizard.StepSpec, res wizard.ValidationResult) {
	fmt.Fprintf(u.out, "\n  %s✗ %s has errors%s\n", clrRed, step.Label, clrReset)
	for _, k := range sortedKeys(res.FieldErrors) {
		label := k
		if p, ok := u.prompts.fields[k]; ok {
			label = p.label
		}
		fmt.Fprintf(u.out, "    %s%s:%s %s\n", clrGray, label, clrReset, res.FieldErrors[k])
	}
}

func (u *terminalUI) Notify(msg string) {
	fmt.Fprintf(u.out, "  %s%s%s\n", clrYellow, msg, clrReset)
}

// stepRenderer prints a "[i/N] Label" header and a step bar on every render.
func stepRenderer(out io.Writer, title string, labels []string) wizard.RenderFunc {
	return func(i int, _ wizard.FormData) {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "%s%s%s  %s[%d/%d]%s %s%s%s\n", clrBold, title, clrReset, clrGray, i+1, len(labels), clrReset, clrCyan, labels[i], clrReset)
		fmt.Fprintf(out, "  %s\n", stepBar(labels, i))
		fmt.Fprintln(out, strings.Repeat("─", 50))
	}
}

// stepBar renders "✓ Basics ─ ● Location ─ ○ Capacity" style progress.
func stepBar(labels []string, current int) string {
	parts := make([]string, len(labels))
	for i, l := range labels {
		switch {
		case i < current:
			parts[i] = clrGreen + "✓ " + l + clrReset
		case i == current:
			parts[i] = clrBold + "● " + l + clrReset
		default:
			parts[i] = clrDim + "○ " + l + clrReset
		}
	}
	return strings.Join(parts, clrGray+" ─ "+clrReset)
}

// printSummary lists the collected fields, masking secrets.
func printSummary(out io.Writer, prompts promptSet, data wizard.FormData) {
	fmt.Fprintf(out, "\n  %sSummary%s\n", clrBold, clrReset)
	for _, k := range data.Keys() {
		if k == ems.FieldConfirm {
			continue
		}
		p, ok := prompts.fields[k]
		if !ok {
			continue
		}
		label := p.label
		val := wizard.String(data, k)
		if slices.Contains(prompts.secret, k) {
			val = "********"
		}
		if val == "" {
			continue
		}
		fmt.Fprintf(out, "    %s%-28s%s %s\n", clrGray, label, clrReset, truncate(val, 60))
	}
	fmt.Fprintln(out)
}

// printCommissioning lists the simulated checklist and the resulting state.
func printCommissioning(out io.Writer, r ems.CommissioningReport) {
	fmt.Fprintf(out, "  %sCommissioning%s\n", clrBold, clrReset)
	for _, c := range r.Results {
		mark, color := "✓", clrGreen
		if !c.Passed {
			mark, color = "✗", clrRed
			if !c.Required {
				color = clrYellow
			}
		}
		req := ""
		if !c.Required {
			req = clrDim + " (optional)" + clrReset
		}
		fmt.Fprintf(out, "    %s%s%s %s%s  %s%s%s\n", color, mark, clrReset, c.Name, req, clrGray, c.Detail, clrReset)
	}
	passed, total, rp, rt := r.Counts()
	fmt.Fprintf(out, "    %d/%d passed, required %d/%d → saved as %s\n\n", passed, total, rp, rt, r.Outcome())
}

// truncate shortens s to at most n runes, ending in "..." when cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// printDiscovered lists scan results with their online state.
func printDiscovered(out io.Writer, found []ems.DiscoveredDevice) {
	if len(found) == 0 {
		fmt.Fprintf(out, "  %sNo devices found%s\n", clrYellow, clrReset)
		return
	}
	fmt.Fprintf(out, "  Found %d device(s):\n", len(found))
	for _, d := range found {
		mark := clrGreen + "●" + clrReset
		if !d.Online() {
			mark = clrRed + "○" + clrReset
		}
		fmt.Fprintf(out, "    %s %-10s %-10s %-16s %s:%d %s%s%s\n", mark, d.ID, d.Type, d.Vendor+" "+d.Model, d.IP, d.Port, clrGray, d.Protocol, clrReset)
	}
}
