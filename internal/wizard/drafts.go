package wizard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	core "github.com/Bibi40k/ems-provision/pkg/wizard"
)

const draftTimeLayout = "20060102-150405"

// Draft describes one saved wizard draft on disk.
type Draft struct {
	Path     string
	Wizard   string
	Modified time.Time
}

// Label is a short display name such as "site (site.draft.20260301-120000.yaml)".
func (d Draft) Label() string {
	return d.Wizard + " (" + filepath.Base(d.Path) + ")"
}

func draftPattern(dir, wizardName string) string {
	return filepath.Join(dir, fmt.Sprintf("%s.draft.*.yaml", wizardName))
}

// IsDraftPath reports whether path names a draft file.
func IsDraftPath(path string) bool {
	base := filepath.Base(path)
	name, _, ok := strings.Cut(base, ".draft.")
	return ok && name != "" && strings.HasSuffix(base, ".yaml")
}

// WriteDraft stores state as a new timestamped draft in dir. Fields named in
// redact are left out of the file.
func WriteDraft(dir string, state *core.State, redact []string, now time.Time) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("%s.draft.%s.yaml", state.Wizard, now.Format(draftTimeLayout)))
	if err := writeDraftFile(path, state, redact); err != nil {
		return "", err
	}
	return path, nil
}

func writeDraftFile(path string, state *core.State, redact []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	out := state.Clone()
	for k := range out.FormData {
		if slices.Contains(redact, k) {
			delete(out.FormData, k)
		}
	}
	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// ReadDraft loads a draft file.
func ReadDraft(path string) (*core.State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s core.State
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse draft: %w", err)
	}
	if s.FormData == nil {
		s.FormData = core.FormData{}
	}
	return &s, nil
}

// ListDrafts returns all drafts in dir, newest first.
func ListDrafts(dir string) ([]Draft, error) {
	matches, err := filepath.Glob(draftPattern(dir, "*"))
	if err != nil {
		return nil, err
	}
	var out []Draft
	for _, p := range matches {
		st, err := os.Stat(p)
		if err != nil {
			continue
		}
		name, _, _ := strings.Cut(filepath.Base(p), ".draft.")
		out = append(out, Draft{Path: p, Wizard: name, Modified: st.ModTime()})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Modified.After(out[j].Modified) })
	return out, nil
}

// LatestDraft returns the newest draft path for wizardName, or "" when none exists.
func LatestDraft(dir, wizardName string) string {
	drafts, err := ListDrafts(dir)
	if err != nil {
		return ""
	}
	for _, d := range drafts {
		if d.Wizard == wizardName {
			return d.Path
		}
	}
	return ""
}

// DeleteDraft removes one draft file. Paths that are not drafts are refused.
func DeleteDraft(path string) error {
	if !IsDraftPath(path) {
		return fmt.Errorf("not a draft file: %s", path)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// CleanupDrafts removes every draft of wizardName in dir.
func CleanupDrafts(dir, wizardName string) error {
	matches, err := filepath.Glob(draftPattern(dir, wizardName))
	if err != nil {
		return err
	}
	for _, p := range matches {
		if rmErr := os.Remove(p); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return rmErr
		}
	}
	return nil
}
