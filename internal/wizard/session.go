// Package wizard runs EMS wizards interactively: it keeps the draft
// lifecycle of a run and drives a pkg/wizard Controller through a UI.
package wizard

import (
	"fmt"
	"sync"
	"time"

	core "github.com/Bibi40k/ems-provision/pkg/wizard"
)

// InterruptFunc installs an interrupt handler for a running session. The
// handler may call save to persist a draft. It returns a function that
// restores the previous handler.
type InterruptFunc func(save func() (string, error)) (restore func())

// Session manages the draft lifecycle of one wizard run.
type Session struct {
	Wizard    string
	DraftDir  string
	DraftPath string
	State     *core.State

	redact    []string
	interrupt InterruptFunc
	now       func() time.Time

	mu     sync.Mutex
	stopFn func()
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithRedactedFields keeps the named fields out of draft files.
func WithRedactedFields(fields ...string) SessionOption {
	return func(s *Session) { s.redact = append(s.redact, fields...) }
}

// WithInterruptHandler sets the handler installed by Start.
func WithInterruptHandler(fn InterruptFunc) SessionOption {
	return func(s *Session) { s.interrupt = fn }
}

// WithClock overrides the time source used to name drafts.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// NewSession creates a session for wizardName storing drafts in draftDir.
// draftPath is the draft being resumed, or "" for a fresh run.
func NewSession(wizardName, draftDir, draftPath string, opts ...SessionOption) *Session {
	s := &Session{
		Wizard:    wizardName,
		DraftDir:  draftDir,
		DraftPath: draftPath,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadDraft reads DraftPath into State. It returns false when the session
// has no draft to resume.
func (s *Session) LoadDraft() (bool, error) {
	if s == nil || s.DraftPath == "" {
		return false, nil
	}
	st, err := ReadDraft(s.DraftPath)
	if err != nil {
		return false, err
	}
	if st.Wizard != "" && st.Wizard != s.Wizard {
		return false, fmt.Errorf("draft %s belongs to wizard %q, not %q", s.DraftPath, st.Wizard, s.Wizard)
	}
	st.Wizard = s.Wizard
	s.mu.Lock()
	s.State = st
	s.mu.Unlock()
	return true, nil
}

// Attach sets the state that SaveDraft persists.
func (s *Session) Attach(state *core.State) {
	s.mu.Lock()
	s.State = state
	s.mu.Unlock()
}

// SaveDraft writes the current state. The first save creates a timestamped
// file; later saves overwrite it. Empty states are not saved and yield "".
func (s *Session) SaveDraft() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State.IsEmpty() {
		return "", nil
	}
	if s.DraftPath != "" {
		if err := writeDraftFile(s.DraftPath, s.State, s.redact); err != nil {
			return "", err
		}
		return s.DraftPath, nil
	}
	path, err := WriteDraft(s.DraftDir, s.State, s.redact, s.now())
	if err != nil {
		return "", err
	}
	s.DraftPath = path
	return path, nil
}

// Start installs the interrupt handler for this session.
func (s *Session) Start() {
	if s == nil || s.interrupt == nil {
		return
	}
	s.stopFn = s.interrupt(s.SaveDraft)
}

// Stop restores process state after Start.
func (s *Session) Stop() {
	if s == nil || s.stopFn == nil {
		return
	}
	s.stopFn()
	s.stopFn = nil
}

// Finalize removes every draft of this wizard after a successful run.
func (s *Session) Finalize() error {
	if s == nil {
		return nil
	}
	if err := CleanupDrafts(s.DraftDir, s.Wizard); err != nil {
		return fmt.Errorf("cleanup drafts: %w", err)
	}
	if s.DraftPath != "" {
		if err := DeleteDraft(s.DraftPath); err != nil {
			return fmt.Errorf("cleanup drafts: %w", err)
		}
	}
	s.DraftPath = ""
	return nil
}
