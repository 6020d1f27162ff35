package wizard

import (
	"context"
	"errors"
	"io"
	"log/slog"

	core "github.com/Bibi40k/ems-provision/pkg/wizard"
)

// ErrCancelled is returned by Drive when the operator abandons the wizard.
var ErrCancelled = errors.New("wizard cancelled")

// Action is the operator's choice after filling a step.
type Action int

const (
	ActionNext Action = iota
	ActionBack
	ActionJump
	ActionSave
	ActionCancel
)

func (a Action) String() string {
	switch a {
	case ActionNext:
		return "next"
	case ActionBack:
		return "back"
	case ActionJump:
		return "jump"
	case ActionSave:
		return "save draft"
	case ActionCancel:
		return "cancel"
	}
	return "unknown"
}

// Choice is an Action plus the jump target when Action is ActionJump.
type Choice struct {
	Action Action
	Target int
}

// Position tells the UI where the run stands when asking for a Choice.
type Position struct {
	Step       int
	Steps      int
	VisitedMax int
	Labels     []string
}

// IsLast reports whether the current step is the final one.
func (p Position) IsLast() bool { return p.Step == p.Steps-1 }

// UI is the operator-facing side of Drive.
type UI interface {
	// Collect prompts for the fields of step and returns the values to store.
	Collect(ctx context.Context, index int, step core.StepSpec, data core.FormData) (core.FormData, error)
	// Choose asks what to do next.
	Choose(ctx context.Context, pos Position) (Choice, error)
	// ShowErrors displays a failed validation for step.
	ShowErrors(step core.StepSpec, res core.ValidationResult)
	// Notify shows an informational message.
	Notify(msg string)
}

type driveConfig struct {
	save func() (string, error)
	log  *slog.Logger
}

// DriveOption configures Drive.
type DriveOption func(*driveConfig)

// WithDraftSaver enables ActionSave.
func WithDraftSaver(save func() (string, error)) DriveOption {
	return func(c *driveConfig) { c.save = save }
}

// WithDriveLogger sets the logger used for tracing the run.
func WithDriveLogger(l *slog.Logger) DriveOption {
	return func(c *driveConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// Drive runs the wizard loop on s until the final step validates or the
// operator cancels. Failed validation re-prompts the same step.
func Drive(ctx context.Context, ctrl *core.Controller, s *core.State, ui UI, opts ...DriveOption) (core.FormData, error) {
	cfg := driveConfig{log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}
	labels := make([]string, ctrl.Len())
	for i, st := range ctrl.Steps() {
		labels[i] = st.Label
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		step, err := ctrl.Step(s.CurrentStepIndex)
		if err != nil {
			return nil, err
		}
		updates, err := ui.Collect(ctx, s.CurrentStepIndex, step, s.FormData.Clone())
		if err != nil {
			return nil, err
		}
		for _, k := range updates.Keys() {
			ctrl.UpdateField(s, k, updates[k])
		}

		choice, err := ui.Choose(ctx, Position{
			Step:       s.CurrentStepIndex,
			Steps:      ctrl.Len(),
			VisitedMax: s.VisitedMaxIndex,
			Labels:     labels,
		})
		if err != nil {
			return nil, err
		}
		cfg.log.Debug("wizard action", "wizard", ctrl.Name(), "step", step.Label, "action", choice.Action.String())

		switch choice.Action {
		case ActionNext:
			if ctrl.IsLast(s) {
				data, res, err := ctrl.Complete(s)
				if err != nil {
					return nil, err
				}
				if res != nil {
					ui.ShowErrors(step, *res)
					continue
				}
				return data, nil
			}
			_, res, err := ctrl.GoNext(s)
			if err != nil {
				return nil, err
			}
			if res != nil {
				ui.ShowErrors(step, *res)
			}
		case ActionBack:
			if _, err := ctrl.GoBack(s); err != nil {
				if !errors.Is(err, core.ErrPrecondition) {
					return nil, err
				}
				ui.Notify("Already at the first step.")
			}
		case ActionJump:
			if _, err := ctrl.GoToStep(s, choice.Target); err != nil {
				if !errors.Is(err, core.ErrOutOfRange) {
					return nil, err
				}
				ui.Notify(err.Error())
			}
		case ActionSave:
			if cfg.save == nil {
				ui.Notify("Drafts are not enabled for this wizard.")
				continue
			}
			path, err := cfg.save()
			switch {
			case err != nil:
				ui.Notify("Draft not saved: " + err.Error())
			case path == "":
				ui.Notify("Nothing to save yet.")
			default:
				ui.Notify("Draft saved: " + path)
			}
		case ActionCancel:
			return nil, ErrCancelled
		}
	}
}
