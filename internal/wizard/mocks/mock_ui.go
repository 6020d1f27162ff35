// Package mocks provides testify-based mock implementations of the wizard
// driver interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Bibi40k/ems-provision/internal/wizard"
	core "github.com/Bibi40k/ems-provision/pkg/wizard"
)

// UI is a mock for wizard.UI.
type UI struct {
	mock.Mock
}

var _ wizard.UI = (*UI)(nil)

func (m *UI) Collect(ctx context.Context, index int, step core.StepSpec, data core.FormData) (core.FormData, error) {
	args := m.Called(ctx, index, step, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(core.FormData), args.Error(1)
}

func (m *UI) Choose(ctx context.Context, pos wizard.Position) (wizard.Choice, error) {
	args := m.Called(ctx, pos)
	return args.Get(0).(wizard.Choice), args.Error(1)
}

func (m *UI) ShowErrors(step core.StepSpec, res core.ValidationResult) {
	m.Called(step, res)
}

func (m *UI) Notify(msg string) {
	m.Called(msg)
}
