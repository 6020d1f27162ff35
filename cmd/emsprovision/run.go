package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	iwizard "github.com/Bibi40k/ems-provision/internal/wizard"
	"github.com/Bibi40k/ems-provision/pkg/wizard"
)

// wizardRun is one interactive wizard invocation.
type wizardRun struct {
	title   string
	def     wizard.Definition
	prompts promptSet
	seed    wizard.FormData
	// save builds the record from completed data and persists it. It
	// returns a short description of what was stored.
	save func(data wizard.FormData) (string, error)
}

// startDraftInterruptHandler saves a draft on Ctrl+C and exits.
func startDraftInterruptHandler(save func() (string, error)) func() {
	localSigCh := make(chan os.Signal, 1)
	signal.Stop(mainSigCh)
	signal.Notify(localSigCh, os.Interrupt)
	go func() {
		<-localSigCh
		if path, err := save(); err == nil && path != "" {
			fmt.Printf("\n\033[33m⚠ Interrupted\033[0m\n")
			fmt.Printf("  Draft saved: %s\n", path)
		}
		fmt.Println("\nCancelled.")
		restoreTTYOnExit()
		os.Exit(0)
	}()
	return func() {
		signal.Stop(localSigCh)
		signal.Notify(mainSigCh, os.Interrupt)
	}
}

// runWizard drives r to completion. draftPath resumes a saved draft.
func (a *app) runWizard(ctx context.Context, r wizardRun, draftPath string) error {
	labels := r.def.Labels()
	ctrl, err := wizard.New(r.def,
		wizard.WithRenderer(stepRenderer(os.Stdout, r.title, labels)),
		wizard.WithLogger(a.log),
	)
	if err != nil {
		return err
	}

	if draftPath == "" {
		if latest := iwizard.LatestDraft(a.cfg.DraftPath(), r.def.Name); latest != "" &&
			readYesNo(fmt.Sprintf("Resume draft %s?", filepath.Base(latest)), true) {
			draftPath = latest
		}
	}

	session := iwizard.NewSession(r.def.Name, a.cfg.DraftPath(), draftPath,
		iwizard.WithRedactedFields(r.prompts.secret...),
		iwizard.WithInterruptHandler(startDraftInterruptHandler),
	)
	resumed, err := session.LoadDraft()
	if err != nil {
		return &userError{msg: err.Error(), hint: "Delete the draft with: emsprovision draft delete " + draftPath}
	}

	var state *wizard.State
	if resumed {
		fmt.Printf("\n\033[33m⚠ Resuming draft: %s\033[0m\n", filepath.Base(draftPath))
		state, err = ctrl.Resume(session.State)
		if err != nil {
			return err
		}
	} else {
		state = ctrl.Open(r.seed)
	}
	session.Attach(state)
	session.Start()
	defer session.Stop()

	data, err := iwizard.Drive(ctx, ctrl, state, newTerminalUI(r.prompts),
		iwizard.WithDraftSaver(session.SaveDraft),
		iwizard.WithDriveLogger(a.log),
	)
	if errors.Is(err, iwizard.ErrCancelled) {
		fmt.Println("  Cancelled.")
		return nil
	}
	if err != nil {
		return err
	}
	session.Stop()

	var stored string
	tasks := []iwizard.Task{
		{Name: "Save record", Run: func() error {
			var err error
			stored, err = r.save(data)
			return err
		}},
		{Name: "Clean up drafts", Run: session.Finalize},
	}
	start := time.Now()
	err = iwizard.RunTasks(tasks,
		func(i, n int, name string) { a.log.Debug("stage", "step", fmt.Sprintf("%d/%d", i, n), "name", name) },
		nil,
	)
	if err != nil {
		if path, saveErr := session.SaveDraft(); saveErr == nil && path != "" {
			fmt.Printf("  Draft kept: %s\n", path)
		}
		return err
	}
	a.log.Info("✓ "+stored, "wizard", r.def.Name, "duration", time.Since(start).Round(time.Millisecond).String())
	return nil
}
