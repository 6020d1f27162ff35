package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	survey "github.com/AlecAivazis/survey/v2"

	iwizard "github.com/Bibi40k/ems-provision/internal/wizard"
)

type menuItem struct {
	label  string
	action func() error
}

func runManager(ctx context.Context, a *app) error {
	for {
		fmt.Println()
		fmt.Println("\033[1memsprovision\033[0m — Provisioning Manager")
		fmt.Println(strings.Repeat("─", 50))
		fmt.Printf("  \033[2mstore: %s (%s)\033[0m\n", a.backend.Kind(), a.backend.Dir())

		items := buildMenuItems(ctx, a)

		var labels []string
		for _, it := range items {
			labels = append(labels, it.label)
		}

		var choice string
		if err := surveySelect(&survey.Select{
			Message:  "Select:",
			Options:  labels,
			PageSize: 15,
		}, &choice); err != nil {
			return nil // Ctrl+C → clean exit
		}

		for _, it := range items {
			if it.label == choice {
				if it.action == nil {
					return nil // Exit
				}
				fmt.Println()
				if err := it.action(); err != nil {
					fmt.Printf("\n\033[31m✗ Error: %v\033[0m\n", err)
					if ue, ok := asUserError(err); ok && ue.Hint() != "" {
						fmt.Printf("  \033[33mHint:\033[0m %s\n", ue.Hint())
					}
					fmt.Print("\nPress Enter to continue...")
					_, _ = stdinReader.ReadString('\n')
				}
				break
			}
		}
	}
}

func buildMenuItems(ctx context.Context, a *app) []menuItem {
	items := []menuItem{
		{label: "[+site]    Provision new site", action: func() error { return a.runWizard(ctx, a.siteRun(), "") }},
		{label: "[+device]  Add device", action: func() error { return a.runWizard(ctx, a.deviceRun(""), "") }},
		{label: "[+profile] Create device profile", action: func() error { return a.runWizard(ctx, a.profileRun(), "") }},
		{label: "[+user]    Add user", action: func() error { return a.runWizard(ctx, a.userRun(), "") }},
	}

	drafts, _ := iwizard.ListDrafts(a.cfg.DraftPath())
	for _, d := range drafts {
		draft := d
		items = append(items, menuItem{
			label:  "\033[33m[draft]\033[0m   Resume " + draft.Label(),
			action: func() error { return a.resumeDraft(ctx, draft) },
		})
		items = append(items, menuItem{
			label:  "\033[31m[draft]\033[0m   Delete " + draft.Label(),
			action: func() error { return deleteDraft(draft.Path, true) },
		})
	}

	items = append(items,
		menuItem{label: "[sites]    List sites", action: a.listSites},
		menuItem{label: "[devices]  List devices", action: a.listDevices},
		menuItem{label: "[profiles] List profiles", action: a.listProfiles},
		menuItem{label: "[users]    List users", action: a.listUsers},
		menuItem{label: "[audit]    Show audit log", action: a.listAudit},
		menuItem{label: "           Exit", action: nil},
	)
	return items
}

func (a *app) resumeDraft(ctx context.Context, d iwizard.Draft) error {
	r, err := a.runFor(d.Wizard)
	if err != nil {
		return err
	}
	return a.runWizard(ctx, r, d.Path)
}

func deleteDraft(path string, confirm bool) error {
	if !iwizard.IsDraftPath(path) {
		return &userError{msg: "not a draft file: " + path, hint: "See: emsprovision draft list"}
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &userError{msg: "draft not found: " + path, hint: "See: emsprovision draft list"}
	}
	if confirm && !readYesNoDanger(fmt.Sprintf("Delete draft %s?", path)) {
		fmt.Println("  Cancelled.")
		return nil
	}
	if err := iwizard.DeleteDraft(path); err != nil {
		return err
	}
	fmt.Printf("  \033[32m✓\033[0m Deleted %s\n", path)
	return nil
}

func (a *app) listSites() error {
	sites, err := a.sites.List()
	if err != nil {
		return err
	}
	printSites(os.Stdout, sites)
	return nil
}

func (a *app) listDevices() error {
	devices, err := a.devices.List()
	if err != nil {
		return err
	}
	printDevices(os.Stdout, devices)
	return nil
}

func (a *app) listProfiles() error {
	profiles, err := a.profiles.List()
	if err != nil {
		return err
	}
	printProfiles(os.Stdout, profiles)
	return nil
}

func (a *app) listUsers() error {
	users, err := a.users.List()
	if err != nil {
		return err
	}
	printUsers(os.Stdout, users)
	return nil
}

func (a *app) listAudit() error {
	entries, err := a.audit.List()
	if err != nil {
		return err
	}
	printAudit(os.Stdout, entries)
	return nil
}

func printDrafts(dir string) error {
	drafts, err := iwizard.ListDrafts(dir)
	if err != nil {
		return err
	}
	if len(drafts) == 0 {
		fmt.Println("  No drafts.")
		return nil
	}
	for _, d := range drafts {
		fmt.Printf("  %-10s %s  \033[2m%s\033[0m\n", d.Wizard, d.Path, d.Modified.Format("2006-01-02 15:04"))
	}
	return nil
}
