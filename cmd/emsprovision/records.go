package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Bibi40k/ems-provision/pkg/ems"
	"github.com/Bibi40k/ems-provision/pkg/store"
	"github.com/Bibi40k/ems-provision/pkg/wizard"
)

func existsHint(err error, what, listCmd string) error {
	if errors.Is(err, store.ErrExists) {
		return &userError{msg: err.Error(), hint: fmt.Sprintf("Pick another %s; see: emsprovision %s", what, listCmd)}
	}
	return err
}

func (a *app) siteRun() wizardRun {
	return wizardRun{
		title:   "Site Provisioning",
		def:     ems.SiteWizard(ems.SiteOptions{NameTaken: a.siteNameTaken}),
		prompts: sitePrompts(a),
		save: func(data wizard.FormData) (string, error) {
			s, err := ems.BuildSite(data, time.Now())
			if err != nil {
				return "", err
			}
			s.CreatedBy = a.cfg.Operator
			err = a.sites.Create(s)
			a.recordAudit(ems.AuditSiteCreate, "site", s.ID, err)
			if err != nil {
				return "", existsHint(err, "site name or code", "site list")
			}
			return fmt.Sprintf("Site %s (%s) created", s.Name, s.ID), nil
		},
	}
}

func (a *app) deviceRun(deviceType string) wizardRun {
	var seed wizard.FormData
	if deviceType != "" {
		seed = wizard.FormData{ems.FieldDeviceType: deviceType}
	}
	return wizardRun{
		title: "Add Device",
		def: ems.DeviceWizard(ems.DeviceOptions{
			IDTaken:       exists(a.devices),
			SiteExists:    exists(a.sites),
			ProfileExists: exists(a.profiles),
		}),
		prompts: devicePrompts(a),
		seed:    seed,
		save: func(data wizard.FormData) (string, error) {
			d, err := ems.BuildDevice(data, time.Now())
			if err != nil {
				return "", err
			}
			err = a.devices.Create(d)
			a.recordAudit(ems.AuditDeviceCreate, "device", d.ID, err)
			if err != nil {
				return "", existsHint(err, "device ID", "device list")
			}
			if err := a.bumpDeviceCount(d.PlantID); err != nil {
				return "", err
			}
			return fmt.Sprintf("Device %s added to %s (%s)", d.ID, d.PlantID, d.Commissioning), nil
		},
	}
}

// bumpDeviceCount keeps the site's device count in step with added devices.
func (a *app) bumpDeviceCount(siteID string) error {
	s, err := a.sites.Get(siteID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	s.DeviceCount++
	return a.sites.Update(s)
}

func (a *app) profileRun() wizardRun {
	return wizardRun{
		title:   "Device Profile",
		def:     ems.ProfileWizard(ems.ProfileOptions{NameTaken: a.profileNameTaken}),
		prompts: profilePrompts(),
		save: func(data wizard.FormData) (string, error) {
			p, err := ems.BuildProfile(data, time.Now())
			if err != nil {
				return "", err
			}
			err = a.profiles.Create(p)
			a.recordAudit(ems.AuditProfileCreate, "profile", p.ID, err)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Profile %s saved (%d points)", p.Name, len(p.Points)), nil
		},
	}
}

func (a *app) userRun() wizardRun {
	return wizardRun{
		title: "Add User",
		def: ems.UserWizard(ems.UserOptions{
			UsernameTaken: exists(a.users),
			SiteExists:    exists(a.sites),
		}),
		prompts: userPrompts(a),
		save: func(data wizard.FormData) (string, error) {
			u, err := ems.BuildUser(data, time.Now())
			if err != nil {
				return "", err
			}
			err = a.users.Create(u)
			a.recordAudit(ems.AuditUserCreate, "user", u.Username, err)
			if err != nil {
				return "", existsHint(err, "username", "user list")
			}
			return fmt.Sprintf("User %s created with role %s", u.Username, u.Role), nil
		},
	}
}

// runFor maps a draft's wizard name to its run.
func (a *app) runFor(name string) (wizardRun, error) {
	switch name {
	case ems.SiteWizardName:
		return a.siteRun(), nil
	case ems.DeviceWizardName:
		return a.deviceRun(""), nil
	case ems.ProfileWizardName:
		return a.profileRun(), nil
	case ems.UserWizardName:
		return a.userRun(), nil
	}
	return wizardRun{}, fmt.Errorf("unknown wizard %q", name)
}

// ─── Listings ────────────────────────────────────────────────────────────────

func printSites(out io.Writer, sites []ems.Site) {
	if len(sites) == 0 {
		fmt.Fprintln(out, "  No sites.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tCAPACITY MW\tDEVICES\tSTATUS")
	for _, s := range sites {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%d\t%s\n", s.ID, s.Name, s.Type, s.CapacityMW, s.DeviceCount, s.Status)
	}
	_ = w.Flush()
}

func printDevices(out io.Writer, devices []ems.Device) {
	if len(devices) == 0 {
		fmt.Fprintln(out, "  No devices.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSITE\tTYPE\tMAKE/MODEL\tPROTOCOL\tENDPOINT\tSTATE")
	for _, d := range devices {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", d.ID, d.PlantID, ems.DeviceTypeLabel(d.Type), d.Make+" "+d.Model, d.Protocol, endpoint(d.Connection), orDash(d.Commissioning))
	}
	_ = w.Flush()
}

func endpoint(c ems.Connection) string {
	switch {
	case c.SerialPort != "":
		return fmt.Sprintf("%s@%d", c.SerialPort, c.Baudrate)
	case c.TopicPrefix != "":
		return fmt.Sprintf("%s:%d/%s", c.Host, c.Port, c.TopicPrefix)
	case c.Host != "":
		return fmt.Sprintf("%s:%d", c.Host, c.Port)
	}
	return "-"
}

func printProfiles(out io.Writer, profiles []ems.Profile) {
	if len(profiles) == 0 {
		fmt.Fprintln(out, "  No profiles.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tVENDOR\tTYPE\tPOINTS")
	for _, p := range profiles {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", p.ID, p.Name, p.Vendor, p.DeviceType, len(p.Points))
	}
	_ = w.Flush()
}

func printUsers(out io.Writer, users []ems.User) {
	if len(users) == 0 {
		fmt.Fprintln(out, "  No users.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "USERNAME\tNAME\tROLE\tSITES\tMFA")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", u.Username, u.FullName, u.Role, strings.Join(u.Sites, ","), u.MFA)
	}
	_ = w.Flush()
}

func printAudit(out io.Writer, entries []ems.AuditEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "  No audit entries.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tUSER\tACTION\tRESOURCE\tRESULT")
	for _, e := range entries {
		result := "ok"
		if !e.Success {
			result = "failed: " + e.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s/%s\t%s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"), orDash(e.UserID), e.Action, e.ResourceType, e.ResourceID, result)
	}
	_ = w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
