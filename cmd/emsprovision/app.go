package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Bibi40k/ems-provision/internal/config"
	"github.com/Bibi40k/ems-provision/pkg/ems"
	"github.com/Bibi40k/ems-provision/pkg/store"
)

// loadedCfg is set by the root command's PersistentPreRunE.
var loadedCfg *config.Config

func logLevel() string {
	if loadedCfg == nil {
		return "info"
	}
	return loadedCfg.LogLevel
}

func loadConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(configDir, cmd.Flags())
	if err != nil {
		return &userError{
			msg:  err.Error(),
			hint: "Check " + config.ProjectPath(configDir) + ", " + config.GlobalPath() + " and EMS_* variables",
		}
	}
	loadedCfg = cfg
	return nil
}

// app bundles the repositories one command works with.
type app struct {
	cfg      *config.Config
	backend  *store.Backend
	sites    store.Repository[ems.Site]
	devices  store.Repository[ems.Device]
	profiles store.Repository[ems.Profile]
	users    store.Repository[ems.User]
	audit    store.Repository[ems.AuditEntry]
	log      *slog.Logger
}

func openApp() (*app, error) {
	cfg := loadedCfg
	if cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	kind, err := store.ParseKind(cfg.Store)
	if err != nil {
		return nil, &userError{msg: err.Error(), hint: "Use --store yaml or --store bolt"}
	}
	b, err := store.Open(kind, cfg.DataDir)
	if err != nil {
		if errors.Is(err, store.ErrLocked) {
			return nil, &userError{msg: err.Error(), hint: "Another emsprovision process is using " + cfg.DataDir}
		}
		return nil, fmt.Errorf("open store: %w", err)
	}
	a := &app{cfg: cfg, backend: b, log: getLogger()}
	if a.sites, err = store.Collection[ems.Site](b, "sites"); err != nil {
		return nil, a.closeWith(err)
	}
	if a.devices, err = store.Collection[ems.Device](b, "devices"); err != nil {
		return nil, a.closeWith(err)
	}
	if a.profiles, err = store.Collection[ems.Profile](b, "profiles"); err != nil {
		return nil, a.closeWith(err)
	}
	if a.users, err = store.Collection[ems.User](b, "users"); err != nil {
		return nil, a.closeWith(err)
	}
	if a.audit, err = store.Collection[ems.AuditEntry](b, "audit"); err != nil {
		return nil, a.closeWith(err)
	}
	a.log.Debug("store opened", "kind", string(kind), "path", b.Dir())
	return a, nil
}

func (a *app) closeWith(err error) error {
	_ = a.backend.Close()
	return err
}

func (a *app) Close() error {
	return a.backend.Close()
}

// recordAudit appends an audit entry for a create attempt. A failed audit
// write is logged; the record itself is already stored.
func (a *app) recordAudit(action, resourceType, resourceID string, err error) {
	if a.audit == nil {
		return
	}
	e := ems.NewAuditEntry(a.cfg.Operator, action, resourceType, resourceID, err, time.Now())
	if werr := a.audit.Create(e); werr != nil {
		a.log.Warn("audit write failed", "action", action, "resource", resourceID, "error", werr)
	}
}

// siteNameTaken reports whether a stored site already uses name.
func (a *app) siteNameTaken(name string) bool {
	sites, err := a.sites.List()
	if err != nil {
		return false
	}
	for _, s := range sites {
		if strings.EqualFold(s.Name, name) {
			return true
		}
	}
	return false
}

func (a *app) profileNameTaken(name string) bool {
	profiles, err := a.profiles.List()
	if err != nil {
		return false
	}
	for _, p := range profiles {
		if strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

func exists[T store.Record](repo store.Repository[T]) func(key string) bool {
	return func(key string) bool {
		_, err := repo.Get(key)
		return err == nil
	}
}

// withApp opens the store for the duration of fn.
func withApp(fn func(a *app) error) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	return fn(a)
}
