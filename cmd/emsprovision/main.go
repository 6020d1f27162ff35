// emsprovision - CLI wizards for provisioning EMS sites, devices, profiles and users
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Bibi40k/ems-provision/configs"
	"github.com/Bibi40k/ems-provision/pkg/ems"
)

var configDir string
var debugLogs bool
var deviceType string
var discoverCIDR string
var discoverProtocol string
var draftDeleteYes bool

// mainSigCh receives SIGINT for the default handler. Running wizards
// temporarily stop delivery to it so Ctrl+C can save a draft first.
var mainSigCh = make(chan os.Signal, 1)

var rootCmd = &cobra.Command{
	Use:           "emsprovision",
	Short:         "Provision EMS sites, devices, device profiles and users",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}
		_ = initDebugLogger(loadedCfg.DataDir)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error { return runManager(cmd.Context(), a) })
	},
}

var siteCmd = &cobra.Command{
	Use:           "site",
	Short:         "Site provisioning",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var siteCreateCmd = &cobra.Command{
	Use:           "create",
	Short:         "Provision a new site",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			return a.runWizard(cmd.Context(), a.siteRun(), "")
		})
	},
}

var siteListCmd = &cobra.Command{
	Use:           "list",
	Short:         "List provisioned sites",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error { return a.listSites() })
	},
}

var deviceCmd = &cobra.Command{
	Use:           "device",
	Short:         "Device registration",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var deviceAddCmd = &cobra.Command{
	Use:           "add",
	Short:         "Add a device to a site",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if deviceType != "" {
			if _, ok := configs.Defaults.DeviceType(deviceType); !ok {
				return &userError{
					msg:  fmt.Sprintf("unknown device type %q", deviceType),
					hint: "Valid types: " + strings.Join(ems.DeviceTypes(), ", "),
				}
			}
		}
		return withApp(func(a *app) error {
			return a.runWizard(cmd.Context(), a.deviceRun(deviceType), "")
		})
	},
}

var deviceListCmd = &cobra.Command{
	Use:           "list",
	Short:         "List registered devices",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error { return a.listDevices() })
	},
}

var profileCmd = &cobra.Command{
	Use:           "profile",
	Short:         "Device profiles (point map templates)",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var profileCreateCmd = &cobra.Command{
	Use:           "create",
	Short:         "Create a device profile",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			return a.runWizard(cmd.Context(), a.profileRun(), "")
		})
	},
}

var profileListCmd = &cobra.Command{
	Use:           "list",
	Short:         "List device profiles",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error { return a.listProfiles() })
	},
}

var userCmd = &cobra.Command{
	Use:           "user",
	Short:         "User accounts",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var userAddCmd = &cobra.Command{
	Use:           "add",
	Short:         "Add a user account",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			return a.runWizard(cmd.Context(), a.userRun(), "")
		})
	},
}

var userListCmd = &cobra.Command{
	Use:           "list",
	Short:         "List user accounts",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error { return a.listUsers() })
	},
}

var auditCmd = &cobra.Command{
	Use:           "audit",
	Short:         "Audit log of created records",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var auditListCmd = &cobra.Command{
	Use:           "list",
	Short:         "List audit entries, oldest first",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error { return a.listAudit() })
	},
}

var draftCmd = &cobra.Command{
	Use:           "draft",
	Short:         "Saved wizard drafts",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var draftListCmd = &cobra.Command{
	Use:           "list",
	Short:         "List saved drafts",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printDrafts(loadedCfg.DraftPath())
	},
}

var draftDeleteCmd = &cobra.Command{
	Use:           "delete <path>",
	Short:         "Delete a saved draft",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return deleteDraft(args[0], !draftDeleteYes)
	},
}

var discoverCmd = &cobra.Command{
	Use:           "discover",
	Short:         "Run a simulated device scan",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		found, err := ems.Discover(discoverCIDR, discoverProtocol)
		if err != nil {
			return &userError{msg: err.Error(), hint: "Example: emsprovision discover --cidr 192.168.1.0/24 --protocol modbus_tcp"}
		}
		reportScan(os.Stdout, discoverCIDR, ems.WithProtocol(found, discoverProtocol))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "Directory holding the project emsprovision.yml")
	rootCmd.PersistentFlags().String("store", "", "Storage backend: yaml or bolt (overrides config)")
	rootCmd.PersistentFlags().String("data-dir", "", "Directory for records and drafts (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&debugLogs, "debug", false, "Enable debug logging to <data-dir>/"+debugLogName)

	rootCmd.AddCommand(siteCmd, deviceCmd, profileCmd, userCmd, auditCmd, draftCmd, discoverCmd)
	siteCmd.AddCommand(siteCreateCmd, siteListCmd)
	deviceCmd.AddCommand(deviceAddCmd, deviceListCmd)
	profileCmd.AddCommand(profileCreateCmd, profileListCmd)
	userCmd.AddCommand(userAddCmd, userListCmd)
	auditCmd.AddCommand(auditListCmd)
	draftCmd.AddCommand(draftListCmd, draftDeleteCmd)

	deviceAddCmd.Flags().StringVar(&deviceType, "type", "", "Preselect the device type (e.g. inverter, meter, bms)")
	draftDeleteCmd.Flags().BoolVarP(&draftDeleteYes, "yes", "y", false, "Delete without asking")
	discoverCmd.Flags().StringVar(&discoverCIDR, "cidr", "192.168.1.0/24", "Network range to scan")
	discoverCmd.Flags().StringVar(&discoverProtocol, "protocol", "", "Only report devices speaking this protocol")
}

func main() {
	// Handle Ctrl+C: print a clean message and exit 0.
	// Running wizards call signal.Stop(mainSigCh) to save a draft first.
	signal.Notify(mainSigCh, os.Interrupt)
	go func() {
		<-mainSigCh
		restoreTTYOnExit()
		fmt.Println("\nCancelled.")
		os.Exit(0)
	}()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		const (
			red    = "\033[31m"
			yellow = "\033[33m"
			cyan   = "\033[36m"
			reset  = "\033[0m"
		)
		if ue, ok := asUserError(err); ok {
			fmt.Fprintf(os.Stderr, "%sError:%s %s\n", red, reset, ue.Error())
			if hint := ue.Hint(); hint != "" {
				fmt.Fprintf(os.Stderr, "%sHint:%s %s%s%s\n", yellow, reset, cyan, hint, reset)
			}
		} else {
			fmt.Fprintf(os.Stderr, "%sError:%s %v\n", red, reset, err)
		}
		if debugCleanup != nil {
			debugCleanup()
		}
		os.Exit(1)
	}
	if debugCleanup != nil {
		debugCleanup()
	}
}
