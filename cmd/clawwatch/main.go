package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot(command{out: os.Stdout})
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GlobalFlags holds minimal global/persistent flags for CLI commands
type GlobalFlags struct {
	ConfigPath string
}

// buildRoot creates the root command with all subcommands attached.
func buildRoot(c command) *cobra.Command {
	globalFlags := &GlobalFlags{}
	apiFlags := &APIFlags{}
	activityFlags := &ActivityFlags{}

	root := createRootCommand(globalFlags)
	root.SetOut(c.out)
	root.AddCommand(
		createServeCommand(globalFlags),
		createStatusCommand(c, apiFlags),
		createHealthCheckCommand(c, apiFlags),
		createRestartCommand(c, apiFlags),
		createActivityCommand(c, activityFlags),
	)
	return root
}

// createRootCommand creates the root command with minimal persistent flags
func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "clawwatch",
		Short: "OpenClaw gateway watchdog",
		Long: `clawwatch polls the OpenClaw gateway, restarts it when it crashes,
notifies the team over the gateway chat API and keeps uptime statistics.

Examples:
  clawwatch serve --config=clawwatch.toml   # Start the watchdog and its API
  clawwatch status                           # Show watchdog status
  clawwatch health-check --api-url=http://remote:8080/api`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")

	return root
}

func addAPIFlags(cmd *cobra.Command, apiURL *string, apiTimeout *time.Duration, insecure *bool) {
	cmd.Flags().StringVar(apiURL, "api-url", "", "watchdog API URL (e.g. http://host:8080/api)")
	cmd.Flags().DurationVar(apiTimeout, "api-timeout", 90*time.Second, "request timeout")
	cmd.Flags().BoolVar(insecure, "api-insecure", false, "skip TLS certificate verification")
}

// createStatusCommand creates the status subcommand
func createStatusCommand(c command, flags *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show watchdog status",
		Long: `Show health, uptime and crash statistics of the monitored gateway.

Examples:
  clawwatch status
  clawwatch status --api-url=http://remote:8080/api`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Status(cmd.Context(), *flags)
		},
	}
	addAPIFlags(cmd, &flags.APIUrl, &flags.APITimeout, &flags.Insecure)
	return cmd
}

// createHealthCheckCommand creates the health-check subcommand
func createHealthCheckCommand(c command, flags *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health-check",
		Short: "Probe the gateway once",
		Long: `Run a single health check against the gateway without changing watchdog state.
Exits non-zero when the gateway is unhealthy.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.HealthCheck(cmd.Context(), *flags)
		},
	}
	addAPIFlags(cmd, &flags.APIUrl, &flags.APITimeout, &flags.Insecure)
	return cmd
}

// createRestartCommand creates the restart subcommand
func createRestartCommand(c command, flags *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the gateway now",
		Long: `Ask the watchdog to run its restart action immediately.
The attempt is counted and recorded in the activity log.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Restart(cmd.Context(), *flags)
		},
	}
	addAPIFlags(cmd, &flags.APIUrl, &flags.APITimeout, &flags.Insecure)
	return cmd
}

// createActivityCommand creates the activity subcommand
func createActivityCommand(c command, flags *ActivityFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "List recent watchdog activity",
		Long: `List recent crashes, restarts and recoveries, newest first.

Examples:
  clawwatch activity --limit=20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Activity(cmd.Context(), *flags)
		},
	}
	cmd.Flags().IntVar(&flags.Limit, "limit", 50, "maximum number of entries (1-500)")
	addAPIFlags(cmd, &flags.APIUrl, &flags.APITimeout, &flags.Insecure)
	return cmd
}

// createServeCommand creates the serve subcommand
func createServeCommand(globalFlags *GlobalFlags) *cobra.Command {
	serveFlags := &ServeFlags{}

	cmd := &cobra.Command{
		Use:   "serve [config.toml]",
		Short: "Start the gateway watchdog",
		Long: `Start the watchdog loop together with the monitoring API.
Configuration comes from defaults, the optional TOML file and the environment
(OPENCLAW_URL, WATCHDOG_*, DATABASE_URL).

Examples:
  clawwatch serve                          # defaults + environment
  clawwatch serve clawwatch.toml           # with a config file
  clawwatch serve --once                   # single poll, then exit
  clawwatch serve --daemonize --pidfile=/run/clawwatch.pid`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			serveFlags.ConfigPath = globalFlags.ConfigPath
			if len(args) > 0 {
				serveFlags.ConfigPath = args[0]
			}
			return runServeCommand(cmd.Context(), serveFlags, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&serveFlags.Once, "once", false, "run a single poll and exit")
	cmd.Flags().BoolVar(&serveFlags.Daemonize, "daemonize", false, "run as daemon in background")
	cmd.Flags().StringVar(&serveFlags.PidFile, "pidfile", "", "write daemon PID to file")
	cmd.Flags().StringVar(&serveFlags.LogFile, "logfile", "", "redirect daemon output to file")

	return cmd
}
