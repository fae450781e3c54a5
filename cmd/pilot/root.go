package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/entrhq/pilot/pkg/computer"
	"github.com/entrhq/pilot/pkg/config"
	"github.com/entrhq/pilot/pkg/logging"
	"github.com/entrhq/pilot/pkg/security/blocklist"
)

const shutdownTimeout = 5 * time.Second

// globalFlags are the persistent flags shared by every subcommand. A flag only
// overrides the config file when it was set explicitly.
type globalFlags struct {
	configPath  string
	debugPort   int
	initialURL  string
	cursor      bool
	attach      bool
	headless    bool
	block       []string
	failClosed  bool
	metricsAddr string
}

// app carries state shared by the subcommands of one invocation.
type app struct {
	flags   globalFlags
	log     *logging.Logger
	metrics *metricsServer
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pilot",
		Short:         "Drive a Chromium browser the way a computer-use agent sees it",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.flags.metricsAddr == "" {
				return nil
			}
			srv, err := startMetricsServer(a.flags.metricsAddr, a.logger())
			if err != nil {
				return err
			}
			a.metrics = srv
			return nil
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&a.flags.configPath, "config", "", "config file (default ~/.pilot/config.json)")
	f.IntVar(&a.flags.debugPort, "debug-port", computer.DefaultDebugPort, "DevTools port to attach to")
	f.StringVar(&a.flags.initialURL, "initial-url", computer.DefaultInitialURL, "URL loaded after the browser is acquired (empty skips it)")
	f.BoolVar(&a.flags.cursor, "cursor", true, "draw a visible cursor on every page")
	f.BoolVar(&a.flags.attach, "attach", true, "try to attach to a running browser before launching one")
	f.BoolVar(&a.flags.headless, "headless", false, "launch the browser without a window")
	f.StringSliceVar(&a.flags.block, "block", nil, "additional blocked domains or glob patterns")
	f.BoolVar(&a.flags.failClosed, "fail-closed", false, "block requests whose URL cannot be parsed")
	f.StringVar(&a.flags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")

	cmd.SetVersionTemplate("pilot v{{.Version}}\n")
	cmd.AddCommand(
		newRunCmd(a),
		newReplCmd(a),
		newCheckCmd(a),
		newVersionCmd(),
	)
	return cmd
}

// logger lazily opens the file logger so that commands which never touch the
// browser leave no log behind.
func (a *app) logger() *logging.Logger {
	if a.log == nil {
		// NewLogger falls back to stderr on error and says so itself
		a.log, _ = logging.NewLogger("pilot")
	}
	return a.log
}

func (a *app) shutdown() {
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.metrics.Shutdown(ctx); err != nil {
			a.logger().Warnf("Metrics server shutdown failed: %v", err)
		}
		a.metrics = nil
	}
	if a.log != nil {
		_ = a.log.Close()
	}
}

// policy builds the request blocklist from the config file and the flags.
func (a *app) policy(cmd *cobra.Command, m *config.Manager) (*blocklist.Policy, error) {
	section := config.BlocklistOf(m)
	domains := append(section.GetDomains(), a.flags.block...)

	failClosed := section.FailClosed()
	if cmd.Flags().Changed("fail-closed") {
		failClosed = a.flags.failClosed
	}

	var opts []blocklist.Option
	if failClosed {
		opts = append(opts, blocklist.WithFailClosed())
	}
	policy, err := blocklist.New(domains, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid blocklist: %w", err)
	}
	return policy, nil
}

// options resolves the session options: defaults, then the config file, then
// explicitly set flags.
func (a *app) options(cmd *cobra.Command) (computer.Options, error) {
	m, err := config.Load(a.flags.configPath)
	if err != nil {
		return computer.Options{}, fmt.Errorf("failed to load configuration: %w", err)
	}

	settings := config.ComputerOf(m).Settings()
	flags := cmd.Flags()
	if flags.Changed("debug-port") {
		settings.DebugPort = a.flags.debugPort
	}
	if flags.Changed("initial-url") {
		settings.InitialURL = a.flags.initialURL
	}
	if flags.Changed("cursor") {
		settings.ShowCursor = a.flags.cursor
	}
	if flags.Changed("attach") {
		settings.Attach = a.flags.attach
	}

	policy, err := a.policy(cmd, m)
	if err != nil {
		return computer.Options{}, err
	}

	log := a.logger()
	opts := computer.DefaultOptions()
	opts.DebugPort = settings.DebugPort
	opts.InitialURL = settings.InitialURL
	opts.ShowCursor = settings.ShowCursor
	opts.SettleDelay = settings.SettleDelay
	opts.Blocklist = policy
	opts.Logger = log.Named("computer")

	launch := computer.LaunchAcquirer{Headless: a.flags.headless}
	if settings.Attach {
		opts.Acquirer = computer.FallbackAcquirer{
			Primary:  computer.AttachAcquirer{Port: settings.DebugPort},
			Fallback: launch,
			Logger:   log.Named("acquire"),
		}
	} else {
		opts.Acquirer = launch
	}
	return opts, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the pilot version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pilot v%s\n", version)
		},
	}
}
