// Command rosetta runs the translation extension backend and drives it from
// the terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	bridge "github.com/spounge-ai/rosetta/internal/app/grpc"
	infra_config "github.com/spounge-ai/rosetta/internal/infra/config"
	"github.com/spounge-ai/rosetta/internal/wiring"
)

const defaultTimeout = 10 * time.Second

func main() {
	if err := execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// execute runs one command line and releases storage afterwards, whether
// the command failed or not.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root, a := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	return errors.Join(err, a.close())
}

// app carries what every subcommand shares. It is filled in before a
// subcommand runs and released after.
type app struct {
	configPath string
	logLevel   string
	timeout    time.Duration

	cfg       *infra_config.Config
	logger    *slog.Logger
	container *wiring.Container
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:   "rosetta",
		Short: "Screen region translation backend",
		Long: `Rosetta captures a region of the active tab, sends it to Gemini or Groq
and shows the translation in the page.

"rosetta serve" runs the extension and exposes it over gRPC. The other
commands manage keys, preferences and history directly in storage, or talk
to a running server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", os.Getenv(infra_config.EnvPrefix+"_CONFIG_PATH"), "Path to configuration file (YAML)")
	flags.StringVarP(&a.logLevel, "log-level", "l", "", "Log level override (debug, info, warn, error)")
	flags.DurationVar(&a.timeout, "timeout", defaultTimeout, "Timeout for calls to a running server")

	root.AddCommand(
		newServeCmd(a),
		newKeysCmd(a),
		newPrefsCmd(a),
		newHistoryCmd(a),
		newTriggerCmd(a),
		newSendCmd(a),
		newPingCmd(a),
		newProxyCheckCmd(a),
		newMigrateCmd(a),
	)
	return root, a
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := infra_config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	a.cfg = cfg
	a.logger = cfg.Logging.NewLogger(cmd.ErrOrStderr())
	a.container = wiring.NewContainer(cfg, a.logger)
	return nil
}

func (a *app) close() error {
	if a.container == nil {
		return nil
	}
	if err := a.container.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}
	return nil
}

func (a *app) services(ctx context.Context) (*wiring.Services, error) {
	return a.container.Services(ctx, nil)
}

// dial connects to a running server. The returned cancel releases both the
// call deadline and the connection.
func (a *app) dial(ctx context.Context) (context.Context, *bridge.Client, func(), error) {
	client, err := bridge.Dial(a.cfg.Server)
	if err != nil {
		return nil, nil, nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	return ctx, client, func() {
		cancel()
		_ = client.Close()
	}, nil
}
