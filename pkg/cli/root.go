// Package cli is the seqrets-card command line: a thin caller of seqrets.Manager
// that prints JSON on stdout.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gregLibert/seqrets-card/pkg/logging"
	"github.com/gregLibert/seqrets-card/pkg/seqrets"
)

// app carries what subcommands share once flags and config are resolved.
type app struct {
	connector seqrets.Connector
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer

	viper    *viper.Viper
	config   *Config
	logger   *slog.Logger
	registry *prometheus.Registry
	manager  *seqrets.Manager
}

// NewRootCommand builds the command tree over connector.
func NewRootCommand(connector seqrets.Connector, stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{
		connector: connector,
		stdin:     stdin,
		stdout:    stdout,
		stderr:    stderr,
		viper:     viper.New(),
	}

	root := &cobra.Command{
		Use:   "seqrets-card",
		Short: "Store and retrieve seQRets secrets on a smart card",
		Long: `seqrets-card talks to the seQRets applet over PC/SC.

Secrets are kept as a list of labeled items in the card's data slot.
Settings come from flags, then SEQRETS_* environment variables, then
the config file (default $HOME/.seqrets-card.yaml).`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.String(keyConfig, "", "config file (default is $HOME/.seqrets-card.yaml)")
	flags.StringP(keyReader, "r", "", "reader name (default is the first reader found)")
	flags.String(keyPin, "", "card PIN for protected operations")
	flags.String(keyLogLevel, "warn", "log level (debug, info, warn, error)")
	flags.String(keyLogFormat, logging.FormatText, "log format (text, json)")
	flags.String(keyMetricsTextfile, "", "write Prometheus metrics to this file on exit")

	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.AddCommand(
		a.readersCmd(),
		a.statusCmd(),
		a.appendCmd(),
		a.readCmd(),
		a.deleteCmd(),
		a.eraseCmd(),
		a.forceEraseCmd(),
		a.pinCmd(),
	)
	return root
}

// Execute runs the CLI against the system PC/SC service.
func Execute() error {
	root := NewRootCommand(seqrets.PCSC{}, os.Stdin, os.Stdout, os.Stderr)
	err := root.ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(a.viper, cmd.Flags())
	if err != nil {
		return err
	}
	a.config = cfg

	a.logger, err = logging.New(cfg.LogLevel, cfg.LogFormat, a.stderr)
	if err != nil {
		return err
	}

	a.registry = prometheus.NewRegistry()
	a.manager = seqrets.NewManager(a.connector,
		seqrets.WithLogger(a.logger),
		seqrets.WithMetrics(seqrets.NewMetrics(a.registry)),
	)
	return nil
}

// run executes fn then flushes metrics, whatever fn returned.
func (a *app) run(cmd *cobra.Command, fn func(ctx context.Context) error) error {
	err := fn(cmd.Context())
	if ferr := a.flushMetrics(); ferr != nil {
		a.logger.Warn("write metrics", "path", a.config.MetricsTextfile, "error", ferr)
	}
	return err
}

func (a *app) flushMetrics() error {
	if a.config.MetricsTextfile == "" {
		return nil
	}
	return prometheus.WriteToTextfile(a.config.MetricsTextfile, a.registry)
}

// reader returns the configured reader, or the first one connected.
func (a *app) reader(ctx context.Context) (string, error) {
	if a.config.Reader != "" {
		return a.config.Reader, nil
	}
	readers, err := a.manager.ListReaders(ctx)
	if err != nil {
		return "", err
	}
	a.logger.Debug("using first reader", "reader", readers[0])
	return readers[0], nil
}
