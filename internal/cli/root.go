// Package cli provides the cobra commands of the questionnaire binary: the
// web UI server, the standalone collector, the terminal filler and the schema
// utilities.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-questionnaire/internal/config"
	"github.com/goliatone/go-questionnaire/internal/logging"
)

// app carries what every subcommand needs once flags and config are resolved.
type app struct {
	configPath string
	logLevel   string
	logFormat  string
	schemaPath string

	cfg    *config.Config
	logger *slog.Logger
}

// Execute runs the root command until it returns or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}

// NewRootCommand builds a fresh command tree.
func NewRootCommand() *cobra.Command {
	a := &app{logger: logging.Discard()}
	root := &cobra.Command{
		Use:   "questionnaire",
		Short: "Serve, fill and check schema-driven questionnaires",
		Long: `questionnaire renders a multi-section questionnaire from a JSON or YAML
schema, keeps drafts while it is filled in, and collects submissions.

Configuration comes from defaults, an optional JSON file (--config) and
QUESTIONNAIRE_ environment variables, in that order.`,
		Example: `  # Web UI with the collector on the same port
  questionnaire serve --schema survey.yaml

  # Fill the built-in sample in the terminal
  questionnaire fill

  # Convert a qq-docs export
  questionnaire import export.json -o survey.json`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Path to a JSON config file")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", "", "Log format: text or json")
	flags.StringVarP(&a.schemaPath, "schema", "s", "", "Schema file or URL (default: built-in sample)")

	root.AddCommand(
		newServeCommand(a),
		newCollectCommand(a),
		newFillCommand(a),
		newImportCommand(a),
		newRenderCommand(a),
		newCheckCommand(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if a.schemaPath != "" {
		cfg.Schema.Path = a.schemaPath
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}
