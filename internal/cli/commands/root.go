package commands

import (
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/topickey/internal/cli/config"
	"github.com/conduit-lang/topickey/internal/cli/ui"
	"github.com/conduit-lang/topickey/internal/logging"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "topickey",
		Short: "Topic key schema derivation and CDR key-hash encoding",
		Long: color.CyanString(`topickey - key holders and key hashes for topic types

topickey reads structured type descriptions, derives the key holder of
each type from its key-marked fields and reports the facts a key-hash
computation needs:
  • whether the type has a key
  • whether the type was declared fixed size
  • whether key hashes must be digests of the key bytes
  • the canonical CDR_BE key bytes of an instance`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default: ./topickey.yaml)")
	flags.StringP("output", "o", "", "Output format: table, yaml, json or cbor")
	flags.Bool("no-color", false, "Disable colored output")
	flags.String("log-level", "", "Log level: debug, info, warn or error")

	// Add subcommands
	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewDeriveCommand())
	rootCmd.AddCommand(NewEncodeCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// environment is what a command needs once flags and config are merged
type environment struct {
	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer
}

// setup loads the config, applies flag overrides and builds the logger
func setup(cmd *cobra.Command) (*environment, error) {
	flags := cmd.Flags()
	noColor, _ := flags.GetBool("no-color")

	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, &displayError{err: err, message: ui.ConfigError(err.Error(), noColor)}
	}

	if flags.Changed("output") {
		cfg.Output.Format, _ = flags.GetString("output")
	}
	if flags.Changed("no-color") {
		cfg.Output.NoColor = noColor
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if err := config.Validate(cfg); err != nil {
		return nil, &displayError{err: err, message: ui.ConfigError(err.Error(), cfg.Output.NoColor)}
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	return &environment{cfg: cfg, logger: logger, out: cmd.OutOrStdout()}, nil
}

func (e *environment) close() {
	_ = e.logger.Sync()
}

// displayError carries a preformatted message for Execute to print
type displayError struct {
	err     error
	message string
}

func (e *displayError) Error() string {
	return e.err.Error()
}

func (e *displayError) Unwrap() error {
	return e.err
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		printError(rootCmd.ErrOrStderr(), err, color.NoColor)
		return err
	}
	return nil
}
