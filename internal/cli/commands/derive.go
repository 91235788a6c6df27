package commands

import (
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/topickey/internal/watch"
	"github.com/conduit-lang/topickey/pkg/keyschema"
)

// NewDeriveCommand creates the derive command
func NewDeriveCommand() *cobra.Command {
	var watchFiles bool

	cmd := &cobra.Command{
		Use:   "derive [schema files or directories...]",
		Short: "Derive key holders from schema files",
		Long: `Register every type of the given schema files, in order, and report
the derived key holder of each: its fields, whether the type has a key,
whether it was declared fixed size, whether key hashes must be digests
and the key size when it does not vary.

Directories are searched recursively for .yaml and .yml files, which
are registered in lexical order. Registration stops at the first
rejected type.

With --watch the report is produced again whenever a schema file
changes, until interrupted.`,
		Example: `  # Report the key holders of two schema files
  topickey derive geo.yaml sensors.yaml

  # Every schema file below a directory
  topickey derive schemas/

  # Use the schema files configured in topickey.yaml
  topickey derive

  # Machine-readable output
  topickey derive sensors.yaml -o json
  topickey derive sensors.yaml -o cbor > sensors.cbor

  # Report again on every change
  topickey derive schemas/ --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			if !watchFiles {
				return runDerive(env, args)
			}

			files, err := schemaFiles(env, args)
			if err != nil {
				return err
			}
			return watchDerive(cmd, env, files)
		},
	}

	cmd.Flags().BoolVarP(&watchFiles, "watch", "w", false, "Derive again whenever a schema file changes")

	return cmd
}

func runDerive(env *environment, args []string) error {
	_, descs, err := loadRegistry(env, args)
	if err != nil {
		return err
	}

	reports := make([]keyschema.Report, 0, len(descs))
	for _, d := range descs {
		reports = append(reports, d.Report())
	}
	return renderReports(env.out, env.cfg, reports)
}

// watchDerive derives once and then again on every change to files.
// Failures are printed and watching continues.
func watchDerive(cmd *cobra.Command, env *environment, files []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	derive := func() {
		if err := runDerive(env, files); err != nil {
			printError(cmd.ErrOrStderr(), err, env.cfg.Output.NoColor)
		}
	}

	watcher, err := watch.NewFileWatcher(files, func(changed []string) error {
		env.logger.Info("schema files changed", zap.Strings("files", changed))
		derive()
		return nil
	}, watch.WithLogger(env.logger))
	if err != nil {
		return err
	}

	derive()
	env.logger.Info("watching schema files", zap.Int("files", len(files)))
	return watcher.Run(ctx)
}

// printError writes err the way Execute does
func printError(w io.Writer, err error, noColor bool) {
	var display *displayError
	if errors.As(err, &display) {
		fmt.Fprint(w, display.message)
		return
	}
	errorColor := color.New(color.FgRed, color.Bold)
	if noColor {
		errorColor.DisableColor()
	}
	errorColor.Fprintf(w, "Error: %v\n", err)
}
