// Package commands implements the CLI commands for stencil.
package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.trai.ch/stencil/internal/adapters/logger"
	"go.trai.ch/stencil/internal/app"
	"go.trai.ch/stencil/internal/build"
	"go.trai.ch/stencil/internal/core/ports"
)

// logSettings is implemented by loggers whose level and format can be changed.
type logSettings interface {
	SetLevel(level slog.Level)
	SetJSON(enable bool)
}

// CLI represents the command line interface for stencil.
type CLI struct {
	app     *app.App
	logger  ports.Logger
	rootCmd *cobra.Command
}

// New creates a new CLI instance with the given app.
func New(a *app.App, log ports.Logger) *CLI {
	rootCmd := &cobra.Command{
		Use:           "stencil",
		Short:         "Compile and resolve template scripts on demand",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().Bool("verbose", false, "Log debug messages")
	rootCmd.PersistentFlags().String("log-format", defaultLogFormat(),
		"Log format: auto, text or json (default from STENCIL_LOG_FORMAT)")

	c := &CLI{
		app:     a,
		logger:  log,
		rootCmd: rootCmd,
	}
	rootCmd.PersistentPreRunE = c.configureLogger

	rootCmd.AddCommand(c.newEncodeCmd())
	rootCmd.AddCommand(c.newDecodeCmd())
	rootCmd.AddCommand(c.newResolveCmd())
	rootCmd.AddCommand(c.newUseCmd())
	rootCmd.AddCommand(c.newCompileCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newAnnounceCmd())
	rootCmd.AddCommand(c.newFormatCmd())
	rootCmd.AddCommand(c.newExtensionsCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

func (c *CLI) configureLogger(cmd *cobra.Command, _ []string) error {
	settings, ok := c.logger.(logSettings)
	if !ok {
		return nil
	}
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return err
	}
	if verbose {
		settings.SetLevel(slog.LevelDebug)
	}
	choice, err := cmd.Flags().GetString("log-format")
	if err != nil {
		return err
	}
	format, err := logger.ResolveFormat(logger.DetectFormat(os.Stderr), choice)
	if err != nil {
		return err
	}
	settings.SetJSON(format == logger.FormatJSON)
	return nil
}

func defaultLogFormat() string {
	if v := os.Getenv("STENCIL_LOG_FORMAT"); v != "" {
		return v
	}
	return "auto"
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}
