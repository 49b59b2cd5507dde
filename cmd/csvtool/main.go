// Command csvtool inspects, normalizes and converts delimited text files
// from the command line using the same engine as the HTTP server.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvparser/internal/core"
	"github.com/JonMunkholm/csvparser/internal/logging"
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	logLevel  string
	logFormat string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "csvtool",
		Short:         "Inspect, normalize and convert CSV files",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "debug, info, warn or error")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "text or json")

	cmd.AddCommand(
		newInspectCommand(opts),
		newNormalizeCommand(opts),
		newConvertCommand(opts),
	)
	return cmd
}

// logger writes to the command's error stream so stdout stays clean for
// converted output.
func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	return logging.New(cmd.ErrOrStderr(), o.logLevel, o.logFormat)
}

// userError rewrites engine errors into their user-facing message so the
// CLI prints the same text the HTTP API returns.
func userError(err error) error {
	if err == nil || !core.IsUserFacing(err) {
		return err
	}
	return &cliError{msg: core.FormatUserError(err), err: err}
}

type cliError struct {
	msg string
	err error
}

func (e *cliError) Error() string { return e.msg }
func (e *cliError) Unwrap() error { return e.err }
