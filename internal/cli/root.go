// Package cli wires the archiver together behind a cobra command tree.
package cli

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	react   bool
)

// rootCmd runs the archiver when invoked without a subcommand. The
// positional argument overrides archive.dir from the config file.
var rootCmd = &cobra.Command{
	Use:   "nestor [flags] [destination]",
	Short: "Nestor archives Slack events to per-channel log files",
	Long: `Nestor connects to Slack as a bot and appends every event it sees in
the channels it is a member of to one log file per channel, one JSON
line per event.

The bot token is read from api.token in the config file, or from the
SLACK_TOKEN or TOKEN environment variables (a .env file is honored).
The archive destination comes from the positional argument or from
archive.dir in the config file.

Examples:
  nestor /var/log/slack
  nestor -c nestor.yaml -r
  SLACK_TOKEN=xoxb-... nestor -v /tmp/archive`,
	Args:         cobra.MaximumNArgs(1),
	RunE:         runArchiver,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(func() {
		// Pick up SLACK_TOKEN and friends from a local .env if present.
		_ = godotenv.Load()
	})

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().BoolVarP(&react, "react", "r", false, "mark each archived message with an emoji reaction")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})
}

// usageError marks configuration and invocation problems so Execute can
// distinguish them from runtime failures.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// Execute runs the command tree and returns the process exit code: 0 on
// clean shutdown, 1 on runtime failure, 2 on configuration errors.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		var ue *usageError
		if errors.As(err, &ue) {
			return 2
		}
		return 1
	}
	return 0
}
