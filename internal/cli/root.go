// Package cli wires the revloop commands.
package cli

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var log zerolog.Logger

var rootCmd = &cobra.Command{
	Use:   "revloop",
	Short: "Multi-round diff annotation with durable finding anchors",
	Long: `revloop lets a reviewer annotate a code diff with structured findings
across multiple review rounds. Findings are anchored to the selected text
rather than to line numbers, so they follow the code as it changes; findings
whose file or anchored text disappears are auto-closed instead of pointing
at the wrong lines.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := zerolog.InfoLevel
		if v, _ := cmd.Flags().GetBool("verbose"); v {
			level = zerolog.DebugLevel
		}
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			Level(level).
			With().Timestamp().Logger()
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("session", "s", "default", "review session identifier")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(findingsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}
