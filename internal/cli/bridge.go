package cli

import (
	"fmt"
	"os"

	"github.com/andywolf/vibes-core/internal/external"
	"github.com/andywolf/vibes-core/internal/observability"
	"github.com/spf13/cobra"
)

var (
	bridgeBinaryPath string
	bridgeProjectDir string
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Proxy read-side queries to the external vibescheck binary",
	Long: `bridge locates the external vibescheck analysis binary and forwards
one of its read-side subcommands to it, printing {success, data, error}
as reported by the binary. A missing or failing binary is reported, not
treated as a vibesctl error.`,
}

func init() {
	bridgeCmd.PersistentFlags().StringVar(&bridgeBinaryPath, "bin", "", "explicit path to the vibescheck binary")
	bridgeCmd.PersistentFlags().StringVar(&bridgeProjectDir, "project", ".", "project directory to run the query in")
	rootCmd.AddCommand(bridgeCmd)

	bridgeCmd.AddCommand(
		&cobra.Command{Use: "stats [file]", Short: "Show per-file provenance coverage", RunE: bridgeRunner(func(b *external.Bridge, args []string) external.BridgeResult {
			file := ""
			if len(args) > 0 {
				file = args[0]
			}
			return b.Stats(bridgeProjectDir, file)
		})},
		&cobra.Command{Use: "blame <file>", Short: "Show per-line provenance for a file", Args: cobra.ExactArgs(1), RunE: bridgeRunner(func(b *external.Bridge, args []string) external.BridgeResult {
			return b.Blame(bridgeProjectDir, args[0])
		})},
		&cobra.Command{Use: "coverage", Short: "Show project-wide provenance coverage", RunE: bridgeRunner(func(b *external.Bridge, args []string) external.BridgeResult {
			return b.Coverage(bridgeProjectDir, true)
		})},
		&cobra.Command{Use: "report", Short: "Render a provenance report", RunE: bridgeRunner(func(b *external.Bridge, args []string) external.BridgeResult {
			return b.Report(bridgeProjectDir, "markdown")
		})},
		&cobra.Command{Use: "sessions", Short: "List recorded sessions", RunE: bridgeRunner(func(b *external.Bridge, args []string) external.BridgeResult {
			return b.Sessions(bridgeProjectDir)
		})},
		&cobra.Command{Use: "models", Short: "List models seen in this project", RunE: bridgeRunner(func(b *external.Bridge, args []string) external.BridgeResult {
			return b.Models(bridgeProjectDir)
		})},
	)
}

// bridgeRunner wraps a Bridge call as a cobra RunE, printing the uniform
// {success, data, error} result and mapping a failed query to a non-zero
// exit code without treating it as a Go error.
func bridgeRunner(fn func(b *external.Bridge, args []string) external.BridgeResult) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		b := external.New(bridgeBinaryPath, observability.NewStdLogger())
		res := fn(b, args)
		if !res.Success {
			fmt.Fprintf(cmd.ErrOrStderr(), "vibescheck: %s\n", res.Error)
			os.Exit(1)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Data)
		return nil
	}
}
