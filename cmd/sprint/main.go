// Package main implements the sprint CLI: an interactive design sprint
// facilitator and a one-shot ask command for scripting.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath    string
	exportDir     string
	markdownStyle string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "sprint",
		Short: "AI-assisted design sprint facilitator",
		Long: `sprint walks a product team through a six-phase design sprint
(Understand, Define, Sketch, Decide, Prototype, Test) with a generative AI
acting as researcher, facilitator and test user.

Run without a subcommand to open the interactive terminal UI.

The AI credential is read from AI_API_KEY (or API_KEY / GEMINI_API_KEY).
A .env file in the working directory is loaded first.

Examples:
  # Start an interactive sprint
  sprint

  # Use a specific config file
  sprint --config ~/.config/designsprint/config.yaml

  # Ask one phase a question from a script
  sprint ask --phase sketch --problem "commuters can't find parking" -m "Give me ideas"`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, gitCommit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.config/designsprint/config.yaml)")
	cmd.Flags().StringVar(&opts.exportDir, "export-dir", ".", "directory for /export files and generated images")
	cmd.Flags().StringVar(&opts.markdownStyle, "style", "", "markdown style for AI replies (dark, light, notty, ...; default auto)")

	cmd.AddCommand(newPhasesCmd())
	cmd.AddCommand(newAskCmd(opts))
	return cmd
}
