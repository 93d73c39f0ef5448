package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/designsprint/internal/phase"
)

var (
	phaseTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("51"))

	phaseDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

func newPhasesCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "phases",
		Short: "List the sprint phases",
		Long: `List the six sprint phases with their descriptions and the inputs
each one uses.

Examples:
  # List phases
  sprint phases

  # Include the helper text shown in the UI
  sprint phases --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			writePhases(cmd.OutOrStdout(), verbose)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "include helper text and prompt labels")
	return cmd
}

func writePhases(w io.Writer, verbose bool) {
	for _, p := range phase.All() {
		cfg := phase.MustLookup(p)
		fmt.Fprintf(w, "%s  %s\n", phaseTitleStyle.Render(cfg.Title), phaseDimStyle.Render("("+strings.ToLower(p.String())+")"))
		fmt.Fprintf(w, "   %s\n", cfg.Description)
		if inputs := phaseInputs(cfg); inputs != "" {
			fmt.Fprintf(w, "   uses: %s\n", inputs)
		}
		if verbose {
			fmt.Fprintf(w, "   prompt: %s\n", cfg.UserPromptLabel)
			fmt.Fprintf(w, "   %s\n", phaseDimStyle.Render(cfg.InitialHelperText))
		}
		fmt.Fprintln(w)
	}
}

func phaseInputs(cfg phase.Config) string {
	var inputs []string
	if cfg.RequiresPersonaInput {
		inputs = append(inputs, "persona")
	}
	if cfg.RequiresProblemStatementInput {
		inputs = append(inputs, "problem statement")
	}
	if cfg.AllowsImageUpload {
		inputs = append(inputs, "images")
	}
	if cfg.Phase == phase.Decide {
		inputs = append(inputs, "ideas from the previous phase")
	}
	return strings.Join(inputs, ", ")
}
