package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/designsprint/internal/export"
	"github.com/fyrsmithlabs/designsprint/internal/phase"
	"github.com/fyrsmithlabs/designsprint/internal/sprint"
)

type askOptions struct {
	phase    string
	messages []string
	persona  string
	problem  string
	images   []string
	summary  bool
	export   string
}

func newAskCmd(root *rootOptions) *cobra.Command {
	opts := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Run one phase non-interactively",
		Long: `Run a single sprint phase without the UI. Each message is sent in
order and the conversation is printed to stdout.

Examples:
  # Interview the default persona
  sprint ask -m "What frustrates you about parking downtown?"

  # Generate ideas for a problem statement
  sprint ask --phase sketch --problem "commuters can't find parking" -m "Give me ideas"

  # Simulate a usability test with screenshots, then export
  sprint ask --phase test --image home.png --image map.png \
    -m "Find a free spot near the station" --summary --export test.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.messages = append(opts.messages, strings.Join(args, " "))
			}
			return runAsk(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.phase, "phase", "p", "understand", "phase name or number (1-6)")
	cmd.Flags().StringArrayVarP(&opts.messages, "message", "m", nil, "message to send (repeatable)")
	cmd.Flags().StringVar(&opts.persona, "persona", "", "user persona (Understand and Test)")
	cmd.Flags().StringVar(&opts.problem, "problem", "", "problem statement (Sketch)")
	cmd.Flags().StringArrayVar(&opts.images, "image", nil, "prototype image to stage (Test, repeatable)")
	cmd.Flags().BoolVar(&opts.summary, "summary", false, "print a summary of the phase afterwards")
	cmd.Flags().StringVar(&opts.export, "export", "", "export the phase to a .md, .json or .yaml file")
	return cmd
}

func runAsk(cmd *cobra.Command, root *rootOptions, opts *askOptions) error {
	if len(opts.messages) == 0 {
		return errors.New("at least one message is required (use -m or a positional argument)")
	}
	p, err := phase.Parse(opts.phase)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	cfg, err := loadConfig(root.configPath)
	if err != nil {
		return err
	}
	cfg.Sprint.InitialPhase = p.String()
	if opts.persona != "" {
		cfg.Sprint.DefaultPersona = opts.persona
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(ctx) }()

	if err := a.orch.Start(ctx); err != nil {
		if msg := a.orch.Snapshot().BackendError; msg != "" {
			return fmt.Errorf("%s (%w)", msg, err)
		}
		return err
	}
	if opts.problem != "" {
		if err := a.orch.SetProblemStatement(ctx, opts.problem); err != nil {
			return err
		}
	}
	if len(opts.images) > 0 {
		images, err := a.loader.LoadFiles(opts.images)
		if err != nil {
			return err
		}
		if err := a.orch.SetImages(images); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	printed := printTranscript(out, a.orch.Snapshot().Transcript, 0)
	for _, msg := range opts.messages {
		sendErr := a.orch.Send(ctx, msg)
		printed = printTranscript(out, a.orch.Snapshot().Transcript, printed)
		if sendErr != nil {
			return sendErr
		}
	}

	if opts.summary {
		summary, err := a.orch.Summarize(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nSummary:\n%s\n", summary)
	}

	if opts.export != "" {
		doc, redacted := export.Redact(export.FromState(a.orch.Snapshot(), time.Now()), a.scrubber)
		if err := export.WriteFile(opts.export, doc); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", opts.export)
		if redacted > 0 {
			a.logger.Info(ctx, "redacted secrets from export", zap.Int("count", redacted))
		}
	}
	return nil
}

// printTranscript writes the entries after from and returns the new count.
func printTranscript(w io.Writer, transcript []sprint.Message, from int) int {
	from = min(from, len(transcript))
	for _, msg := range transcript[from:] {
		switch msg.Sender {
		case sprint.SenderUser:
			fmt.Fprintf(w, "> %s\n\n", msg.Text)
		case sprint.SenderAI:
			fmt.Fprintf(w, "%s\n\n", msg.Text)
		default:
			fmt.Fprintf(w, "» %s\n", msg.Text)
		}
		if msg.Metadata == nil {
			continue
		}
		for _, idea := range msg.Metadata.Ideas {
			fmt.Fprintf(w, "  - %s\n", idea.Text)
		}
		for _, c := range msg.Metadata.Citations {
			fmt.Fprintf(w, "  source: %s\n", c)
		}
		fmt.Fprintln(w)
	}
	return len(transcript)
}
