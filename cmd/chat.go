package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/teemow/scheduler/internal/export"
)

const chatHelp = `Commands:
  /save   save the last answer as a Markdown document
  /reset  forget the conversation so far
  /help   show this help
  /quit   leave (also /exit or Ctrl-D)`

// asker is the part of the orchestrator the chat loop uses.
type asker interface {
	Ask(ctx context.Context, utterance string) (string, error)
	Reset()
}

type chatUI struct {
	in       *bufio.Scanner
	out      io.Writer
	agent    asker
	exporter *export.Exporter

	prompt  *color.Color
	answer  *color.Color
	notice  *color.Color
	failure *color.Color
}

func newChatCmd() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the scheduling assistant",
		Long: `Start an interactive conversation with the scheduling assistant.

Ask about your calendar in plain language, for example:
  what do I have tomorrow?
  move lunch with Alice to 1pm
  delete everything on Saturday afternoon

The assistant remembers the last few turns of the conversation. Type /help
for the chat commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				color.NoColor = true
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			a, err := newApp(ctx, cfg, stderr, true)
			if err != nil {
				return err
			}
			defer func() {
				_ = a.Close(context.Background())
			}()

			orch, err := a.newOrchestrator(uuid.NewString())
			if err != nil {
				return err
			}

			ui := newChatUI(cmd.InOrStdin(), cmd.OutOrStdout(), orch, a.exporter)
			return ui.run(ctx)
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	return cmd
}

func newChatUI(in io.Reader, out io.Writer, agent asker, exporter *export.Exporter) *chatUI {
	return &chatUI{
		in:       bufio.NewScanner(in),
		out:      out,
		agent:    agent,
		exporter: exporter,
		prompt:   color.New(color.FgCyan, color.Bold),
		answer:   color.New(color.FgGreen),
		notice:   color.New(color.FgYellow),
		failure:  color.New(color.FgRed),
	}
}

func (ui *chatUI) run(ctx context.Context) error {
	ui.notice.Fprintln(ui.out, "Scheduler ready. Ask about your calendar, or type /help.")

	var last string
	for {
		ui.prompt.Fprint(ui.out, "you> ")
		if !ui.in.Scan() {
			fmt.Fprintln(ui.out)
			return ui.in.Err()
		}
		line := strings.TrimSpace(ui.in.Text())

		switch strings.ToLower(line) {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/help":
			fmt.Fprintln(ui.out, chatHelp)
			continue
		case "/reset":
			ui.agent.Reset()
			last = ""
			ui.notice.Fprintln(ui.out, "Conversation cleared.")
			continue
		case "/save":
			ui.save(last)
			continue
		}

		answer, err := ui.agent.Ask(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			ui.failure.Fprintf(ui.out, "Sorry, something went wrong: %v\n", err)
			continue
		}
		last = answer
		ui.answer.Fprintln(ui.out, answer)
	}
}

func (ui *chatUI) save(answer string) {
	if answer == "" {
		ui.notice.Fprintln(ui.out, "Nothing to save yet.")
		return
	}
	path, err := ui.exporter.Save(answer)
	if err != nil {
		ui.failure.Fprintf(ui.out, "Could not save: %v\n", err)
		return
	}
	ui.notice.Fprintf(ui.out, "Saved to %s\n", path)
}
