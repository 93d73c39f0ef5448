package tui

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCommand is returned for slash commands that are not recognised.
var ErrUnknownCommand = errors.New("unknown command")

// Command is a parsed slash command such as "/phase sketch".
type Command struct {
	Name string
	Args string
}

type commandHelp struct {
	usage string
	text  string
}

var commands = map[string]commandHelp{
	"phase":   {"/phase <name|1-6|next>", "switch sprint phase"},
	"persona": {"/persona [text]", "show or set the user persona"},
	"problem": {"/problem [text]", "show or set the problem statement"},
	"image":   {"/image <path>...", "stage prototype images (Test phase)"},
	"images":  {"/images [clear]", "list or clear staged images"},
	"summary": {"/summary", "summarize the current phase"},
	"copy":    {"/copy [summary|spec|ideas]", "copy an artifact to the clipboard"},
	"export":  {"/export [path]", "export the phase as .md, .json or .yaml"},
	"imagine": {"/imagine <prompt>", "generate an image from a prompt"},
	"stats":   {"/stats", "toggle the AI call panel"},
	"help":    {"/help", "toggle this help"},
	"quit":    {"/quit", "leave"},
}

var commandOrder = []string{"phase", "persona", "problem", "image", "images", "summary", "copy", "export", "imagine", "stats", "help", "quit"}

var aliases = map[string]string{
	"p":    "phase",
	"q":    "quit",
	"exit": "quit",
	"?":    "help",
	"sum":  "summary",
}

// ParseCommand splits input into a Command. ok is false when input is an
// ordinary chat message. A line starting with "//" is sent as a message
// with one slash removed.
func ParseCommand(input string) (cmd Command, ok bool, err error) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") || strings.HasPrefix(input, "//") {
		return Command{}, false, nil
	}
	name, args, _ := strings.Cut(input[1:], " ")
	name = strings.ToLower(name)
	if full, found := aliases[name]; found {
		name = full
	}
	if _, found := commands[name]; !found {
		return Command{}, true, fmt.Errorf("%w: /%s (try /help)", ErrUnknownCommand, name)
	}
	return Command{Name: name, Args: strings.TrimSpace(args)}, true, nil
}

// unescapeMessage strips the escape slash from "//text".
func unescapeMessage(input string) string {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "//") {
		return input[1:]
	}
	return input
}

func helpText() string {
	var b strings.Builder
	for _, name := range commandOrder {
		h := commands[name]
		fmt.Fprintf(&b, "  %s  %s\n", labelStyle.Render(fmt.Sprintf("%-28s", h.usage)), dimStyle.Render(h.text))
	}
	return b.String()
}
