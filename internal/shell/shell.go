// Package shell is the interactive mode: one inspection session against a
// server, driving the controller through typed commands. Starting the
// shell triggers the same initial history fetch the web client performs on
// page load.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/manash/corroscan/internal/controller"
	"github.com/manash/corroscan/internal/fetch"
	"github.com/manash/corroscan/internal/ledger"
	"github.com/manash/corroscan/internal/view"
)

type Shell struct {
	in          io.Reader
	out         io.Writer
	err         io.Writer
	ctrl        *controller.Controller
	term        *view.Terminal
	previewer   *view.Previewer
	fetcher     *fetch.Fetcher
	ledger      *ledger.Store
	interactive bool
	commands    map[string]Command
	running     bool
}

type Config struct {
	In          io.Reader
	Out         io.Writer
	Err         io.Writer
	Controller  *controller.Controller
	Term        *view.Terminal
	Previewer   *view.Previewer
	Fetcher     *fetch.Fetcher
	Ledger      *ledger.Store // optional
	Interactive bool
}

func New(cfg *Config) *Shell {
	s := &Shell{
		in:          cfg.In,
		out:         cfg.Out,
		err:         cfg.Err,
		ctrl:        cfg.Controller,
		term:        cfg.Term,
		previewer:   cfg.Previewer,
		fetcher:     cfg.Fetcher,
		ledger:      cfg.Ledger,
		interactive: cfg.Interactive,
		commands:    make(map[string]Command),
	}
	s.registerCommands()
	return s
}

func (s *Shell) Run(ctx context.Context) error {
	s.running = true
	s.printWelcome()

	// Page-load behavior: populate the history region before the first
	// prompt.
	s.ctrl.LoadHistory(ctx)

	scanner := bufio.NewScanner(s.in)
	for s.running {
		s.printPrompt()
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if err := s.execute(ctx, line); err != nil {
			fmt.Fprintf(s.err, "Error: %v\n", err)
		}
	}

	return scanner.Err()
}

func (s *Shell) execute(ctx context.Context, line string) error {
	parts := parseLine(line)
	if len(parts) == 0 {
		return nil
	}

	name := strings.ToLower(parts[0])
	cmd, ok := s.commands[name]
	if !ok {
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", name)
	}

	return cmd.Execute(ctx, s, parts[1:])
}

func (s *Shell) Stop() {
	s.running = false
}

func (s *Shell) printWelcome() {
	if !s.interactive {
		return
	}
	fmt.Fprintln(s.out, "corroscan interactive mode")
	fmt.Fprintln(s.out, "Type 'help' for available commands, 'quit' to exit.")
	fmt.Fprintln(s.out)
}

func (s *Shell) printPrompt() {
	if !s.interactive {
		return
	}
	if id := s.ctrl.CurrentImageID(); id != "" {
		fmt.Fprintf(s.out, "corroscan [%s]> ", shortID(id))
	} else {
		fmt.Fprint(s.out, "corroscan> ")
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// parseLine splits a command line into fields, honoring single and double
// quotes so comments and paths can contain spaces.
func parseLine(line string) []string {
	var parts []string
	var current strings.Builder
	inQuotes := false
	quoteChar := rune(0)

	for _, ch := range line {
		switch {
		case ch == '"' || ch == '\'':
			switch {
			case inQuotes && ch == quoteChar:
				inQuotes = false
				quoteChar = 0
			case !inQuotes:
				inQuotes = true
				quoteChar = ch
			default:
				current.WriteRune(ch)
			}
		case ch == ' ' && !inQuotes:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(ch)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}
