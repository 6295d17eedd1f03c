package shell

import (
	"context"
	"fmt"
	"strings"

	"github.com/manash/corroscan/internal/security"
	"github.com/manash/corroscan/internal/view"
	"github.com/manash/corroscan/pkg/models"
)

type Command interface {
	Name() string
	Aliases() []string
	Description() string
	Usage() string
	Execute(ctx context.Context, s *Shell, args []string) error
}

func (s *Shell) registerCommands() {
	commands := []Command{
		&UploadCommand{},
		&CommentCommand{},
		&HistoryCommand{},
		&RefreshCommand{},
		&ShowCommand{},
		&SaveCommand{},
		&UseCommand{},
		&StatsCommand{},
		&HelpCommand{},
		&QuitCommand{},
	}

	for _, cmd := range commands {
		s.commands[cmd.Name()] = cmd
		for _, alias := range cmd.Aliases() {
			s.commands[alias] = cmd
		}
	}
}

// UploadCommand uploads an image and runs detection on it.
type UploadCommand struct{}

func (c *UploadCommand) Name() string        { return "upload" }
func (c *UploadCommand) Aliases() []string   { return []string{"up", "u"} }
func (c *UploadCommand) Description() string { return "Upload an image and detect corrosion" }
func (c *UploadCommand) Usage() string       { return "upload <path>" }

func (c *UploadCommand) Execute(ctx context.Context, s *Shell, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s", c.Usage())
	}

	// Same filter the web form's file picker applies.
	if err := security.ValidateUploadPath(args[0]); err != nil {
		return err
	}

	s.term.SelectFile(args[0])
	s.ctrl.UploadImage(ctx)
	return nil
}

// CommentCommand attaches a note to the current image. Called without
// arguments it resubmits the retained draft from a failed attempt.
type CommentCommand struct{}

func (c *CommentCommand) Name() string        { return "comment" }
func (c *CommentCommand) Aliases() []string   { return []string{"c"} }
func (c *CommentCommand) Description() string { return "Attach a comment to the current image" }
func (c *CommentCommand) Usage() string       { return `comment "<text>"` }

func (c *CommentCommand) Execute(ctx context.Context, s *Shell, args []string) error {
	if len(args) > 0 {
		s.term.SetCommentInput(strings.Join(args, " "))
	}
	s.ctrl.AddComment(ctx)
	return nil
}

// HistoryCommand reloads the upload history from the server.
type HistoryCommand struct{}

func (c *HistoryCommand) Name() string        { return "history" }
func (c *HistoryCommand) Aliases() []string   { return []string{"h", "ls"} }
func (c *HistoryCommand) Description() string { return "Reload the upload history" }
func (c *HistoryCommand) Usage() string       { return "history" }

func (c *HistoryCommand) Execute(ctx context.Context, s *Shell, _ []string) error {
	s.ctrl.LoadHistory(ctx)
	return nil
}

// RefreshCommand refreshes history and comments; it does nothing until an
// image has been uploaded this session.
type RefreshCommand struct{}

func (c *RefreshCommand) Name() string        { return "refresh" }
func (c *RefreshCommand) Aliases() []string   { return []string{"r"} }
func (c *RefreshCommand) Description() string { return "Refresh history and comments for this session" }
func (c *RefreshCommand) Usage() string       { return "refresh" }

func (c *RefreshCommand) Execute(ctx context.Context, s *Shell, _ []string) error {
	s.ctrl.RefreshHistoryAndComments(ctx)
	return nil
}

// ShowCommand previews the original or processed image inline.
type ShowCommand struct{}

func (c *ShowCommand) Name() string        { return "show" }
func (c *ShowCommand) Aliases() []string   { return []string{"s"} }
func (c *ShowCommand) Description() string { return "Preview the original or processed image" }
func (c *ShowCommand) Usage() string       { return "show [original|processed]" }

func (c *ShowCommand) Execute(ctx context.Context, s *Shell, args []string) error {
	ref, err := c.pickRef(s, args)
	if err != nil {
		return err
	}

	if !view.TerminalSupportsImages() {
		fmt.Fprintf(s.out, "Inline preview not supported by this terminal. Image URL: %s\n", s.fetcher.Resolve(ref))
		return nil
	}

	return s.previewer.Preview(ctx, ref)
}

func (c *ShowCommand) pickRef(s *Shell, args []string) (string, error) {
	which := "processed"
	if len(args) > 0 {
		which = strings.ToLower(args[0])
	}

	switch which {
	case "original":
		if s.term.OriginalURL() == "" {
			return "", fmt.Errorf("no image uploaded yet")
		}
		return s.term.OriginalURL(), nil
	case "processed":
		if s.term.ProcessedURL() != "" {
			return s.term.ProcessedURL(), nil
		}
		if s.term.OriginalURL() != "" {
			return s.term.OriginalURL(), nil
		}
		return "", fmt.Errorf("no image uploaded yet")
	default:
		return "", fmt.Errorf("usage: %s", c.Usage())
	}
}

// SaveCommand downloads an image to a local file.
type SaveCommand struct{}

func (c *SaveCommand) Name() string        { return "save" }
func (c *SaveCommand) Aliases() []string   { return nil }
func (c *SaveCommand) Description() string { return "Download an image to a local file" }
func (c *SaveCommand) Usage() string       { return "save <original|processed|url> <path>" }

func (c *SaveCommand) Execute(ctx context.Context, s *Shell, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: %s", c.Usage())
	}

	ref := args[0]
	switch strings.ToLower(ref) {
	case "original":
		ref = s.term.OriginalURL()
	case "processed":
		ref = s.term.ProcessedURL()
	}
	if ref == "" {
		return fmt.Errorf("no image uploaded yet")
	}

	if err := s.fetcher.Save(ctx, ref, args[1]); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Saved: %s\n", args[1])
	return nil
}

// UseCommand seeds the session with an image id from an earlier run so
// comments can be attached to it.
type UseCommand struct{}

func (c *UseCommand) Name() string        { return "use" }
func (c *UseCommand) Aliases() []string   { return nil }
func (c *UseCommand) Description() string { return "Switch the session to a known image id" }
func (c *UseCommand) Usage() string       { return "use <image-id>" }

func (c *UseCommand) Execute(_ context.Context, s *Shell, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s", c.Usage())
	}
	s.ctrl.AdoptImage(args[0])
	fmt.Fprintf(s.out, "Current image: %s\n", args[0])
	return nil
}

// StatsCommand summarizes the corrosion readings in the local ledger.
type StatsCommand struct{}

func (c *StatsCommand) Name() string        { return "stats" }
func (c *StatsCommand) Aliases() []string   { return nil }
func (c *StatsCommand) Description() string { return "Summarize recorded corrosion readings" }
func (c *StatsCommand) Usage() string       { return "stats" }

func (c *StatsCommand) Execute(ctx context.Context, s *Shell, _ []string) error {
	if s.ledger == nil {
		return fmt.Errorf("ledger is disabled")
	}

	summary, err := s.ledger.Summarize(ctx)
	if err != nil {
		return fmt.Errorf("failed to summarize ledger: %w", err)
	}

	fmt.Fprintf(s.out, "Detections: %d\n", summary.Readings)
	if summary.Readings > 0 {
		fmt.Fprintf(s.out, "Average corrosion: %s%%\n", models.FormatCorrosion(summary.Average))
		fmt.Fprintf(s.out, "Maximum corrosion: %s%%\n", models.FormatCorrosion(summary.Max))
	}
	return nil
}

// HelpCommand lists available commands.
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Aliases() []string   { return []string{"?"} }
func (c *HelpCommand) Description() string { return "Show available commands" }
func (c *HelpCommand) Usage() string       { return "help" }

func (c *HelpCommand) Execute(_ context.Context, s *Shell, _ []string) error {
	seen := make(map[string]bool)
	fmt.Fprintln(s.out, "Commands:")
	for _, name := range commandOrder {
		cmd := s.commands[name]
		if cmd == nil || seen[cmd.Name()] {
			continue
		}
		seen[cmd.Name()] = true
		fmt.Fprintf(s.out, "  %-40s %s\n", cmd.Usage(), cmd.Description())
	}
	return nil
}

var commandOrder = []string{
	"upload", "comment", "history", "refresh", "show", "save", "use", "stats", "help", "quit",
}

// QuitCommand exits the shell.
type QuitCommand struct{}

func (c *QuitCommand) Name() string        { return "quit" }
func (c *QuitCommand) Aliases() []string   { return []string{"exit", "q"} }
func (c *QuitCommand) Description() string { return "Exit interactive mode" }
func (c *QuitCommand) Usage() string       { return "quit" }

func (c *QuitCommand) Execute(_ context.Context, s *Shell, _ []string) error {
	s.Stop()
	return nil
}
