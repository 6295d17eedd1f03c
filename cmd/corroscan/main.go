package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/manash/corroscan/internal/api"
	"github.com/manash/corroscan/internal/config"
	"github.com/manash/corroscan/internal/controller"
	"github.com/manash/corroscan/internal/fetch"
	"github.com/manash/corroscan/internal/ledger"
	"github.com/manash/corroscan/internal/view"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	flagServer   string
	flagLedger   string
	flagNoLedger bool
	flagImageID  string
	flagStubAddr string
	flagStubData string
)

// App carries the process dependencies so tests can swap them out.
type App struct {
	In            io.Reader
	Out           io.Writer
	Err           io.Writer
	GetEnv        func(string) string
	NewClient     func(cfg *api.Config) (*api.Client, error)
	OpenLedger    func(path string) (*ledger.Store, error)
	IsInteractive func() bool
	Logger        *slog.Logger
}

func DefaultApp() *App {
	return &App{
		In:        os.Stdin,
		Out:       os.Stdout,
		Err:       os.Stderr,
		GetEnv:    os.Getenv,
		NewClient: api.New,
		OpenLedger: func(path string) (*ledger.Store, error) {
			if path == "" {
				return ledger.NewStore()
			}
			return ledger.NewStoreWithPath(path)
		},
		IsInteractive: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
		Logger: slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}
}

func main() {
	app := DefaultApp()
	root := newRootCmd(app)

	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(fmt.Sprintf("%s (commit: %s)", version, commit)),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corroscan",
		Short: "Terminal client for a corrosion-detection service",
		Long: `corroscan uploads images to a corrosion-detection service, shows the
analysis result, attaches comments and browses the upload history.

Examples:
  corroscan upload hull.jpg
  corroscan comment --image 4f1c... "rust along the weld seam"
  corroscan history
  corroscan shell`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env if present, like the service itself does.
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().StringVar(&flagServer, "server", "", "server URL (defaults to CORROSCAN_SERVER or the default profile)")
	cmd.PersistentFlags().StringVar(&flagLedger, "ledger", "", "path to the local inspection ledger database")
	cmd.PersistentFlags().BoolVar(&flagNoLedger, "no-ledger", false, "do not record activity in the local ledger")

	cmd.AddCommand(
		newUploadCmd(app),
		newCommentCmd(app),
		newHistoryCmd(app),
		newStatsCmd(app),
		newShellCmd(app),
		newServerCmd(app),
		newStubCmd(app),
	)

	return cmd
}

// session bundles the pieces a single command invocation needs.
type session struct {
	cfg   *config.Config
	term  *view.Terminal
	ctrl  *controller.Controller
	fetch *fetch.Fetcher
	store *ledger.Store
}

func (app *App) newSession() (*session, error) {
	cfg, err := config.Resolve(flagServer, app.GetEnv)
	if err != nil {
		return nil, err
	}

	client, err := app.NewClient(&api.Config{BaseURL: cfg.ServerURL, TimeoutSec: cfg.TimeoutSec})
	if err != nil {
		return nil, err
	}

	terminal := view.NewTerminal(app.Out)

	var store *ledger.Store
	var recorder controller.Recorder
	if !flagNoLedger {
		opened, err := app.OpenLedger(flagLedger)
		if err != nil {
			// The ledger is an extra; a broken one must not block work.
			app.Logger.Warn("failed to open ledger", "error", err)
		} else {
			store = opened
			recorder = ledger.NewRecorder(store, cfg.ServerURL, app.Logger)
		}
	}

	ctrl := controller.New(&controller.Config{
		Client:   client,
		View:     terminal,
		Recorder: recorder,
		Logger:   app.Logger,
	})

	return &session{
		cfg:   cfg,
		term:  terminal,
		ctrl:  ctrl,
		fetch: fetch.New(cfg.ServerURL),
		store: store,
	}, nil
}

func (s *session) close() {
	if s.store != nil {
		s.store.Close()
	}
}
