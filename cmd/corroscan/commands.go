package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/manash/corroscan/internal/config"
	"github.com/manash/corroscan/internal/devserver"
	"github.com/manash/corroscan/internal/security"
	"github.com/manash/corroscan/internal/shell"
	"github.com/manash/corroscan/internal/view"
	"github.com/manash/corroscan/pkg/models"
)

func newUploadCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <image>...",
		Short: "Upload images and run corrosion detection on them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				if err := security.ValidateUploadPath(path); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}

			sess, err := app.newSession()
			if err != nil {
				return err
			}
			defer sess.close()

			// Uploads run strictly one after another, like repeated
			// submissions of the web form.
			for _, path := range args {
				sess.term.SelectFile(path)
				sess.ctrl.UploadImage(cmd.Context())
			}
			return nil
		},
	}
}

func newCommentCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment <text>",
		Short: "Attach a comment to an image",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.newSession()
			if err != nil {
				return err
			}
			defer sess.close()

			if flagImageID != "" {
				sess.ctrl.AdoptImage(flagImageID)
			}
			sess.term.SetCommentInput(strings.Join(args, " "))
			sess.ctrl.AddComment(cmd.Context())
			return nil
		},
	}
	cmd.Flags().StringVar(&flagImageID, "image", "", "image id to comment on (from a previous upload)")
	return cmd
}

func newHistoryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the server's upload history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.newSession()
			if err != nil {
				return err
			}
			defer sess.close()

			sess.ctrl.LoadHistory(cmd.Context())
			return nil
		},
	}
}

func newStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize corrosion readings recorded in the local ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.OpenLedger(flagLedger)
			if err != nil {
				return err
			}
			defer store.Close()

			summary, err := store.Summarize(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to summarize ledger: %w", err)
			}

			fmt.Fprintf(app.Out, "Detections: %d\n", summary.Readings)
			if summary.Readings > 0 {
				fmt.Fprintf(app.Out, "Average corrosion: %s%%\n", models.FormatCorrosion(summary.Average))
				fmt.Fprintf(app.Out, "Maximum corrosion: %s%%\n", models.FormatCorrosion(summary.Max))
			}
			return nil
		},
	}
}

func newShellCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "shell",
		Aliases: []string{"repl"},
		Short:   "Interactive inspection session",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.newSession()
			if err != nil {
				return err
			}
			defer sess.close()

			sh := shell.New(&shell.Config{
				In:          app.In,
				Out:         app.Out,
				Err:         app.Err,
				Controller:  sess.ctrl,
				Term:        sess.term,
				Previewer:   view.NewPreviewer(app.Out, sess.fetch),
				Fetcher:     sess.fetch,
				Ledger:      sess.store,
				Interactive: app.IsInteractive(),
			})
			return sh.Run(cmd.Context())
		},
	}
}

func newServerCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Manage server profiles",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List configured servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, err := config.LoadProfiles()
			if err != nil {
				return err
			}
			if len(profiles.Servers) == 0 {
				fmt.Fprintln(app.Out, "No server profiles configured.")
				return nil
			}
			for name, url := range profiles.Servers {
				marker := " "
				if name == profiles.Default {
					marker = "*"
				}
				fmt.Fprintf(app.Out, "%s %s\t%s\n", marker, name, url)
			}
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add <name> <url>",
		Short: "Add a server profile",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, url := args[0], args[1]
			if err := security.ValidateServerURL(url); err != nil {
				return err
			}

			profiles, err := config.LoadProfiles()
			if err != nil {
				return err
			}
			profiles.Servers[name] = url
			if profiles.Default == "" {
				profiles.Default = name
			}
			if err := config.SaveProfiles(profiles); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Added server %q (%s)\n", name, url)
			return nil
		},
	}

	use := &cobra.Command{
		Use:   "use <name>",
		Short: "Set the default server profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, err := config.LoadProfiles()
			if err != nil {
				return err
			}
			if _, ok := profiles.Servers[args[0]]; !ok {
				return fmt.Errorf("unknown server profile: %s", args[0])
			}
			profiles.Default = args[0]
			if err := config.SaveProfiles(profiles); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Default server is now %q\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, add, use)
	return cmd
}

func newStubCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Run a local stand-in for the corrosion-detection service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir := flagStubData
			if dataDir == "" {
				tmp, err := os.MkdirTemp("", "corroscan-stub-")
				if err != nil {
					return err
				}
				dataDir = tmp
			}

			srv, err := devserver.New(dataDir, app.Logger)
			if err != nil {
				return err
			}

			httpSrv := &http.Server{Addr: flagStubAddr, Handler: srv.Router()}

			go func() {
				<-cmd.Context().Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				httpSrv.Shutdown(shutdownCtx)
			}()

			fmt.Fprintf(app.Out, "Stub corrosion service listening on %s (data in %s)\n", flagStubAddr, dataDir)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flagStubAddr, "addr", ":5000", "listen address")
	cmd.Flags().StringVar(&flagStubData, "data", "", "directory for uploaded and processed files (default: temp dir)")
	return cmd
}
