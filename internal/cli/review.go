package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/revloop/internal/api"
	"github.com/sprite-ai/revloop/internal/diff"
	"github.com/sprite-ai/revloop/internal/model"
	"github.com/sprite-ai/revloop/internal/session"
)

const shutdownGrace = 3 * time.Second

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Start an interactive review round",
	Long: `Start one review round over the current changes. By default the diff is
the working tree against HEAD; with --base it is the merge-base of the base
ref and HEAD against HEAD.

Stored findings are reconciled against the new content first, then a local
server is started for the browser UI. The round ends when the reviewer
submits (findings are merged, the round advances, exports are written) or
when the session is cancelled with Ctrl-C.

Examples:
  revloop review                   # working tree vs HEAD
  revloop review --base main       # branch vs main
  revloop review --stat            # print changed files and exit`,
	Args: cobra.NoArgs,
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().StringP("base", "b", "", "base ref to diff against (merge-base with HEAD)")
	reviewCmd.Flags().StringP("addr", "a", "127.0.0.1:0", "address for the review server")
	reviewCmd.Flags().Bool("stat", false, "print changed files and exit (non-interactive)")
}

func runReview(cmd *cobra.Command, args []string) error {
	baseRef, _ := cmd.Flags().GetString("base")

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	src, err := diff.New(cwd, baseRef)
	if err != nil {
		return fmt.Errorf("resolving repository: %w", err)
	}

	files, err := src.Snapshots()
	if err != nil {
		switch {
		case errors.Is(err, diff.ErrNoChanges):
			fmt.Println("No changes to review.")
			return nil
		case errors.Is(err, diff.ErrBadBaseRef):
			return fmt.Errorf("cannot resolve base ref %q", baseRef)
		default:
			return err
		}
	}

	if stat, _ := cmd.Flags().GetBool("stat"); stat {
		return printStat(files)
	}

	sessionID, _ := cmd.Flags().GetString("session")
	store := session.NewStore(src.RepoDir)

	ctrl, err := session.Begin(store, log, sessionID, src.RepoDir, baseRef, files)
	if err != nil {
		return err
	}

	addr, _ := cmd.Flags().GetString("addr")
	srv := api.New(addr, ctrl, log)
	url, err := srv.Listen()
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Round %d: open %s in your browser.\n", ctrl.Round(), url)
	fmt.Fprintln(os.Stderr, "Submit from the UI to finish the round, or press Ctrl-C to cancel.")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outcome := srv.Wait(ctx)
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("server shutdown")
	}

	if !outcome.Submitted {
		ctrl.Cancel()
		fmt.Fprintln(os.Stderr, "Review cancelled; no round was recorded.")
		return nil
	}

	res := outcome.Result
	fmt.Fprintf(os.Stderr, "Round %d submitted.\n", res.Round)
	fmt.Fprintf(os.Stderr, "  JSON export:     %s\n", res.JSONExport)
	fmt.Fprintf(os.Stderr, "  Markdown export: %s\n", res.MarkdownExport)
	if len(res.Skipped) > 0 {
		fmt.Fprintf(os.Stderr, "  Skipped %d malformed draft finding(s).\n", len(res.Skipped))
	}
	return nil
}

func printStat(files []model.Snapshot) error {
	fmt.Printf("%d file(s) changed\n\n", len(files))
	for _, f := range files {
		status := "M"
		switch f.Status {
		case model.SnapshotAdded:
			status = "A"
		case model.SnapshotDeleted:
			status = "D"
		}
		fmt.Printf("  %s %s\n", status, f.Path)
	}
	return nil
}
