package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mrlokans/readsync/internal/config"
	"github.com/mrlokans/readsync/internal/database"
	"github.com/mrlokans/readsync/internal/entrypoint"
	"github.com/mrlokans/readsync/internal/library"
)

// VerifyLibraryCommand checks every cataloged book against the storage
// backend and reports missing or damaged files.
type VerifyLibraryCommand struct {
	Deep         bool
	JSON         bool
	DatabasePath string

	Config *config.Config
	Out    io.Writer
}

func NewVerifyLibraryCommand() *VerifyLibraryCommand {
	return &VerifyLibraryCommand{Out: os.Stdout}
}

func (cmd *VerifyLibraryCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("verify-library", flag.ContinueOnError)

	fs.BoolVar(&cmd.Deep, "deep", false, "Re-hash every file instead of checking sizes only")
	fs.BoolVar(&cmd.JSON, "json", false, "Print the report as JSON")
	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the database file (defaults to DATABASE_PATH)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s verify-library [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Check that every book in the catalog is present in the configured storage backend.\n")
		fmt.Fprintf(os.Stderr, "Nothing is modified; the command exits non-zero when problems are found.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *VerifyLibraryCommand) Run() error {
	cfg := cmd.Config
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if cmd.DatabasePath != "" {
		cfg.Database.Path = cmd.DatabasePath
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	repo, err := entrypoint.OpenLibrary(ctx, cfg, db)
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}

	report, err := repo.Verify(ctx, cmd.Deep)
	if err != nil {
		return fmt.Errorf("verification aborted: %w", err)
	}

	if cmd.JSON {
		enc := json.NewEncoder(cmd.Out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printReport(cmd.Out, report)
	}

	if !report.OK() {
		return fmt.Errorf("%d of %d books have problems", len(report.Issues), report.Checked)
	}
	return nil
}

func printReport(w io.Writer, report *library.AuditReport) {
	fmt.Fprintln(w, "Library Verification")
	fmt.Fprintln(w, "====================")
	fmt.Fprintf(w, "Backend: %s\n", report.Backend)
	fmt.Fprintf(w, "Deep:    %t\n", report.Deep)
	fmt.Fprintf(w, "Checked: %d\n", report.Checked)
	fmt.Fprintf(w, "Healthy: %d\n", report.Healthy)
	fmt.Fprintf(w, "Took:    %v\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))

	if report.OK() {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Problems:")
	for _, is := range report.Issues {
		if is.Detail != "" {
			fmt.Fprintf(w, "  %s  %-17s %s (%s)\n", is.FileID, is.Problem, is.Location, is.Detail)
		} else {
			fmt.Fprintf(w, "  %s  %-17s %s\n", is.FileID, is.Problem, is.Location)
		}
	}
}
