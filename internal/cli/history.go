package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/studiowebux/restspec/internal/config"
	"github.com/studiowebux/restspec/internal/executor"
	"github.com/studiowebux/restspec/internal/history"
	"github.com/studiowebux/restspec/internal/runner"
)

// HistoryOptions selects what the history command prints
type HistoryOptions struct {
	DatabasePath string
	Limit        int
	// Show prints the stored report of one run instead of the run list
	Show         int64
	OutputFormat string
	Out          io.Writer
}

// History lists stored runs, most recent first, or prints one stored report
func History(opts HistoryOptions) error {
	out := writerOrStdout(opts.Out)

	dbPath := opts.DatabasePath
	if dbPath == "" {
		dbPath = config.DatabasePath
	}
	mgr, err := history.NewManager(dbPath)
	if err != nil {
		return err
	}
	defer mgr.Close()

	if opts.Show > 0 {
		report, err := mgr.GetRun(opts.Show)
		if err != nil {
			return fmt.Errorf("run %d: %w", opts.Show, err)
		}
		return writeReports(context.Background(), out, []*runner.Report{report}, opts.OutputFormat, "", "")
	}

	runs, err := mgr.ListRuns(opts.Limit)
	if err != nil {
		return err
	}

	switch opts.OutputFormat {
	case FormatJSON, FormatYAML:
		return writeValue(out, runs, opts.OutputFormat)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, helpStyle.Render("No runs recorded yet"))
		return nil
	}
	for _, r := range runs {
		status := passStyle.Render("OK  ")
		if r.Failed > 0 || r.SetupError != "" {
			status = failStyle.Render("FAIL")
		}
		fmt.Fprintf(out, "%5d  %s  %s  %-24s %3d passed %3d failed  %8s  %s\n",
			r.ID, status, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Document,
			r.Passed, r.Failed, executor.FormatDuration(msDuration(r.DurationMs)), r.Endpoint)
	}
	return nil
}
