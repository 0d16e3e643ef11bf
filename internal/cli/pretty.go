package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/studiowebux/restspec/internal/executor"
	"github.com/studiowebux/restspec/internal/runner"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	passStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	messageStyle = lipgloss.NewStyle().PaddingLeft(4).Foreground(lipgloss.Color("245"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// renderReport prints one line per scenario followed by a summary
func renderReport(w io.Writer, r *runner.Report) {
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render(r.Document), helpStyle.Render(fmt.Sprintf("(%s, concurrency %d, %s)", r.Endpoint, r.Concurrency, r.Mode)))

	if r.SetupError != "" {
		fmt.Fprintf(w, "%s %s\n", failStyle.Render("[SETUP]"), r.SetupError)
	}

	for _, s := range r.Scenarios {
		switch s.State {
		case runner.StatePassed:
			fmt.Fprintf(w, "- %s %s %s\n", passStyle.Render("[OK]"), s.Name, helpStyle.Render("("+executor.FormatDuration(msDuration(s.DurationMs))+")"))
		case runner.StateFailed:
			fmt.Fprintf(w, "- %s %s\n", failStyle.Render("[FAIL]"), s.Name)
			if s.Message != "" {
				fmt.Fprintln(w, messageStyle.Render(strings.TrimRight(s.Message, "\n")))
			}
		default:
			fmt.Fprintf(w, "- %s %s\n", pendingStyle.Render("[SKIP]"), s.Name)
		}
	}

	if r.TeardownError != "" {
		fmt.Fprintf(w, "%s %s\n", failStyle.Render("[TEARDOWN]"), r.TeardownError)
	}

	summary := fmt.Sprintf("%d passed, %d failed in %s", r.Passed(), r.Failed(), executor.FormatDuration(r.Duration()))
	if r.OK() {
		fmt.Fprintln(w, passStyle.Render(summary))
	} else {
		fmt.Fprintln(w, failStyle.Render(summary))
	}
}
