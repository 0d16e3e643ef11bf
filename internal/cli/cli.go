package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/studiowebux/restspec/internal/config"
	"github.com/studiowebux/restspec/internal/filter"
	"github.com/studiowebux/restspec/internal/history"
	"github.com/studiowebux/restspec/internal/logger"
	"github.com/studiowebux/restspec/internal/runner"
	"github.com/studiowebux/restspec/internal/spec"
	"github.com/studiowebux/restspec/internal/types"
)

// ErrScenariosFailed is returned by Run when every document ran but at least one scenario failed
var ErrScenariosFailed = errors.New("one or more scenarios failed")

// Output formats
const (
	FormatPretty = "pretty"
	FormatJSON   = "json"
	FormatYAML   = "yaml"
)

// RunOptions contains options for running spec documents
type RunOptions struct {
	Path   string
	Launch config.Launch
	// Only restricts the run to scenario ids matching these globs
	Only         []string
	OutputFormat string // pretty, json, yaml
	Filter       string // JMESPath filter expression
	Query        string // JMESPath query or $(bash command)
	NoSave       bool
	DatabasePath string
	TargetLog    string
	Hooks        runner.Hooks
	Out          io.Writer
}

// Run executes every scenario of the document(s) at opts.Path and prints the
// reports. It returns ErrScenariosFailed when a scenario failed.
func Run(ctx context.Context, opts RunOptions) error {
	out := writerOrStdout(opts.Out)

	if err := filter.Validate(opts.Filter, opts.Query); err != nil {
		return err
	}

	path, err := resolveSpecPath(opts.Path)
	if err != nil {
		return err
	}

	docs, err := spec.LoadPath(path)
	if err != nil {
		return err
	}

	endpoint, err := opts.Launch.Endpoint()
	if err != nil {
		return err
	}
	launcher, err := opts.Launch.Launcher(opts.TargetLog)
	if err != nil {
		return err
	}

	var (
		reports []*runner.Report
		runErr  error
	)
	for _, doc := range docs {
		selected, err := filter.SelectScenarios(doc, opts.Only)
		if err != nil {
			return types.Wrap(types.KindConfiguration, "cli.Run", err, "invalid --only pattern")
		}
		if selected.Len() == 0 {
			logger.L().Info("document.skipped", "source", doc.Source, "reason", "no matching scenarios")
			continue
		}

		rc, err := runner.NewContext(runner.Options{
			Endpoint:          endpoint,
			Concurrency:       opts.Launch.Concurrency,
			Document:          selected,
			Mode:              opts.Launch.JSONMode,
			Timeout:           opts.Launch.Timeout,
			RequestsPerSecond: opts.Launch.RequestsPerSecond,
			TLS:               opts.Launch.TLS,
			Launcher:          launcher,
			Hooks:             opts.Hooks,
		})
		if err != nil {
			return err
		}

		report, err := runner.Run(ctx, rc)
		reports = append(reports, report)
		if err != nil {
			runErr = err
			break
		}
	}

	if len(reports) == 0 {
		return types.Errorf(types.KindConfiguration, "cli.Run", "no scenarios selected in %s", path)
	}

	if !opts.NoSave {
		saveReports(opts.DatabasePath, reports)
	}

	if err := writeReports(ctx, out, reports, opts.OutputFormat, opts.Filter, opts.Query); err != nil {
		return err
	}

	if runErr != nil {
		return runErr
	}
	for _, r := range reports {
		if !r.OK() {
			return ErrScenariosFailed
		}
	}
	return nil
}

// saveReports stores reports in history. Failures are logged and reported on
// stderr but never fail the run.
func saveReports(dbPath string, reports []*runner.Report) {
	if dbPath == "" {
		dbPath = config.DatabasePath
	}
	if dbPath == "" {
		return
	}

	mgr, err := history.NewManager(dbPath)
	if err != nil {
		logger.L().Error("history.open_failed", "path", dbPath, "error", err)
		fmt.Fprintf(os.Stderr, "Warning: failed to open history: %v\n", err)
		return
	}
	defer mgr.Close()

	for _, r := range reports {
		if err := mgr.SaveReport(r); err != nil {
			logger.L().Error("history.save_failed", "document", r.Document, "error", err)
			fmt.Fprintf(os.Stderr, "Warning: failed to save history: %v\n", err)
		}
	}
}

// writeReports formats reports; filter and query only apply to structured formats
func writeReports(ctx context.Context, w io.Writer, reports []*runner.Report, format, filterExpr, queryExpr string) error {
	if format == "" {
		format = FormatPretty
	}

	switch format {
	case FormatPretty:
		if filterExpr != "" || queryExpr != "" {
			return writeStructured(ctx, w, reports, FormatJSON, filterExpr, queryExpr)
		}
		for _, r := range reports {
			renderReport(w, r)
		}
		return nil
	case FormatJSON, FormatYAML:
		return writeStructured(ctx, w, reports, format, filterExpr, queryExpr)
	}
	return types.Errorf(types.KindConfiguration, "cli", "unknown output format '%s' (use pretty, json or yaml)", format)
}

func writeStructured(ctx context.Context, w io.Writer, reports []*runner.Report, format, filterExpr, queryExpr string) error {
	var value any = reports
	if len(reports) == 1 {
		value = reports[0]
	}
	if filterExpr == "" && queryExpr == "" {
		return writeValue(w, value, format)
	}

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	output, err := filter.Apply(ctx, string(data), filterExpr, queryExpr)
	if err != nil {
		return fmt.Errorf("filter/query error: %w", err)
	}
	return writeText(w, output, format)
}

// writeValue prints value as indented JSON or as YAML
func writeValue(w io.Writer, value any, format string) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	return writeText(w, string(data), format)
}

func writeText(w io.Writer, output, format string) error {
	if format == FormatYAML {
		var err error
		output, err = jsonToYAML(output)
		if err != nil {
			return err
		}
	}

	fmt.Fprintln(w, strings.TrimRight(output, "\n"))
	return nil
}

func msDuration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// jsonToYAML re-encodes a JSON document as YAML, keeping key order
func jsonToYAML(s string) (string, error) {
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(s), &node); err != nil {
		// shell queries may return plain text
		return s, nil
	}
	clearStyle(&node)

	data, err := yaml.Marshal(&node)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return string(data), nil
}

// clearStyle drops the flow and quoting styles JSON parses into so YAML
// prints block style; the encoder still quotes ambiguous strings
func clearStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		clearStyle(c)
	}
}

// List prints the id, method, path and name of every scenario
func List(path string, out io.Writer) error {
	out = writerOrStdout(out)

	resolved, err := resolveSpecPath(path)
	if err != nil {
		return err
	}
	docs, err := spec.LoadPath(resolved)
	if err != nil {
		return err
	}

	for _, doc := range docs {
		fmt.Fprintf(out, "%s (%s)\n", titleStyle.Render(doc.Name()), doc.Source)
		for _, s := range doc.Scenarios {
			line := s.Request.Line
			fmt.Fprintf(out, "  %-30s %-7s %-30s %s\n", s.ID(), line.Method, line.EscapedPath(), s.Name)
		}
	}
	return nil
}

// resolveSpecPath finds the spec source, trying YAML extensions when the exact
// path does not exist
func resolveSpecPath(basePath string) (string, error) {
	extensions := []string{"", ".yaml", ".yml"}

	for _, ext := range extensions {
		candidate := basePath + ext
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", types.Errorf(types.KindConfiguration, "cli", "spec not found: %s (tried .yaml, .yml extensions)", filepath.Clean(basePath))
}

func writerOrStdout(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
