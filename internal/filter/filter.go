// Package filter narrows run reports with JMESPath or a shell pipe and selects
// scenarios by id.
package filter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/jmespath/go-jmespath"

	"github.com/studiowebux/restspec/internal/logger"
	"github.com/studiowebux/restspec/internal/spec"
	"github.com/studiowebux/restspec/internal/types"
)

// QueryShellTimeout bounds a $(...) query
const QueryShellTimeout = 30 * time.Second

// $(command)
var shellPattern = regexp.MustCompile(`^\$\((.+)\)$`)

// Validate checks filter and query before anything runs. Shell queries are not
// checked.
func Validate(filter, query string) error {
	const op = "filter.Validate"
	if filter != "" && !IsValidJMESPath(filter) {
		return types.Errorf(types.KindConfiguration, op, "invalid filter expression '%s'", filter)
	}
	if query != "" && !IsShellCommand(query) && !IsValidJMESPath(query) {
		return types.Errorf(types.KindConfiguration, op, "invalid query expression '%s'", query)
	}
	return nil
}

// Apply narrows a JSON report with filter, then transforms it with query.
// A query of the form $(command) runs through sh with the report on stdin.
//
//	Apply(ctx, report, "scenarios[?state=='failed']", "[].id")
func Apply(ctx context.Context, body, filter, query string) (string, error) {
	result := body

	if filter != "" {
		filtered, err := applyJMESPath(result, filter)
		if err != nil {
			return "", fmt.Errorf("failed to apply filter: %w", err)
		}
		result = filtered
	}

	if query == "" {
		return result, nil
	}

	if matches := shellPattern.FindStringSubmatch(query); len(matches) > 1 {
		queried, err := runShell(ctx, result, matches[1])
		if err != nil {
			return "", fmt.Errorf("failed to execute query shell command: %w", err)
		}
		return queried, nil
	}

	queried, err := applyJMESPath(result, query)
	if err != nil {
		return "", fmt.Errorf("failed to apply query: %w", err)
	}
	return queried, nil
}

// applyJMESPath applies a JMESPath expression to a JSON string
func applyJMESPath(jsonStr string, expression string) (string, error) {
	var data any
	if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}

	result, err := Search(data, expression)
	if err != nil {
		return "", err
	}
	return Render(result)
}

// Search evaluates expression against decoded JSON values
func Search(data any, expression string) (any, error) {
	jp, err := jmespath.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid JMESPath expression '%s': %w", expression, err)
	}

	result, err := jp.Search(data)
	if err != nil {
		return nil, fmt.Errorf("JMESPath search failed: %w", err)
	}
	return result, nil
}

// Render indents a search result; a nil result renders as "null"
func Render(result any) (string, error) {
	if result == nil {
		return "null", nil
	}

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return string(output), nil
}

// runShell pipes body into `sh -c command` and returns its trimmed stdout
func runShell(ctx context.Context, body, command string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryShellTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Stdin = strings.NewReader(body)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		msg := err.Error()
		if stderr.Len() > 0 {
			msg = strings.TrimSpace(stderr.String())
		}
		logger.L().Warn("query.shell_failed", "command", command, "error", msg)
		return "", fmt.Errorf("command '%s' failed: %s", command, msg)
	}
	logger.L().Debug("query.shell", "command", command, "duration_ms", time.Since(start).Milliseconds())

	return strings.TrimSpace(stdout.String()), nil
}

// IsValidJMESPath checks if an expression is valid JMESPath syntax
func IsValidJMESPath(expression string) bool {
	_, err := jmespath.Compile(expression)
	return err == nil
}

// IsShellCommand checks if a query is a shell command (starts with $(...))
func IsShellCommand(query string) bool {
	return shellPattern.MatchString(query)
}

// SelectScenarios keeps the scenarios whose id matches ANY of the patterns.
// Patterns are shell globs (filepath.Match) compared case-insensitively.
// No patterns returns doc unchanged.
func SelectScenarios(doc *spec.Document, patterns []string) (*spec.Document, error) {
	if len(patterns) == 0 {
		return doc, nil
	}

	for _, pattern := range patterns {
		if _, err := filepath.Match(strings.ToLower(pattern), ""); err != nil {
			return nil, types.Wrap(types.KindConfiguration, "filter.SelectScenarios", err, "invalid scenario pattern '"+pattern+"'")
		}
	}

	selected := &spec.Document{Source: doc.Source}
	for _, scenario := range doc.Scenarios {
		if matchesAny(scenario.ID(), patterns) {
			selected.Scenarios = append(selected.Scenarios, scenario)
		}
	}
	return selected, nil
}

// matchesAny checks if id matches any of the patterns
func matchesAny(id string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(strings.ToLower(pattern), id); matched {
			return true
		}
	}
	return false
}
