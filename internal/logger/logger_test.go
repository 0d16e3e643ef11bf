package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupWritesJSONFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	cleanup, err := Setup(Config{Dir: dir})
	if err != nil {
		t.Fatalf("Failed to set up logger: %v", err)
	}
	if err := IsReady(); err != nil {
		t.Fatalf("Expected logger to be ready: %v", err)
	}

	L().Info("scenario.passed", "id", "basic-get")

	if err := cleanup(); err != nil {
		t.Fatalf("Failed to close logger: %v", err)
	}
	if IsReady() == nil {
		t.Error("Expected logger to be reset after cleanup")
	}

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 log lines, got: %d", len(lines))
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &entry); err != nil {
		t.Fatalf("Expected JSON log line: %v", err)
	}
	if entry["msg"] != "scenario.passed" || entry["id"] != "basic-get" {
		t.Errorf("Unexpected log entry: %v", entry)
	}
}

func TestNewDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected debug to be dropped at info level, got: %s", buf.String())
	}

	New(&buf, true).Debug("shown")
	if !strings.Contains(buf.String(), `"source"`) {
		t.Errorf("Expected source in debug mode, got: %s", buf.String())
	}
}
