package spec

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/studiowebux/restspec/internal/types"
)

const twoScenarios = `name: basic-get
description: health check
request: |
  GET /health
response: |
  200 OK
  Content-Type: application/json

  {"status":"..."}
---
name: create user
request: |
  POST /users
  Content-Type: application/json

  {"name":"moose"}
response: |
  201 Created
`

func TestScenarioID(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"TheScenario", "thescenario"},
		{"the scenario", "the-scenario"},
		{"rem\\ov>es <con{tr}ol characters", "removes-control-characters"},
		{"rem!*'()oves res;:@&=erved+$,/ ?#[]characters", "removes-reserved-characters"},
		{"  spaced   out  ", "spaced-out"},
		{"tab\there", "tabhere"},
	}
	for _, tt := range tests {
		if got := ScenarioID(tt.name); got != tt.want {
			t.Errorf("ScenarioID(%q): expected %q, got: %q", tt.name, tt.want, got)
		}
	}
}

func TestParse_MultiDocument(t *testing.T) {
	doc, err := Parse("users.spec.yaml", strings.NewReader(twoScenarios))
	if err != nil {
		t.Fatalf("Failed to parse document: %v", err)
	}

	if doc.Len() != 2 {
		t.Fatalf("Expected 2 scenarios, got: %d", doc.Len())
	}
	if doc.Name() != "users" {
		t.Errorf("Expected document name users, got: %s", doc.Name())
	}

	first := doc.Scenarios[0]
	if first.Name != "basic-get" || first.Description != "health check" {
		t.Errorf("Unexpected first scenario: %+v", first)
	}
	if first.Request.Line.Method != types.MethodGet {
		t.Errorf("Expected GET, got: %s", first.Request.Line.Method)
	}
	if first.Response.Body != `{"status":"..."}` {
		t.Errorf("Unexpected response body: %q", first.Response.Body)
	}

	second := doc.Scenarios[1]
	if second.ID() != "create-user" {
		t.Errorf("Expected id create-user, got: %s", second.ID())
	}
	if second.Request.Body != `{"name":"moose"}` {
		t.Errorf("Unexpected request body: %q", second.Request.Body)
	}
	if second.Response.Status.Code != 201 {
		t.Errorf("Expected 201, got: %d", second.Response.Status.Code)
	}

	if _, ok := doc.Find("create-user"); !ok {
		t.Error("Expected Find to locate create-user")
	}
}

func TestParse_MalformedScenarioFailsWholeDocument(t *testing.T) {
	input := twoScenarios + "---\nname: broken\nrequest: |\n  GET /x\nresponse: |\n  200 Not Found\n"

	doc, err := Parse("broken.yaml", strings.NewReader(input))
	if err == nil {
		t.Fatal("Expected parse error")
	}
	if doc != nil {
		t.Error("Expected no partial document")
	}
	if !types.IsKind(err, types.KindScenarioParsing) {
		t.Errorf("Expected scenario_parsing, got: %v", err)
	}
	if !strings.Contains(err.Error(), "do not match") {
		t.Errorf("Expected cause to name the status mismatch, got: %v", err)
	}
	if !strings.Contains(err.Error(), "document 2") {
		t.Errorf("Expected error to name the document index, got: %v", err)
	}
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := map[string]string{
		"missing name":     "request: GET /x\nresponse: 200 OK\n",
		"unknown field":    "name: a\nrequest: GET /x\nresponse: 200 OK\nextra: 1\n",
		"request not text": "name: a\nrequest: [1, 2]\nresponse: 200 OK\n",
		"not a mapping":    "- a\n- b\n",
	}
	for name, input := range tests {
		_, err := Parse(name, strings.NewReader(input))
		if !types.IsKind(err, types.KindScenarioParsing) {
			t.Errorf("%s: expected scenario_parsing, got: %v", name, err)
		}
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse("bad.yaml", strings.NewReader("name: [unterminated\n"))
	if !types.IsKind(err, types.KindScenarioParsing) {
		t.Errorf("Expected scenario_parsing, got: %v", err)
	}
}

func TestParse_SkipsEmptyDocuments(t *testing.T) {
	doc, err := Parse("a.yaml", strings.NewReader("---\n---\n"+twoScenarios))
	if err != nil {
		t.Fatalf("Failed to parse document: %v", err)
	}
	if doc.Len() != 2 {
		t.Errorf("Expected 2 scenarios, got: %d", doc.Len())
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.yaml"), twoScenarios)
	writeFile(t, filepath.Join(dir, "a.yml"), "name: one\nrequest: GET /one\nresponse: 204 No Content\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	docs, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("Failed to load directory: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("Expected 2 documents, got: %d", len(docs))
	}
	if docs[0].Name() != "a" || docs[1].Name() != "b" {
		t.Errorf("Expected sorted documents a, b; got: %s, %s", docs[0].Name(), docs[1].Name())
	}

	all, err := LoadPath(filepath.Join(dir, "b.yaml"))
	if err != nil {
		t.Fatalf("Failed to load file: %v", err)
	}
	if len(all) != 1 || all[0].Len() != 2 {
		t.Errorf("Expected one document with 2 scenarios")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !types.IsKind(err, types.KindScenarioParsing) {
		t.Errorf("Expected scenario_parsing, got: %v", err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}
