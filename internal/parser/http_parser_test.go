package parser

import (
	"reflect"
	"strings"
	"testing"

	"github.com/studiowebux/restspec/internal/types"
)

func TestParseRequestLine_Valid(t *testing.T) {
	tests := []struct {
		line   string
		method types.Method
		uri    string
	}{
		{"GET /health", types.MethodGet, "/health"},
		{"POST /users?role=admin", types.MethodPost, "/users?role=admin"},
		{"DELETE http://example.com/items/1", types.MethodDelete, "http://example.com/items/1"},
		{"PATCH /a/b/c", types.MethodPatch, "/a/b/c"},
	}

	for _, tt := range tests {
		line, err := ParseRequestLine(tt.line)
		if err != nil {
			t.Fatalf("Failed to parse %q: %v", tt.line, err)
		}
		if line.Method != tt.method {
			t.Errorf("%q: expected method %s, got: %s", tt.line, tt.method, line.Method)
		}
		if line.URI.String() != tt.uri {
			t.Errorf("%q: expected URI %s, got: %s", tt.line, tt.uri, line.URI.String())
		}
	}
}

func TestParseRequestLine_Invalid(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"GET", "must contain only the HTTP method and request URI"},
		{"GET /a HTTP/1.1", "must contain only the HTTP method and request URI"},
		{"GET  /a", "must contain only the HTTP method and request URI"},
		{"FETCH /a", "'FETCH' is not a valid HTTP method"},
		{"get /a", "'get' is not a valid HTTP method"},
		{"GET /a{b}", "has an invalid format"},
		{"GET /a|b", "has an invalid format"},
	}

	for _, tt := range tests {
		_, err := ParseRequestLine(tt.line)
		if err == nil {
			t.Errorf("%q: expected error", tt.line)
			continue
		}
		if !types.IsKind(err, types.KindInvalidRequest) {
			t.Errorf("%q: expected invalid_request, got: %v", tt.line, err)
		}
		if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%q: expected error containing %q, got: %v", tt.line, tt.want, err)
		}
	}
}

func TestParseRequestLine_QueryPairs(t *testing.T) {
	line, err := ParseRequestLine("GET /search?q=a+b&tag=x&tag=y&flag&name=%C3%A9")
	if err != nil {
		t.Fatalf("Failed to parse request line: %v", err)
	}

	want := []types.Header{
		{Name: "q", Value: "a b"},
		{Name: "tag", Value: "x"},
		{Name: "tag", Value: "y"},
		{Name: "flag", Value: ""},
		{Name: "name", Value: "é"},
	}
	if !reflect.DeepEqual(line.Query, want) {
		t.Errorf("Expected %v, got: %v", want, line.Query)
	}
	if line.Path() != "/search" {
		t.Errorf("Expected path /search, got: %s", line.Path())
	}
}

func TestParseStatusLine(t *testing.T) {
	valid := []string{"200 OK", "404 Not Found", "201 Created   ", "418 I'm a teapot"}
	for _, line := range valid {
		if _, err := ParseStatusLine(line); err != nil {
			t.Errorf("%q: unexpected error: %v", line, err)
		}
	}

	status, err := ParseStatusLine("404 Not Found")
	if err != nil {
		t.Fatalf("Failed to parse status line: %v", err)
	}
	if status.Code != 404 || status.ReasonPhrase != "Not Found" {
		t.Errorf("Expected 404 Not Found, got: %v", status)
	}

	invalid := []struct {
		line string
		want string
	}{
		{"abc OK", "'abc' is not a valid status code"},
		{"299 OK", "'299' is not a valid status code"},
		{"200 Totally Fine", "'Totally Fine' is not a valid reason phrase"},
		{"200", "'' is not a valid reason phrase"},
		{"200 Bad Request", "status code 200 and reason phrase 'Bad Request' do not match"},
		{"200 ok", "status code 200 and reason phrase 'ok' do not match"},
	}
	for _, tt := range invalid {
		_, err := ParseStatusLine(tt.line)
		if err == nil {
			t.Errorf("%q: expected error", tt.line)
			continue
		}
		if !types.IsKind(err, types.KindInvalidResponse) {
			t.Errorf("%q: expected invalid_response, got: %v", tt.line, err)
		}
		if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%q: expected error containing %q, got: %v", tt.line, tt.want, err)
		}
	}
}

func TestParseHeaders(t *testing.T) {
	lines := strings.Split("Content-Type: application/json\nX: a\nX: b\nLocation: http://host:8080/x\n\nbody", "\n")

	headers, rest, err := ParseHeaders(lines)
	if err != nil {
		t.Fatalf("Failed to parse headers: %v", err)
	}

	if got := headers.Values("content-type"); !reflect.DeepEqual(got, []string{"application/json"}) {
		t.Errorf("Expected [application/json], got: %v", got)
	}
	if got := headers.Values("x"); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Expected [a b], got: %v", got)
	}
	if got := headers.Get("LOCATION"); got != "http://host:8080/x" {
		t.Errorf("Expected value split on first colon only, got: %q", got)
	}
	if !reflect.DeepEqual(rest, []string{"body"}) {
		t.Errorf("Expected rest [body], got: %v", rest)
	}
}

func TestParseHeaders_NoColon(t *testing.T) {
	_, _, err := ParseHeaders([]string{"Accept: */*", "not a header"})
	if err == nil {
		t.Fatal("Expected error for header without colon")
	}
	if !types.IsKind(err, types.KindInvalidHeader) {
		t.Errorf("Expected invalid_header, got: %v", err)
	}
	if !strings.Contains(err.Error(), "not a header") {
		t.Errorf("Expected error to name the line, got: %v", err)
	}
}

func TestParseHeaders_EmptyName(t *testing.T) {
	for _, line := range []string{": value", "   : value"} {
		_, _, err := ParseHeaders([]string{line})
		if !types.IsKind(err, types.KindInvalidHeader) {
			t.Errorf("%q: expected invalid_header, got: %v", line, err)
		}
	}
}

func TestParseRequest_Body(t *testing.T) {
	req, err := ParseRequest("POST /x\nContent-Type: text/plain\n\nLine1\n\nLine2\n\n")
	if err != nil {
		t.Fatalf("Failed to parse request: %v", err)
	}
	if req.Body != "Line1\n\nLine2" {
		t.Errorf("Expected interior blank line kept and one separator trimmed, got: %q", req.Body)
	}
	if req.ContentType() != "text/plain" {
		t.Errorf("Expected text/plain, got: %q", req.ContentType())
	}

	req, err = ParseRequest("PUT /x\n\nLine1\nLine2\n\n\n")
	if err != nil {
		t.Fatalf("Failed to parse request: %v", err)
	}
	if req.Body != "Line1\nLine2\n" {
		t.Errorf("Expected only one trailing separator trimmed, got: %q", req.Body)
	}
}

func TestParseRequest_NoSeparatorMeansNoBody(t *testing.T) {
	req, err := ParseRequest("POST /x\nContent-Type: application/json")
	if err != nil {
		t.Fatalf("Failed to parse request: %v", err)
	}
	if req.Body != "" {
		t.Errorf("Expected empty body, got: %q", req.Body)
	}
	if req.Headers.Len() != 1 {
		t.Errorf("Expected 1 header, got: %d", req.Headers.Len())
	}
}

func TestParseRequest_BodylessMethodsKeepBody(t *testing.T) {
	req, err := ParseRequest("GET /x\n\nLine1\nLine2\n\n")
	if err != nil {
		t.Fatalf("Failed to parse request: %v", err)
	}
	if req.Body != "Line1\nLine2" {
		t.Errorf("Expected GET body %q, got: %q", "Line1\nLine2", req.Body)
	}

	req, err = ParseRequest("GET /x\nContent-Type: application/json\n\n{\"a\":1}\n")
	if err != nil {
		t.Fatalf("Failed to parse request: %v", err)
	}
	if req.Body != `{"a":1}` {
		t.Errorf("Unexpected body: %q", req.Body)
	}
	if req.ContentType() != "" {
		t.Errorf("Expected no content type for GET, got: %q", req.ContentType())
	}
}

func TestParseRequest_CRLF(t *testing.T) {
	req, err := ParseRequest("POST /x\r\nA: 1\r\n\r\nbody\r\n")
	if err != nil {
		t.Fatalf("Failed to parse request: %v", err)
	}
	if req.Headers.Get("a") != "1" || req.Body != "body" {
		t.Errorf("Unexpected CRLF parse: headers=%v body=%q", req.Headers.All(), req.Body)
	}
}

func TestParseRequest_Empty(t *testing.T) {
	if _, err := ParseRequest(""); !types.IsKind(err, types.KindInvalidRequest) {
		t.Errorf("Expected invalid_request for empty text, got: %v", err)
	}
}

func TestParseResponse(t *testing.T) {
	resp, err := ParseResponse("200 OK\nContent-Type: application/json\n\n{\"status\":\"...\"}\n")
	if err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Status.Code != 200 {
		t.Errorf("Expected 200, got: %d", resp.Status.Code)
	}
	if !resp.HasContentType() || resp.ContentType() != "application/json" {
		t.Errorf("Expected application/json, got: %q", resp.ContentType())
	}
	if resp.Body != `{"status":"..."}` {
		t.Errorf("Unexpected body: %q", resp.Body)
	}
}

func TestParseResponse_Errors(t *testing.T) {
	if _, err := ParseResponse("200 Not Found\n\n"); !types.IsKind(err, types.KindInvalidResponse) {
		t.Errorf("Expected invalid_response, got: %v", err)
	}
	if _, err := ParseResponse("200 OK\nbroken\n\n"); !types.IsKind(err, types.KindInvalidHeader) {
		t.Errorf("Expected invalid_header, got: %v", err)
	}
}
