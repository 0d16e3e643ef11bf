package executor

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/studiowebux/restspec/internal/parser"
)

func mustBase(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("Failed to parse base URL: %v", err)
	}
	return u
}

func TestBuildURL_RebuildsPathAndQuery(t *testing.T) {
	req, err := parser.ParseRequest("GET http://ignored.example/search?q=a+b&tag=x&tag=y\n")
	if err != nil {
		t.Fatalf("Failed to parse request: %v", err)
	}

	got := BuildURL(mustBase(t, "https://api.local:8443"), req.Line)
	if got.String() != "https://api.local:8443/search?q=a+b&tag=x&tag=y" {
		t.Errorf("Unexpected URL: %s", got.String())
	}
}

func TestBuildURL_KeepsEncodedPath(t *testing.T) {
	line, err := parser.ParseRequestLine("GET /files/a%2Fb?q=a+b&q=c")
	if err != nil {
		t.Fatalf("Failed to parse request line: %v", err)
	}

	got := BuildURL(mustBase(t, "http://localhost:1"), line)
	if got.String() != "http://localhost:1/files/a%2Fb?q=a+b&q=c" {
		t.Errorf("Unexpected URL: %s", got.String())
	}
}

func TestBuildRequest_HeadersAndBody(t *testing.T) {
	req, err := parser.ParseRequest("POST /items\nContent-Type: application/json\nX-Tag: a\nX-Tag: b\n\n{\"a\":1}\n")
	if err != nil {
		t.Fatalf("Failed to parse request: %v", err)
	}

	httpReq, err := BuildRequest(context.Background(), mustBase(t, "http://localhost:1234"), req)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}

	if got := httpReq.Header.Values("X-Tag"); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Expected both header values, got: %v", got)
	}
	body, _ := io.ReadAll(httpReq.Body)
	if string(body) != `{"a":1}` {
		t.Errorf("Unexpected body: %q", body)
	}
}

func TestBuildRequest_BodylessMethods(t *testing.T) {
	for _, text := range []string{"GET /x\n\nignored\n", "DELETE /x\n\nignored\n"} {
		req, err := parser.ParseRequest(text)
		if err != nil {
			t.Fatalf("Failed to parse request: %v", err)
		}
		if req.Body != "ignored" {
			t.Fatalf("Expected the parsed body to be kept, got: %q", req.Body)
		}
		httpReq, err := BuildRequest(context.Background(), mustBase(t, "http://localhost:1"), req)
		if err != nil {
			t.Fatalf("Failed to build request: %v", err)
		}
		if httpReq.Body != nil && httpReq.Body != http.NoBody {
			t.Errorf("%s: expected no body", req.Line.Method)
		}
	}
}

func TestExecute_GetSendsNoBody(t *testing.T) {
	var (
		received      []byte
		contentLength int64
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received, _ = io.ReadAll(r.Body)
		contentLength = r.ContentLength
	}))
	defer server.Close()

	req, err := parser.ParseRequest("GET /x\n\nLine1\nLine2\n\n")
	if err != nil {
		t.Fatalf("Failed to parse request: %v", err)
	}

	client, err := NewClient(Options{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	if _, err := client.Execute(context.Background(), mustBase(t, server.URL), req); err != nil {
		t.Fatalf("Failed to execute: %v", err)
	}

	if len(received) != 0 || contentLength > 0 {
		t.Errorf("Expected GET to send no body, server got %d bytes: %q", contentLength, received)
	}
}

func TestExecute_CapturesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("Expected PUT, got: %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Add("X-Echo", r.Header.Get("X-Request"))
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"got":` + string(body) + `}`))
	}))
	defer server.Close()

	req, err := parser.ParseRequest("PUT /thing\nX-Request: abc\n\n1\n")
	if err != nil {
		t.Fatalf("Failed to parse request: %v", err)
	}

	client, err := NewClient(Options{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	result, err := client.Execute(context.Background(), mustBase(t, server.URL), req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}

	if result.StatusCode != http.StatusAccepted {
		t.Errorf("Expected 202, got: %d", result.StatusCode)
	}
	if result.ContentType() != "application/json" {
		t.Errorf("Expected application/json, got: %q", result.ContentType())
	}
	if result.Headers.Get("x-echo") != "abc" {
		t.Errorf("Expected echoed header, got: %q", result.Headers.Get("x-echo"))
	}
	if result.Body != `{"got":1}` {
		t.Errorf("Unexpected body: %q", result.Body)
	}
	if result.ResponseSize != int64(len(result.Body)) {
		t.Errorf("Expected size %d, got: %d", len(result.Body), result.ResponseSize)
	}
}

func TestExecute_TimeoutIsAnError(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	req, _ := parser.ParseRequest("GET /slow\n")
	client, err := NewClient(Options{Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	_, err = client.Execute(context.Background(), mustBase(t, server.URL), req)
	if err == nil {
		t.Fatal("Expected timeout error")
	}
	if !strings.Contains(err.Error(), "GET") {
		t.Errorf("Expected error to name the request, got: %v", err)
	}
}

func TestExecute_DoesNotFollowRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	}))
	defer server.Close()

	req, _ := parser.ParseRequest("GET /start\n")
	client, _ := NewClient(Options{})

	result, err := client.Execute(context.Background(), mustBase(t, server.URL), req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if result.StatusCode != http.StatusFound {
		t.Errorf("Expected 302, got: %d", result.StatusCode)
	}
}

func TestExecute_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	req, _ := parser.ParseRequest("GET /\n")
	client, _ := NewClient(Options{RequestsPerSecond: 20})

	start := time.Now()
	for i := 0; i < 25; i++ {
		if _, err := client.Execute(context.Background(), mustBase(t, server.URL), req); err != nil {
			t.Fatalf("Failed to execute request: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 200*time.Millisecond {
		t.Errorf("Expected rate limiting to slow 25 requests at 20/s, took: %v", elapsed)
	}
}

func TestFormatters(t *testing.T) {
	if FormatDuration(250*time.Millisecond) != "250ms" {
		t.Errorf("Unexpected duration format: %s", FormatDuration(250*time.Millisecond))
	}
	if FormatDuration(1500*time.Millisecond) != "1.50s" {
		t.Errorf("Unexpected duration format: %s", FormatDuration(1500*time.Millisecond))
	}
	if FormatSize(2048) != "2.00KB" {
		t.Errorf("Unexpected size format: %s", FormatSize(2048))
	}
}
