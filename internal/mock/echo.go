package mock

import (
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strings"
)

// defaultIgnoredHeaders returns the transport headers left out of echo responses
func defaultIgnoredHeaders() []string {
	return []string{"content-length", "host", "connection", "user-agent", "accept-encoding"}
}

// EchoResponse describes the request the echo handler received
type EchoResponse struct {
	URI     string              `json:"uri"`
	Method  string              `json:"method"`
	Headers map[string][]string `json:"headers"`
	Body    string              `json:"body"`
}

// EchoHandler answers any request with a JSON description of it. The ignore
// set is fixed at construction.
type EchoHandler struct {
	ignore map[string]struct{}
}

// NewEchoHandler ignores the given header names, or the transport headers
// content-length, host, connection, user-agent and accept-encoding when none
// are given. Names are case-insensitive.
func NewEchoHandler(ignore ...string) *EchoHandler {
	if len(ignore) == 0 {
		ignore = defaultIgnoredHeaders()
	}

	set := make(map[string]struct{}, len(ignore))
	for _, name := range ignore {
		set[strings.ToLower(name)] = struct{}{}
	}
	return &EchoHandler{ignore: set}
}

// Ignored returns the ignored header names, sorted
func (h *EchoHandler) Ignored() []string {
	names := make([]string, 0, len(h.ignore))
	for name := range h.ignore {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (h *EchoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	headers := make(map[string][]string)
	for name, values := range r.Header {
		lower := strings.ToLower(name)
		if _, skip := h.ignore[lower]; skip {
			continue
		}
		headers[lower] = append(headers[lower], values...)
	}

	resp := EchoResponse{
		URI:     r.URL.RequestURI(),
		Method:  r.Method,
		Headers: headers,
		Body:    string(body),
	}

	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(resp)
}
