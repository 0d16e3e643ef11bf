package types

import (
	"net/url"
	"strings"
	"time"
)

// Method is an HTTP method accepted on a request line
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodPatch   Method = "PATCH"
	MethodDelete  Method = "DELETE"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
	MethodTrace   Method = "TRACE"
)

// Methods lists every method a request line may carry, in declaration order
var Methods = []Method{
	MethodGet,
	MethodPost,
	MethodPut,
	MethodPatch,
	MethodDelete,
	MethodHead,
	MethodOptions,
	MethodTrace,
}

// ParseMethod looks up a method by its exact (case-sensitive) name
func ParseMethod(name string) (Method, bool) {
	for _, m := range Methods {
		if string(m) == name {
			return m, true
		}
	}
	return "", false
}

// HasBody reports whether requests with this method carry a body and content type.
// Only POST, PUT and PATCH do.
func (m Method) HasBody() bool {
	switch m {
	case MethodPost, MethodPut, MethodPatch:
		return true
	}
	return false
}

func (m Method) String() string {
	return string(m)
}

// RequestLine is the first line of a request text block
type RequestLine struct {
	Method Method
	URI    *url.URL
	// Query holds the URI query pairs in the order they were written, duplicates kept
	Query []Header
}

// Path returns the decoded URI path, defaulting to "/"
func (l RequestLine) Path() string {
	if l.URI == nil || l.URI.Path == "" {
		return "/"
	}
	return l.URI.Path
}

// EscapedPath returns the path as written, percent-encoding preserved
func (l RequestLine) EscapedPath() string {
	if l.URI == nil || l.URI.Path == "" {
		return "/"
	}
	return l.URI.EscapedPath()
}

func (l RequestLine) String() string {
	if l.URI == nil {
		return string(l.Method)
	}
	return string(l.Method) + " " + l.URI.String()
}

// Request is a parsed request text block
type Request struct {
	Line    RequestLine
	Headers Headers
	Body    string
	// Text is the raw block the request was parsed from
	Text string
}

// ContentType returns the Content-Type header of a body-bearing request.
// Body-less methods always report an empty content type.
func (r *Request) ContentType() string {
	if !r.Line.Method.HasBody() {
		return ""
	}
	return r.Headers.Get("Content-Type")
}

// Response is a parsed expected-response text block
type Response struct {
	Status  StatusInfo
	Headers Headers
	Body    string
	Text    string
}

// ContentType returns the Content-Type header, or "" when absent
func (r *Response) ContentType() string {
	return r.Headers.Get("Content-Type")
}

// HasContentType reports whether a Content-Type header was declared
func (r *Response) HasContentType() bool {
	return r.Headers.Has("Content-Type")
}

// IsJSON reports whether a content type names a JSON media type
func IsJSON(contentType string) bool {
	return strings.Contains(contentType, "json")
}

// Result is the response captured from the target for one request
type Result struct {
	StatusCode   int           `json:"statusCode"`
	Status       string        `json:"status"`
	Headers      Headers       `json:"headers"`
	Body         string        `json:"body"`
	Duration     time.Duration `json:"duration"`
	ResponseSize int64         `json:"responseSize"`
}

// ContentType returns the captured Content-Type header, or ""
func (r *Result) ContentType() string {
	return r.Headers.Get("Content-Type")
}

// HasContentType reports whether the target sent a Content-Type header
func (r *Result) HasContentType() bool {
	return r.Headers.Has("Content-Type")
}
