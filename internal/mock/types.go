package mock

import (
	"time"

	"github.com/studiowebux/restspec/internal/types"
)

// Config represents the mock server configuration
type Config struct {
	Port    int    // Server port, 8080 when zero
	Host    string // Server host, localhost when empty
	Logging bool   // Keep a log of served requests
	// Echo, when set, is mounted at /echo and /echo/*
	Echo *EchoHandler
}

// Route is one stubbed (method, path) pair and the response served for it
type Route struct {
	Name    string
	Method  string
	Path    string
	Status  int
	Headers types.Headers
	Body    string
}

// RequestLog represents a logged request
type RequestLog struct {
	Timestamp   time.Time         `json:"timestamp"`
	Method      string            `json:"method"`
	Path        string            `json:"path"`
	Headers     map[string]string `json:"headers"`
	Body        string            `json:"body"`
	MatchedRule string            `json:"matchedRule"`
	Status      int               `json:"status"`
	Duration    time.Duration     `json:"duration"`
}
