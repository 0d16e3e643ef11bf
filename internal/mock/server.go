// Package mock serves a spec document's expected responses, plus an echo
// endpoint, over a chi router.
package mock

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/studiowebux/restspec/internal/logger"
)

const (
	maxLogs         = 1000
	shutdownTimeout = 5 * time.Second
)

// Server represents the mock HTTP server
type Server struct {
	config     *Config
	host       string
	port       int
	router     *chi.Mux
	httpServer *http.Server
	listener   net.Listener
	log        *slog.Logger
	logs       []RequestLog
	logsMutex  sync.RWMutex
}

// NewServer mounts routes in order on a new router. config is not modified;
// a zero Port or Host binds 8080 or localhost.
func NewServer(config *Config, routes []Route) (*Server, error) {
	host, port := config.Host, config.Port
	if port == 0 {
		port = 8080
	}
	if host == "" {
		host = "localhost"
	}
	if err := validateRoutes(routes); err != nil {
		return nil, fmt.Errorf("invalid routes: %w", err)
	}

	s := &Server{
		config: config,
		host:   host,
		port:   port,
		log:    logger.L().With("component", "mock"),
		logs:   make([]RequestLog, 0),
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(s.requestLog)

	for _, route := range routes {
		route := route
		r.Method(route.Method, route.Path, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			serveRoute(w, route)
		}))
	}

	if config.Echo != nil {
		r.Handle("/echo", config.Echo)
		r.Handle("/echo/*", config.Echo)
	}

	notFound := func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, fmt.Sprintf("Mock server: No route configured for %s %s", req.Method, req.URL.Path), http.StatusNotFound)
	}
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	s.router = r
	return s, nil
}

// Handler returns the router, for use with httptest or a custom listener
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start binds the configured address and serves in the background
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = ln

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("mock.serve_failed", "error", err)
		}
	}()

	s.log.Info("mock.started", "address", s.GetAddress())
	return nil
}

// Stop stops the mock server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

// serveRoute writes the stubbed status, headers in order, and body
func serveRoute(w http.ResponseWriter, route Route) {
	for _, h := range route.Headers.All() {
		if http.CanonicalHeaderKey(h.Name) == "Content-Length" {
			continue
		}
		w.Header().Add(h.Name, h.Value)
	}
	w.WriteHeader(route.Status)
	io.WriteString(w, route.Body)
}

// requestLog records every served request when logging is enabled
func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		var body string
		if s.config.Logging && r.Body != nil {
			data, _ := io.ReadAll(r.Body)
			r.Body.Close()
			body = string(data)
			r.Body = io.NopCloser(strings.NewReader(body))
		}

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.log.Debug("mock.request", "method", r.Method, "path", r.URL.Path, "status", status)

		if !s.config.Logging {
			return
		}

		matched := "none"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && status != http.StatusNotFound {
			matched = r.Method + " " + rctx.RoutePattern()
		}

		s.logRequest(RequestLog{
			Timestamp:   start,
			Method:      r.Method,
			Path:        r.URL.Path,
			Headers:     flattenHeaders(r.Header),
			Body:        body,
			MatchedRule: matched,
			Status:      status,
			Duration:    time.Since(start),
		})
	})
}

// logRequest adds a request to the log
func (s *Server) logRequest(entry RequestLog) {
	s.logsMutex.Lock()
	defer s.logsMutex.Unlock()

	s.logs = append(s.logs, entry)

	if len(s.logs) > maxLogs {
		s.logs = s.logs[len(s.logs)-maxLogs:]
	}
}

// GetLogs returns all logged requests
func (s *Server) GetLogs() []RequestLog {
	s.logsMutex.RLock()
	defer s.logsMutex.RUnlock()

	logs := make([]RequestLog, len(s.logs))
	copy(logs, s.logs)
	return logs
}

// ClearLogs clears all logged requests
func (s *Server) ClearLogs() {
	s.logsMutex.Lock()
	defer s.logsMutex.Unlock()

	s.logs = make([]RequestLog, 0)
}

// GetAddress returns the server address
func (s *Server) GetAddress() string {
	if s.listener != nil {
		return "http://" + s.listener.Addr().String()
	}
	return fmt.Sprintf("http://%s:%d", s.host, s.port)
}

// flattenHeaders converts http.Header to map[string]string (first value only)
func flattenHeaders(headers http.Header) map[string]string {
	result := make(map[string]string)
	for key, values := range headers {
		if len(values) > 0 {
			result[key] = values[0]
		}
	}
	return result
}
