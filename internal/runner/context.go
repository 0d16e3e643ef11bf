package runner

import (
	"context"
	"log/slog"
	"time"

	"github.com/studiowebux/restspec/internal/executor"
	"github.com/studiowebux/restspec/internal/logger"
	"github.com/studiowebux/restspec/internal/spec"
	"github.com/studiowebux/restspec/internal/target"
	"github.com/studiowebux/restspec/internal/types"
	"github.com/studiowebux/restspec/internal/validator"
)

// Hook runs once around the whole document
type Hook func(ctx context.Context, c *Context) error

// Hooks are run before the first scenario and after the last one
type Hooks struct {
	BeforeAll []Hook
	AfterAll  []Hook
}

// Options configures a Context
type Options struct {
	Endpoint    target.Endpoint
	Concurrency int
	Document    *spec.Document
	Mode        validator.Mode
	// Timeout bounds each request; executor.DefaultTimeout when zero
	Timeout           time.Duration
	RequestsPerSecond float64
	TLS               *executor.TLSConfig
	Launcher          target.Launcher
	Hooks             Hooks
	Logger            *slog.Logger
}

// Context is the read-only state shared by every test case of a run
type Context struct {
	endpoint    target.Endpoint
	concurrency int
	document    *spec.Document
	mode        validator.Mode
	timeout     time.Duration
	rps         float64
	launcher    target.Launcher
	hooks       Hooks
	log         *slog.Logger
	client      *executor.Client
}

// NewContext validates opts and builds the shared HTTP client
func NewContext(opts Options) (*Context, error) {
	const op = "runner.NewContext"

	if opts.Document == nil || opts.Document.Len() == 0 {
		return nil, types.Errorf(types.KindConfiguration, op, "spec document has no scenarios")
	}
	if opts.Launcher == nil {
		return nil, types.Errorf(types.KindConfiguration, op, "launcher is required")
	}
	if opts.Concurrency < 1 {
		return nil, types.Errorf(types.KindConfiguration, op, "concurrency must be at least 1, got %d", opts.Concurrency)
	}
	if opts.RequestsPerSecond < 0 {
		return nil, types.Errorf(types.KindConfiguration, op, "requests per second must not be negative")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = executor.DefaultTimeout
	}

	client, err := executor.NewClient(executor.Options{
		Timeout:           timeout,
		TLS:               opts.TLS,
		RequestsPerSecond: opts.RequestsPerSecond,
		MaxConnsPerHost:   opts.Concurrency,
	})
	if err != nil {
		return nil, types.Wrap(types.KindConfiguration, op, err, "invalid client options")
	}

	log := opts.Logger
	if log == nil {
		log = logger.L()
	}

	return &Context{
		endpoint:    opts.Endpoint,
		concurrency: opts.Concurrency,
		document:    opts.Document,
		mode:        opts.Mode,
		timeout:     timeout,
		rps:         opts.RequestsPerSecond,
		launcher:    opts.Launcher,
		hooks:       opts.Hooks,
		log:         log,
		client:      client,
	}, nil
}

func (c *Context) Endpoint() target.Endpoint  { return c.endpoint }
func (c *Context) Concurrency() int           { return c.concurrency }
func (c *Context) Document() *spec.Document   { return c.document }
func (c *Context) Mode() validator.Mode       { return c.mode }
func (c *Context) Timeout() time.Duration     { return c.timeout }
func (c *Context) Launcher() target.Launcher  { return c.launcher }
func (c *Context) RequestsPerSecond() float64 { return c.rps }
func (c *Context) Logger() *slog.Logger       { return c.log }
