package target

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/studiowebux/restspec/internal/logger"
)

const (
	// DefaultReadyTimeout bounds how long a launched target may take to answer
	DefaultReadyTimeout = 5 * time.Second
	// PollInterval is the delay between readiness probes
	PollInterval = 200 * time.Millisecond
	// StopGracePeriod is how long Stop waits after SIGTERM before SIGKILL
	StopGracePeriod = 5 * time.Second
)

// Launcher brings the system under test up on an endpoint and tears it down
type Launcher interface {
	// Launch returns once the target accepts requests on endpoint
	Launch(ctx context.Context, endpoint Endpoint) error
	Stop() error
}

// LauncherFunc adapts a function to Launcher. Stop is a no-op.
type LauncherFunc func(ctx context.Context, endpoint Endpoint) error

func (f LauncherFunc) Launch(ctx context.Context, endpoint Endpoint) error {
	return f(ctx, endpoint)
}

func (f LauncherFunc) Stop() error {
	return nil
}

// Attached targets a system that is already running. With HealthPath set it
// waits for that path to answer; otherwise it waits for the port to accept.
type Attached struct {
	HealthPath   string
	ReadyTimeout time.Duration
	SkipWait     bool
}

func (a *Attached) Launch(ctx context.Context, endpoint Endpoint) error {
	if a.SkipWait {
		return nil
	}
	return WaitReady(ctx, endpoint, a.HealthPath, a.ReadyTimeout)
}

func (a *Attached) Stop() error {
	return nil
}

// Command starts the target as a child process. "{{port}}" and "{{host}}" in
// Args are replaced, and PORT / TARGET_PORT / TARGET_HOST are exported.
type Command struct {
	Path         string
	Args         []string
	Env          []string
	Dir          string
	HealthPath   string
	ReadyTimeout time.Duration
	// LogPath receives the process stdout and stderr; discarded when empty
	LogPath string
	Logger  *slog.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	done    chan struct{}
	logFile *os.File
}

// ParseCommand splits a shell-like command line on whitespace
func ParseCommand(line string) (*Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty launch command")
	}
	return &Command{Path: fields[0], Args: fields[1:]}, nil
}

func (c *Command) Launch(ctx context.Context, endpoint Endpoint) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cmd != nil {
		return fmt.Errorf("target already launched")
	}

	log := c.logger()
	replacer := strings.NewReplacer("{{port}}", strconv.Itoa(endpoint.Port), "{{host}}", endpoint.Host)
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = replacer.Replace(a)
	}

	cmd := exec.Command(c.Path, args...)
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.Env = append(cmd.Env,
		"PORT="+strconv.Itoa(endpoint.Port),
		"TARGET_PORT="+strconv.Itoa(endpoint.Port),
		"TARGET_HOST="+endpoint.Host,
	)

	if c.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
			return fmt.Errorf("creating log dir: %w", err)
		}
		f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return fmt.Errorf("creating log file: %w", err)
		}
		cmd.Stdout = f
		cmd.Stderr = f
		c.logFile = f
	}

	if err := cmd.Start(); err != nil {
		c.closeLog()
		return fmt.Errorf("starting %s: %w", c.Path, err)
	}

	done := make(chan struct{})
	go func() {
		cmd.Wait()
		close(done)
	}()
	c.cmd = cmd
	c.done = done

	log.Info("target.started", "pid", cmd.Process.Pid, "command", c.Path, "endpoint", endpoint.String())

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-done:
			cancel()
		case <-waitCtx.Done():
		}
	}()

	if err := WaitReady(waitCtx, endpoint, c.HealthPath, c.ReadyTimeout); err != nil {
		select {
		case <-done:
			err = fmt.Errorf("target exited before becoming ready: %w", err)
		default:
		}
		c.stopLocked()
		return err
	}

	log.Info("target.ready", "endpoint", endpoint.String())
	return nil
}

// Stop sends SIGTERM and waits up to StopGracePeriod before SIGKILL
func (c *Command) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopLocked()
}

func (c *Command) stopLocked() error {
	if c.cmd == nil {
		return nil
	}
	defer func() {
		c.cmd = nil
		c.closeLog()
	}()

	select {
	case <-c.done:
		return nil
	default:
	}

	if err := c.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		return nil // already gone
	}

	select {
	case <-c.done:
	case <-time.After(StopGracePeriod):
		c.logger().Warn("target.kill", "pid", c.cmd.Process.Pid)
		c.cmd.Process.Kill()
		<-c.done
	}

	c.logger().Info("target.stopped", "pid", c.cmd.Process.Pid)
	return nil
}

func (c *Command) closeLog() {
	if c.logFile != nil {
		c.logFile.Close()
		c.logFile = nil
	}
}

func (c *Command) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return logger.L()
}

// WaitReady polls endpoint every PollInterval until it answers or timeout
// elapses. With a health path, any response below 500 counts as ready.
func WaitReady(ctx context.Context, endpoint Endpoint, healthPath string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultReadyTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := &http.Client{Timeout: PollInterval * 5}
	probe := func() bool {
		if healthPath == "" {
			conn, err := net.DialTimeout("tcp", endpoint.Address(), PollInterval)
			if err != nil {
				return false
			}
			conn.Close()
			return true
		}

		u := endpoint.URL()
		u.Path = "/" + strings.TrimPrefix(healthPath, "/")
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return false
		}
		resp, err := client.Do(req)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode < http.StatusInternalServerError
	}

	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		if probe() {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("target %s not ready within %s", endpoint, timeout)
		case <-ticker.C:
		}
	}
}
