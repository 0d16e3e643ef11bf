package executor

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/studiowebux/restspec/internal/types"
)

const (
	// DefaultTimeout bounds a single request when no timeout is configured
	DefaultTimeout = 30 * time.Second

	TCPDialTimeout        = 5 * time.Second
	TCPKeepAliveInterval  = 30 * time.Second
	TLSHandshakeTimeout   = 5 * time.Second
	IdleConnTimeout       = 90 * time.Second
	ExpectContinueTimeout = 1 * time.Second
)

// TLSConfig configures HTTPS and mTLS towards the target
type TLSConfig struct {
	CertFile           string
	KeyFile            string
	CAFile             string
	InsecureSkipVerify bool
}

// Options configures a Client
type Options struct {
	Timeout time.Duration
	TLS     *TLSConfig
	// RequestsPerSecond caps the request rate across all goroutines; 0 disables it
	RequestsPerSecond float64
	// MaxConnsPerHost sizes the idle connection pool; defaults to 10
	MaxConnsPerHost int
}

// Client sends scenario requests to the target. It is safe for concurrent use.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient builds a Client with a pooled transport
func NewClient(opts Options) (*Client, error) {
	httpClient, err := buildHTTPClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}

	c := &Client{http: httpClient}
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return c, nil
}

// Execute sends req to base and captures the response. Transport failures,
// including timeouts, are returned as errors.
func (c *Client) Execute(ctx context.Context, base *url.URL, req *types.Request) (*types.Result, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	httpReq, err := BuildRequest(ctx, base, req)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request %s %s failed: %w", httpReq.Method, httpReq.URL, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	duration := time.Since(startTime)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var headers types.Headers
	for name, values := range resp.Header {
		for _, value := range values {
			headers.Add(name, value)
		}
	}

	return &types.Result{
		StatusCode:   resp.StatusCode,
		Status:       resp.Status,
		Headers:      headers,
		Body:         string(bodyBytes),
		Duration:     duration,
		ResponseSize: int64(len(bodyBytes)),
	}, nil
}

// BuildRequest turns a parsed request into an outbound one. The path and the
// ordered query pairs are rebuilt on base; every header is copied in order.
// Only POST, PUT and PATCH carry a body.
func BuildRequest(ctx context.Context, base *url.URL, req *types.Request) (*http.Request, error) {
	target := BuildURL(base, req.Line)

	var body io.Reader
	if req.Line.Method.HasBody() && req.Body != "" {
		body = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, string(req.Line.Method), target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for _, h := range req.Headers.All() {
		if strings.EqualFold(h.Name, "Host") {
			httpReq.Host = h.Value
			continue
		}
		httpReq.Header.Add(h.Name, h.Value)
	}

	return httpReq, nil
}

// BuildURL joins base (scheme, host, port) with the request path, kept in its
// written encoding, and the query pairs
func BuildURL(base *url.URL, line types.RequestLine) *url.URL {
	u := &url.URL{
		Scheme: base.Scheme,
		Host:   base.Host,
		Path:   line.Path(),
	}
	if line.URI != nil {
		// keep percent-encoded segments such as %2F as written
		u.RawPath = line.URI.RawPath
	}
	if len(line.Query) > 0 {
		parts := make([]string, 0, len(line.Query))
		for _, q := range line.Query {
			parts = append(parts, url.QueryEscape(q.Name)+"="+url.QueryEscape(q.Value))
		}
		u.RawQuery = strings.Join(parts, "&")
	}
	return u
}

// buildHTTPClient creates an HTTP client with optional TLS/mTLS configuration
func buildHTTPClient(opts Options) (*http.Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	conns := opts.MaxConnsPerHost
	if conns <= 0 {
		conns = 10
	}

	transport := &http.Transport{
		MaxIdleConns:        conns,
		MaxIdleConnsPerHost: conns,
		IdleConnTimeout:     IdleConnTimeout,
		DialContext: (&net.Dialer{
			Timeout:   TCPDialTimeout,
			KeepAlive: TCPKeepAliveInterval,
		}).DialContext,
		TLSHandshakeTimeout:   TLSHandshakeTimeout,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: ExpectContinueTimeout,
	}

	if opts.TLS != nil {
		tlsCfg, err := buildTLSConfig(opts.TLS)
		if err != nil {
			return nil, err
		}
		transport.TLSClientConfig = tlsCfg
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}, nil
}

func buildTLSConfig(cfg *TLSConfig) (*tls.Config, error) {
	tlsCfg := &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}

	// Client certificate (mTLS)
	if cfg.CertFile != "" && cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}

	if cfg.CAFile != "" {
		caCert, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}
		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate")
		}
		tlsCfg.RootCAs = caCertPool
	}

	return tlsCfg, nil
}

// FormatDuration formats a duration to a short human-readable string
func FormatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// FormatSize formats byte size to human-readable string
func FormatSize(bytes int64) string {
	if bytes < 1024 {
		return fmt.Sprintf("%dB", bytes)
	}
	if bytes < 1024*1024 {
		return fmt.Sprintf("%.2fKB", float64(bytes)/1024.0)
	}
	return fmt.Sprintf("%.2fMB", float64(bytes)/(1024.0*1024.0))
}
