// Package target describes the system under test: where it listens and how
// it is brought up before scenarios run.
package target

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/studiowebux/restspec/internal/types"
)

const (
	DefaultHost   = "localhost"
	DefaultScheme = "http"
	MaxPort       = 65535
)

// Endpoint is the scheme, host and port scenarios are sent to
type Endpoint struct {
	Scheme string
	Host   string
	Port   int
}

// NewEndpoint validates the port and fills defaults. Port 0 is replaced by a
// free port obtained from the OS.
func NewEndpoint(scheme, host string, port int) (Endpoint, error) {
	if port < 0 || port > MaxPort {
		return Endpoint{}, types.Errorf(types.KindConfiguration, "target endpoint",
			"port %d out of range [0, %d]", port, MaxPort)
	}
	if scheme == "" {
		scheme = DefaultScheme
	}
	scheme = strings.ToLower(scheme)
	if scheme != "http" && scheme != "https" {
		return Endpoint{}, types.Errorf(types.KindConfiguration, "target endpoint",
			"unsupported protocol '%s' (want http or https)", scheme)
	}
	if host == "" {
		host = DefaultHost
	}

	if port == 0 {
		free, err := FreePort()
		if err != nil {
			return Endpoint{}, types.Wrap(types.KindConfiguration, "target endpoint", err, "no free port available")
		}
		port = free
	}

	return Endpoint{Scheme: scheme, Host: host, Port: port}, nil
}

// Address returns host:port
func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// URL returns the base URL of the endpoint
func (e Endpoint) URL() *url.URL {
	return &url.URL{Scheme: e.Scheme, Host: e.Address()}
}

func (e Endpoint) String() string {
	return e.URL().String()
}

// FreePort binds port 0, reads the port the OS assigned and releases it.
// Another process may take the port before the target binds it.
func FreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("failed to bind ephemeral port: %w", err)
	}
	defer l.Close()

	return l.Addr().(*net.TCPAddr).Port, nil
}
