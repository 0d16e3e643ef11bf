package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/studiowebux/restspec/internal/mock"
	"github.com/studiowebux/restspec/internal/spec"
)

// ServeOptions configures the mock and echo commands
type ServeOptions struct {
	Path string
	Host string
	Port int
	// Echo also mounts the echo endpoint next to the document routes
	Echo bool
	Out  io.Writer
}

// Mock serves the expected responses of the document at opts.Path until ctx is done
func Mock(ctx context.Context, opts ServeOptions) error {
	out := writerOrStdout(opts.Out)

	path, err := resolveSpecPath(opts.Path)
	if err != nil {
		return err
	}
	doc, err := spec.Load(path)
	if err != nil {
		return err
	}

	routes, skipped := mock.RoutesFromDocument(doc)
	for _, name := range skipped {
		fmt.Fprintf(out, "%s duplicate route skipped: %s\n", helpStyle.Render("[WARN]"), name)
	}

	cfg := &mock.Config{Host: opts.Host, Port: opts.Port, Logging: true}
	if opts.Echo {
		cfg.Echo = mock.NewEchoHandler()
	}

	server, err := mock.NewServer(cfg, routes)
	if err != nil {
		return err
	}

	for _, r := range routes {
		fmt.Fprintf(out, "  %-7s %-30s -> %d\n", r.Method, r.Path, r.Status)
	}
	return serve(ctx, server, out)
}

// Echo serves only the echo endpoint until ctx is done
func Echo(ctx context.Context, opts ServeOptions) error {
	server, err := mock.NewServer(&mock.Config{Host: opts.Host, Port: opts.Port, Logging: true, Echo: mock.NewEchoHandler()}, nil)
	if err != nil {
		return err
	}
	return serve(ctx, server, writerOrStdout(opts.Out))
}

func serve(ctx context.Context, server *mock.Server, out io.Writer) error {
	if err := server.Start(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s listening on %s (Ctrl+C to stop)\n", titleStyle.Render("mock"), server.GetAddress())

	<-ctx.Done()

	if err := server.Stop(); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	fmt.Fprintf(out, "%d requests served\n", len(server.GetLogs()))
	return nil
}
