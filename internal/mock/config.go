package mock

import (
	"fmt"
	"strings"

	"github.com/studiowebux/restspec/internal/spec"
)

// RoutesFromDocument turns every scenario into a route serving its expected
// response. When two scenarios share a method and path the first one wins;
// the names of the skipped scenarios are returned.
func RoutesFromDocument(doc *spec.Document) ([]Route, []string) {
	var (
		routes  []Route
		skipped []string
		seen    = make(map[string]bool)
	)

	for _, scenario := range doc.Scenarios {
		line := scenario.Request.Line
		key := routeKey(line.Method.String(), line.EscapedPath())
		if seen[key] {
			skipped = append(skipped, scenario.Name)
			continue
		}
		seen[key] = true

		expected := scenario.Response
		routes = append(routes, Route{
			Name:    scenario.Name,
			Method:  line.Method.String(),
			Path:    line.EscapedPath(),
			Status:  expected.Status.Code,
			Headers: expected.Headers,
			Body:    expected.Body,
		})
	}

	return routes, skipped
}

// validateRoutes rejects routes chi cannot mount
func validateRoutes(routes []Route) error {
	for i, route := range routes {
		if route.Method == "" {
			return fmt.Errorf("route %d: method is required", i)
		}
		if !strings.HasPrefix(route.Path, "/") {
			return fmt.Errorf("route %d: path must start with '/', got '%s'", i, route.Path)
		}
	}
	return nil
}

func routeKey(method, path string) string {
	return strings.ToUpper(method) + " " + path
}
