package runner

import (
	"context"

	"github.com/studiowebux/restspec/internal/spec"
	"github.com/studiowebux/restspec/internal/types"
	"github.com/studiowebux/restspec/internal/validator"
)

// TestCase sends one scenario's request and checks the response against it
type TestCase struct {
	run      *Context
	scenario spec.Scenario
}

func NewTestCase(c *Context, scenario spec.Scenario) *TestCase {
	return &TestCase{run: c, scenario: scenario}
}

func (t *TestCase) Scenario() spec.Scenario {
	return t.scenario
}

// Run executes the request once. Transport failures and assertion failures
// are both returned; the result is nil only when no response was received.
func (t *TestCase) Run(ctx context.Context) (*types.Result, error) {
	result, err := t.run.client.Execute(ctx, t.run.endpoint.URL(), t.scenario.Request)
	if err != nil {
		return nil, err
	}

	if err := validator.Response(t.scenario.Response, result, t.run.mode); err != nil {
		return result, err
	}
	return result, nil
}
