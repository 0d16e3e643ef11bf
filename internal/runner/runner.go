// Package runner executes a spec document against a launched target.
//
// Every scenario runs in document order. Within a scenario the request is
// sent Concurrency times in parallel; the first failure becomes the
// scenario's message and the remaining ones are logged. A failing scenario
// never stops the run.
package runner

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/studiowebux/restspec/internal/spec"
	"github.com/studiowebux/restspec/internal/types"
)

// Run launches the target, runs the hooks and every scenario, and returns
// the report. The error is non-nil only for launch or hook failures;
// scenario failures are recorded on the report.
func Run(ctx context.Context, c *Context) (*Report, error) {
	report := newReport(c)
	defer func() {
		report.FinishedAt = time.Now()
	}()

	log := c.log.With("document", report.Document, "endpoint", report.Endpoint)

	if err := c.launcher.Launch(ctx, c.endpoint); err != nil {
		err = types.Wrap(types.KindConfiguration, "launch", err, "failed to launch target at "+c.endpoint.String())
		report.SetupError = err.Error()
		log.Error("launch.failed", "error", err)
		return report, err
	}
	defer func() {
		if err := c.launcher.Stop(); err != nil {
			log.Warn("launch.stop_failed", "error", err)
		}
	}()

	setupErr := runHooks(ctx, c, c.hooks.BeforeAll, "before_all")
	if setupErr != nil {
		report.SetupError = setupErr.Error()
		log.Error("hooks.before_all_failed", "error", setupErr)
	} else {
		for i, scenario := range c.document.Scenarios {
			runScenario(ctx, c, scenario, report.Scenarios[i])
		}
	}

	teardownErr := runHooks(ctx, c, c.hooks.AfterAll, "after_all")
	if teardownErr != nil {
		report.TeardownError = teardownErr.Error()
		log.Error("hooks.after_all_failed", "error", teardownErr)
	}

	log.Info("run.finished", "passed", report.Passed(), "failed", report.Failed())

	if setupErr != nil {
		return report, setupErr
	}
	return report, teardownErr
}

func runHooks(ctx context.Context, c *Context, hooks []Hook, phase string) error {
	for i, hook := range hooks {
		c.log.Debug("hook.start", "phase", phase, "index", i)
		if err := hook(ctx, c); err != nil {
			return types.Wrap(types.KindConfiguration, phase, err, "hook failed")
		}
	}
	return nil
}

// runScenario fans the test case out to Concurrency goroutines. All of them
// are started before any is awaited.
func runScenario(ctx context.Context, c *Context, scenario spec.Scenario, result *ScenarioResult) {
	id := scenario.ID()
	tc := NewTestCase(c, scenario)
	log := c.log.With("scenario", id)

	result.State = StateRunning
	result.Repetitions = c.concurrency
	log.Debug("scenario.start", "repetitions", c.concurrency)

	var (
		mu       sync.Mutex
		failures int
		timings  = newDurations(c.concurrency)
		g        errgroup.Group
	)

	start := time.Now()
	for i := 0; i < c.concurrency; i++ {
		repetition := i
		g.Go(func() error {
			began := time.Now()
			_, err := tc.Run(ctx)
			elapsed := time.Since(began)

			mu.Lock()
			timings.add(elapsed)
			if err != nil {
				failures++
			}
			mu.Unlock()

			if err != nil {
				log.Warn("scenario.repetition_failed", "repetition", repetition, "kind", types.KindOf(err), "error", err)
			}
			return err
		})
	}
	err := g.Wait()

	result.DurationMs = time.Since(start).Milliseconds()
	result.Failures = failures
	result.Timings = timings.summary()

	if err != nil {
		result.State = StateFailed
		result.Message = err.Error()
		log.Info("scenario.failed", "failures", failures, "duration_ms", result.DurationMs)
		return
	}

	result.State = StatePassed
	log.Info("scenario.passed", "duration_ms", result.DurationMs)
}
