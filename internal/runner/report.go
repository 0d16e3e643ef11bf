package runner

import (
	"encoding/json"
	"time"
)

// State is the lifecycle position of a scenario within a run
type State string

const (
	StatePending State = "pending"
	StateRunning State = "running"
	StatePassed  State = "passed"
	StateFailed  State = "failed"
)

// ScenarioResult is the outcome of running one scenario Concurrency times
type ScenarioResult struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Method      string  `json:"method"`
	Path        string  `json:"path"`
	State       State   `json:"state"`
	Message     string  `json:"message,omitempty"`
	Repetitions int     `json:"repetitions"`
	Failures    int     `json:"failures"`
	DurationMs  int64   `json:"duration_ms"`
	Timings     Timings `json:"timings"`
}

// Report aggregates the results of running one document
type Report struct {
	ID            int64             `json:"id,omitempty"`
	Document      string            `json:"document"`
	Source        string            `json:"source"`
	Endpoint      string            `json:"endpoint"`
	Mode          string            `json:"mode"`
	Concurrency   int               `json:"concurrency"`
	StartedAt     time.Time         `json:"started_at"`
	FinishedAt    time.Time         `json:"finished_at"`
	SetupError    string            `json:"setup_error,omitempty"`
	TeardownError string            `json:"teardown_error,omitempty"`
	Scenarios     []*ScenarioResult `json:"scenarios"`
}

func newReport(c *Context) *Report {
	doc := c.document
	r := &Report{
		Document:    doc.Name(),
		Source:      doc.Source,
		Endpoint:    c.endpoint.String(),
		Mode:        c.mode.String(),
		Concurrency: c.concurrency,
		StartedAt:   time.Now(),
		Scenarios:   make([]*ScenarioResult, 0, doc.Len()),
	}
	for _, s := range doc.Scenarios {
		r.Scenarios = append(r.Scenarios, &ScenarioResult{
			ID:     s.ID(),
			Name:   s.Name,
			Method: s.Request.Line.Method.String(),
			Path:   s.Request.Line.EscapedPath(),
			State:  StatePending,
		})
	}
	return r
}

// Passed returns the number of passed scenarios
func (r *Report) Passed() int {
	return r.count(StatePassed)
}

// Failed returns the number of failed scenarios
func (r *Report) Failed() int {
	return r.count(StateFailed)
}

// OK reports whether every scenario passed and no hook failed
func (r *Report) OK() bool {
	return r.SetupError == "" && r.TeardownError == "" && r.Passed() == len(r.Scenarios)
}

// Duration returns the wall time of the run
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *Report) count(state State) int {
	n := 0
	for _, s := range r.Scenarios {
		if s.State == state {
			n++
		}
	}
	return n
}

// ToMap converts the report to generic JSON values for query filtering
func (r *Report) ToMap() (map[string]any, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
