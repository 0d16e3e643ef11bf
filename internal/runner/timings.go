package runner

import (
	"sort"
	"time"
)

// Timings summarises the durations of a scenario's repetitions in milliseconds
type Timings struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms int64   `json:"p50_ms"`
	P95Ms int64   `json:"p95_ms"`
}

// durations collects repetition timings. Not safe for concurrent use.
type durations struct {
	values []int64
	total  int64
}

func newDurations(capacity int) *durations {
	return &durations{values: make([]int64, 0, capacity)}
}

func (d *durations) add(v time.Duration) {
	ms := v.Milliseconds()
	d.values = append(d.values, ms)
	d.total += ms
}

// percentile interpolates linearly between the two closest ranks; p is 0-100
func (d *durations) percentile(p float64) int64 {
	if len(d.values) == 0 {
		return 0
	}

	sorted := make([]int64, len(d.values))
	copy(sorted, d.values)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	index := (p / 100.0) * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return int64(float64(sorted[lower])*(1-weight) + float64(sorted[upper])*weight)
}

func (d *durations) summary() Timings {
	if len(d.values) == 0 {
		return Timings{}
	}

	t := Timings{
		Count: len(d.values),
		MinMs: d.values[0],
		MaxMs: d.values[0],
		AvgMs: float64(d.total) / float64(len(d.values)),
		P50Ms: d.percentile(50),
		P95Ms: d.percentile(95),
	}
	for _, v := range d.values[1:] {
		if v < t.MinMs {
			t.MinMs = v
		}
		if v > t.MaxMs {
			t.MaxMs = v
		}
	}
	return t
}
