// Package progress derives a live progress estimate from job execution
// messages. Scripts report coarse checkpoints ("[progress 25]" or
// "[progress 25-50]"); between checkpoints the estimate creeps from the
// segment start toward its end without ever reaching it, so displayed
// progress never moves backwards and never claims completion early.
package progress

import (
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/pipelinekit/pipeline-client/pkg/job"
)

// DefaultHalfLife is how long the estimate takes to cover half the
// remaining segment.
const DefaultHalfLife = 30 * time.Second

var progressPattern = regexp.MustCompile(`\[progress\s+(\d+(?:\.\d+)?)(?:\s*-\s*(\d+(?:\.\d+)?))?\]`)

// Estimator tracks the most recent progress checkpoint of one job.
// The zero segment is [0, 100].
type Estimator struct {
	begin, end float64
	at         time.Time
	observed   bool
	halfLife   time.Duration
}

// NewEstimator creates an estimator with the default half-life.
func NewEstimator() *Estimator {
	return &Estimator{begin: 0, end: 100, halfLife: DefaultHalfLife}
}

// SetHalfLife overrides the decay half-life. Values <= 0 are ignored.
func (e *Estimator) SetHalfLife(d time.Duration) {
	if d > 0 {
		e.halfLife = d
	}
}

// Observe inspects one message for a progress checkpoint, recording it with
// the given observation time. Messages without a checkpoint are ignored.
// It reports whether the message carried one.
func (e *Estimator) Observe(m job.Message, at time.Time) bool {
	match := progressPattern.FindStringSubmatch(m.Text)
	if match == nil {
		return false
	}

	begin, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return false
	}
	end := 100.0
	if match[2] != "" {
		if v, err := strconv.ParseFloat(match[2], 64); err == nil {
			end = v
		}
	}
	if end < begin {
		begin, end = end, begin
	}

	e.begin = clamp(begin)
	e.end = clamp(end)
	e.at = at
	e.observed = true
	return true
}

// ObserveAll feeds every message of the job through Observe, using now as
// the observation time of the newest checkpoint.
func (e *Estimator) ObserveAll(j *job.Job, now time.Time) {
	for _, m := range j.Messages() {
		e.Observe(m, now)
	}
}

// Estimate returns the progress estimate in [0, 100] at the given time.
// A terminal status yields exactly 100; otherwise the estimate starts at
// the segment begin and asymptotically approaches, but never reaches, the
// segment end.
func (e *Estimator) Estimate(status job.Status, now time.Time) float64 {
	if status.Terminal() {
		return 100
	}
	if !e.observed {
		return e.begin
	}

	elapsed := now.Sub(e.at)
	if elapsed < 0 {
		elapsed = 0
	}
	decay := math.Exp2(-float64(elapsed) / float64(e.halfLife))
	return e.end - (e.end-e.begin)*decay
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
