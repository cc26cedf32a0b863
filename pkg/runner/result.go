package runner

import (
	"errors"
	"fmt"
	"time"

	"github.com/newtron-network/epaudit/pkg/compliance"
	"github.com/newtron-network/epaudit/pkg/record"
)

// Status is the final outcome of one endpoint.
type Status string

const (
	StatusOK            Status = "ok"
	StatusFetchFailed   Status = "fetch-failed"
	StatusParseFailed   Status = "parse-failed"
	StatusEnforceFailed Status = "enforce-failed"
	StatusVerifyFailed  Status = "verify-failed"
	StatusReportFailed  Status = "report-failed"
)

// Statuses lists every status in processing order.
var Statuses = []Status{
	StatusOK, StatusFetchFailed, StatusParseFailed,
	StatusEnforceFailed, StatusVerifyFailed, StatusReportFailed,
}

// Stage is a step of the per-endpoint pipeline.
type Stage string

const (
	StageFetch   Stage = "fetch"
	StageExtract Stage = "extract"
	StageEnforce Stage = "enforce"
	StageReport  Stage = "report"
	StageDone    Stage = "done"
)

// Result is the outcome of processing one endpoint. Stage is the last stage
// entered; on failure it is where processing stopped.
type Result struct {
	Address  string
	Status   Status
	Stage    Stage
	Err      error
	Outcomes []*compliance.Outcome
	Record   *record.Record // nil when extraction did not complete
	Duration time.Duration
}

// Changed counts the corrections applied to the endpoint.
func (r *Result) Changed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Action == compliance.ActionChanged {
			n++
		}
	}
	return n
}

// Cause returns the underlying error without its stage annotation.
func (r *Result) Cause() error {
	var se *StageError
	if errors.As(r.Err, &se) {
		return se.Err
	}
	return r.Err
}

// Written reports whether the endpoint has a row in the inventory.
func (r *Result) Written() bool {
	return r.Status == StatusOK || r.Status == StatusVerifyFailed
}

func (r *Result) fail(status Status, err error) {
	r.Status = status
	r.Err = &StageError{Address: r.Address, Stage: r.Stage, Err: err}
}

// StageError ties a per-endpoint failure to the stage it happened in.
type StageError struct {
	Address string
	Stage   Stage
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Address, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Summary aggregates the results of a run in input order.
type Summary struct {
	Results     []*Result
	DryRun      bool
	Interrupted bool
	Started     time.Time
	Duration    time.Duration
}

// Count returns the number of endpoints that ended with status.
func (s *Summary) Count(status Status) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == status {
			n++
		}
	}
	return n
}

// Counts returns the endpoint count per status, including zero counts.
func (s *Summary) Counts() map[string]int {
	counts := make(map[string]int, len(Statuses))
	for _, st := range Statuses {
		counts[string(st)] = 0
	}
	for _, r := range s.Results {
		counts[string(r.Status)]++
	}
	return counts
}

// Changes counts corrections applied across the run.
func (s *Summary) Changes() int {
	n := 0
	for _, r := range s.Results {
		n += r.Changed()
	}
	return n
}

// Failures returns the results that did not end ok.
func (s *Summary) Failures() []*Result {
	var out []*Result
	for _, r := range s.Results {
		if r.Status != StatusOK {
			out = append(out, r)
		}
	}
	return out
}
