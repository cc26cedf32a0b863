// Package audit records every compliance write made against an endpoint.
package audit

import (
	"fmt"
	"time"
)

// Operations recorded in the audit log.
const (
	OpEnforce = "enforce"
)

// Change is a single setting transition on an endpoint.
type Change struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// Event is one auditable write attempt against an endpoint.
type Event struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	User      string        `json:"user"`
	Device    string        `json:"device"`
	Operation string        `json:"operation"`
	Rule      string        `json:"rule,omitempty"`
	Changes   []Change      `json:"changes"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	DryRun    bool          `json:"dry_run"`
	Duration  time.Duration `json:"duration"`
}

// Filter defines criteria for querying audit events
type Filter struct {
	Device      string
	Operation   string
	StartTime   time.Time
	EndTime     time.Time
	FailureOnly bool
	Limit       int
	Offset      int
}

// NewEvent creates a new audit event
func NewEvent(user, device, operation string) *Event {
	return &Event{
		ID:        generateID(),
		Timestamp: time.Now(),
		User:      user,
		Device:    device,
		Operation: operation,
	}
}

// WithRule names the compliance rule that triggered the write.
func (e *Event) WithRule(rule string) *Event {
	e.Rule = rule
	return e
}

// WithChange appends a field transition.
func (e *Event) WithChange(field, from, to string) *Event {
	e.Changes = append(e.Changes, Change{Field: field, From: from, To: to})
	return e
}

// WithSuccess marks the event as successful
func (e *Event) WithSuccess() *Event {
	e.Success = true
	return e
}

// WithError marks the event as failed
func (e *Event) WithError(err error) *Event {
	e.Success = false
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithDuration sets the operation duration
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}

// WithDryRun marks events for writes that were only planned.
func (e *Event) WithDryRun(dryRun bool) *Event {
	e.DryRun = dryRun
	return e
}

func generateID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
