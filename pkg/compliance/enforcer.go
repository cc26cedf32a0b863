package compliance

import (
	"context"
	"fmt"
	"os"

	"github.com/newtron-network/epaudit/pkg/extract"
	"github.com/newtron-network/epaudit/pkg/record"
	"github.com/newtron-network/epaudit/pkg/util"
)

// Action is what enforcement did for one rule.
type Action string

const (
	ActionPassed      Action = "passed"
	ActionChanged     Action = "changed"
	ActionWouldChange Action = "would-change"
	ActionMismatch    Action = "mismatch"
)

// Outcome records the result of enforcing one rule on one endpoint.
type Outcome struct {
	Rule   string `json:"rule"`
	Field  string `json:"field"`
	Action Action `json:"action"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// MismatchError is returned when a correction was written but the
// re-read value still does not satisfy the rule.
type MismatchError struct {
	Address string
	Rule    string
	Want    string
	Got     string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: %s still %q after correction, want prefix %q", e.Address, e.Rule, e.Got, e.Want)
}

func (e *MismatchError) Unwrap() error {
	return util.ErrNotCompliant
}

// Device is the subset of the endpoint client used to correct settings.
type Device interface {
	Put(ctx context.Context, address, document string) error
	SaveConfiguration(ctx context.Context, address string) (string, error)
}

// ChangeLog receives one line per applied correction.
type ChangeLog interface {
	Append(line string) error
}

// Enforcer applies rules to records.
type Enforcer struct {
	device    Device
	changeLog ChangeLog
	dryRun    bool
}

// NewEnforcer creates an enforcer. In dry-run mode non-compliant values are
// reported but never written. changeLog may be nil.
func NewEnforcer(device Device, changeLog ChangeLog, dryRun bool) *Enforcer {
	return &Enforcer{device: device, changeLog: changeLog, dryRun: dryRun}
}

// DryRun reports whether the enforcer only checks.
func (e *Enforcer) DryRun() bool {
	return e.dryRun
}

// Enforce checks rule against rec. A non-compliant value is corrected on the
// endpoint, re-read from a fresh configuration dump and re-checked; rec is
// updated with the re-read value. A compliant endpoint sees no write.
func (e *Enforcer) Enforce(ctx context.Context, rec *record.Record, rule Rule) (*Outcome, error) {
	value, ok := rec.Get(rule.Field)
	if !ok {
		return nil, fmt.Errorf("%s: %s: %w", rec.Address, rule.Field, util.ErrFieldNotFound)
	}

	out := &Outcome{Rule: rule.Name, Field: rule.Field, Before: value, After: value}
	log := util.WithStage(rec.Address, "enforce")

	if rule.Compliant(value) {
		log.Infof("%s check passed", rule.Name)
		out.Action = ActionPassed
		return out, nil
	}

	if e.dryRun {
		log.Infof("%s is %q, would apply: %s", rule.Name, value, rule.ChangeNote)
		out.Action = ActionWouldChange
		return out, nil
	}

	log.Infof("%s is %q, applying: %s", rule.Name, value, rule.ChangeNote)
	if err := e.device.Put(ctx, rec.Address, rule.Document); err != nil {
		return nil, fmt.Errorf("applying %s: %w", rule.Name, err)
	}

	fresh, err := e.reread(ctx, rec.Address, rule)
	if err != nil {
		return nil, fmt.Errorf("re-reading %s: %w", rule.Name, err)
	}
	rec.Set(rule.Field, fresh)
	out.After = fresh

	if !rule.Compliant(fresh) {
		out.Action = ActionMismatch
		return out, &MismatchError{Address: rec.Address, Rule: rule.Name, Want: rule.Prefix, Got: fresh}
	}

	out.Action = ActionChanged
	if e.changeLog != nil {
		if err := e.changeLog.Append(rec.Address + " " + rule.ChangeNote); err != nil {
			return out, fmt.Errorf("recording %s change: %w", rule.Name, err)
		}
	}
	return out, nil
}

func (e *Enforcer) reread(ctx context.Context, address string, rule Rule) (string, error) {
	path, err := e.device.SaveConfiguration(ctx, address)
	if err != nil {
		return "", err
	}
	defer os.Remove(path)

	return extract.ConfigValue(path, rule.Field, rule.XPath)
}
