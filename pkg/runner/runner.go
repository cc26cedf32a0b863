// Package runner drives a run: each endpoint in the list is fetched,
// parsed, brought into compliance and reported, strictly one at a time.
package runner

import (
	"context"
	"errors"
	"os/user"
	"time"

	"github.com/newtron-network/epaudit/pkg/audit"
	"github.com/newtron-network/epaudit/pkg/compliance"
	"github.com/newtron-network/epaudit/pkg/config"
	"github.com/newtron-network/epaudit/pkg/extract"
	"github.com/newtron-network/epaudit/pkg/record"
	"github.com/newtron-network/epaudit/pkg/report"
	"github.com/newtron-network/epaudit/pkg/store"
	"github.com/newtron-network/epaudit/pkg/util"
	"github.com/newtron-network/epaudit/pkg/xapi"
)

// Fetcher retrieves the raw responses of one endpoint.
type Fetcher interface {
	Fetch(ctx context.Context, address string) (*xapi.Artifacts, error)
}

// Runner holds everything a run needs. Build one with New.
type Runner struct {
	Fetcher   Fetcher
	Extractor *extract.Extractor
	Enforcer  *compliance.Enforcer
	Rules     []compliance.Rule

	Inventory *report.Inventory
	Failed    *report.LineFile
	ChangeLog *report.LineFile
	Mirror    store.Mirror
	Progress  ProgressReporter

	MetricsFile string
	User        string // recorded in audit events
}

// New wires a runner from cfg using client for all endpoint traffic.
func New(cfg *config.Config, client *xapi.Client, dryRun bool) *Runner {
	changeLog := &report.LineFile{Path: cfg.ChangeLogFile()}
	return &Runner{
		Fetcher:     client,
		Extractor:   &extract.Extractor{LatestSoftware: cfg.LatestSoftware},
		Enforcer:    compliance.NewEnforcer(client, changeLog, dryRun),
		Rules:       compliance.DefaultRules(),
		Inventory:   report.NewInventory(cfg.InventoryFile()),
		Failed:      &report.LineFile{Path: cfg.FailedFile()},
		ChangeLog:   changeLog,
		Mirror:      store.Nop{},
		MetricsFile: cfg.MetricsFile,
		User:        currentUser(),
	}
}

func currentUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "unknown"
}

// Run processes addresses in order. Outputs of a previous run are removed
// first. A failing endpoint never stops the run; cancelling ctx does, after
// the endpoint in progress.
func (r *Runner) Run(ctx context.Context, addresses []string) *Summary {
	sum := &Summary{DryRun: r.Enforcer.DryRun(), Started: time.Now()}

	if err := report.Reset(r.Inventory.Path, r.Failed.Path, r.ChangeLog.Path); err != nil {
		util.Warnf("removing previous outputs: %v", err)
	}
	if err := r.mirror().Reset(ctx); err != nil {
		util.Warnf("resetting inventory mirror: %v", err)
	}

	progress := r.progress()
	progress.RunStart(addresses, sum.DryRun)

	for i, addr := range addresses {
		if ctx.Err() != nil {
			util.Warnf("run interrupted, %d endpoints not processed", len(addresses)-i)
			sum.Interrupted = true
			break
		}
		progress.EndpointStart(addr, i, len(addresses))
		res := r.process(ctx, addr)
		sum.Results = append(sum.Results, res)
		progress.EndpointEnd(res, i, len(addresses))
	}

	sum.Duration = time.Since(sum.Started)

	if r.MetricsFile != "" {
		stats := report.RunStats{
			Results:  sum.Counts(),
			Changes:  sum.Changes(),
			Duration: sum.Duration,
			Finished: time.Now(),
		}
		if err := report.WriteMetrics(r.MetricsFile, stats); err != nil {
			util.Warnf("writing metrics: %v", err)
		}
	}

	progress.RunEnd(sum)
	return sum
}

func (r *Runner) process(ctx context.Context, addr string) *Result {
	start := time.Now()
	res := &Result{Address: addr}
	log := util.WithEndpoint(addr)

	defer func() {
		res.Duration = time.Since(start)
		rec := res.Record
		if rec == nil {
			rec = record.New(addr)
		}
		if err := r.mirror().Put(ctx, rec, string(res.Status)); err != nil {
			log.Warnf("mirroring record: %v", err)
		}
	}()

	res.Stage = StageFetch
	artifacts, err := r.Fetcher.Fetch(ctx, addr)
	if err != nil {
		log.Errorf("fetch failed: %v", err)
		res.fail(StatusFetchFailed, err)
		if err := r.Failed.Append(addr); err != nil {
			log.Errorf("recording failure: %v", err)
		}
		return res
	}

	res.Stage = StageExtract
	rec := record.New(addr)
	if err := r.Extractor.Extract(artifacts, rec); err != nil {
		log.Errorf("parse failed: %v", err)
		res.fail(StatusParseFailed, err)
		return res
	}
	res.Record = rec

	res.Stage = StageEnforce
	for _, rule := range r.Rules {
		begin := time.Now()
		out, err := r.Enforcer.Enforce(ctx, rec, rule)
		if out != nil {
			res.Outcomes = append(res.Outcomes, out)
		}
		r.audit(addr, rule, out, err, time.Since(begin))

		var mismatch *compliance.MismatchError
		switch {
		case err == nil:
		case errors.As(err, &mismatch):
			log.Errorf("verification failed: %v", err)
			if res.Err == nil {
				res.fail(StatusVerifyFailed, err)
			}
		default:
			log.Errorf("%s enforcement failed: %v", rule.Name, err)
			res.fail(StatusEnforceFailed, err)
			return res
		}
	}

	res.Stage = StageReport
	if err := r.Inventory.Append(rec); err != nil {
		log.Errorf("writing inventory: %v", err)
		res.fail(StatusReportFailed, err)
		return res
	}

	res.Stage = StageDone
	if res.Status == "" {
		res.Status = StatusOK
	}
	return res
}

// audit records compliance writes and planned writes. Passing checks and
// failures that happened before any write are not recorded.
func (r *Runner) audit(addr string, rule compliance.Rule, out *compliance.Outcome, err error, d time.Duration) {
	if out != nil && out.Action == compliance.ActionPassed {
		return
	}
	if out == nil && errors.Is(err, util.ErrFieldNotFound) {
		return
	}

	event := audit.NewEvent(r.User, addr, audit.OpEnforce).
		WithRule(rule.Name).
		WithDryRun(r.Enforcer.DryRun()).
		WithDuration(d)
	if out != nil {
		event.WithChange(out.Field, out.Before, out.After)
	}
	if err != nil {
		event.WithError(err)
	} else {
		event.WithSuccess()
	}

	if err := audit.Log(event); err != nil {
		util.WithEndpoint(addr).Warnf("writing audit event: %v", err)
	}
}

// Inspect fetches and parses one endpoint and checks every rule without
// writing to it or to any output.
func (r *Runner) Inspect(ctx context.Context, addr string) (*Result, error) {
	start := time.Now()
	res := &Result{Address: addr, Stage: StageFetch}

	artifacts, err := r.Fetcher.Fetch(ctx, addr)
	if err != nil {
		res.fail(StatusFetchFailed, err)
		return res, err
	}

	res.Stage = StageExtract
	rec := record.New(addr)
	if err := r.Extractor.Extract(artifacts, rec); err != nil {
		res.fail(StatusParseFailed, err)
		return res, err
	}
	res.Record = rec

	res.Stage = StageEnforce
	checker := compliance.NewEnforcer(nil, nil, true)
	for _, rule := range r.Rules {
		out, err := checker.Enforce(ctx, rec, rule)
		if err != nil {
			res.fail(StatusEnforceFailed, err)
			return res, err
		}
		res.Outcomes = append(res.Outcomes, out)
	}

	res.Stage = StageDone
	res.Status = StatusOK
	res.Duration = time.Since(start)
	return res, nil
}

func (r *Runner) mirror() store.Mirror {
	if r.Mirror == nil {
		return store.Nop{}
	}
	return r.Mirror
}

func (r *Runner) progress() ProgressReporter {
	if r.Progress == nil {
		return nopProgress{}
	}
	return r.Progress
}
