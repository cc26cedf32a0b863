package runner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/newtron-network/epaudit/pkg/cli"
	"github.com/newtron-network/epaudit/pkg/compliance"
)

// ProgressReporter receives lifecycle callbacks during a run.
type ProgressReporter interface {
	RunStart(addresses []string, dryRun bool)
	EndpointStart(address string, index, total int)
	EndpointEnd(result *Result, index, total int)
	RunEnd(summary *Summary)
}

type nopProgress struct{}

func (nopProgress) RunStart([]string, bool)        {}
func (nopProgress) EndpointStart(string, int, int) {}
func (nopProgress) EndpointEnd(*Result, int, int)  {}
func (nopProgress) RunEnd(*Summary)                {}

// ConsoleProgress is an append-only terminal progress reporter.
// It never rewrites lines, so output is safe for pipes and cron mail.
type ConsoleProgress struct {
	W       io.Writer
	Verbose bool

	dotWidth int
}

// NewConsoleProgress creates a ConsoleProgress writing to stdout.
func NewConsoleProgress(verbose bool) *ConsoleProgress {
	return &ConsoleProgress{
		W:       os.Stdout,
		Verbose: verbose,
	}
}

func (p *ConsoleProgress) RunStart(addresses []string, dryRun bool) {
	maxName := 0
	for _, a := range addresses {
		if len(a) > maxName {
			maxName = len(a)
		}
	}
	p.dotWidth = maxName + 6

	mode := "enforcing"
	if dryRun {
		mode = "dry run"
	}
	fmt.Fprintf(p.W, "\nepaudit: %d endpoints, %s\n\n", len(addresses), mode)
}

func (p *ConsoleProgress) EndpointStart(address string, index, total int) {
	if p.Verbose {
		fmt.Fprintf(p.W, "  [%d/%d]  %s\n", index+1, total, address)
	}
}

func (p *ConsoleProgress) EndpointEnd(result *Result, index, total int) {
	tag := fmt.Sprintf("[%d/%d]", index+1, total)

	if p.Verbose {
		for _, o := range result.Outcomes {
			fmt.Fprintf(p.W, "          %s %s\n", cli.DotPad(o.Rule, 12), describeOutcome(o))
		}
		if result.Err != nil {
			fmt.Fprintf(p.W, "          %s\n", cli.Dim(result.Cause().Error()))
		}
		fmt.Fprintf(p.W, "          %s  (%s)\n\n", colorStatus(result.Status), formatDuration(result.Duration))
		return
	}

	padded := cli.DotPad(result.Address, p.dotWidth)
	note := ""
	if n := result.Changed(); n > 0 {
		note = fmt.Sprintf("  %d changed", n)
	}
	fmt.Fprintf(p.W, "  %-9s %s %s  (%s)%s\n", tag, padded, colorStatus(result.Status), formatDuration(result.Duration), note)
}

func (p *ConsoleProgress) RunEnd(sum *Summary) {
	fmt.Fprintf(p.W, "\n---\n")
	fmt.Fprintf(p.W, "epaudit: %d endpoints", len(sum.Results))

	parts := []string{}
	if n := sum.Count(StatusOK); n > 0 {
		parts = append(parts, cli.Green(fmt.Sprintf("%d ok", n)))
	}
	if n := len(sum.Failures()); n > 0 {
		parts = append(parts, cli.Red(fmt.Sprintf("%d failed", n)))
	}
	if n := sum.Changes(); n > 0 {
		parts = append(parts, cli.Yellow(fmt.Sprintf("%d changed", n)))
	}
	if len(parts) > 0 {
		fmt.Fprintf(p.W, ": %s", strings.Join(parts, ", "))
	}
	fmt.Fprintf(p.W, "  (%s)\n", formatDuration(sum.Duration))

	if failures := sum.Failures(); len(failures) > 0 {
		fmt.Fprintf(p.W, "\n  FAILED:\n")
		t := cli.NewTableTo(p.W, "ADDRESS", "RESULT", "STAGE", "ERROR").WithPrefix("    ")
		for _, r := range failures {
			msg := ""
			if r.Err != nil {
				msg = r.Cause().Error()
			}
			t.Row(r.Address, string(r.Status), string(r.Stage), msg)
		}
		t.Flush()
	}
	if sum.Interrupted {
		fmt.Fprintf(p.W, "\n  %s\n", cli.Yellow("run interrupted before all endpoints were processed"))
	}

	fmt.Fprintln(p.W)
}

func describeOutcome(o *compliance.Outcome) string {
	switch o.Action {
	case compliance.ActionPassed:
		return cli.Green("pass") + "  " + o.Before
	case compliance.ActionChanged:
		return cli.Yellow("changed") + "  " + o.Before + " -> " + o.After
	case compliance.ActionWouldChange:
		return cli.Yellow("would change") + "  " + o.Before
	default:
		return cli.Red(string(o.Action)) + "  " + o.Before + " -> " + o.After
	}
}

func colorStatus(s Status) string {
	word := strings.ToUpper(string(s))
	return cli.Mark(word, s == StatusOK, s == StatusVerifyFailed)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	if s == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
