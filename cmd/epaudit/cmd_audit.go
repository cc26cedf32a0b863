package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/newtron-network/epaudit/pkg/audit"
	"github.com/newtron-network/epaudit/pkg/cli"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "View audit logs",
	Long: `View the audit log of compliance corrections.

Every write made to an endpoint, and every write a dry run would have made,
is logged with its timestamp, user, endpoint, rule, old and new value and
outcome. The audit log accumulates across runs.

Examples:
  epaudit audit list --device 10.0.0.5
  epaudit audit list --last 24h
  epaudit audit list --failures`,
}

var (
	auditDevice   string
	auditLast     string
	auditLimit    int
	auditFailures bool
	auditJSON     bool
)

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit events",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := audit.Filter{
			Device:      auditDevice,
			Limit:       auditLimit,
			FailureOnly: auditFailures,
		}

		if auditLast != "" {
			duration, err := parseLast(auditLast)
			if err != nil {
				return err
			}
			filter.StartTime = time.Now().Add(-duration)
		}

		events, err := audit.Query(filter)
		if err != nil {
			return fmt.Errorf("querying audit log: %w", err)
		}

		if auditJSON {
			return json.NewEncoder(os.Stdout).Encode(events)
		}

		if len(events) == 0 {
			fmt.Println("No audit events found")
			return nil
		}

		t := cli.NewTable("TIMESTAMP", "USER", "DEVICE", "RULE", "CHANGE", "STATUS")
		for _, event := range events {
			status := cli.Green("ok")
			if !event.Success {
				status = cli.Red("failed")
			}
			if event.DryRun {
				status = cli.Yellow("dry-run")
			}

			var changes []string
			for _, c := range event.Changes {
				changes = append(changes, c.From+" -> "+c.To)
			}

			t.Row(
				event.Timestamp.Format("2006-01-02 15:04:05"),
				event.User,
				event.Device,
				event.Rule,
				strings.Join(changes, ", "),
				status,
			)
		}
		t.Flush()

		return nil
	},
}

// parseLast accepts Go durations plus a day suffix, e.g. "7d".
func parseLast(s string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		var n int
		if _, err := fmt.Sscanf(days, "%d", &n); err == nil && n > 0 {
			return time.Duration(n) * 24 * time.Hour, nil
		}
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %s", s)
	}
	return d, nil
}

func init() {
	auditListCmd.Flags().StringVar(&auditDevice, "device", "", "Filter by endpoint address")
	auditListCmd.Flags().StringVar(&auditLast, "last", "", "Show events from last duration (e.g., 24h, 7d)")
	auditListCmd.Flags().IntVar(&auditLimit, "limit", 100, "Maximum events to show")
	auditListCmd.Flags().BoolVar(&auditFailures, "failures", false, "Show only failed operations")
	auditListCmd.Flags().BoolVar(&auditJSON, "json", false, "JSON output")

	auditCmd.AddCommand(auditListCmd)
}
