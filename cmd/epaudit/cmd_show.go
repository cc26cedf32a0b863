package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/newtron-network/epaudit/pkg/cli"
	"github.com/newtron-network/epaudit/pkg/compliance"
	"github.com/newtron-network/epaudit/pkg/record"
	"github.com/newtron-network/epaudit/pkg/runner"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show <address>",
	Short: "Inspect one endpoint without changing it",
	Long: `Fetch one endpoint and print its inventory fields and compliance state.
Nothing is written to the endpoint or to the run outputs.

Examples:
  epaudit show 10.0.0.5
  epaudit show 10.0.0.5 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r := runner.New(cfg, newClient(), true)
		res, err := r.Inspect(cmd.Context(), args[0])
		if err != nil {
			return res.Err
		}

		if showJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Address    string                `json:"address"`
				Fields     map[string]string     `json:"fields"`
				Compliance []*compliance.Outcome `json:"compliance"`
			}{res.Address, res.Record.Fields(), res.Outcomes})
		}

		fmt.Printf("\n%s\n\n", cli.Bold(res.Address))
		t := cli.NewTable("FIELD", "VALUE").WithPrefix("  ")
		for _, col := range record.Columns {
			t.Row(col, res.Record.Value(col))
		}
		t.Flush()

		fmt.Println()
		t = cli.NewTable("RULE", "VALUE", "REQUIRED", "STATE").WithPrefix("  ")
		for i, o := range res.Outcomes {
			state := cli.Green("compliant")
			if o.Action != compliance.ActionPassed {
				state = cli.Yellow("non-compliant")
			}
			t.Row(o.Rule, o.Before, r.Rules[i].Prefix+"*", state)
		}
		t.Flush()
		fmt.Println()
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "JSON output")
}
