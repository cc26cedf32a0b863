package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/newtron-network/epaudit/pkg/endpoint"
	"github.com/newtron-network/epaudit/pkg/runner"
	"github.com/newtron-network/epaudit/pkg/store"
	"github.com/newtron-network/epaudit/pkg/util"
)

var runDryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll every listed endpoint, correct settings and write reports",
	Long: `Poll every endpoint in <path>/list.txt, one at a time.

For each endpoint the configuration, status and user list are fetched, an
inventory row is written to BBP.csv and the MTU and SNMP settings are
corrected when they are out of compliance. Endpoints that cannot be polled
are listed in BBP_failed.txt; corrections are listed in change-log.txt.

A failing endpoint never stops the run and does not change the exit status.

Examples:
  epaudit run
  epaudit run --dry-run -v`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addresses, err := endpoint.ReadList(cfg.ListFile())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		r := runner.New(cfg, newClient(), runDryRun)
		r.Progress = runner.NewConsoleProgress(verbose)

		if cfg.Redis.Addr != "" {
			mirror, err := store.NewRedisMirror(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
			if err != nil {
				util.Warnf("Inventory mirror disabled: %v", err)
			} else {
				defer mirror.Close()
				r.Mirror = mirror
			}
		}

		sum := r.Run(ctx, addresses)

		util.WithFields(map[string]interface{}{
			"endpoints": len(sum.Results),
			"failed":    len(sum.Failures()),
			"changes":   sum.Changes(),
			"dry_run":   sum.DryRun,
		}).Info("run complete")
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Report non-compliant settings without correcting them")
}
