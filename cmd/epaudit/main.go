// epaudit - video endpoint inventory and compliance tool
//
// epaudit polls every endpoint named in the endpoint list over its HTTPS
// XML management API, records an inventory row per endpoint and brings the
// network MTU and SNMP settings into compliance.
//
// Outputs, replaced on every run, live under output_path:
//
//	BBP.csv          inventory, one row per endpoint
//	BBP_failed.txt   endpoints that could not be polled
//	change-log.txt   corrections applied
//
// Examples:
//
//	epaudit run                      # poll, correct and report
//	epaudit run --dry-run            # poll and report, no writes
//	epaudit show 10.0.0.5            # inspect one endpoint
//	epaudit audit list --last 24h    # corrections made in the last day
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/newtron-network/epaudit/pkg/audit"
	"github.com/newtron-network/epaudit/pkg/config"
	"github.com/newtron-network/epaudit/pkg/util"
	"github.com/newtron-network/epaudit/pkg/version"
	"github.com/newtron-network/epaudit/pkg/xapi"
)

// passwordEnv overrides basic_auth.password when set.
const passwordEnv = "EPAUDIT_PASSWORD"

var (
	configPath string
	verbose    bool

	cfg       *config.Config
	logCloser io.Closer
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "epaudit",
	Short:             "Video endpoint inventory and compliance tool",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `epaudit polls video endpoints over their XML management API, writes an
inventory of the fleet and corrects the MTU and SNMP settings.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if skipInit(cmd) {
			return nil
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		if err := util.SetLogLevel(level); err != nil {
			return fmt.Errorf("%w: logging.level: %v", util.ErrInvalidConfig, err)
		}
		if cfg.Logging.Format == "json" {
			util.SetJSONFormat()
		}
		logCloser = util.SetLogFile(util.LogFileConfig{
			Path:       cfg.Logging.File,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
		})

		if err := resolvePassword(cfg); err != nil {
			return err
		}

		auditLogger, err := audit.NewFileLogger(cfg.AuditLogFile(), audit.RotationConfig{
			MaxSizeMB:  10,
			MaxBackups: 10,
		})
		if err != nil {
			util.Warnf("Could not initialize audit logging: %v", err)
		} else {
			audit.SetDefaultLogger(auditLogger)
		}

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(runCmd, showCmd, auditCmd, versionCmd)
}

func skipInit(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "help", "completion":
		return true
	}
	return false
}

// resolvePassword fills in the endpoint password from the environment or,
// on an interactive terminal, a prompt.
func resolvePassword(c *config.Config) error {
	if c.BasicAuth.Password != "" {
		return nil
	}
	if pw := os.Getenv(passwordEnv); pw != "" {
		c.BasicAuth.Password = pw
		return nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("%w: basic_auth.password not set; set it, export %s or run interactively",
			util.ErrInvalidConfig, passwordEnv)
	}

	fmt.Fprintf(os.Stderr, "Password for %s: ", c.BasicAuth.Username)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	c.BasicAuth.Password = strings.TrimSpace(string(pw))
	return nil
}

func newClient() *xapi.Client {
	return xapi.NewClient(xapi.Options{
		Username:     cfg.BasicAuth.Username,
		Password:     cfg.BasicAuth.Password,
		ReadTimeout:  cfg.Timeouts.Read,
		WriteTimeout: cfg.Timeouts.Write,
		TempDir:      cfg.HostVarsPath,
	})
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		if version.Version == "dev" {
			fmt.Println("epaudit dev build (use 'make build' for version info)")
		} else {
			fmt.Printf("epaudit %s\n", version.Info())
		}
	},
}
