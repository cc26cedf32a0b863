package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/newtron-network/epaudit/pkg/util"
)

const validDoc = `
basic_auth:
  username: admin
  password: secret
host_vars_path: /var/tmp/epaudit/
output_path: /var/lib/epaudit/
path: /etc/epaudit/
`

func TestLoad_Valid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(validDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.BasicAuth.Username != "admin" || cfg.BasicAuth.Password != "secret" {
		t.Errorf("BasicAuth = %+v", cfg.BasicAuth)
	}
	if cfg.HostVarsPath != "/var/tmp/epaudit/" {
		t.Errorf("HostVarsPath = %q", cfg.HostVarsPath)
	}
	if got := cfg.ListFile(); got != "/etc/epaudit/list.txt" {
		t.Errorf("ListFile() = %q", got)
	}
	if got := cfg.InventoryFile(); got != "/var/lib/epaudit/BBP.csv" {
		t.Errorf("InventoryFile() = %q", got)
	}
	if got := cfg.FailedFile(); got != "/var/lib/epaudit/BBP_failed.txt" {
		t.Errorf("FailedFile() = %q", got)
	}
	if got := cfg.ChangeLogFile(); got != "/var/lib/epaudit/change-log.txt" {
		t.Errorf("ChangeLogFile() = %q", got)
	}
	if got := cfg.AuditLogFile(); got != "/var/lib/epaudit/audit.log" {
		t.Errorf("AuditLogFile() = %q", got)
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(validDoc))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if cfg.Timeouts.Read != 3*time.Second {
		t.Errorf("Timeouts.Read = %v, want 3s", cfg.Timeouts.Read)
	}
	if cfg.Timeouts.Write != 5*time.Second {
		t.Errorf("Timeouts.Write = %v, want 5s", cfg.Timeouts.Write)
	}
	if cfg.LatestSoftware != DefaultLatestSoftware {
		t.Errorf("LatestSoftware = %q", cfg.LatestSoftware)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
	if cfg.Redis.Addr != "" {
		t.Errorf("Redis.Addr = %q, want empty", cfg.Redis.Addr)
	}
}

func TestParse_Overrides(t *testing.T) {
	doc := validDoc + `
latest_software: ce 11.1
timeouts:
  read: 1500ms
  write: 10s
audit_log: /var/log/epaudit/audit.log
metrics_file: /var/lib/node_exporter/epaudit.prom
logging:
  level: debug
  file: /var/log/epaudit/epaudit.log
redis:
  addr: 127.0.0.1:6379
  db: 2
`
	cfg, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if cfg.LatestSoftware != "ce 11.1" {
		t.Errorf("LatestSoftware = %q", cfg.LatestSoftware)
	}
	if cfg.Timeouts.Read != 1500*time.Millisecond || cfg.Timeouts.Write != 10*time.Second {
		t.Errorf("Timeouts = %+v", cfg.Timeouts)
	}
	if cfg.AuditLogFile() != "/var/log/epaudit/audit.log" {
		t.Errorf("AuditLogFile() = %q", cfg.AuditLogFile())
	}
	if cfg.Logging.File != "/var/log/epaudit/epaudit.log" {
		t.Errorf("Logging.File = %q", cfg.Logging.File)
	}
	if cfg.Redis.Addr != "127.0.0.1:6379" || cfg.Redis.DB != 2 {
		t.Errorf("Redis = %+v", cfg.Redis)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		errText string
	}{
		{
			name:    "empty document",
			doc:     "",
			errText: "empty document",
		},
		{
			name:    "malformed yaml",
			doc:     "basic_auth: [unterminated",
			errText: "invalid configuration",
		},
		{
			name:    "unknown key",
			doc:     validDoc + "verify_tls: true\n",
			errText: "verify_tls",
		},
		{
			name: "missing username",
			doc: `
basic_auth:
  password: secret
host_vars_path: /tmp/
output_path: /tmp/
path: /tmp/
`,
			errText: "basic_auth.username is required",
		},
		{
			name: "missing paths",
			doc: `
basic_auth:
  username: admin
`,
			errText: "output_path is required",
		},
		{
			name:    "negative timeout",
			doc:     validDoc + "timeouts:\n  read: -1s\n",
			errText: "timeouts.read must be positive",
		},
		{
			name:    "unknown log format",
			doc:     validDoc + "logging:\n  format: xml\n",
			errText: "logging.format must be text or json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("Parse() error = nil, want error")
			}
			if !errors.Is(err, util.ErrInvalidConfig) {
				t.Errorf("error %v should match ErrInvalidConfig", err)
			}
			if !strings.Contains(err.Error(), tt.errText) {
				t.Errorf("error = %v, want containing %q", err, tt.errText)
			}
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load() of missing file should fail")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error %v should wrap os.ErrNotExist", err)
	}
}
