package main

import (
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/newtron-network/epaudit/pkg/config"
)

func TestParseLast(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"24h", 24 * time.Hour, false},
		{"90m", 90 * time.Minute, false},
		{"7d", 7 * 24 * time.Hour, false},
		{"d", 0, true},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLast(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseLast(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseLast(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSkipInit(t *testing.T) {
	tests := []struct {
		cmd  *cobra.Command
		want bool
	}{
		{versionCmd, true},
		{&cobra.Command{Use: "help"}, true},
		{runCmd, false},
		{showCmd, false},
		{auditListCmd, false},
	}
	for _, tt := range tests {
		if got := skipInit(tt.cmd); got != tt.want {
			t.Errorf("skipInit(%s) = %v, want %v", tt.cmd.Name(), got, tt.want)
		}
	}
}

func TestResolvePassword(t *testing.T) {
	c := &config.Config{BasicAuth: config.BasicAuth{Username: "admin", Password: "fromfile"}}
	t.Setenv(passwordEnv, "fromenv")
	if err := resolvePassword(c); err != nil {
		t.Fatal(err)
	}
	if c.BasicAuth.Password != "fromfile" {
		t.Errorf("password = %q, configured value should win", c.BasicAuth.Password)
	}

	c.BasicAuth.Password = ""
	if err := resolvePassword(c); err != nil {
		t.Fatal(err)
	}
	if c.BasicAuth.Password != "fromenv" {
		t.Errorf("password = %q, want value from %s", c.BasicAuth.Password, passwordEnv)
	}
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"run", "show", "audit", "version"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
	if rootCmd.PersistentFlags().ShorthandLookup("c") == nil {
		t.Error("missing -c shorthand")
	}
}
