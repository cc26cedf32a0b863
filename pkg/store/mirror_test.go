package store

import (
	"context"
	"testing"
	"time"

	"github.com/newtron-network/epaudit/pkg/record"
)

func TestKey(t *testing.T) {
	if got := Key("10.0.0.5"); got != "ENDPOINT|10.0.0.5" {
		t.Errorf("Key() = %q", got)
	}
}

func TestFields(t *testing.T) {
	rec := record.New("10.0.0.5")
	rec.Set(record.SystemName, "boardroom-1")
	rec.Set(record.SystemMTU, "1280")
	rec.Set("not_a_column", "ignored")

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	fields := Fields(rec, "ok", now)

	tests := []struct {
		field string
		want  string
	}{
		{record.SystemName, "boardroom-1"},
		{record.SystemMTU, "1280"},
		{"status", "ok"},
		{"updated", "2026-03-01T11:00:00Z"},
	}
	for _, tt := range tests {
		if got := fields[tt.field]; got != tt.want {
			t.Errorf("fields[%s] = %q, want %q", tt.field, got, tt.want)
		}
	}
	if len(fields) != 4 {
		t.Errorf("len(fields) = %d, want 4 (unset columns and unknown fields omitted)", len(fields))
	}
}

func TestNop(t *testing.T) {
	var m Mirror = Nop{}
	ctx := context.Background()
	if err := m.Reset(ctx); err != nil {
		t.Error(err)
	}
	if err := m.Put(ctx, record.New("10.0.0.5"), "ok"); err != nil {
		t.Error(err)
	}
	if err := m.Close(); err != nil {
		t.Error(err)
	}
}
