//go:build integration

package store

import (
	"testing"

	"github.com/newtron-network/epaudit/internal/testutil"
	"github.com/newtron-network/epaudit/pkg/record"
)

func TestRedisMirror_PutAndReset(t *testing.T) {
	testutil.SkipIfNoRedis(t)
	testutil.FlushDB(t)
	ctx := testutil.Context(t)

	m, err := NewRedisMirror(ctx, testutil.RedisAddr(), "", testutil.RedisDB)
	if err != nil {
		t.Fatalf("NewRedisMirror() error: %v", err)
	}
	defer m.Close()

	rec := record.New("10.0.0.5")
	rec.Set(record.SystemName, "boardroom-1")
	rec.Set(record.SystemMTU, "1280")
	if err := m.Put(ctx, rec, "ok"); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	got, err := m.Get(ctx, "10.0.0.5")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got[record.SystemName] != "boardroom-1" || got["status"] != "ok" {
		t.Errorf("hash = %v", got)
	}

	// A second put replaces stale fields.
	rec2 := record.New("10.0.0.5")
	rec2.Set(record.SystemMTU, "1500")
	if err := m.Put(ctx, rec2, "verify-failed"); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	got, _ = m.Get(ctx, "10.0.0.5")
	if _, ok := got[record.SystemName]; ok {
		t.Errorf("stale field survived: %v", got)
	}
	if got["status"] != "verify-failed" {
		t.Errorf("status = %q", got["status"])
	}

	if err := m.Reset(ctx); err != nil {
		t.Fatalf("Reset() error: %v", err)
	}
	keys, err := testutil.RedisClient(t).Keys(ctx, Table+"|*").Result()
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 0 {
		t.Errorf("keys after Reset = %v", keys)
	}
}
