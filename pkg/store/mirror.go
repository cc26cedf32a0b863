// Package store mirrors the inventory of the last run into Redis so other
// tools can read endpoint state without parsing the CSV.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/newtron-network/epaudit/pkg/record"
)

// Table is the key prefix for endpoint hashes.
const Table = "ENDPOINT"

// Mirror receives the record of each processed endpoint.
type Mirror interface {
	// Reset removes entries left by a previous run.
	Reset(ctx context.Context) error
	// Put stores rec along with the endpoint's result status.
	Put(ctx context.Context, rec *record.Record, status string) error
	Close() error
}

// Key returns the hash key for an endpoint address.
func Key(address string) string {
	return fmt.Sprintf("%s|%s", Table, address)
}

// Fields builds the hash fields for rec: every declared column that is set,
// plus status and update time.
func Fields(rec *record.Record, status string, now time.Time) map[string]string {
	fields := make(map[string]string, len(record.Columns)+2)
	for _, col := range record.Columns {
		if v, ok := rec.Get(col); ok {
			fields[col] = v
		}
	}
	fields["status"] = status
	fields["updated"] = now.UTC().Format(time.RFC3339)
	return fields
}

// Nop is a Mirror that discards everything. Used when no Redis address is
// configured.
type Nop struct{}

func (Nop) Reset(context.Context) error                       { return nil }
func (Nop) Put(context.Context, *record.Record, string) error { return nil }
func (Nop) Close() error                                      { return nil }
