// Package report writes the durable outputs of a run: the CSV inventory,
// the failure list, the change log and an optional metrics textfile.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/newtron-network/epaudit/pkg/record"
)

// Inventory appends device records to a CSV file. The header is the
// declared column set, written once when the file is created.
type Inventory struct {
	Path    string
	Columns []string
}

// NewInventory creates an inventory writer for path using the standard
// record schema.
func NewInventory(path string) *Inventory {
	return &Inventory{Path: path, Columns: record.Columns}
}

// Append writes rec as one row, creating the file and its header on first use.
func (inv *Inventory) Append(rec *record.Record) error {
	if err := os.MkdirAll(filepath.Dir(inv.Path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(inv.Path), err)
	}

	f, err := os.OpenFile(inv.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening inventory: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat inventory: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(inv.Columns); err != nil {
			f.Close()
			return fmt.Errorf("writing inventory header: %w", err)
		}
	}
	if err := w.Write(rec.Row(inv.Columns)); err != nil {
		f.Close()
		return fmt.Errorf("writing inventory row for %s: %w", rec.Address, err)
	}
	w.Flush()

	return errors.Join(w.Error(), f.Close())
}

// LineFile is an append-only text file with one entry per line.
type LineFile struct {
	Path string
}

// Append writes line followed by a newline.
func (l *LineFile) Append(line string) error {
	if err := os.MkdirAll(filepath.Dir(l.Path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(l.Path), err)
	}
	f, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Reset removes the outputs of a previous run. Missing files are ignored.
func Reset(paths ...string) error {
	var errs []error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
