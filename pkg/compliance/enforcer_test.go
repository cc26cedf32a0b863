package compliance

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/newtron-network/epaudit/internal/testutil"
	"github.com/newtron-network/epaudit/pkg/extract"
	"github.com/newtron-network/epaudit/pkg/record"
	"github.com/newtron-network/epaudit/pkg/util"
)

// fakeDevice keeps MTU and SNMP mode in memory and renders configuration
// dumps from them.
type fakeDevice struct {
	dir          string
	mtu          string
	snmp         string
	ignoreWrites bool
	putErr       error
	puts         []string
	saves        int
}

func (d *fakeDevice) Put(_ context.Context, _ string, document string) error {
	d.puts = append(d.puts, document)
	if d.putErr != nil {
		return d.putErr
	}
	if d.ignoreWrites {
		return nil
	}
	switch {
	case strings.Contains(document, "<MTU>"):
		d.mtu = "1280"
	case strings.Contains(document, "<SNMP>"):
		d.snmp = "Off"
	}
	return nil
}

func (d *fakeDevice) SaveConfiguration(_ context.Context, address string) (string, error) {
	d.saves++
	path := filepath.Join(d.dir, address+"-config.xml")
	return path, os.WriteFile(path, []byte(testutil.ConfigurationXML(d.mtu, d.snmp)), 0o600)
}

type memLog struct {
	lines []string
}

func (l *memLog) Append(line string) error {
	l.lines = append(l.lines, line)
	return nil
}

func newRecord(mtu, snmp string) *record.Record {
	rec := record.New("10.0.0.5")
	rec.Set(record.SystemMTU, mtu)
	rec.Set(record.SNMPStatus, snmp)
	return rec
}

func TestRule_Compliant(t *testing.T) {
	tests := []struct {
		rule  Rule
		value string
		want  bool
	}{
		{MTU, "1280", true},
		{MTU, "1280 (indirect default)", true},
		{MTU, "1500", false},
		{MTU, "", false},
		{MTU, " 1280", false},
		{SNMP, "Off", true},
		{SNMP, "Off (indirect default)", true},
		{SNMP, "On", false},
		{SNMP, "ReadOnly", false},
		{SNMP, "off", false},
	}

	for _, tt := range tests {
		t.Run(tt.rule.Name+"/"+tt.value, func(t *testing.T) {
			if got := tt.rule.Compliant(tt.value); got != tt.want {
				t.Errorf("Compliant(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestRule_PathsMatchExtractor(t *testing.T) {
	paths := make(map[string]string)
	for _, p := range extract.ConfigPaths {
		paths[p.Field] = p.XPath
	}
	for _, r := range DefaultRules() {
		if paths[r.Field] != r.XPath {
			t.Errorf("rule %s re-reads %q, extractor reads %q", r.Name, r.XPath, paths[r.Field])
		}
	}
}

func TestEnforce_Compliant(t *testing.T) {
	dev := &fakeDevice{dir: t.TempDir(), mtu: "1280", snmp: "Off"}
	log := &memLog{}
	e := NewEnforcer(dev, log, false)
	rec := newRecord("1280 (indirect default)", "Off")

	for _, rule := range DefaultRules() {
		out, err := e.Enforce(context.Background(), rec, rule)
		if err != nil {
			t.Fatalf("Enforce(%s) error: %v", rule.Name, err)
		}
		if out.Action != ActionPassed {
			t.Errorf("Enforce(%s) action = %s, want passed", rule.Name, out.Action)
		}
	}

	if len(dev.puts) != 0 || dev.saves != 0 {
		t.Errorf("compliant device saw %d writes, %d re-reads", len(dev.puts), dev.saves)
	}
	if len(log.lines) != 0 {
		t.Errorf("change log = %q, want empty", log.lines)
	}
}

func TestEnforce_CorrectsAndReReads(t *testing.T) {
	dir := t.TempDir()
	dev := &fakeDevice{dir: dir, mtu: "1500", snmp: "On"}
	log := &memLog{}
	e := NewEnforcer(dev, log, false)
	rec := newRecord("1500", "On")

	mtu, err := e.Enforce(context.Background(), rec, MTU)
	if err != nil {
		t.Fatalf("Enforce(MTU) error: %v", err)
	}
	snmp, err := e.Enforce(context.Background(), rec, SNMP)
	if err != nil {
		t.Fatalf("Enforce(SNMP) error: %v", err)
	}

	if mtu.Action != ActionChanged || mtu.Before != "1500" || mtu.After != "1280" {
		t.Errorf("MTU outcome = %+v", mtu)
	}
	if snmp.Action != ActionChanged || snmp.Before != "On" || snmp.After != "Off" {
		t.Errorf("SNMP outcome = %+v", snmp)
	}
	if rec.Value(record.SystemMTU) != "1280" || rec.Value(record.SNMPStatus) != "Off" {
		t.Errorf("record not updated: MTU=%q SNMP=%q", rec.Value(record.SystemMTU), rec.Value(record.SNMPStatus))
	}
	if !reflect.DeepEqual(dev.puts, []string{MTU.Document, SNMP.Document}) {
		t.Errorf("writes = %q", dev.puts)
	}
	want := []string{"10.0.0.5 MTU changed to 1280", "10.0.0.5 SNMP Disabled"}
	if !reflect.DeepEqual(log.lines, want) {
		t.Errorf("change log = %q, want %q", log.lines, want)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("re-read configuration not removed: %d files left", len(entries))
	}
}

func TestEnforce_Idempotent(t *testing.T) {
	dev := &fakeDevice{dir: t.TempDir(), mtu: "1500", snmp: "On"}
	log := &memLog{}
	e := NewEnforcer(dev, log, false)
	rec := newRecord("1500", "On")

	for i := 0; i < 2; i++ {
		for _, rule := range DefaultRules() {
			if _, err := e.Enforce(context.Background(), rec, rule); err != nil {
				t.Fatalf("pass %d Enforce(%s) error: %v", i, rule.Name, err)
			}
		}
	}

	if len(dev.puts) != 2 {
		t.Errorf("writes = %d, want 2 (first pass only)", len(dev.puts))
	}
	if len(log.lines) != 2 {
		t.Errorf("change log lines = %d, want 2", len(log.lines))
	}
}

func TestEnforce_Mismatch(t *testing.T) {
	dev := &fakeDevice{dir: t.TempDir(), mtu: "1500", snmp: "On", ignoreWrites: true}
	log := &memLog{}
	e := NewEnforcer(dev, log, false)
	rec := newRecord("1500", "On")

	out, err := e.Enforce(context.Background(), rec, MTU)
	if !errors.Is(err, util.ErrNotCompliant) {
		t.Fatalf("Enforce() error = %v, want ErrNotCompliant", err)
	}
	var me *MismatchError
	if !errors.As(err, &me) || me.Got != "1500" || me.Rule != "MTU" {
		t.Errorf("MismatchError = %+v", me)
	}
	if out == nil || out.Action != ActionMismatch {
		t.Errorf("outcome = %+v, want mismatch", out)
	}
	if len(log.lines) != 0 {
		t.Errorf("mismatch should not be logged as a change: %q", log.lines)
	}
}

func TestEnforce_DryRun(t *testing.T) {
	dev := &fakeDevice{dir: t.TempDir(), mtu: "1500", snmp: "On"}
	e := NewEnforcer(dev, nil, true)
	rec := newRecord("1500", "On")

	out, err := e.Enforce(context.Background(), rec, MTU)
	if err != nil {
		t.Fatalf("Enforce() error: %v", err)
	}
	if out.Action != ActionWouldChange {
		t.Errorf("action = %s, want would-change", out.Action)
	}
	if len(dev.puts) != 0 {
		t.Error("dry run should not write")
	}
	if rec.Value(record.SystemMTU) != "1500" {
		t.Error("dry run should not modify the record")
	}
}

func TestEnforce_WriteFails(t *testing.T) {
	dev := &fakeDevice{dir: t.TempDir(), mtu: "1500", snmp: "On", putErr: errors.New("connection reset")}
	log := &memLog{}
	e := NewEnforcer(dev, log, false)

	_, err := e.Enforce(context.Background(), newRecord("1500", "On"), MTU)
	if err == nil || !strings.Contains(err.Error(), "applying MTU") {
		t.Fatalf("Enforce() error = %v", err)
	}
	if dev.saves != 0 {
		t.Error("failed write should not be re-read")
	}
	if len(log.lines) != 0 {
		t.Error("failed write should not be logged")
	}
}

func TestEnforce_MissingField(t *testing.T) {
	e := NewEnforcer(&fakeDevice{dir: t.TempDir()}, nil, false)

	_, err := e.Enforce(context.Background(), record.New("10.0.0.5"), SNMP)
	if !errors.Is(err, util.ErrFieldNotFound) {
		t.Errorf("Enforce() error = %v, want ErrFieldNotFound", err)
	}
}
