package record

import (
	"reflect"
	"testing"
)

func TestRecord_SetGet(t *testing.T) {
	rec := New("10.0.0.5")

	if rec.Address != "10.0.0.5" {
		t.Errorf("Address = %q", rec.Address)
	}
	if _, ok := rec.Get(SystemMTU); ok {
		t.Error("fresh record should have no fields")
	}

	rec.Set(SystemMTU, "1500")
	rec.Set(SystemMTU, "1280")
	rec.SetInt(Users, 3)

	if v, ok := rec.Get(SystemMTU); !ok || v != "1280" {
		t.Errorf("Get(SystemMTU) = %q, %v", v, ok)
	}
	if rec.Value(Users) != "3" {
		t.Errorf("Value(Users) = %q, want 3", rec.Value(Users))
	}
	if rec.Value(SNMPStatus) != "" {
		t.Errorf("Value of unset field = %q", rec.Value(SNMPStatus))
	}
	if rec.Len() != 2 {
		t.Errorf("Len() = %d, want 2", rec.Len())
	}
}

func TestRecord_Row(t *testing.T) {
	rec := New("10.0.0.5")
	rec.Set(SNMPStatus, "Off")
	rec.Set(SystemName, "boardroom-1")
	rec.Set("Unlisted", "ignored")

	got := rec.Row([]string{SystemName, SystemMTU, SNMPStatus})
	want := []string{"boardroom-1", "", "Off"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Row() = %q, want %q", got, want)
	}

	if len(rec.Row(Columns)) != len(Columns) {
		t.Errorf("Row(Columns) length mismatch")
	}
}

func TestRecord_FieldsIsCopy(t *testing.T) {
	rec := New("10.0.0.5")
	rec.Set(Model, "Room Kit")

	fields := rec.Fields()
	fields[Model] = "changed"

	if rec.Value(Model) != "Room Kit" {
		t.Error("Fields() should return a copy")
	}
}

func TestColumns_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for _, c := range Columns {
		if seen[c] {
			t.Errorf("duplicate column %q", c)
		}
		seen[c] = true
	}
	if len(Columns) != 21 {
		t.Errorf("len(Columns) = %d, want 21", len(Columns))
	}
}
