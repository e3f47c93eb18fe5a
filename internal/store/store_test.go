package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew_Schema(t *testing.T) {
	s := newTestStore(t)

	if _, err := os.Stat(s.Path()); err != nil {
		t.Fatalf("database file missing: %v", err)
	}

	tests := []struct {
		kind string
		name string
	}{
		{"table", "presets"},
		{"table", "preset_labels"},
		{"table", "settings"},
		{"index", "idx_preset_labels_preset_id"},
	}

	for _, tt := range tests {
		var n int
		err := s.DB().QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?", tt.kind, tt.name,
		).Scan(&n)
		if err != nil {
			t.Fatalf("query sqlite_master: %v", err)
		}
		if n != 1 {
			t.Errorf("%s %s not created", tt.kind, tt.name)
		}
	}
}

func TestNew_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "objecthunt.db")

	s, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s.Presets().Create(&Preset{Name: "office", Labels: []string{"laptop", "mouse"}}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := s.Settings().Set(SettingPlayer1, "Ada"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Migrations run again on reopen and must leave rows intact
	s, err = New(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	p, err := s.Presets().GetByName("office")
	if err != nil {
		t.Fatalf("GetByName() after reopen error = %v", err)
	}
	if len(p.Labels) != 2 {
		t.Errorf("Labels = %v, want 2 entries", p.Labels)
	}
	if got := s.Settings().GetOr(SettingPlayer1, ""); got != "Ada" {
		t.Errorf("player1 = %q, want Ada", got)
	}
}

func TestStore_DeleteCascadesLabels(t *testing.T) {
	s := newTestStore(t)

	var fk int
	if err := s.DB().QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("PRAGMA foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Fatalf("foreign_keys = %d, want 1", fk)
	}

	p := &Preset{Name: "garage", Labels: []string{"bicycle", "car"}}
	if err := s.Presets().Create(p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := s.Presets().Delete(p.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	var orphans int
	if err := s.DB().QueryRow("SELECT COUNT(*) FROM preset_labels WHERE preset_id = ?", p.ID).Scan(&orphans); err != nil {
		t.Fatalf("count labels: %v", err)
	}
	if orphans != 0 {
		t.Errorf("%d labels left after delete", orphans)
	}
}

func TestStore_Close(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "close.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.DB().Ping(); err == nil {
		t.Error("Ping() after Close() should fail")
	}
}
