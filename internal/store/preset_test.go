package store

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func TestPresetRepository_Create(t *testing.T) {
	s := newTestStore(t)
	repo := s.Presets()

	p := &Preset{Name: "kitchen", Labels: []string{"cup", "fork", "bowl"}}
	if err := repo.Create(p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if p.ID == "" {
		t.Fatal("Create() should assign an ID")
	}
	if p.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	got, err := repo.GetByID(p.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "kitchen" {
		t.Errorf("Name = %q, want %q", got.Name, "kitchen")
	}
	if !reflect.DeepEqual(got.Labels, p.Labels) {
		t.Errorf("Labels = %v, want %v (order preserved)", got.Labels, p.Labels)
	}
}

func TestPresetRepository_Create_DuplicateName(t *testing.T) {
	s := newTestStore(t)
	repo := s.Presets()

	if err := repo.Create(&Preset{Name: "desk", Labels: []string{"laptop"}}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Create(&Preset{Name: "desk", Labels: []string{"mouse"}}); err == nil {
		t.Error("Create() with duplicate name should fail")
	}

	presets, err := repo.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(presets) != 1 {
		t.Errorf("List() returned %d presets, want 1", len(presets))
	}
}

func TestPresetRepository_GetByName(t *testing.T) {
	s := newTestStore(t)
	repo := s.Presets()

	repo.Create(&Preset{Name: "desk", Labels: []string{"laptop", "mouse"}})

	got, err := repo.GetByName("desk")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if len(got.Labels) != 2 {
		t.Errorf("Labels = %v, want 2 labels", got.Labels)
	}

	if _, err := repo.GetByName("garage"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByName() error = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestPresetRepository_List(t *testing.T) {
	s := newTestStore(t)
	repo := s.Presets()

	for _, name := range []string{"zoo", "attic", "kitchen"} {
		if err := repo.Create(&Preset{Name: name, Labels: []string{"cup"}}); err != nil {
			t.Fatalf("Create(%q) error = %v", name, err)
		}
	}

	presets, err := repo.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	var names []string
	for _, p := range presets {
		names = append(names, p.Name)
		if len(p.Labels) != 1 {
			t.Errorf("preset %q has labels %v", p.Name, p.Labels)
		}
	}
	if want := []string{"attic", "kitchen", "zoo"}; !reflect.DeepEqual(names, want) {
		t.Errorf("List() names = %v, want %v", names, want)
	}
}

func TestPresetRepository_Update(t *testing.T) {
	s := newTestStore(t)
	repo := s.Presets()

	p := &Preset{Name: "desk", Labels: []string{"laptop", "mouse"}}
	repo.Create(p)

	p.Name = "office"
	p.Labels = []string{"keyboard"}
	if err := repo.Update(p); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.GetByID(p.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "office" {
		t.Errorf("Name = %q, want %q", got.Name, "office")
	}
	if !reflect.DeepEqual(got.Labels, []string{"keyboard"}) {
		t.Errorf("Labels = %v, want [keyboard]", got.Labels)
	}

	missing := &Preset{ID: "missing", Name: "x"}
	if err := repo.Update(missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestPresetRepository_Delete(t *testing.T) {
	s := newTestStore(t)
	repo := s.Presets()

	p := &Preset{Name: "desk", Labels: []string{"laptop"}}
	repo.Create(p)

	if err := repo.Delete(p.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}

	// Labels cascade with the preset
	var n int
	s.DB().QueryRow(`SELECT COUNT(*) FROM preset_labels WHERE preset_id = ?`, p.ID).Scan(&n)
	if n != 0 {
		t.Errorf("%d labels left after delete, want 0", n)
	}

	if err := repo.Delete(p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrNotFound", err)
	}
}

func TestPresetRepository_EnsureDefault(t *testing.T) {
	s := newTestStore(t)
	repo := s.Presets()

	created, err := repo.EnsureDefault(DefaultPresetName, []string{"cup", "book"})
	if err != nil {
		t.Fatalf("EnsureDefault() error = %v", err)
	}
	if !created {
		t.Error("first EnsureDefault() should create the preset")
	}

	created, err = repo.EnsureDefault(DefaultPresetName, []string{"other"})
	if err != nil {
		t.Fatalf("EnsureDefault() error = %v", err)
	}
	if created {
		t.Error("second EnsureDefault() should keep the existing preset")
	}

	got, _ := repo.GetByName(DefaultPresetName)
	if !reflect.DeepEqual(got.Labels, []string{"cup", "book"}) {
		t.Errorf("Labels = %v, want original labels", got.Labels)
	}
}
