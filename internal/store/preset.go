package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// DefaultPresetName is the preset seeded on first run.
const DefaultPresetName = "home"

// Preset is a named, ordered list of target labels.
type Preset struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Labels    []string  `json:"labels"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PresetRepository provides CRUD operations for presets.
type PresetRepository struct {
	db *sql.DB
}

// Presets returns the preset repository for this store.
func (s *Store) Presets() *PresetRepository {
	return &PresetRepository{db: s.db}
}

// Create inserts a new preset. An empty ID is filled with a new UUID.
func (r *PresetRepository) Create(p *Preset) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO presets (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.Name, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if err := insertLabels(tx, p.ID, p.Labels); err != nil {
		return err
	}

	return tx.Commit()
}

// GetByID retrieves a preset by its ID.
func (r *PresetRepository) GetByID(id string) (*Preset, error) {
	return r.get(`SELECT id, name, created_at, updated_at FROM presets WHERE id = ?`, id)
}

// GetByName retrieves a preset by its name.
func (r *PresetRepository) GetByName(name string) (*Preset, error) {
	return r.get(`SELECT id, name, created_at, updated_at FROM presets WHERE name = ?`, name)
}

func (r *PresetRepository) get(query string, arg string) (*Preset, error) {
	p := &Preset{}

	err := r.db.QueryRow(query, arg).Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	labels, err := r.labels(p.ID)
	if err != nil {
		return nil, err
	}
	p.Labels = labels

	return p, nil
}

// List retrieves all presets ordered by name.
func (r *PresetRepository) List() ([]*Preset, error) {
	rows, err := r.db.Query(`SELECT id, name, created_at, updated_at FROM presets ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var presets []*Preset
	for rows.Next() {
		p := &Preset{}
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		presets = append(presets, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for _, p := range presets {
		labels, err := r.labels(p.ID)
		if err != nil {
			return nil, err
		}
		p.Labels = labels
	}

	return presets, nil
}

// Update replaces the name and labels of an existing preset.
func (r *PresetRepository) Update(p *Preset) error {
	p.UpdatedAt = time.Now()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`UPDATE presets SET name = ?, updated_at = ? WHERE id = ?`,
		p.Name, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(`DELETE FROM preset_labels WHERE preset_id = ?`, p.ID); err != nil {
		return err
	}
	if err := insertLabels(tx, p.ID, p.Labels); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes a preset by its ID.
func (r *PresetRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM presets WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// EnsureDefault creates the preset name with labels unless it exists.
// It reports whether the preset was created.
func (r *PresetRepository) EnsureDefault(name string, labels []string) (bool, error) {
	_, err := r.GetByName(name)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}

	if err := r.Create(&Preset{Name: name, Labels: labels}); err != nil {
		return false, fmt.Errorf("seed preset %q: %w", name, err)
	}
	return true, nil
}

func (r *PresetRepository) labels(presetID string) ([]string, error) {
	rows, err := r.db.Query(
		`SELECT label FROM preset_labels WHERE preset_id = ? ORDER BY position`,
		presetID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	labels := []string{}
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}

	return labels, rows.Err()
}

func insertLabels(tx *sql.Tx, presetID string, labels []string) error {
	for i, l := range labels {
		if _, err := tx.Exec(
			`INSERT INTO preset_labels (preset_id, position, label) VALUES (?, ?, ?)`,
			presetID, i, l,
		); err != nil {
			return err
		}
	}
	return nil
}
