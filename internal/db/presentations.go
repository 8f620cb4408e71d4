package db

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"slideflow/internal/model"
)

// ErrNotFound is returned when a presentation ID does not exist.
var ErrNotFound = fmt.Errorf("presentation not found")

// PresentationStore persists imported decks. Slides are stored as one
// JSON document per presentation; the editor always loads a deck whole.
type PresentationStore struct {
	db *sql.DB
}

// NewPresentationStore wraps an initialized database handle.
func NewPresentationStore(db *sql.DB) *PresentationStore {
	return &PresentationStore{db: db}
}

// Save inserts a presentation, replacing any existing row with the same ID.
func (ps *PresentationStore) Save(p *model.Presentation) error {
	slidesJSON, err := json.Marshal(p.Slides)
	if err != nil {
		return fmt.Errorf("marshal slides: %w", err)
	}
	_, err = ps.db.Exec(
		"INSERT OR REPLACE INTO presentations (id, name, slide_count, slides_json) VALUES (?, ?, ?, ?)",
		p.ID, p.Name, p.SlideCount, string(slidesJSON),
	)
	if err != nil {
		return fmt.Errorf("insert presentation: %w", err)
	}
	return nil
}

// Get loads one presentation with its slides.
func (ps *PresentationStore) Get(id string) (*model.Presentation, error) {
	var p model.Presentation
	var slidesJSON string
	err := ps.db.QueryRow(
		"SELECT id, name, slide_count, slides_json, created_at FROM presentations WHERE id = ?",
		id,
	).Scan(&p.ID, &p.Name, &p.SlideCount, &slidesJSON, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query presentation: %w", err)
	}
	if err := json.Unmarshal([]byte(slidesJSON), &p.Slides); err != nil {
		return nil, fmt.Errorf("unmarshal slides for %s: %w", id, err)
	}
	return &p, nil
}

// List returns all presentations, newest first, without slide bodies.
func (ps *PresentationStore) List() ([]model.Presentation, error) {
	rows, err := ps.db.Query(
		"SELECT id, name, slide_count, created_at FROM presentations ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("list presentations: %w", err)
	}
	defer rows.Close()

	var list []model.Presentation
	for rows.Next() {
		var p model.Presentation
		if err := rows.Scan(&p.ID, &p.Name, &p.SlideCount, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan presentation: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Delete removes a presentation and, via the foreign key cascade, its
// thumbnails. Deleting an unknown ID returns ErrNotFound.
func (ps *PresentationStore) Delete(id string) error {
	res, err := ps.db.Exec("DELETE FROM presentations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete presentation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete presentation: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveThumbnails replaces the stored thumbnails for a presentation.
func (ps *PresentationStore) SaveThumbnails(id string, thumbs [][]byte) error {
	tx, err := ps.db.Begin()
	if err != nil {
		return fmt.Errorf("begin thumbnails: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM thumbnails WHERE presentation_id = ?", id); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear thumbnails: %w", err)
	}
	for i, png := range thumbs {
		if _, err := tx.Exec(
			"INSERT INTO thumbnails (presentation_id, slide_index, png) VALUES (?, ?, ?)",
			id, i, png,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert thumbnail %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// Thumbnails returns the stored thumbnails for a presentation in slide
// order. An empty slice means none were rendered.
func (ps *PresentationStore) Thumbnails(id string) ([][]byte, error) {
	rows, err := ps.db.Query(
		"SELECT png FROM thumbnails WHERE presentation_id = ? ORDER BY slide_index",
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("query thumbnails: %w", err)
	}
	defer rows.Close()

	var thumbs [][]byte
	for rows.Next() {
		var png []byte
		if err := rows.Scan(&png); err != nil {
			return nil, fmt.Errorf("scan thumbnail: %w", err)
		}
		thumbs = append(thumbs, png)
	}
	return thumbs, rows.Err()
}
