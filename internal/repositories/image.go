package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/imx/internal/models"
	"github.com/desertthunder/imx/internal/shared"
)

// ImageRepository implements models.Repository[*models.PersistedImage] for controller image storage.
//
// Handles image CRUD with soft delete support, deterministic page queries for the list API,
// and the batch operations behind the bulk-delete endpoint and the deletion reaper.
type ImageRepository struct {
	db *sql.DB
}

// NewImageRepository creates a new ImageRepository with the given database connection
func NewImageRepository(db *sql.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

// Create inserts a new image into the database with generated ID and sequence
func (r *ImageRepository) Create(image *models.PersistedImage) error {
	sequence, err := NextSequence(r.db, "images")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	image.SetID(id)
	image.SetSequence(sequence)

	if err := image.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO images (id, sequence, name, should_delete, created_at, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.Exec(query,
		id,
		sequence,
		image.Name(),
		image.ShouldDelete(),
		image.CreatedAt(),
		image.UpdatedAt(),
		nullableTime(image.DeletedAt()),
	)
	if err != nil {
		return fmt.Errorf("failed to insert image: %w", err)
	}

	if err := replaceLocations(tx, id, image.Locations()); err != nil {
		return err
	}

	return tx.Commit()
}

// Get retrieves an image by ID. Deleted images are included: the terminal
// state is domain data here, not something to hide from callers.
func (r *ImageRepository) Get(id string) (*models.PersistedImage, error) {
	query := `
		SELECT id, sequence, name, should_delete, created_at, updated_at, deleted_at
		FROM images
		WHERE id = ?
	`

	image, err := r.scanOne(r.db.QueryRow(query, id))
	if err != nil {
		return nil, err
	}

	locations, err := r.loadLocations(id)
	if err != nil {
		return nil, err
	}
	image.SetLocationsUnstamped(locations)

	return image, nil
}

// Update modifies an existing image and replaces its location set
func (r *ImageRepository) Update(image *models.PersistedImage) error {
	if err := image.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE images
		SET name = ?, should_delete = ?, updated_at = ?, deleted_at = ?
		WHERE id = ?
	`

	result, err := tx.Exec(query,
		image.Name(),
		image.ShouldDelete(),
		image.UpdatedAt(),
		nullableTime(image.DeletedAt()),
		image.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update image: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrImageNotFound, image.ID())
	}

	if err := replaceLocations(tx, image.ID(), image.Locations()); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete soft-deletes an image by setting its deleted_at timestamp
func (r *ImageRepository) Delete(id string) error {
	query := `UPDATE images SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`

	now := time.Now().UTC()
	result, err := r.db.Exec(query, now, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrImageNotFound, id)
	}

	return nil
}

// List retrieves images matching the given criteria.
//
// Supported criteria: "should_delete" (bool), "active" (bool, deleted_at IS NULL when true).
func (r *ImageRepository) List(criteria map[string]any) ([]*models.PersistedImage, error) {
	query := `
		SELECT id, sequence, name, should_delete, created_at, updated_at, deleted_at
		FROM images
	`
	var args []any
	var clauses []string

	if v, ok := criteria["should_delete"]; ok {
		clauses = append(clauses, "should_delete = ?")
		args = append(args, v)
	}
	if v, ok := criteria["active"]; ok {
		if active, _ := v.(bool); active {
			clauses = append(clauses, "deleted_at IS NULL")
		} else {
			clauses = append(clauses, "deleted_at IS NOT NULL")
		}
	}

	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY created_at DESC, id ASC"

	return r.queryImages(query, args...)
}

// ListPage returns one page of images in the canonical list order:
// newest first, ties broken by id, deleted rows included so clients can
// render the terminal state.
func (r *ImageRepository) ListPage(offset, limit int) ([]*models.PersistedImage, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", shared.ErrInvalidArgument)
	}
	if offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative", shared.ErrInvalidArgument)
	}

	query := `
		SELECT id, sequence, name, should_delete, created_at, updated_at, deleted_at
		FROM images
		ORDER BY created_at DESC, id ASC
		LIMIT ? OFFSET ?
	`

	return r.queryImages(query, limit, offset)
}

// MarkShouldDelete flags the given images for the deletion reaper in one
// transaction. Unknown and already-deleted ids are reported back as rejected
// rather than failing the whole batch.
func (r *ImageRepository) MarkShouldDelete(ids []string) (rejected []string, err error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, id := range ids {
		var deletedAt sql.NullTime
		err := tx.QueryRow("SELECT deleted_at FROM images WHERE id = ?", id).Scan(&deletedAt)
		if err == sql.ErrNoRows {
			rejected = append(rejected, id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to check image %s: %w", id, err)
		}
		if deletedAt.Valid {
			rejected = append(rejected, id)
			continue
		}

		if _, err := tx.Exec("UPDATE images SET should_delete = 1, updated_at = ? WHERE id = ?", now, id); err != nil {
			return nil, fmt.Errorf("failed to mark image %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return rejected, nil
}

// ListPendingDeletion returns flagged images that still need reaper work:
// records not yet stamped terminal, plus stamped records whose fleet
// locations have not been drained. Oldest first, locations loaded.
func (r *ImageRepository) ListPendingDeletion() ([]*models.PersistedImage, error) {
	query := `
		SELECT id, sequence, name, should_delete, created_at, updated_at, deleted_at
		FROM images
		WHERE should_delete = 1
		  AND (deleted_at IS NULL OR id IN (SELECT image_id FROM image_locations))
		ORDER BY updated_at ASC, id ASC
	`

	images, err := r.queryImages(query)
	if err != nil {
		return nil, err
	}
	return images, nil
}

// Count returns the total number of image rows, deleted included.
func (r *ImageRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM images").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count images: %w", err)
	}
	return count, nil
}

func (r *ImageRepository) queryImages(query string, args ...any) ([]*models.PersistedImage, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	var images []*models.PersistedImage
	for rows.Next() {
		image, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate images: %w", err)
	}

	for _, image := range images {
		locations, err := r.loadLocations(image.ID())
		if err != nil {
			return nil, err
		}
		image.SetLocationsUnstamped(locations)
	}

	return images, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func (r *ImageRepository) scanOne(row *sql.Row) (*models.PersistedImage, error) {
	image, err := r.scanRow(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w", shared.ErrImageNotFound)
	}
	return image, err
}

func (r *ImageRepository) scanRow(row scannable) (*models.PersistedImage, error) {
	var (
		id           string
		sequence     int
		name         string
		shouldDelete bool
		createdAt    time.Time
		updatedAt    time.Time
		deletedAt    sql.NullTime
	)

	err := row.Scan(&id, &sequence, &name, &shouldDelete, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	var deleted *time.Time
	if deletedAt.Valid {
		t := deletedAt.Time
		deleted = &t
	}

	return models.RestorePersistedImage(id, sequence, name, nil, shouldDelete, createdAt, updatedAt, deleted), nil
}

func (r *ImageRepository) loadLocations(imageID string) ([]models.Location, error) {
	rows, err := r.db.Query("SELECT node, namespace FROM image_locations WHERE image_id = ? ORDER BY node, namespace", imageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	var locations []models.Location
	for rows.Next() {
		var loc models.Location
		if err := rows.Scan(&loc.Node, &loc.Namespace); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

func replaceLocations(tx *sql.Tx, imageID string, locations []models.Location) error {
	if _, err := tx.Exec("DELETE FROM image_locations WHERE image_id = ?", imageID); err != nil {
		return fmt.Errorf("failed to clear locations: %w", err)
	}
	for _, loc := range locations {
		if _, err := tx.Exec(
			"INSERT INTO image_locations (image_id, node, namespace) VALUES (?, ?, ?)",
			imageID, loc.Node, loc.Namespace,
		); err != nil {
			return fmt.Errorf("failed to insert location: %w", err)
		}
	}
	return nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
