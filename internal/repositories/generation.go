package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/m3usift/m3usift/internal/models"
	"github.com/m3usift/m3usift/internal/shared"
)

// GenerationRepository implements [models.Repository] for [models.Generation] persistence.
// Generations are the playlist history of an account; the newest one
// carries the filter a sync reapplies.
type GenerationRepository struct {
	db *sql.DB
}

// NewGenerationRepository creates a new [GenerationRepository] with the given database connection
func NewGenerationRepository(db *sql.DB) *GenerationRepository {
	return &GenerationRepository{db: db}
}

// Create inserts a new generation into the database with generated ID and sequence
func (r *GenerationRepository) Create(generation *models.Generation) error {
	sequence, err := NextSequence(r.db, "generations")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	generation.SetID(id)

	if err := generation.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO generations (id, sequence, account_id, mode, group_names, include_vod, tracks, group_count, size, path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, id, sequence, generation.AccountID(), generation.Mode(),
		strings.Join(generation.Groups(), ","), generation.IncludeVOD(), generation.Tracks(),
		generation.GroupCount(), generation.Size(), generation.Path(),
		generation.CreatedAt(), generation.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert generation: %w", err)
	}

	return nil
}

// Get retrieves a generation by ID, excluding soft-deleted generations
func (r *GenerationRepository) Get(id string) (*models.Generation, error) {
	query := generationSelect + ` WHERE id = ? AND deleted_at IS NULL`

	generation, err := r.scanOne(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrGenerationNotFound, id)
	}

	return generation, err
}

// Latest retrieves the newest generation recorded for an account.
func (r *GenerationRepository) Latest(accountID string) (*models.Generation, error) {
	query := generationSelect + `
		WHERE account_id = ? AND deleted_at IS NULL
		ORDER BY sequence DESC LIMIT 1
	`

	generation, err := r.scanOne(r.db.QueryRow(query, accountID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no history for account %s", shared.ErrGenerationNotFound, accountID)
	}

	return generation, err
}

// Update modifies an existing generation in the database
func (r *GenerationRepository) Update(generation *models.Generation) error {
	if err := generation.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	generation.SetUpdatedAt(now)

	query := `
		UPDATE generations
		SET mode = ?, group_names = ?, include_vod = ?, tracks = ?, group_count = ?, size = ?, path = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, generation.Mode(), strings.Join(generation.Groups(), ","),
		generation.IncludeVOD(), generation.Tracks(), generation.GroupCount(), generation.Size(),
		generation.Path(), now, generation.ID())
	if err != nil {
		return fmt.Errorf("failed to update generation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrGenerationNotFound, generation.ID())
	}

	return nil
}

// Delete soft-deletes a generation by ID
func (r *GenerationRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE generations
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete generation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrGenerationNotFound, id)
	}

	return nil
}

// List retrieves generations matching the given criteria, newest first,
// excluding soft-deleted generations
func (r *GenerationRepository) List(criteria map[string]any) ([]*models.Generation, error) {
	query := generationSelect + ` WHERE deleted_at IS NULL`

	args := []any{}

	if accountID, ok := criteria["account_id"].(string); ok && accountID != "" {
		query += " AND account_id = ?"
		args = append(args, accountID)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query generations: %w", err)
	}
	defer rows.Close()

	var generations []*models.Generation
	for rows.Next() {
		generation, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		generations = append(generations, generation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return generations, nil
}

const generationSelect = `
	SELECT id, sequence, account_id, mode, group_names, include_vod, tracks, group_count, size, path, created_at, updated_at, deleted_at
	FROM generations
`

// scanOne scans a single row into a [models.Generation]. A sql.ErrNoRows
// from the row is passed through for the caller to translate.
func (r *GenerationRepository) scanOne(row *sql.Row) (*models.Generation, error) {
	var (
		id         string
		sequence   int
		accountID  string
		mode       string
		groupNames string
		includeVOD bool
		tracks     int
		groupCount int
		size       int64
		path       string
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := row.Scan(&id, &sequence, &accountID, &mode, &groupNames, &includeVOD, &tracks, &groupCount, &size, &path, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan generation: %w", err)
	}

	return buildGeneration(id, sequence, accountID, mode, groupNames, includeVOD, tracks, groupCount, size, path, createdAt, updatedAt, deletedAt), nil
}

// scanRow scans the current result set row into a [models.Generation]
func (r *GenerationRepository) scanRow(rows *sql.Rows) (*models.Generation, error) {
	var (
		id         string
		sequence   int
		accountID  string
		mode       string
		groupNames string
		includeVOD bool
		tracks     int
		groupCount int
		size       int64
		path       string
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := rows.Scan(&id, &sequence, &accountID, &mode, &groupNames, &includeVOD, &tracks, &groupCount, &size, &path, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan generation: %w", err)
	}

	return buildGeneration(id, sequence, accountID, mode, groupNames, includeVOD, tracks, groupCount, size, path, createdAt, updatedAt, deletedAt), nil
}

func buildGeneration(id string, sequence int, accountID, mode, groupNames string, includeVOD bool, tracks, groupCount int, size int64, path string, createdAt, updatedAt time.Time, deletedAt sql.NullTime) *models.Generation {
	generation := models.NewGeneration(sequence, accountID, mode, splitGroups(groupNames), includeVOD)
	generation.SetID(id)
	generation.SetCounts(tracks, groupCount)
	generation.SetSize(size)
	generation.SetPath(path)
	generation.SetCreatedAt(createdAt)
	generation.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		generation.SetDeletedAt(&deletedAt.Time)
	}

	return generation
}

// splitGroups reverses the comma join used on insert. Group names are
// stored unescaped, mirroring the wire format.
func splitGroups(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
