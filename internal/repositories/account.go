package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/m3usift/m3usift/internal/models"
	"github.com/m3usift/m3usift/internal/shared"
)

// AccountRepository implements [models.Repository] for [models.Account] persistence.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new [AccountRepository] with the given database connection
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account into the database with generated ID and sequence
func (r *AccountRepository) Create(account *models.Account) error {
	sequence, err := NextSequence(r.db, "accounts")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	account.SetID(id)

	if err := account.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO accounts (id, sequence, name, portal, username, password, include_vod, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, id, sequence, account.Name(), account.Portal(), account.Username(),
		account.Password(), account.IncludeVOD(), account.CreatedAt(), account.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}

	return nil
}

// Get retrieves an account by ID, excluding soft-deleted accounts
func (r *AccountRepository) Get(id string) (*models.Account, error) {
	query := accountSelect + ` WHERE id = ? AND deleted_at IS NULL`

	account, err := r.scanOne(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrAccountNotFound, id)
	}

	return account, err
}

// GetByName retrieves an account by its friendly name, excluding soft-deleted accounts
func (r *AccountRepository) GetByName(name string) (*models.Account, error) {
	query := accountSelect + ` WHERE name = ? AND deleted_at IS NULL`

	account, err := r.scanOne(r.db.QueryRow(query, name))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrAccountNotFound, name)
	}

	return account, err
}

// Update modifies an existing account in the database
func (r *AccountRepository) Update(account *models.Account) error {
	if err := account.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	account.SetUpdatedAt(now)

	query := `
		UPDATE accounts
		SET name = ?, portal = ?, username = ?, password = ?, include_vod = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, account.Name(), account.Portal(), account.Username(),
		account.Password(), account.IncludeVOD(), now, account.ID())
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrAccountNotFound, account.ID())
	}

	return nil
}

// Delete soft-deletes an account by ID
func (r *AccountRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE accounts
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrAccountNotFound, id)
	}

	return nil
}

// List retrieves all accounts matching the given criteria, excluding soft-deleted accounts
func (r *AccountRepository) List(criteria map[string]any) ([]*models.Account, error) {
	query := accountSelect + ` WHERE deleted_at IS NULL`

	args := []any{}

	if name, ok := criteria["name"].(string); ok && name != "" {
		query += " AND name = ?"
		args = append(args, name)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return accounts, nil
}

const accountSelect = `
	SELECT id, sequence, name, portal, username, password, include_vod, created_at, updated_at, deleted_at
	FROM accounts
`

// scanOne scans a single row into a [models.Account]. A sql.ErrNoRows
// from the row is passed through for the caller to translate.
func (r *AccountRepository) scanOne(row *sql.Row) (*models.Account, error) {
	var (
		id         string
		sequence   int
		name       string
		portal     string
		username   string
		password   string
		includeVOD bool
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := row.Scan(&id, &sequence, &name, &portal, &username, &password, &includeVOD, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}

	return buildAccount(id, sequence, name, portal, username, password, includeVOD, createdAt, updatedAt, deletedAt), nil
}

// scanRow scans the current result set row into a [models.Account]
func (r *AccountRepository) scanRow(rows *sql.Rows) (*models.Account, error) {
	var (
		id         string
		sequence   int
		name       string
		portal     string
		username   string
		password   string
		includeVOD bool
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := rows.Scan(&id, &sequence, &name, &portal, &username, &password, &includeVOD, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}

	return buildAccount(id, sequence, name, portal, username, password, includeVOD, createdAt, updatedAt, deletedAt), nil
}

func buildAccount(id string, sequence int, name, portal, username, password string, includeVOD bool, createdAt, updatedAt time.Time, deletedAt sql.NullTime) *models.Account {
	account := models.NewAccount(sequence, name, portal, username, password)
	account.SetID(id)
	account.SetIncludeVOD(includeVOD)
	account.SetCreatedAt(createdAt)
	account.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		account.SetDeletedAt(&deletedAt.Time)
	}

	return account
}
