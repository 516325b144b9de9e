package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saltmere/mud/internal/storage"
)

// CharacterRepository provides character persistence backed by pgx.
// It implements storage.CharacterStore.
type CharacterRepository struct {
	db *pgxpool.Pool
}

var _ storage.CharacterStore = (*CharacterRepository)(nil)

// NewCharacterRepository creates a CharacterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCharacterRepository(db *pgxpool.Pool) *CharacterRepository {
	return &CharacterRepository{db: db}
}

// Create inserts a new character and returns it with ID and timestamps set.
//
// Precondition: c.AccountID must reference an existing account; c.Name must be non-empty.
// Postcondition: Returns the created character with ID set, or
// storage.ErrNameTaken on a duplicate name for the account.
func (r *CharacterRepository) Create(ctx context.Context, c *storage.CharacterRecord) (*storage.CharacterRecord, error) {
	var out storage.CharacterRecord
	err := r.db.QueryRow(ctx, `
		INSERT INTO characters
			(account_id, name, location, max_hp, current_hp, max_stamina,
			 accuracy, dodging, weapon_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, account_id, name, location, max_hp, current_hp, max_stamina,
		          accuracy, dodging, weapon_id, created_at, updated_at`,
		c.AccountID, c.Name, c.Location, c.MaxHP, c.CurrentHP, c.MaxStamina,
		c.Accuracy, c.Dodging, c.WeaponID,
	).Scan(
		&out.ID, &out.AccountID, &out.Name, &out.Location,
		&out.MaxHP, &out.CurrentHP, &out.MaxStamina,
		&out.Accuracy, &out.Dodging, &out.WeaponID,
		&out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, storage.ErrNameTaken
		}
		return nil, fmt.Errorf("inserting character: %w", err)
	}
	return &out, nil
}

// ListByAccount returns all characters for the given account ID, ordered by created_at.
//
// Precondition: accountID must be > 0.
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *CharacterRepository) ListByAccount(ctx context.Context, accountID int64) ([]*storage.CharacterRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, account_id, name, location, max_hp, current_hp, max_stamina,
		       accuracy, dodging, weapon_id, created_at, updated_at
		FROM characters WHERE account_id = $1 ORDER BY created_at ASC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}
	defer rows.Close()

	chars := make([]*storage.CharacterRecord, 0)
	for rows.Next() {
		var c storage.CharacterRecord
		if err := rows.Scan(
			&c.ID, &c.AccountID, &c.Name, &c.Location,
			&c.MaxHP, &c.CurrentHP, &c.MaxStamina,
			&c.Accuracy, &c.Dodging, &c.WeaponID,
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning character row: %w", err)
		}
		chars = append(chars, &c)
	}
	return chars, rows.Err()
}

// GetByID retrieves a character by its primary key.
//
// Precondition: id must be > 0.
// Postcondition: Returns the record or storage.ErrNotFound.
func (r *CharacterRepository) GetByID(ctx context.Context, id int64) (*storage.CharacterRecord, error) {
	var c storage.CharacterRecord
	err := r.db.QueryRow(ctx, `
		SELECT id, account_id, name, location, max_hp, current_hp, max_stamina,
		       accuracy, dodging, weapon_id, created_at, updated_at
		FROM characters WHERE id = $1`,
		id,
	).Scan(
		&c.ID, &c.AccountID, &c.Name, &c.Location,
		&c.MaxHP, &c.CurrentHP, &c.MaxStamina,
		&c.Accuracy, &c.Dodging, &c.WeaponID,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("querying character: %w", err)
	}
	return &c, nil
}

// SaveState persists a character's location, HP, and equipped weapon after
// play.
//
// Precondition: upd.CharacterID must be > 0; upd.Location must be a valid room ID.
// Postcondition: Returns nil on success, storage.ErrNotFound if no row updated.
func (r *CharacterRepository) SaveState(ctx context.Context, upd storage.StateUpdate) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE characters
		SET location = $2, current_hp = $3, weapon_id = $4, updated_at = NOW()
		WHERE id = $1`,
		upd.CharacterID, upd.Location, upd.CurrentHP, upd.WeaponID,
	)
	if err != nil {
		return fmt.Errorf("saving character state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
