// Package storage defines the persistence surface of the game runtime.
// The runtime only sees these interfaces; the postgres subpackage provides
// the production implementation.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup yields no rows.
var ErrNotFound = errors.New("storage: not found")

// ErrNameTaken is returned when creating a character with a name already
// used by the account.
var ErrNameTaken = errors.New("storage: character name already taken")

// CharacterRecord is the persisted shape of a player character.
type CharacterRecord struct {
	ID         int64
	AccountID  int64
	Name       string
	Location   string
	MaxHP      int
	CurrentHP  int
	MaxStamina int
	Accuracy   int
	Dodging    int
	// WeaponID is the equipped weapon's gear ID; empty means unarmed.
	WeaponID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StateUpdate carries the mutable fields saved back after play.
type StateUpdate struct {
	CharacterID int64
	Location    string
	CurrentHP   int
	WeaponID    string
}

// CharacterStore provides character persistence.
type CharacterStore interface {
	Create(ctx context.Context, c *CharacterRecord) (*CharacterRecord, error)
	GetByID(ctx context.Context, id int64) (*CharacterRecord, error)
	ListByAccount(ctx context.Context, accountID int64) ([]*CharacterRecord, error)
	SaveState(ctx context.Context, upd StateUpdate) error
}

// AccountValidator authenticates a login attempt. The account system itself
// lives outside this runtime; the server only consumes this interface.
type AccountValidator interface {
	// Validate returns the account ID and role for valid credentials, or an
	// error for unknown or rejected logins.
	Validate(ctx context.Context, username, password string) (accountID int64, role string, err error)
}
