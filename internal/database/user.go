package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/domtes/chemmazz/internal/auth"
	"github.com/domtes/chemmazz/internal/models"
)

// CreateUser hashes the password and inserts the user. A nil ID is
// generated in place.
func CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate user id: %w", err)
		}
		user.ID = id
	}

	hash, err := auth.CreateHash(user.Password, auth.Params)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = hash

	q := `INSERT INTO users (id, display_name, password, is_guest)
	      VALUES ($1, $2, $3, $4)`

	err = pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q, user.ID, user.DisplayName, user.Password, user.IsGuest)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUserByDisplayName looks a user up by their unique display name.
func GetUserByDisplayName(ctx context.Context, displayName string) (*models.User, error) {
	var u models.User
	q := `SELECT id, display_name, password, is_guest FROM users WHERE display_name=$1`
	err := DB.QueryRow(ctx, q, displayName).Scan(&u.ID, &u.DisplayName, &u.Password, &u.IsGuest)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	q := `SELECT id, display_name, password, is_guest FROM users WHERE id=$1`
	err := DB.QueryRow(ctx, q, id).Scan(&u.ID, &u.DisplayName, &u.Password, &u.IsGuest)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
