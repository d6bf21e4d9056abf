package models

import "github.com/google/uuid"

// User is a login record. Guests carry only a display name and disappear
// on logout; registered users have an argon2id password hash and survive
// restarts when the pgx store is configured.
type User struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Password    string    `json:"-"`
	IsGuest     bool      `json:"is_guest"`
}
