package models

import "time"

// User is a registered account as held by the credential store.
// PasswordHash never leaves the store/hasher boundary; use Profile for
// anything that is shown to a caller.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Profile is the display projection of a User, without the password hash.
type Profile struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}

// Profile returns the display projection of u.
func (u *User) Profile() *Profile {
	return &Profile{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
