package user

import "time"

// User is a school member created by the bulk import. The identifier is
// generated client-side before insertion so role assignments can be built in
// the same pass. PasswordHash holds the bcrypt hash of the temporary secret;
// the plaintext is never persisted.
type User struct {
	ID           string
	SchoolID     string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RoleAssignment links one user to one role. Created alongside the user rows
// in the same persistence phase; there are no update semantics.
type RoleAssignment struct {
	UserID string
	RoleID string
}
