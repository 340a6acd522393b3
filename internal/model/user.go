package model

import "time"

// Roles carried in the access token's "role" claim.
const (
	RoleOwner    = "OWNER"
	RoleCustomer = "CUSTOMER"
)

// User represents an account as stored in the `users` table.  Owners edit
// their own seating plan; the owner's ID is also the venue ID customers book
// against.
//
// Fields:
//  ID           – uuid primary key.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hash.
//  Role         – OWNER or CUSTOMER.
//  IsActive     – whether the account may sign in.
type User struct {
	ID           string    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
