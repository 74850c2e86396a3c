package model

import "time"

// User is an account that can log in with email and password.  IsStaff is
// the only distinction between regular users and administrators.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email (lower-cased, unique)
    PasswordHash string    // users.password_hash (bcrypt)
    IsStaff      bool      // users.is_staff
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}
