package models

import "time"

// UserRole соответствует ENUM user_role в БД.
type UserRole string

const (
	RoleDeveloper UserRole = "Developer"
	RoleOrganiser UserRole = "Organiser"
)

type User struct {
	ID           int        `json:"id" db:"id"`
	FirstName    string     `json:"firstName" db:"first_name"`
	LastName     string     `json:"lastName" db:"last_name"`
	Email        string     `json:"email" db:"email"`
	Role         UserRole   `json:"role" db:"role"`
	Gender       *string    `json:"gender,omitempty" db:"gender"`
	DateOfBirth  *time.Time `json:"date_of_birth,omitempty" db:"date_of_birth"`
	PasswordHash string     `json:"-" db:"password_hash"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
