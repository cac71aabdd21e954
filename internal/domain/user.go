package domain

import "time"

// Role is the access level of a staff account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

var roleLevels = map[Role]int{
	RoleUser:  1,
	RoleAdmin: 2,
}

// IsValid checks if the role is known.
func (r Role) IsValid() bool {
	_, ok := roleLevels[r]
	return ok
}

// HasPermission reports whether r grants at least the access of required.
func (r Role) HasPermission(required Role) bool {
	return roleLevels[r] > 0 && roleLevels[r] >= roleLevels[required]
}

// User is a staff account allowed into the dashboard.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Claims is the identity payload carried by a session token.
type Claims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// ClaimsFor builds session claims for the user.
func ClaimsFor(u *User) Claims {
	return Claims{UserID: u.ID, Email: u.Email, Role: u.Role}
}
