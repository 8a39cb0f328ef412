package domain

import "github.com/google/uuid"

type Role string

const (
	RoleUser      Role = "USER"
	RoleModerator Role = "MODERATOR"
	RoleAdmin     Role = "ADMIN"
)

// CanModerate reports whether the role may delete other users' content.
func (r Role) CanModerate() bool {
	return r == RoleModerator || r == RoleAdmin
}

// Principal is the decoded identity of an authenticated caller. Tokens are
// issued elsewhere; this service only consumes them.
type Principal struct {
	ID          uuid.UUID `json:"id"`
	Role        Role      `json:"role"`
	DisplayName string    `json:"display_name"`
}
