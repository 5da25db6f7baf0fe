package models

// RoleType defines the caller role carried in the access token
type RoleType string

const (
	RoleStudent       RoleType = "STUDENT"
	RoleAdministrator RoleType = "ADMINISTRATOR"
)

// IsAdministrator reports whether the role may manage offerings and enrollment states.
func (r RoleType) IsAdministrator() bool {
	return r == RoleAdministrator
}
