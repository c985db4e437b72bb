package domain

import "time"

// Role tags a user with its marketplace capability.
type Role int16

const (
	RoleOwner   Role = 0
	RoleWalker  Role = 1
	RoleGroomer Role = 2
	RoleVet     Role = 3
	RoleAdmin   Role = 4
	RoleBanned  Role = 5
)

// IsProvider reports whether the role offers a service (walker, groomer, vet).
func (r Role) IsProvider() bool {
	return r == RoleWalker || r == RoleGroomer || r == RoleVet
}

// ProviderType returns the availability-slot label for a provider role.
func (r Role) ProviderType() string {
	switch r {
	case RoleWalker:
		return "walker"
	case RoleGroomer:
		return "groomer"
	case RoleVet:
		return "vet"
	default:
		return ""
	}
}

// User is the principal entity. AverageRating is derived state maintained
// incrementally on every new review; nil until the first review arrives.
type User struct {
	ID            int64
	Username      string
	FullName      string
	Email         string
	Phone         *string
	Address       string
	Role          Role
	AverageRating *float32
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
