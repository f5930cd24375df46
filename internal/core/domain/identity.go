package domain

import (
	"errors"
	"strings"
	"time"
)

type Role string

const (
	RoleUser   Role = "user"
	RoleDoctor Role = "doctor"
	RoleAdmin  Role = "admin"
)

func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleUser:
		return RoleUser, nil
	case RoleDoctor:
		return RoleDoctor, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", WrapError(ErrInvalidInput, "parse role", errors.New("unknown role: "+raw))
	}
}

// CanReview gates the doctor-confirmation transition.
func (r Role) CanReview() bool {
	return r == RoleDoctor || r == RoleAdmin
}

// CanManageIdentities gates role mutation and unrestricted deletion.
func (r Role) CanManageIdentities() bool {
	return r == RoleAdmin
}

// Identity is either an authenticated account or a generated guest
// pseudo-identity. Guests are distinguishable purely by id shape.
type Identity struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (i Identity) IsGuest() bool {
	return IsGuestID(i.ID)
}

// GuestIDPrefix namespaces guest ids apart from account ids, which are
// uuids and can never start with it.
const GuestIDPrefix = "guest_"

func IsGuestID(id string) bool {
	return strings.HasPrefix(id, GuestIDPrefix)
}

// DisplayName renders an owner for UI surfaces that must not show raw ids.
func DisplayName(id, name string) string {
	if id == "" {
		return "Unknown"
	}
	if IsGuestID(id) {
		return "Guest User"
	}
	if name != "" {
		return name
	}
	return "User"
}
