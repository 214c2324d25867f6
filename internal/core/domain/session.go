package domain

import "time"

// Session is the single source of truth for "who is acting". Every permission
// decision in the system goes through its predicate methods; handlers and
// services never compare role strings inline.
type Session struct {
	ID        string    `json:"id"`
	User      *User     `json:"user"`
	Token     string    `json:"-"`
	IsGuest   bool      `json:"is_guest"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// guest reports whether the session carries no mutating authority. A user
// record with role=guest is guest regardless of the IsGuest flag.
func (s *Session) guest() bool {
	return s.IsGuest || (s.User != nil && s.User.Role == RoleGuest)
}

// HasRole reports whether the session satisfies the required role.
// Admin satisfies every requirement; other roles require an exact match.
func (s *Session) HasRole(required Role) bool {
	if s == nil || s.User == nil {
		return false
	}
	if s.User.Role == RoleAdmin {
		return true
	}
	return s.User.Role == required
}

// IsOwner reports whether the session's user owns the resource.
func (s *Session) IsOwner(resourceOwnerID string) bool {
	return s != nil && s.User != nil && s.User.ID == resourceOwnerID
}

// CanEdit reports whether the session may mutate a resource owned by
// resourceOwnerID: admin always, otherwise the non-guest owner.
func (s *Session) CanEdit(resourceOwnerID string) bool {
	if s == nil || s.User == nil || s.guest() {
		return false
	}
	if s.User.Role == RoleAdmin {
		return true
	}
	return s.User.ID == resourceOwnerID
}

// CanDelete follows the same law as CanEdit.
func (s *Session) CanDelete(resourceOwnerID string) bool {
	return s.CanEdit(resourceOwnerID)
}

// CanCreate reports whether the session may create new resources.
// Viewers and guests are read-only.
func (s *Session) CanCreate() bool {
	if s == nil || s.User == nil || s.guest() {
		return false
	}
	return s.User.Role == RoleAdmin || s.User.Role == RoleUser
}
