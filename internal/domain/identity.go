package domain

// Identity is the owner key for carts and slot holds: either an
// authenticated user id or an anonymous session id, never both.
type Identity struct {
	UserID    *string
	SessionID *string
}

// UserIdentity builds an Identity for an authenticated user.
func UserIdentity(userID string) Identity {
	return Identity{UserID: &userID}
}

// SessionIdentity builds an Identity for an anonymous session.
func SessionIdentity(sessionID string) Identity {
	return Identity{SessionID: &sessionID}
}

// Valid reports whether exactly one side of the union is set.
func (i Identity) Valid() bool {
	return (i.UserID != nil) != (i.SessionID != nil)
}

// Equal reports whether two identities refer to the same owner.
func (i Identity) Equal(other Identity) bool {
	switch {
	case i.UserID != nil && other.UserID != nil:
		return *i.UserID == *other.UserID
	case i.SessionID != nil && other.SessionID != nil:
		return *i.SessionID == *other.SessionID
	default:
		return false
	}
}

func (i Identity) String() string {
	switch {
	case i.UserID != nil:
		return "user:" + *i.UserID
	case i.SessionID != nil:
		return "session:" + *i.SessionID
	default:
		return "identity:unset"
	}
}
