package auth

// Identity is who a session belongs to: either the administrator or a
// registered user. The administrator has no user row and owns no expenses.
type Identity struct {
	admin  bool
	userID int64
	email  string
}

// Admin returns the administrator identity.
func Admin(email string) Identity {
	return Identity{admin: true, email: email}
}

// Member returns the identity of the registered user with the given id.
func Member(userID int64, email string) Identity {
	return Identity{userID: userID, email: email}
}

// IsZero reports whether i is the empty identity (nobody logged in).
func (i Identity) IsZero() bool {
	return !i.admin && i.userID == 0
}

// IsAdmin reports whether i is the administrator.
func (i Identity) IsAdmin() bool {
	return i.admin
}

// UserID returns the user id, and false for the administrator or the zero
// identity.
func (i Identity) UserID() (int64, bool) {
	if i.admin || i.userID == 0 {
		return 0, false
	}
	return i.userID, true
}

// Email returns the email the identity logged in with.
func (i Identity) Email() string {
	return i.email
}

// Owns reports whether i may mutate a record owned by ownerID.
func (i Identity) Owns(ownerID int64) bool {
	id, ok := i.UserID()
	return ok && id == ownerID
}
