package auth

import "time"

// Account represents a registered user. The username is the immutable key
// and doubles as the name of the user's folder on the storage provider.
type Account struct {
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// SafeAccount strips the credential hash for response payloads.
func (a Account) SafeAccount() Account {
	a.PasswordHash = ""
	return a
}
