package stdio

import (
	"os/user"
)

// UserProvider supplies the user ID associated with the stdio peer. The
// transport carries no credentials; the ID only scopes the session and the
// logs.
type UserProvider interface {
	CurrentUserID() (string, error)
}

// OSUserProvider resolves the user ID from the operating system's current
// user, preferring the username over the numeric uid.
type OSUserProvider struct{}

func (OSUserProvider) CurrentUserID() (string, error) {
	u, err := user.Current()
	if err != nil {
		return "", err
	}
	if u.Username != "" {
		return u.Username, nil
	}
	return u.Uid, nil
}

// StaticUserProvider returns a fixed user ID. Useful in tests and in
// embeddings where the host application already knows its principal.
type StaticUserProvider string

func (p StaticUserProvider) CurrentUserID() (string, error) {
	return string(p), nil
}
