// Package auth resolves who is practicing. The CLI takes the user from a
// flag or the environment; the HTTP API takes it from a bearer token.
package auth

import (
	"context"
	"strings"
	"sync"
)

// AdvisoryMessage is shown once to anonymous users.
const AdvisoryMessage = "You're not signed in, so progress tracking is disabled."

// Identity is the current user. The zero value is anonymous.
type Identity struct {
	UserID string
}

// Anonymous returns the identity used when nobody is signed in.
func Anonymous() Identity { return Identity{} }

// User returns an identity for userID. Blank IDs are anonymous.
func User(userID string) Identity {
	return Identity{UserID: strings.TrimSpace(userID)}
}

// IsAnonymous reports whether no user is attached.
func (i Identity) IsAnonymous() bool { return i.UserID == "" }

type ctxKey struct{}

// WithIdentity attaches id to ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity attached to ctx, or Anonymous.
func FromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(ctxKey{}).(Identity); ok {
		return id
	}
	return Anonymous()
}

// Advisory hands out the anonymous-user notice at most once.
type Advisory struct {
	once sync.Once
}

// Take returns the advisory message the first time it is called and ""
// afterwards. A nil Advisory never yields a message.
func (a *Advisory) Take() string {
	if a == nil {
		return ""
	}
	msg := ""
	a.once.Do(func() { msg = AdvisoryMessage })
	return msg
}
