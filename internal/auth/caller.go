// Package auth issues and verifies access tokens and decides what a caller may do to a program.
package auth

import (
	"context"
	"errors"

	"budget-portal/internal/domain/user"
)

var ErrUnauthenticated = errors.New("authentication required")

// Caller is the authenticated actor behind a request.
type Caller struct {
	UserID string
	Name   string
	Role   user.Role
}

func (c Caller) Staff() bool { return c.Role.Staff() }

func CallerFromUser(u *user.User) Caller {
	return Caller{UserID: u.UserID, Name: u.Name, Role: u.Role}
}

type callerKey struct{}

func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok && c.UserID != ""
}
