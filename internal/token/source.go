// Package token supplies the bearer credential for delivery cycles.
// The auth service is an external collaborator: when it cannot produce a
// token the flush cycle aborts cleanly and tries again on the next trigger.
package token

import (
	"context"
	"errors"
)

// Source yields a bearer credential for one flush cycle.
type Source interface {
	Token(ctx context.Context) (string, error)
}

// Static is a fixed credential, typically injected via environment.
type Static string

func (s Static) Token(context.Context) (string, error) {
	if s == "" {
		return "", errors.New("no credential configured")
	}
	return string(s), nil
}
