package actor

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const identitySeparator = ":"

var ErrInvalidIdentity = errors.New("invalid actor identity")

// Identity addresses one logical actor: the type code of its actor type
// and an id unique within that type.
type Identity struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

func NewIdentity(typ, id string) Identity {
	return Identity{Type: typ, ID: id}
}

// ParseIdentity parses the "type:id" form produced by String.
func ParseIdentity(s string) (Identity, error) {
	typ, id, ok := strings.Cut(s, identitySeparator)
	if !ok || typ == "" || id == "" {
		return Identity{}, fmt.Errorf("%w: %q", ErrInvalidIdentity, s)
	}
	return Identity{Type: typ, ID: id}, nil
}

func (i Identity) String() string { return i.Type + identitySeparator + i.ID }

func (i Identity) IsZero() bool { return i.Type == "" && i.ID == "" }

type turnKey struct{}

// WithTurn marks ctx as running inside a turn of id.
func WithTurn(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, turnKey{}, id)
}

// TurnOf returns the identity whose turn ctx belongs to.
func TurnOf(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(turnKey{}).(Identity)
	return id, ok
}
