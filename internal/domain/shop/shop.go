package shop

import (
	"errors"
	"strings"

	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/identity"
)

var (
	ErrNotFound     = errors.New("shop: not found")
	ErrDuplicateID  = errors.New("shop: id already registered")
	ErrInvalidID    = errors.New("shop: id is required")
	ErrInvalidOwner = errors.New("shop: owner is required")
)

// Shop is immutable once registered.
type Shop struct {
	ID       string
	Name     string
	Location string
	Owner    identity.Identity
}

func New(owner identity.Identity, id, name, location string) (Shop, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Shop{}, ErrInvalidID
	}
	if owner.IsZero() {
		return Shop{}, ErrInvalidOwner
	}
	return Shop{
		ID:       id,
		Name:     name,
		Location: location,
		Owner:    owner,
	}, nil
}
