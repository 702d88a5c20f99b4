package shop

import "github.com/Zhima-Mochi/minishop-ledger/internal/domain/identity"

// Registry indexes shops by id and by owner. It is not safe for concurrent use;
// repositories serialize access to it.
type Registry struct {
	byID    map[string]Shop
	byOwner map[identity.Identity][]string
}

func NewRegistry() *Registry {
	return &Registry{
		byID:    make(map[string]Shop),
		byOwner: make(map[identity.Identity][]string),
	}
}

func (r *Registry) Register(s Shop) error {
	if s.ID == "" {
		return ErrInvalidID
	}
	if s.Owner.IsZero() {
		return ErrInvalidOwner
	}
	if _, exists := r.byID[s.ID]; exists {
		return ErrDuplicateID
	}
	r.byID[s.ID] = s
	r.byOwner[s.Owner] = append(r.byOwner[s.Owner], s.ID)
	return nil
}

func (r *Registry) Get(id string) (Shop, error) {
	s, ok := r.byID[id]
	if !ok {
		return Shop{}, ErrNotFound
	}
	return s, nil
}

// ListByOwner returns the owner's shops in registration order, or an empty slice.
func (r *Registry) ListByOwner(owner identity.Identity) []Shop {
	ids := r.byOwner[owner]
	out := make([]Shop, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.byID[id])
	}
	return out
}

func (r *Registry) Len() int { return len(r.byID) }
