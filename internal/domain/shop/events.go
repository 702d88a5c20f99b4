package shop

import "time"

// RegisteredEvent is emitted after a shop is committed to the registry.
type RegisteredEvent struct {
	ShopID     string
	Owner      string
	OccurredAt time.Time
}

func (RegisteredEvent) EventName() string { return "shop.registered" }

func NewRegisteredEvent(s Shop) RegisteredEvent {
	return RegisteredEvent{
		ShopID:     s.ID,
		Owner:      s.Owner.String(),
		OccurredAt: time.Now().UTC(),
	}
}
