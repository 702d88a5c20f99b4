package settlement

import (
	"context"
	"fmt"

	domoutbox "github.com/Zhima-Mochi/minishop-ledger/internal/domain/outbox"
	domain "github.com/Zhima-Mochi/minishop-ledger/internal/domain/settlement"
)

// BusSink hands instructions to in-process subscribers as settlement.requested events.
type BusSink struct {
	pub domoutbox.Publisher
}

func NewBusSink(pub domoutbox.Publisher) *BusSink {
	return &BusSink{pub: pub}
}

func (s *BusSink) Settle(ctx context.Context, in domain.Instruction) error {
	if err := s.pub.Publish(ctx, domain.NewRequestedEvent(in)); err != nil {
		return fmt.Errorf("settlement %s: publish: %w", in.Reference, err)
	}
	return nil
}
