package settlement

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/identity"
	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/money"
)

// Instruction asks the external payment collaborator to move Amount from Payer to Payee.
// Reference identifies the purchase that produced it.
type Instruction struct {
	Payer     identity.Identity `json:"payer"`
	Payee     identity.Identity `json:"payee"`
	Amount    money.Amount      `json:"amount"`
	Reference string            `json:"reference"`
}

// Sink is the outbound port that receives settlement instructions after a purchase commits.
type Sink interface {
	Settle(ctx context.Context, in Instruction) error
}

// RequestedEvent carries an instruction over the in-process event bus.
type RequestedEvent struct {
	Instruction Instruction
	OccurredAt  time.Time
}

func (RequestedEvent) EventName() string { return "settlement.requested" }

func NewRequestedEvent(in Instruction) RequestedEvent {
	return RequestedEvent{
		Instruction: in,
		OccurredAt:  time.Now().UTC(),
	}
}
