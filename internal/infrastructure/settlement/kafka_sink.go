package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	domain "github.com/Zhima-Mochi/minishop-ledger/internal/domain/settlement"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes instructions to an external settlement ledger. Messages are keyed
// by payer so one buyer's settlements stay ordered within a partition.
type KafkaSink struct {
	w          messageWriter
	propagator propagation.TextMapPropagator
}

// NewKafkaWriter builds a low-latency writer for the settlement topic.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}
}

func NewKafkaSink(w messageWriter) *KafkaSink {
	return &KafkaSink{w: w, propagator: otel.GetTextMapPropagator()}
}

// message is the wire form of an instruction.
type message struct {
	Type       string             `json:"type"`
	Instr      domain.Instruction `json:"instruction"`
	OccurredAt time.Time          `json:"occurred_at"`
}

func (s *KafkaSink) Settle(ctx context.Context, in domain.Instruction) error {
	ev := domain.NewRequestedEvent(in)
	payload, err := json.Marshal(message{Type: ev.EventName(), Instr: in, OccurredAt: ev.OccurredAt})
	if err != nil {
		return fmt.Errorf("settlement %s: encode: %w", in.Reference, err)
	}

	carrier := propagation.MapCarrier{}
	s.propagator.Inject(ctx, carrier)
	headers := make([]kafka.Header, 0, len(carrier))
	for k, v := range carrier {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	msg := kafka.Message{
		Key:     []byte(in.Payer.String()),
		Value:   payload,
		Headers: headers,
	}
	if err := s.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("settlement %s: kafka write: %w", in.Reference, err)
	}
	return nil
}

func (s *KafkaSink) Close() error { return s.w.Close() }
