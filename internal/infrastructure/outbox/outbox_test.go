package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-ledger/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-ledger/internal/observability"
)

type pinged struct{ n int }

func (pinged) EventName() string { return "test.pinged" }

func TestBusDeliversInOrderAndDrainsOnStop(t *testing.T) {
	bus := NewBus(nil, observability.Nop(), WithConcurrency(1))

	var mu sync.Mutex
	var got []int
	bus.Subscribe("test.pinged", func(_ context.Context, e domoutbox.Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e.(pinged).n)
		return nil
	})

	ctx := context.Background()
	bus.Start(ctx)
	for i := 1; i <= 5; i++ {
		if err := bus.Publish(ctx, pinged{n: i}); err != nil {
			t.Fatal(err)
		}
	}

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	bus.Stop(stopCtx)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 5 {
		t.Fatalf("want 5 deliveries, got %v", got)
	}
	for i, n := range got {
		if n != i+1 {
			t.Fatalf("out of order delivery: %v", got)
		}
	}
}

func TestBusRejectsAfterStop(t *testing.T) {
	bus := NewBus(nil, nil)
	ctx := context.Background()
	bus.Start(ctx)
	bus.Stop(ctx)
	bus.Stop(ctx)

	if err := bus.Publish(ctx, pinged{}); !errors.Is(err, domoutbox.ErrClosed) {
		t.Fatalf("want ErrClosed, got %v", err)
	}
}

func TestBusSurvivesHandlerPanicAndError(t *testing.T) {
	bus := NewBus(nil, nil)
	delivered := make(chan struct{}, 1)
	bus.Subscribe("test.pinged", func(context.Context, domoutbox.Event) error { panic("boom") })
	bus.Subscribe("test.pinged", func(context.Context, domoutbox.Event) error { return errors.New("nope") })
	bus.Subscribe("test.pinged", func(context.Context, domoutbox.Event) error {
		delivered <- struct{}{}
		return nil
	})

	ctx := context.Background()
	bus.Start(ctx)
	defer bus.Stop(ctx)

	if err := bus.Publish(ctx, pinged{}); err != nil {
		t.Fatal(err)
	}
	select {
	case <-delivered:
	case <-time.After(5 * time.Second):
		t.Fatal("healthy handler was not invoked")
	}
}
