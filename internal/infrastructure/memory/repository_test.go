package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/identity"
	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/money"
	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/shop"
	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/wallet"
)

func mustListing(t *testing.T, shopID, id string, price, supply uint64, owner identity.Identity) product.Record {
	t.Helper()
	rec, err := product.NewListing(shopID, id, "Widget", "tools", money.FromUint64(price), supply, owner)
	if err != nil {
		t.Fatal(err)
	}
	return rec
}

func TestProductRepositoryConcurrentPurchasesConserveSupply(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository()
	if err := repo.Insert(ctx, mustListing(t, "s1", "p1", 1, 50, "A")); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	failures := 0
	for i := 0; i < 80; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Purchase(ctx, product.Order{ProductID: "p1", Quantity: 1, Buyer: "B", Funds: money.FromUint64(1)})
			if err != nil {
				if !errors.Is(err, product.ErrInsufficientStock) {
					t.Errorf("unexpected error: %v", err)
				}
				mu.Lock()
				failures++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if failures != 30 {
		t.Fatalf("want 30 rejected purchases, got %d", failures)
	}
	listing, err := repo.Get(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if listing.RemainingSupply != 0 {
		t.Fatalf("want drained listing, got %d", listing.RemainingSupply)
	}
	holdings, _ := repo.ListByOwner(ctx, "B")
	var held uint64
	seen := map[string]bool{}
	for _, h := range holdings {
		held += h.RemainingSupply
		if seen[h.ID] {
			t.Fatalf("duplicate holding id %s", h.ID)
		}
		seen[h.ID] = true
	}
	if held != 50 {
		t.Fatalf("conservation broken: holdings sum to %d", held)
	}
}

func TestProductRepositoryRespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	repo := NewProductRepository()
	if _, err := repo.Purchase(ctx, product.Order{ProductID: "p1", Quantity: 1, Buyer: "B"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestShopRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewShopRepository()

	s, err := shop.New("A", "s1", "Corner", "Main St")
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Insert(ctx, s); err != nil {
		t.Fatal(err)
	}
	if err := repo.Insert(ctx, s); !errors.Is(err, shop.ErrDuplicateID) {
		t.Fatalf("want ErrDuplicateID, got %v", err)
	}
	got, err := repo.Get(ctx, "s1")
	if err != nil || got != s {
		t.Fatalf("get: %+v %v", got, err)
	}
	none, err := repo.ListByOwner(ctx, "nobody")
	if err != nil || none == nil || len(none) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v %v", none, err)
	}
}

func TestWalletRepositoryTransfer(t *testing.T) {
	ctx := context.Background()
	w := NewWalletRepository()

	if _, err := w.Credit(ctx, "B", money.FromUint64(100)); err != nil {
		t.Fatal(err)
	}
	if err := w.Transfer(ctx, "B", "A", money.FromUint64(30)); err != nil {
		t.Fatal(err)
	}
	if b, _ := w.AvailableFunds(ctx, "B"); !b.Equal(money.FromUint64(70)) {
		t.Fatalf("payer balance %s", b)
	}
	if a, _ := w.Balance(ctx, "A"); !a.Equal(money.FromUint64(30)) {
		t.Fatalf("payee balance %s", a)
	}

	err := w.Transfer(ctx, "B", "A", money.FromUint64(71))
	if !errors.Is(err, wallet.ErrInsufficientBalance) {
		t.Fatalf("want ErrInsufficientBalance, got %v", err)
	}
	if b, _ := w.Balance(ctx, "B"); !b.Equal(money.FromUint64(70)) {
		t.Fatalf("failed transfer changed payer balance: %s", b)
	}

	if _, err := w.Credit(ctx, "B", money.Zero); !errors.Is(err, wallet.ErrInvalidAmount) {
		t.Fatalf("want ErrInvalidAmount, got %v", err)
	}
	if _, err := w.Credit(ctx, "A", money.Max); !errors.Is(err, money.ErrOverflow) {
		t.Fatalf("want ErrOverflow, got %v", err)
	}
}

func TestWalletRepositoryHolds(t *testing.T) {
	ctx := context.Background()
	w := NewWalletRepository()
	if _, err := w.Credit(ctx, "B", money.FromUint64(100)); err != nil {
		t.Fatal(err)
	}

	if err := w.Hold(ctx, "B", money.FromUint64(60)); err != nil {
		t.Fatal(err)
	}
	if err := w.Hold(ctx, "B", money.FromUint64(60)); !errors.Is(err, wallet.ErrInsufficientBalance) {
		t.Fatalf("want ErrInsufficientBalance for the second hold, got %v", err)
	}
	if a, _ := w.AvailableFunds(ctx, "B"); !a.Equal(money.FromUint64(40)) {
		t.Fatalf("available %s", a)
	}
	if b, _ := w.Balance(ctx, "B"); !b.Equal(money.FromUint64(100)) {
		t.Fatalf("a hold must not move the balance, got %s", b)
	}

	if err := w.Transfer(ctx, "B", "A", money.FromUint64(60)); err != nil {
		t.Fatal(err)
	}
	if a, _ := w.AvailableFunds(ctx, "B"); !a.Equal(money.FromUint64(40)) {
		t.Fatalf("settling the hold should leave 40 available, got %s", a)
	}
	if err := w.Release(ctx, "B", money.FromUint64(1)); !errors.Is(err, wallet.ErrNoHold) {
		t.Fatalf("want ErrNoHold after settlement, got %v", err)
	}

	if err := w.Hold(ctx, "B", money.FromUint64(40)); err != nil {
		t.Fatal(err)
	}
	if err := w.Release(ctx, "B", money.FromUint64(40)); err != nil {
		t.Fatal(err)
	}
	if a, _ := w.AvailableFunds(ctx, "B"); !a.Equal(money.FromUint64(40)) {
		t.Fatalf("release should restore availability, got %s", a)
	}
	if err := w.Hold(ctx, "", money.FromUint64(1)); !errors.Is(err, wallet.ErrInvalidOwner) {
		t.Fatalf("want ErrInvalidOwner, got %v", err)
	}
}
