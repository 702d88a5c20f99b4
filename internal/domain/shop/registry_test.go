package shop

import (
	"errors"
	"testing"

	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/identity"
)

func TestRegistryRegisterAndList(t *testing.T) {
	r := NewRegistry()
	alice := identity.Identity("alice")

	s1, err := New(alice, "s1", "Corner", "Taipei")
	if err != nil {
		t.Fatal(err)
	}
	s2, _ := New(alice, "s2", "Harbor", "Keelung")
	if err := r.Register(s1); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(s2); err != nil {
		t.Fatal(err)
	}

	got := r.ListByOwner(alice)
	if len(got) != 2 || got[0].ID != "s1" || got[1].ID != "s2" {
		t.Fatalf("unexpected shops: %+v", got)
	}
}

func TestRegistryDuplicateID(t *testing.T) {
	r := NewRegistry()
	s, _ := New("alice", "s1", "Corner", "Taipei")
	if err := r.Register(s); err != nil {
		t.Fatal(err)
	}
	other, _ := New("bob", "s1", "Copy", "Tainan")
	if err := r.Register(other); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("want ErrDuplicateID, got %v", err)
	}
	if r.Len() != 1 {
		t.Fatalf("want 1 shop, got %d", r.Len())
	}
	if got := r.ListByOwner("bob"); len(got) != 0 {
		t.Fatalf("rejected shop leaked into owner index: %+v", got)
	}
	kept, err := r.Get("s1")
	if err != nil || kept.Owner != "alice" {
		t.Fatalf("original shop replaced: %+v (%v)", kept, err)
	}
}

func TestRegistryUnknownOwnerIsEmpty(t *testing.T) {
	r := NewRegistry()
	got := r.ListByOwner("nobody")
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", got)
	}
	if _, err := r.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New("alice", "  ", "n", "l"); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("want ErrInvalidID, got %v", err)
	}
	if _, err := New("", "s1", "n", "l"); !errors.Is(err, ErrInvalidOwner) {
		t.Fatalf("want ErrInvalidOwner, got %v", err)
	}
}
