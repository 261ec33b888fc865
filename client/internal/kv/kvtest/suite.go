// Package kvtest is a compliance suite shared by the kv backends.
package kvtest

import (
	"context"
	"testing"

	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/kv"
)

// Run exercises get/set/remove semantics against a fresh, isolated store
// returned by makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) kv.Store) {
	t.Helper()
	ctx := context.Background()
	s := makeStore(t)

	if _, ok, err := s.Get(ctx, "@maison/user"); err != nil || ok {
		t.Fatalf("Get absent: ok=%v err=%v", ok, err)
	}

	blob := `{"id":"1","name":"Marie Dupont","email":"marie@example.fr"}`
	if err := s.Set(ctx, "@maison/user", blob); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, ok, err := s.Get(ctx, "@maison/user"); err != nil || !ok || got != blob {
		t.Fatalf("Get after Set: got=%q ok=%v err=%v", got, ok, err)
	}

	// Overwrite replaces the whole blob.
	if err := s.Set(ctx, "@maison/user", "[]"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	if got, _, _ := s.Get(ctx, "@maison/user"); got != "[]" {
		t.Fatalf("Get after overwrite: got=%q", got)
	}

	// Keys are independent.
	if err := s.Set(ctx, "@maison/support_tickets", "[1]"); err != nil {
		t.Fatalf("Set second key: %v", err)
	}
	if err := s.Remove(ctx, "@maison/user"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok, err := s.Get(ctx, "@maison/user"); err != nil || ok {
		t.Fatalf("Get after Remove: ok=%v err=%v", ok, err)
	}
	if got, ok, _ := s.Get(ctx, "@maison/support_tickets"); !ok || got != "[1]" {
		t.Fatalf("unrelated key affected: got=%q ok=%v", got, ok)
	}

	// Removing an absent key is not an error.
	if err := s.Remove(ctx, "@maison/never-set"); err != nil {
		t.Fatalf("Remove absent: %v", err)
	}

	// Empty values round-trip as present.
	if err := s.Set(ctx, "@maison/empty", ""); err != nil {
		t.Fatalf("Set empty: %v", err)
	}
	if got, ok, err := s.Get(ctx, "@maison/empty"); err != nil || !ok || got != "" {
		t.Fatalf("Get empty: got=%q ok=%v err=%v", got, ok, err)
	}
}
