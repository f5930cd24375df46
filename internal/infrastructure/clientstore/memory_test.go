package clientstore

import (
	"context"
	"sync"
	"testing"
)

func TestMemoryStoreAbsentKeyIsEmptyNotError(t *testing.T) {
	store := NewMemoryStore()

	value, err := store.Get(context.Background(), "never-set")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if value != "" {
		t.Fatalf("value = %q, want empty", value)
	}
}

func TestMemoryStoreSetGetDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Set(ctx, "k", "guest_1_a"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	value, err := store.Get(ctx, "k")
	if err != nil || value != "guest_1_a" {
		t.Fatalf("Get() = %q, %v", value, err)
	}

	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	value, _ = store.Get(ctx, "k")
	if value != "" {
		t.Fatalf("value after delete = %q", value)
	}
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				_ = store.Set(ctx, "shared", "v")
				_, _ = store.Get(ctx, "shared")
				_ = store.Delete(ctx, "shared")
			}
		}()
	}
	wg.Wait()
}
