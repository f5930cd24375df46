package guest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nattawat-k/fracture-triage/internal/core/domain"
)

type storeFake struct {
	mu     sync.Mutex
	kv     map[string]string
	getErr error
	setErr error
}

func newStoreFake() *storeFake {
	return &storeFake{kv: make(map[string]string)}
}

func (s *storeFake) Get(_ context.Context, key string) (string, error) {
	if s.getErr != nil {
		return "", s.getErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kv[key], nil
}

func (s *storeFake) Set(_ context.Context, key, value string) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = value
	return nil
}

func (s *storeFake) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.kv, key)
	return nil
}

func TestResolveMintsOnceAndIsStable(t *testing.T) {
	r := NewResolver(newStoreFake())

	first, err := r.Resolve(context.Background(), "client-abc")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !domain.IsGuestID(first.ID) {
		t.Fatalf("minted id %q lacks guest shape", first.ID)
	}
	if first.Role != domain.RoleUser {
		t.Fatalf("role = %s, want user", first.Role)
	}

	for range 3 {
		again, err := r.Resolve(context.Background(), "client-abc")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if again.ID != first.ID {
			t.Fatalf("resolution not stable: %q then %q", first.ID, again.ID)
		}
	}
}

func TestResolveDistinctClientsGetDistinctIDs(t *testing.T) {
	r := NewResolver(newStoreFake())

	a, _ := r.Resolve(context.Background(), "client-a")
	b, _ := r.Resolve(context.Background(), "client-b")
	if a.ID == b.ID {
		t.Fatalf("two clients share id %q", a.ID)
	}
}

func TestResolveConcurrentFirstContactMintsOneID(t *testing.T) {
	r := NewResolver(newStoreFake())

	const workers = 16
	ids := make([]string, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			identity, err := r.Resolve(context.Background(), "client-race")
			if err != nil {
				t.Errorf("Resolve() error = %v", err)
				return
			}
			ids[i] = identity.ID
		}()
	}
	wg.Wait()

	for _, id := range ids[1:] {
		if id != ids[0] {
			t.Fatalf("racing requests minted distinct ids: %q vs %q", ids[0], id)
		}
	}
}

func TestClearForcesReMint(t *testing.T) {
	r := NewResolver(newStoreFake())

	before, _ := r.Resolve(context.Background(), "client-x")
	if err := r.Clear(context.Background(), "client-x"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	after, _ := r.Resolve(context.Background(), "client-x")
	if before.ID == after.ID {
		t.Fatalf("cleared client kept id %q", before.ID)
	}
}

func TestResolveRejectsEmptyKeyAndSurfacesStoreErrors(t *testing.T) {
	r := NewResolver(newStoreFake())
	if _, err := r.Resolve(context.Background(), ""); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("empty key: expected ErrInvalidInput, got %v", err)
	}

	broken := newStoreFake()
	broken.getErr = errors.New("redis timeout")
	r = NewResolver(broken)
	if _, err := r.Resolve(context.Background(), "client-y"); err == nil {
		t.Fatalf("store failure must surface")
	}
}

func TestNewGuestIDShape(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	id := NewGuestID(at)

	if !strings.HasPrefix(id, "guest_") {
		t.Fatalf("id = %q", id)
	}
	parts := strings.Split(id, "_")
	if len(parts) != 3 {
		t.Fatalf("id = %q, want guest_<ms>_<suffix>", id)
	}
	if parts[1] != "1772366400000" {
		t.Fatalf("timestamp segment = %q", parts[1])
	}
	if parts[2] == "" {
		t.Fatalf("random suffix empty")
	}
}
