package guest

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/nattawat-k/fracture-triage/internal/core/domain"
)

const storeKeyPrefix = "guest:client:"

// Resolver maps an opaque client key (browser-held, sent on every request)
// to a stable guest identity. The first request from a client mints an id
// and persists it; later requests get the same id back, so guest-owned
// cases stay reachable across sessions.
type Resolver struct {
	store ClientStore

	// Serializes mint-and-store for a key within this process. Two racing
	// requests from one client would otherwise each mint an id and the
	// loser's cases would orphan.
	mu  sync.Mutex
	now func() time.Time
}

// ClientStore is the persistence behind resolution. Get returns "" without
// error when the key has never been seen.
type ClientStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

func NewResolver(store ClientStore) *Resolver {
	return &Resolver{store: store, now: time.Now}
}

// Resolve returns the guest identity for clientKey, minting one on first
// contact. The returned identity always carries the user role.
func (r *Resolver) Resolve(ctx context.Context, clientKey string) (domain.Identity, error) {
	if clientKey == "" {
		return domain.Identity{}, domain.WrapError(domain.ErrInvalidInput, "resolve guest", errEmptyClientKey)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := storeKeyPrefix + clientKey
	id, err := r.store.Get(ctx, key)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("load guest id: %w", err)
	}
	if id == "" {
		id = NewGuestID(r.now())
		if err := r.store.Set(ctx, key, id); err != nil {
			return domain.Identity{}, fmt.Errorf("persist guest id: %w", err)
		}
	}

	return domain.Identity{ID: id, Role: domain.RoleUser}, nil
}

// Clear forgets the mapping for clientKey. The next request from that
// client starts over with a fresh guest identity.
func (r *Resolver) Clear(ctx context.Context, clientKey string) error {
	if clientKey == "" {
		return nil
	}
	if err := r.store.Delete(ctx, storeKeyPrefix+clientKey); err != nil {
		return fmt.Errorf("clear guest id: %w", err)
	}
	return nil
}

// NewGuestID builds an id of the form guest_<unix-ms>_<random base36>.
// The timestamp keeps ids roughly sortable, the suffix keeps two clients
// minted in the same millisecond apart.
func NewGuestID(at time.Time) string {
	suffix := strconv.FormatUint(rand.Uint64()%(36*36*36*36*36*36*36*36*36), 36)
	return domain.GuestIDPrefix + strconv.FormatInt(at.UnixMilli(), 10) + "_" + suffix
}

var errEmptyClientKey = fmt.Errorf("client key is empty")
