// Package ledger persists the append-only search log on the identity store.
// Entries are never expired; repeat detection depends on the full history
// staying resident.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/corpusgate/corpusgate/internal/db"
)

const (
	entryPrefix  = "ledger:entry:"
	markerPrefix = "ledger:fp:"
)

// Entry is one recorded search execution.
type Entry struct {
	Fingerprint string    `json:"fingerprint"`
	Requester   string    `json:"requester"`
	SearchType  string    `json:"search_type"`
	Query       string    `json:"query"`
	Target      string    `json:"target"`
	ResultCount int       `json:"result_count"`
	Cost        int       `json:"cost"`
	Charged     bool      `json:"charged"`
	ExecutedAt  time.Time `json:"executed_at"`
}

// Repo stores ledger entries on the identity corpus store.
type Repo struct {
	store db.KVStore
}

// New binds a ledger repo to a borrowed identity store.
func New(store db.KVStore) *Repo {
	return &Repo{store: store}
}

// Seen reports whether a search with this fingerprint was recorded before.
func (r *Repo) Seen(ctx context.Context, fingerprint string) (bool, error) {
	ok, err := r.store.Exists(ctx, markerPrefix+fingerprint)
	if err != nil {
		return false, fmt.Errorf("ledger lookup: %w", err)
	}
	return ok, nil
}

// Append records one executed search. The fingerprint marker is written last
// so a repeat is only recognized once its entry is durable.
func (r *Repo) Append(ctx context.Context, e Entry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("ledger encode: %w", err)
	}

	key := fmt.Sprintf("%s%s:%d", entryPrefix, e.Fingerprint, e.ExecutedAt.UnixNano())
	if err := r.store.Set(ctx, key, payload); err != nil {
		return fmt.Errorf("ledger append: %w", err)
	}
	if err := r.store.Set(ctx, markerPrefix+e.Fingerprint, []byte("1")); err != nil {
		return fmt.Errorf("ledger mark: %w", err)
	}
	return nil
}
