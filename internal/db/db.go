// Package db defines the store facade implemented by the rueidis driver.
// Consumers depend on the narrow sub-interfaces, never on the driver.
package db

import (
	"context"
	"time"
)

// Store is the main store facade combining all sub-interfaces.
type Store interface {
	Pinger
	HashReader
	KVStore
	Searcher
	IndexProber
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashReader provides read access to hash-stored documents.
type HashReader interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// KVStore provides simple key-value operations for ledger persistence.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Exists(ctx context.Context, key string) (bool, error)
}

// TextQuery is the input for a full-text index search.
type TextQuery struct {
	Index string
	Query string
	Limit int
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Fields map[string]string
}

// Searcher provides full-text search over FT indexes.
type Searcher interface {
	SearchText(ctx context.Context, q *TextQuery) (*SearchResult, error)
}

// IndexProber checks whether a full-text index exists for a collection.
type IndexProber interface {
	IndexExists(ctx context.Context, name string) (bool, error)
}
