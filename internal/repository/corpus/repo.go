// Package corpus provides per-corpus collection introspection and query
// execution over a borrowed store handle. A Repo never owns the handle and
// never closes it.
package corpus

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/corpusgate/corpusgate/internal/db"
	domcorpus "github.com/corpusgate/corpusgate/internal/domain/corpus"
)

// Keys inside a corpus namespace follow <database>:<collection>:<id>; the
// full-text index for a collection, when present, is named
// idx:<database>:<collection>.
const indexPrefix = "idx:"

// scanBatch bounds how many hashes one exact-match pass fetches per
// pipelined round-trip.
const scanBatch = 200

// Repo executes introspection and queries against one corpus.
type Repo struct {
	id       string
	database string
	store    db.Store
}

// New binds a repo to a borrowed corpus store.
func New(id, database string, store db.Store) *Repo {
	return &Repo{id: id, database: database, store: store}
}

// ID returns the corpus id.
func (r *Repo) ID() string { return r.id }

// ListCollections enumerates queryable collections by scanning the corpus
// namespace and parsing the collection segment out of each key. System
// collections are removed by exact, case-sensitive deny-list match.
func (r *Repo) ListCollections(ctx context.Context) ([]string, error) {
	keys, err := r.store.Scan(ctx, r.database+":*")
	if err != nil {
		return nil, fmt.Errorf("scan corpus %s: %w", r.id, err)
	}

	seen := make(map[string]struct{})
	for _, key := range keys {
		rest := strings.TrimPrefix(key, r.database+":")
		name, _, ok := strings.Cut(rest, ":")
		if !ok || name == "" {
			continue
		}
		if _, denied := systemCollections[name]; denied {
			continue
		}
		seen[name] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// HasTextIndex probes whether a full-text index exists for the collection.
func (r *Repo) HasTextIndex(ctx context.Context, collection string) (bool, error) {
	return r.store.IndexExists(ctx, r.indexName(collection))
}

// TextSearch runs a full-text query against the collection's index, capped
// at limit hits. Returns db.ErrIndexNotFound when no usable index exists so
// the coordinator can fall back to exact matching.
func (r *Repo) TextSearch(ctx context.Context, collection, query string, limit int) ([]domcorpus.Hit, error) {
	res, err := r.store.SearchText(ctx, &db.TextQuery{
		Index: r.indexName(collection),
		Query: query,
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}

	hits := make([]domcorpus.Hit, 0, len(res.Entries))
	for _, e := range res.Entries {
		hits = append(hits, domcorpus.Hit{Key: e.Key, Fields: e.Fields})
	}
	return hits, nil
}

// ExactMatch scans the collection and keeps records whose named field equals
// the query case-insensitively, up to limit hits. This is the fallback path
// for collections without a text index and the only path for email queries.
func (r *Repo) ExactMatch(ctx context.Context, collection, field, query string, limit int) ([]domcorpus.Hit, error) {
	keys, err := r.store.Scan(ctx, r.database+":"+collection+":*")
	if err != nil {
		return nil, fmt.Errorf("scan collection %s: %w", collection, err)
	}

	var hits []domcorpus.Hit
	for start := 0; start < len(keys) && len(hits) < limit; start += scanBatch {
		end := min(start+scanBatch, len(keys))
		batch, err := r.store.HGetAllMulti(ctx, keys[start:end])
		if err != nil {
			return nil, fmt.Errorf("fetch collection %s: %w", collection, err)
		}
		for i, fields := range batch {
			if len(hits) >= limit {
				break
			}
			if strings.EqualFold(fields[field], query) {
				hits = append(hits, domcorpus.Hit{Key: keys[start+i], Fields: fields})
			}
		}
	}
	return hits, nil
}

func (r *Repo) indexName(collection string) string {
	return indexPrefix + r.database + ":" + collection
}
