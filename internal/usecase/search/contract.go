package search

import (
	"context"

	domcorpus "github.com/corpusgate/corpusgate/internal/domain/corpus"
	"github.com/corpusgate/corpusgate/internal/repository/ledger"
)

// Corpus is one connected corpus the coordinator can query.
type Corpus interface {
	ID() string
	ListCollections(ctx context.Context) ([]string, error)
	HasTextIndex(ctx context.Context, collection string) (bool, error)
	TextSearch(ctx context.Context, collection, query string, limit int) ([]domcorpus.Hit, error)
	ExactMatch(ctx context.Context, collection, field, query string, limit int) ([]domcorpus.Hit, error)
}

// Provider yields the currently connected corpora. The set may change
// between searches as corpora connect and drop.
type Provider interface {
	Corpora(ctx context.Context) ([]Corpus, error)
}

// Ledger records executed searches and answers repeat checks.
type Ledger interface {
	Seen(ctx context.Context, fingerprint string) (bool, error)
	Append(ctx context.Context, e ledger.Entry) error
}
