// Package search coordinates one lookup across every connected corpus,
// merges the hits, and settles the billing decision.
package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/corpusgate/corpusgate/internal/db"
	"github.com/corpusgate/corpusgate/internal/domain"
	domcorpus "github.com/corpusgate/corpusgate/internal/domain/corpus"
	"github.com/corpusgate/corpusgate/internal/domain/record"
	"github.com/corpusgate/corpusgate/internal/domain/search/billing"
	"github.com/corpusgate/corpusgate/internal/domain/search/fingerprint"
	"github.com/corpusgate/corpusgate/internal/domain/search/request"
	"github.com/corpusgate/corpusgate/internal/domain/search/result"
	"github.com/corpusgate/corpusgate/internal/domain/search/stype"
	"github.com/corpusgate/corpusgate/internal/logger"
	"github.com/corpusgate/corpusgate/internal/metrics"
	"github.com/corpusgate/corpusgate/internal/repository/corpus"
	"github.com/corpusgate/corpusgate/internal/repository/ledger"
)

const (
	// perCollectionTimeout bounds one collection query; a slow collection
	// forfeits its slot instead of stalling the merge.
	perCollectionTimeout = 3 * time.Second
	// perCollectionLimit caps hits taken from a single collection.
	perCollectionLimit = 50
	// maxTotalResults caps the merged result list.
	maxTotalResults = 100
)

// internalFields are store bookkeeping fields stripped before a record
// leaves the service.
var internalFields = []string{"_id", "_key"}

// Options configure the billing behavior of the coordinator.
type Options struct {
	FeeEnabled    bool
	CostPerSearch int
}

// Service fans a search out over all connected corpora and settles billing.
type Service struct {
	provider Provider
	ledger   Ledger
	opts     Options
	now      func() time.Time

	// collectionTimeout is perCollectionTimeout; shortened in tests.
	collectionTimeout time.Duration
}

// New creates a search coordinator.
func New(provider Provider, led Ledger, opts Options) *Service {
	return &Service{
		provider:          provider,
		ledger:            led,
		opts:              opts,
		now:               time.Now,
		collectionTimeout: perCollectionTimeout,
	}
}

// Response is the merged outcome of one search.
type Response struct {
	Results             []result.Result
	Total               int
	Cost                int
	Reason              billing.Reason
	IsRepeat            bool
	Elapsed             time.Duration
	CollectionsSearched int
}

// task is one (corpus, collection) unit of the scatter phase.
type task struct {
	corpus     Corpus
	collection domcorpus.Collection
}

// Execute runs one search end to end: enumerate collections, scatter the
// query, merge hits in priority order, decide billing, and append the
// ledger entry. Every search is recorded, free or charged.
func (s *Service) Execute(ctx context.Context, req request.Request) (*Response, error) {
	log := logger.FromContext(ctx)
	started := s.now()

	corpora, err := s.provider.Corpora(ctx)
	if err != nil {
		return nil, fmt.Errorf("list corpora: %w", err)
	}
	if len(corpora) == 0 {
		return nil, domain.ErrNoCorpusConfigured
	}

	tasks := s.plan(ctx, corpora, req, log)

	results := s.scatter(ctx, tasks, req, log)

	fp := fingerprint.Compute(req.Requester(), req.Type(), req.Query())
	decision, err := s.settle(ctx, fp, len(results))
	if err != nil {
		return nil, err
	}

	entry := ledger.Entry{
		Fingerprint: fp,
		Requester:   req.Requester(),
		SearchType:  string(req.Type()),
		Query:       req.Query(),
		Target:      req.Target(),
		ResultCount: len(results),
		Cost:        decision.Cost(),
		Charged:     decision.Reason() == billing.ReasonCharged,
		ExecutedAt:  s.now(),
	}
	if err := s.ledger.Append(ctx, entry); err != nil {
		log.Warn("ledger append failed", zap.String("fingerprint", fp), zap.Error(err))
	}

	elapsed := s.now().Sub(started)
	metrics.SearchesTotal.WithLabelValues(string(req.Type()), string(decision.Reason())).Inc()
	metrics.SearchDuration.WithLabelValues(string(req.Type())).Observe(elapsed.Seconds())
	metrics.SearchResults.WithLabelValues(string(req.Type())).Observe(float64(len(results)))

	return &Response{
		Results:             results,
		Total:               len(results),
		Cost:                decision.Cost(),
		Reason:              decision.Reason(),
		IsRepeat:            decision.IsRepeat(),
		Elapsed:             elapsed,
		CollectionsSearched: len(tasks),
	}, nil
}

// plan enumerates every corpus's collections, applies the target filter,
// and orders the work priority-first per corpus. A corpus whose enumeration
// fails contributes nothing but never sinks the surviving corpora.
func (s *Service) plan(ctx context.Context, corpora []Corpus, req request.Request, log *zap.Logger) []task {
	var tasks []task
	for _, c := range corpora {
		names, err := c.ListCollections(ctx)
		if err != nil {
			metrics.CollectionFailuresTotal.WithLabelValues(c.ID()).Inc()
			log.Warn("collection enumeration failed",
				zap.String("corpus", c.ID()),
				zap.Error(err))
			continue
		}
		if !req.AllCollections() {
			names = keepTarget(names, req.Target())
		}
		for _, col := range corpus.Classify(c.ID(), names, req.Type()) {
			tasks = append(tasks, task{corpus: c, collection: col})
		}
	}
	return tasks
}

func keepTarget(names []string, target string) []string {
	for _, n := range names {
		if n == target {
			return []string{n}
		}
	}
	return nil
}

// scatter queries every task concurrently and merges hits back in task
// order. All workers are awaited; a failed or timed-out collection
// contributes nothing but never cancels its siblings.
func (s *Service) scatter(ctx context.Context, tasks []task, req request.Request, log *zap.Logger) []result.Result {
	slots := make([][]result.Result, len(tasks))

	var wg sync.WaitGroup
	for i, t := range tasks {
		wg.Add(1)
		go func(i int, t task) {
			defer wg.Done()

			cctx, cancel := context.WithTimeout(ctx, s.collectionTimeout)
			defer cancel()

			hits, err := s.queryCollection(cctx, t, req)
			if err != nil {
				metrics.CollectionFailuresTotal.WithLabelValues(t.corpus.ID()).Inc()
				log.Warn("collection query failed",
					zap.String("corpus", t.corpus.ID()),
					zap.String("collection", t.collection.Name()),
					zap.Error(err))
				return
			}
			slots[i] = s.toResults(t.collection, hits, req)
		}(i, t)
	}
	wg.Wait()

	merged := make([]result.Result, 0, maxTotalResults)
	for _, slot := range slots {
		for _, r := range slot {
			if len(merged) >= maxTotalResults {
				return merged
			}
			merged = append(merged, r)
		}
	}
	return merged
}

// queryCollection picks the query strategy for one collection. Email
// lookups are exact-only; everything else prefers the full-text index and
// falls back to exact matching when the index is missing.
func (s *Service) queryCollection(ctx context.Context, t task, req request.Request) ([]domcorpus.Hit, error) {
	if req.Type() == stype.Email {
		return s.exactAcrossFields(ctx, t, req)
	}

	indexed, err := t.corpus.HasTextIndex(ctx, t.collection.Name())
	if err != nil {
		return nil, err
	}
	if indexed {
		hits, err := t.corpus.TextSearch(ctx, t.collection.Name(), req.Query(), perCollectionLimit)
		if err == nil {
			return hits, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		// A broken or concurrently dropped index degrades to exact
		// matching instead of losing the collection.
		if !errors.Is(err, db.ErrIndexNotFound) {
			logger.FromContext(ctx).Debug("text search failed, using exact match",
				zap.String("collection", t.collection.Name()), zap.Error(err))
		}
	}
	return s.exactAcrossFields(ctx, t, req)
}

// exactAcrossFields probes the type's candidate field names in order and
// returns the first field that yields hits.
func (s *Service) exactAcrossFields(ctx context.Context, t task, req request.Request) ([]domcorpus.Hit, error) {
	for _, field := range matchFields(req.Type()) {
		hits, err := t.corpus.ExactMatch(ctx, t.collection.Name(), field, req.Query(), perCollectionLimit)
		if err != nil {
			return nil, err
		}
		if len(hits) > 0 {
			return hits, nil
		}
	}
	return nil, nil
}

// toResults converts raw hits into display results, resolving the matched
// field and stripping store-internal keys.
func (s *Service) toResults(col domcorpus.Collection, hits []domcorpus.Hit, req request.Request) []result.Result {
	out := make([]result.Result, 0, len(hits))
	for _, h := range hits {
		rec := record.FromStringMap(h.Fields)
		field, value := matchedPair(rec, req)
		out = append(out, result.New(col.Name(), field, value, rec.Without(internalFields...)))
	}
	return out
}

// matchedPair finds the first candidate field whose value equals the query.
// Full-text hits can match on fields outside the candidate list; those keep
// an empty matched field.
func matchedPair(rec record.Record, req request.Request) (string, string) {
	for _, field := range matchFields(req.Type()) {
		if rec.MatchesFold(field, req.Query()) {
			v, _ := rec.Get(field)
			return field, v.Display()
		}
	}
	return "", ""
}

// settle decides what the search costs. Order matters: a disabled fee
// mechanism wins over everything, a repeat wins over an empty result set.
func (s *Service) settle(ctx context.Context, fp string, total int) (billing.Decision, error) {
	if !s.opts.FeeEnabled {
		return billing.Free(billing.ReasonFeeDisabled), nil
	}

	seen, err := s.ledger.Seen(ctx, fp)
	if err != nil {
		return billing.Decision{}, fmt.Errorf("repeat check: %w", err)
	}
	if seen {
		return billing.Free(billing.ReasonRepeatFree), nil
	}
	if total == 0 {
		return billing.Free(billing.ReasonNoResults), nil
	}
	return billing.Charged(s.opts.CostPerSearch), nil
}
