// Package corpusgate embeds the lookup gateway in a Go program without the
// HTTP layer: connect corpora directly and run searches in-process.
package corpusgate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/corpusgate/corpusgate/internal/config"
	"github.com/corpusgate/corpusgate/internal/domain/search/request"
	"github.com/corpusgate/corpusgate/internal/registry"
	corpusrepo "github.com/corpusgate/corpusgate/internal/repository/corpus"
	ledgerrepo "github.com/corpusgate/corpusgate/internal/repository/ledger"
	searchuc "github.com/corpusgate/corpusgate/internal/usecase/search"
	"github.com/corpusgate/corpusgate/internal/vault"
)

// Config configures an embedded gateway client.
type Config struct {
	// VaultSecret decrypts stored corpus passwords.
	VaultSecret string
	// Identity is the store that holds the search ledger.
	Identity config.ConnectionConfig
	// Corpora are the record stores to search. Disabled entries are skipped.
	Corpora []config.ConnectionConfig
	// FeeEnabled turns the per-search charge on.
	FeeEnabled bool
	// CostPerSearch is the charge applied to a billable search.
	CostPerSearch int
	// Logger defaults to a no-op logger.
	Logger *zap.Logger

	// opener overrides the store dialer in tests.
	opener registry.Opener
}

// Client is the embedded gateway entry point.
type Client struct {
	reg    *registry.Registry
	search *searchuc.Service
}

// NewClient connects the identity store and every enabled corpus. A corpus
// that fails to connect is reported but does not fail construction.
func NewClient(ctx context.Context, cfg Config) (*Client, []error, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	v := vault.New(cfg.VaultSecret)
	var opts []registry.Option
	if cfg.opener != nil {
		opts = append(opts, registry.WithOpener(cfg.opener))
	}
	reg := registry.New(v, logger, opts...)

	if err := reg.ConnectIdentity(ctx, cfg.Identity); err != nil {
		reg.CloseAll()
		return nil, nil, fmt.Errorf("connect identity store: %w", err)
	}

	var corpusErrs []error
	for _, corpusCfg := range cfg.Corpora {
		if !corpusCfg.Enabled {
			continue
		}
		if err := reg.ConnectCorpus(ctx, corpusCfg); err != nil {
			corpusErrs = append(corpusErrs, fmt.Errorf("corpus %s: %w", corpusCfg.ID, err))
		}
	}

	led := ledgerrepo.New(&registryKV{reg: reg})
	svc := searchuc.New(&registryProvider{reg: reg}, led, searchuc.Options{
		FeeEnabled:    cfg.FeeEnabled,
		CostPerSearch: cfg.CostPerSearch,
	})

	return &Client{reg: reg, search: svc}, corpusErrs, nil
}

// SearchResult is one hit returned by an embedded search.
type SearchResult struct {
	Collection   string          `json:"collection"`
	MatchedField string          `json:"matched_field,omitempty"`
	MatchedValue string          `json:"matched_value,omitempty"`
	Record       json.RawMessage `json:"record"`
}

// SearchOutcome is the merged outcome of an embedded search.
type SearchOutcome struct {
	Results             []SearchResult `json:"results"`
	Total               int            `json:"total"`
	Cost                int            `json:"cost"`
	Reason              string         `json:"reason"`
	IsRepeat            bool           `json:"is_repeat"`
	Elapsed             time.Duration  `json:"-"`
	CollectionsSearched int            `json:"collections_searched"`
}

// Search runs one lookup across every connected corpus. Pass an empty
// collection to search everything.
func (c *Client) Search(ctx context.Context, searchType, query, collection, requester string) (*SearchOutcome, error) {
	req, err := request.New(searchType, query, collection, requester)
	if err != nil {
		return nil, err
	}

	resp, err := c.search.Execute(ctx, req)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(resp.Results))
	for i := range resp.Results {
		res := &resp.Results[i]
		raw, err := json.Marshal(res.Record())
		if err != nil {
			return nil, fmt.Errorf("encode record: %w", err)
		}
		results = append(results, SearchResult{
			Collection:   res.Collection(),
			MatchedField: res.MatchedField(),
			MatchedValue: res.MatchedValue(),
			Record:       raw,
		})
	}

	return &SearchOutcome{
		Results:             results,
		Total:               resp.Total,
		Cost:                resp.Cost,
		Reason:              string(resp.Reason),
		IsRepeat:            resp.IsRepeat,
		Elapsed:             resp.Elapsed,
		CollectionsSearched: resp.CollectionsSearched,
	}, nil
}

// Close releases every store connection.
func (c *Client) Close() {
	c.reg.CloseAll()
}

// Status snapshots every connection slot, identity first.
func (c *Client) Status() []registry.SlotStatus {
	return c.reg.Status()
}

// TestConnection probes a candidate corpus configuration without
// registering it.
func (c *Client) TestConnection(ctx context.Context, cfg config.ConnectionConfig) error {
	return c.reg.TestConnection(ctx, cfg)
}

// registryProvider materializes one repo per connected corpus.
type registryProvider struct {
	reg *registry.Registry
}

func (p *registryProvider) Corpora(_ context.Context) ([]searchuc.Corpus, error) {
	refs := p.reg.Corpora()
	out := make([]searchuc.Corpus, 0, len(refs))
	for _, ref := range refs {
		out = append(out, corpusrepo.New(ref.ID, ref.Database, ref.Store))
	}
	return out, nil
}

// registryKV routes ledger reads and writes through the current identity
// store so the ledger follows reconnects.
type registryKV struct {
	reg *registry.Registry
}

func (k *registryKV) Get(ctx context.Context, key string) ([]byte, error) {
	store, err := k.reg.Identity()
	if err != nil {
		return nil, err
	}
	return store.Get(ctx, key)
}

func (k *registryKV) Set(ctx context.Context, key string, value []byte) error {
	store, err := k.reg.Identity()
	if err != nil {
		return err
	}
	return store.Set(ctx, key, value)
}

func (k *registryKV) Exists(ctx context.Context, key string) (bool, error) {
	store, err := k.reg.Identity()
	if err != nil {
		return false, err
	}
	return store.Exists(ctx, key)
}
