// Package registry manages the lifecycle of the identity connection and the
// named set of corpus connections. It is the only component that mutates
// connection handles; searches borrow live stores and never close them.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/corpusgate/corpusgate/internal/config"
	"github.com/corpusgate/corpusgate/internal/db"
	dbRedis "github.com/corpusgate/corpusgate/internal/db/redis"
	"github.com/corpusgate/corpusgate/internal/domain"
	"github.com/corpusgate/corpusgate/internal/vault"
)

const testTimeout = 10 * time.Second

// State is the lifecycle state of a connection handle.
type State int

const (
	// StateDisconnected means no session is open.
	StateDisconnected State = iota
	// StateConnecting means a session is being established.
	StateConnecting
	// StateConnected means the session answered ready.
	StateConnected
	// StateError means the last connect attempt or watcher ping failed.
	StateError
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	default:
		return "disconnected"
	}
}

// handle binds one live driver session to its configuration. Owned
// exclusively by the Registry.
type handle struct {
	cfg     config.ConnectionConfig
	store   db.Store
	state   State
	lastErr error
	stop    chan struct{}
}

// SlotStatus is a point-in-time snapshot of one registry slot for
// administrative introspection.
type SlotStatus struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Database  string `json:"database"`
	State     string `json:"state"`
	Identity  bool   `json:"identity,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// CorpusRef is a borrowed reference to a live corpus store.
type CorpusRef struct {
	ID       string
	Database string
	Store    db.Store
}

// Opener opens a store session for a connection URI. Injected in tests.
type Opener func(uri string, poolSize int) (db.Store, error)

// Option customises Registry construction.
type Option func(*Registry)

// WithOpener replaces the default rueidis opener.
func WithOpener(open Opener) Option {
	return func(r *Registry) { r.open = open }
}

// WithWatchInterval changes the disconnect-watcher ping interval.
func WithWatchInterval(d time.Duration) Option {
	return func(r *Registry) { r.watchEvery = d }
}

// Registry holds at most one identity connection and a corpus-id keyed set
// of corpus connections. All slot mutation happens under mu so a
// reconfiguration cannot race an in-flight search borrowing a handle.
type Registry struct {
	mu         sync.RWMutex
	vault      *vault.Vault
	open       Opener
	logger     *zap.Logger
	watchEvery time.Duration

	identity *handle
	corpora  map[string]*handle
}

// New creates an empty registry.
func New(v *vault.Vault, logger *zap.Logger, opts ...Option) *Registry {
	r := &Registry{
		vault:      v,
		logger:     logger,
		watchEvery: 30 * time.Second,
		corpora:    make(map[string]*handle),
		open: func(uri string, poolSize int) (db.Store, error) {
			return dbRedis.NewStore(uri, poolSize)
		},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// ConnectIdentity opens the identity store connection, closing any prior one.
func (r *Registry) ConnectIdentity(ctx context.Context, cfg config.ConnectionConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.identity != nil {
		r.closeHandle(r.identity)
		r.identity = nil
	}

	h, err := r.connect(ctx, cfg)
	if err != nil {
		return err
	}
	r.identity = h
	return nil
}

// ConnectCorpus opens a corpus connection under its id, closing any prior
// handle in that slot.
func (r *Registry) ConnectCorpus(ctx context.Context, cfg config.ConnectionConfig) error {
	if cfg.ID == "" {
		return fmt.Errorf("%w: corpus id is required", domain.ErrConnectionFailed)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.corpora[cfg.ID]; ok {
		r.closeHandle(prev)
		delete(r.corpora, cfg.ID)
	}

	h, err := r.connect(ctx, cfg)
	if err != nil {
		return err
	}
	r.corpora[cfg.ID] = h
	return nil
}

// connect opens, waits for readiness, and starts the disconnect watcher.
// Callers hold the write lock.
func (r *Registry) connect(ctx context.Context, cfg config.ConnectionConfig) (*handle, error) {
	password, err := r.resolvePassword(cfg, false)
	if err != nil {
		return nil, err
	}

	h := &handle{cfg: cfg, state: StateConnecting, stop: make(chan struct{})}

	store, err := r.open(BuildURI(cfg, password), cfg.PoolSize)
	if err != nil {
		h.state = StateError
		h.lastErr = err
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrConnectionFailed, cfg.ID, err)
	}

	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if err := store.WaitForReady(ctx, timeout); err != nil {
		store.Close()
		h.state = StateError
		h.lastErr = err
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrConnectionFailed, cfg.ID, err)
	}

	h.store = store
	h.state = StateConnected
	h.lastErr = nil
	go r.watch(h, h.stop)

	r.logger.Info("store connected",
		zap.String("id", cfg.ID),
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database),
	)
	return h, nil
}

// TestConnection verifies a configuration against a disposable session with
// a short timeout. The session is always closed; persistent handles are
// never touched. Vault decrypt failures fall back to the raw value here
// because the admin may be testing a not-yet-encrypted password.
func (r *Registry) TestConnection(ctx context.Context, cfg config.ConnectionConfig) error {
	password, err := r.resolvePassword(cfg, true)
	if err != nil {
		return err
	}

	store, err := r.open(BuildURI(cfg, password), cfg.PoolSize)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConnectionFailed, err)
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, testTimeout); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConnectionFailed, err)
	}
	return nil
}

// resolvePassword decrypts a vault-encrypted password. For plaintext values
// it returns the value as given. Decrypt failures are fatal except in
// interactive mode (TestConnection).
func (r *Registry) resolvePassword(cfg config.ConnectionConfig, interactive bool) (string, error) {
	if cfg.Password == "" || !r.vault.IsEncrypted(cfg.Password) {
		return cfg.Password, nil
	}
	plain, err := r.vault.Decrypt(cfg.Password)
	if err != nil {
		if interactive {
			return cfg.Password, nil
		}
		return "", fmt.Errorf("decrypt password for %s: %w", cfg.ID, err)
	}
	return plain, nil
}

// Identity returns the live identity store.
func (r *Registry) Identity() (db.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.identity == nil || r.identity.state != StateConnected {
		return nil, fmt.Errorf("%w: identity", domain.ErrNotConnected)
	}
	return r.identity.store, nil
}

// Corpus returns the live store for one corpus id.
func (r *Registry) Corpus(id string) (db.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.corpora[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCorpusNotFound, id)
	}
	if h.state != StateConnected {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotConnected, id)
	}
	return h.store, nil
}

// Corpora returns borrowed references to every connected corpus, ordered by
// id for deterministic scheduling.
func (r *Registry) Corpora() []CorpusRef {
	r.mu.RLock()
	defer r.mu.RUnlock()

	refs := make([]CorpusRef, 0, len(r.corpora))
	for id, h := range r.corpora {
		if h.state != StateConnected {
			continue
		}
		refs = append(refs, CorpusRef{ID: id, Database: h.cfg.Database, Store: h.store})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return refs
}

// Status snapshots every slot, identity first.
func (r *Registry) Status() []SlotStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]SlotStatus, 0, len(r.corpora)+1)
	if r.identity != nil {
		s := snapshot("identity", r.identity)
		s.Identity = true
		out = append(out, s)
	}
	ids := make([]string, 0, len(r.corpora))
	for id := range r.corpora {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		out = append(out, snapshot(id, r.corpora[id]))
	}
	return out
}

func snapshot(id string, h *handle) SlotStatus {
	s := SlotStatus{
		ID:       id,
		Name:     h.cfg.Name,
		Database: h.cfg.Database,
		State:    h.state.String(),
	}
	if h.lastErr != nil {
		s.LastError = h.lastErr.Error()
	}
	return s
}

// Reconfigure atomically replaces the corpus connection set: removed slots
// are closed, added or changed slots are reconnected, unchanged slots are
// left alone. Errors are collected; surviving slots stay live.
func (r *Registry) Reconfigure(ctx context.Context, cfgs []config.ConnectionConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	desired := make(map[string]config.ConnectionConfig, len(cfgs))
	for _, cfg := range cfgs {
		if cfg.Enabled {
			desired[cfg.ID] = cfg
		}
	}

	for id, h := range r.corpora {
		if cfg, keep := desired[id]; keep && cfg == h.cfg {
			continue
		}
		r.closeHandle(h)
		delete(r.corpora, id)
	}

	var errs []error
	for id, cfg := range desired {
		if _, alive := r.corpora[id]; alive {
			continue
		}
		h, err := r.connect(ctx, cfg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		r.corpora[id] = h
	}
	return errors.Join(errs...)
}

// CloseAll closes identity then all corpora and clears the map. Idempotent.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.identity != nil {
		r.closeHandle(r.identity)
		r.identity = nil
	}
	for id, h := range r.corpora {
		r.closeHandle(h)
		delete(r.corpora, id)
	}
}

// closeHandle stops the watcher and closes the session. Callers hold the
// write lock.
func (r *Registry) closeHandle(h *handle) {
	if h.stop != nil {
		close(h.stop)
		h.stop = nil
	}
	if h.store != nil {
		h.store.Close()
		h.store = nil
	}
	h.state = StateDisconnected
}

// watch pings the handle on an interval and logs unexpected mid-life
// disconnects. Informational only: the registry never reconnects on its own.
// The stop channel is captured at spawn; closeHandle clears h.stop under the
// lock and the watcher must never read it.
func (r *Registry) watch(h *handle, stop <-chan struct{}) {
	ticker := time.NewTicker(r.watchEvery)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.checkHandle(h)
		}
	}
}

func (r *Registry) checkHandle(h *handle) {
	r.mu.RLock()
	store := h.store
	r.mu.RUnlock()
	if store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err := store.Ping(ctx)
	cancel()

	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case err != nil && h.state == StateConnected:
		h.state = StateError
		h.lastErr = err
		r.logger.Warn("store connection lost",
			zap.String("id", h.cfg.ID), zap.Error(err))
	case err == nil && h.state == StateError:
		h.state = StateConnected
		h.lastErr = nil
		r.logger.Info("store connection recovered", zap.String("id", h.cfg.ID))
	}
}
