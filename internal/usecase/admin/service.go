// Package admin exposes corpus management: listing slot state, probing a
// candidate configuration, and swapping the live corpus set.
package admin

import (
	"context"
	"fmt"

	"github.com/corpusgate/corpusgate/internal/config"
	"github.com/corpusgate/corpusgate/internal/domain"
	"github.com/corpusgate/corpusgate/internal/registry"
)

// Registry is the connection-registry surface the admin service drives.
type Registry interface {
	Status() []registry.SlotStatus
	TestConnection(ctx context.Context, cfg config.ConnectionConfig) error
	Reconfigure(ctx context.Context, corpora []config.ConnectionConfig) error
}

// Service manages the corpus connection set.
type Service struct {
	reg Registry
}

// New creates an admin service.
func New(reg Registry) *Service {
	return &Service{reg: reg}
}

// List snapshots every slot, identity first.
func (s *Service) List(_ context.Context) []registry.SlotStatus {
	return s.reg.Status()
}

// Test probes a candidate configuration with a disposable connection.
// Nothing is registered regardless of outcome.
func (s *Service) Test(ctx context.Context, cfg config.ConnectionConfig) error {
	if err := validate(cfg); err != nil {
		return err
	}
	return s.reg.TestConnection(ctx, cfg)
}

// Apply replaces the live corpus set with the given configurations.
// Unchanged slots keep their connections; removed slots are closed.
func (s *Service) Apply(ctx context.Context, corpora []config.ConnectionConfig) error {
	seen := make(map[string]struct{}, len(corpora))
	for _, cfg := range corpora {
		if err := validate(cfg); err != nil {
			return err
		}
		if _, dup := seen[cfg.ID]; dup {
			return fmt.Errorf("%w: duplicate corpus id %q", domain.ErrInvalidRequest, cfg.ID)
		}
		seen[cfg.ID] = struct{}{}
	}
	return s.reg.Reconfigure(ctx, corpora)
}

func validate(cfg config.ConnectionConfig) error {
	if cfg.ID == "" {
		return fmt.Errorf("%w: corpus id is required", domain.ErrInvalidRequest)
	}
	if cfg.Host == "" {
		return fmt.Errorf("%w: corpus %s: host is required", domain.ErrInvalidRequest, cfg.ID)
	}
	if cfg.Database == "" {
		return fmt.Errorf("%w: corpus %s: database is required", domain.ErrInvalidRequest, cfg.ID)
	}
	return nil
}
