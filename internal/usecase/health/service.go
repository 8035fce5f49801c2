// Package health aggregates liveness of the identity store and every
// registered corpus into one report.
package health

import (
	"context"

	"github.com/corpusgate/corpusgate/internal/registry"
)

// StatusReader exposes the registry's per-slot connection view.
type StatusReader interface {
	Status() []registry.SlotStatus
}

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all slots are connected.
	Healthy Status = "ok"
	// Degraded indicates at least one corpus is down but identity is up.
	Degraded Status = "degraded"
	// Unhealthy indicates the identity store is down.
	Unhealthy Status = "error"
)

// CheckResult represents an individual slot check outcome.
type CheckResult string

const (
	// CheckOK indicates a connected slot.
	CheckOK CheckResult = "ok"
	// CheckError indicates a disconnected or failed slot.
	CheckError CheckResult = "error"
)

// Report aggregates slot check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service reads the registry state and grades it.
type Service struct {
	reg StatusReader
}

// New creates a health service over the connection registry.
func New(reg StatusReader) *Service {
	return &Service{reg: reg}
}

// Check grades every registry slot. The identity slot decides between
// degraded and unhealthy; corpora only ever degrade.
func (s *Service) Check(_ context.Context) Report {
	checks := make(map[string]CheckResult)
	status := Healthy

	for _, slot := range s.reg.Status() {
		if slot.State == registry.StateConnected.String() {
			checks[slot.ID] = CheckOK
			continue
		}
		checks[slot.ID] = CheckError
		if slot.Identity {
			status = Unhealthy
		} else if status == Healthy {
			status = Degraded
		}
	}

	return Report{Status: status, Checks: checks}
}
