package health

import (
	"context"
	"testing"

	"github.com/corpusgate/corpusgate/internal/registry"
)

type staticStatus []registry.SlotStatus

func (s staticStatus) Status() []registry.SlotStatus { return s }

func TestCheck_AllConnected(t *testing.T) {
	svc := New(staticStatus{
		{ID: "identity", State: "connected", Identity: true},
		{ID: "corpus-a", State: "connected"},
	})

	report := svc.Check(context.Background())
	if report.Status != Healthy {
		t.Errorf("status = %s, want %s", report.Status, Healthy)
	}
	if report.Checks["identity"] != CheckOK || report.Checks["corpus-a"] != CheckOK {
		t.Errorf("checks = %v", report.Checks)
	}
}

func TestCheck_CorpusDownDegrades(t *testing.T) {
	svc := New(staticStatus{
		{ID: "identity", State: "connected", Identity: true},
		{ID: "corpus-a", State: "error", LastError: "dial timeout"},
		{ID: "corpus-b", State: "connected"},
	})

	report := svc.Check(context.Background())
	if report.Status != Degraded {
		t.Errorf("status = %s, want %s", report.Status, Degraded)
	}
	if report.Checks["corpus-a"] != CheckError {
		t.Errorf("corpus-a = %s", report.Checks["corpus-a"])
	}
}

func TestCheck_IdentityDownIsUnhealthy(t *testing.T) {
	svc := New(staticStatus{
		{ID: "identity", State: "error", Identity: true},
		{ID: "corpus-a", State: "connected"},
	})

	report := svc.Check(context.Background())
	if report.Status != Unhealthy {
		t.Errorf("status = %s, want %s", report.Status, Unhealthy)
	}
}
