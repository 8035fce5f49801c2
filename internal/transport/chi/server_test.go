package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/corpusgate/corpusgate/internal/config"
	domcorpus "github.com/corpusgate/corpusgate/internal/domain/corpus"
	"github.com/corpusgate/corpusgate/internal/registry"
	"github.com/corpusgate/corpusgate/internal/repository/ledger"
	adminuc "github.com/corpusgate/corpusgate/internal/usecase/admin"
	healthuc "github.com/corpusgate/corpusgate/internal/usecase/health"
	searchuc "github.com/corpusgate/corpusgate/internal/usecase/search"
)

type stubCorpus struct {
	hits []domcorpus.Hit
}

func (s *stubCorpus) ID() string { return "corpus-a" }
func (s *stubCorpus) ListCollections(context.Context) ([]string, error) {
	return []string{"phonebook"}, nil
}
func (s *stubCorpus) HasTextIndex(context.Context, string) (bool, error) {
	return true, nil
}
func (s *stubCorpus) TextSearch(context.Context, string, string, int) ([]domcorpus.Hit, error) {
	return s.hits, nil
}
func (s *stubCorpus) ExactMatch(context.Context, string, string, string, int) ([]domcorpus.Hit, error) {
	return nil, nil
}

type stubProvider struct{ corpora []searchuc.Corpus }

func (s *stubProvider) Corpora(context.Context) ([]searchuc.Corpus, error) {
	return s.corpora, nil
}

type stubLedger struct{ seen bool }

func (s *stubLedger) Seen(context.Context, string) (bool, error) { return s.seen, nil }
func (s *stubLedger) Append(context.Context, ledger.Entry) error { return nil }

type stubRegistry struct {
	status  []registry.SlotStatus
	testErr error
}

func (s *stubRegistry) Status() []registry.SlotStatus { return s.status }
func (s *stubRegistry) TestConnection(context.Context, config.ConnectionConfig) error {
	return s.testErr
}
func (s *stubRegistry) Reconfigure(context.Context, []config.ConnectionConfig) error { return nil }

func newTestRouter(t *testing.T, corpora []searchuc.Corpus, reg *stubRegistry) http.Handler {
	t.Helper()

	searchSvc := searchuc.New(
		&stubProvider{corpora: corpora},
		&stubLedger{},
		searchuc.Options{FeeEnabled: true, CostPerSearch: 1},
	)
	adminSvc := adminuc.New(reg)
	healthSvc := healthuc.New(reg)

	server := NewServer(searchSvc, adminSvc, healthSvc, zap.NewNop())
	r := chirouter.NewRouter()
	server.Routes(r)
	return r
}

func defaultRegistry() *stubRegistry {
	return &stubRegistry{status: []registry.SlotStatus{
		{ID: "identity", State: "connected", Identity: true},
		{ID: "corpus-a", State: "connected", Database: "leaks"},
	}}
}

func TestHandleSearch_OK(t *testing.T) {
	corpora := []searchuc.Corpus{&stubCorpus{hits: []domcorpus.Hit{{
		Key:    "leaks:phonebook:1",
		Fields: map[string]string{"_id": "1", "phone": "13800000000", "name": "alice"},
	}}}}
	router := newTestRouter(t, corpora, defaultRegistry())

	body := `{"type":"phone","query":"13800000000"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp SearchResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 || resp.Reason != "charged" || resp.Cost != 1 {
		t.Errorf("resp = total %d reason %s cost %d", resp.Total, resp.Reason, resp.Cost)
	}
	if resp.Results[0].MatchedField != "phone" {
		t.Errorf("matched field = %s", resp.Results[0].MatchedField)
	}
	if strings.Contains(string(resp.Results[0].Record), "_id") {
		t.Error("record exposes _id")
	}
}

func TestHandleSearch_UnsupportedType(t *testing.T) {
	router := newTestRouter(t, []searchuc.Corpus{&stubCorpus{}}, defaultRegistry())

	body := `{"type":"passport","query":"x"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	var errResp ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errResp.Code != CodeUnsupportedSearchType {
		t.Errorf("code = %s", errResp.Code)
	}
}

func TestHandleSearch_NoCorpora(t *testing.T) {
	router := newTestRouter(t, nil, defaultRegistry())

	body := `{"type":"phone","query":"13800000000"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestHandleSearch_MalformedBody(t *testing.T) {
	router := newTestRouter(t, []searchuc.Corpus{&stubCorpus{}}, defaultRegistry())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader("{"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestHandleListCorpora(t *testing.T) {
	router := newTestRouter(t, nil, defaultRegistry())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/corpora", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp CorporaResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Corpora) != 2 || resp.Corpora[0].ID != "identity" {
		t.Errorf("corpora = %v", resp.Corpora)
	}
}

func TestHandleApplyCorpora_RejectsIncomplete(t *testing.T) {
	router := newTestRouter(t, nil, defaultRegistry())

	body := `{"corpora":[{"id":"corpus-x"}]}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/corpora", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
}

func TestHandleTestCorpus_ReportsFailure(t *testing.T) {
	reg := defaultRegistry()
	reg.testErr = context.DeadlineExceeded
	router := newTestRouter(t, nil, reg)

	body := `{"id":"corpus-x","host":"10.0.0.9","database":"leaks"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/corpora/test", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp TestCorpusResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.OK || resp.Error == "" {
		t.Errorf("resp = %+v, want failure", resp)
	}
}

func TestHandleHealth_DegradedStaysOK(t *testing.T) {
	reg := &stubRegistry{status: []registry.SlotStatus{
		{ID: "identity", State: "connected", Identity: true},
		{ID: "corpus-a", State: "error"},
	}}
	router := newTestRouter(t, nil, reg)

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "degraded" || resp.Checks["corpus-a"] != "error" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHandleHealth_IdentityDownIs503(t *testing.T) {
	reg := &stubRegistry{status: []registry.SlotStatus{
		{ID: "identity", State: "error", Identity: true},
	}}
	router := newTestRouter(t, nil, reg)

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rr.Code)
	}
}
