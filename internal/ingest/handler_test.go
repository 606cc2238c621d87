package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/marketgateway/internal/admission"
	alertapp "github.com/wyfcoding/marketgateway/internal/alert/application"
	alertdomain "github.com/wyfcoding/marketgateway/internal/alert/domain"
	"github.com/wyfcoding/marketgateway/internal/marketdata/application"
	"github.com/wyfcoding/marketgateway/internal/marketdata/domain"
)

type fakePriceRepo struct{}

func (fakePriceRepo) Save(context.Context, *domain.Price) error { return nil }
func (fakePriceRepo) FindBySymbol(context.Context, domain.PriceQuery) ([]*domain.Price, error) {
	return nil, nil
}
func (fakePriceRepo) FindLatest(context.Context, string) (*domain.Price, error) { return nil, nil }
func (fakePriceRepo) FindSince(context.Context, time.Time, int) ([]*domain.Price, error) {
	return nil, nil
}

type fakePriceCache struct{}

func (fakePriceCache) SetLatest(context.Context, *domain.Price) error { return nil }
func (fakePriceCache) GetLatest(context.Context, string) (*domain.Price, error) {
	return nil, nil
}

type fakeAnalysisStore struct {
	snapshots map[string]*domain.AnalysisSnapshot
}

func (s *fakeAnalysisStore) SaveSnapshot(_ context.Context, snap *domain.AnalysisSnapshot) error {
	s.snapshots[snap.SymbolCode] = snap
	return nil
}

func (s *fakeAnalysisStore) GetSnapshot(_ context.Context, code string) (*domain.AnalysisSnapshot, error) {
	return s.snapshots[code], nil
}

type fakeAlertRepo struct {
	alerts  []*alertdomain.Alert
	saveErr error
}

func (r *fakeAlertRepo) Save(_ context.Context, a *alertdomain.Alert) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	a.ID = uint64(len(r.alerts) + 1)
	r.alerts = append(r.alerts, a)
	return nil
}

func (r *fakeAlertRepo) FindByID(context.Context, uint64) (*alertdomain.Alert, error) {
	return nil, nil
}
func (r *fakeAlertRepo) FindAll(context.Context, alertdomain.AlertQuery) ([]*alertdomain.Alert, error) {
	return nil, nil
}
func (r *fakeAlertRepo) FindActive(context.Context) ([]*alertdomain.Alert, error) { return nil, nil }
func (r *fakeAlertRepo) Delete(context.Context, uint64) error                     { return nil }

type fakeSymbols struct{}

func (fakeSymbols) Exists(_ context.Context, code string) (bool, error) {
	return code == "AAPL", nil
}

type countPublisher struct {
	published int
}

func (p *countPublisher) Publish([]string, interface{}) { p.published++ }

type ingestFixture struct {
	router    *gin.Engine
	analysis  *fakeAnalysisStore
	alertRepo *fakeAlertRepo
	publisher *countPublisher
}

func newIngestFixture() *ingestFixture {
	gin.SetMode(gin.TestMode)

	f := &ingestFixture{
		analysis:  &fakeAnalysisStore{snapshots: make(map[string]*domain.AnalysisSnapshot)},
		alertRepo: &fakeAlertRepo{},
		publisher: &countPublisher{},
	}

	marketData := application.NewMarketDataService(
		fakePriceRepo{}, fakePriceCache{}, f.analysis, fakeSymbols{}, f.publisher, nil, "market.prices", nil)
	alerts := alertapp.NewAlertService(
		f.alertRepo, fakeSymbols{}, f.publisher, nil, "market.alerts", nil)

	filter := admission.NewFilter([]admission.Rule{
		{Method: http.MethodGet, Prefix: "/internal/health", Trust: admission.TrustOpen},
		{Prefix: "/internal/", Trust: admission.TrustInternal},
	}, nil, "test-secret", nil)

	f.router = gin.New()
	f.router.Use(filter.Middleware())
	NewHandler(marketData, alerts, "marketgateway").RegisterRoutes(f.router)
	return f
}

func post(r *gin.Engine, path, secret, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(admission.HeaderInternalSecret, secret)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAnalysisResultStoredAndBroadcast(t *testing.T) {
	f := newIngestFixture()

	body := `{"symbolCode":"AAPL","currentPrice":"187.33","sma":"185.10","ema":"186.02","volume":1000,"timestamp":"2026-08-31T10:15:00","windowSize":15}`
	w := post(f.router, "/internal/analysis-results", "test-secret", body)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body = %s", w.Code, w.Body.String())
	}
	if f.analysis.snapshots["AAPL"] == nil {
		t.Error("snapshot was not stored")
	}
	if f.publisher.published == 0 {
		t.Error("snapshot was not broadcast")
	}
	if !strings.Contains(w.Body.String(), `"status":"received"`) {
		t.Errorf("body = %s, want status received", w.Body.String())
	}
}

func TestInternalAlertCreated(t *testing.T) {
	f := newIngestFixture()

	body := `{"symbolCode":"AAPL","alertType":"PRICE_SPIKE","threshold":"5.00","details":"spike"}`
	w := post(f.router, "/internal/alerts", "test-secret", body)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body = %s", w.Code, w.Body.String())
	}
	if len(f.alertRepo.alerts) != 1 {
		t.Errorf("stored %d alerts, want 1", len(f.alertRepo.alerts))
	}
	if f.publisher.published != 1 {
		t.Errorf("published %d events, want 1", f.publisher.published)
	}
}

func TestInternalAlertUnknownSymbol(t *testing.T) {
	f := newIngestFixture()

	body := `{"symbolCode":"MSFT","alertType":"PRICE_SPIKE","threshold":"5.00"}`
	w := post(f.router, "/internal/alerts", "test-secret", body)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if len(f.alertRepo.alerts) != 0 {
		t.Error("rejected alert must not be stored")
	}
}

func TestWrongSecretRejectedWithoutSideEffects(t *testing.T) {
	f := newIngestFixture()

	body := `{"symbolCode":"AAPL","alertType":"PRICE_SPIKE","threshold":"5.00"}`
	w := post(f.router, "/internal/alerts", "wrong-secret", body)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if len(f.alertRepo.alerts) != 0 {
		t.Error("rejected request must not persist anything")
	}
	if f.publisher.published != 0 {
		t.Error("rejected request must not broadcast")
	}
}

func TestInternalAlertStorageFailure(t *testing.T) {
	f := newIngestFixture()
	f.alertRepo.saveErr = errors.New("connection refused")

	body := `{"symbolCode":"AAPL","alertType":"PRICE_SPIKE","threshold":"5.00"}`
	w := post(f.router, "/internal/alerts", "test-secret", body)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"error"`) {
		t.Errorf("body = %s, want status error", w.Body.String())
	}
	if f.publisher.published != 0 {
		t.Error("failed alert must not be broadcast")
	}
}

// 健康检查供协作服务探活，不携带密钥也必须可达
func TestInternalHealthOpenWithoutSecret(t *testing.T) {
	f := newIngestFixture()

	req := httptest.NewRequest(http.MethodGet, "/internal/health", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"UP"`) {
		t.Errorf("body = %s, want status UP", w.Body.String())
	}
}
