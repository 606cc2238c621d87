package application

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/marketgateway/internal/alert/domain"
)

type fakeAlertRepo struct {
	alerts map[uint64]*domain.Alert
	nextID uint64
}

func newFakeAlertRepo() *fakeAlertRepo {
	return &fakeAlertRepo{alerts: make(map[uint64]*domain.Alert)}
}

func (r *fakeAlertRepo) Save(_ context.Context, a *domain.Alert) error {
	if a.ID == 0 {
		r.nextID++
		a.ID = r.nextID
	}
	r.alerts[a.ID] = a
	return nil
}

func (r *fakeAlertRepo) FindByID(_ context.Context, id uint64) (*domain.Alert, error) {
	return r.alerts[id], nil
}

func (r *fakeAlertRepo) FindAll(_ context.Context, q domain.AlertQuery) ([]*domain.Alert, error) {
	out := make([]*domain.Alert, 0, len(r.alerts))
	for _, a := range r.alerts {
		if q.SymbolCode != "" && a.SymbolCode != q.SymbolCode {
			continue
		}
		if q.AlertType != "" && a.AlertType != q.AlertType {
			continue
		}
		if q.Start != nil && a.TriggeredAt.Before(*q.Start) {
			continue
		}
		if q.End != nil && a.TriggeredAt.After(*q.End) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TriggeredAt.After(out[j].TriggeredAt) })
	return out, nil
}

func (r *fakeAlertRepo) FindActive(ctx context.Context) ([]*domain.Alert, error) {
	all, _ := r.FindAll(ctx, domain.AlertQuery{})
	var out []*domain.Alert
	for _, a := range all {
		if !a.Acknowledged {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAlertRepo) Delete(_ context.Context, id uint64) error {
	delete(r.alerts, id)
	return nil
}

type fakeSymbols struct {
	known map[string]bool
}

func (s *fakeSymbols) Exists(_ context.Context, code string) (bool, error) {
	return s.known[code], nil
}

type capturePublisher struct {
	topics [][]string
}

func (p *capturePublisher) Publish(topics []string, _ interface{}) {
	p.topics = append(p.topics, topics)
}

func newTestAlertService() (*AlertService, *capturePublisher) {
	pub := &capturePublisher{}
	svc := NewAlertService(
		newFakeAlertRepo(),
		&fakeSymbols{known: map[string]bool{"AAPL": true}},
		pub,
		nil,
		"market.alerts",
		nil,
	)
	return svc, pub
}

func spikeCommand(code string) CreateAlertCommand {
	return CreateAlertCommand{
		SymbolCode: code,
		AlertType:  "PRICE_SPIKE",
		Threshold:  decimal.RequireFromString("5.00"),
		Details:    "price moved more than 5% in one minute",
	}
}

func TestCreateAlertBroadcasts(t *testing.T) {
	svc, pub := newTestAlertService()

	alert, err := svc.Create(context.Background(), spikeCommand("aapl"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if alert.ID == 0 {
		t.Error("alert was not persisted before returning")
	}
	if alert.SymbolCode != "AAPL" {
		t.Errorf("SymbolCode = %q, want AAPL", alert.SymbolCode)
	}
	if alert.Acknowledged {
		t.Error("new alert must start unacknowledged")
	}
	if alert.TriggeredAt.IsZero() {
		t.Error("TriggeredAt must be defaulted")
	}

	if len(pub.topics) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.topics))
	}
	topics := pub.topics[0]
	if len(topics) != 2 || topics[0] != "alerts" || topics[1] != "alerts/AAPL" {
		t.Errorf("published topics = %v, want [alerts alerts/AAPL]", topics)
	}
}

func TestCreateAlertUnknownSymbol(t *testing.T) {
	svc, pub := newTestAlertService()

	_, err := svc.Create(context.Background(), spikeCommand("MSFT"))
	if !errors.Is(err, domain.ErrUnknownSymbol) {
		t.Errorf("Create() error = %v, want ErrUnknownSymbol", err)
	}
	if len(pub.topics) != 0 {
		t.Error("rejected alert must not be broadcast")
	}
}

func TestAcknowledgeAlert(t *testing.T) {
	svc, _ := newTestAlertService()
	ctx := context.Background()

	created, err := svc.Create(ctx, spikeCommand("AAPL"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	acked, err := svc.Acknowledge(ctx, created.ID)
	if err != nil {
		t.Fatalf("Acknowledge() error = %v", err)
	}
	if !acked.Acknowledged {
		t.Error("Acknowledge() did not set the flag")
	}
	if acked.AlertType != created.AlertType || !acked.Threshold.Equal(created.Threshold) {
		t.Error("Acknowledge() must not change other fields")
	}

	active, err := svc.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if len(active) != 0 {
		t.Errorf("ListActive() returned %d alerts, want 0", len(active))
	}

	all, err := svc.List(ctx, domain.AlertQuery{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 1 {
		t.Errorf("List() returned %d alerts, want 1", len(all))
	}
}

func TestListAlertsFiltered(t *testing.T) {
	pub := &capturePublisher{}
	svc := NewAlertService(
		newFakeAlertRepo(),
		&fakeSymbols{known: map[string]bool{"AAPL": true, "MSFT": true}},
		pub,
		nil,
		"market.alerts",
		nil,
	)
	ctx := context.Background()

	base := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	seed := []CreateAlertCommand{
		{SymbolCode: "AAPL", AlertType: "PRICE_SPIKE", Threshold: decimal.RequireFromString("5.00"), TriggeredAt: base},
		{SymbolCode: "AAPL", AlertType: "PRICE_DROP", Threshold: decimal.RequireFromString("3.00"), TriggeredAt: base.Add(time.Hour)},
		{SymbolCode: "MSFT", AlertType: "PRICE_SPIKE", Threshold: decimal.RequireFromString("5.00"), TriggeredAt: base.Add(2 * time.Hour)},
	}
	for _, cmd := range seed {
		if _, err := svc.Create(ctx, cmd); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	afterFirst := base.Add(30 * time.Minute)
	beforeLast := base.Add(90 * time.Minute)

	tests := []struct {
		name  string
		query domain.AlertQuery
		want  int
	}{
		{"no filter", domain.AlertQuery{}, 3},
		{"by symbol", domain.AlertQuery{SymbolCode: "AAPL"}, 2},
		{"symbol is normalized", domain.AlertQuery{SymbolCode: " aapl "}, 2},
		{"by type", domain.AlertQuery{AlertType: "PRICE_SPIKE"}, 2},
		{"symbol and type", domain.AlertQuery{SymbolCode: "AAPL", AlertType: "PRICE_SPIKE"}, 1},
		{"time window", domain.AlertQuery{Start: &afterFirst, End: &beforeLast}, 1},
		{"no match", domain.AlertQuery{SymbolCode: "AAPL", AlertType: "VOLUME_SPIKE"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.List(ctx, tt.query)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("List() returned %d alerts, want %d", len(got), tt.want)
			}
		})
	}
}

func TestAlertNotFound(t *testing.T) {
	svc, _ := newTestAlertService()
	ctx := context.Background()

	if _, err := svc.Get(ctx, 42); !errors.Is(err, domain.ErrAlertNotFound) {
		t.Errorf("Get() error = %v, want ErrAlertNotFound", err)
	}
	if _, err := svc.Acknowledge(ctx, 42); !errors.Is(err, domain.ErrAlertNotFound) {
		t.Errorf("Acknowledge() error = %v, want ErrAlertNotFound", err)
	}
	if err := svc.Delete(ctx, 42); !errors.Is(err, domain.ErrAlertNotFound) {
		t.Errorf("Delete() error = %v, want ErrAlertNotFound", err)
	}
}
