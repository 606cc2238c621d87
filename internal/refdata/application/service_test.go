package application

import (
	"context"
	"errors"
	"testing"

	"github.com/wyfcoding/marketgateway/internal/refdata/domain"
)

type fakeSymbolRepo struct {
	symbols map[uint64]*domain.Symbol
	nextID  uint64
}

func newFakeSymbolRepo() *fakeSymbolRepo {
	return &fakeSymbolRepo{symbols: make(map[uint64]*domain.Symbol), nextID: 1}
}

func (r *fakeSymbolRepo) Save(_ context.Context, s *domain.Symbol) error {
	if s.ID == 0 {
		s.ID = r.nextID
		r.nextID++
	}
	r.symbols[s.ID] = s
	return nil
}

func (r *fakeSymbolRepo) FindByID(_ context.Context, id uint64) (*domain.Symbol, error) {
	return r.symbols[id], nil
}

func (r *fakeSymbolRepo) FindByCode(_ context.Context, code string) (*domain.Symbol, error) {
	for _, s := range r.symbols {
		if s.Code == code {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeSymbolRepo) FindAll(_ context.Context) ([]*domain.Symbol, error) {
	out := make([]*domain.Symbol, 0, len(r.symbols))
	for _, s := range r.symbols {
		out = append(out, s)
	}
	return out, nil
}

func (r *fakeSymbolRepo) Delete(_ context.Context, id uint64) error {
	delete(r.symbols, id)
	return nil
}

func (r *fakeSymbolRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	s, _ := r.FindByCode(ctx, code)
	return s != nil, nil
}

func TestCreateSymbolNormalizesCode(t *testing.T) {
	svc := NewSymbolService(newFakeSymbolRepo())
	ctx := context.Background()

	symbol, err := svc.Create(ctx, CreateSymbolCommand{Code: " aapl ", Name: "Apple Inc.", InstrumentType: "STOCK"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if symbol.Code != "AAPL" {
		t.Errorf("Create() code = %q, want %q", symbol.Code, "AAPL")
	}
}

func TestCreateSymbolDuplicate(t *testing.T) {
	svc := NewSymbolService(newFakeSymbolRepo())
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateSymbolCommand{Code: "AAPL", Name: "Apple Inc.", InstrumentType: "STOCK"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err := svc.Create(ctx, CreateSymbolCommand{Code: "aapl", Name: "Apple again", InstrumentType: "STOCK"})
	if !errors.Is(err, domain.ErrSymbolExists) {
		t.Errorf("Create() error = %v, want ErrSymbolExists", err)
	}
}

func TestUpdateSymbolKeepsCode(t *testing.T) {
	svc := NewSymbolService(newFakeSymbolRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateSymbolCommand{Code: "AAPL", Name: "Apple Inc.", InstrumentType: "STOCK"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	updated, err := svc.Update(ctx, created.ID, UpdateSymbolCommand{Name: "Apple", InstrumentType: "EQUITY"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Code != "AAPL" {
		t.Errorf("Update() code = %q, want %q", updated.Code, "AAPL")
	}
	if updated.Name != "Apple" || updated.InstrumentType != "EQUITY" {
		t.Errorf("Update() = %+v, fields not applied", updated)
	}
}

func TestSymbolNotFound(t *testing.T) {
	svc := NewSymbolService(newFakeSymbolRepo())
	ctx := context.Background()

	if _, err := svc.Get(ctx, 42); !errors.Is(err, domain.ErrSymbolNotFound) {
		t.Errorf("Get() error = %v, want ErrSymbolNotFound", err)
	}
	if _, err := svc.GetByCode(ctx, "MSFT"); !errors.Is(err, domain.ErrSymbolNotFound) {
		t.Errorf("GetByCode() error = %v, want ErrSymbolNotFound", err)
	}
	if err := svc.Delete(ctx, 42); !errors.Is(err, domain.ErrSymbolNotFound) {
		t.Errorf("Delete() error = %v, want ErrSymbolNotFound", err)
	}
}
