package catalog

import (
	"errors"
	"strings"
	"sync"

	"github.com/velvetoven/pastry_shop/internal/kvstore"
)

const storeKey = "catalog:products"

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
)

type Product struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Image       string  `json:"img"`
	Category    string  `json:"category"`
	// Stock is the shared purchase ceiling for the code. Nil means the
	// product can be bought without limit.
	Stock *int `json:"stock,omitempty"`
}

// Service reads and writes the product catalog persisted in the store,
// falling back to the seed list while nothing has been saved yet. Lookups
// always hit the store so that admin edits apply on the very next cart
// operation.
type Service struct {
	Store *kvstore.Store

	// writes go through one mutex so list read-modify-write cycles from
	// admin handlers do not trample each other
	mu sync.Mutex
}

func NewService(store *kvstore.Store) *Service {
	return &Service{Store: store}
}

// Products returns the persisted catalog, or the seed list when none exists.
func (s *Service) Products() []Product {
	if items, ok := kvstore.Get[[]Product](s.Store, storeKey); ok {
		return items
	}
	return Seed()
}

func (s *Service) FindByCode(code string) (*Product, bool) {
	for _, p := range s.Products() {
		if p.Code == code {
			prod := p
			return &prod, true
		}
	}
	return nil, false
}

// StockLimit resolves the purchase ceiling for a product code. The second
// result is false when the code is unknown or the product carries no stock
// figure, both of which mean unlimited.
func (s *Service) StockLimit(code string) (int, bool) {
	p, ok := s.FindByCode(code)
	if !ok || p.Stock == nil || *p.Stock < 0 {
		return 0, false
	}
	return *p.Stock, true
}

// Upsert creates or replaces the product with p.Code and persists the list.
func (s *Service) Upsert(p Product) error {
	p.Code = strings.TrimSpace(p.Code)
	if p.Code == "" {
		return ErrValidation
	}
	if p.Price < 0 {
		return ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.Products()
	replaced := false
	for i := range items {
		if items[i].Code == p.Code {
			items[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		items = append(items, p)
	}
	s.Store.Set(storeKey, items)
	return nil
}

func (s *Service) Delete(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.Products()
	for i := range items {
		if items[i].Code == code {
			items = append(items[:i], items[i+1:]...)
			s.Store.Set(storeKey, items)
			return nil
		}
	}
	return ErrNotFound
}

// AdjustStock shifts a limited product's stock by delta, clamped at zero.
// Unlimited products are left untouched. Checkout uses negative deltas.
func (s *Service) AdjustStock(code string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.Products()
	for i := range items {
		if items[i].Code != code {
			continue
		}
		if items[i].Stock == nil {
			return nil
		}
		next := *items[i].Stock + delta
		if next < 0 {
			next = 0
		}
		items[i].Stock = &next
		s.Store.Set(storeKey, items)
		return nil
	}
	return ErrNotFound
}
