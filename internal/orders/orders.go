// Package orders turns carts into persisted orders at checkout.
package orders

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/velvetoven/pastry_shop/internal/cart"
	"github.com/velvetoven/pastry_shop/internal/catalog"
	"github.com/velvetoven/pastry_shop/internal/kvstore"
)

var ErrEmptyCart = errors.New("no items in cart")

type Line struct {
	Code     string  `json:"code"`
	Name     string  `json:"productName"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Message  string  `json:"message,omitempty"`
}

type Order struct {
	ID        string    `json:"id"`
	Identity  string    `json:"identity"`
	Lines     []Line    `json:"lines"`
	Total     float64   `json:"total"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Service persists orders per identity and settles stock against the
// catalog at checkout.
type Service struct {
	Store   *kvstore.Store
	Catalog *catalog.Service

	mu sync.Mutex
}

func NewService(store *kvstore.Store, cat *catalog.Service) *Service {
	return &Service{Store: store, Catalog: cat}
}

func ordersKey(identity string) string {
	return "orders:" + identity
}

// Checkout converts the ledger into an order: line quantities are clamped to
// the stock still available (the cart may be stale against admin edits),
// stock is decremented per code, the cart is cleared and the order persisted
// under the identity's history. ErrEmptyCart when nothing survives clamping.
func (s *Service) Checkout(identity string, ledger *cart.Ledger) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := ledger.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	taken := make(map[string]int)
	var lines []Line
	var total float64
	for _, it := range items {
		qty := it.Quantity
		if limit, ok := s.Catalog.StockLimit(it.Code); ok {
			avail := limit - taken[it.Code]
			if avail < 0 {
				avail = 0
			}
			if qty > avail {
				qty = avail
			}
		}
		if qty == 0 {
			continue
		}
		taken[it.Code] += qty
		lines = append(lines, Line{
			Code:     it.Code,
			Name:     it.Name,
			Price:    it.Price,
			Quantity: qty,
			Message:  it.Message,
		})
		total += it.Price * float64(qty)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	for code, qty := range taken {
		// unknown codes are skipped inside AdjustStock via ErrNotFound
		_ = s.Catalog.AdjustStock(code, -qty)
	}

	order := Order{
		ID:        uuid.NewString(),
		Identity:  identity,
		Lines:     lines,
		Total:     total,
		Status:    "new",
		CreatedAt: time.Now().UTC(),
	}

	history, _ := kvstore.Get[[]Order](s.Store, ordersKey(identity))
	history = append(history, order)
	s.Store.Set(ordersKey(identity), history)

	ledger.Clear()
	return &order, nil
}

// List returns the identity's order history, newest last.
func (s *Service) List(identity string) []Order {
	history, _ := kvstore.Get[[]Order](s.Store, ordersKey(identity))
	return history
}
