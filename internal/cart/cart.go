// Package cart implements the stock-aware cart ledger: an insertion-ordered
// list of lines unique by (product code, personalization message), where the
// total quantity per code never exceeds the product's stock ceiling.
package cart

import (
	"strings"
	"sync"

	"github.com/velvetoven/pastry_shop/internal/kvstore"
)

// StockResolver reports the purchase ceiling for a product code. ok is false
// when the code is unknown or uncapped, which both mean unlimited.
type StockResolver interface {
	StockLimit(code string) (limit int, ok bool)
}

// Item is one cart line. Name, Price and Image are copied from the catalog
// when the line is created and not re-synced afterwards.
type Item struct {
	Code     string  `json:"code"`
	Name     string  `json:"productName"`
	Price    float64 `json:"price"`
	Image    string  `json:"img"`
	Quantity int     `json:"quantity"`
	Message  string  `json:"message,omitempty"`
}

// NormalizeMessage folds the two spellings of "no personalization" into the
// empty string so they address the same line.
func NormalizeMessage(msg string) string {
	msg = strings.TrimSpace(msg)
	if strings.EqualFold(msg, "no message") {
		return ""
	}
	return msg
}

// Ledger is the cart of a single identity, bound to one storage key. Every
// mutation persists the full line list under that key. Stock ceilings are
// resolved fresh per operation, never cached, so catalog edits apply
// immediately. Business outcomes (caps, missing lines) are return values,
// never errors.
type Ledger struct {
	mu    sync.Mutex
	store *kvstore.Store
	stock StockResolver
	key   string
	items []Item
}

// Load reads the persisted cart under key, creating an empty ledger when
// nothing is stored there yet.
func Load(store *kvstore.Store, stock StockResolver, key string) *Ledger {
	items, _ := kvstore.Get[[]Item](store, key)
	return &Ledger{store: store, stock: stock, key: key, items: items}
}

func (l *Ledger) Key() string { return l.key }

// Items returns a copy of the lines in insertion order.
func (l *Ledger) Items() []Item {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Item, len(l.items))
	copy(out, l.items)
	return out
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// TotalForCode sums quantities across every personalization variant of code.
func (l *Ledger) TotalForCode(code string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalForCode(code)
}

func (l *Ledger) totalForCode(code string) int {
	total := 0
	for _, it := range l.items {
		if it.Code == code {
			total += it.Quantity
		}
	}
	return total
}

// Subtotal is the price-weighted sum over all lines.
func (l *Ledger) Subtotal() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	var sum float64
	for _, it := range l.items {
		sum += it.Price * float64(it.Quantity)
	}
	return sum
}

func (l *Ledger) find(code, message string) int {
	for i, it := range l.items {
		if it.Code == code && NormalizeMessage(it.Message) == message {
			return i
		}
	}
	return -1
}

// remaining reports how many more units of code fit under the ceiling.
// limited is false for uncapped products.
func (l *Ledger) remaining(code string) (rem int, limited bool) {
	limit, ok := l.stock.StockLimit(code)
	if !ok {
		return 0, false
	}
	rem = limit - l.totalForCode(code)
	if rem < 0 {
		rem = 0
	}
	return rem, true
}

func (l *Ledger) persist() {
	l.store.Set(l.key, l.items)
}

// Add puts one unit of item into the cart, merging into the line with the
// same (code, message). It returns false and leaves the cart untouched when
// the code's aggregate quantity is already at the stock ceiling.
func (l *Ledger) Add(item Item) bool {
	return l.AddMany(item, 1) > 0
}

// AddMany adds up to qty units of item and returns how many were actually
// added: the full request for uncapped products, otherwise at most what the
// ceiling still allows. Zero means no mutation occurred.
func (l *Ledger) AddMany(item Item, qty int) int {
	if qty <= 0 {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	add := qty
	if rem, limited := l.remaining(item.Code); limited {
		if rem < add {
			add = rem
		}
	}
	if add == 0 {
		return 0
	}

	msg := NormalizeMessage(item.Message)
	if i := l.find(item.Code, msg); i >= 0 {
		l.items[i].Quantity += add
	} else {
		item.Message = msg
		item.Quantity = add
		l.items = append(l.items, item)
	}
	l.persist()
	return add
}

// AddPersonalizedBatch adds one unit per entry of messages, each unit
// addressed to its own (code, message) line; duplicate messages coalesce.
// Units are granted prefix-greedy in request order until the code's shared
// stock pool runs out. Returns the number of units added.
func (l *Ledger) AddPersonalizedBatch(base Item, messages []string) int {
	if len(messages) == 0 {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	budget := len(messages)
	if rem, limited := l.remaining(base.Code); limited && rem < budget {
		budget = rem
	}
	if budget == 0 {
		return 0
	}

	added := 0
	for _, raw := range messages {
		if added == budget {
			break
		}
		msg := NormalizeMessage(raw)
		if i := l.find(base.Code, msg); i >= 0 {
			l.items[i].Quantity++
		} else {
			line := base
			line.Message = msg
			line.Quantity = 1
			l.items = append(l.items, line)
		}
		added++
	}
	l.persist()
	return added
}

// Remove deletes the line matching (code, message). Removing an absent line
// is a no-op.
func (l *Ledger) Remove(code, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.find(code, NormalizeMessage(message))
	if i < 0 {
		return
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	l.persist()
}

// SetQuantity sets the line's quantity directly, clamped so the code's
// aggregate stays under the ceiling given the other lines of the same code.
// A clamped result of zero deletes the line. Setting the current quantity
// again skips the persist. The resulting quantity is returned so the caller
// can surface partial fulfillment.
func (l *Ledger) SetQuantity(code, message string, qty int) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := NormalizeMessage(message)
	i := l.find(code, msg)
	if i < 0 {
		return 0
	}
	current := l.items[i].Quantity

	if limit, ok := l.stock.StockLimit(code); ok {
		max := limit - (l.totalForCode(code) - current)
		if max < 0 {
			max = 0
		}
		if qty > max {
			qty = max
		}
	}
	if qty < 0 {
		qty = 0
	}

	if qty == 0 {
		l.items = append(l.items[:i], l.items[i+1:]...)
		l.persist()
		return 0
	}
	if qty == current {
		return current
	}
	l.items[i].Quantity = qty
	l.persist()
	return qty
}

// Clear empties the cart and persists the empty list.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = nil
	l.persist()
}

// Replace swaps in items wholesale and persists. Lines sharing a composite
// key are coalesced, order of first appearance preserved. Identity
// transitions use this to install a merged cart.
func (l *Ledger) Replace(items []Item) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = Coalesce(items)
	l.persist()
}

// Merge folds src lines into dst: quantities sum on composite-key match,
// unmatched src lines append in order. Inputs are not modified.
func Merge(dst, src []Item) []Item {
	out := Coalesce(dst)
	for _, s := range src {
		s.Message = NormalizeMessage(s.Message)
		matched := false
		for i := range out {
			if out[i].Code == s.Code && NormalizeMessage(out[i].Message) == s.Message {
				out[i].Quantity += s.Quantity
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, s)
		}
	}
	return out
}

// Coalesce normalizes messages and merges duplicate composite keys, keeping
// first-appearance order and dropping non-positive quantities.
func Coalesce(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		it.Message = NormalizeMessage(it.Message)
		matched := false
		for i := range out {
			if out[i].Code == it.Code && out[i].Message == it.Message {
				out[i].Quantity += it.Quantity
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, it)
		}
	}
	return out
}
