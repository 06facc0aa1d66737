package identity

import (
	"sync"

	"github.com/velvetoven/pastry_shop/internal/cart"
	"github.com/velvetoven/pastry_shop/internal/kvstore"
)

// Manager tracks the active identity of one shopping session and swaps the
// active cart on transitions. The auth layer drives it by calling
// SetIdentity whenever the authenticated account changes; nil means guest.
//
// Transition rules:
//   - guest -> user: merge the guest cart into the user's cart, clear the
//     guest slot.
//   - user -> guest: clear the guest slot and activate it; the user's cart
//     stays persisted under its own key.
//   - same identity: nothing happens.
//
// Construction is the "first mount": the initial identity's persisted cart
// is loaded as-is, with no transition logic.
type Manager struct {
	mu       sync.Mutex
	store    *kvstore.Store
	stock    cart.StockResolver
	guestKey string
	current  string
	active   *cart.Ledger
}

func NewManager(store *kvstore.Store, stock cart.StockResolver, guestKey string, acct *Account) *Manager {
	key := guestKey
	if acct != nil {
		key = CartKey(acct)
	}
	return &Manager{
		store:    store,
		stock:    stock,
		guestKey: guestKey,
		current:  key,
		active:   cart.Load(store, stock, key),
	}
}

// Active returns the ledger of the current identity.
func (m *Manager) Active() *cart.Ledger {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// SetIdentity switches the session to acct (nil for guest), applying the
// transition rules above.
func (m *Manager) SetIdentity(acct *Account) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := m.guestKey
	if acct != nil {
		key = CartKey(acct)
	}
	if key == m.current {
		return
	}

	switch {
	case m.current == m.guestKey:
		// login
		m.active = MergeOnLogin(m.store, m.stock, m.guestKey, key)
	case key == m.guestKey:
		// logout
		m.active = ResetGuest(m.store, m.stock, m.guestKey)
	default:
		// direct account switch: plain load, no merge
		m.active = cart.Load(m.store, m.stock, key)
	}
	m.current = key
}
