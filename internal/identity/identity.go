// Package identity maps cart owners to storage keys and implements the
// cart hand-off rules between the anonymous guest slot and authenticated
// accounts.
package identity

import (
	"strings"

	"github.com/velvetoven/pastry_shop/internal/cart"
	"github.com/velvetoven/pastry_shop/internal/kvstore"
)

// Account is an authenticated cart owner as reported by the auth layer.
type Account struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Sanitize lowercases id and collapses every run of non-alphanumeric
// characters into a single dash, with no leading or trailing dash.
func Sanitize(id string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(id) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			pendingSep = b.Len() > 0
			continue
		}
		if pendingSep {
			b.WriteByte('-')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CartKey returns the storage key owning acct's cart. Email is the primary
// identity, name the fallback.
func CartKey(acct *Account) string {
	id := acct.Email
	if id == "" {
		id = acct.Name
	}
	return "cart:user:" + Sanitize(id)
}

// GuestCartKey names the guest slot for one browser, identified by the
// guest cookie value.
func GuestCartKey(guestID string) string {
	if guestID == "" {
		return "cart:guest"
	}
	return "cart:guest:" + Sanitize(guestID)
}

// MergeOnLogin performs the guest-to-user transition: the guest cart folds
// into the user's persisted cart (quantities summed on composite-key match,
// unmatched guest lines appended), the merged result is persisted under the
// user key, and the guest slot is persisted empty. The merged ledger is
// returned as the active cart.
func MergeOnLogin(store *kvstore.Store, stock cart.StockResolver, guestKey, userKey string) *cart.Ledger {
	guest := cart.Load(store, stock, guestKey)
	user := cart.Load(store, stock, userKey)

	merged := cart.Merge(user.Items(), guest.Items())
	user.Replace(merged)
	guest.Clear()
	return user
}

// ResetGuest performs the user-to-guest transition: the guest slot is
// persisted empty and becomes the active cart. The previous user's cart
// stays intact under its own key.
func ResetGuest(store *kvstore.Store, stock cart.StockResolver, guestKey string) *cart.Ledger {
	guest := cart.Load(store, stock, guestKey)
	guest.Clear()
	return guest
}
