package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velvetoven/pastry_shop/internal/cart"
	"github.com/velvetoven/pastry_shop/internal/kvstore"
)

type stubStock map[string]int

func (s stubStock) StockLimit(code string) (int, bool) {
	v, ok := s[code]
	return v, ok
}

func newStore(t *testing.T) *kvstore.Store {
	t.Helper()
	return kvstore.New(kvstore.NewMemoryBackend(), nil)
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"alice@example.com", "alice-example-com"},
		{"Alice.B@Example.COM", "alice-b-example-com"},
		{"  bob!! smith  ", "bob-smith"},
		{"___", ""},
		{"plain", "plain"},
		{"ab12", "ab12"},
		{"a--b", "a-b"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Sanitize(tt.in), "input %q", tt.in)
	}
}

func TestCartKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "cart:user:alice-example-com", CartKey(&Account{Name: "Alice", Email: "alice@example.com"}))
	// name fallback when the account has no email
	assert.Equal(t, "cart:user:alice", CartKey(&Account{Name: "Alice"}))
	assert.Equal(t, "cart:guest:b1", GuestCartKey("B1"))
	assert.Equal(t, "cart:guest", GuestCartKey(""))
}

func TestMergeOnLogin_SumsMatchingLines(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	stock := stubStock{}

	guest := cart.Load(store, stock, "cart:guest:g1")
	require.Equal(t, 2, guest.AddMany(cart.Item{Code: "A"}, 2))

	user := cart.Load(store, stock, "cart:user:u1")
	require.True(t, user.Add(cart.Item{Code: "A"}))

	active := MergeOnLogin(store, stock, "cart:guest:g1", "cart:user:u1")

	items := active.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)

	// guest slot persisted empty
	guestItems, ok := kvstore.Get[[]cart.Item](store, "cart:guest:g1")
	require.True(t, ok)
	assert.Len(t, guestItems, 0)

	// merged result persisted under the user key
	userItems, ok := kvstore.Get[[]cart.Item](store, "cart:user:u1")
	require.True(t, ok)
	require.Len(t, userItems, 1)
	assert.Equal(t, 3, userItems[0].Quantity)
}

func TestMergeOnLogin_AppendsUnmatchedGuestLines(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	stock := stubStock{}

	guest := cart.Load(store, stock, "cart:guest:g1")
	require.True(t, guest.Add(cart.Item{Code: "B"}))
	require.True(t, guest.Add(cart.Item{Code: "A", Message: "Hi"}))

	user := cart.Load(store, stock, "cart:user:u1")
	require.True(t, user.Add(cart.Item{Code: "A"}))

	active := MergeOnLogin(store, stock, "cart:guest:g1", "cart:user:u1")

	items := active.Items()
	require.Len(t, items, 3)
	// user lines first, guest lines appended in order
	assert.Equal(t, "A", items[0].Code)
	assert.Equal(t, "", items[0].Message)
	assert.Equal(t, "B", items[1].Code)
	assert.Equal(t, "A", items[2].Code)
	assert.Equal(t, "Hi", items[2].Message)
}

func TestMergeOnLogin_EmptyGuest(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	stock := stubStock{}

	user := cart.Load(store, stock, "cart:user:u1")
	require.True(t, user.Add(cart.Item{Code: "A"}))

	active := MergeOnLogin(store, stock, "cart:guest:g1", "cart:user:u1")
	require.Len(t, active.Items(), 1)
	assert.Equal(t, 1, active.Items()[0].Quantity)
}

func TestResetGuest_PreservesUserCart(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	stock := stubStock{}

	user := cart.Load(store, stock, "cart:user:u1")
	require.Equal(t, 5, user.AddMany(cart.Item{Code: "B"}, 5))

	active := ResetGuest(store, stock, "cart:guest:g1")
	assert.Len(t, active.Items(), 0)

	// the user's own key still holds their cart
	userItems, ok := kvstore.Get[[]cart.Item](store, "cart:user:u1")
	require.True(t, ok)
	require.Len(t, userItems, 1)
	assert.Equal(t, 5, userItems[0].Quantity)
}

func TestManager_FirstMountLoadsWithoutTransition(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	stock := stubStock{}

	// pre-existing guest cart from a previous run
	guest := cart.Load(store, stock, "cart:guest:g1")
	require.True(t, guest.Add(cart.Item{Code: "A"}))

	m := NewManager(store, stock, "cart:guest:g1", nil)
	items := m.Active().Items()
	require.Len(t, items, 1)
	assert.Equal(t, "A", items[0].Code)
}

func TestManager_LoginMergesAndClearsGuest(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	stock := stubStock{}

	user := cart.Load(store, stock, "cart:user:alice-example-com")
	require.True(t, user.Add(cart.Item{Code: "A"}))

	m := NewManager(store, stock, "cart:guest:g1", nil)
	require.Equal(t, 2, m.Active().AddMany(cart.Item{Code: "A"}, 2))

	m.SetIdentity(&Account{Name: "Alice", Email: "alice@example.com"})

	items := m.Active().Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)

	guestItems, ok := kvstore.Get[[]cart.Item](store, "cart:guest:g1")
	require.True(t, ok)
	assert.Len(t, guestItems, 0)
}

func TestManager_LogoutLeavesUserCartIntact(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	stock := stubStock{}
	acct := &Account{Name: "Alice", Email: "alice@example.com"}

	m := NewManager(store, stock, "cart:guest:g1", acct)
	require.Equal(t, 5, m.Active().AddMany(cart.Item{Code: "B"}, 5))

	m.SetIdentity(nil)
	assert.Len(t, m.Active().Items(), 0)

	userItems, ok := kvstore.Get[[]cart.Item](store, CartKey(acct))
	require.True(t, ok)
	require.Len(t, userItems, 1)
	assert.Equal(t, 5, userItems[0].Quantity)
}

func TestManager_SameIdentityIsNoop(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	stock := stubStock{}
	acct := &Account{Name: "Alice", Email: "alice@example.com"}

	m := NewManager(store, stock, "cart:guest:g1", acct)
	require.True(t, m.Active().Add(cart.Item{Code: "A"}))
	before := m.Active()

	m.SetIdentity(&Account{Name: "Alice", Email: "alice@example.com"})
	assert.Same(t, before, m.Active(), "same identity must not reload the cart")
}

func TestManager_AccountSwitchLoadsWithoutMerge(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	stock := stubStock{}

	m := NewManager(store, stock, "cart:guest:g1", &Account{Email: "a@x.com"})
	require.True(t, m.Active().Add(cart.Item{Code: "A"}))

	m.SetIdentity(&Account{Email: "b@x.com"})
	assert.Len(t, m.Active().Items(), 0, "direct account switch does not merge")

	aItems, ok := kvstore.Get[[]cart.Item](store, CartKey(&Account{Email: "a@x.com"}))
	require.True(t, ok)
	assert.Len(t, aItems, 1)
}
