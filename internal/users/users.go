// Package users keeps shop accounts and their addresses in the store.
package users

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/velvetoven/pastry_shop/internal/hash"
	"github.com/velvetoven/pastry_shop/internal/kvstore"
)

const storeKey = "users"

var (
	ErrValidation  = errors.New("validation")
	ErrNotFound    = errors.New("not found")
	ErrExists      = errors.New("already exists")
	ErrBadPassword = errors.New("wrong password")
)

type Address struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Street string `json:"street"`
	City   string `json:"city"`
	Zip    string `json:"zip"`
	Phone  string `json:"phone"`
}

type User struct {
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Addresses    []Address `json:"addresses"`
}

// persistedUser carries the hash that User hides from JSON responses.
type persistedUser struct {
	User
	PasswordHash string `json:"passwordHash"`
}

// Repo is the account store. All accounts live under one key, same as the
// rest of the shop state.
type Repo struct {
	Store *kvstore.Store

	mu sync.Mutex
}

func NewRepo(store *kvstore.Store) *Repo {
	return &Repo{Store: store}
}

func (r *Repo) load() []persistedUser {
	items, _ := kvstore.Get[[]persistedUser](r.Store, storeKey)
	return items
}

func (r *Repo) save(items []persistedUser) {
	r.Store.Set(storeKey, items)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account with a bcrypt-hashed password.
func (r *Repo) Register(name, email, password string) (*User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password required: %w", ErrValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	items := r.load()
	for _, u := range items {
		if normalizeEmail(u.Email) == email {
			return nil, fmt.Errorf("user %s: %w", email, ErrExists)
		}
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := persistedUser{
		User: User{
			Name:  name,
			Email: email,
			Role:  "user",
		},
		PasswordHash: pwHash,
	}
	items = append(items, u)
	r.save(items)

	out := u.User
	return &out, nil
}

// Authenticate returns the account when the password matches.
func (r *Repo) Authenticate(email, password string) (*User, error) {
	u, err := r.FindByEmail(email)
	if err != nil {
		return nil, err
	}
	if !hash.CheckPassword(u.PasswordHash, password) {
		return nil, ErrBadPassword
	}
	return u, nil
}

func (r *Repo) FindByEmail(email string) (*User, error) {
	email = normalizeEmail(email)
	for _, u := range r.load() {
		if normalizeEmail(u.Email) == email {
			out := u.User
			out.PasswordHash = u.PasswordHash
			return &out, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
}

// UpdateProfile changes the display name of the account.
func (r *Repo) UpdateProfile(email, name string) (*User, error) {
	return r.update(email, func(u *persistedUser) error {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("name required: %w", ErrValidation)
		}
		u.Name = name
		return nil
	})
}

// AddAddress appends an address and returns the updated account.
func (r *Repo) AddAddress(email string, addr Address) (*User, error) {
	return r.update(email, func(u *persistedUser) error {
		if strings.TrimSpace(addr.Street) == "" || strings.TrimSpace(addr.City) == "" {
			return fmt.Errorf("street and city required: %w", ErrValidation)
		}
		if addr.ID == "" {
			addr.ID = uuid.NewString()
		}
		u.Addresses = append(u.Addresses, addr)
		return nil
	})
}

// RemoveAddress deletes the address with id; unknown ids are a no-op.
func (r *Repo) RemoveAddress(email, id string) (*User, error) {
	return r.update(email, func(u *persistedUser) error {
		for i, a := range u.Addresses {
			if a.ID == id {
				u.Addresses = append(u.Addresses[:i], u.Addresses[i+1:]...)
				break
			}
		}
		return nil
	})
}

func (r *Repo) update(email string, fn func(*persistedUser) error) (*User, error) {
	email = normalizeEmail(email)

	r.mu.Lock()
	defer r.mu.Unlock()

	items := r.load()
	for i := range items {
		if normalizeEmail(items[i].Email) != email {
			continue
		}
		if err := fn(&items[i]); err != nil {
			return nil, err
		}
		r.save(items)
		out := items[i].User
		return &out, nil
	}
	return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
}
