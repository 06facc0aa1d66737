package transport

import (
	"github.com/velvetoven/pastry_shop/internal/cart"
	"github.com/velvetoven/pastry_shop/internal/catalog"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AddToCartRequest struct {
	Code     string `json:"code"`
	Quantity int    `json:"quantity"`
	Message  string `json:"message"`
}

type BatchAddRequest struct {
	Code     string   `json:"code"`
	Messages []string `json:"messages"`
}

type SetQuantityRequest struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Quantity int    `json:"quantity"`
}

type RemoveItemRequest struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CartResponse reports the cart after a mutation. Added carries how many of
// the requested units made it in; the UI turns a shortfall into a
// "only N left" notice.
type CartResponse struct {
	Items     []cart.Item `json:"items"`
	Subtotal  float64     `json:"subtotal"`
	Added     int         `json:"added,omitempty"`
	Requested int         `json:"requested,omitempty"`
	Quantity  int         `json:"quantity,omitempty"`
}

type UpsertProductRequest struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Image       string  `json:"img"`
	Category    string  `json:"category"`
	Stock       *int    `json:"stock"`
}

func (r UpsertProductRequest) Product() catalog.Product {
	return catalog.Product{
		Code:        r.Code,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Image:       r.Image,
		Category:    r.Category,
		Stock:       r.Stock,
	}
}

type UpdateProfileRequest struct {
	Name string `json:"name"`
}

type AddAddressRequest struct {
	Label  string `json:"label"`
	Street string `json:"street"`
	City   string `json:"city"`
	Zip    string `json:"zip"`
	Phone  string `json:"phone"`
}
