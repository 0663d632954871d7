package cart

import (
	cartsvc "github.com/novamart/storefront-backend/internal/cart"
	"github.com/shopspring/decimal"
)

// AddItemRequest is the add-to-cart payload. No quantity field: adding always
// starts at 1 and re-adding bumps the existing line.
type AddItemRequest struct {
	ID            cartsvc.OfferID  `json:"id" validate:"required"`
	Title         string           `json:"title" validate:"required"`
	Image         string           `json:"image,omitempty"`
	Category      string           `json:"category,omitempty"`
	Platform      string           `json:"platform,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	Discount      *decimal.Decimal `json:"discount,omitempty"`
	CategoryID    string           `json:"category_id,omitempty"`
	ProductID     string           `json:"product_id,omitempty"`
}

func (r AddItemRequest) toAddInput() cartsvc.AddInput {
	return cartsvc.AddInput{
		ID:            r.ID,
		Title:         r.Title,
		Image:         r.Image,
		Category:      r.Category,
		Platform:      r.Platform,
		Price:         r.Price,
		OriginalPrice: r.OriginalPrice,
		Discount:      r.Discount,
		CategoryID:    r.CategoryID,
		ProductID:     r.ProductID,
	}
}

// UpdateQuantityRequest sets a line's quantity exactly. Zero and negative
// values remove the line.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type ApplyCouponRequest struct {
	Code string `json:"code" validate:"required"`
}
