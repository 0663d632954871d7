package commerce

import "github.com/shopspring/decimal"

// CouponValidationInput is sent to the remote coupon validator. Category and
// product ids describe the cart contents so the server can judge eligibility.
type CouponValidationInput struct {
	Code         string          `json:"code"`
	CartSubtotal decimal.Decimal `json:"cart_subtotal"`
	CategoryIDs  []string        `json:"category_ids"`
	ProductIDs   []string        `json:"product_ids"`
}

// CouponResult carries the server-authoritative discount amount.
type CouponResult struct {
	Discount decimal.Decimal `json:"discount"`
}

// TaxInput describes the destination the tax service quotes against.
type TaxInput struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Country  string          `json:"country"`
	State    string          `json:"state"`
	City     string          `json:"city"`
	SellerID string          `json:"seller_id,omitempty"`
}

// TaxResult is the quoted tax total for the destination.
type TaxResult struct {
	TaxTotal decimal.Decimal `json:"tax_total"`
}

// PaymentMethod describes a method available for a destination country.
type PaymentMethod struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	RequiresCard bool   `json:"requires_card,omitempty"`
}

// OrderLine references a vendor offer in the order payload.
type OrderLine struct {
	OfferID  string `json:"offer_id"`
	Quantity int    `json:"quantity"`
}

// Billing is the billing block derived from the shipping form.
type Billing struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
}

// OrderInput is the order-creation payload.
type OrderInput struct {
	Items             []OrderLine `json:"items"`
	Billing           Billing     `json:"billing"`
	PaymentMethodCode string      `json:"payment_method_code"`
	CouponCode        string      `json:"coupon_code,omitempty"`
}

// OrderResult is returned on successful order creation.
type OrderResult struct {
	OrderNumber string `json:"order_number"`
}

// Profile carries the fields used to prefill the shipping form.
type Profile struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	Country    string `json:"country,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}
