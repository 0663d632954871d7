package cart

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// OfferID keys a vendor offer. Different producers send it as a JSON string
// or number, so identity is compared on the normalized string form.
type OfferID string

func (id OfferID) Normalized() string {
	return strings.TrimSpace(string(id))
}

// Equals compares two ids on their normalized string form.
func (id OfferID) Equals(other OfferID) bool {
	return id.Normalized() == other.Normalized()
}

func (id *OfferID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		*id = ""
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = OfferID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("offer id must be a string or number: %w", err)
	}
	*id = OfferID(n.String())
	return nil
}

// LineItem is a cart line. Price is snapshotted at add time and never
// re-fetched; OriginalPrice and Discount are display-only references.
type LineItem struct {
	ID            OfferID          `json:"id"`
	Title         string           `json:"title"`
	Image         string           `json:"image,omitempty"`
	Category      string           `json:"category,omitempty"`
	Platform      string           `json:"platform,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	Discount      *decimal.Decimal `json:"discount,omitempty"`
	Quantity      int              `json:"quantity"`
	CategoryID    string           `json:"category_id,omitempty"`
	ProductID     string           `json:"product_id,omitempty"`
}

// LineTotal is price times quantity for this line.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// AddInput mirrors LineItem without a quantity; AddItem always starts at 1.
type AddInput struct {
	ID            OfferID          `json:"id"`
	Title         string           `json:"title"`
	Image         string           `json:"image,omitempty"`
	Category      string           `json:"category,omitempty"`
	Platform      string           `json:"platform,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	Discount      *decimal.Decimal `json:"discount,omitempty"`
	CategoryID    string           `json:"category_id,omitempty"`
	ProductID     string           `json:"product_id,omitempty"`
}

func (in AddInput) lineItem() LineItem {
	return LineItem{
		ID:            in.ID,
		Title:         in.Title,
		Image:         in.Image,
		Category:      in.Category,
		Platform:      in.Platform,
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		Discount:      in.Discount,
		Quantity:      1,
		CategoryID:    in.CategoryID,
		ProductID:     in.ProductID,
	}
}
