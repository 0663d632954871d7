// Package snapshot provides the durable backends the cart store persists its
// item list to. A snapshot is a single keyed entry holding the JSON-encoded
// items; absence or a parse failure is equivalent to an empty cart.
package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/novamart/storefront-backend/internal/cart"
)

func encodeItems(items []cart.LineItem) ([]byte, error) {
	if items == nil {
		items = []cart.LineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode cart snapshot: %w", err)
	}
	return data, nil
}

func decodeItems(data []byte) ([]cart.LineItem, error) {
	var items []cart.LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode cart snapshot: %w", err)
	}
	return items, nil
}
