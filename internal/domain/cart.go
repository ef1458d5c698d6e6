package domain

// CartItem is a client-held line: a provider price reference plus quantity.
// The server never trusts a client-supplied amount, only the reference, which
// it re-resolves against the catalog.
type CartItem struct {
	PriceRef string `json:"priceRef"`
	Quantity int64  `json:"quantity"`
}

// CartItemError reports a per-item validation failure. Available carries the
// sellable stock count when the failure is an inventory shortfall. Kind
// classifies the failure for transport mapping and is not part of the wire
// format.
type CartItemError struct {
	PriceRef  string    `json:"priceRef"`
	Error     string    `json:"error"`
	Available *int      `json:"available,omitempty"`
	Kind      ErrorKind `json:"-"`
}

// CartValidation is the outcome of validating a whole cart. Errors preserve
// the input item order.
type CartValidation struct {
	Valid  bool            `json:"valid"`
	Errors []CartItemError `json:"errors,omitempty"`
}

const (
	// MaxCartItems bounds external calls per request.
	MaxCartItems = 100
	// MaxItemQuantity is the largest quantity accepted for a single line.
	MaxItemQuantity = 999
)
