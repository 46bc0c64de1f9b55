package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// CartLineView is the wire form of one cart line.
type CartLineView struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Slug      string `json:"slug,omitempty"`
	Image     string `json:"image,omitempty"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}

// CartView is the wire form of the cart; money is rendered with two decimals.
type CartView struct {
	Lines      []CartLineView `json:"lines"`
	ItemCount  int            `json:"item_count"`
	Total      string         `json:"total"`
	DrawerOpen bool           `json:"drawer_open"`
	Version    uint64         `json:"version"`
}
