package cart

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
}

// Quantity is a pointer so an explicit zero is distinguishable from a
// missing field. Zero and negatives remove the line.
type setQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}
