package catalog

import "errors"

// Product is a sellable item. Price is in minor currency units (rupiah).
// ClassIndex is the recognition-class label the trained classifier emits
// for this product; it is unique across the catalog.
type Product struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Price      int64  `json:"price"`
	Stock      int64  `json:"stock"`
	ClassIndex int    `json:"class_index"`
}

// ErrProductNotFound indicates no product matches the given key.
var ErrProductNotFound = errors.New("catalog: product not found")

// ErrInvalidStock indicates a negative stock value.
var ErrInvalidStock = errors.New("catalog: stock must be >= 0")

// ErrInvalidPrice indicates a negative price value.
var ErrInvalidPrice = errors.New("catalog: price must be >= 0")

// UpdateStockInput describes an administrative stock/price overwrite.
type UpdateStockInput struct {
	ProductID int64
	Stock     int64
	Price     int64
	ActorID   int64
}
