package checkout

import (
	"errors"

	"github.com/nusapos/nusapos/internal/ledger"
)

// CheckoutInput describes a cart ready to settle. Items is the ordered
// list of item names; duplicates express quantity. CashIn only matters
// for deferred methods.
type CheckoutInput struct {
	Items          []string
	Method         ledger.PaymentMethod
	CashIn         int64
	ActorID        int64
	IdempotencyKey string
}

// Receipt is what the caller gets back from a checkout.
type Receipt struct {
	ID     int64
	Status ledger.Status
	Total  int64
	Change int64
}

// ErrEmptyCart indicates a checkout without any sellable line.
var ErrEmptyCart = errors.New("checkout: cart is empty")

// ErrInvalidMethod indicates a missing payment method.
var ErrInvalidMethod = errors.New("checkout: payment method required")

// ErrInvalidAmount indicates a negative or insufficient cash amount.
var ErrInvalidAmount = errors.New("checkout: cash tendered is negative or below total")

// ErrNotDeletable indicates a settled transaction that only an admin
// may remove as an out-of-band correction.
var ErrNotDeletable = errors.New("checkout: only pending transactions can be deleted")
