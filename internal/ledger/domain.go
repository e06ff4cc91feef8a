package ledger

import (
	"errors"
	"strings"
	"time"
)

// PaymentMethod enumerates settlement channels. The set is open ended;
// anything other than QRIS settles deferred.
type PaymentMethod string

const (
	// MethodCash is settled later by an admin confirming funds received.
	MethodCash PaymentMethod = "CASH"
	// MethodQRIS settles instantly.
	MethodQRIS PaymentMethod = "QRIS"
)

// Status is the transaction lifecycle state.
type Status string

const (
	// StatusPending awaits admin confirmation. Stock is untouched.
	StatusPending Status = "PENDING"
	// StatusPaid is terminal; a transaction reaches it exactly once.
	StatusPaid Status = "PAID"
)

// Transaction is one recorded sale. Items is the ordered list of item
// names as sold; quantity is represented by repetition. Monetary fields
// are minor currency units.
type Transaction struct {
	ID        int64         `json:"id"`
	CreatedAt time.Time     `json:"created_at"`
	Items     []string      `json:"items"`
	Total     int64         `json:"total"`
	CashIn    int64         `json:"cash_in"`
	Change    int64         `json:"change"`
	Method    PaymentMethod `json:"payment_method"`
	Status    Status        `json:"status"`
}

// itemsSeparator joins the item list into its persisted text form.
const itemsSeparator = ", "

// JoinItems serialises the ordered item list for storage.
func JoinItems(items []string) string {
	return strings.Join(items, itemsSeparator)
}

// SplitItems restores the ordered item list from its stored form.
func SplitItems(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, itemsSeparator)
}

// ErrNotFound indicates no transaction with the given id exists.
var ErrNotFound = errors.New("ledger: transaction not found")

// ErrNotPending indicates the transaction is already settled; the
// PENDING to PAID transition happens at most once.
var ErrNotPending = errors.New("ledger: transaction is not pending")

// PaidSummary aggregates the sales history: omzet counts settled
// transactions only, Count covers every recorded transaction.
type PaidSummary struct {
	Omzet int64
	Count int
}
