package transactions

import "errors"

var (
	// ErrNotFound is returned when a referenced transaction is absent.
	ErrNotFound = errors.New("transactions: transaction not found")
	// ErrInvalidQuantity is returned for delivered entries without a
	// positive quantity.
	ErrInvalidQuantity = errors.New("transactions: quantity must be greater than 0 for delivered entries")
	// ErrSellerNotFound is returned when the seller id is unknown.
	ErrSellerNotFound = errors.New("transactions: seller not found")
	// ErrBuyerNotFound is returned when the buyer id is unknown.
	ErrBuyerNotFound = errors.New("transactions: buyer not found")
)
