package supply

import "errors"

var (
	// ErrSellerNotFound is returned when the seller id is unknown.
	ErrSellerNotFound = errors.New("supply: seller not found")
	// ErrInvalidQuantity is returned for entries without a positive quantity.
	ErrInvalidQuantity = errors.New("supply: quantity must be greater than 0")
)
