package service

import "errors"

var (
	ErrInvalidKey        = errors.New("productId and orderId must be positive integers")
	ErrInvalidQuantity   = errors.New("orderedQuantity must be greater than zero")
	ErrInvalidOrderID    = errors.New("orderId must be a positive integer")
	ErrMissingAddress    = errors.New("shippingAddress is required")
	ErrInvalidMethod     = errors.New("shippingMethod must be STANDARD or EXPRESS")
	ErrInvalidStatus     = errors.New("unknown shipment status")
	ErrIllegalTransition = errors.New("illegal transition of shipment status")
)
