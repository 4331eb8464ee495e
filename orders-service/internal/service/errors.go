package service

import "errors"

var (
	ErrNegativeFee       = errors.New("order fee must not be negative")
	ErrInvalidFee        = errors.New("order fee must have at most 2 decimal places and be below 10000000000")
	ErrMissingCart       = errors.New("order must reference a cart by cartId or userId")
	ErrUnknownCart       = errors.New("cart not found")
	ErrInvalidUser       = errors.New("user id must be positive")
	ErrInvalidStatus     = errors.New("unknown order status")
	ErrIllegalTransition = errors.New("illegal transition of order status")
)
