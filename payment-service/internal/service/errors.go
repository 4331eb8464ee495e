package service

import "errors"

var (
	ErrInvalidOrderID      = errors.New("orderId must be a positive integer")
	ErrNegativeAmount      = errors.New("amount must not be negative")
	ErrInvalidStatus       = errors.New("unknown payment status")
	ErrInconsistentPayment = errors.New("isPayed must be true exactly when paymentStatus is COMPLETED")
	ErrIllegalTransition   = errors.New("illegal transition of payment status")
)
