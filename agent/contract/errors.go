package contract

import "errors"

var (
	ErrValidation              = errors.New("validation failed")
	ErrEmptyCartOnConfirm      = errors.New("cannot confirm an empty cart")
	ErrInvalidCartAtSubmission = errors.New("cart is invalid at submission")
	ErrIntentExtract           = errors.New("intent extraction failed")
	ErrSchemaViolation         = errors.New("model response violates schema")
)
