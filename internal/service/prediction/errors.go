package prediction

import "errors"

var (
	ErrInvalidQuantity = errors.New("prediction: quantity must be non-negative")
	ErrInvalidUnitCost = errors.New("prediction: unit cost must be non-negative")
	ErrStoreNotFound   = errors.New("prediction: store has no deployment history")
)
