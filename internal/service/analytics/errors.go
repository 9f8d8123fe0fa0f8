package analytics

import "errors"

// Sentinel errors for the analytics layer.
var (
	ErrInvalidAttribute = errors.New("invalid store attribute")
	ErrInvalidGroupBy   = errors.New("invalid time grouping")
	ErrInvalidMetric    = errors.New("invalid ranking metric")
)
