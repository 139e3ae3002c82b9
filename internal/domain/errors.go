package domain

import "errors"

var (
	ErrInvalidID       = errors.New("invalid id")
	ErrInvalidName     = errors.New("invalid name")
	ErrInvalidTitle    = errors.New("invalid title")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidRepeat   = errors.New("invalid repeat frequency")
	ErrInvalidPosition = errors.New("invalid position")
	ErrInvalidKind     = errors.New("invalid move kind")
	ErrInvalidOutcome  = errors.New("invalid move outcome")
)
