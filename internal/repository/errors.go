package repository

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrSeatsUnavailable  = errors.New("not enough seats available")
	ErrSeatBoundExceeded = errors.New("seat count out of bounds")
)
