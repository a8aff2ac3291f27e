package flights

import "errors"

var (
	ErrInvalidQuery   = errors.New("invalid search query")
	ErrFlightNotFound = errors.New("flight not found")
)
