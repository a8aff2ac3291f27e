package booking

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")

	ErrFlightNotFound         = errors.New("flight not found")
	ErrFlightNotBookable      = errors.New("flight is not open for booking")
	ErrInsufficientSeats      = errors.New("not enough seats available")
	ErrPassengerCountMismatch = errors.New("passenger count must match seats booked")

	ErrBookingNotFound          = errors.New("booking not found")
	ErrBookingNotPending        = errors.New("booking is not pending")
	ErrReservationExpired       = errors.New("reservation has expired")
	ErrAlreadyCancelled         = errors.New("booking is already cancelled")
	ErrCancellationWindowPassed = errors.New("cannot cancel less than 24 hours before departure")

	ErrRateLimited = errors.New("rate limited")
)
