package admin

import "errors"

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrAirlineExists   = errors.New("airline code already registered")
	ErrAirlineNotFound = errors.New("airline not found")
	ErrFlightExists    = errors.New("flight number already registered")
	ErrFlightNotFound  = errors.New("flight not found")
)
