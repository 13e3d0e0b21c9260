package models

import "errors"

// Custom errors
var (
	ErrInvalidSignal = errors.New("invalid signal")
	ErrNoMarketData  = errors.New("no market data")
	ErrComputation   = errors.New("computation error")
	ErrNotFound      = errors.New("record not found")
)
