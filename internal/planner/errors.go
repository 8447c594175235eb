package planner

import "errors"

// Domain-level error values returned by the planner service and its stores.
var (
	ErrStaleSnapshot         = errors.New("stale snapshot")
	ErrUnknownEnvelope       = errors.New("unknown envelope")
	ErrUnknownDebt           = errors.New("unknown debt snapshot")
	ErrDuplicateEnvelopeName = errors.New("duplicate envelope name")
	ErrInvalidBudgetID       = errors.New("invalid budget id")
	ErrInvalidListLimit      = errors.New("invalid list limit")
	ErrInvalidServiceConfig  = errors.New("invalid service config")
)
