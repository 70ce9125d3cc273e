package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrAccessDenied    = errors.New("access denied")
	ErrBudgetExceeded  = errors.New("estimated cost exceeds balance")
	ErrDebitRejected   = errors.New("debit failed, retry later")
	ErrUpstreamFailure = errors.New("upstream failure")
	ErrConfigFault     = errors.New("configuration fault")
)
