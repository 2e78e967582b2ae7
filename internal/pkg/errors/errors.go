package errors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalid      = errors.New("invalid")
	ErrConflict     = errors.New("conflict")
	ErrInternal     = errors.New("internal")
	ErrUnavailable  = errors.New("unavailable")
	ErrSkipped      = errors.New("source kind not supported")
	ErrExhausted    = errors.New("retries exhausted")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsSkipped(err error) bool {
	return errors.Is(err, ErrSkipped)
}

func IsExhausted(err error) bool {
	return errors.Is(err, ErrExhausted)
}
