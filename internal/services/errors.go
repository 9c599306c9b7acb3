package services

import (
	"errors"

	"github.com/markjakearzadon/projectpay-gobackend/internal/repository"
)

var (
	// ErrNotFound is returned when an id or order id resolves to nothing.
	ErrNotFound       = repository.ErrNotFound
	ErrDuplicateOrder = errors.New("order id already in use")
	ErrInvalidInput   = errors.New("invalid input")
	// ErrUnauthorized covers bad credentials, bad tokens and webhook key
	// mismatches.
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrAlreadyPaid  = errors.New("project is already paid")
)
