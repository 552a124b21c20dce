package entity

import "errors"

var (
	// Event errors
	ErrEventNotFound  = errors.New("event not found")
	ErrEventCancelled = errors.New("event is cancelled")

	// Ticket type errors
	ErrTicketTypeNotFound = errors.New("ticket type not found")
	ErrTicketTypeMismatch = errors.New("ticket type does not belong to event")
	ErrSoldOut            = errors.New("tickets are sold out")

	// Ticket errors
	ErrTicketNotFound = errors.New("ticket not found")
	ErrAlreadyExists  = errors.New("record already exists")
	ErrCannotModify   = errors.New("record cannot be modified")

	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotAuthorized      = errors.New("not authorized")

	// General errors
	ErrInvalidInput     = errors.New("invalid input")
	ErrConcurrentUpdate = errors.New("concurrent update detected")
	ErrSystemError      = errors.New("system error")
)
