package errors

import (
	"encoding/json"
	"fmt"
)

type AppError struct {
	Code    int    // HTTP status code or custom error code
	Message string // User-facing message
	Err     error  // Underlying error (optional)
}

const (
	ErrBadMessageFormat   = 1001
	ErrAuctionNotFound    = 1002
	ErrBidTooLow          = 1003
	ErrAuctionClosed      = 1004
	ErrSelfOutbid         = 1005
	ErrCeilingTooLow      = 1006
	ErrUnknownMessageType = 1007
	ErrRateLimited        = 1008
	ErrInvalidAuction     = 1009

	ErrInternalServer = 500
)

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ToJSON renders the error as a websocket/HTTP payload.
func (e *AppError) ToJSON() string {
	payload, err := json.Marshal(map[string]any{
		"type":    "error",
		"code":    e.Code,
		"message": e.Message,
	})
	if err != nil {
		return `{"type": "error", "message": "internal server error"}`
	}
	return string(payload)
}

// Wrapping utility
func Wrap(err error, message string) *AppError {
	return &AppError{Message: message, Err: err}
}

// Error creation utility
func New(code int, message string) *AppError {
	return &AppError{Code: code, Message: message}
}
