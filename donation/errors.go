package donation

import (
	"errors"
	"fmt"
)

// User-facing status messages
const (
	MessageInvalidAmount   = "Enter a valid amount (example: 0.50)."
	MessageTooLarge        = "That amount is too large."
	MessagePaymentFailed   = "Payment failed."
	MessageRejected        = "Transaction rejected."
	MessageHostUnavailable = "Open this mini app inside Base App or Warpcast to donate."
	MessageSent            = "Donation sent. You just planted a tree feeling 🌿"
)

var (
	// ErrAttemptInFlight is returned while a payment is processing
	ErrAttemptInFlight = errors.New("a donation is already processing")

	// ErrClosed is returned once the card has been torn down
	ErrClosed = errors.New("donation card closed")
)

// Reason classifies a ValidationError
type Reason string

const (
	ReasonInvalid  Reason = "invalid"
	ReasonTooLarge Reason = "too_large"
)

// ValidationError is an amount rejected before any gateway call
type ValidationError struct {
	Reason Reason
	Amount string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("amount %q rejected: %s", e.Amount, e.Reason)
}

// Message returns the text shown to the donor
func (e *ValidationError) Message() string {
	if e.Reason == ReasonTooLarge {
		return MessageTooLarge
	}
	return MessageInvalidAmount
}
