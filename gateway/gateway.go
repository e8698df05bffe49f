/*
# Module: gateway/gateway.go
Payment capability interface, request and outcome types, and gateway errors.

## Linked Modules
- [amount/normalize](../amount/normalize.go) - Amount carried by a payment request

## Tags
payments, gateway, interface

## Exports
Gateway, Poller, Discoverer, Capability, Request, Outcome, Kind, Error, ErrRejected, ErrCapabilityMissing

<!-- LinkedDoc RDF -->
@prefix code: <https://schema.codedoc.org/> .
<this> a code:Module ;
    code:name "gateway/gateway.go" ;
    code:description "Payment capability interface, request and outcome types, and gateway errors" ;
    code:linksTo [
        code:name "amount/normalize" ;
        code:path "../amount/normalize.go" ;
        code:relationship "Amount carried by a payment request"
    ] ;
    code:exports :Gateway, :Poller, :Discoverer, :Capability, :Request, :Outcome, :Kind, :Error ;
    code:tags "payments", "gateway", "interface" .
<!-- End LinkedDoc RDF -->
*/
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/0xmdrakib/BaseTree/amount"
)

var (
	// ErrRejected marks a payment the user declined in their wallet
	ErrRejected = errors.New("transaction rejected")

	// ErrCapabilityMissing is returned when the host does not offer the wallet capability
	ErrCapabilityMissing = errors.New("wallet capability not available")

	// ErrTransport marks a provider call that never produced a usable response
	ErrTransport = errors.New("payment provider unreachable")
)

// Gateway initiates a payment with one provider
type Gateway interface {
	Name() string
	Initiate(ctx context.Context, req Request) (Outcome, error)
}

// Poller is implemented by gateways that can confirm a pending payment later
type Poller interface {
	PollStatus(ctx context.Context, id string, testnet bool) (Outcome, error)
}

// Discoverer is implemented by gateways that must be advertised by the host before use
type Discoverer interface {
	Available(ctx context.Context) (bool, error)
}

// Capability is a gateway gated by capability discovery
type Capability interface {
	Gateway
	Discoverer
}

// Request is a single payment to initiate
type Request struct {
	Amount    amount.Amount
	Recipient string
	Testnet   bool
}

// Kind tags an Outcome
type Kind string

const (
	KindSuccess  Kind = "success"
	KindRejected Kind = "rejected"
	KindFailed   Kind = "failed"
)

// Outcome is the result a gateway reports for a payment.
// A success carries either a transaction Reference or a PendingID to poll.
type Outcome struct {
	Kind      Kind
	Reference string
	PendingID string
	Reason    string
	Message   string
}

// Succeeded returns a success outcome with an optional transaction reference
func Succeeded(reference string) Outcome {
	return Outcome{Kind: KindSuccess, Reference: reference}
}

// Pending returns a success outcome that has to be polled for its reference
func Pending(id string) Outcome {
	return Outcome{Kind: KindSuccess, PendingID: id}
}

// Rejection returns a user-rejection outcome
func Rejection(reason, message string) Outcome {
	return Outcome{Kind: KindRejected, Reason: reason, Message: message}
}

// Failure returns a failed outcome
func Failure(message string) Outcome {
	return Outcome{Kind: KindFailed, Message: message}
}

// Error is a provider error response
type Error struct {
	Status  int
	Reason  string
	Message string
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Reason != "":
		return fmt.Sprintf("%s (%s)", e.Message, e.Reason)
	case e.Message != "":
		return e.Message
	case e.Reason != "":
		return e.Reason
	default:
		return fmt.Sprintf("gateway error (status %d)", e.Status)
	}
}

// Is makes errors.Is(err, ErrRejected) true for rejection reasons
func (e *Error) Is(target error) bool {
	return target == ErrRejected && IsRejectionReason(e.Reason)
}

// IsRejectionReason reports whether a provider reason means the user declined
func IsRejectionReason(reason string) bool {
	switch strings.ToLower(strings.TrimSpace(reason)) {
	case "rejected_by_user", "user_rejected", "rejected", "user_cancelled", "cancelled", "canceled":
		return true
	default:
		return false
	}
}
