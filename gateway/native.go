/*
# Module: gateway/native.go
Native wallet binding: host-provided sendToken capability with base-unit amounts.

## Linked Modules
- [gateway/gateway](./gateway.go) - Gateway and Discoverer interfaces
- [gateway/transport](./transport.go) - HTTP transport
- [amount/normalize](../amount/normalize.go) - Base-unit conversion

## Tags
payments, gateway, wallet, capability-discovery

## Exports
NativeWallet, NewNativeWallet, SendTokenCapability

<!-- LinkedDoc RDF -->
@prefix code: <https://schema.codedoc.org/> .
<this> a code:Module ;
    code:name "gateway/native.go" ;
    code:description "Native wallet binding: host-provided sendToken capability with base-unit amounts" ;
    code:linksTo [
        code:name "gateway/gateway" ;
        code:path "./gateway.go" ;
        code:relationship "Gateway and Discoverer interfaces"
    ], [
        code:name "gateway/transport" ;
        code:path "./transport.go" ;
        code:relationship "HTTP transport"
    ], [
        code:name "amount/normalize" ;
        code:path "../amount/normalize.go" ;
        code:relationship "Base-unit conversion"
    ] ;
    code:exports :NativeWallet, :NewNativeWallet, :SendTokenCapability ;
    code:tags "payments", "gateway", "wallet", "capability-discovery" .
<!-- End LinkedDoc RDF -->
*/
package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/0xmdrakib/BaseTree/amount"
)

// SendTokenCapability is the capability the host must advertise
const SendTokenCapability = "actions.sendToken"

// NativeWallet sends tokens through the host wallet. It reports a structured
// success or failure immediately and has no status to poll.
type NativeWallet struct {
	transport
	token    string
	decimals int32
}

type capabilitiesResponse struct {
	Capabilities []string `json:"capabilities"`
}

type sendTokenRequest struct {
	Token            string `json:"token"`
	Amount           string `json:"amount"`
	RecipientAddress string `json:"recipientAddress"`
}

type sendTokenResponse struct {
	Success bool `json:"success"`
	Send    struct {
		Transaction string `json:"transaction"`
	} `json:"send"`
	Reason string    `json:"reason"`
	Error  *apiError `json:"error"`
}

type apiError struct {
	Message string `json:"message"`
}

// NewNativeWallet creates a native wallet binding for token (a CAIP-19 asset id)
// with the given number of decimals
func NewNativeWallet(baseURL, apiKey, token string, decimals int32, opts ...Option) *NativeWallet {
	return &NativeWallet{
		transport: newTransport(baseURL, apiKey, opts),
		token:     token,
		decimals:  decimals,
	}
}

// Name returns the binding name
func (w *NativeWallet) Name() string {
	return "native"
}

// Available reports whether the host advertises the sendToken capability
func (w *NativeWallet) Available(ctx context.Context) (bool, error) {
	var resp capabilitiesResponse
	if err := w.do(ctx, http.MethodGet, "/v1/capabilities", nil, &resp); err != nil {
		return false, fmt.Errorf("failed to discover wallet capabilities: %w", err)
	}

	for _, c := range resp.Capabilities {
		if c == SendTokenCapability {
			return true, nil
		}
	}
	return false, nil
}

// Initiate sends req.Amount, converted to base units, to req.Recipient
func (w *NativeWallet) Initiate(ctx context.Context, req Request) (Outcome, error) {
	var resp sendTokenResponse
	err := w.do(ctx, http.MethodPost, "/v1/actions/send-token", sendTokenRequest{
		Token:            w.token,
		Amount:           amount.ToBaseUnits(req.Amount, w.decimals),
		RecipientAddress: req.Recipient,
	}, &resp)
	if err != nil {
		return Outcome{}, err
	}

	if resp.Success {
		return Succeeded(resp.Send.Transaction), nil
	}

	message := ""
	if resp.Error != nil {
		message = resp.Error.Message
	}
	if IsRejectionReason(resp.Reason) {
		return Rejection(resp.Reason, message), nil
	}
	if message == "" {
		message = resp.Reason
	}
	return Failure(message), nil
}
