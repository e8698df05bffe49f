/*
# Module: gateway/hosted.go
Hosted checkout binding: one-tap USDC pay with optional status polling.

## Linked Modules
- [gateway/gateway](./gateway.go) - Gateway and Poller interfaces
- [gateway/transport](./transport.go) - HTTP transport

## Tags
payments, gateway, api-client, checkout

## Exports
HostedCheckout, NewHostedCheckout

<!-- LinkedDoc RDF -->
@prefix code: <https://schema.codedoc.org/> .
<this> a code:Module ;
    code:name "gateway/hosted.go" ;
    code:description "Hosted checkout binding: one-tap USDC pay with optional status polling" ;
    code:linksTo [
        code:name "gateway/gateway" ;
        code:path "./gateway.go" ;
        code:relationship "Gateway and Poller interfaces"
    ], [
        code:name "gateway/transport" ;
        code:path "./transport.go" ;
        code:relationship "HTTP transport"
    ] ;
    code:exports :HostedCheckout, :NewHostedCheckout ;
    code:tags "payments", "gateway", "api-client", "checkout" .
<!-- End LinkedDoc RDF -->
*/
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// HostedCheckout pays through a hosted checkout service. The service answers
// with a transaction hash, or with a payment id that can be polled once.
type HostedCheckout struct {
	transport
}

type payRequest struct {
	Amount  string `json:"amount"`
	To      string `json:"to"`
	Testnet bool   `json:"testnet"`
}

type payResponse struct {
	TransactionHash string `json:"transactionHash"`
	TxHash          string `json:"txHash"`
	ID              string `json:"id"`
	Status          string `json:"status"`
	Reason          string `json:"reason"`
	Message         string `json:"message"`
}

// NewHostedCheckout creates a hosted checkout binding
func NewHostedCheckout(baseURL, apiKey string, opts ...Option) *HostedCheckout {
	return &HostedCheckout{transport: newTransport(baseURL, apiKey, opts)}
}

// Name returns the binding name
func (c *HostedCheckout) Name() string {
	return "hosted"
}

// Initiate asks the checkout service to pay req.Amount USDC to req.Recipient
func (c *HostedCheckout) Initiate(ctx context.Context, req Request) (Outcome, error) {
	var resp payResponse
	err := c.do(ctx, http.MethodPost, "/v1/pay", payRequest{
		Amount:  req.Amount.Text,
		To:      req.Recipient,
		Testnet: req.Testnet,
	}, &resp)
	if err != nil {
		return Outcome{}, err
	}

	return resp.outcome(), nil
}

// PollStatus fetches the status of a payment started with Initiate
func (c *HostedCheckout) PollStatus(ctx context.Context, id string, testnet bool) (Outcome, error) {
	if id == "" {
		return Outcome{}, fmt.Errorf("payment id is required")
	}

	path := fmt.Sprintf("/v1/payments/%s/status?testnet=%s", url.PathEscape(id), strconv.FormatBool(testnet))

	var resp payResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return Outcome{}, err
	}
	if resp.ID == "" {
		resp.ID = id
	}
	return resp.outcome(), nil
}

func (r payResponse) outcome() Outcome {
	switch strings.ToLower(r.Status) {
	case "failed", "error":
		return Failure(r.Message)
	case "rejected", "cancelled", "canceled":
		return Rejection(r.Status, r.Message)
	}
	if IsRejectionReason(r.Reason) {
		return Rejection(r.Reason, r.Message)
	}

	if hash := firstNonEmpty(r.TransactionHash, r.TxHash); hash != "" {
		return Succeeded(hash)
	}
	if r.ID != "" {
		return Pending(r.ID)
	}
	return Succeeded("")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
