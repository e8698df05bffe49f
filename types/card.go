/*
# Module: types/card.go
Donation card state as served to the mini app front end.

## Linked Modules
- [types/profile](./profile.go) - Profile shown on the card

## Tags
data-types, donation, api

## Exports
CardState, Receipt, AmountRequest, CreateCardRequest

<!-- LinkedDoc RDF -->
@prefix code: <https://schema.codedoc.org/> .
<this> a code:Module ;
    code:name "types/card.go" ;
    code:description "Donation card state as served to the mini app front end" ;
    code:linksTo [
        code:name "types/profile" ;
        code:path "./profile.go" ;
        code:relationship "Profile shown on the card"
    ] ;
    code:exports :CardState, :Receipt, :AmountRequest, :CreateCardRequest ;
    code:tags "data-types", "donation", "api" .
<!-- End LinkedDoc RDF -->
*/
package types

import "time"

// CardState is a snapshot of one donation card
type CardState struct {
	ID             string    `json:"id"`
	Status         string    `json:"status"` // "idle", "processing", "success", "error"
	Message        string    `json:"message,omitempty"`
	Locked         bool      `json:"locked"`
	Preset         string    `json:"preset"`
	Presets        []string  `json:"presets"`
	Custom         string    `json:"custom"`
	Amount         string    `json:"amount"`
	Receipt        *Receipt  `json:"receipt,omitempty"`
	Stage          int       `json:"stage"`
	StageLabel     string    `json:"stageLabel,omitempty"`
	StageEmoji     string    `json:"stageEmoji"`
	Recipient      string    `json:"recipient"`
	RecipientShort string    `json:"recipientShort"`
	VerifyURL      string    `json:"verifyUrl"`
	Binding        string    `json:"binding,omitempty"`
	Profile        *Profile  `json:"profile,omitempty"`
	Ready          bool      `json:"ready"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Receipt links a successful donation to its transaction
type Receipt struct {
	TransactionHash string `json:"transactionHash"`
	ShortHash       string `json:"shortHash"`
	ExplorerURL     string `json:"explorerUrl"`
	VerifyURL       string `json:"verifyUrl"`
}

// AmountRequest is the body of PUT /api/cards/{id}/amount
type AmountRequest struct {
	Preset string  `json:"preset"`
	Custom *string `json:"custom,omitempty"`
}

// CreateCardRequest is the optional body of POST /api/cards
type CreateCardRequest struct {
	FID int64 `json:"fid,omitempty"`
}
