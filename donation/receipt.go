package donation

import "strings"

// minReferenceLength is the shortest transaction reference worth showing
const minReferenceLength = 10

// Receipt links a successful donation to its on-chain transaction
type Receipt struct {
	TransactionHash string `json:"transactionHash"`
	ShortHash       string `json:"shortHash"`
	ExplorerURL     string `json:"explorerUrl"`
	VerifyURL       string `json:"verifyUrl"`
}

// newReceipt returns nil when reference is too short to be a transaction hash
func newReceipt(reference, explorerURL, verifyURL string) *Receipt {
	if len(reference) <= minReferenceLength {
		return nil
	}
	return &Receipt{
		TransactionHash: reference,
		ShortHash:       ShortenHash(reference),
		ExplorerURL:     strings.TrimRight(explorerURL, "/") + "/" + reference,
		VerifyURL:       verifyURL,
	}
}

// ShortenHash renders a hash as "0x12345678…9abcdef0"
func ShortenHash(hash string) string {
	if len(hash) < 18 {
		return hash
	}
	return hash[:10] + "…" + hash[len(hash)-8:]
}

// ShortenAddress renders an address as "0x6223…a99b"
func ShortenAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}
