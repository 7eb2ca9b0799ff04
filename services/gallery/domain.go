// Package gallery provides the image gallery service: session state, the
// listing collection, and the upload and purchase workflows over the
// contract and storage gateways.
package gallery

import (
	"context"
	"errors"
	"io"
	"math/big"
	"time"
)

// ContractConfig is an immutable snapshot of the values configured on the
// deployed donation contract. It is fetched once per connect and re-fetched
// on reconnect; it is never written by any other component.
type ContractConfig struct {
	CommissionRate  int      `json:"commission_rate"`   // integer percentage, 0-100
	Recipient       string   `json:"recipient"`         // donation recipient address
	MinimumPriceWei *big.Int `json:"minimum_price_wei"` // minimum asking price in wei
}

// MinimumPrice returns the contract minimum as a decimal ETH string.
func (c ContractConfig) MinimumPrice() string {
	return FormatAmount(c.MinimumPriceWei)
}

// Listing is a session-local gallery entry. Listings are append-only:
// created by the upload workflow, never mutated, and destroyed only when
// the session ends.
type Listing struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	ContentID    string    `json:"cid"`
	RetrievalURL string    `json:"url"`
	AskingPrice  string    `json:"price"` // decimal ETH
	CreatedAt    time.Time `json:"created_at"`
}

// SplitPreview shows how a purchase of a listing would be divided, computed
// with the cached commission rate. The same arithmetic backs the
// post-purchase summary.
type SplitPreview struct {
	Donated        string `json:"donated"`
	OwnerShare     string `json:"owner_share"`
	DonatedPercent int    `json:"donated_percent"`
	OwnerPercent   int    `json:"owner_percent"`
	Recipient      string `json:"recipient"`
}

// ListingView is a listing with its live split preview. Split is nil when
// no contract configuration has been cached yet.
type ListingView struct {
	Listing
	Split *SplitPreview `json:"split,omitempty"`
}

// PurchaseResult is the ephemeral accounting breakdown of a confirmed
// purchase. It is never stored; it exists to produce the status line.
// Split is nil when no contract configuration was cached at workflow
// start: the contract still applies its real split on-chain, but the
// service cannot price it.
type PurchaseResult struct {
	ListingID int64         `json:"listing_id"`
	TotalPaid string        `json:"total_paid"`
	TxHash    string        `json:"tx_hash"`
	Split     *SplitPreview `json:"split,omitempty"`
}

// Receipt describes a confirmed payment transaction.
type Receipt struct {
	TxHash      string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
	GasUsed     uint64 `json:"gas_used"`
}

// Session is the explicit per-process application state: connected wallet,
// cached contract configuration, and connection time. It is created on
// startup and reset only on restart.
type Session struct {
	ID            string          `json:"id"`
	WalletAddress string          `json:"wallet_address,omitempty"`
	Config        *ContractConfig `json:"config,omitempty"`
	ConnectedAt   time.Time       `json:"connected_at,omitempty"`
}

// UploadState is the state of the upload workflow.
type UploadState string

const (
	UploadIdle      UploadState = "idle"
	UploadUploading UploadState = "uploading"
	UploadDone      UploadState = "done"
	UploadFailed    UploadState = "failed"
)

// PurchaseState is the state of the purchase workflow.
type PurchaseState string

const (
	PurchaseIdle       PurchaseState = "idle"
	PurchaseValidating PurchaseState = "validating"
	PurchaseSubmitting PurchaseState = "submitting"
	PurchaseConfirmed  PurchaseState = "confirmed"
	PurchaseRejected   PurchaseState = "rejected"
)

// ContractGateway is the statically declared interface to the deployed
// donation contract: three configuration reads and one payment call.
// SubmitPurchase blocks until the transaction is mined and must never be
// retried automatically; resubmission risks double payment.
type ContractGateway interface {
	FetchConfig(ctx context.Context) (ContractConfig, error)
	SubmitPurchase(ctx context.Context, contentID string, amountWei *big.Int) (Receipt, error)
}

// StorageGateway is the interface to the content-addressed storage node.
// Store returns an identifier that is a deterministic function of the blob
// bytes; Publish is idempotent; ResolveURL is pure.
type StorageGateway interface {
	Store(ctx context.Context, name string, blob io.Reader) (string, error)
	Publish(ctx context.Context, contentID string) error
	ResolveURL(contentID string) string
}

// Errors
var (
	ErrConfigUnavailable  = errors.New("contract configuration unavailable")
	ErrValidation         = errors.New("validation failed")
	ErrStorageUnavailable = errors.New("storage node unavailable")
	ErrPurchaseRejected   = errors.New("purchase rejected")
	ErrNetwork            = errors.New("network failure")
	ErrBusy               = errors.New("workflow already in progress")
)
