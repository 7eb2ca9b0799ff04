package gallery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/charitypix/charitypix/pkg/logger"
)

// Service owns the session state and orchestrates the upload and purchase
// workflows. At most one workflow of each type runs at a time; an upload
// and a purchase may overlap. Every failure is converted into a status
// line; nothing propagates as a crash.
type Service struct {
	contract ContractGateway
	storage  StorageGateway
	store    ListingStore
	log      *logger.Logger

	mu            sync.Mutex
	session       Session
	status        string
	uploadState   UploadState
	purchaseState PurchaseState
	uploadBusy    bool
	purchaseBusy  bool
}

// New creates a gallery service with a fresh session.
func New(contract ContractGateway, storage StorageGateway, store ListingStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("gallery")
	}
	return &Service{
		contract: contract,
		storage:  storage,
		store:    store,
		log:      log,
		session: Session{
			ID: uuid.New().String(),
		},
		uploadState:   UploadIdle,
		purchaseState: PurchaseIdle,
	}
}

// Session returns a snapshot of the session state.
func (s *Service) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Config returns the cached contract configuration, if any.
func (s *Service) Config() (ContractConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.Config == nil {
		return ContractConfig{}, false
	}
	return *s.session.Config, true
}

// Status returns the status line of the most recent action.
func (s *Service) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// States returns the current workflow states.
func (s *Service) States() (UploadState, PurchaseState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploadState, s.purchaseState
}

func (s *Service) setStatus(format string, args ...interface{}) {
	s.mu.Lock()
	s.status = fmt.Sprintf(format, args...)
	s.mu.Unlock()
}

// Connect binds the wallet address to the session and fetches the contract
// configuration. A failed configuration read still connects the wallet:
// the session degrades to optimistic purchasing and the error surfaces in
// the status line and the returned error.
func (s *Service) Connect(ctx context.Context, address string) (Session, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		s.setStatus("Wallet connection declined: no account granted.")
		return s.Session(), fmt.Errorf("%w: wallet address is required", ErrValidation)
	}

	cfg, err := s.contract.FetchConfig(ctx)

	s.mu.Lock()
	s.session.WalletAddress = address
	s.session.ConnectedAt = time.Now().UTC()
	if err != nil {
		s.session.Config = nil
	} else {
		s.session.Config = &cfg
	}
	s.mu.Unlock()

	if err != nil {
		s.log.WithField("wallet", address).WithError(err).Warn("contract config read failed")
		s.setStatus("Wallet connected, but the contract configuration could not be read. Check the contract address and network.")
		return s.Session(), fmt.Errorf("%w: %v", ErrConfigUnavailable, err)
	}

	s.log.WithField("wallet", address).
		WithField("commission_rate", cfg.CommissionRate).
		WithField("recipient", cfg.Recipient).
		Info("wallet connected")
	s.setStatus("Wallet connected. Donation rate %d%%, minimum price %s ETH.",
		cfg.CommissionRate, cfg.MinimumPrice())
	return s.Session(), nil
}

// Listings returns the gallery with a live split preview per listing,
// computed against the cached commission rate. The preview is omitted when
// no configuration has been cached.
func (s *Service) Listings(ctx context.Context) ([]ListingView, error) {
	listings, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}

	cfg, haveCfg := s.Config()
	views := make([]ListingView, 0, len(listings))
	for _, l := range listings {
		view := ListingView{Listing: l}
		if haveCfg {
			if priceWei, perr := ParseAmount(l.AskingPrice); perr == nil {
				view.Split = newSplitPreview(priceWei, cfg)
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// Upload runs the upload workflow: validate inputs, store the blob, publish
// the identifier, append the listing. Validation failures make no gateway
// call; gateway failures create no partial listing.
func (s *Service) Upload(ctx context.Context, title, price string, blob io.Reader) (Listing, error) {
	if err := s.beginUpload(); err != nil {
		return Listing{}, err
	}
	defer s.endUpload()

	title = strings.TrimSpace(title)
	if title == "" {
		s.failUpload("Give the image a title.")
		return Listing{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if blob == nil {
		s.failUpload("Select an image file.")
		return Listing{}, fmt.Errorf("%w: image file is required", ErrValidation)
	}
	price = strings.TrimSpace(price)
	if _, err := ParseAmount(price); err != nil {
		s.failUpload("Enter a valid price in ETH.")
		return Listing{}, fmt.Errorf("%w: invalid price: %v", ErrValidation, err)
	}

	s.setUploadState(UploadUploading)
	s.setStatus("Uploading image to storage...")

	cid, err := s.storage.Store(ctx, title, blob)
	if err != nil {
		s.failUpload("Image upload failed.")
		s.log.WithError(err).Error("store blob failed")
		return Listing{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if err := s.storage.Publish(ctx, cid); err != nil {
		s.failUpload("Image upload failed.")
		s.log.WithField("cid", cid).WithError(err).Error("publish failed")
		return Listing{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	listing, err := s.store.Append(ctx, title, cid, s.storage.ResolveURL(cid), price)
	if err != nil {
		s.failUpload("Image upload failed.")
		return Listing{}, fmt.Errorf("append listing: %w", err)
	}

	s.setUploadState(UploadDone)
	s.setStatus("Image stored. CID: %s", cid)
	s.log.WithField("listing_id", listing.ID).WithField("cid", cid).Info("listing created")
	return listing, nil
}

// Purchase runs the purchase workflow for a listing. The asking price is
// re-validated against the contract minimum cached at workflow start; the
// check is skipped, not failed, when no configuration is cached. The
// listing store is never mutated, whatever the outcome.
func (s *Service) Purchase(ctx context.Context, listingID int64) (PurchaseResult, error) {
	if err := s.beginPurchase(); err != nil {
		return PurchaseResult{}, err
	}
	defer s.endPurchase()

	s.setPurchaseState(PurchaseValidating)

	listing, err := s.store.Get(ctx, listingID)
	if err != nil {
		s.failPurchase("Listing not found.")
		return PurchaseResult{}, err
	}

	amountWei, err := ParseAmount(listing.AskingPrice)
	if err != nil {
		s.failPurchase("Listing has an invalid price.")
		return PurchaseResult{}, fmt.Errorf("%w: invalid price: %v", ErrValidation, err)
	}

	// Snapshot the configuration once; the same snapshot prices the split
	// in the confirmation below.
	cfg, haveCfg := s.Config()
	if haveCfg && amountWei.Cmp(cfg.MinimumPriceWei) < 0 {
		s.failPurchase("The offered price (%s ETH) is below the contract minimum (%s ETH).",
			listing.AskingPrice, cfg.MinimumPrice())
		return PurchaseResult{}, fmt.Errorf("%w: price %s ETH below contract minimum %s ETH",
			ErrValidation, listing.AskingPrice, cfg.MinimumPrice())
	}

	s.setPurchaseState(PurchaseSubmitting)
	s.setStatus("Sending payment to the donation contract...")

	receipt, err := s.contract.SubmitPurchase(ctx, listing.ContentID, amountWei)
	if err != nil {
		switch {
		case errors.Is(err, ErrPurchaseRejected):
			s.failPurchase("Purchase cancelled: the wallet declined to sign.")
		case errors.Is(err, ErrConfigUnavailable):
			s.failPurchase("Purchase failed: the contract is not reachable on this network.")
		default:
			s.failPurchase("Purchase failed: the transaction was not confirmed.")
		}
		s.log.WithField("listing_id", listing.ID).WithError(err).Warn("purchase failed")
		return PurchaseResult{}, err
	}

	result := PurchaseResult{
		ListingID: listing.ID,
		TotalPaid: FormatAmount(amountWei),
		TxHash:    receipt.TxHash,
	}
	if haveCfg {
		result.Split = newSplitPreview(amountWei, cfg)
	}

	s.setPurchaseState(PurchaseConfirmed)
	entry := s.log.WithField("listing_id", listing.ID).WithField("tx_hash", receipt.TxHash)
	if result.Split != nil {
		s.setStatus("Purchase confirmed. Paid %s ETH: %s ETH (%d%%) donated to %s, %s ETH (%d%%) to the contract owner.",
			result.TotalPaid, result.Split.Donated, result.Split.DonatedPercent, result.Split.Recipient,
			result.Split.OwnerShare, result.Split.OwnerPercent)
		entry = entry.WithField("donated", result.Split.Donated)
	} else {
		s.setStatus("Purchase confirmed. Paid %s ETH; the contract applies its configured split on-chain.",
			result.TotalPaid)
	}
	entry.Info("purchase confirmed")
	return result, nil
}

// --- workflow guards ---

func (s *Service) beginUpload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadBusy {
		return fmt.Errorf("%w: an upload is already running", ErrBusy)
	}
	s.uploadBusy = true
	return nil
}

func (s *Service) endUpload() {
	s.mu.Lock()
	s.uploadBusy = false
	s.mu.Unlock()
}

func (s *Service) beginPurchase() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.purchaseBusy {
		return fmt.Errorf("%w: a purchase is already running", ErrBusy)
	}
	s.purchaseBusy = true
	return nil
}

func (s *Service) endPurchase() {
	s.mu.Lock()
	s.purchaseBusy = false
	s.mu.Unlock()
}

func (s *Service) setUploadState(state UploadState) {
	s.mu.Lock()
	s.uploadState = state
	s.mu.Unlock()
}

func (s *Service) setPurchaseState(state PurchaseState) {
	s.mu.Lock()
	s.purchaseState = state
	s.mu.Unlock()
}

func (s *Service) failUpload(format string, args ...interface{}) {
	s.setUploadState(UploadFailed)
	s.setStatus(format, args...)
}

func (s *Service) failPurchase(format string, args ...interface{}) {
	s.setPurchaseState(PurchaseRejected)
	s.setStatus(format, args...)
}
