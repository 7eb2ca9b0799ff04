// Package chain provides the donation contract gateway over an Ethereum
// JSON-RPC node.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/charitypix/charitypix/pkg/logger"
	"github.com/charitypix/charitypix/services/gallery"
)

// donationABI is the fixed interface of the deployed DonationPlatform
// contract. Any deployed contract that cannot serve these reads is rejected
// at configuration-load time.
const donationABI = `[
	{"type":"function","name":"commissionRate","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"recipient","stateMutability":"view","inputs":[],"outputs":[{"type":"address"}]},
	{"type":"function","name":"imagePrice","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"donateWithImage","stateMutability":"payable","inputs":[{"name":"fileHash","type":"string"}],"outputs":[]}
]`

// Default confirmation polling parameters.
const (
	DefaultTxWaitTimeout = 2 * time.Minute
	DefaultPollInterval  = 2 * time.Second
)

// Config holds gateway configuration.
type Config struct {
	RPCURL          string
	ContractAddress string
	ChainID         int64
	TxWaitTimeout   time.Duration
	PollInterval    time.Duration
}

// DonationContract reads the payment-splitting configuration from the
// deployed contract and submits payment calls through the wallet boundary.
type DonationContract struct {
	client       *ethclient.Client
	abi          abi.ABI
	address      common.Address
	wallet       Wallet
	chainID      *big.Int
	waitTimeout  time.Duration
	pollInterval time.Duration
	log          *logger.Logger
}

var _ gallery.ContractGateway = (*DonationContract)(nil)

// NewDonationContract creates a gateway bound to the given node and
// contract address. The wallet may be nil, in which case purchases are
// rejected until one is configured.
func NewDonationContract(cfg Config, wallet Wallet, log *logger.Logger) (*DonationContract, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("RPC URL required")
	}
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", cfg.ContractAddress)
	}

	parsed, err := abi.JSON(strings.NewReader(donationABI))
	if err != nil {
		return nil, fmt.Errorf("parse contract ABI: %w", err)
	}

	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.RPCURL, err)
	}

	waitTimeout := cfg.TxWaitTimeout
	if waitTimeout <= 0 {
		waitTimeout = DefaultTxWaitTimeout
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	if log == nil {
		log = logger.NewDefault("chain")
	}

	return &DonationContract{
		client:       client,
		abi:          parsed,
		address:      common.HexToAddress(cfg.ContractAddress),
		wallet:       wallet,
		chainID:      big.NewInt(cfg.ChainID),
		waitTimeout:  waitTimeout,
		pollInterval: pollInterval,
		log:          log,
	}, nil
}

// Close releases the underlying RPC connection.
func (c *DonationContract) Close() {
	c.client.Close()
}

// FetchConfig reads commissionRate, recipient and imagePrice from the
// contract. Any failed read yields ErrConfigUnavailable; callers never see
// partial success.
func (c *DonationContract) FetchConfig(ctx context.Context) (gallery.ContractConfig, error) {
	rate, err := c.callUint(ctx, "commissionRate")
	if err != nil {
		return gallery.ContractConfig{}, fmt.Errorf("%w: read commissionRate: %v", gallery.ErrConfigUnavailable, err)
	}
	recipient, err := c.callAddress(ctx, "recipient")
	if err != nil {
		return gallery.ContractConfig{}, fmt.Errorf("%w: read recipient: %v", gallery.ErrConfigUnavailable, err)
	}
	minPrice, err := c.callUint(ctx, "imagePrice")
	if err != nil {
		return gallery.ContractConfig{}, fmt.Errorf("%w: read imagePrice: %v", gallery.ErrConfigUnavailable, err)
	}

	if !rate.IsInt64() || rate.Int64() < 0 || rate.Int64() > 100 {
		return gallery.ContractConfig{}, fmt.Errorf("%w: commissionRate %s out of range 0-100", gallery.ErrConfigUnavailable, rate)
	}

	return gallery.ContractConfig{
		CommissionRate:  int(rate.Int64()),
		Recipient:       recipient.Hex(),
		MinimumPriceWei: minPrice,
	}, nil
}

// SubmitPurchase submits donateWithImage(contentID) carrying amountWei as
// the transferred value, then blocks until the transaction is mined. It is
// never retried: after SendTransaction succeeds the payment is in flight
// and resubmission would risk double payment.
func (c *DonationContract) SubmitPurchase(ctx context.Context, contentID string, amountWei *big.Int) (gallery.Receipt, error) {
	if c.wallet == nil {
		return gallery.Receipt{}, fmt.Errorf("%w: no signing wallet configured", gallery.ErrPurchaseRejected)
	}

	data, err := c.abi.Pack("donateWithImage", contentID)
	if err != nil {
		return gallery.Receipt{}, fmt.Errorf("%w: pack donateWithImage: %v", gallery.ErrNetwork, err)
	}

	from := c.wallet.Address()
	nonce, err := c.client.PendingNonceAt(ctx, from)
	if err != nil {
		return gallery.Receipt{}, fmt.Errorf("%w: fetch nonce: %v", gallery.ErrNetwork, err)
	}
	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return gallery.Receipt{}, fmt.Errorf("%w: suggest gas price: %v", gallery.ErrNetwork, err)
	}
	gasLimit, err := c.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &c.address,
		Value: amountWei,
		Data:  data,
	})
	if err != nil {
		return gallery.Receipt{}, fmt.Errorf("%w: estimate gas: %v", gallery.ErrNetwork, err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &c.address,
		Value:    amountWei,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := c.wallet.SignTx(tx, c.chainID)
	if err != nil {
		return gallery.Receipt{}, fmt.Errorf("%w: %v", gallery.ErrPurchaseRejected, err)
	}

	if err := c.client.SendTransaction(ctx, signed); err != nil {
		return gallery.Receipt{}, fmt.Errorf("%w: broadcast: %v", gallery.ErrNetwork, err)
	}

	c.log.WithField("tx_hash", signed.Hash().Hex()).
		WithField("value_wei", amountWei.String()).
		Info("payment broadcast, waiting for confirmation")

	receipt, err := c.waitMined(ctx, signed.Hash())
	if err != nil {
		return gallery.Receipt{}, fmt.Errorf("%w: confirmation: %v", gallery.ErrNetwork, err)
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return gallery.Receipt{}, fmt.Errorf("%w: transaction %s reverted", gallery.ErrNetwork, signed.Hash().Hex())
	}

	return gallery.Receipt{
		TxHash:      signed.Hash().Hex(),
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
	}, nil
}

// waitMined polls for the transaction receipt until it is available or the
// wait timeout expires. A missing receipt is transient and retried.
func (c *DonationContract) waitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	wctx, cancel := context.WithTimeout(ctx, c.waitTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.client.TransactionReceipt(wctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, err
		}

		select {
		case <-wctx.Done():
			return nil, wctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *DonationContract) callUint(ctx context.Context, method string) (*big.Int, error) {
	vals, err := c.call(ctx, method)
	if err != nil {
		return nil, err
	}
	out, ok := vals[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s returned %T, want uint256", method, vals[0])
	}
	return out, nil
}

func (c *DonationContract) callAddress(ctx context.Context, method string) (common.Address, error) {
	vals, err := c.call(ctx, method)
	if err != nil {
		return common.Address{}, err
	}
	out, ok := vals[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%s returned %T, want address", method, vals[0])
	}
	return out, nil
}

func (c *DonationContract) call(ctx context.Context, method string) ([]interface{}, error) {
	data, err := c.abi.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	raw, err := c.client.CallContract(ctx, ethereum.CallMsg{
		To:   &c.address,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("call %s: empty result, contract interface mismatch", method)
	}

	vals, err := c.abi.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("unpack %s: no values", method)
	}
	return vals, nil
}
