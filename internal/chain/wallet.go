package chain

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet is the signing boundary. Key management stays outside this
// package; the gateway only needs an address and a signature.
type Wallet interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// KeyWallet signs with a locally held private key, standing in for an
// external wallet provider. The key comes from the environment and is
// never persisted.
type KeyWallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

var _ Wallet = (*KeyWallet)(nil)

// NewKeyWallet builds a wallet from a hex-encoded private key.
func NewKeyWallet(hexKey string) (*KeyWallet, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, fmt.Errorf("private key is empty")
	}

	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	return &KeyWallet{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Address returns the wallet's account address.
func (w *KeyWallet) Address() common.Address {
	return w.address
}

// SignTx signs a transaction for the given chain.
func (w *KeyWallet) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), w.key)
}
