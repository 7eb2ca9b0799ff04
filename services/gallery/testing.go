package gallery

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"sync"
)

// Mock gateways for tests. They live outside _test files so that the HTTP
// API tests can drive a real Service against them.

// SubmitCall records one SubmitPurchase invocation.
type SubmitCall struct {
	ContentID string
	AmountWei *big.Int
}

// MockContractGateway is an in-memory ContractGateway.
type MockContractGateway struct {
	mu sync.Mutex

	ConfigValue ContractConfig
	ConfigErr   error
	SubmitErr   error
	ReceiptFor  func(contentID string) Receipt

	fetchCalls  int
	submitCalls []SubmitCall
}

var _ ContractGateway = (*MockContractGateway)(nil)

// NewMockContractGateway returns a gateway preloaded with a config.
func NewMockContractGateway(cfg ContractConfig) *MockContractGateway {
	return &MockContractGateway{ConfigValue: cfg}
}

func (m *MockContractGateway) FetchConfig(_ context.Context) (ContractConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchCalls++
	if m.ConfigErr != nil {
		return ContractConfig{}, m.ConfigErr
	}
	return m.ConfigValue, nil
}

func (m *MockContractGateway) SubmitPurchase(_ context.Context, contentID string, amountWei *big.Int) (Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SubmitErr != nil {
		return Receipt{}, m.SubmitErr
	}
	m.submitCalls = append(m.submitCalls, SubmitCall{
		ContentID: contentID,
		AmountWei: new(big.Int).Set(amountWei),
	})
	if m.ReceiptFor != nil {
		return m.ReceiptFor(contentID), nil
	}
	return Receipt{
		TxHash:      fmt.Sprintf("0x%064d", len(m.submitCalls)),
		BlockNumber: uint64(len(m.submitCalls)),
	}, nil
}

// FetchCalls returns the number of FetchConfig invocations.
func (m *MockContractGateway) FetchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchCalls
}

// SubmitCalls returns the recorded payment calls.
func (m *MockContractGateway) SubmitCalls() []SubmitCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SubmitCall, len(m.submitCalls))
	copy(out, m.submitCalls)
	return out
}

// MockStorageGateway is an in-memory StorageGateway. Store derives the
// identifier from the blob bytes, so equal content yields equal ids.
type MockStorageGateway struct {
	mu sync.Mutex

	StoreErr   error
	PublishErr error
	GatewayURL string

	storeCalls int
	published  []string
}

var _ StorageGateway = (*MockStorageGateway)(nil)

// NewMockStorageGateway returns a storage gateway with a local gateway URL.
func NewMockStorageGateway() *MockStorageGateway {
	return &MockStorageGateway{GatewayURL: "http://127.0.0.1:8080"}
}

func (m *MockStorageGateway) Store(_ context.Context, _ string, blob io.Reader) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storeCalls++
	if m.StoreErr != nil {
		return "", m.StoreErr
	}
	data, err := io.ReadAll(blob)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return "Qm" + hex.EncodeToString(sum[:])[:44], nil
}

func (m *MockStorageGateway) Publish(_ context.Context, contentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishErr != nil {
		return m.PublishErr
	}
	m.published = append(m.published, contentID)
	return nil
}

func (m *MockStorageGateway) ResolveURL(contentID string) string {
	return m.GatewayURL + "/ipfs/" + contentID
}

// StoreCalls returns the number of Store invocations.
func (m *MockStorageGateway) StoreCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.storeCalls
}

// Published returns the published identifiers in order.
func (m *MockStorageGateway) Published() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.published))
	copy(out, m.published)
	return out
}
