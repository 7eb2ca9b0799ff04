package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.ListenAddress != ":8090" {
		t.Errorf("expected listen address :8090, got %s", cfg.ListenAddress)
	}
	if cfg.Chain.ContractAddress != "0xB6CA37e7c6114d4E661b425A5DCbcFd334dB7b97" {
		t.Errorf("unexpected contract address %s", cfg.Chain.ContractAddress)
	}
	if cfg.Chain.TxWaitTimeout != 2*time.Minute {
		t.Errorf("expected 2m tx wait timeout, got %s", cfg.Chain.TxWaitTimeout)
	}
	if cfg.IPFS.APIURL != "http://127.0.0.1:5001" {
		t.Errorf("unexpected ipfs api url %s", cfg.IPFS.APIURL)
	}
	if err := cfg.validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "charitypix.yaml")
	data := []byte(`
listen_address: ":9000"
log_level: debug
chain:
  rpc_url: "https://rpc.example.test"
  chain_id: 11155111
  contract_address: "0x0000000000000000000000000000000000000001"
ipfs:
  api_url: "http://ipfs.internal:5001"
  gateway_url: "https://gw.example.test"
rate_limit:
  requests_per_second: 50
  burst: 100
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ListenAddress != ":9000" {
		t.Errorf("expected :9000, got %s", cfg.ListenAddress)
	}
	if cfg.Chain.ChainID != 11155111 {
		t.Errorf("expected chain id 11155111, got %d", cfg.Chain.ChainID)
	}
	if cfg.IPFS.GatewayURL != "https://gw.example.test" {
		t.Errorf("unexpected gateway url %s", cfg.IPFS.GatewayURL)
	}
	if cfg.RateLimit.Burst != 100 {
		t.Errorf("expected burst 100, got %d", cfg.RateLimit.Burst)
	}
	// Unset fields keep defaults.
	if cfg.Chain.PollInterval != 2*time.Second {
		t.Errorf("expected default poll interval, got %s", cfg.Chain.PollInterval)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("listen_address: [unclosed"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CHARITYPIX_LISTEN_ADDRESS", ":7777")
	t.Setenv("ETH_RPC_URL", "https://override.example.test")
	t.Setenv("ETH_CHAIN_ID", "42")
	t.Setenv("IPFS_API_URL", "http://override:5001")

	cfg := Default()
	cfg.applyEnv()

	if cfg.ListenAddress != ":7777" {
		t.Errorf("expected env override :7777, got %s", cfg.ListenAddress)
	}
	if cfg.Chain.RPCURL != "https://override.example.test" {
		t.Errorf("expected env override rpc url, got %s", cfg.Chain.RPCURL)
	}
	if cfg.Chain.ChainID != 42 {
		t.Errorf("expected chain id 42, got %d", cfg.Chain.ChainID)
	}
	if cfg.IPFS.APIURL != "http://override:5001" {
		t.Errorf("expected env override ipfs url, got %s", cfg.IPFS.APIURL)
	}
}

func TestWalletKey(t *testing.T) {
	cfg := Default()
	t.Setenv(cfg.Chain.WalletKeyEnv, "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")

	if got := cfg.WalletKey(); got == "" {
		t.Fatal("expected wallet key from environment")
	}

	cfg.Chain.WalletKeyEnv = ""
	if got := cfg.WalletKey(); got != "" {
		t.Errorf("expected empty key when env name unset, got %q", got)
	}
}
