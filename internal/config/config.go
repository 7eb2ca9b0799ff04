// Package config loads the application configuration from
// config/charitypix.yaml with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	ListenAddress string   `yaml:"listen_address"`
	LogLevel      string   `yaml:"log_level"`
	CORSOrigins   []string `yaml:"cors_origins"`

	Chain     ChainConfig     `yaml:"chain"`
	IPFS      IPFSConfig      `yaml:"ipfs"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ChainConfig configures the Ethereum contract gateway.
type ChainConfig struct {
	RPCURL          string        `yaml:"rpc_url"`
	ChainID         int64         `yaml:"chain_id"`
	ContractAddress string        `yaml:"contract_address"`
	TxWaitTimeout   time.Duration `yaml:"tx_wait_timeout"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	// WalletKeyEnv names the environment variable holding the signing key.
	// The key itself never appears in the config file.
	WalletKeyEnv string `yaml:"wallet_key_env"`
}

// IPFSConfig configures the Kubo storage gateway.
type IPFSConfig struct {
	APIURL     string        `yaml:"api_url"`
	GatewayURL string        `yaml:"gateway_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

// RateLimitConfig configures the HTTP rate limiter.
type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	Burst             int `yaml:"burst"`
}

// Default returns the built-in configuration: a local Kubo daemon and a
// local development chain, with the deployed DonationPlatform address.
func Default() *Config {
	return &Config{
		ListenAddress: ":8090",
		LogLevel:      "info",
		CORSOrigins:   []string{"*"},
		Chain: ChainConfig{
			RPCURL:          "http://127.0.0.1:8545",
			ChainID:         1337,
			ContractAddress: "0xB6CA37e7c6114d4E661b425A5DCbcFd334dB7b97",
			TxWaitTimeout:   2 * time.Minute,
			PollInterval:    2 * time.Second,
			WalletKeyEnv:    "CHARITYPIX_WALLET_KEY",
		},
		IPFS: IPFSConfig{
			APIURL:     "http://127.0.0.1:5001",
			GatewayURL: "http://127.0.0.1:8080",
			Timeout:    30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			Burst:             20,
		},
	}
}

// Load reads configuration from a yaml file, applying defaults for unset
// fields and environment overrides on top.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads config/charitypix.yaml, falling back to defaults
// plus environment overrides when the file does not exist.
func LoadOrDefault() (*Config, error) {
	path := os.Getenv("CHARITYPIX_CONFIG")
	if path == "" {
		path = filepath.Join("config", "charitypix.yaml")
	}

	if _, err := os.Stat(path); err != nil {
		cfg := Default()
		cfg.applyEnv()
		if err := cfg.validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return Load(path)
}

func (c *Config) applyEnv() {
	setString(&c.ListenAddress, "CHARITYPIX_LISTEN_ADDRESS")
	setString(&c.LogLevel, "CHARITYPIX_LOG_LEVEL")
	setString(&c.Chain.RPCURL, "ETH_RPC_URL")
	setString(&c.Chain.ContractAddress, "DONATE_CONTRACT_ADDRESS")
	setString(&c.IPFS.APIURL, "IPFS_API_URL")
	setString(&c.IPFS.GatewayURL, "IPFS_GATEWAY_URL")

	if v := os.Getenv("ETH_CHAIN_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Chain.ChainID = id
		}
	}
}

func (c *Config) validate() error {
	if c.ListenAddress == "" {
		return fmt.Errorf("listen_address is required")
	}
	if c.Chain.RPCURL == "" {
		return fmt.Errorf("chain.rpc_url is required")
	}
	if c.Chain.ContractAddress == "" {
		return fmt.Errorf("chain.contract_address is required")
	}
	if c.IPFS.APIURL == "" {
		return fmt.Errorf("ipfs.api_url is required")
	}
	return nil
}

// WalletKey reads the signing key from the configured environment variable.
// An empty result means no wallet is configured.
func (c *Config) WalletKey() string {
	if c.Chain.WalletKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Chain.WalletKeyEnv)
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}
