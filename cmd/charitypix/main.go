// Package main runs the CharityPix gallery server: image uploads pinned to
// a local Kubo node, listings kept in memory, and purchases settled through
// the DonationPlatform contract.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/charitypix/charitypix/applications/httpapi"
	"github.com/charitypix/charitypix/internal/chain"
	"github.com/charitypix/charitypix/internal/config"
	"github.com/charitypix/charitypix/internal/ipfs"
	"github.com/charitypix/charitypix/internal/metrics"
	"github.com/charitypix/charitypix/internal/middleware"
	"github.com/charitypix/charitypix/pkg/logger"
	"github.com/charitypix/charitypix/services/gallery"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default config/charitypix.yaml)")
	flag.Parse()

	// Best effort; the server runs fine without a .env file.
	_ = godotenv.Load()

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.LoadOrDefault()
	}
	if err != nil {
		logger.NewDefault("charitypix").WithField("error", err.Error()).Fatal("load configuration")
	}

	log := logger.New("charitypix", logger.ParseLevel(cfg.LogLevel))
	log.WithField("listen", cfg.ListenAddress).
		WithField("contract", cfg.Chain.ContractAddress).
		WithField("ipfs", cfg.IPFS.APIURL).
		Info("starting charitypix")

	var wallet chain.Wallet
	if key := cfg.WalletKey(); key != "" {
		kw, err := chain.NewKeyWallet(key)
		if err != nil {
			log.WithField("error", err.Error()).Fatal("load wallet key")
		}
		wallet = kw
		log.WithField("address", kw.Address().Hex()).Info("wallet loaded")
	} else {
		log.Warn("no wallet key configured; purchases will be rejected")
	}

	contract, err := chain.NewDonationContract(chain.Config{
		RPCURL:          cfg.Chain.RPCURL,
		ContractAddress: cfg.Chain.ContractAddress,
		ChainID:         cfg.Chain.ChainID,
		TxWaitTimeout:   cfg.Chain.TxWaitTimeout,
		PollInterval:    cfg.Chain.PollInterval,
	}, wallet, log)
	if err != nil {
		log.WithField("error", err.Error()).Fatal("create contract gateway")
	}

	storage := ipfs.New(ipfs.Config{
		APIURL:     cfg.IPFS.APIURL,
		GatewayURL: cfg.IPFS.GatewayURL,
		Timeout:    cfg.IPFS.Timeout,
	}, log)

	svc := gallery.New(contract, storage, gallery.NewMemoryStore(), log)
	m := metrics.New("charitypix")
	api := httpapi.New(svc, m, log)

	router := api.Router()
	router.Use(middleware.LoggingMiddleware(log))
	router.Use(middleware.MetricsMiddleware(m))

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log)
	cors := middleware.NewCORSMiddleware(cfg.CORSOrigins)

	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           cors.Handler(limiter.Handler(router)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("address", cfg.ListenAddress).Info("http server listening")
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.WithField("signal", sig.String()).Info("shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithField("error", err.Error()).Fatal("http server failed")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithField("error", err.Error()).Error("graceful shutdown failed")
	}
	log.Info("stopped")
}
