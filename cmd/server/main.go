package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/basementnodes/faucet/internal/cosmos"
	"github.com/basementnodes/faucet/internal/evm"
	"github.com/basementnodes/faucet/internal/faucet"
	"github.com/basementnodes/faucet/internal/graceful"
	"github.com/basementnodes/faucet/internal/keys"
	"github.com/basementnodes/faucet/internal/logging"
	"github.com/basementnodes/faucet/internal/metrics"
	"github.com/basementnodes/faucet/internal/server"
	"github.com/basementnodes/faucet/internal/util"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := newConfig()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	logger := logging.NewLogger(cfg.LogFormat)

	threshold, err := util.ParseBaseAmount(cfg.Threshold)
	if err != nil {
		logger.Fatalf("invalid BALANCE_THRESHOLD: %v", err)
	}
	amount, err := util.ParseBaseAmount(cfg.Amount)
	if err != nil {
		logger.Fatalf("invalid AMOUNT: %v", err)
	}

	metricsServer := metrics.StartMetricsServer(cfg.Metrics, []string{metrics.ServiceHTTP, metrics.ServiceFaucet}, logger)
	defer func() {
		if metricsServer != nil {
			if err := metricsServer.Stop(ctx); err != nil {
				logger.Errorf("failed to stop metrics server: %v", err)
			}
		}
	}()

	keyManager := keys.NewManager(cfg.Prefix)
	if err := keyManager.Initialize(cfg.Mnemonic); err != nil {
		logger.Fatalf("failed to initialize signing keys: %v", err)
	}
	defer keyManager.Wipe()

	pair, err := keyManager.Addresses()
	if err != nil {
		logger.Fatalf("failed to derive faucet addresses: %v", err)
	}
	logger.WithFields(logrus.Fields{
		"evm":    pair.EVM,
		"cosmos": pair.Cosmos,
	}).Info("faucet wallet ready")

	evmNetwork, err := evm.NewNetwork(cfg.EVM, keyManager, logger)
	if err != nil {
		logger.Fatalf("failed to initialize EVM network: %v", err)
	}
	defer evmNetwork.Close()

	cosmosNetwork, err := cosmos.NewNetwork(cfg.Cosmos, keyManager, logger)
	if err != nil {
		logger.Fatalf("failed to initialize Cosmos network: %v", err)
	}

	faucetService := faucet.NewService(
		faucet.Config{
			Prefix:     cfg.Prefix,
			Denom:      cfg.Denom,
			Symbol:     cfg.Symbol,
			Decimals:   cfg.Decimals,
			Threshold:  threshold,
			PerRequest: amount,
		},
		evmNetwork,
		cosmosNetwork,
		keyManager,
		metrics.NewFaucetMetrics(),
		logger,
	)

	srv := server.NewServer(
		cfg.Server,
		server.ChainInfo{
			Name:                cfg.ChainName,
			Prefix:              cfg.Prefix,
			Denom:               cfg.Denom,
			Symbol:              cfg.Symbol,
			Decimals:            cfg.Decimals,
			Amount:              cfg.Amount,
			Threshold:           cfg.Threshold,
			EVMChainID:          cfg.EVM.ChainID,
			EVMRPCURL:           cfg.EVM.RPCURL,
			EVMExplorerURL:      cfg.EVM.ExplorerURL,
			CosmosChainID:       cfg.Cosmos.ChainID,
			CosmosRPCURL:        cfg.Cosmos.RPCURL,
			CosmosRESTURL:       cfg.Cosmos.RESTURL,
			CosmosExplorerURL:   cfg.Cosmos.ExplorerURL,
			FaucetEVMAddress:    pair.EVM,
			FaucetCosmosAddress: pair.Cosmos,
		},
		faucetService,
		evmNetwork,
		cosmosNetwork,
		logger,
	)

	go graceful.OnShutdown(cancel, logger, func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), server.ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Errorf("failed to stop server: %v", err)
		}
	})

	if err := srv.Start(); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}
