package main

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/basementnodes/faucet/internal/cosmos"
	"github.com/basementnodes/faucet/internal/evm"
	"github.com/basementnodes/faucet/internal/logging"
	"github.com/basementnodes/faucet/internal/metrics"
	"github.com/basementnodes/faucet/internal/server"
)

type config struct {
	LogFormat logging.LogFormat `envconfig:"LOG_FORMAT" default:"text"`

	// The mnemonic is the only secret in the process. It is consumed once
	// at startup and never logged.
	Mnemonic string `envconfig:"MNEMONIC" required:"true"`

	ChainName string `envconfig:"CHAIN_NAME" default:"devnet"`
	Prefix    string `envconfig:"BECH32_PREFIX" default:"cosmos"`
	Denom     string `envconfig:"DENOM" required:"true"`
	Symbol    string `envconfig:"SYMBOL" default:""`
	Decimals  int    `envconfig:"DECIMALS" default:"18"`
	Amount    string `envconfig:"AMOUNT" required:"true"`
	Threshold string `envconfig:"BALANCE_THRESHOLD" required:"true"`

	Server  server.Config
	Metrics metrics.Config
	EVM     evm.Config
	Cosmos  cosmos.Config
}

func newConfig() (config, error) {
	// A local .env is optional; real deployments set the environment
	// directly.
	_ = godotenv.Load()

	var cfg config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return config{}, fmt.Errorf("failed to process env var: %w", err)
	}

	if cfg.Symbol == "" {
		cfg.Symbol = strings.ToUpper(cfg.Denom)
	}
	return cfg, nil
}
