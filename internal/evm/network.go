// Package evm implements the EVM-side faucet pipeline: balance reads and
// native-transfer construction, signing and broadcast over JSON-RPC.
package evm

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	"github.com/basementnodes/faucet/internal/keys"
)

type Config struct {
	RPCURL      string `envconfig:"EVM_RPC_URL" required:"true"`
	ChainID     int64  `envconfig:"EVM_CHAIN_ID" required:"true"`
	GasLimit    uint64 `envconfig:"EVM_GAS_LIMIT" default:"21000"`
	GasPrice    string `envconfig:"EVM_GAS_PRICE" default:""` // base units; empty or "0" means ask the node
	ExplorerURL string `envconfig:"EVM_EXPLORER_URL" default:""`
}

// Network bundles the RPC client and signer for one EVM endpoint.
type Network struct {
	rpc         *ethclient.Client
	keys        *keys.Manager
	chainID     *big.Int
	gasLimit    uint64
	gasPrice    *big.Int // nil -> SuggestGasPrice per send
	explorerURL string
	logger      *logrus.Logger

	// Serializes sends from the single faucet signer so two concurrent
	// transfers cannot race on the same nonce.
	sendMu sync.Mutex
}

func NewNetwork(cfg Config, km *keys.Manager, logger *logrus.Logger) (*Network, error) {
	rpc, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("evm: failed to connect to RPC: %w", err)
	}

	var gasPrice *big.Int
	if cfg.GasPrice != "" && cfg.GasPrice != "0" {
		gasPrice, _ = new(big.Int).SetString(cfg.GasPrice, 10)
		if gasPrice == nil {
			return nil, fmt.Errorf("evm: invalid gas price: %s", cfg.GasPrice)
		}
	}

	return &Network{
		rpc:         rpc,
		keys:        km,
		chainID:     big.NewInt(cfg.ChainID),
		gasLimit:    cfg.GasLimit,
		gasPrice:    gasPrice,
		explorerURL: cfg.ExplorerURL,
		logger:      logger,
	}, nil
}

// NativeBalance fetches the native balance of an address in wei.
func (n *Network) NativeBalance(ctx context.Context, address string) (*big.Int, error) {
	balance, err := n.rpc.BalanceAt(ctx, hexToAddress(address), nil)
	if err != nil {
		return nil, fmt.Errorf("evm: failed to get native balance: %w", err)
	}
	return balance, nil
}

func (n *Network) Close() {
	n.rpc.Close()
}
