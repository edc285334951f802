package faucet

import (
	"context"
	"math/big"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/basementnodes/faucet/internal/address"
)

const balanceQueryTimeout = 5 * time.Second

// EVMBalanceReader reads a native balance over JSON-RPC.
type EVMBalanceReader interface {
	NativeBalance(ctx context.Context, addr string) (*big.Int, error)
}

// CosmosBalanceReader reads a single-denom bank balance over the LCD.
type CosmosBalanceReader interface {
	DenomBalance(ctx context.Context, addr, denom string) (*big.Int, error)
}

// Oracle reconciles the two chain interfaces' views of one logical account.
// Reads never fail the caller: a faulted or timed-out side degrades to zero.
type Oracle struct {
	evm    EVMBalanceReader
	cosmos CosmosBalanceReader
	denom  string
	prefix string
	logger *logrus.Logger
}

func NewOracle(evm EVMBalanceReader, cosmos CosmosBalanceReader, denom, prefix string, logger *logrus.Logger) *Oracle {
	return &Oracle{
		evm:    evm,
		cosmos: cosmos,
		denom:  denom,
		prefix: prefix,
		logger: logger,
	}
}

// Balance resolves both representations of the address, queries both chain
// interfaces in parallel and returns the maximum of the two readings. The
// interfaces can lag each other's indexing of the same account, so the
// higher reading is treated as ground truth. When the alternate form cannot
// be derived, that side is simply skipped.
func (o *Oracle) Balance(ctx context.Context, addr string, c address.Classification) *big.Int {
	var evmAddr, cosmosAddr string
	switch c {
	case address.EVM:
		evmAddr = addr
	case address.Cosmos:
		cosmosAddr = addr
	default:
		return big.NewInt(0)
	}

	if alt, err := address.Alternate(addr, c, o.prefix); err == nil {
		if c == address.EVM {
			cosmosAddr = alt
		} else {
			evmAddr = alt
		}
	} else {
		o.logger.WithError(err).WithField("address", addr).Debug("alternate address form unavailable, skipping one balance source")
	}

	evmBalance := big.NewInt(0)
	cosmosBalance := big.NewInt(0)

	g, gctx := errgroup.WithContext(ctx)

	if evmAddr != "" {
		g.Go(func() error {
			queryCtx, cancel := context.WithTimeout(gctx, balanceQueryTimeout)
			defer cancel()

			balance, err := o.evm.NativeBalance(queryCtx, evmAddr)
			if err != nil {
				o.logger.WithError(err).WithField("address", evmAddr).Warn("evm balance read failed, treating as zero")
				return nil
			}
			if balance != nil {
				evmBalance = balance
			}
			return nil
		})
	}

	if cosmosAddr != "" {
		g.Go(func() error {
			queryCtx, cancel := context.WithTimeout(gctx, balanceQueryTimeout)
			defer cancel()

			balance, err := o.cosmos.DenomBalance(queryCtx, cosmosAddr, o.denom)
			if err != nil {
				o.logger.WithError(err).WithField("address", cosmosAddr).Warn("cosmos balance read failed, treating as zero")
				return nil
			}
			if balance != nil {
				cosmosBalance = balance
			}
			return nil
		})
	}

	_ = g.Wait()

	if evmBalance.Cmp(cosmosBalance) >= 0 {
		return evmBalance
	}
	return cosmosBalance
}
