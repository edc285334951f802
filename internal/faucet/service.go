package faucet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/basementnodes/faucet/internal/address"
	"github.com/basementnodes/faucet/internal/cosmos"
	"github.com/basementnodes/faucet/internal/evm"
	"github.com/basementnodes/faucet/internal/keys"
	"github.com/basementnodes/faucet/internal/metrics"
	"github.com/basementnodes/faucet/internal/util"
)

// EVMNetwork is the EVM pipeline surface the service depends on.
type EVMNetwork interface {
	EVMBalanceReader
	Send(ctx context.Context, recipient string, amount *big.Int) (*evm.Result, error)
}

// CosmosNetwork is the Cosmos pipeline surface the service depends on.
type CosmosNetwork interface {
	CosmosBalanceReader
	Send(ctx context.Context, recipient string, amount *big.Int) (*cosmos.Result, error)
}

type Config struct {
	Prefix     string
	Denom      string
	Symbol     string
	Decimals   int
	Threshold  *big.Int
	PerRequest *big.Int
}

// Service orchestrates one distribution request end to end: classify,
// reconcile balance, decide the amount, dispatch to the matching chain
// pipeline and normalize the result.
type Service struct {
	cfg      Config
	evm      EVMNetwork
	cosmos   CosmosNetwork
	oracle   *Oracle
	keys     *keys.Manager
	metrics  *metrics.FaucetMetrics
	logger   *logrus.Logger
	inflight *inflight
}

func NewService(
	cfg Config,
	evmNet EVMNetwork,
	cosmosNet CosmosNetwork,
	km *keys.Manager,
	fm *metrics.FaucetMetrics,
	logger *logrus.Logger,
) *Service {
	return &Service{
		cfg:      cfg,
		evm:      evmNet,
		cosmos:   cosmosNet,
		oracle:   NewOracle(evmNet, cosmosNet, cfg.Denom, cfg.Prefix, logger),
		keys:     km,
		metrics:  fm,
		logger:   logger,
		inflight: newInflight(),
	}
}

// Oracle exposes the service's balance oracle to the HTTP layer.
func (s *Service) Oracle() *Oracle {
	return s.oracle
}

// HandleRequest processes one distribution request. The returned error, when
// non-nil, is always a *Failure carrying a typed kind.
func (s *Service) HandleRequest(ctx context.Context, rawAddr, requestedAmount string) (*Result, error) {
	classification := address.Classify(rawAddr, s.cfg.Prefix)
	if classification == address.Unknown {
		return nil, &Failure{
			Kind: KindUnsupportedAddress,
			Message: fmt.Sprintf(
				"Address [%s] is not supported. Must be a valid %s address or hex address (0x...)",
				rawAddr, s.cfg.Prefix,
			),
		}
	}
	network := classification.String()

	var requested *big.Int
	if requestedAmount != "" {
		var err error
		requested, err = util.ParseBaseAmount(requestedAmount)
		if err != nil {
			s.metrics.RecordRequest(network, "invalid")
			return nil, &Failure{
				Kind:    KindInvalidAmount,
				Message: fmt.Sprintf("Invalid requested amount [%s]: must be a non-negative integer in base units", requestedAmount),
				cause:   err,
			}
		}
	}

	key := s.canonicalKey(rawAddr, classification)
	if !s.inflight.tryAcquire(key) {
		s.metrics.RecordRequest(network, "in_progress")
		return nil, &Failure{
			Kind:    KindRequestInProgress,
			Message: "A request for this address is already being processed",
		}
	}
	defer s.inflight.release(key)

	balance := s.oracle.Balance(ctx, rawAddr, classification)

	sendAmount, err := Decide(balance, s.cfg.Threshold, s.cfg.PerRequest, requested)
	if err != nil {
		s.metrics.RecordDecline()
		s.metrics.RecordRequest(network, "declined")
		return nil, &Failure{
			Kind:    KindThresholdExceeded,
			Message: "Balance threshold exceeded",
			Decline: &Decline{
				Balance:   balance,
				Threshold: s.cfg.Threshold,
				Decimals:  s.cfg.Decimals,
				Symbol:    s.cfg.Symbol,
			},
			cause: err,
		}
	}

	s.logger.WithFields(logrus.Fields{
		"address": rawAddr,
		"network": network,
		"amount":  sendAmount.String(),
	}).Info("processing faucet request")

	start := time.Now()

	var result *Result
	switch classification {
	case address.EVM:
		result, err = s.sendEVM(ctx, rawAddr, sendAmount)
	default:
		result, err = s.sendCosmos(ctx, rawAddr, sendAmount)
	}
	if err != nil {
		s.metrics.RecordRequest(network, "error")
		return nil, s.asFailure(err)
	}

	s.metrics.RecordSend(network, time.Since(start))
	s.metrics.RecordRequest(network, "success")

	go s.checkFaucetReserves(classification)

	return result, nil
}

func (s *Service) sendEVM(ctx context.Context, recipient string, amount *big.Int) (*Result, error) {
	res, err := s.evm.Send(ctx, recipient, amount)
	if err != nil {
		return nil, err
	}

	var height int64
	if res.BlockNumber != nil {
		height = res.BlockNumber.Int64()
	}

	return &Result{
		NetworkType: "evm",
		TxHash:      res.TxHash,
		Height:      height,
		GasUsed:     int64(res.GasUsed),
		From:        res.From,
		To:          res.To,
		Amount:      res.Amount,
		ExplorerURL: res.ExplorerURL,
	}, nil
}

func (s *Service) sendCosmos(ctx context.Context, recipient string, amount *big.Int) (*Result, error) {
	res, err := s.cosmos.Send(ctx, recipient, amount)
	if err != nil {
		return nil, err
	}

	return &Result{
		NetworkType: "cosmos",
		TxHash:      res.TxHash,
		Height:      res.Height,
		GasUsed:     res.GasUsed,
		GasWanted:   res.GasWanted,
		From:        res.From,
		To:          res.To,
		Amount:      res.Amount,
		ExplorerURL: res.ExplorerURL,
	}, nil
}

// asFailure maps pipeline errors to typed failures. Node-reported messages
// are surfaced; anything else gets a generic message with the cause kept for
// logs only.
func (s *Service) asFailure(err error) *Failure {
	var broadcastErr *cosmos.BroadcastError
	var rejectedErr *cosmos.RejectedError

	switch {
	case errors.Is(err, evm.ErrInsufficientFunds):
		return &Failure{
			Kind:    KindInsufficientFunds,
			Message: "Faucet wallet cannot cover the transfer right now",
			cause:   err,
		}
	case errors.As(err, &broadcastErr):
		return &Failure{
			Kind:    KindBroadcastFailed,
			Message: fmt.Sprintf("Broadcast failed with status %d", broadcastErr.StatusCode),
			cause:   err,
		}
	case errors.As(err, &rejectedErr):
		return &Failure{
			Kind:    KindTransactionRejected,
			Message: fmt.Sprintf("Transaction rejected by the node: %s", rejectedErr.RawLog),
			cause:   err,
		}
	default:
		s.logger.WithError(err).Error("faucet send failed")
		return &Failure{
			Kind:    KindInternal,
			Message: "Transaction failed",
			cause:   err,
		}
	}
}

// canonicalKey normalizes both address forms of one account to a single
// in-flight lock key.
func (s *Service) canonicalKey(addr string, c address.Classification) string {
	if c == address.Cosmos {
		if evmForm, err := address.ToEVM(addr); err == nil {
			return evmForm
		}
	}
	return strings.ToLower(addr)
}

// checkFaucetReserves is an advisory post-send check: it warns when the
// faucet's own balance runs low. Failures here are silent since the check
// never affects the request outcome.
func (s *Service) checkFaucetReserves(c address.Classification) {
	pair, err := s.keys.Addresses()
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), balanceQueryTimeout)
	defer cancel()

	var balance *big.Int
	switch c {
	case address.EVM:
		balance, err = s.evm.NativeBalance(ctx, pair.EVM)
	default:
		balance, err = s.cosmos.DenomBalance(ctx, pair.Cosmos, s.cfg.Denom)
	}
	if err != nil || balance == nil {
		return
	}

	if s.cfg.PerRequest != nil && balance.Cmp(s.cfg.PerRequest) < 0 {
		s.logger.WithFields(logrus.Fields{
			"network": c.String(),
			"balance": balance.String(),
		}).Warn("faucet balance below one full distribution, top up soon")
	}
}
