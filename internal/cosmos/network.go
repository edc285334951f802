package cosmos

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/basementnodes/faucet/internal/keys"
)

type Config struct {
	RESTURL     string `envconfig:"COSMOS_REST_URL" required:"true"`
	RPCURL      string `envconfig:"COSMOS_RPC_URL" default:""`
	ChainID     string `envconfig:"COSMOS_CHAIN_ID" required:"true"`
	Denom       string `envconfig:"DENOM" required:"true"`
	FeeAmount   string `envconfig:"COSMOS_FEE_AMOUNT" default:"5000"`
	GasLimit    uint64 `envconfig:"COSMOS_GAS_LIMIT" default:"200000"`
	ExplorerURL string `envconfig:"COSMOS_EXPLORER_URL" default:""`
}

// LCDClient is the slice of the LCD surface the network needs. *Client
// implements it; tests substitute mocks.
type LCDClient interface {
	GetAccount(ctx context.Context, address string) (AccountState, error)
	GetBalances(ctx context.Context, address string) ([]Coin, error)
	DenomBalance(ctx context.Context, address, denom string) (*big.Int, error)
	BroadcastTx(ctx context.Context, txBytes []byte) (*TxResponse, error)
}

// Result describes an accepted native transfer.
type Result struct {
	TxHash      string
	Height      int64
	GasUsed     int64
	GasWanted   int64
	From        string
	To          string
	Amount      *big.Int
	ExplorerURL string
}

// Network bundles the LCD client, tx builder and signer for one Cosmos
// endpoint.
type Network struct {
	client      LCDClient
	send        *SendService
	keys        *keys.Manager
	explorerURL string
	logger      *logrus.Logger

	// The signer's sequence is fetched fresh per send, so concurrent sends
	// must be serialized or they race to the same sequence number. sendMu
	// serializes the whole fetch-build-sign-broadcast span; nextSequence
	// tracks the local view between chain-state refreshes.
	sendMu       sync.Mutex
	nextSequence uint64
	haveNext     bool
}

func NewNetwork(cfg Config, km *keys.Manager, logger *logrus.Logger) (*Network, error) {
	send, err := NewSendService(cfg.ChainID, cfg.Denom, cfg.FeeAmount, cfg.GasLimit)
	if err != nil {
		return nil, err
	}

	return &Network{
		client:      NewClient(cfg.RESTURL),
		send:        send,
		keys:        km,
		explorerURL: cfg.ExplorerURL,
		logger:      logger,
	}, nil
}

// DenomBalance reads the recipient's bank balance for a single denom.
func (n *Network) DenomBalance(ctx context.Context, address, denom string) (*big.Int, error) {
	return n.client.DenomBalance(ctx, address, denom)
}

// Balances reads the full bank balance list for an address.
func (n *Network) Balances(ctx context.Context, address string) ([]Coin, error) {
	return n.client.GetBalances(ctx, address)
}

// Send builds, signs and broadcasts a native transfer to recipient. Sends
// are serialized per signer so two concurrent calls never submit the same
// sequence number.
func (n *Network) Send(ctx context.Context, recipient string, amount *big.Int) (*Result, error) {
	priv, err := n.keys.PrivateKey()
	if err != nil {
		return nil, fmt.Errorf("cosmos: signer unavailable: %w", err)
	}
	pub, err := n.keys.CompressedPublicKey()
	if err != nil {
		return nil, fmt.Errorf("cosmos: signer unavailable: %w", err)
	}
	pair, err := n.keys.Addresses()
	if err != nil {
		return nil, fmt.Errorf("cosmos: signer unavailable: %w", err)
	}

	n.sendMu.Lock()
	defer n.sendMu.Unlock()

	// A failed read degrades to a fresh account rather than aborting.
	acct, err := n.client.GetAccount(ctx, pair.Cosmos)
	if err != nil {
		n.logger.WithError(err).Warn("cosmos: account lookup failed, assuming fresh account")
		acct = AccountState{}
	}

	sequence := acct.Sequence
	if n.haveNext && n.nextSequence > sequence {
		sequence = n.nextSequence
	}

	unsigned, err := n.send.BuildTransfer(pair.Cosmos, recipient, amount, pub, acct.AccountNumber, sequence)
	if err != nil {
		return nil, err
	}

	signature, err := SignEthSecp256k1(unsigned.SignBytes, priv)
	if err != nil {
		return nil, err
	}

	txBytes, err := AssembleTx(unsigned, signature)
	if err != nil {
		return nil, err
	}

	resp, err := n.client.BroadcastTx(ctx, txBytes)
	if err != nil {
		var rejected *RejectedError
		if errors.As(err, &rejected) {
			// The local sequence view may be stale; rebuild it from chain
			// state on the next send.
			n.haveNext = false
		}
		return nil, err
	}

	n.nextSequence = sequence + 1
	n.haveNext = true

	return &Result{
		TxHash:      resp.TxHash,
		Height:      resp.Height,
		GasUsed:     resp.GasUsed,
		GasWanted:   resp.GasWanted,
		From:        pair.Cosmos,
		To:          recipient,
		Amount:      new(big.Int).Set(amount),
		ExplorerURL: explorerTxURL(n.explorerURL, resp.TxHash),
	}, nil
}

func explorerTxURL(base, hash string) string {
	if base == "" {
		return ""
	}
	return fmt.Sprintf("%s/tx/%s", base, hash)
}
