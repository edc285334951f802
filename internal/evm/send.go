package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ecommon "github.com/ethereum/go-ethereum/common"
	etypes "github.com/ethereum/go-ethereum/core/types"
)

// ErrInsufficientFunds means the faucet account cannot cover any transfer
// after reserving gas. An operational low-balance condition, not a bug.
var ErrInsufficientFunds = errors.New("evm: insufficient faucet funds")

// Result describes a mined native transfer.
type Result struct {
	TxHash      string
	BlockNumber *big.Int
	GasUsed     uint64
	From        string
	To          string
	Amount      *big.Int
	ExplorerURL string
}

// CapToSpendable limits amount to what the faucet balance can cover after
// reserving the estimated gas cost. Returns ErrInsufficientFunds when
// nothing can be sent.
func CapToSpendable(amount, balance, gasCost *big.Int) (*big.Int, error) {
	maxSendable := new(big.Int).Sub(balance, gasCost)
	if maxSendable.Sign() <= 0 {
		return nil, fmt.Errorf("%w: balance %s, gas cost %s", ErrInsufficientFunds, balance, gasCost)
	}
	if amount.Cmp(maxSendable) > 0 {
		return maxSendable, nil
	}
	return new(big.Int).Set(amount), nil
}

// Send builds, signs and broadcasts a native transfer and waits for one
// confirmation. The amount is capped to the faucet balance minus gas cost.
func (n *Network) Send(ctx context.Context, recipient string, amount *big.Int) (*Result, error) {
	priv, err := n.keys.PrivateKey()
	if err != nil {
		return nil, fmt.Errorf("evm: signer unavailable: %w", err)
	}
	pair, err := n.keys.Addresses()
	if err != nil {
		return nil, fmt.Errorf("evm: signer unavailable: %w", err)
	}

	from := hexToAddress(pair.EVM)
	to := hexToAddress(recipient)

	n.sendMu.Lock()
	defer n.sendMu.Unlock()

	gasPrice := n.gasPrice
	if gasPrice == nil {
		gasPrice, err = n.rpc.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("evm: failed to get gas price: %w", err)
		}
	}
	gasCost := new(big.Int).Mul(new(big.Int).SetUint64(n.gasLimit), gasPrice)

	balance, err := n.rpc.BalanceAt(ctx, from, nil)
	if err != nil {
		return nil, fmt.Errorf("evm: failed to get faucet balance: %w", err)
	}

	sendAmount, err := CapToSpendable(amount, balance, gasCost)
	if err != nil {
		return nil, err
	}

	nonce, err := n.rpc.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("evm: failed to get nonce: %w", err)
	}

	tx := etypes.NewTx(&etypes.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    sendAmount,
		Gas:      n.gasLimit,
		GasPrice: gasPrice,
	})

	signed, err := etypes.SignTx(tx, etypes.LatestSignerForChainID(n.chainID), priv)
	if err != nil {
		return nil, fmt.Errorf("evm: failed to sign transaction: %w", err)
	}

	if err := n.rpc.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("evm: failed to broadcast transaction: %w", err)
	}

	n.logger.WithField("tx_hash", signed.Hash().Hex()).Info("evm transaction sent, awaiting confirmation")

	receipt, err := bind.WaitMined(ctx, n.rpc, signed)
	if err != nil {
		return nil, fmt.Errorf("evm: failed waiting for confirmation: %w", err)
	}
	if receipt.Status != etypes.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("evm: transaction %s reverted in block %s", signed.Hash().Hex(), receipt.BlockNumber)
	}

	return &Result{
		TxHash:      signed.Hash().Hex(),
		BlockNumber: receipt.BlockNumber,
		GasUsed:     receipt.GasUsed,
		From:        pair.EVM,
		To:          recipient,
		Amount:      sendAmount,
		ExplorerURL: explorerTxURL(n.explorerURL, signed.Hash().Hex()),
	}, nil
}

func explorerTxURL(base, hash string) string {
	if base == "" {
		return ""
	}
	return fmt.Sprintf("%s/tx/%s", base, hash)
}

func hexToAddress(s string) ecommon.Address {
	return ecommon.HexToAddress(s)
}
