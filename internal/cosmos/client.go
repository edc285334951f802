// Package cosmos implements the Cosmos-side faucet pipeline: LCD queries,
// bank-send construction with the eth_secp256k1 key type, Keccak-256
// signing and synchronous broadcast.
package cosmos

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Client queries a Cosmos LCD (REST) endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// AccountState is the signer-side state needed to build a transaction.
type AccountState struct {
	AccountNumber uint64
	Sequence      uint64
}

// Coin is one balance entry from the bank module.
type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

type baseAccountFields struct {
	AccountNumber string `json:"account_number"`
	Sequence      string `json:"sequence"`
}

// lcdAccountResponse keeps the account payload raw: its shape varies by
// on-chain account type and is resolved in parseAccount.
type lcdAccountResponse struct {
	Account json.RawMessage `json:"account"`
}

// GetAccount fetches the account number and sequence for an address. An
// account the chain has never seen (404) is treated as a fresh account
// rather than an error.
func (c *Client) GetAccount(ctx context.Context, address string) (AccountState, error) {
	url := fmt.Sprintf("%s/cosmos/auth/v1beta1/accounts/%s", c.baseURL, address)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return AccountState{}, fmt.Errorf("cosmos: failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return AccountState{}, fmt.Errorf("cosmos: failed to query account: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return AccountState{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return AccountState{}, fmt.Errorf("cosmos: unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var lcdResp lcdAccountResponse
	if err := json.NewDecoder(resp.Body).Decode(&lcdResp); err != nil {
		return AccountState{}, fmt.Errorf("cosmos: failed to decode account response: %w", err)
	}

	return parseAccount(lcdResp.Account)
}

// parseAccount resolves the account payload by its "@type". EthAccount nests
// the base fields under base_account, BaseAccount carries them flat; any
// other kind gets a best-effort read of both shapes.
func parseAccount(raw json.RawMessage) (AccountState, error) {
	if len(raw) == 0 {
		return AccountState{}, nil
	}

	var peek struct {
		Type string `json:"@type"`
	}
	if err := json.Unmarshal(raw, &peek); err != nil {
		return AccountState{}, fmt.Errorf("cosmos: failed to parse account type: %w", err)
	}

	switch {
	case strings.Contains(peek.Type, "EthAccount"):
		var acct struct {
			BaseAccount baseAccountFields `json:"base_account"`
		}
		if err := json.Unmarshal(raw, &acct); err != nil {
			return AccountState{}, fmt.Errorf("cosmos: failed to parse EthAccount: %w", err)
		}
		return accountStateFromFields(acct.BaseAccount)

	case strings.Contains(peek.Type, "BaseAccount"):
		var acct baseAccountFields
		if err := json.Unmarshal(raw, &acct); err != nil {
			return AccountState{}, fmt.Errorf("cosmos: failed to parse BaseAccount: %w", err)
		}
		return accountStateFromFields(acct)

	default:
		var acct struct {
			baseAccountFields
			BaseAccount baseAccountFields `json:"base_account"`
		}
		if err := json.Unmarshal(raw, &acct); err != nil {
			return AccountState{}, fmt.Errorf("cosmos: failed to parse account of type %q: %w", peek.Type, err)
		}
		if acct.AccountNumber != "" || acct.Sequence != "" {
			return accountStateFromFields(acct.baseAccountFields)
		}
		return accountStateFromFields(acct.BaseAccount)
	}
}

func accountStateFromFields(fields baseAccountFields) (AccountState, error) {
	var state AccountState
	var err error

	if fields.AccountNumber != "" {
		state.AccountNumber, err = strconv.ParseUint(fields.AccountNumber, 10, 64)
		if err != nil {
			return AccountState{}, fmt.Errorf("cosmos: failed to parse account number: %w", err)
		}
	}
	if fields.Sequence != "" {
		state.Sequence, err = strconv.ParseUint(fields.Sequence, 10, 64)
		if err != nil {
			return AccountState{}, fmt.Errorf("cosmos: failed to parse sequence: %w", err)
		}
	}
	return state, nil
}

// GetBalances fetches all bank balances for an address.
func (c *Client) GetBalances(ctx context.Context, address string) ([]Coin, error) {
	url := fmt.Sprintf("%s/cosmos/bank/v1beta1/balances/%s", c.baseURL, address)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("cosmos: failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cosmos: failed to query balances: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("cosmos: unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var lcdResp struct {
		Balances []Coin `json:"balances"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&lcdResp); err != nil {
		return nil, fmt.Errorf("cosmos: failed to decode balances response: %w", err)
	}

	return lcdResp.Balances, nil
}

// DenomBalance fetches the balance of a single denom, zero when absent.
func (c *Client) DenomBalance(ctx context.Context, address, denom string) (*big.Int, error) {
	balances, err := c.GetBalances(ctx, address)
	if err != nil {
		return nil, err
	}

	for _, coin := range balances {
		if coin.Denom != denom {
			continue
		}
		amount, ok := new(big.Int).SetString(coin.Amount, 10)
		if !ok {
			return nil, fmt.Errorf("cosmos: invalid balance amount %q for denom %s", coin.Amount, denom)
		}
		return amount, nil
	}

	return big.NewInt(0), nil
}

// TxResponse is the node's view of a broadcast transaction.
type TxResponse struct {
	TxHash    string
	Height    int64
	GasUsed   int64
	GasWanted int64
	RawLog    string
}

type lcdTxResponse struct {
	TxResponse struct {
		Code      int    `json:"code"`
		TxHash    string `json:"txhash"`
		Height    string `json:"height"`
		GasUsed   string `json:"gas_used"`
		GasWanted string `json:"gas_wanted"`
		RawLog    string `json:"raw_log"`
	} `json:"tx_response"`
}

// BroadcastTx submits raw transaction bytes in synchronous mode. A non-2xx
// HTTP status yields a BroadcastError; a nonzero protocol code yields a
// RejectedError carrying the node's raw log.
func (c *Client) BroadcastTx(ctx context.Context, txBytes []byte) (*TxResponse, error) {
	url := fmt.Sprintf("%s/cosmos/tx/v1beta1/txs", c.baseURL)

	payload, err := json.Marshal(map[string]string{
		"tx_bytes": base64.StdEncoding.EncodeToString(txBytes),
		"mode":     "BROADCAST_MODE_SYNC",
	})
	if err != nil {
		return nil, fmt.Errorf("cosmos: failed to marshal broadcast request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("cosmos: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cosmos: failed to broadcast: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("cosmos: failed to read broadcast response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &BroadcastError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var lcdResp lcdTxResponse
	if err := json.Unmarshal(body, &lcdResp); err != nil {
		return nil, fmt.Errorf("cosmos: failed to decode broadcast response: %w", err)
	}

	if lcdResp.TxResponse.Code != 0 {
		return nil, &RejectedError{
			Code:   lcdResp.TxResponse.Code,
			TxHash: lcdResp.TxResponse.TxHash,
			RawLog: lcdResp.TxResponse.RawLog,
		}
	}

	height, _ := strconv.ParseInt(lcdResp.TxResponse.Height, 10, 64)
	gasUsed, _ := strconv.ParseInt(lcdResp.TxResponse.GasUsed, 10, 64)
	gasWanted, _ := strconv.ParseInt(lcdResp.TxResponse.GasWanted, 10, 64)

	return &TxResponse{
		TxHash:    lcdResp.TxResponse.TxHash,
		Height:    height,
		GasUsed:   gasUsed,
		GasWanted: gasWanted,
		RawLog:    lcdResp.TxResponse.RawLog,
	}, nil
}
