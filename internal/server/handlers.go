package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/basementnodes/faucet/internal/faucet"
	"github.com/basementnodes/faucet/internal/util"
)

// The response envelope keeps the original wire contract: every outcome is
// HTTP 200 with a "result" that is either a plain string (malformed input)
// or a coded object. Code 0 is success, -1 a fault, -2 a threshold decline.
type sendResponse struct {
	Result any `json:"result"`
}

type sendSuccess struct {
	Code            int    `json:"code"`
	Status          string `json:"status"`
	Message         string `json:"message"`
	NetworkType     string `json:"network_type"`
	TransactionHash string `json:"transaction_hash"`
	BlockNumber     int64  `json:"block_number,omitempty"`
	Height          int64  `json:"height,omitempty"`
	GasUsed         string `json:"gas_used,omitempty"`
	GasWanted       string `json:"gas_wanted,omitempty"`
	FromAddress     string `json:"from_address,omitempty"`
	ToAddress       string `json:"to_address,omitempty"`
	Amount          string `json:"amount,omitempty"`
	ExplorerURL     string `json:"explorer_url,omitempty"`
}

type sendFault struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handleSend(c echo.Context) error {
	addr := c.Param("address")
	if addr == "" {
		return c.JSON(http.StatusOK, sendResponse{Result: "Address is required!"})
	}

	result, err := s.faucet.HandleRequest(c.Request().Context(), addr, c.QueryParam("amount"))
	if err != nil {
		return c.JSON(http.StatusOK, sendResponse{Result: s.faultResult(addr, err)})
	}

	success := sendSuccess{
		Code:            0,
		Status:          "success",
		Message:         "Tokens sent successfully!",
		NetworkType:     result.NetworkType,
		TransactionHash: result.TxHash,
		GasUsed:         strconv.FormatInt(result.GasUsed, 10),
		FromAddress:     result.From,
		ToAddress:       result.To,
		ExplorerURL:     result.ExplorerURL,
	}
	if result.Amount != nil {
		success.Amount = result.Amount.String()
	}
	if result.NetworkType == "evm" {
		success.BlockNumber = result.Height
	} else {
		success.Height = result.Height
		success.GasWanted = strconv.FormatInt(result.GasWanted, 10)
	}

	return c.JSON(http.StatusOK, sendResponse{Result: success})
}

func (s *Server) faultResult(addr string, err error) any {
	var failure *faucet.Failure
	if !errors.As(err, &failure) {
		s.logger.WithError(err).Error("send request failed")
		return sendFault{Code: -1, Message: "Transaction failed", Error: err.Error()}
	}

	switch failure.Kind {
	case faucet.KindUnsupportedAddress:
		return failure.Message
	case faucet.KindThresholdExceeded:
		fault := sendFault{Code: -2, Message: failure.Message}
		if d := failure.Decline; d != nil {
			fault.Details = fmt.Sprintf(
				"Address %s already has %s %s. Faucet only tops up wallets below %s %s.",
				addr,
				util.FromBaseUnits(d.Balance, d.Decimals), d.Symbol,
				util.FromBaseUnits(d.Threshold, d.Decimals), d.Symbol,
			)
		}
		return fault
	default:
		return sendFault{Code: -1, Message: failure.Message, Error: string(failure.Kind)}
	}
}

type balanceEntry struct {
	Denom    string `json:"denom"`
	Amount   string `json:"amount"`
	Type     string `json:"type"`
	Decimals int    `json:"decimals"`
}

type balanceResponse struct {
	Balances []balanceEntry `json:"balances"`
	Type     string         `json:"type"`
}

// handleBalance reports wallet balances for either chain interface. Without
// an address query it reports the faucet's own wallet. Read failures
// degrade to an empty list rather than an error status.
func (s *Server) handleBalance(c echo.Context) error {
	kind := c.Param("type")
	addr := c.QueryParam("address")
	balances := []balanceEntry{}

	switch kind {
	case "evm":
		target := s.info.FaucetEVMAddress
		if strings.HasPrefix(addr, "0x") {
			target = addr
		}
		balance, err := s.evm.NativeBalance(c.Request().Context(), target)
		if err != nil {
			s.logger.WithError(err).WithField("address", target).Warn("evm balance read failed")
		} else if balance != nil {
			balances = append(balances, balanceEntry{
				Denom:    s.info.Denom,
				Amount:   balance.String(),
				Type:     "native",
				Decimals: s.info.Decimals,
			})
		}
	case "cosmos":
		target := s.info.FaucetCosmosAddress
		if strings.HasPrefix(addr, s.info.Prefix) {
			target = addr
		}
		coins, err := s.cosmos.Balances(c.Request().Context(), target)
		if err != nil {
			s.logger.WithError(err).WithField("address", target).Warn("cosmos balance read failed")
		}
		for _, coin := range coins {
			decimals := 6
			if coin.Denom == s.info.Denom {
				decimals = s.info.Decimals
			}
			balances = append(balances, balanceEntry{
				Denom:    coin.Denom,
				Amount:   coin.Amount,
				Type:     "native",
				Decimals: decimals,
			})
		}
	}

	return c.JSON(http.StatusOK, balanceResponse{Balances: balances, Type: kind})
}

// handleConfig serves the chain metadata web clients need to render the
// faucet UI and register the network in a wallet.
func (s *Server) handleConfig(c echo.Context) error {
	info := s.info

	return c.JSON(http.StatusOK, map[string]any{
		"project": map[string]any{
			"name": info.Name,
		},
		"blockchain": map[string]any{
			"name": info.Name,
			"ids": map[string]any{
				"chainId":       info.EVMChainID,
				"cosmosChainId": info.CosmosChainID,
			},
			"sender": map[string]any{
				"option": map[string]any{"prefix": info.Prefix},
			},
			"balanceThreshold": info.Threshold,
		},
		"tokens": []map[string]any{
			{
				"denom":    info.Denom,
				"symbol":   info.Symbol,
				"name":     info.Symbol,
				"amount":   info.Amount,
				"decimals": info.Decimals,
			},
		},
		"sample": map[string]any{
			"cosmos": info.Prefix + "1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqnrql8a",
			"evm":    "0x0000000000000000000000000000000000000001",
		},
		"network": map[string]any{
			"name": info.Name,
			"faucetAddresses": map[string]any{
				"cosmos": info.FaucetCosmosAddress,
				"evm":    info.FaucetEVMAddress,
			},
			"evm": map[string]any{
				"chainId":    info.EVMChainID,
				"chainIdHex": fmt.Sprintf("0x%x", info.EVMChainID),
				"rpc":        info.EVMRPCURL,
				"explorer":   info.EVMExplorerURL,
			},
			"cosmos": map[string]any{
				"chainId":  info.CosmosChainID,
				"rpc":      info.CosmosRPCURL,
				"rest":     info.CosmosRESTURL,
				"prefix":   info.Prefix,
				"explorer": info.CosmosExplorerURL,
			},
		},
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":         "healthy",
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	})
}

func (s *Server) handleTest(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":        "ok",
		"evmAddress":    s.info.FaucetEVMAddress,
		"cosmosAddress": s.info.FaucetCosmosAddress,
	})
}
