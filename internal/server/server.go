package server

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/basementnodes/faucet/internal/cosmos"
	"github.com/basementnodes/faucet/internal/faucet"
	"github.com/basementnodes/faucet/internal/metrics"
)

// ShutdownTimeout bounds how long in-flight requests may run during a
// graceful stop.
const ShutdownTimeout = 10 * time.Second

type Config struct {
	Host           string   `envconfig:"HOST" default:"0.0.0.0"`
	Port           string   `envconfig:"PORT" default:"8088"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS"`
}

// ChainInfo is the public chain metadata served to web clients. It carries
// no secrets; everything here is already visible on chain.
type ChainInfo struct {
	Name                string
	Prefix              string
	Denom               string
	Symbol              string
	Decimals            int
	Amount              string
	Threshold           string
	EVMChainID          int64
	EVMRPCURL           string
	EVMExplorerURL      string
	CosmosChainID       string
	CosmosRPCURL        string
	CosmosRESTURL       string
	CosmosExplorerURL   string
	FaucetEVMAddress    string
	FaucetCosmosAddress string
}

// Faucet is the distribution surface the HTTP layer depends on.
type Faucet interface {
	HandleRequest(ctx context.Context, rawAddr, requestedAmount string) (*faucet.Result, error)
}

// EVMBalanceReader reads a native balance for the wallet endpoint.
type EVMBalanceReader interface {
	NativeBalance(ctx context.Context, addr string) (*big.Int, error)
}

// CosmosBalanceReader lists bank balances for the wallet endpoint.
type CosmosBalanceReader interface {
	Balances(ctx context.Context, addr string) ([]cosmos.Coin, error)
}

// Server is the public faucet API.
type Server struct {
	e       *echo.Echo
	cfg     Config
	info    ChainInfo
	faucet  Faucet
	evm     EVMBalanceReader
	cosmos  CosmosBalanceReader
	logger  *logrus.Logger
	started time.Time
}

func NewServer(
	cfg Config,
	info ChainInfo,
	f Faucet,
	evmReader EVMBalanceReader,
	cosmosReader CosmosBalanceReader,
	logger *logrus.Logger,
) *Server {
	s := &Server{
		e:       echo.New(),
		cfg:     cfg,
		info:    info,
		faucet:  f,
		evm:     evmReader,
		cosmos:  cosmosReader,
		logger:  logger,
		started: time.Now(),
	}

	s.e.HideBanner = true
	s.e.HidePort = true

	s.e.Use(middleware.Recover())
	s.e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc:  newOriginChecker(cfg.AllowedOrigins),
		AllowMethods:     []string{http.MethodGet, http.MethodPost},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	s.e.Use(metrics.HTTPMiddleware())

	s.e.GET("/send/:address", s.handleSend)
	s.e.GET("/balance/:type", s.handleBalance)
	s.e.GET("/config.json", s.handleConfig)
	s.e.GET("/health", s.handleHealth)
	s.e.GET("/test", s.handleTest)

	return s
}

// Start blocks serving requests until the listener fails or Stop is called.
func (s *Server) Start() error {
	addr := s.cfg.Host + ":" + s.cfg.Port
	s.logger.Infof("faucet server listening on %s", addr)

	err := s.e.Start(addr)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
