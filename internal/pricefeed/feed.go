package pricefeed

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	aggregatorABIJSON = `[{"inputs":[],"name":"latestRoundData","outputs":[{"internalType":"uint80","name":"roundId","type":"uint80"},{"internalType":"int256","name":"answer","type":"int256"},{"internalType":"uint256","name":"startedAt","type":"uint256"},{"internalType":"uint256","name":"updatedAt","type":"uint256"},{"internalType":"uint80","name":"answeredInRound","type":"uint80"}],"stateMutability":"view","type":"function"}]`

	// Chainlink USD aggregators report with 8 decimals.
	answerDecimals = 8
)

var aggregatorABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(aggregatorABIJSON))
	if err != nil {
		panic("failed to parse aggregator ABI: " + err.Error())
	}
	aggregatorABI = parsed
}

// PriceSource provides a USD reference price for STX.
type PriceSource interface {
	STXUSD(ctx context.Context) (decimal.Decimal, error)
}

// Options parameterise the on-chain price feed.
type Options struct {
	RPCURL            string
	AggregatorAddress string
	Timeout           time.Duration
}

// Feed reads the STX/USD price from a Chainlink-style aggregator over
// Ethereum RPC. Used for display annotations only; never for payout
// or validation math.
type Feed struct {
	opts      Options
	logger    zerolog.Logger
	client    *ethclient.Client
	clientMux sync.Mutex
}

// NewFeed builds a price feed client.
func NewFeed(opts Options, logger zerolog.Logger) *Feed {
	return &Feed{opts: opts, logger: logger.With().Str("component", "pricefeed").Logger()}
}

// STXUSD fetches the latest aggregator answer.
func (f *Feed) STXUSD(ctx context.Context) (decimal.Decimal, error) {
	if f.opts.RPCURL == "" {
		return decimal.Decimal{}, errors.New("pricefeed rpc url not configured")
	}
	if f.opts.AggregatorAddress == "" {
		return decimal.Decimal{}, errors.New("aggregator contract address not configured")
	}

	timeout := f.opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var cancel context.CancelFunc
	ctx, cancel = context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := f.getClient(ctx)
	if err != nil {
		return decimal.Decimal{}, err
	}

	addr := common.HexToAddress(f.opts.AggregatorAddress)

	payload, err := aggregatorABI.Pack("latestRoundData")
	if err != nil {
		return decimal.Decimal{}, err
	}

	res, err := client.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: payload}, nil)
	if err != nil {
		return decimal.Decimal{}, err
	}

	outputs, err := aggregatorABI.Unpack("latestRoundData", res)
	if err != nil {
		return decimal.Decimal{}, err
	}

	if len(outputs) != 5 {
		return decimal.Decimal{}, errors.New("unexpected latestRoundData response")
	}

	answer, ok := outputs[1].(*big.Int)
	if !ok {
		return decimal.Decimal{}, errors.New("failed to decode aggregator answer")
	}
	if answer.Sign() <= 0 {
		return decimal.Decimal{}, errors.New("aggregator returned non-positive price")
	}

	return decimal.NewFromBigInt(answer, -answerDecimals), nil
}

func (f *Feed) getClient(ctx context.Context) (*ethclient.Client, error) {
	f.clientMux.Lock()
	defer f.clientMux.Unlock()

	if f.client != nil {
		return f.client, nil
	}

	client, err := ethclient.DialContext(ctx, f.opts.RPCURL)
	if err != nil {
		return nil, err
	}
	f.client = client
	return client, nil
}

// Static returns a fixed fallback price source.
type Static struct {
	Price decimal.Decimal
}

// STXUSD returns the fixed price.
func (s Static) STXUSD(ctx context.Context) (decimal.Decimal, error) {
	return s.Price, nil
}

var (
	_ PriceSource = (*Feed)(nil)
	_ PriceSource = Static{}
)
