package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"stx-stake-gateway/internal/config"
	"stx-stake-gateway/internal/intent"
	"stx-stake-gateway/internal/notify"
	"stx-stake-gateway/internal/pricefeed"
	"stx-stake-gateway/internal/product"
	"stx-stake-gateway/internal/quote"
	"stx-stake-gateway/internal/service"
	"stx-stake-gateway/internal/storage"
	"stx-stake-gateway/internal/wallet"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newSigner() wallet.Signer {
	return wallet.NewRemoteSigner(wallet.SignerOptions{
		BaseURL:         a.Config.Signer.BaseURL,
		RequestTimeout:  a.Config.Signer.RequestTimeout,
		PollInterval:    a.Config.Signer.PollInterval,
		ApprovalTimeout: a.Config.Signer.ApprovalTimeout,
		UserAgent:       a.Config.Signer.UserAgent,
	}, a.Logger)
}

func (a *App) newAccount() *wallet.Account {
	return wallet.NewAccount(wallet.AccountOptions{
		APIBaseURL: a.Config.Network.ChainAPIBase,
		Principal:  a.Config.Network.Sender,
		Timeout:    a.Config.Network.RequestTimeout,
	}, a.Logger)
}

func (a *App) newPriceSource() pricefeed.PriceSource {
	if a.Config.Pricefeed.RPCURL != "" && a.Config.Pricefeed.AggregatorAddress != "" {
		return pricefeed.NewFeed(pricefeed.Options{
			RPCURL:            a.Config.Pricefeed.RPCURL,
			AggregatorAddress: a.Config.Pricefeed.AggregatorAddress,
			Timeout:           a.Config.Pricefeed.RequestTimeout,
		}, a.Logger)
	}
	return pricefeed.Static{Price: decimal.NewFromFloat(a.Config.Pricefeed.FallbackUSD)}
}

// stxUSD resolves the display price, falling back to the configured
// static value when the on-chain feed is unreachable.
func (a *App) stxUSD(ctx context.Context) decimal.Decimal {
	price, err := a.newPriceSource().STXUSD(ctx)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("price feed unavailable, using fallback price")
		return decimal.NewFromFloat(a.Config.Pricefeed.FallbackUSD)
	}
	return price
}

func (a *App) newNotifier() notify.Notifier {
	if !a.Config.Notify.Enabled {
		return nil
	}
	if a.Config.Notify.Telegram.Enabled {
		cfg := a.Config.Notify.Telegram
		return notify.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// newOrchestrator wires the full submission stack for one product.
func (a *App) newOrchestrator(kind product.Kind, store *storage.Store) (*service.Orchestrator, error) {
	desc, err := a.Config.Descriptor(kind)
	if err != nil {
		return nil, err
	}

	validator := quote.NewValidator(desc, a.newAccount(), a.Logger)
	builder := intent.NewBuilder(desc, a.Config.Network.ID, a.Config.Network.Sender)

	opts := service.Options{Notifier: a.newNotifier()}
	if store != nil {
		opts.Attempts = store
		opts.Locker = store
		opts.LockKey = a.Config.Submission.AdvisoryLockKey
	}

	return service.New(desc, validator, builder, a.newSigner(), opts, a.Logger), nil
}

// QuoteOptions configure the quote command.
type QuoteOptions struct {
	Product product.Kind
	Amount  decimal.Decimal
	Term    int
}

// StakeOptions configure the stake command.
type StakeOptions struct {
	Product product.Kind
	Amount  decimal.Decimal
	Term    int
	DryRun  bool
}

// PositionOptions configure the claim and unlock commands.
type PositionOptions struct {
	Product product.Kind
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

// ExportOptions hold parameters for exporting the payout curve.
type ExportOptions struct {
	Product      product.Kind
	PNGPath      string
	CSVPath      string
	MaxPoints    int
	MaxPrincipal float64
}
