package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"stx-stake-gateway/internal/logging"
	"stx-stake-gateway/internal/product"
)

// Config materialises application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Logging    logging.Config   `mapstructure:"logging"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Network    NetworkConfig    `mapstructure:"network"`
	Signer     SignerConfig     `mapstructure:"signer"`
	Pricefeed  PricefeedConfig  `mapstructure:"pricefeed"`
	Products   ProductsConfig   `mapstructure:"products"`
	Submission SubmissionConfig `mapstructure:"submission"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Export     ExportConfig     `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity for the attempt
// audit trail. Optional: an empty DSN disables persistence.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// NetworkConfig identifies the target chain and its API node.
type NetworkConfig struct {
	ID             string        `mapstructure:"id"`
	ChainAPIBase   string        `mapstructure:"chain_api_base"`
	Sender         string        `mapstructure:"sender"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// SignerConfig covers the remote wallet/signing daemon.
type SignerConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	ApprovalTimeout time.Duration `mapstructure:"approval_timeout"`
	UserAgent       string        `mapstructure:"user_agent"`
}

// PricefeedConfig covers the USD reference price.
type PricefeedConfig struct {
	RPCURL            string        `mapstructure:"rpc_url"`
	AggregatorAddress string        `mapstructure:"aggregator_address"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	FallbackUSD       float64       `mapstructure:"fallback_usd"`
}

// ProductsConfig holds per-product overrides of the built-in
// descriptors.
type ProductsConfig struct {
	Vault ProductConfig `mapstructure:"vault"`
	Node  ProductConfig `mapstructure:"node"`
}

// ProductConfig overrides descriptor fields; zero values keep the
// contract defaults.
type ProductConfig struct {
	ContractAddress string             `mapstructure:"contract_address"`
	ContractName    string             `mapstructure:"contract_name"`
	MinStake        float64            `mapstructure:"min_stake"`
	ExchangeRate    string             `mapstructure:"exchange_rate"`
	DefaultRatePct  float64            `mapstructure:"default_rate_pct"`
	Rates           map[string]float64 `mapstructure:"rates"`
}

// SubmissionConfig tunes the orchestrator.
type SubmissionConfig struct {
	AdvisoryLockKey int64 `mapstructure:"advisory_lock_key"`
}

// NotifyConfig defines outcome push routing.
type NotifyConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig 描述 Telegram 推送参数。
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour for the payout curve.
type ExportConfig struct {
	MaxPoints    int     `mapstructure:"max_points"`
	MaxPrincipal float64 `mapstructure:"max_principal"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("STAKEGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "stakegate")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("network.id", "testnet")
	v.SetDefault("network.chain_api_base", "https://api.testnet.hiro.so")
	v.SetDefault("network.request_timeout", "10s")

	v.SetDefault("signer.request_timeout", "10s")
	v.SetDefault("signer.poll_interval", "2s")
	v.SetDefault("signer.approval_timeout", "0s")
	v.SetDefault("signer.user_agent", "stakegate/1.0")

	v.SetDefault("pricefeed.request_timeout", "10s")
	v.SetDefault("pricefeed.fallback_usd", 0.6)

	v.SetDefault("submission.advisory_lock_key", int64(0x53545855))

	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.telegram.enabled", false)
	v.SetDefault("notify.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.max_points", 200)
	v.SetDefault("export.max_principal", 1000.0)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.migrations_path", "migrations")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Export.MaxPoints <= 0 {
		return fmt.Errorf("export.max_points must be greater than zero")
	}
	if c.Export.MaxPrincipal <= 0 {
		return fmt.Errorf("export.max_principal must be greater than zero")
	}
	if c.Pricefeed.FallbackUSD < 0 {
		return fmt.Errorf("pricefeed.fallback_usd cannot be negative")
	}
	if c.Notify.Telegram.Enabled {
		if c.Notify.Telegram.BotToken == "" {
			return fmt.Errorf("notify.telegram.bot_token 必须配置")
		}
		if c.Notify.Telegram.ChatID == "" {
			return fmt.Errorf("notify.telegram.chat_id 必须配置")
		}
	}
	if _, err := c.Descriptor(product.LongRunVault); err != nil {
		return err
	}
	if _, err := c.Descriptor(product.NodeStaking); err != nil {
		return err
	}
	return nil
}

// Descriptor resolves the effective product descriptor: built-in
// contract defaults with config overrides applied.
func (c *Config) Descriptor(kind product.Kind) (product.Descriptor, error) {
	desc, err := product.Default(kind)
	if err != nil {
		return product.Descriptor{}, err
	}

	var override ProductConfig
	switch kind {
	case product.LongRunVault:
		override = c.Products.Vault
	case product.NodeStaking:
		override = c.Products.Node
	}

	if override.ContractAddress != "" {
		desc.Contract.Address = override.ContractAddress
	}
	if override.ContractName != "" {
		desc.Contract.Name = override.ContractName
	}
	if override.MinStake > 0 {
		desc.MinStake = decimal.NewFromFloat(override.MinStake)
	}
	if override.ExchangeRate != "" {
		rate, err := decimal.NewFromString(override.ExchangeRate)
		if err != nil {
			return product.Descriptor{}, fmt.Errorf("products.%s.exchange_rate: %w", kind, err)
		}
		desc.ExchangeRate = rate
	}
	if len(override.Rates) > 0 || override.DefaultRatePct > 0 {
		defaultRate := desc.Rates.DefaultRate()
		if override.DefaultRatePct > 0 {
			defaultRate = decimal.NewFromFloat(override.DefaultRatePct)
		}
		tiers := make([]product.RateTier, 0, len(override.Rates))
		if len(override.Rates) > 0 {
			for termStr, ratePct := range override.Rates {
				term, err := strconv.Atoi(termStr)
				if err != nil {
					return product.Descriptor{}, fmt.Errorf("products.%s.rates: invalid term %q", kind, termStr)
				}
				tiers = append(tiers, product.RateTier{
					Term:          product.TermSelector(term),
					AnnualRatePct: decimal.NewFromFloat(ratePct),
				})
			}
		} else {
			for _, term := range desc.Rates.Terms() {
				tiers = append(tiers, product.RateTier{Term: term, AnnualRatePct: desc.Rates.Rate(term)})
			}
		}
		desc.Rates = product.NewRateTable(defaultRate, tiers...)
	}

	if err := desc.Validate(); err != nil {
		return product.Descriptor{}, err
	}
	return desc, nil
}
