package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds the process bootstrap configuration. Operator-tunable
// trading settings are not here; they live in the database so the control
// surface can replace them between signals (see models.Settings).
type Config struct {
	Wallet     Wallet     `mapstructure:"wallet"`
	Explorer   Explorer   `mapstructure:"explorer"`
	Pricing    Pricing    `mapstructure:"pricing"`
	Aggregator Aggregator `mapstructure:"aggregator"`
	Telegram   Telegram   `mapstructure:"telegram"`
	Trading    Trading    `mapstructure:"trading"`
	Logger     Logger     `mapstructure:"logger"`
	Server     Server     `mapstructure:"server"`
	Database   Database   `mapstructure:"database"`
}

// Wallet holds the trading account credentials.
type Wallet struct {
	Address    string `mapstructure:"address"`
	PrivateKey string `mapstructure:"private_key"`
}

// Explorer holds the etherscan-family API configuration, keyed by the
// chain's APIKeyName.
type Explorer struct {
	APIKeys        map[string]string `mapstructure:"api_keys"`
	RateLimit      float64           `mapstructure:"rate_limit"`
	RateLimitBurst int               `mapstructure:"rate_limit_burst"`
}

// Pricing holds the price-oracle API configuration.
type Pricing struct {
	BaseURL string `mapstructure:"base_url"`
}

// Aggregator holds the DEX aggregator API configuration.
type Aggregator struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// Telegram holds the alert transport credentials. Either field empty means
// alerts are silently dropped.
type Telegram struct {
	Token  string `mapstructure:"token"`
	ChatID int64  `mapstructure:"chat_id"`
}

// Trading holds execution knobs and the defaults used to seed the
// operator settings row on first run.
type Trading struct {
	ConfirmTimeout int     `mapstructure:"confirm_timeout"` // seconds
	MinGasBalance  float64 `mapstructure:"min_gas_balance"` // native units

	DefaultChain      string  `mapstructure:"default_chain"`
	DefaultStablecoin string  `mapstructure:"default_stablecoin"`
	DefaultToken      string  `mapstructure:"default_token"`
	DefaultSize       float64 `mapstructure:"default_size"`
	DefaultSlippage   float64 `mapstructure:"default_slippage"`
	DefaultMin        float64 `mapstructure:"default_min"`
}

// Server holds the configuration for the API server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("explorer.rate_limit", 5) // requests per second
	viper.SetDefault("explorer.rate_limit_burst", 2)
	viper.SetDefault("pricing.base_url", "https://api.coingecko.com/api/v3")
	viper.SetDefault("aggregator.base_url", "https://api.1inch.dev/swap/v6.0")
	viper.SetDefault("trading.confirm_timeout", 180)
	viper.SetDefault("trading.min_gas_balance", 0.01)
	viper.SetDefault("trading.default_chain", "mumbai")
	viper.SetDefault("trading.default_stablecoin", "USDC")
	viper.SetDefault("trading.default_token", "WETH")
	viper.SetDefault("trading.default_size", 0.25)
	viper.SetDefault("trading.default_slippage", 0.5)
	viper.SetDefault("trading.default_min", 10)
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.dsn", "trader.db")
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
