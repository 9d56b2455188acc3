package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppPort    string `envconfig:"APP_PORT" default:"3000"`
	NewsAPIKey string `envconfig:"NEWS_API_KEY" default:""`

	// base URLs are overridable so tests and proxies can point elsewhere
	BinanceBaseURL   string `envconfig:"BINANCE_BASE_URL" default:"https://api.binance.com"`
	CoinGeckoBaseURL string `envconfig:"COINGECKO_BASE_URL" default:"https://api.coingecko.com/api/v3"`
	NewsBaseURL      string `envconfig:"NEWS_BASE_URL" default:"https://min-api.cryptocompare.com"`

	// poll periods, de-synchronized by small offsets to avoid request bursts
	PriceInterval    time.Duration `envconfig:"PRICE_INTERVAL" default:"5s"`
	PressureInterval time.Duration `envconfig:"PRESSURE_INTERVAL" default:"5100ms"`
	ReservesInterval time.Duration `envconfig:"RESERVES_INTERVAL" default:"30200ms"`
	ETFInterval      time.Duration `envconfig:"ETF_INTERVAL" default:"300300ms"`
	NewsInterval     time.Duration `envconfig:"NEWS_INTERVAL" default:"5m"`
	CandlesInterval  time.Duration `envconfig:"CANDLES_INTERVAL" default:"60500ms"`
}

// Load reads .env if present, then maps environment variables onto Config.
func Load() (*Config, error) {
	// .env is optional; production reads the environment directly
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
