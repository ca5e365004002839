package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	WhapiBaseURL  string        `env:"WHAPI_BASE_URL" envDefault:"https://gate.whapi.cloud"`
	WhapiToken    string        `env:"WHAPI_TOKEN,required"`
	CheckInterval time.Duration `env:"CHECK_INTERVAL" envDefault:"5s"`
	WatermarkLead time.Duration `env:"WATERMARK_LEAD" envDefault:"10s"`

	// Only these sender IDs are served; everyone else is dropped silently.
	AllowedSenders []string `env:"ALLOWED_SENDERS,required" envSeparator:","`
	// Broadcast / group chats the poller must never answer.
	ExcludedChats []string `env:"EXCLUDED_CHATS" envSeparator:","`

	StoreName string `env:"STORE_NAME" envDefault:"אור השחר בע״מ"`

	SalesforceUsername       string `env:"SF_USERNAME,required"`
	SalesforcePassword       string `env:"SF_PASSWORD,required"`
	SalesforceConsumerKey    string `env:"SF_CONSUMER_KEY,required"`
	SalesforceConsumerSecret string `env:"SF_CONSUMER_SECRET,required"`
	SalesforceSecurityToken  string `env:"SF_SECURITY_TOKEN,required"`
	SalesforceLoginURL       string `env:"SF_LOGIN_URL" envDefault:"https://login.salesforce.com"`

	ICountBaseURL  string `env:"ICOUNT_BASE_URL" envDefault:"https://api.icount.co.il/api/v3.php"`
	ICountCID      string `env:"ICOUNT_CID,required"`
	ICountUsername string `env:"ICOUNT_USERNAME,required"`
	ICountPassword string `env:"ICOUNT_PASSWORD,required"`

	HTTPRequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"15s"`
	HTTPMaxRetries     uint64        `env:"HTTP_MAX_RETRIES" envDefault:"3"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if len(cfg.AllowedSenders) == 0 {
		return nil, fmt.Errorf("at least one allowed sender is required")
	}

	return &cfg, nil
}
