package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:5173"`
	}

	Redis struct {
		Addr        string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
		Password    string        `env:"REDIS_PASSWORD" envDefault:""`
		DB          int           `env:"REDIS_DB" envDefault:"0"`
		PoolSize    int           `env:"REDIS_POOL_SIZE" envDefault:"0"`
		DialTimeout time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
		// Disabled keeps all state in process memory; streams and caching are off
		Disabled  bool   `env:"REDIS_DISABLED" envDefault:"false"`
		KeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"nfticket:"`

		// Stream the lifecycle worker consumes (redemptions, deferred mints)
		TicketEventsStream string `env:"REDIS_TICKET_EVENTS_STREAM" envDefault:"nfticket:ticket-events"`
		// Stream user notifications are mirrored to; empty disables
		NotificationsStream string `env:"REDIS_NOTIFICATIONS_STREAM" envDefault:"nfticket:notifications"`
	}

	Wallet struct {
		TargetChainID   int64  `env:"WALLET_TARGET_CHAIN_ID" envDefault:"8080"`
		TargetChainName string `env:"WALLET_TARGET_CHAIN_NAME" envDefault:"Shardeum Unstablenet"`

		// Simulated wallet behaviour
		InitialChainID int64  `env:"WALLET_SIM_INITIAL_CHAIN_ID" envDefault:"1"`
		Address        string `env:"WALLET_SIM_ADDRESS" envDefault:""`
		RejectConnect  bool   `env:"WALLET_SIM_REJECT_CONNECT" envDefault:"false"`
		RejectSwitch   bool   `env:"WALLET_SIM_REJECT_SWITCH" envDefault:"false"`
	}

	Settlement struct {
		MintDelay   time.Duration `env:"SETTLEMENT_MINT_DELAY" envDefault:"3s"`
		CardDelay   time.Duration `env:"SETTLEMENT_CARD_DELAY" envDefault:"2s"`
		Timeout     time.Duration `env:"SETTLEMENT_TIMEOUT" envDefault:"30s"`
		FailureRate float64       `env:"SETTLEMENT_FAILURE_RATE" envDefault:"0"`

		// How long a settled purchase stays readable before it is forgotten
		RetainFinished time.Duration `env:"PURCHASE_RETAIN_FINISHED" envDefault:"15m"`
	}

	Auth struct {
		TelegramBotToken string        `env:"TELEGRAM_BOT_TOKEN" envDefault:""`
		InitDataTTL      time.Duration `env:"INIT_DATA_TTL" envDefault:"24h"`
		BcryptCost       int           `env:"BCRYPT_COST" envDefault:"10"`
	}

	AMQP struct {
		URL   string `env:"AMQP_URL" envDefault:""`
		Queue string `env:"AMQP_TICKET_QUEUE" envDefault:"ticket.purchased"`
	}

	CatalogPath string `env:"CATALOG_PATH" envDefault:""`
}

func Load() (*Config, error) {
	// .env is optional; in production variables come from the environment
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
