package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Telegram struct {
		Token       string `env:"TELEGRAM_TOKEN"`
		PollTimeout int    `env:"TELEGRAM_POLL_TIMEOUT" envDefault:"60"`
	}

	HTTP struct {
		Addr string `env:"HTTP_ADDR" envDefault:":8080"`
	}

	Database struct {
		Path string `env:"DB_PATH" envDefault:"./data/chain.db"`
	}

	Chain struct {
		Wallets        int    `env:"CHAIN_WALLETS" envDefault:"8"`
		InitialBalance uint64 `env:"CHAIN_INITIAL_BALANCE" envDefault:"100000000000000"`
	}
}

// New читает .env (если он есть) и переменные окружения.
// Уже выставленные переменные окружения .env не перетирает.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}

	if cfg.Chain.Wallets < 0 {
		return nil, fmt.Errorf("CHAIN_WALLETS must be >= 0, got %d", cfg.Chain.Wallets)
	}

	return &cfg, nil
}
