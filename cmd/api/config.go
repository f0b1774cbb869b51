package main

import (
	"log/slog"
	"time"

	"github.com/fastprodman/casino-wallet/internal/config"
)

type apiConfig struct {
	Port            uint16        `env:"APP_PORT"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT"`

	// Shared secret of the provider contract; every callback signature
	// is an HMAC-MD5 keyed with it.
	ProviderKey string `env:"PROVIDER_API_KEY"`

	Postgres config.PostgresConfig
}
