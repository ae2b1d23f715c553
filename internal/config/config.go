package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	DBDSN   string `env:"DB_DSN" envDefault:"storecraft.db"`
	LogFile string `env:"LOG_FILE" envDefault:"./storecraft.log"`

	// CheckoutTimeout bounds one whole checkout attempt; ReleaseTimeout bounds
	// the compensating stock/discount release when the caller's context is
	// already gone.
	CheckoutTimeout time.Duration `env:"CHECKOUT_TIMEOUT" envDefault:"10s"`
	ReleaseTimeout  time.Duration `env:"RELEASE_TIMEOUT" envDefault:"5s"`
}

func Load() Config {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		log.Fatalf("[config] %v", err)
	}
	log.Printf("[config] PORT=%s DB_DSN=%s LOG_FILE=%s CHECKOUT_TIMEOUT=%s",
		cfg.Port, cfg.DBDSN, cfg.LogFile, cfg.CheckoutTimeout)
	return cfg
}
