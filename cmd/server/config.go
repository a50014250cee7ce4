package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

type Config struct {
	Addr           string        `env:"ADDR,default=:8080"`
	LogLevel       string        `env:"LOG_LEVEL,default=info"`
	JWTSecret      string        `env:"JWT_SECRET,required=true"`
	TokenTTL       time.Duration `env:"TOKEN_TTL,default=24h"`
	BcryptCost     int           `env:"BCRYPT_COST,default=10"`
	StoreDriver    string        `env:"STORE_DRIVER,default=postgres"`
	DatabaseDSN    string        `env:"DB_DSN"`
	BadgerFilepath string        `env:"BADGER_PATH,default=./data"`
	RedisAddr      string        `env:"REDIS_ADDR"`
	RedisChannel   string        `env:"REDIS_CHANNEL,default=fonnect:events"`
	AllowedOrigins string        `env:"ALLOWED_ORIGINS,default=*"`
}

func (c Config) validate() error {
	switch c.StoreDriver {
	case "postgres":
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DB_DSN is required with STORE_DRIVER=postgres")
		}
	case "badger":
		if c.BadgerFilepath == "" {
			return fmt.Errorf("BADGER_PATH is required with STORE_DRIVER=badger")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}

// Origins splits ALLOWED_ORIGINS on commas.
func (c Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
