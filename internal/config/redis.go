package config

// This file defines the Redis client constructor. Redis backs the short-lived
// claim taken on a reset token while it is being confirmed. If the server
// cannot be reached during startup the constructor returns nil and callers
// degrade gracefully by relying on the database's conditional update alone.

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig is read from REDIS_* variables.
//
//	REDIS_HOST and REDIS_PORT – hostname and port of the Redis server
//	REDIS_ADDR – host:port shorthand (host/port win when both are set)
//	REDIS_PASSWORD – optional password
//	REDIS_DB – database number (default 0)
//	REDIS_TLS – enable TLS
//	REDIS_LOCK_TTL – lifetime of a reset-token claim
//	REDIS_PREFIX – key namespace
type RedisConfig struct {
	Host     string        `env:"HOST"`
	Port     string        `env:"PORT"`
	Addr     string        `env:"ADDR"`
	Password string        `env:"PASSWORD"`
	DB       int           `env:"DB" envDefault:"0"`
	TLS      bool          `env:"TLS" envDefault:"false"`
	LockTTL  time.Duration `env:"LOCK_TTL" envDefault:"30s"`
	Prefix   string        `env:"PREFIX" envDefault:"identity"`
}

// Address resolves the host:port to dial, or "" when Redis is not configured.
func (c RedisConfig) Address() string {
	if c.Host != "" && c.Port != "" {
		return c.Host + ":" + c.Port
	}
	return c.Addr
}

// NewRedisClient instantiates a Redis client. The returned client is nil when
// Redis is not configured or a connection cannot be established.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	addr := cfg.Address()
	if addr == "" {
		return nil
	}
	var tlsConf *tls.Config
	if cfg.TLS {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      addr,
		Password:  cfg.Password,
		DB:        cfg.DB,
		TLSConfig: tlsConf,
	})
	// Ping the server with a short timeout. Return nil on failure.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
