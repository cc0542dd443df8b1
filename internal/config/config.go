package config

import (
	"encoding/base64"
	"fmt"
	"time"
)

const (
	defaultMinIncrement  = 1.0
	defaultStatsInterval = 15 * time.Second
)

type Config struct {
	ServerAddr      string
	DatabaseDSN     string
	SigningKey      []byte
	AllowedOrigins  []string
	MinBidIncrement float64
	StatsInterval   time.Duration
}

func decodeSigningSecret(base64Secret string) ([]byte, error) {
	if base64Secret == "" {
		return nil, fmt.Errorf("signing secret cannot be empty")
	}

	return base64.StdEncoding.DecodeString(base64Secret)
}

func NewConfig(serverAddr, databaseDSN, base64Secret string, allowedOrigins []string, minIncrement float64, statsInterval time.Duration) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if databaseDSN == "" {
		return nil, fmt.Errorf("database DSN cannot be empty")
	}
	if base64Secret == "" {
		return nil, fmt.Errorf("signing secret cannot be empty")
	}
	if minIncrement <= 0 {
		minIncrement = defaultMinIncrement
	}
	if statsInterval <= 0 {
		statsInterval = defaultStatsInterval
	}

	signingKey, err := decodeSigningSecret(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}

	return &Config{
		ServerAddr:      serverAddr,
		DatabaseDSN:     databaseDSN,
		SigningKey:      signingKey,
		AllowedOrigins:  allowedOrigins,
		MinBidIncrement: minIncrement,
		StatsInterval:   statsInterval,
	}, nil
}
