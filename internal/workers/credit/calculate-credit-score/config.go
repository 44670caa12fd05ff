// internal/workers/credit/calculate-credit-score/config.go
package calculatecreditscore

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}
