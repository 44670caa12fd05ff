// internal/workers/conversation/advance-stage/config.go
package advancestage

import "time"

type Config struct {
	IncomeRatio float64
	Timeout     time.Duration
}

func LoadConfig() *Config {
	return &Config{
		IncomeRatio: 3.0,
		Timeout:     5 * time.Second,
	}
}
