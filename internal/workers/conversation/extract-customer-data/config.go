// internal/workers/conversation/extract-customer-data/config.go
package extractcustomerdata

import "time"

type Config struct {
	MinLoan   int
	MaxLoan   int
	MinIncome int
	MaxIncome int
	Timeout   time.Duration
}

func LoadConfig() *Config {
	return &Config{
		MinLoan:   50000,
		MaxLoan:   2000000,
		MinIncome: 15000,
		MaxIncome: 1000000,
		Timeout:   10 * time.Second,
	}
}
