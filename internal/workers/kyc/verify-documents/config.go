// internal/workers/kyc/verify-documents/config.go
package verifydocuments

import "time"

type Config struct {
	VerifiedThreshold float64
	Timeout           time.Duration
}

func LoadConfig() *Config {
	return &Config{
		VerifiedThreshold: 80,
		Timeout:           15 * time.Second,
	}
}
