// internal/workers/orchestration/process-loan-request/config.go
package processloanrequest

import (
	"os"
	"time"
)

type Config struct {
	AuditIndex string
	Timeout    time.Duration
}

func LoadConfig() *Config {
	index := os.Getenv("LOAN_AUDIT_INDEX")
	if index == "" {
		index = "loan-assessments"
	}

	return &Config{
		AuditIndex: index,
		Timeout:    60 * time.Second,
	}
}
