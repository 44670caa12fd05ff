// internal/workers/transcript/process-transcript/config.go
package processtranscript

import "time"

type Config struct {
	MaxTokens      int
	Temperature    float64
	SummaryLimit   int
	Timeout        time.Duration
}

func LoadConfig() *Config {
	return &Config{
		MaxTokens:    1024,
		Temperature:  0.1,
		SummaryLimit: 2000,
		Timeout:      60 * time.Second,
	}
}
