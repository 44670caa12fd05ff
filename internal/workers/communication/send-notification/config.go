// internal/workers/communication/send-notification/config.go
package sendnotification

import (
	"os"
	"time"
)

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	AWSRegion    string
	Timeout      time.Duration
}

func LoadConfig() *Config {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "ap-south-1"
	}
	fromEmail := os.Getenv("NOTIFICATION_FROM_EMAIL")
	if fromEmail == "" {
		fromEmail = "loans@tezloan.in"
	}

	return &Config{
		EmailEnabled: os.Getenv("NOTIFICATION_EMAIL_DISABLED") != "true",
		SMSEnabled:   os.Getenv("NOTIFICATION_SMS_DISABLED") != "true",
		FromEmail:    fromEmail,
		AWSRegion:    region,
		Timeout:      30 * time.Second,
	}
}
