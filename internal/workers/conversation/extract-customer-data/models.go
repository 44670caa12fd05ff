// internal/workers/conversation/extract-customer-data/models.go
package extractcustomerdata

import "tezloan-workers/internal/models"

type Input struct {
	SessionID string `json:"sessionId"`
	Text      string `json:"text"`
}

type Output struct {
	Profile     models.CustomerProfile `json:"profile"`
	Fields      map[string]string      `json:"extractedFields"`
	FieldErrors []string               `json:"fieldErrors,omitempty"`
}
