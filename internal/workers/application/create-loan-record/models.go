// internal/workers/application/create-loan-record/models.go
package createloanrecord

import "tezloan-workers/internal/models"

type Input struct {
	SessionID  string                  `json:"sessionId"`
	Profile    models.CustomerProfile  `json:"customerProfile"`
	Assessment models.CreditAssessment `json:"creditAssessment"`
}

type Output struct {
	LoanID            string `json:"loanId"`
	ApplicationStatus string `json:"applicationStatus"`
	CreatedAt         string `json:"createdAt"` // ISO 8601
}
