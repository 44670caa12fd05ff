// internal/workers/credit/make-loan-decision/models.go
package makeloandecision

import "tezloan-workers/internal/models"

type Input struct {
	SessionID     string              `json:"sessionId"`
	CreditScore   int                 `json:"creditScore"`
	RiskCategory  models.RiskCategory `json:"riskCategory"`
	LoanAmount    int                 `json:"loanAmount"`
	LoanPurpose   string              `json:"loanPurpose"`
	MonthlyIncome int                 `json:"monthlyIncome"`
}

type Output struct {
	Decision models.LoanDecision `json:"loanDecision"`
	Offer    *models.LoanOffer   `json:"loanOffer,omitempty"`
}
