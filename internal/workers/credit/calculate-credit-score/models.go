// internal/workers/credit/calculate-credit-score/models.go
package calculatecreditscore

import "tezloan-workers/internal/models"

type Input struct {
	SessionID     string `json:"sessionId"`
	MonthlyIncome int    `json:"monthlyIncome"`
	Employer      string `json:"employer"`
}

type Output struct {
	CreditScore    int                   `json:"creditScore"`
	RiskCategory   models.RiskCategory   `json:"riskCategory"`
	RiskParameters models.RiskParameters `json:"riskParameters"`
	ScoreFactors   ScoreFactors          `json:"scoreFactors"`
}

type ScoreFactors struct {
	Baseline       int `json:"baseline"`
	IncomeBonus    int `json:"incomeBonus"`
	EmployerBonus  int `json:"employerBonus"`
	StabilityBonus int `json:"stabilityBonus"`
}
