// internal/workers/credit/make-loan-decision/config.go
package makeloandecision

import "time"

type Config struct {
	MinCreditScore    int
	MinMonthlyIncome  int
	IncomeMultiple    int
	TenureMonths      int
	ProcessingFeeRate float64
	OfferValidDays    int
	Timeout           time.Duration
}

func LoadConfig() *Config {
	return &Config{
		MinCreditScore:    600,
		MinMonthlyIncome:  25000,
		IncomeMultiple:    3,
		TenureMonths:      36,
		ProcessingFeeRate: 0.02,
		OfferValidDays:    7,
		Timeout:           5 * time.Second,
	}
}
