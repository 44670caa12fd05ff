// internal/workers/credit/calculate-credit-score/handler_test.go
package calculatecreditscore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tezloan-workers/internal/common/logger"
	"tezloan-workers/internal/models"
)

func newTestHandler(t *testing.T) *Handler {
	return NewHandler(LoadConfig(), logger.NewTestLogger(t))
}

func TestCreditScoreCalculation(t *testing.T) {
	tests := []struct {
		name     string
		income   int
		employer string
		expected int
	}{
		{"no income no employer", 0, "", 670},                       // 650 + 20
		{"tier 30k", 30000, "", 695},                                // +25
		{"tier 50k", 50000, "", 720},                                // +50
		{"tier 75k", 75000, "", 745},                                // +75
		{"tier 100k", 100000, "", 770},                              // +100
		{"highest tier only", 150000, "", 770},                      // not cumulative
		{"top employer", 50000, "Infosys Limited", 770},             // +50, allow-list first
		{"corporate suffix", 50000, "Acme Pvt Ltd", 745},            // +25
		{"plain employer", 50000, "corner store", 720},              // +0
		{"all bonuses stacked", 500000, "Google", 820},              // 650+100+50+20
	}

	handler := newTestHandler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := handler.Execute(context.Background(), &Input{
				MonthlyIncome: tt.income,
				Employer:      tt.employer,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, output.CreditScore)
		})
	}
}

func TestScoreAlwaysWithinBounds(t *testing.T) {
	handler := newTestHandler(t)

	incomes := []int{-100, 0, 15000, 29999, 30000, 75000, 100000, 10000000}
	employers := []string{"", "Infosys", "Tata Consultancy Services Limited", "random", "TCS pvt ltd"}

	for _, income := range incomes {
		for _, employer := range employers {
			output, err := handler.Execute(context.Background(), &Input{
				MonthlyIncome: income,
				Employer:      employer,
			})
			require.NoError(t, err)
			assert.GreaterOrEqual(t, output.CreditScore, 300)
			assert.LessOrEqual(t, output.CreditScore, 850)
		}
	}
}

func TestRiskCategory(t *testing.T) {
	tests := []struct {
		name     string
		income   int
		employer string
		expected models.RiskCategory
	}{
		{"low risk", 100000, "Infosys", models.RiskLow},         // 820, income >= 50k
		{"medium on income gate", 40000, "Infosys", models.RiskMedium}, // 745 < 750
		{"medium risk", 30000, "", models.RiskMedium},           // 695
		{"high on low income", 20000, "Google", models.RiskHigh}, // income < 30k
	}

	handler := newTestHandler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := handler.Execute(context.Background(), &Input{
				MonthlyIncome: tt.income,
				Employer:      tt.employer,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, output.RiskCategory)
			assert.Equal(t, models.RiskCategoryTable[tt.expected], output.RiskParameters)
		})
	}
}

func TestScoreFactorsBreakdown(t *testing.T) {
	handler := newTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		MonthlyIncome: 75000,
		Employer:      "Wipro Technologies",
	})
	require.NoError(t, err)
	assert.Equal(t, 650, output.ScoreFactors.Baseline)
	assert.Equal(t, 75, output.ScoreFactors.IncomeBonus)
	assert.Equal(t, 50, output.ScoreFactors.EmployerBonus)
	assert.Equal(t, 20, output.ScoreFactors.StabilityBonus)
	assert.Equal(t, 795, output.CreditScore)
}

func TestAssessmentIsIdempotent(t *testing.T) {
	handler := newTestHandler(t)
	input := &Input{MonthlyIncome: 60000, Employer: "TCS"}

	first, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	second, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
