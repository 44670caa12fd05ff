// internal/workers/conversation/extract-customer-data/handler_test.go
package extractcustomerdata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tezloan-workers/internal/common/logger"
)

func newTestHandler(t *testing.T) *Handler {
	return NewHandler(LoadConfig(), logger.NewTestLogger(t))
}

func TestExtractLoanAmount(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int
		found    bool
	}{
		{"lakh form", "I need a 5 lakh loan", 500000, true},
		{"plural lakhs", "looking for 12 lakhs", 1200000, true},
		{"thousand form", "maybe 80 thousand would do", 80000, true},
		{"currency grouped", "I want ₹2,50,000 for my shop", 250000, true},
		{"bare digits", "need 750000 urgently", 750000, true},
		{"below band rejected", "just 20000 please", 0, false},
		{"above band rejected", "need 50 lakh", 0, false},
		{"no amount", "I would like a loan", 0, false},
		{"lakh wins over bare digits", "5 lakh or maybe 600000", 500000, true},
	}

	handler := newTestHandler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := handler.Execute(context.Background(), &Input{Text: tt.text})
			require.NoError(t, err)
			if tt.found {
				assert.Equal(t, tt.expected, output.Profile.LoanDetails.LoanAmount)
			} else {
				assert.Zero(t, output.Profile.LoanDetails.LoanAmount)
			}
		})
	}
}

func TestExtractLoanAmountNeverClamped(t *testing.T) {
	handler := newTestHandler(t)

	// Values outside [MinLoan, MaxLoan] must be rejected outright.
	output, err := handler.Execute(context.Background(), &Input{Text: "I need 90 lakh"})
	require.NoError(t, err)
	assert.Zero(t, output.Profile.LoanDetails.LoanAmount)
	assert.NotContains(t, output.Fields, "loan_amount")
}

func TestExtractIncome(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int
		found    bool
	}{
		{"k suffix", "my salary is 60k per month", 60000, true},
		{"thousand form", "I earn 45 thousand", 45000, true},
		{"bare digits", "monthly income is 55000", 55000, true},
		{"no keyword no extraction", "I have 60000 in my account", 0, false},
		{"below band rejected", "my salary is 9000", 0, false},
	}

	handler := newTestHandler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := handler.Execute(context.Background(), &Input{Text: tt.text})
			require.NoError(t, err)
			if tt.found {
				assert.Equal(t, tt.expected, output.Profile.EmploymentInfo.MonthlyIncome)
			} else {
				assert.Zero(t, output.Profile.EmploymentInfo.MonthlyIncome)
			}
		})
	}
}

func TestExtractPurpose(t *testing.T) {
	tests := []struct {
		text     string
		expected string
	}{
		{"loan for my wedding", "wedding"},
		{"shaadi expenses coming up", "wedding"},
		{"starting a shop", "business"},
		{"buying a house", "home"},
		{"college fees for my daughter", "education"},
		{"hospital treatment costs", "medical"},
		{"urgent personal need", "personal"},
	}

	handler := newTestHandler(t)
	for _, tt := range tests {
		output, err := handler.Execute(context.Background(), &Input{Text: tt.text})
		require.NoError(t, err)
		assert.Equal(t, tt.expected, output.Profile.LoanDetails.LoanPurpose, tt.text)
	}
}

func TestExtractPurposeFirstCategoryWins(t *testing.T) {
	handler := newTestHandler(t)

	// wedding outranks personal even when both keyword sets match
	output, err := handler.Execute(context.Background(), &Input{Text: "urgent loan for my wedding"})
	require.NoError(t, err)
	assert.Equal(t, "wedding", output.Profile.LoanDetails.LoanPurpose)
}

func TestExtractName(t *testing.T) {
	tests := []struct {
		text     string
		expected string
	}{
		{"hi, i am rahul", "Rahul"},
		{"my name is priya", "Priya"},
		{"this is amit speaking", "Amit"},
		{"I'm suresh", "Suresh"},
	}

	handler := newTestHandler(t)
	for _, tt := range tests {
		output, err := handler.Execute(context.Background(), &Input{Text: tt.text})
		require.NoError(t, err)
		assert.Equal(t, tt.expected, output.Profile.PersonalInfo.Name, tt.text)
	}
}

func TestExtractPhone(t *testing.T) {
	handler := newTestHandler(t)

	t.Run("valid with separators", func(t *testing.T) {
		output, err := handler.Execute(context.Background(), &Input{Text: "my phone number is 98765-43210"})
		require.NoError(t, err)
		assert.Equal(t, "9876543210", output.Profile.PersonalInfo.Phone)
		assert.Empty(t, output.FieldErrors)
	})

	t.Run("country code retained", func(t *testing.T) {
		output, err := handler.Execute(context.Background(), &Input{Text: "contact me on +91 98765 43210"})
		require.NoError(t, err)
		assert.Equal(t, "+919876543210", output.Profile.PersonalInfo.Phone)
	})

	t.Run("too short yields field error", func(t *testing.T) {
		output, err := handler.Execute(context.Background(), &Input{Text: "my phone is 12345678"})
		require.NoError(t, err)
		assert.Empty(t, output.Profile.PersonalInfo.Phone)
		require.Len(t, output.FieldErrors, 1)
		assert.Contains(t, output.FieldErrors[0], "phone")
	})
}

func TestExtractEmployerAndTenure(t *testing.T) {
	handler := newTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		Text: "I work at infosys and want the loan for 3 years",
	})
	require.NoError(t, err)
	assert.Equal(t, "Infosys", output.Profile.EmploymentInfo.Employer)
	assert.Equal(t, 36, output.Profile.LoanDetails.TenureMonths)
}

func TestWeddingScenario(t *testing.T) {
	handler := newTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		Text: "I need a 5 lakh loan for my wedding",
	})
	require.NoError(t, err)
	assert.Equal(t, 500000, output.Profile.LoanDetails.LoanAmount)
	assert.Equal(t, "wedding", output.Profile.LoanDetails.LoanPurpose)
	assert.Equal(t, "500000", output.Fields["loan_amount"])
	assert.Equal(t, "wedding", output.Fields["purpose"])
}

func TestExtractionIdempotent(t *testing.T) {
	handler := newTestHandler(t)
	input := &Input{Text: "i am rahul, salary 60k, need 5 lakh for my wedding"}

	first, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	second, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, first.Profile, second.Profile)
	assert.Equal(t, first.Fields, second.Fields)
}

func TestMalformedInputNeverFails(t *testing.T) {
	handler := newTestHandler(t)

	for _, text := range []string{"", "!!!###", "₹₹₹", "99999999999999999999 lakh"} {
		output, err := handler.Execute(context.Background(), &Input{Text: text})
		require.NoError(t, err, text)
		assert.NotNil(t, output)
	}
}
