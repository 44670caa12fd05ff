// internal/workers/kyc/verify-documents/handler_test.go
package verifydocuments

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "tezloan-workers/internal/common/errors"
	"tezloan-workers/internal/common/logger"
	"tezloan-workers/internal/models"
)

func newTestHandler(t *testing.T) *Handler {
	return NewHandler(LoadConfig(), logger.NewTestLogger(t))
}

func panFields() map[string]string {
	return map[string]string{
		"pan_number":    "ABCDE1234F",
		"name":          "RAHUL KUMAR",
		"father_name":   "SURESH KUMAR",
		"date_of_birth": "15/08/1995",
	}
}

func aadhaarFields() map[string]string {
	return map[string]string{
		"aadhaar_number": "1234-5678-9012",
		"name":           "Rahul Kumar",
		"address":        "123, MG Road, Koramangala, Bangalore",
		"date_of_birth":  "15/08/1995",
		"gender":         "MALE",
	}
}

func salarySlipFields() map[string]string {
	return map[string]string{
		"employee_name": "RAHUL KUMAR",
		"employee_id":   "INF12345",
		"designation":   "SOFTWARE ENGINEER",
		"employer":      "INFOSYS LIMITED",
		"gross_salary":  "75000",
		"net_salary":    "65000",
		"bank_account":  "HDFC Bank - 1234",
	}
}

func TestPANCardVerification(t *testing.T) {
	handler := newTestHandler(t)

	t.Run("valid format", func(t *testing.T) {
		output, err := handler.Execute(context.Background(), &Input{
			Documents: map[string]map[string]string{"pan_card": panFields()},
		})
		require.NoError(t, err)
		result := output.Results["pan_card"]
		assert.Equal(t, models.StatusVerified, result.Status)
		assert.Equal(t, 95.0, result.Confidence)
		assert.Empty(t, result.Issues)
	})

	t.Run("invalid format", func(t *testing.T) {
		fields := panFields()
		fields["pan_number"] = "12345ABCDE"
		output, err := handler.Execute(context.Background(), &Input{
			Documents: map[string]map[string]string{"pan_card": fields},
		})
		require.NoError(t, err)
		result := output.Results["pan_card"]
		assert.Equal(t, models.StatusNeedsReview, result.Status)
		assert.Equal(t, 60.0, result.Confidence)
		assert.Contains(t, result.Issues, "Invalid PAN number format")
	})
}

func TestAadhaarCardVerification(t *testing.T) {
	handler := newTestHandler(t)

	t.Run("grouped digits accepted", func(t *testing.T) {
		for _, number := range []string{"1234-5678-9012", "1234 5678 9012", "123456789012"} {
			fields := aadhaarFields()
			fields["aadhaar_number"] = number
			output, err := handler.Execute(context.Background(), &Input{
				Documents: map[string]map[string]string{"aadhaar_card": fields},
			})
			require.NoError(t, err)
			result := output.Results["aadhaar_card"]
			assert.Equal(t, models.StatusVerified, result.Status, number)
			assert.Equal(t, 92.0, result.Confidence, number)
		}
	})

	t.Run("invalid number", func(t *testing.T) {
		fields := aadhaarFields()
		fields["aadhaar_number"] = "12-34"
		output, err := handler.Execute(context.Background(), &Input{
			Documents: map[string]map[string]string{"aadhaar_card": fields},
		})
		require.NoError(t, err)
		result := output.Results["aadhaar_card"]
		assert.Equal(t, models.StatusNeedsReview, result.Status)
		assert.Equal(t, 65.0, result.Confidence)
	})
}

func TestSalarySlipVerification(t *testing.T) {
	handler := newTestHandler(t)

	t.Run("complete slip", func(t *testing.T) {
		output, err := handler.Execute(context.Background(), &Input{
			Documents: map[string]map[string]string{"salary_slip": salarySlipFields()},
		})
		require.NoError(t, err)
		result := output.Results["salary_slip"]
		assert.Equal(t, models.StatusVerified, result.Status)
		assert.Equal(t, 88.0, result.Confidence)
	})

	t.Run("missing employer", func(t *testing.T) {
		fields := salarySlipFields()
		fields["employer"] = ""
		output, err := handler.Execute(context.Background(), &Input{
			Documents: map[string]map[string]string{"salary_slip": fields},
		})
		require.NoError(t, err)
		result := output.Results["salary_slip"]
		assert.Equal(t, models.StatusNeedsReview, result.Status)
		assert.Equal(t, 50.0, result.Confidence)
		assert.Contains(t, result.Issues, "Incomplete salary information")
	})

	t.Run("unparsable amount becomes error status", func(t *testing.T) {
		fields := salarySlipFields()
		fields["gross_salary"] = "seventy five thousand"
		output, err := handler.Execute(context.Background(), &Input{
			Documents: map[string]map[string]string{"salary_slip": fields},
		})
		require.NoError(t, err)
		result := output.Results["salary_slip"]
		assert.Equal(t, models.StatusError, result.Status)
		assert.Zero(t, result.Confidence)
		require.NotEmpty(t, result.Issues)
		assert.Contains(t, result.Issues[0], "gross_salary")
	})
}

func TestBankStatementVerification(t *testing.T) {
	handler := newTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		Documents: map[string]map[string]string{"bank_statement": {
			"account_number":  "XXXX1234",
			"bank_name":       "HDFC Bank",
			"closing_balance": "185000",
		}},
	})
	require.NoError(t, err)
	result := output.Results["bank_statement"]
	assert.Equal(t, models.StatusVerified, result.Status)
	assert.Equal(t, 85.0, result.Confidence)
}

func TestUnsupportedAndMissingDocuments(t *testing.T) {
	handler := newTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		Documents: map[string]map[string]string{
			"passport": {"number": "Z1234567"},
			"pan_card": {},
		},
	})
	require.NoError(t, err)

	passport := output.Results["passport"]
	assert.Equal(t, models.StatusUnsupported, passport.Status)
	assert.Equal(t, models.DocumentOther, passport.DocumentType)
	require.Len(t, passport.Issues, 1)
	assert.Contains(t, passport.Issues[0], "passport")
	for _, supported := range models.SupportedDocumentTypes {
		assert.Contains(t, passport.Issues[0], string(supported))
	}

	assert.Equal(t, models.StatusMissing, output.Results["pan_card"].Status)
	assert.Contains(t, output.Results["pan_card"].Issues, "Document not provided")
}

func TestNoDocumentsIsAnError(t *testing.T) {
	handler := newTestHandler(t)

	_, err := handler.Execute(context.Background(), &Input{})
	assert.ErrorIs(t, err, ErrNoDocuments)
}

func TestJobErrorCodes(t *testing.T) {
	noDocs := jobError(fmt.Errorf("%w: no documents provided for analysis", ErrNoDocuments))
	assert.Equal(t, cerrors.ErrCodeNoDocumentsProvided, noDocs.Code)

	other := jobError(errors.New("field scan blew up"))
	assert.Equal(t, cerrors.ErrCodeDocumentAnalysisFailed, other.Code)
	assert.False(t, other.Retryable)
}

func TestNameConsistencyCaseInsensitive(t *testing.T) {
	handler := newTestHandler(t)

	// "RAHUL KUMAR" vs "Rahul Kumar" must compare equal.
	output, err := handler.Execute(context.Background(), &Input{
		Documents: map[string]map[string]string{
			"pan_card":     panFields(),
			"aadhaar_card": aadhaarFields(),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ConsistencyConsistent, output.Report.NameConsistency.Status)
	assert.Equal(t, 100, output.Report.NameConsistency.MatchScore)
	assert.Equal(t, models.ConsistencyConsistent, output.Report.DOBConsistency.Status)
	assert.Equal(t, 100, output.Report.DOBConsistency.MatchScore)
}

func TestInconsistentFieldsGetPenaltyScores(t *testing.T) {
	handler := newTestHandler(t)

	aadhaar := aadhaarFields()
	aadhaar["name"] = "Rohit Kumar"
	aadhaar["date_of_birth"] = "16/08/1995"

	output, err := handler.Execute(context.Background(), &Input{
		Documents: map[string]map[string]string{
			"pan_card":     panFields(),
			"aadhaar_card": aadhaar,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ConsistencyInconsistent, output.Report.NameConsistency.Status)
	assert.Equal(t, 60, output.Report.NameConsistency.MatchScore)
	assert.Equal(t, models.ConsistencyInconsistent, output.Report.DOBConsistency.Status)
	assert.Equal(t, 40, output.Report.DOBConsistency.MatchScore)
}

func TestSingleDocumentConsistencyUnknown(t *testing.T) {
	handler := newTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		Documents: map[string]map[string]string{"pan_card": panFields()},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ConsistencyUnknown, output.Report.NameConsistency.Status)
	assert.Equal(t, models.ConsistencyUnknown, output.Report.DOBConsistency.Status)
}

func TestVerificationScoreAggregation(t *testing.T) {
	handler := newTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		Documents: map[string]map[string]string{
			"pan_card":     panFields(),
			"aadhaar_card": aadhaarFields(),
		},
	})
	require.NoError(t, err)

	// (95 + 92 + 20 + 15) / (100 + 100 + 35) * 100
	assert.InDelta(t, 94.47, output.VerificationScore, 0.01)
	assert.Equal(t, models.StatusVerified, output.OverallStatus)
}

func TestNeedsReviewHalfWeight(t *testing.T) {
	handler := newTestHandler(t)

	pan := panFields()
	pan["pan_number"] = "BROKEN"

	output, err := handler.Execute(context.Background(), &Input{
		Documents: map[string]map[string]string{
			"pan_card":     pan,
			"aadhaar_card": aadhaarFields(),
		},
	})
	require.NoError(t, err)

	// (60*0.5 + 92 + 20 + 15) / 235 * 100
	assert.InDelta(t, 66.81, output.VerificationScore, 0.01)
	assert.Equal(t, models.StatusNeedsReview, output.OverallStatus)
}

func TestScoreBoundaryIsInclusive(t *testing.T) {
	handler := newTestHandler(t)

	assert.Equal(t, models.StatusVerified, handler.overallStatus(80))
	assert.Equal(t, models.StatusNeedsReview, handler.overallStatus(79.99))
}

func TestConsolidatedProfile(t *testing.T) {
	handler := newTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		Documents: map[string]map[string]string{
			"pan_card":     panFields(),
			"aadhaar_card": aadhaarFields(),
			"salary_slip":  salarySlipFields(),
		},
	})
	require.NoError(t, err)

	profile := output.Profile
	assert.Equal(t, "Rahul Kumar", profile.PersonalInfo.Name) // PAN first, title-cased
	assert.Equal(t, "Suresh Kumar", profile.PersonalInfo.FatherName)
	assert.Equal(t, "15/08/1995", profile.PersonalInfo.DateOfBirth)
	assert.Equal(t, "ABCDE1234F", profile.PersonalInfo.PANNumber)
	assert.Equal(t, "1234-5678-9012", profile.PersonalInfo.AadhaarNumber)
	assert.Equal(t, "Male", profile.PersonalInfo.Gender)
	assert.Equal(t, "INFOSYS LIMITED", profile.EmploymentInfo.Employer)
	assert.Equal(t, "INF12345", profile.EmploymentInfo.EmployeeID)
	assert.Equal(t, 75000, profile.FinancialInfo.GrossSalary)
	assert.Equal(t, 65000, profile.FinancialInfo.NetSalary)
	assert.Equal(t, 65000, profile.EmploymentInfo.MonthlyIncome)
}

func TestAadhaarNameFallback(t *testing.T) {
	handler := newTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		Documents: map[string]map[string]string{"aadhaar_card": aadhaarFields()},
	})
	require.NoError(t, err)
	assert.Equal(t, "Rahul Kumar", output.Profile.PersonalInfo.Name)
}
