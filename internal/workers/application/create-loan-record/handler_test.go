// internal/workers/application/create-loan-record/handler_test.go
package createloanrecord

import (
	"context"
	"errors"
	"fmt"
	"testing"

	cerrors "tezloan-workers/internal/common/errors"
	"tezloan-workers/internal/common/logger"
	"tezloan-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestInput() *Input {
	profile := models.CustomerProfile{}
	profile.PersonalInfo.Name = "Priya"
	profile.EmploymentInfo.MonthlyIncome = 60000
	profile.LoanDetails.LoanAmount = 500000
	profile.LoanDetails.LoanPurpose = "wedding"

	return &Input{
		SessionID: "sess-001",
		Profile:   profile,
		Assessment: models.CreditAssessment{
			CreditScore:  745,
			RiskCategory: models.RiskMedium,
			Decision: models.LoanDecision{
				Approved:   true,
				Reason:     "Customer meets all eligibility criteria",
				Confidence: 74.5,
			},
			Offer: &models.LoanOffer{
				LoanAmount:   500000,
				InterestRate: 12.5,
				TenureMonths: 36,
			},
		},
	}
}

func TestExecuteApprovedRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("sess-001").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	mock.ExpectExec(`INSERT INTO loan_applications`).
		WithArgs(
			sqlmock.AnyArg(), // loan ID (UUID)
			"sess-001",
			sqlmock.AnyArg(), // profile JSON
			745,
			"MEDIUM",
			sqlmock.AnyArg(), // offer JSON
			"approved",
			"Customer meets all eligibility criteria",
			sqlmock.AnyArg(), // created_at
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectExec(`INSERT INTO audit_log`).
		WithArgs(
			"loan_record_created",
			"loan_application",
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	handler := NewHandler(LoadConfig(), db, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())
	require.NoError(t, err)

	assert.NotEmpty(t, output.LoanID)
	assert.Equal(t, "approved", output.ApplicationStatus)
	assert.NotEmpty(t, output.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteRejectedRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("sess-001").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	mock.ExpectExec(`INSERT INTO loan_applications`).
		WithArgs(
			sqlmock.AnyArg(),
			"sess-001",
			sqlmock.AnyArg(),
			580,
			"HIGH",
			sqlmock.AnyArg(),
			"rejected",
			"Credit score below minimum threshold",
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectExec(`INSERT INTO audit_log`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	input := createTestInput()
	input.Assessment = models.CreditAssessment{
		CreditScore:  580,
		RiskCategory: models.RiskHigh,
		Decision: models.LoanDecision{
			Approved: false,
			Reason:   "Credit score below minimum threshold",
		},
	}

	handler := NewHandler(LoadConfig(), db, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, "rejected", output.ApplicationStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteDuplicateSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("sess-001").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	handler := NewHandler(LoadConfig(), db, logger.NewTestLogger(t))

	_, err = handler.Execute(context.Background(), createTestInput())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateLoanRecord)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteInsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	mock.ExpectExec(`INSERT INTO loan_applications`).
		WillReturnError(errors.New("connection reset"))

	handler := NewHandler(LoadConfig(), db, logger.NewTestLogger(t))

	_, err = handler.Execute(context.Background(), createTestInput())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDatabaseInsertFailed)
}

func TestExecuteAuditFailureIsNonFatal(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	mock.ExpectExec(`INSERT INTO loan_applications`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectExec(`INSERT INTO audit_log`).
		WillReturnError(errors.New("audit table locked"))

	handler := NewHandler(LoadConfig(), db, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())
	require.NoError(t, err)
	assert.Equal(t, "approved", output.ApplicationStatus)
}

func TestJobErrorCodes(t *testing.T) {
	dup := jobError(fmt.Errorf("%w: approved loan record already exists for session sess-001", ErrDuplicateLoanRecord), "sess-001")
	assert.Equal(t, cerrors.ErrCodeDuplicateLoanRecord, dup.Code)
	assert.False(t, dup.Retryable)
	assert.Contains(t, dup.Details, "sess-001")

	insert := jobError(fmt.Errorf("%w: insert failed: connection reset", ErrDatabaseInsertFailed), "sess-001")
	assert.Equal(t, cerrors.ErrCodeDatabaseInsertFailed, insert.Code)
	assert.True(t, insert.Retryable)
}
