// internal/common/errors/errors_test.go
package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsCarryTheirCodes(t *testing.T) {
	tests := []struct {
		name      string
		err       *StandardError
		code      ErrorCode
		retryable bool
	}{
		{"session load", NewSessionLoadFailedError(stderrors.New("redis down")), ErrCodeSessionLoadFailed, true},
		{"empty transcript", NewEmptyTranscriptError(), ErrCodeEmptyTranscript, false},
		{"extraction", NewExtractionFailedError(stderrors.New("bad fragment")), ErrCodeExtractionFailed, false},
		{"stage transition", NewStageTransitionFailedError(stderrors.New("unknown stage")), ErrCodeStageTransitionFailed, false},
		{"document analysis", NewDocumentAnalysisFailedError(stderrors.New("bad fields")), ErrCodeDocumentAnalysisFailed, false},
		{"no documents", NewNoDocumentsProvidedError(), ErrCodeNoDocumentsProvided, false},
		{"credit assessment", NewCreditAssessmentFailedError(stderrors.New("no income")), ErrCodeCreditAssessmentFailed, false},
		{"request validation", NewRequestValidationFailedError("sessionId missing"), ErrCodeRequestValidationFailed, false},
		{"database insert", NewDatabaseInsertFailedError(stderrors.New("pq timeout")), ErrCodeDatabaseInsertFailed, true},
		{"duplicate record", NewDuplicateLoanRecordError("sess-1"), ErrCodeDuplicateLoanRecord, false},
		{"unknown notification", NewUnknownNotificationTypeError("carrier_pigeon"), ErrCodeUnknownNotificationType, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.retryable, tt.err.Retryable)
			assert.NotEmpty(t, tt.err.Message)
			assert.False(t, tt.err.Timestamp.IsZero())
		})
	}
}

func TestConvertToBPMNError(t *testing.T) {
	t.Run("retryable technical error keeps its retry budget", func(t *testing.T) {
		bpmnErr := ConvertToBPMNError(NewDatabaseInsertFailedError(stderrors.New("pq timeout")))

		assert.Equal(t, "DATABASE_INSERT_FAILED", bpmnErr.Code)
		assert.True(t, bpmnErr.Retryable)
		assert.Equal(t, 3, bpmnErr.Retries)
		assert.Equal(t, "DATABASE_INSERT_FAILED", bpmnErr.ErrorVariables["originalErrorCode"])
	})

	t.Run("business error never retries", func(t *testing.T) {
		bpmnErr := ConvertToBPMNError(NewDuplicateLoanRecordError("sess-1"))

		assert.Equal(t, "DUPLICATE_LOAN_RECORD", bpmnErr.Code)
		assert.False(t, bpmnErr.Retryable)
		assert.Equal(t, 0, bpmnErr.Retries)
	})

	t.Run("non-retryable flag overrides the code's retry count", func(t *testing.T) {
		stdErr := NewSessionLoadFailedError(stderrors.New("corrupt payload"))
		stdErr.Retryable = false

		bpmnErr := ConvertToBPMNError(stdErr)
		assert.Equal(t, 0, bpmnErr.Retries)
	})

	t.Run("unmapped code falls back to itself", func(t *testing.T) {
		bpmnErr := ConvertToBPMNError(&StandardError{Code: "SOMETHING_NEW", Message: "m"})
		assert.Equal(t, "SOMETHING_NEW", bpmnErr.Code)
	})
}

func TestEveryCodeHasABPMNMapping(t *testing.T) {
	for code, bpmnCode := range BPMNErrorMapping {
		assert.Equal(t, string(code), bpmnCode, "mapping for %s should be identical by convention", code)
	}
}

func TestGetRetryCount(t *testing.T) {
	assert.Equal(t, 3, GetRetryCount(ErrCodeSessionSaveFailed))
	assert.Equal(t, 3, GetRetryCount(ErrCodeNotificationSendFailed))
	assert.Equal(t, 1, GetRetryCount(ErrCodeLLMTimeout))
	assert.Equal(t, 0, GetRetryCount(ErrCodeEmptyTranscript))
	assert.True(t, IsRetryableErrorCode(ErrCodeDecisionIndexFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeUnknownNotificationType))
}

func TestNormalizeErrorWrapsPlainErrors(t *testing.T) {
	h := NewErrorHandler(noopLogger{})

	stdErr := h.normalizeError(stderrors.New("boom"))
	require.NotNil(t, stdErr)
	assert.Equal(t, ErrorCode("INTERNAL_ERROR"), stdErr.Code)
	assert.Equal(t, "boom", stdErr.Details)
	assert.False(t, stdErr.Retryable)

	typed := NewEmptyTranscriptError()
	assert.Same(t, typed, h.normalizeError(typed))
}

type noopLogger struct{}

func (noopLogger) Error(string, map[string]interface{}) {}
