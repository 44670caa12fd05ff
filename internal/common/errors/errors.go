// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Loan-origination error codes, grouped by concern.
const (
	ErrCodeSessionLoadFailed ErrorCode = "SESSION_LOAD_FAILED"
	ErrCodeSessionSaveFailed ErrorCode = "SESSION_SAVE_FAILED"
	ErrCodeSessionNotFound   ErrorCode = "SESSION_NOT_FOUND"

	ErrCodeExtractionFailed      ErrorCode = "EXTRACTION_FAILED"
	ErrCodeEmptyTranscript       ErrorCode = "EMPTY_TRANSCRIPT"
	ErrCodeInvalidPhoneNumber    ErrorCode = "INVALID_PHONE_NUMBER"
	ErrCodeStageTransitionFailed ErrorCode = "STAGE_TRANSITION_FAILED"

	ErrCodeLLMTimeout          ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMGenerationFailed ErrorCode = "LLM_GENERATION_FAILED"

	ErrCodeDocumentUnsupported      ErrorCode = "DOCUMENT_UNSUPPORTED"
	ErrCodeDocumentAnalysisFailed   ErrorCode = "DOCUMENT_ANALYSIS_FAILED"
	ErrCodeNoDocumentsProvided      ErrorCode = "NO_DOCUMENTS_PROVIDED"
	ErrCodeCreditAssessmentFailed   ErrorCode = "CREDIT_ASSESSMENT_FAILED"
	ErrCodeUnknownRequestType       ErrorCode = "UNKNOWN_REQUEST_TYPE"
	ErrCodeRequestValidationFailed  ErrorCode = "REQUEST_VALIDATION_FAILED"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeDuplicateLoanRecord      ErrorCode = "DUPLICATE_LOAN_RECORD"
	ErrCodeDecisionIndexFailed      ErrorCode = "DECISION_INDEX_FAILED"
	ErrCodeNotificationSendFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeUnknownNotificationType  ErrorCode = "UNKNOWN_NOTIFICATION_TYPE"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewSessionLoadFailedError creates a retryable session store read error.
func NewSessionLoadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionLoadFailed,
		Message:   "Failed to load session from store",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionSaveFailedError creates a retryable session store write error.
func NewSessionSaveFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionSaveFailed,
		Message:   "Failed to save session to store",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionNotFoundError creates a non-retryable missing-session error.
func NewSessionNotFoundError(sessionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionNotFound,
		Message:   "Session not found",
		Details:   fmt.Sprintf("sessionId: %s", sessionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmptyTranscriptError creates a non-retryable input validation error.
func NewEmptyTranscriptError() *StandardError {
	return &StandardError{
		Code:      ErrCodeEmptyTranscript,
		Message:   "Empty transcript provided",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidPhoneNumberError carries a user-facing explanation; it is a
// field-level validation outcome, never fatal.
func NewInvalidPhoneNumberError(raw string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidPhoneNumber,
		Message:   "Phone number must be 10-15 digits, optionally prefixed with +",
		Details:   fmt.Sprintf("got: %q", raw),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMTimeoutError creates a retryable text-generation timeout error.
func NewLLMTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMTimeout,
		Message:   "Text generation timeout",
		Details:   "LLM call exceeded timeout threshold",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMGenerationFailedError creates a retryable text-generation error.
func NewLLMGenerationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMGenerationFailed,
		Message:   "Text generation API error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewExtractionFailedError creates a non-retryable extraction error.
func NewExtractionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExtractionFailed,
		Message:   "Customer data extraction failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStageTransitionFailedError creates a non-retryable state machine error.
func NewStageTransitionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStageTransitionFailed,
		Message:   "Conversation stage transition failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDocumentAnalysisFailedError creates a non-retryable document analysis error.
func NewDocumentAnalysisFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDocumentAnalysisFailed,
		Message:   "Document analysis failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownNotificationTypeError creates a non-retryable notification routing error.
func NewUnknownNotificationTypeError(notificationType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownNotificationType,
		Message:   "Unknown notification type",
		Details:   fmt.Sprintf("notificationType: %s", notificationType),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDocumentUnsupportedError creates a non-retryable document type error.
func NewDocumentUnsupportedError(docType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDocumentUnsupported,
		Message:   "Document type not supported",
		Details:   fmt.Sprintf("documentType: %s", docType),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoDocumentsProvidedError creates a non-retryable input validation error.
func NewNoDocumentsProvidedError() *StandardError {
	return &StandardError{
		Code:      ErrCodeNoDocumentsProvided,
		Message:   "No documents provided for analysis",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCreditAssessmentFailedError creates a non-retryable assessment error.
func NewCreditAssessmentFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCreditAssessmentFailed,
		Message:   "Credit assessment error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownRequestTypeError creates a non-retryable routing error.
func NewUnknownRequestTypeError(requestType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownRequestType,
		Message:   "Unknown request type",
		Details:   fmt.Sprintf("requestType: %s", requestType),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRequestValidationFailedError creates a non-retryable payload error.
func NewRequestValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRequestValidationFailed,
		Message:   "Request payload validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseInsertFailedError creates a retryable database insert error.
func NewDatabaseInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseInsertFailed,
		Message:   "Database insert operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateLoanRecordError creates a non-retryable duplicate application error.
func NewDuplicateLoanRecordError(sessionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateLoanRecord,
		Message:   "Approved loan record already exists for session",
		Details:   fmt.Sprintf("sessionId: %s", sessionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDecisionIndexFailedError creates a retryable audit indexing error.
func NewDecisionIndexFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDecisionIndexFailed,
		Message:   "Decision audit indexing failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return &StandardError{
		Code:      "BUSINESS_RULE_VIOLATION",
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes
// (identical by convention).
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeSessionLoadFailed:        "SESSION_LOAD_FAILED",
	ErrCodeSessionSaveFailed:        "SESSION_SAVE_FAILED",
	ErrCodeSessionNotFound:          "SESSION_NOT_FOUND",
	ErrCodeExtractionFailed:         "EXTRACTION_FAILED",
	ErrCodeEmptyTranscript:          "EMPTY_TRANSCRIPT",
	ErrCodeInvalidPhoneNumber:       "INVALID_PHONE_NUMBER",
	ErrCodeStageTransitionFailed:    "STAGE_TRANSITION_FAILED",
	ErrCodeLLMTimeout:               "LLM_TIMEOUT",
	ErrCodeLLMGenerationFailed:      "LLM_GENERATION_FAILED",
	ErrCodeDocumentUnsupported:      "DOCUMENT_UNSUPPORTED",
	ErrCodeDocumentAnalysisFailed:   "DOCUMENT_ANALYSIS_FAILED",
	ErrCodeNoDocumentsProvided:      "NO_DOCUMENTS_PROVIDED",
	ErrCodeCreditAssessmentFailed:   "CREDIT_ASSESSMENT_FAILED",
	ErrCodeUnknownRequestType:       "UNKNOWN_REQUEST_TYPE",
	ErrCodeRequestValidationFailed:  "REQUEST_VALIDATION_FAILED",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeDatabaseInsertFailed:     "DATABASE_INSERT_FAILED",
	ErrCodeDuplicateLoanRecord:      "DUPLICATE_LOAN_RECORD",
	ErrCodeDecisionIndexFailed:      "DECISION_INDEX_FAILED",
	ErrCodeNotificationSendFailed:   "NOTIFICATION_SEND_FAILED",
	ErrCodeUnknownNotificationType:  "UNKNOWN_NOTIFICATION_TYPE",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeSessionLoadFailed,
		ErrCodeSessionSaveFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeDecisionIndexFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeLLMGenerationFailed:
		return 3 // Retryable technical errors

	case ErrCodeLLMTimeout:
		return 1 // As per BPMN boundary event

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code) // Fallback
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "SESSION"):
		return "SESSION"
	case strings.Contains(codeStr, "DOCUMENT"):
		return "KYC"
	case strings.Contains(codeStr, "CREDIT"):
		return "CREDIT"
	case strings.Contains(codeStr, "DATABASE"):
		return "DATABASE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "LLM") || strings.Contains(codeStr, "EXTRACTION") || strings.Contains(codeStr, "TRANSCRIPT"):
		return "AI"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
