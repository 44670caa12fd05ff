// internal/workers/orchestration/process-loan-request/models.go
package processloanrequest

import "tezloan-workers/internal/models"

// Request types
const (
	RequestConversation     = "conversation"
	RequestKYCVerification  = "kyc_verification"
	RequestCreditAssessment = "credit_assessment"
	RequestCompleteJourney  = "complete_loan_journey"
	RequestWorkflowStatus   = "workflow_status"
)

// Follow-up workflows flagged on qualifying results.
const (
	WorkflowKYCVerification  = "KYC_VERIFICATION"
	WorkflowCreditAssessment = "CREDIT_ASSESSMENT"
)

type Input struct {
	SessionID   string                       `json:"sessionId"`
	RequestType string                       `json:"requestType"`
	Text        string                       `json:"text,omitempty"`
	Messages    []string                     `json:"messages,omitempty"`
	Documents   map[string]map[string]string `json:"documents,omitempty"`
}

type Output struct {
	Status       string                   `json:"status"` // "success" or "error"
	SessionID    string                   `json:"sessionId"`
	RequestType  string                   `json:"requestType"`
	Conversation *ConversationResult      `json:"conversation,omitempty"`
	Verification *VerificationResult      `json:"verification,omitempty"`
	Assessment   *models.CreditAssessment `json:"creditAssessment,omitempty"`
	Journey      *JourneyResult           `json:"journey,omitempty"`
	WorkflowInfo *WorkflowStatusResult    `json:"workflowStatus,omitempty"`
	NextWorkflow string                   `json:"nextWorkflow,omitempty"`
	Error        string                   `json:"error,omitempty"`
}

type ConversationResult struct {
	Reply             string                   `json:"reply"`
	Stage             models.ConversationStage `json:"stage"`
	Qualified         bool                     `json:"qualified"`
	Progress          int                      `json:"progress"`
	RecommendedAction string                   `json:"recommendedAction"`
	ExtractedFields   map[string]string        `json:"extractedFields,omitempty"`
	FieldErrors       []string                 `json:"fieldErrors,omitempty"`
}

type VerificationResult struct {
	Results           map[string]models.DocumentResult `json:"analysisResults"`
	Report            models.ValidationReport          `json:"validationReport"`
	Profile           models.CustomerProfile           `json:"consolidatedProfile"`
	VerificationScore float64                          `json:"verificationScore"`
	OverallStatus     models.VerificationStatus        `json:"overallStatus"`
}

type JourneyResult struct {
	Completed    bool                     `json:"completed"`
	StoppedAt    string                   `json:"stoppedAt,omitempty"` // "conversation", "kyc_verification"
	Turns        []ConversationResult     `json:"turns"`
	Qualified    bool                     `json:"qualified"`
	Verification *VerificationResult      `json:"verification,omitempty"`
	Assessment   *models.CreditAssessment `json:"creditAssessment,omitempty"`
	Summary      string                   `json:"summary"`
}

type WorkflowStatusResult struct {
	Stage             models.ConversationStage `json:"stage"`
	Progress          int                      `json:"progress"`
	TurnCount         int                      `json:"turnCount"`
	DocumentsUploaded int                      `json:"documentsUploaded"`
	DocumentsVerified int                      `json:"documentsVerified"`
	RecommendedAction string                   `json:"recommendedAction"`
	NextStep          string                   `json:"nextStep"`
}
