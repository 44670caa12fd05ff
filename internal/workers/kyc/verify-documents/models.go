// internal/workers/kyc/verify-documents/models.go
package verifydocuments

import "tezloan-workers/internal/models"

// Input carries the structured fields the ingestion collaborator already
// pulled out of each uploaded document, keyed by document type. No OCR
// happens here.
type Input struct {
	SessionID string                       `json:"sessionId"`
	Documents map[string]map[string]string `json:"documents"`
}

type Output struct {
	Results           map[string]models.DocumentResult `json:"analysisResults"`
	Report            models.ValidationReport          `json:"validationReport"`
	Profile           models.CustomerProfile           `json:"consolidatedProfile"`
	VerificationScore float64                          `json:"verificationScore"`
	OverallStatus     models.VerificationStatus        `json:"overallStatus"`
}
