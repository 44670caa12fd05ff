// internal/models/document.go
package models

// DocumentType enumerates the document kinds the verification engine
// knows how to handle. Unknown types are reported as unsupported rather
// than silently passed through.
type DocumentType string

const (
	DocumentPANCard       DocumentType = "pan_card"
	DocumentAadhaarCard   DocumentType = "aadhaar_card"
	DocumentSalarySlip    DocumentType = "salary_slip"
	DocumentBankStatement DocumentType = "bank_statement"
	DocumentOther         DocumentType = "other"
)

// SupportedDocumentTypes lists the types with a verification rule set.
var SupportedDocumentTypes = []DocumentType{
	DocumentPANCard,
	DocumentAadhaarCard,
	DocumentSalarySlip,
	DocumentBankStatement,
}

// VerificationStatus is the per-document verification outcome.
type VerificationStatus string

const (
	StatusVerified    VerificationStatus = "verified"
	StatusNeedsReview VerificationStatus = "needs_review"
	StatusMissing     VerificationStatus = "missing"
	StatusUnsupported VerificationStatus = "unsupported"
	StatusError       VerificationStatus = "error"
)

// DocumentResult is the outcome of verifying one uploaded document.
// Immutable once created; a re-upload produces a new result.
type DocumentResult struct {
	DocumentType  DocumentType       `json:"documentType"`
	Status        VerificationStatus `json:"status"`
	Confidence    float64            `json:"confidence"`
	ExtractedData map[string]string  `json:"extractedData,omitempty"`
	Issues        []string           `json:"issues,omitempty"`
}

// ConsistencyStatus describes a cross-document field comparison.
type ConsistencyStatus string

const (
	ConsistencyConsistent   ConsistencyStatus = "consistent"
	ConsistencyInconsistent ConsistencyStatus = "inconsistent"
	ConsistencyUnknown      ConsistencyStatus = "unknown"
)

// FieldConsistency is one cross-validated field (name or date of birth).
type FieldConsistency struct {
	Status     ConsistencyStatus `json:"status"`
	Details    []string          `json:"details,omitempty"`
	MatchScore int               `json:"matchScore"`
}

// ValidationReport holds the cross-document consistency checks for a
// session. Recomputed from scratch whenever the document set changes.
type ValidationReport struct {
	NameConsistency FieldConsistency `json:"nameConsistency"`
	DOBConsistency  FieldConsistency `json:"dobConsistency"`
}
