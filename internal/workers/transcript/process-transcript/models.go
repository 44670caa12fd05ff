// internal/workers/transcript/process-transcript/models.go
package processtranscript

import "tezloan-workers/internal/models"

type Input struct {
	SessionID  string            `json:"sessionId"`
	Transcript string            `json:"transcript"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ExtractionOutcome records which extraction path produced the profile.
type ExtractionOutcome string

const (
	OutcomeAI       ExtractionOutcome = "ai"
	OutcomeFallback ExtractionOutcome = "fallback"
)

type Output struct {
	Extracted models.CustomerProfile `json:"extractedData"`
	Outcome   ExtractionOutcome      `json:"extractionOutcome"`
	Analysis  ConversationAnalysis   `json:"conversationAnalysis"`
	Summary   string                 `json:"summary"`
	Report    ReportData             `json:"reportData"`
	Stats     TranscriptStats        `json:"transcriptStats"`
}

type ConversationAnalysis struct {
	Stages    []StageMoment `json:"conversationStages"`
	Sentiment string        `json:"customerSentiment"`
}

type StageMoment struct {
	Stage      string `json:"stage"`
	LineNumber int    `json:"lineNumber"`
	Content    string `json:"content"`
}

type ReportData struct {
	ReportType      string                 `json:"reportType"`
	GeneratedAt     string                 `json:"generatedAt"`
	SessionMetadata map[string]string      `json:"sessionMetadata,omitempty"`
	Profile         models.CustomerProfile `json:"customerProfile"`
	Insights        ConversationAnalysis   `json:"conversationInsights"`
	Summary         string                 `json:"executiveSummary"`
	Recommendations []string               `json:"recommendations"`
	NextActions     []string               `json:"nextActions"`
}

type TranscriptStats struct {
	OriginalLength int `json:"originalLength"`
	CleanedLength  int `json:"cleanedLength"`
	WordCount      int `json:"wordCount"`
}
