package models

import "time"

// ConversationStage is one of the six fixed phases of a loan conversation.
type ConversationStage string

const (
	StageGreeting          ConversationStage = "GREETING"
	StageNeedsAnalysis     ConversationStage = "NEEDS_ANALYSIS"
	StageQualification     ConversationStage = "QUALIFICATION"
	StagePresentation      ConversationStage = "PRESENTATION"
	StageObjectionHandling ConversationStage = "OBJECTION_HANDLING"
	StageClosing           ConversationStage = "CLOSING"
)

// StageOrder lists stages in forward order. OBJECTION_HANDLING sits
// between PRESENTATION and CLOSING and may cycle back to PRESENTATION.
var StageOrder = []ConversationStage{
	StageGreeting,
	StageNeedsAnalysis,
	StageQualification,
	StagePresentation,
	StageObjectionHandling,
	StageClosing,
}

// IsValidStage reports whether s is a known conversation stage.
func IsValidStage(s ConversationStage) bool {
	for _, stage := range StageOrder {
		if stage == s {
			return true
		}
	}
	return false
}

// TurnRecord is one conversational exchange. Records are append-only:
// once added to a session they are never mutated or removed.
type TurnRecord struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	CustomerText  string            `json:"customerText"`
	ReplyText     string            `json:"replyText"`
	StageBefore   ConversationStage `json:"stageBefore"`
	StageAfter    ConversationStage `json:"stageAfter"`
	ExtractedInfo map[string]string `json:"extractedInfo,omitempty"`
}

// Session is the full conversational state for one loan journey, keyed by
// session id in the session store. The orchestrator owns it exclusively
// for the lifetime of a conversation; the core never deletes it.
type Session struct {
	ID          string            `json:"id"`
	Stage       ConversationStage `json:"stage"`
	Turns       []TurnRecord      `json:"turns"`
	Profile     CustomerProfile   `json:"profile"`
	Documents   []DocumentResult  `json:"documents,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	LastUpdated time.Time         `json:"lastUpdated"`
}

// NewSession returns a fresh session starting at GREETING.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:          id,
		Stage:       StageGreeting,
		CreatedAt:   now,
		LastUpdated: now,
	}
}

// AppendTurn records a completed turn and advances the session stage.
func (s *Session) AppendTurn(turn TurnRecord) {
	s.Turns = append(s.Turns, turn)
	s.Stage = turn.StageAfter
	s.LastUpdated = time.Now().UTC()
}
