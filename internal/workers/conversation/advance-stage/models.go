// internal/workers/conversation/advance-stage/models.go
package advancestage

import "tezloan-workers/internal/models"

type Input struct {
	SessionID string                   `json:"sessionId"`
	Stage     models.ConversationStage `json:"stage"`
	Text      string                   `json:"text"`
	Profile   models.CustomerProfile   `json:"profile"`
}

type Output struct {
	NextStage         models.ConversationStage `json:"nextStage"`
	Qualified         bool                     `json:"qualified"`
	Progress          int                      `json:"progress"`
	RecommendedAction string                   `json:"recommendedAction"`
}
