// internal/workers/conversation/advance-stage/handler.go
package advancestage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	cerrors "tezloan-workers/internal/common/errors"
	"tezloan-workers/internal/common/logger"
	"tezloan-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "advance-stage"
)

var (
	loanIntentKeywords = []string{"loan", "money", "borrow"}
	affirmKeywords     = []string{"yes", "interested", "okay", "good"}
	objectionKeywords  = []string{"but", "concern", "expensive"}
	acceptanceKeywords = []string{"okay", "fine", "proceed"}
)

var stageProgress = map[models.ConversationStage]int{
	models.StageGreeting:      10,
	models.StageNeedsAnalysis: 30,
	models.StageQualification: 50,
	models.StagePresentation:  70,
	models.StageClosing:       90,
}

var stageActions = map[models.ConversationStage]string{
	models.StageGreeting:          "Continue conversation to understand loan needs",
	models.StageNeedsAnalysis:     "Gather loan amount and purpose details",
	models.StageQualification:     "Collect income and employment information",
	models.StagePresentation:      "Present loan offer and handle objections",
	models.StageObjectionHandling: "Address customer concerns and objections",
	models.StageClosing:           "Proceed with KYC document collection",
}

type Handler struct {
	config     *Config
	logger     logger.Logger
	errHandler *cerrors.ErrorHandler
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config:     config,
		logger:     log.WithFields(map[string]interface{}{"taskType": TaskType}),
		errHandler: cerrors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, cerrors.NewRequestValidationFailedError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, cerrors.NewStageTransitionFailedError(err))
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	stage := input.Stage
	if stage == "" {
		stage = models.StageGreeting
	}
	if !models.IsValidStage(stage) {
		return nil, fmt.Errorf("unknown stage %q", stage)
	}

	nextStage := nextStage(stage, input.Text, &input.Profile)
	qualified := h.checkQualification(&input.Profile, nextStage)

	output := &Output{
		NextStage:         nextStage,
		Qualified:         qualified,
		Progress:          progress(nextStage, &input.Profile),
		RecommendedAction: stageActions[nextStage],
	}

	h.logger.Info("stage transition computed", map[string]interface{}{
		"sessionId": input.SessionID,
		"stage":     stage,
		"nextStage": nextStage,
		"qualified": qualified,
	})

	return output, nil
}

// nextStage walks the stage order forward; the only cycle allowed is
// PRESENTATION <-> OBJECTION_HANDLING. Unmatched input keeps the stage.
func nextStage(stage models.ConversationStage, text string, profile *models.CustomerProfile) models.ConversationStage {
	text = strings.ToLower(text)

	switch stage {
	case models.StageGreeting:
		if containsAny(text, loanIntentKeywords) {
			return models.StageNeedsAnalysis
		}
	case models.StageNeedsAnalysis:
		if profile.LoanDetails.LoanAmount > 0 && profile.LoanDetails.LoanPurpose != "" {
			return models.StageQualification
		}
	case models.StageQualification:
		if profile.EmploymentInfo.MonthlyIncome > 0 {
			return models.StagePresentation
		}
	case models.StagePresentation:
		if containsAny(text, affirmKeywords) {
			return models.StageClosing
		}
		if containsAny(text, objectionKeywords) {
			return models.StageObjectionHandling
		}
	case models.StageObjectionHandling:
		if containsAny(text, acceptanceKeywords) {
			return models.StageClosing
		}
	}

	return stage
}

// checkQualification is true only at CLOSING with both amount and income
// known and the amount inside the income-ratio cap.
func (h *Handler) checkQualification(profile *models.CustomerProfile, stage models.ConversationStage) bool {
	if stage != models.StageClosing {
		return false
	}

	loanAmount := profile.LoanDetails.LoanAmount
	income := profile.EmploymentInfo.MonthlyIncome
	if loanAmount == 0 || income == 0 {
		return false
	}

	annualIncome := float64(income) * 12
	return float64(loanAmount) <= annualIncome*h.config.IncomeRatio
}

// StageProgress reports journey progress for a stage the session has
// already reached, without running any transition.
func StageProgress(stage models.ConversationStage, profile *models.CustomerProfile) int {
	return progress(stage, profile)
}

// StageAction is the recommended next action for a stage.
func StageAction(stage models.ConversationStage) string {
	return stageActions[stage]
}

// QualifiedAt reports whether the profile qualifies at the given stage.
func (h *Handler) QualifiedAt(stage models.ConversationStage, profile *models.CustomerProfile) bool {
	return h.checkQualification(profile, stage)
}

func progress(stage models.ConversationStage, profile *models.CustomerProfile) int {
	base := stageProgress[stage]

	bonus := 0
	if profile.LoanDetails.LoanAmount > 0 {
		bonus += 5
	}
	if profile.LoanDetails.LoanPurpose != "" {
		bonus += 5
	}
	if profile.EmploymentInfo.MonthlyIncome > 0 {
		bonus += 10
	}

	if base+bonus > 100 {
		return 100
	}
	return base + bonus
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

// failJob routes the typed error through the shared handler, which picks
// retry-with-backoff or a BPMN error throw from the code's retryability.
func (h *Handler) failJob(client worker.JobClient, job entities.Job, stdErr *cerrors.StandardError) {
	h.errHandler.HandleJobError(context.Background(), client, job, stdErr)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
