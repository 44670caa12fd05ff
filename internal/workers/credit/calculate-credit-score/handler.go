// internal/workers/credit/calculate-credit-score/handler.go
package calculatecreditscore

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
	TaskType = "calculate-credit-score"

	baselineScore  = 650
	stabilityBonus = 20
	minScore       = 300
	maxScore       = 850
)

// Income tiers are non-cumulative: only the highest tier reached applies.
var incomeTiers = []struct {
	threshold int
	bonus     int
}{
	{100000, 100},
	{75000, 75},
	{50000, 50},
	{30000, 25},
}

var topEmployers = []string{"infosys", "tcs", "wipro", "accenture", "google", "microsoft"}

var corporateMarkers = []string{"pvt ltd", "limited"}

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
		h.failJob(client, job, cerrors.NewCreditAssessmentFailedError(err))
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	factors := ScoreFactors{
		Baseline:       baselineScore,
		IncomeBonus:    incomeBonus(input.MonthlyIncome),
		EmployerBonus:  employerBonus(input.Employer),
		StabilityBonus: stabilityBonus,
	}

	score := factors.Baseline + factors.IncomeBonus + factors.EmployerBonus + factors.StabilityBonus
	score = clamp(score, minScore, maxScore)

	category := riskCategory(score, input.MonthlyIncome)

	h.logger.Info("credit score calculated", map[string]interface{}{
		"sessionId":    input.SessionID,
		"creditScore":  score,
		"riskCategory": category,
	})

	return &Output{
		CreditScore:    score,
		RiskCategory:   category,
		RiskParameters: models.RiskCategoryTable[category],
		ScoreFactors:   factors,
	}, nil
}

func incomeBonus(monthlyIncome int) int {
	for _, tier := range incomeTiers {
		if monthlyIncome >= tier.threshold {
			return tier.bonus
		}
	}
	return 0
}

func employerBonus(employer string) int {
	employer = strings.ToLower(employer)
	for _, name := range topEmployers {
		if strings.Contains(employer, name) {
			return 50
		}
	}
	for _, marker := range corporateMarkers {
		if strings.Contains(employer, marker) {
			return 25
		}
	}
	return 0
}

func riskCategory(score, monthlyIncome int) models.RiskCategory {
	switch {
	case score >= 750 && monthlyIncome >= 50000:
		return models.RiskLow
	case score >= 650 && monthlyIncome >= 30000:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
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
