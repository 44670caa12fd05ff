// internal/workers/credit/make-loan-decision/handler.go
package makeloandecision

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	cerrors "tezloan-workers/internal/common/errors"
	"tezloan-workers/internal/common/logger"
	"tezloan-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "make-loan-decision"
)

var categoryBenefits = map[models.RiskCategory][]string{
	models.RiskLow: {
		"Zero processing fee for IT professionals",
		"Flexible EMI options",
		"Pre-approved top-up facility",
		"Priority customer service",
	},
	models.RiskMedium: {
		"Reduced processing fee",
		"EMI holiday option",
		"Easy documentation",
	},
	models.RiskHigh: {
		"Quick approval",
		"Minimal documentation",
	},
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
		h.failJob(client, job, cerrors.NewCreditAssessmentFailedError(err))
		return
	}

	h.completeJob(client, job, output)
}

// execute applies the decision rules in fixed order; the first failing
// rule determines the rejection. Missing income is a rejection, never an
// error.
func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	decision := h.decide(input)

	output := &Output{Decision: decision}
	if decision.Approved {
		output.Offer = h.buildOffer(input)
	}

	h.logger.Info("loan decision made", map[string]interface{}{
		"sessionId":  input.SessionID,
		"approved":   decision.Approved,
		"reason":     decision.Reason,
		"loanAmount": input.LoanAmount,
	})

	return output, nil
}

func (h *Handler) decide(input *Input) models.LoanDecision {
	if input.CreditScore < h.config.MinCreditScore {
		return models.LoanDecision{
			Approved:       false,
			Reason:         "Credit score below minimum threshold",
			MinCreditScore: h.config.MinCreditScore,
		}
	}

	maxEligible := input.MonthlyIncome * 12 * h.config.IncomeMultiple
	if input.LoanAmount > maxEligible {
		return models.LoanDecision{
			Approved:          false,
			Reason:            "Loan amount exceeds income limit",
			MaxEligibleAmount: maxEligible,
		}
	}

	if input.MonthlyIncome < h.config.MinMonthlyIncome {
		return models.LoanDecision{
			Approved:          false,
			Reason:            "Minimum income requirement not met",
			MinIncomeRequired: h.config.MinMonthlyIncome,
		}
	}

	return models.LoanDecision{
		Approved:   true,
		Reason:     "Customer meets all eligibility criteria",
		Confidence: math.Min(95, float64(input.CreditScore)/10),
	}
}

func (h *Handler) buildOffer(input *Input) *models.LoanOffer {
	params, ok := models.RiskCategoryTable[input.RiskCategory]
	if !ok {
		params = models.RiskCategoryTable[models.RiskHigh]
	}

	principal := float64(input.LoanAmount)
	emi := monthlyEMI(principal, params.InterestRate, h.config.TenureMonths)

	purpose := input.LoanPurpose
	if purpose == "" {
		purpose = "personal"
	}

	return &models.LoanOffer{
		LoanAmount:     input.LoanAmount,
		InterestRate:   params.InterestRate,
		TenureMonths:   h.config.TenureMonths,
		MonthlyEMI:     round2(emi),
		TotalPayable:   round2(emi * float64(h.config.TenureMonths)),
		ProcessingFee:  round2(principal * h.config.ProcessingFeeRate),
		LoanPurpose:    purpose,
		RiskCategory:   input.RiskCategory,
		OfferValidDays: h.config.OfferValidDays,
		Benefits:       categoryBenefits[input.RiskCategory],
	}
}

// monthlyEMI is the standard amortizing-loan formula
// P*r*(1+r)^n / ((1+r)^n - 1) with r the monthly rate.
func monthlyEMI(principal, annualRate float64, tenureMonths int) float64 {
	r := annualRate / (12 * 100)
	if r == 0 {
		return principal / float64(tenureMonths)
	}
	factor := math.Pow(1+r, float64(tenureMonths))
	return principal * r * factor / (factor - 1)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
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
