// internal/workers/orchestration/process-loan-request/handler.go
package processloanrequest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	cerrors "tezloan-workers/internal/common/errors"
	"tezloan-workers/internal/common/llm"
	"tezloan-workers/internal/common/logger"
	"tezloan-workers/internal/common/metrics"
	"tezloan-workers/internal/models"
	"tezloan-workers/internal/sessionstore"
	createloanrecord "tezloan-workers/internal/workers/application/create-loan-record"
	sendnotification "tezloan-workers/internal/workers/communication/send-notification"
	advancestage "tezloan-workers/internal/workers/conversation/advance-stage"
	extractcustomerdata "tezloan-workers/internal/workers/conversation/extract-customer-data"
	calculatecreditscore "tezloan-workers/internal/workers/credit/calculate-credit-score"
	makeloandecision "tezloan-workers/internal/workers/credit/make-loan-decision"
	verifydocuments "tezloan-workers/internal/workers/kyc/verify-documents"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/oklog/ulid/v2"
)

const (
	TaskType = "process-loan-request"

	fallbackReply = "I apologize, I'm having a little trouble right now. Could you please repeat that?"
)

// AssessmentIndexer receives completed assessment bundles for ops search.
// Indexing is best-effort and never fails a request.
type AssessmentIndexer interface {
	Index(ctx context.Context, index, id string, body []byte) error
}

// Notifier dispatches decision notifications.
type Notifier interface {
	Execute(ctx context.Context, input *sendnotification.Input) (*sendnotification.Output, error)
}

// LoanRecorder persists approved applications.
type LoanRecorder interface {
	Execute(ctx context.Context, input *createloanrecord.Input) (*createloanrecord.Output, error)
}

// Engines bundles the constructed engine handlers the orchestrator
// drives. All are required.
type Engines struct {
	Extract *extractcustomerdata.Handler
	Advance *advancestage.Handler
	Score   *calculatecreditscore.Handler
	Decide  *makeloandecision.Handler
	Verify  *verifydocuments.Handler
}

type Handler struct {
	config     *Config
	store      sessionstore.Store
	generator  llm.TextGenerator
	engines    Engines
	indexer    AssessmentIndexer
	notifier   Notifier
	recorder   LoanRecorder
	logger     logger.Logger
	errHandler *cerrors.ErrorHandler
}

// NewHandler wires the orchestrator. indexer, notifier and recorder are
// optional; pass nil to disable the corresponding side effect.
func NewHandler(config *Config, store sessionstore.Store, generator llm.TextGenerator, engines Engines,
	indexer AssessmentIndexer, notifier Notifier, recorder LoanRecorder, log logger.Logger) *Handler {
	return &Handler{
		config:     config,
		store:      store,
		generator:  generator,
		engines:    engines,
		indexer:    indexer,
		notifier:   notifier,
		recorder:   recorder,
		logger:     log.WithFields(map[string]interface{}{"taskType": TaskType}),
		errHandler: cerrors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(job.Variables), &raw); err != nil {
		h.failJob(client, job, cerrors.NewRequestValidationFailedError(fmt.Sprintf("parse input: %v", err)))
		return
	}
	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, cerrors.NewRequestValidationFailedError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	if err := validateRequest(raw); err != nil {
		h.failJob(client, job, cerrors.NewRequestValidationFailedError(err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output := h.execute(ctx, &input)
	h.completeJob(client, job, output)
}

// execute dispatches one request. It always returns a structured result:
// engine panics are converted to {status: error} with no state write.
func (h *Handler) execute(ctx context.Context, input *Input) (output *Output) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("request panicked", map[string]interface{}{
				"sessionId":   input.SessionID,
				"requestType": input.RequestType,
				"panic":       fmt.Sprintf("%v", r),
			})
			output = h.errorOutput(input, fmt.Sprintf("internal error: %v", r))
		}
	}()

	session, err := sessionstore.LoadOrCreate(ctx, h.store, input.SessionID)
	if err != nil {
		return h.errorOutput(input, fmt.Sprintf("load session: %v", err))
	}

	switch input.RequestType {
	case RequestConversation:
		return h.handleConversation(ctx, input, session)
	case RequestKYCVerification:
		return h.handleKYCVerification(ctx, input, session)
	case RequestCreditAssessment:
		return h.handleCreditAssessment(ctx, input, session)
	case RequestCompleteJourney:
		return h.handleCompleteJourney(ctx, input, session)
	case RequestWorkflowStatus:
		return h.handleWorkflowStatus(ctx, input, session)
	default:
		return h.errorOutput(input, fmt.Sprintf("unknown request type: %s", input.RequestType))
	}
}

func (h *Handler) handleConversation(ctx context.Context, input *Input, session *models.Session) *Output {
	result, err := h.conversationTurn(ctx, session, input.Text)
	if err != nil {
		return h.errorOutput(input, err.Error())
	}

	if err := h.store.Save(ctx, session); err != nil {
		return h.errorOutput(input, fmt.Sprintf("save session: %v", err))
	}

	output := h.successOutput(input)
	output.Conversation = result
	if result.Qualified {
		output.NextWorkflow = WorkflowKYCVerification
	}
	return output
}

// conversationTurn runs one extract/advance/reply cycle and appends the
// turn to the session. The caller saves.
func (h *Handler) conversationTurn(ctx context.Context, session *models.Session, text string) (*ConversationResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty text provided")
	}

	fragment, fields, fieldErrors := h.engines.Extract.ExtractProfile(text)
	session.Profile.Merge(&fragment)

	adv, err := h.engines.Advance.Execute(ctx, &advancestage.Input{
		SessionID: session.ID,
		Stage:     session.Stage,
		Text:      text,
		Profile:   session.Profile,
	})
	if err != nil {
		return nil, fmt.Errorf("advance stage: %v", err)
	}

	reply := h.generateReply(ctx, session, adv, text)

	session.AppendTurn(models.TurnRecord{
		ID:            ulid.Make().String(),
		Timestamp:     time.Now().UTC(),
		CustomerText:  text,
		ReplyText:     reply,
		StageBefore:   session.Stage,
		StageAfter:    adv.NextStage,
		ExtractedInfo: fields,
	})

	return &ConversationResult{
		Reply:             reply,
		Stage:             adv.NextStage,
		Qualified:         adv.Qualified,
		Progress:          adv.Progress,
		RecommendedAction: adv.RecommendedAction,
		ExtractedFields:   fields,
		FieldErrors:       fieldErrors,
	}, nil
}

func (h *Handler) handleKYCVerification(ctx context.Context, input *Input, session *models.Session) *Output {
	ver, err := h.engines.Verify.Execute(ctx, &verifydocuments.Input{
		SessionID: input.SessionID,
		Documents: input.Documents,
	})
	if err != nil {
		return h.errorOutput(input, err.Error())
	}

	for docType, result := range ver.Results {
		metrics.DocumentsVerified.WithLabelValues(docType, string(result.Status)).Inc()
	}

	// The document set replaces any earlier upload wholesale.
	session.Documents = sortedResults(ver.Results)
	session.Profile.Merge(&ver.Profile)
	session.LastUpdated = time.Now().UTC()

	if err := h.store.Save(ctx, session); err != nil {
		return h.errorOutput(input, fmt.Sprintf("save session: %v", err))
	}

	output := h.successOutput(input)
	output.Verification = &VerificationResult{
		Results:           ver.Results,
		Report:            ver.Report,
		Profile:           ver.Profile,
		VerificationScore: ver.VerificationScore,
		OverallStatus:     ver.OverallStatus,
	}

	// A verified customer flows straight into credit assessment.
	if ver.OverallStatus == models.StatusVerified {
		assessment, assessErr := h.assessCredit(ctx, session)
		if assessErr != nil {
			h.logger.Warn("chained credit assessment failed", map[string]interface{}{
				"sessionId": session.ID,
				"error":     assessErr.Error(),
			})
		} else {
			output.Assessment = assessment
			output.NextWorkflow = WorkflowCreditAssessment
			h.recordDecision(ctx, session, assessment)
		}
	}

	return output
}

func (h *Handler) handleCreditAssessment(ctx context.Context, input *Input, session *models.Session) *Output {
	assessment, err := h.assessCredit(ctx, session)
	if err != nil {
		return h.errorOutput(input, err.Error())
	}

	h.recordDecision(ctx, session, assessment)

	output := h.successOutput(input)
	output.Assessment = assessment
	return output
}

func (h *Handler) handleCompleteJourney(ctx context.Context, input *Input, session *models.Session) *Output {
	journey := &JourneyResult{}

	for _, message := range input.Messages {
		turn, err := h.conversationTurn(ctx, session, message)
		if err != nil {
			return h.errorOutput(input, err.Error())
		}
		journey.Turns = append(journey.Turns, *turn)
		journey.Qualified = turn.Qualified
	}

	if !journey.Qualified {
		journey.StoppedAt = RequestConversation
		journey.Summary = journeySummary(session, journey)
		if err := h.store.Save(ctx, session); err != nil {
			return h.errorOutput(input, fmt.Sprintf("save session: %v", err))
		}
		output := h.successOutput(input)
		output.Journey = journey
		return output
	}

	ver, err := h.engines.Verify.Execute(ctx, &verifydocuments.Input{
		SessionID: input.SessionID,
		Documents: input.Documents,
	})
	if err != nil {
		return h.errorOutput(input, err.Error())
	}

	for docType, result := range ver.Results {
		metrics.DocumentsVerified.WithLabelValues(docType, string(result.Status)).Inc()
	}

	session.Documents = sortedResults(ver.Results)
	session.Profile.Merge(&ver.Profile)
	session.LastUpdated = time.Now().UTC()

	journey.Verification = &VerificationResult{
		Results:           ver.Results,
		Report:            ver.Report,
		Profile:           ver.Profile,
		VerificationScore: ver.VerificationScore,
		OverallStatus:     ver.OverallStatus,
	}

	if ver.OverallStatus != models.StatusVerified {
		journey.StoppedAt = RequestKYCVerification
		journey.Summary = journeySummary(session, journey)
		if err := h.store.Save(ctx, session); err != nil {
			return h.errorOutput(input, fmt.Sprintf("save session: %v", err))
		}
		output := h.successOutput(input)
		output.Journey = journey
		return output
	}

	assessment, err := h.assessCredit(ctx, session)
	if err != nil {
		return h.errorOutput(input, err.Error())
	}

	journey.Assessment = assessment
	journey.Completed = true
	journey.Summary = journeySummary(session, journey)

	if err := h.store.Save(ctx, session); err != nil {
		return h.errorOutput(input, fmt.Sprintf("save session: %v", err))
	}

	h.recordDecision(ctx, session, assessment)

	output := h.successOutput(input)
	output.Journey = journey
	return output
}

func (h *Handler) handleWorkflowStatus(_ context.Context, input *Input, session *models.Session) *Output {
	// Status is read-only: progress, action and qualification all come
	// from the stored stage, never from a stage transition.
	qualified := h.engines.Advance.QualifiedAt(session.Stage, &session.Profile)

	verified := 0
	for _, doc := range session.Documents {
		if doc.Status == models.StatusVerified {
			verified++
		}
	}

	nextStep := "continue conversation"
	switch {
	case qualified && len(session.Documents) == 0:
		nextStep = "upload KYC documents"
	case qualified && verified == len(session.Documents) && verified > 0:
		nextStep = "proceed to credit assessment"
	case len(session.Documents) > 0 && verified < len(session.Documents):
		nextStep = "re-upload documents that need review"
	}

	output := h.successOutput(input)
	output.WorkflowInfo = &WorkflowStatusResult{
		Stage:             session.Stage,
		Progress:          advancestage.StageProgress(session.Stage, &session.Profile),
		TurnCount:         len(session.Turns),
		DocumentsUploaded: len(session.Documents),
		DocumentsVerified: verified,
		RecommendedAction: advancestage.StageAction(session.Stage),
		NextStep:          nextStep,
	}
	return output
}

// assessCredit runs score then decision over the session profile.
func (h *Handler) assessCredit(ctx context.Context, session *models.Session) (*models.CreditAssessment, error) {
	scoreOut, err := h.engines.Score.Execute(ctx, &calculatecreditscore.Input{
		SessionID:     session.ID,
		MonthlyIncome: session.Profile.EmploymentInfo.MonthlyIncome,
		Employer:      session.Profile.EmploymentInfo.Employer,
	})
	if err != nil {
		return nil, fmt.Errorf("calculate credit score: %v", err)
	}

	decisionOut, err := h.engines.Decide.Execute(ctx, &makeloandecision.Input{
		SessionID:     session.ID,
		CreditScore:   scoreOut.CreditScore,
		RiskCategory:  scoreOut.RiskCategory,
		LoanAmount:    session.Profile.LoanDetails.LoanAmount,
		LoanPurpose:   session.Profile.LoanDetails.LoanPurpose,
		MonthlyIncome: session.Profile.EmploymentInfo.MonthlyIncome,
	})
	if err != nil {
		return nil, fmt.Errorf("make loan decision: %v", err)
	}

	return &models.CreditAssessment{
		CreditScore:  scoreOut.CreditScore,
		RiskCategory: scoreOut.RiskCategory,
		Decision:     decisionOut.Decision,
		Offer:        decisionOut.Offer,
	}, nil
}

// recordDecision runs the best-effort side effects of a final decision:
// metrics, search indexing, loan record, notification. None of them can
// fail the request.
func (h *Handler) recordDecision(ctx context.Context, session *models.Session, assessment *models.CreditAssessment) {
	outcome := "rejected"
	if assessment.Decision.Approved {
		outcome = "approved"
	}
	metrics.LoanDecisions.WithLabelValues(outcome, string(assessment.RiskCategory)).Inc()

	if h.indexer != nil {
		bundle, err := json.Marshal(map[string]interface{}{
			"sessionId":        session.ID,
			"customerProfile":  session.Profile,
			"creditAssessment": assessment,
			"indexedAt":        time.Now().UTC().Format(time.RFC3339),
		})
		if err == nil {
			err = h.indexer.Index(ctx, h.config.AuditIndex, ulid.Make().String(), bundle)
		}
		if err != nil {
			h.logger.Warn("assessment indexing failed", map[string]interface{}{
				"sessionId": session.ID,
				"error":     err.Error(),
			})
		}
	}

	if h.recorder != nil && assessment.Decision.Approved {
		_, err := h.recorder.Execute(ctx, &createloanrecord.Input{
			SessionID:  session.ID,
			Profile:    session.Profile,
			Assessment: *assessment,
		})
		if err != nil {
			h.logger.Warn("loan record creation failed", map[string]interface{}{
				"sessionId": session.ID,
				"error":     err.Error(),
			})
		}
	}

	if h.notifier != nil {
		h.dispatchNotification(ctx, session, assessment, outcome)
	}
}

func (h *Handler) dispatchNotification(ctx context.Context, session *models.Session, assessment *models.CreditAssessment, outcome string) {
	notificationType := sendnotification.TypeLoanRejected
	priority := "normal"
	metadata := map[string]interface{}{
		"name":   session.Profile.PersonalInfo.Name,
		"reason": assessment.Decision.Reason,
	}

	if assessment.Decision.Approved {
		notificationType = sendnotification.TypeLoanApproved
		priority = "high"
		if assessment.Offer != nil {
			metadata["loanAmount"] = assessment.Offer.LoanAmount
			metadata["interestRate"] = assessment.Offer.InterestRate
			metadata["tenureMonths"] = assessment.Offer.TenureMonths
			metadata["monthlyEmi"] = assessment.Offer.MonthlyEMI
		}
	}

	_, err := h.notifier.Execute(ctx, &sendnotification.Input{
		SessionID:        session.ID,
		NotificationType: notificationType,
		Email:            session.Profile.PersonalInfo.Email,
		Phone:            session.Profile.PersonalInfo.Phone,
		Priority:         priority,
		Metadata:         metadata,
	})
	if err != nil {
		h.logger.Warn("decision notification failed", map[string]interface{}{
			"sessionId": session.ID,
			"error":     err.Error(),
		})
	}
}

// generateReply asks the text-generation collaborator for a stage-aware
// reply and falls back to a generic apology when it fails or returns
// nothing.
func (h *Handler) generateReply(ctx context.Context, session *models.Session, adv *advancestage.Output, text string) string {
	profileJSON, _ := json.Marshal(session.Profile)
	prompt := fmt.Sprintf(
		"You are a friendly loan advisor for TezLoan. Conversation stage: %s. Goal: %s.\nKnown customer data: %s\nCustomer said: %q\nReply in 1-2 warm, concrete sentences that move the conversation forward.",
		adv.NextStage, adv.RecommendedAction, profileJSON, text)

	resp, err := h.generator.Generate(ctx, &llm.GenerateRequest{
		Prompt:      prompt,
		MaxTokens:   256,
		Temperature: 0.7,
	})
	if err != nil || strings.TrimSpace(resp.Text) == "" {
		if err != nil {
			h.logger.Warn("reply generation failed", map[string]interface{}{
				"sessionId": session.ID,
				"error":     err.Error(),
			})
		}
		return fallbackReply
	}
	return strings.TrimSpace(resp.Text)
}

func journeySummary(session *models.Session, journey *JourneyResult) string {
	name := session.Profile.PersonalInfo.Name
	if name == "" {
		name = "Customer"
	}

	if !journey.Qualified {
		return fmt.Sprintf("%s did not qualify during the conversation (stage %s after %d turns).",
			name, session.Stage, len(journey.Turns))
	}
	if journey.Verification != nil && journey.Verification.OverallStatus != models.StatusVerified {
		return fmt.Sprintf("%s qualified but document verification scored %.2f (%s).",
			name, journey.Verification.VerificationScore, journey.Verification.OverallStatus)
	}
	if journey.Assessment != nil {
		outcome := "rejected"
		if journey.Assessment.Decision.Approved {
			outcome = "approved"
		}
		return fmt.Sprintf("%s completed the journey: credit score %d (%s risk), loan %s.",
			name, journey.Assessment.CreditScore, journey.Assessment.RiskCategory, outcome)
	}
	return fmt.Sprintf("%s qualified after %d turns.", name, len(journey.Turns))
}

func sortedResults(results map[string]models.DocumentResult) []models.DocumentResult {
	types := make([]string, 0, len(results))
	for docType := range results {
		types = append(types, docType)
	}
	sort.Strings(types)

	docs := make([]models.DocumentResult, 0, len(results))
	for _, docType := range types {
		docs = append(docs, results[docType])
	}
	return docs
}

func (h *Handler) successOutput(input *Input) *Output {
	return &Output{
		Status:      "success",
		SessionID:   input.SessionID,
		RequestType: input.RequestType,
	}
}

func (h *Handler) errorOutput(input *Input, message string) *Output {
	return &Output{
		Status:      "error",
		SessionID:   input.SessionID,
		RequestType: input.RequestType,
		Error:       message,
	}
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

func (h *Handler) Execute(ctx context.Context, input *Input) *Output {
	return h.execute(ctx, input)
}
