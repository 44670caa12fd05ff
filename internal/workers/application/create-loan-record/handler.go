// internal/workers/application/create-loan-record/handler.go
package createloanrecord

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	cerrors "tezloan-workers/internal/common/errors"
	"tezloan-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "create-loan-record"
)

var (
	ErrDatabaseInsertFailed = errors.New("DATABASE_INSERT_FAILED")
	ErrDuplicateLoanRecord  = errors.New("DUPLICATE_LOAN_RECORD")
)

type Handler struct {
	config     *Config
	db         *sql.DB
	logger     logger.Logger
	errHandler *cerrors.ErrorHandler
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	return &Handler{
		config:     config,
		db:         db,
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
		h.failJob(client, job, jobError(err, input.SessionID))
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	// One approved record per session.
	var exists bool
	err := h.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM loan_applications
			WHERE session_id = $1 AND status = 'approved'
		)`, input.SessionID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("%w: duplicate check failed: %v", ErrDatabaseInsertFailed, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: approved loan record already exists for session %s",
			ErrDuplicateLoanRecord, input.SessionID)
	}

	loanID := uuid.New().String()
	createdAt := time.Now().UTC().Format(time.RFC3339)

	status := "rejected"
	if input.Assessment.Decision.Approved {
		status = "approved"
	}

	profileJSON, err := json.Marshal(input.Profile)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal customer profile: %v", ErrDatabaseInsertFailed, err)
	}
	offerJSON := []byte("null")
	if input.Assessment.Offer != nil {
		if offerJSON, err = json.Marshal(input.Assessment.Offer); err != nil {
			return nil, fmt.Errorf("%w: failed to marshal loan offer: %v", ErrDatabaseInsertFailed, err)
		}
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO loan_applications (
			id, session_id, customer_profile, credit_score, risk_category,
			loan_offer, status, decision_reason, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		loanID,
		input.SessionID,
		profileJSON,
		input.Assessment.CreditScore,
		string(input.Assessment.RiskCategory),
		offerJSON,
		status,
		input.Assessment.Decision.Reason,
		createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: insert failed: %v", ErrDatabaseInsertFailed, err)
	}

	// Audit entry is non-critical, log and continue on failure.
	auditDetailsJSON, err := json.Marshal(map[string]interface{}{
		"sessionId":    input.SessionID,
		"creditScore":  input.Assessment.CreditScore,
		"riskCategory": input.Assessment.RiskCategory,
		"status":       status,
	})
	if err != nil {
		h.logger.Warn("failed to marshal audit log details", map[string]interface{}{
			"error": err,
		})
		auditDetailsJSON = []byte("{}")
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		"loan_record_created",
		"loan_application",
		loanID,
		auditDetailsJSON,
		createdAt,
	)
	if err != nil {
		h.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":  err,
			"loanId": loanID,
		})
	}

	h.logger.Info("loan record created", map[string]interface{}{
		"loanId":       loanID,
		"sessionId":    input.SessionID,
		"creditScore":  input.Assessment.CreditScore,
		"riskCategory": input.Assessment.RiskCategory,
		"status":       status,
	})

	return &Output{
		LoanID:            loanID,
		ApplicationStatus: status,
		CreatedAt:         createdAt,
	}, nil
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
	} else {
		h.logger.Info("job completed successfully", map[string]interface{}{
			"jobKey": job.Key,
		})
	}
}

// jobError maps a persistence failure to its typed error code. Insert
// failures stay retryable; duplicates never are.
func jobError(err error, sessionID string) *cerrors.StandardError {
	if errors.Is(err, ErrDuplicateLoanRecord) {
		return cerrors.NewDuplicateLoanRecordError(sessionID)
	}
	return cerrors.NewDatabaseInsertFailedError(err)
}

// failJob routes the typed error through the shared handler, which picks
// retry-with-backoff or a BPMN error throw from the code's retryability.
func (h *Handler) failJob(client worker.JobClient, job entities.Job, stdErr *cerrors.StandardError) {
	h.errHandler.HandleJobError(context.Background(), client, job, stdErr)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
