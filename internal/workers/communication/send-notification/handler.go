// internal/workers/communication/send-notification/handler.go
package sendnotification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	cerrors "tezloan-workers/internal/common/errors"
	"tezloan-workers/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "send-notification"
)

var (
	ErrUnknownNotificationType = errors.New("UNKNOWN_NOTIFICATION_TYPE")
)

// Interfaces over the AWS clients so tests can stub the transport.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Handler struct {
	config     *Config
	logger     logger.Logger
	sesClient  SESService
	snsClient  SNSService
	templates  map[string]notificationTemplate
	errHandler *cerrors.ErrorHandler
}

type notificationTemplate struct {
	subject string
	body    string
}

func NewHandler(config *Config, log logger.Logger) (*Handler, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(config.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return &Handler{
		config:     config,
		logger:     log.WithFields(map[string]interface{}{"taskType": TaskType}),
		sesClient:  ses.NewFromConfig(awsCfg),
		snsClient:  sns.NewFromConfig(awsCfg),
		templates:  loanTemplates(),
		errHandler: cerrors.NewErrorHandler(log),
	}, nil
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
		h.failJob(client, job, jobError(err, input.NotificationType))
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	template, exists := h.templates[input.NotificationType]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNotificationType, input.NotificationType)
	}

	data := map[string]interface{}{
		"sessionId": input.SessionID,
	}
	for k, v := range input.Metadata {
		data[k] = v
	}

	subject := renderTemplate(template.subject, data)
	body := renderTemplate(template.body, data)

	sentAt := time.Now().UTC().Format(time.RFC3339)
	notificationID := uuid.New().String()

	emailSent := false
	smsSent := false

	if h.config.EmailEnabled && input.Email != "" {
		if err := h.sendEmail(ctx, input.Email, subject, body); err != nil {
			h.logger.Error("email send failed", map[string]interface{}{
				"error": err,
				"email": input.Email,
			})
			return &Output{NotificationID: notificationID, Status: StatusFailed, SentAt: sentAt}, nil
		}
		emailSent = true
	}

	// SMS goes out only for high priority notifications.
	if h.config.SMSEnabled && input.Phone != "" && input.Priority == "high" {
		if err := h.sendSMS(ctx, input.Phone, body); err != nil {
			h.logger.Error("SMS send failed", map[string]interface{}{
				"error": err,
				"phone": input.Phone,
			})
			return &Output{NotificationID: notificationID, Status: StatusFailed, EmailSent: emailSent, SentAt: sentAt}, nil
		}
		smsSent = true
	}

	status := StatusDisabled
	if emailSent || smsSent {
		status = StatusSent
	}

	h.logger.Info("notification dispatched", map[string]interface{}{
		"notificationId": notificationID,
		"type":           input.NotificationType,
		"status":         status,
		"emailSent":      emailSent,
		"smsSent":        smsSent,
	})

	return &Output{
		NotificationID: notificationID,
		Status:         status,
		EmailSent:      emailSent,
		SMSSent:        smsSent,
		SentAt:         sentAt,
	}, nil
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
				Html: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

func (h *Handler) sendSMS(ctx context.Context, to, message string) error {
	_, err := h.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
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

// jobError maps a dispatch failure to its typed error code.
func jobError(err error, notificationType string) *cerrors.StandardError {
	if errors.Is(err, ErrUnknownNotificationType) {
		return cerrors.NewUnknownNotificationTypeError(notificationType)
	}
	return cerrors.NewNotificationSendFailedError(notificationType, err)
}

// failJob routes the typed error through the shared handler, which picks
// retry-with-backoff or a BPMN error throw from the code's retryability.
func (h *Handler) failJob(client worker.JobClient, job entities.Job, stdErr *cerrors.StandardError) {
	h.errHandler.HandleJobError(context.Background(), client, job, stdErr)
}

// renderTemplate substitutes {{key}} placeholders and strips any that
// had no value.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl

	for k, v := range data {
		placeholder := "{{" + k + "}}"
		value := ""
		if s, ok := v.(string); ok {
			value = s
		} else if i, ok := v.(int); ok {
			value = fmt.Sprintf("%d", i)
		} else if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, placeholder, value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		end += start + 2
		result = result[:start] + result[end:]
	}

	return result
}

func loanTemplates() map[string]notificationTemplate {
	return map[string]notificationTemplate{
		TypeLoanApproved: {
			subject: "Your TezLoan Application is Approved",
			body:    "Congratulations {{name}}! Your loan of ₹{{loanAmount}} is approved at {{interestRate}}% for {{tenureMonths}} months. Monthly EMI: ₹{{monthlyEmi}}.",
		},
		TypeLoanRejected: {
			subject: "Update on Your TezLoan Application",
			body:    "Dear {{name}}, we could not approve your loan application at this time. Reason: {{reason}}. Our team will reach out with alternatives.",
		},
		TypeDocumentsRequired: {
			subject: "Documents Needed for Your Loan Application",
			body:    "Dear {{name}}, please upload the following documents to continue: {{documents}}.",
		},
		TypeOfferExpiring: {
			subject: "Your Loan Offer Expires Soon",
			body:    "Dear {{name}}, your pre-approved offer of ₹{{loanAmount}} expires in {{daysLeft}} days. Complete your application to lock in the rate.",
		},
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
