// internal/workers/conversation/extract-customer-data/handler.go
package extractcustomerdata

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	cerrors "tezloan-workers/internal/common/errors"
	"tezloan-workers/internal/common/logger"
	"tezloan-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "extract-customer-data"
)

// Amount patterns are tried in priority order; the first match inside the
// configured loan band wins. An out-of-band match falls through to the
// next pattern, it is never clamped.
var (
	loanLakhPattern     = regexp.MustCompile(`(\d+)\s*lakh(?:s)?`)
	loanThousandPattern = regexp.MustCompile(`(\d+)\s*thousand`)
	loanCurrencyPattern = regexp.MustCompile(`(?:₹|rs\.?|inr)\s*(\d+(?:,\d+)*)`)
	loanBarePattern     = regexp.MustCompile(`(\d{5,8})`)

	incomeKPattern        = regexp.MustCompile(`(\d+)k\b`)
	incomeThousandPattern = regexp.MustCompile(`(\d+)\s*thousand`)
	incomeBarePattern     = regexp.MustCompile(`(\d{4,6})`)

	namePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:i am|i'm|my name is|call me)\s+([a-zA-Z]+)`),
		regexp.MustCompile(`this is\s+([a-zA-Z]+)`),
	}

	phoneCandidatePattern = regexp.MustCompile(`[+]?[\d][\d\s\-()]{6,}`)
	phoneValidPattern     = regexp.MustCompile(`^\+?\d{10,15}$`)
	phoneStripPattern     = regexp.MustCompile(`[^\d+]`)

	emailPattern    = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	employerPattern = regexp.MustCompile(`(?:i work (?:at|for)|working (?:at|in|for)|employed (?:at|by))\s+([a-z][a-z0-9&. ]{1,40})`)
	tenurePattern   = regexp.MustCompile(`(\d+)\s*year(?:s)?`)
)

var incomeKeywords = []string{"salary", "income", "earn"}

var phoneKeywords = []string{"phone", "mobile", "contact", "reach me"}

// Purpose categories are checked in fixed order; the first category with a
// keyword hit wins.
var purposeCategories = []struct {
	name     string
	keywords []string
}{
	{"wedding", []string{"wedding", "marriage", "shaadi"}},
	{"business", []string{"business", "startup", "shop"}},
	{"home", []string{"home", "house", "property"}},
	{"education", []string{"education", "study", "college"}},
	{"medical", []string{"medical", "hospital", "treatment"}},
	{"personal", []string{"personal", "emergency", "urgent"}},
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
		h.failJob(client, job, cerrors.NewExtractionFailedError(err))
		return
	}

	h.completeJob(client, job, output)
}

// execute never fails on malformed text: anything that does not match
// simply stays out of the profile fragment.
func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	text := strings.ToLower(input.Text)

	output := &Output{Fields: map[string]string{}}
	profile := &output.Profile

	if amount, ok := h.extractLoanAmount(text); ok {
		profile.LoanDetails.LoanAmount = amount
		output.Fields["loan_amount"] = strconv.Itoa(amount)
	}

	if purpose, ok := extractPurpose(text); ok {
		profile.LoanDetails.LoanPurpose = purpose
		output.Fields["purpose"] = purpose
	}

	if income, ok := h.extractIncome(text); ok {
		profile.EmploymentInfo.MonthlyIncome = income
		output.Fields["income"] = strconv.Itoa(income)
	}

	if name, ok := extractName(text); ok {
		profile.PersonalInfo.Name = name
		output.Fields["name"] = name
	}

	if phone, fieldErr, attempted := extractPhone(text); attempted {
		if fieldErr != "" {
			output.FieldErrors = append(output.FieldErrors, fieldErr)
		} else {
			profile.PersonalInfo.Phone = phone
			output.Fields["phone"] = phone
		}
	}

	if email := emailPattern.FindString(text); email != "" {
		profile.PersonalInfo.Email = email
		output.Fields["email"] = email
	}

	if employer, ok := extractEmployer(text); ok {
		profile.EmploymentInfo.Employer = employer
		output.Fields["employer"] = employer
	}

	if months, ok := extractTenure(text); ok {
		profile.LoanDetails.TenureMonths = months
		output.Fields["tenure_months"] = strconv.Itoa(months)
	}

	h.logger.Info("extraction completed", map[string]interface{}{
		"sessionId":   input.SessionID,
		"fieldCount":  len(output.Fields),
		"fieldErrors": len(output.FieldErrors),
	})

	return output, nil
}

func (h *Handler) extractLoanAmount(text string) (int, bool) {
	converters := []struct {
		pattern    *regexp.Regexp
		multiplier int
	}{
		{loanLakhPattern, 100000},
		{loanThousandPattern, 1000},
		{loanCurrencyPattern, 1},
		{loanBarePattern, 1},
	}

	for _, c := range converters {
		match := c.pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		raw := strings.ReplaceAll(match[1], ",", "")
		n, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		amount := n * c.multiplier
		if amount >= h.config.MinLoan && amount <= h.config.MaxLoan {
			return amount, true
		}
	}
	return 0, false
}

func (h *Handler) extractIncome(text string) (int, bool) {
	if !containsAny(text, incomeKeywords) {
		return 0, false
	}

	converters := []struct {
		pattern    *regexp.Regexp
		multiplier int
	}{
		{incomeKPattern, 1000},
		{incomeThousandPattern, 1000},
		{incomeBarePattern, 1},
	}

	for _, c := range converters {
		match := c.pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		n, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		income := n * c.multiplier
		if income >= h.config.MinIncome && income <= h.config.MaxIncome {
			return income, true
		}
	}
	return 0, false
}

func extractPurpose(text string) (string, bool) {
	for _, category := range purposeCategories {
		if containsAny(text, category.keywords) {
			return category.name, true
		}
	}
	return "", false
}

func extractName(text string) (string, bool) {
	for _, pattern := range namePatterns {
		if match := pattern.FindStringSubmatch(text); match != nil {
			return titleCase(match[1]), true
		}
	}
	return "", false
}

// extractPhone reports attempted=false when the text does not mention a
// phone at all; a mentioned but malformed number comes back as a
// user-facing field error, never a silent drop.
func extractPhone(text string) (phone, fieldError string, attempted bool) {
	if !containsAny(text, phoneKeywords) {
		return "", "", false
	}
	candidate := phoneCandidatePattern.FindString(text)
	if candidate == "" {
		return "", "", false
	}

	normalized := phoneStripPattern.ReplaceAllString(candidate, "")
	if !phoneValidPattern.MatchString(normalized) {
		return "", "Invalid phone number: please provide a 10-15 digit number", true
	}
	return normalized, "", true
}

func extractEmployer(text string) (string, bool) {
	match := employerPattern.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}
	employer := strings.TrimSpace(match[1])
	// Trim trailing sentence fragments after common stop words.
	for _, stop := range []string{" and ", " my ", " for ", " since "} {
		if idx := strings.Index(employer, stop); idx > 0 {
			employer = employer[:idx]
		}
	}
	return titleCase(employer), true
}

func extractTenure(text string) (int, bool) {
	match := tenurePattern.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	years, err := strconv.Atoi(match[1])
	if err != nil || years <= 0 || years > 30 {
		return 0, false
	}
	return years * 12, true
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}

// ExtractProfile runs the pattern rules over arbitrary text, for callers
// that already hold the raw string (transcript fallback, orchestrator).
func (h *Handler) ExtractProfile(text string) (models.CustomerProfile, map[string]string, []string) {
	output, _ := h.execute(context.Background(), &Input{Text: text})
	return output.Profile, output.Fields, output.FieldErrors
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
