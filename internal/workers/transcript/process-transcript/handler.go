// internal/workers/transcript/process-transcript/handler.go
package processtranscript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	cerrors "tezloan-workers/internal/common/errors"
	"tezloan-workers/internal/common/llm"
	"tezloan-workers/internal/common/logger"
	"tezloan-workers/internal/models"
	extractcustomerdata "tezloan-workers/internal/workers/conversation/extract-customer-data"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "process-transcript"

	incomeMultiple = 3
)

var (
	ErrEmptyTranscript = errors.New("EMPTY_TRANSCRIPT")
)

var (
	timestampPattern    = regexp.MustCompile(`\[\d{2}:\d{2}:\d{2}\]`)
	speakerLabelPattern = regexp.MustCompile(`(?m)^\s*(Agent|Customer|User|Assistant|Human):\s*`)
	multiSpacePattern   = regexp.MustCompile(`[ \t]+`)
	codeFencePattern    = regexp.MustCompile("(?s)```(?:json)?(.*?)```")
)

var fillerWords = []string{"um", "uh", "you know", "basically", "actually", "like"}

// Flow stages are matched in order; the first keyword hit per line wins.
var flowStages = []struct {
	name     string
	keywords []string
}{
	{"greeting", []string{"hello", "hi", "good morning", "welcome"}},
	{"needs_analysis", []string{"need", "looking for", "want", "require"}},
	{"qualification", []string{"income", "salary", "work", "employed"}},
	{"presentation", []string{"offer", "rate", "emi", "interest"}},
	{"objection_handling", []string{"but", "however", "concern", "worried"}},
	{"closing", []string{"proceed", "interested", "yes", "okay"}},
}

var (
	positiveWords = []string{"great", "excellent", "perfect", "good", "yes", "interested"}
	negativeWords = []string{"no", "but", "concern", "worried", "problem", "issue"}
)

type Handler struct {
	config     *Config
	generator  llm.TextGenerator
	extractor  *extractcustomerdata.Handler
	logger     logger.Logger
	errHandler *cerrors.ErrorHandler
}

func NewHandler(config *Config, generator llm.TextGenerator, extractor *extractcustomerdata.Handler, log logger.Logger) *Handler {
	return &Handler{
		config:     config,
		generator:  generator,
		extractor:  extractor,
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
		h.failJob(client, job, jobError(err))
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.Transcript) == "" {
		return nil, fmt.Errorf("%w: empty transcript provided", ErrEmptyTranscript)
	}

	cleaned := cleanTranscript(input.Transcript)

	profile, outcome := h.extractProfile(ctx, cleaned)
	analysis := analyzeFlow(cleaned)
	summary := h.summarize(ctx, cleaned, &profile)

	output := &Output{
		Extracted: profile,
		Outcome:   outcome,
		Analysis:  analysis,
		Summary:   summary,
		Report: ReportData{
			ReportType:      "loan_conversation_analysis",
			GeneratedAt:     time.Now().UTC().Format(time.RFC3339),
			SessionMetadata: input.Metadata,
			Profile:         profile,
			Insights:        analysis,
			Summary:         summary,
			Recommendations: recommendations(&profile),
			NextActions:     nextActions(&profile, &analysis),
		},
		Stats: TranscriptStats{
			OriginalLength: len(input.Transcript),
			CleanedLength:  len(cleaned),
			WordCount:      len(strings.Fields(cleaned)),
		},
	}

	h.logger.Info("transcript processed", map[string]interface{}{
		"sessionId": input.SessionID,
		"outcome":   outcome,
		"wordCount": output.Stats.WordCount,
	})

	return output, nil
}

func cleanTranscript(transcript string) string {
	cleaned := timestampPattern.ReplaceAllString(transcript, "")
	cleaned = speakerLabelPattern.ReplaceAllString(cleaned, "")
	for _, filler := range fillerWords {
		pattern := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(filler) + `\b`)
		cleaned = pattern.ReplaceAllString(cleaned, "")
	}
	cleaned = multiSpacePattern.ReplaceAllString(cleaned, " ")

	lines := strings.Split(cleaned, "\n")
	out := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			out = append(out, strings.TrimSpace(line))
		}
	}
	return strings.Join(out, "\n")
}

// extractProfile tries the AI path first; a generation failure or a
// response that does not parse as the expected JSON degrades to the
// pattern rules over the raw transcript. The caller always gets a
// well-formed profile.
func (h *Handler) extractProfile(ctx context.Context, transcript string) (models.CustomerProfile, ExtractionOutcome) {
	resp, err := h.generator.Generate(ctx, &llm.GenerateRequest{
		Prompt:      extractionPrompt(transcript),
		MaxTokens:   h.config.MaxTokens,
		Temperature: h.config.Temperature,
	})
	if err == nil {
		var profile models.CustomerProfile
		if jsonErr := json.Unmarshal([]byte(stripCodeFence(resp.Text)), &profile); jsonErr == nil {
			return profile, OutcomeAI
		} else {
			err = jsonErr
		}
	}

	h.logger.Warn("ai extraction degraded to pattern rules", map[string]interface{}{
		"error": err.Error(),
	})

	profile, _, _ := h.extractor.ExtractProfile(transcript)
	return profile, OutcomeFallback
}

func extractionPrompt(transcript string) string {
	var b strings.Builder
	b.WriteString("You are an expert at extracting loan application information from conversation transcripts.\n\n")
	b.WriteString("TRANSCRIPT:\n")
	b.WriteString(transcript)
	b.WriteString("\n\nReturn ONLY valid JSON with this exact shape, using null for missing values:\n")
	b.WriteString(`{"personalInfo":{"name":null,"age":null,"phone":null,"email":null,"address":null,"maritalStatus":null},`)
	b.WriteString(`"employmentInfo":{"employer":null,"designation":null,"monthlyIncome":null,"employmentType":null,"experienceYears":null},`)
	b.WriteString(`"loanDetails":{"loanAmount":null,"loanPurpose":null,"tenureMonths":null,"urgency":null},`)
	b.WriteString(`"financialInfo":{"monthlyExpenses":null,"otherIncome":null},`)
	b.WriteString(`"preferences":{"preferredEmi":null,"concerns":null,"questions":null}}`)
	b.WriteString("\nConvert amounts to numbers. Do not add commentary.")
	return b.String()
}

func stripCodeFence(text string) string {
	if match := codeFencePattern.FindStringSubmatch(text); match != nil {
		return strings.TrimSpace(match[1])
	}
	return strings.TrimSpace(text)
}

func analyzeFlow(transcript string) ConversationAnalysis {
	analysis := ConversationAnalysis{Sentiment: "neutral"}

	current := ""
	for i, line := range strings.Split(transcript, "\n") {
		lower := strings.ToLower(line)
		for _, stage := range flowStages {
			if !containsAny(lower, stage.keywords) {
				continue
			}
			if stage.name != current {
				content := line
				if len(content) > 100 {
					content = content[:100] + "..."
				}
				analysis.Stages = append(analysis.Stages, StageMoment{
					Stage:      stage.name,
					LineNumber: i + 1,
					Content:    content,
				})
				current = stage.name
			}
			break
		}
	}

	lower := strings.ToLower(transcript)
	positive, negative := 0, 0
	for _, word := range positiveWords {
		if strings.Contains(lower, word) {
			positive++
		}
	}
	for _, word := range negativeWords {
		if strings.Contains(lower, word) {
			negative++
		}
	}
	if positive > negative {
		analysis.Sentiment = "positive"
	} else if negative > positive {
		analysis.Sentiment = "negative"
	}

	return analysis
}

func (h *Handler) summarize(ctx context.Context, transcript string, profile *models.CustomerProfile) string {
	excerpt := transcript
	if len(excerpt) > h.config.SummaryLimit {
		excerpt = excerpt[:h.config.SummaryLimit]
	}

	profileJSON, _ := json.MarshalIndent(profile, "", "  ")
	prompt := fmt.Sprintf(
		"Create a professional 3-paragraph summary of this loan conversation covering the customer profile and requirements, key highlights, and next steps.\n\nTRANSCRIPT:\n%s\n\nEXTRACTED DATA:\n%s",
		excerpt, profileJSON)

	resp, err := h.generator.Generate(ctx, &llm.GenerateRequest{
		Prompt:      prompt,
		MaxTokens:   h.config.MaxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		h.logger.Warn("summary generation failed, using basic summary", map[string]interface{}{
			"error": err.Error(),
		})
		return basicSummary(profile)
	}
	return resp.Text
}

func basicSummary(profile *models.CustomerProfile) string {
	name := profile.PersonalInfo.Name
	if name == "" {
		name = "Customer"
	}
	purpose := profile.LoanDetails.LoanPurpose
	if purpose == "" {
		purpose = "personal use"
	}

	amount := "not specified"
	if profile.LoanDetails.LoanAmount > 0 {
		amount = fmt.Sprintf("₹%d", profile.LoanDetails.LoanAmount)
	}
	income := "not provided"
	if profile.EmploymentInfo.MonthlyIncome > 0 {
		income = fmt.Sprintf("₹%d", profile.EmploymentInfo.MonthlyIncome)
	}

	return fmt.Sprintf(
		"%s has inquired about a loan of %s for %s. The customer's monthly income is %s. Next steps include document verification and credit assessment to finalize the loan approval process.",
		name, amount, purpose, income)
}

func recommendations(profile *models.CustomerProfile) []string {
	var recs []string

	amount := profile.LoanDetails.LoanAmount
	income := profile.EmploymentInfo.MonthlyIncome
	if amount > 0 && income > 0 {
		if amount <= income*12*incomeMultiple {
			recs = append(recs, "Customer qualifies for the requested loan amount based on income criteria")
		} else {
			recs = append(recs, "Consider reducing loan amount or extending tenure to improve eligibility")
		}
	}

	switch profile.LoanDetails.LoanPurpose {
	case "wedding":
		recs = append(recs, "Offer special wedding loan rates and flexible EMI options")
	case "business":
		recs = append(recs, "Consider business loan products with longer tenure")
	}

	return recs
}

func nextActions(profile *models.CustomerProfile, analysis *ConversationAnalysis) []string {
	var actions []string

	if profile.PersonalInfo.Name == "" {
		actions = append(actions, "Collect customer name and contact details")
	}
	if profile.LoanDetails.LoanAmount == 0 {
		actions = append(actions, "Clarify exact loan amount required")
	}
	if profile.EmploymentInfo.MonthlyIncome == 0 {
		actions = append(actions, "Obtain monthly income verification")
	}

	switch analysis.Sentiment {
	case "positive":
		actions = append(actions, "Proceed with KYC document collection")
	case "negative":
		actions = append(actions, "Address customer concerns and schedule a follow-up call")
	}

	actions = append(actions, "Send loan pre-approval form link")
	return actions
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

// jobError maps a processing failure to its typed error code.
func jobError(err error) *cerrors.StandardError {
	if errors.Is(err, ErrEmptyTranscript) {
		return cerrors.NewEmptyTranscriptError()
	}
	return cerrors.NewExtractionFailedError(err)
}

// failJob routes the typed error through the shared handler, which picks
// retry-with-backoff or a BPMN error throw from the code's retryability.
func (h *Handler) failJob(client worker.JobClient, job entities.Job, stdErr *cerrors.StandardError) {
	h.errHandler.HandleJobError(context.Background(), client, job, stdErr)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
