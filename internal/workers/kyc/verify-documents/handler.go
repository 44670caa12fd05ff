// internal/workers/kyc/verify-documents/handler.go
package verifydocuments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	cerrors "tezloan-workers/internal/common/errors"
	"tezloan-workers/internal/common/logger"
	"tezloan-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "verify-documents"
)

var (
	ErrNoDocuments = errors.New("NO_DOCUMENTS_PROVIDED")
)

var (
	panNumberPattern     = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]{1}$`)
	aadhaarNumberPattern = regexp.MustCompile(`^\d{4}[-\s]?\d{4}[-\s]?\d{4}$`)
	accountNumberPattern = regexp.MustCompile(`^[0-9Xx*\- ]{6,20}$`)
)

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
		h.failJob(client, job, jobError(err))
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if len(input.Documents) == 0 {
		return nil, fmt.Errorf("%w: no documents provided for analysis", ErrNoDocuments)
	}

	results := make(map[string]models.DocumentResult, len(input.Documents))
	for docType, fields := range input.Documents {
		results[docType] = h.analyzeDocument(models.DocumentType(docType), fields)
	}

	report := crossValidate(results)
	profile := consolidate(results)
	score := verificationScore(results, report)

	output := &Output{
		Results:           results,
		Report:            report,
		Profile:           profile,
		VerificationScore: score,
		OverallStatus:     h.overallStatus(score),
	}

	h.logger.Info("document analysis completed", map[string]interface{}{
		"sessionId":         input.SessionID,
		"documentCount":     len(results),
		"verificationScore": score,
		"overallStatus":     output.OverallStatus,
	})

	return output, nil
}

// analyzeDocument dispatches on the closed document-type set; anything
// outside it is reported unsupported, never silently accepted.
func (h *Handler) analyzeDocument(docType models.DocumentType, fields map[string]string) models.DocumentResult {
	if len(fields) == 0 {
		return models.DocumentResult{
			DocumentType: docType,
			Status:       models.StatusMissing,
			Confidence:   0,
			Issues:       []string{"Document not provided"},
		}
	}

	switch docType {
	case models.DocumentPANCard:
		return h.analyzePANCard(fields)
	case models.DocumentAadhaarCard:
		return h.analyzeAadhaarCard(fields)
	case models.DocumentSalarySlip:
		return h.analyzeSalarySlip(fields)
	case models.DocumentBankStatement:
		return h.analyzeBankStatement(fields)
	default:
		return models.DocumentResult{
			DocumentType:  models.DocumentOther,
			Status:        models.StatusUnsupported,
			Confidence:    0,
			ExtractedData: fields,
			Issues:        []string{unsupportedTypeIssue(docType)},
		}
	}
}

func (h *Handler) analyzePANCard(fields map[string]string) models.DocumentResult {
	panValid := panNumberPattern.MatchString(fields["pan_number"])

	confidence := 95.0
	var issues []string
	if !panValid {
		confidence = 60.0
		issues = append(issues, "Invalid PAN number format")
	}
	issues = append(issues, missingFieldIssues(fields, "pan_number", "name", "father_name", "date_of_birth")...)

	return h.resultFor(models.DocumentPANCard, confidence, fields, issues)
}

func (h *Handler) analyzeAadhaarCard(fields map[string]string) models.DocumentResult {
	aadhaarValid := aadhaarNumberPattern.MatchString(fields["aadhaar_number"])

	confidence := 92.0
	var issues []string
	if !aadhaarValid {
		confidence = 65.0
		issues = append(issues, "Invalid Aadhaar number format")
	}
	issues = append(issues, missingFieldIssues(fields, "aadhaar_number", "name", "address", "date_of_birth")...)

	return h.resultFor(models.DocumentAadhaarCard, confidence, fields, issues)
}

func (h *Handler) analyzeSalarySlip(fields map[string]string) models.DocumentResult {
	gross, err := parseAmount(fields["gross_salary"])
	if err != nil {
		return errorResult(models.DocumentSalarySlip, fields, fmt.Sprintf("gross_salary: %v", err))
	}
	net, err := parseAmount(fields["net_salary"])
	if err != nil {
		return errorResult(models.DocumentSalarySlip, fields, fmt.Sprintf("net_salary: %v", err))
	}

	salaryValid := gross > 0 && net > 0 && strings.TrimSpace(fields["employer"]) != ""

	confidence := 88.0
	var issues []string
	if !salaryValid {
		confidence = 50.0
		issues = append(issues, "Incomplete salary information")
	}

	return h.resultFor(models.DocumentSalarySlip, confidence, fields, issues)
}

func (h *Handler) analyzeBankStatement(fields map[string]string) models.DocumentResult {
	if _, err := parseAmount(fields["closing_balance"]); err != nil {
		return errorResult(models.DocumentBankStatement, fields, fmt.Sprintf("closing_balance: %v", err))
	}

	accountValid := accountNumberPattern.MatchString(fields["account_number"])

	confidence := 85.0
	var issues []string
	if !accountValid {
		confidence = 55.0
		issues = append(issues, "Invalid account number format")
	}

	return h.resultFor(models.DocumentBankStatement, confidence, fields, issues)
}

func (h *Handler) resultFor(docType models.DocumentType, confidence float64, fields map[string]string, issues []string) models.DocumentResult {
	status := models.StatusNeedsReview
	if confidence >= h.config.VerifiedThreshold {
		status = models.StatusVerified
	}
	return models.DocumentResult{
		DocumentType:  docType,
		Status:        status,
		Confidence:    confidence,
		ExtractedData: fields,
		Issues:        issues,
	}
}

func errorResult(docType models.DocumentType, fields map[string]string, issue string) models.DocumentResult {
	return models.DocumentResult{
		DocumentType:  docType,
		Status:        models.StatusError,
		Confidence:    0,
		ExtractedData: fields,
		Issues:        []string{issue},
	}
}

// crossValidate compares name and date of birth wherever two or more
// documents report them. A single reporting document stays "unknown".
func crossValidate(results map[string]models.DocumentResult) models.ValidationReport {
	names := collectField(results, map[models.DocumentType]string{
		models.DocumentPANCard:     "name",
		models.DocumentAadhaarCard: "name",
		models.DocumentSalarySlip:  "employee_name",
	})
	dobs := collectField(results, map[models.DocumentType]string{
		models.DocumentPANCard:     "date_of_birth",
		models.DocumentAadhaarCard: "date_of_birth",
	})

	return models.ValidationReport{
		NameConsistency: fieldConsistency(names, normalizeName, 60),
		DOBConsistency:  fieldConsistency(dobs, strings.TrimSpace, 40),
	}
}

func collectField(results map[string]models.DocumentResult, sources map[models.DocumentType]string) map[string]string {
	values := map[string]string{}
	for docType, fieldName := range sources {
		result, ok := results[string(docType)]
		if !ok {
			continue
		}
		if v := result.ExtractedData[fieldName]; strings.TrimSpace(v) != "" {
			values[string(docType)] = v
		}
	}
	return values
}

func fieldConsistency(values map[string]string, normalize func(string) string, penalty int) models.FieldConsistency {
	if len(values) < 2 {
		return models.FieldConsistency{Status: models.ConsistencyUnknown}
	}

	docs := make([]string, 0, len(values))
	for doc := range values {
		docs = append(docs, doc)
	}
	sort.Strings(docs)

	details := make([]string, 0, len(docs))
	reference := normalize(values[docs[0]])
	consistent := true
	for _, doc := range docs {
		details = append(details, fmt.Sprintf("%s: %s", doc, values[doc]))
		if normalize(values[doc]) != reference {
			consistent = false
		}
	}

	if consistent {
		return models.FieldConsistency{Status: models.ConsistencyConsistent, Details: details, MatchScore: 100}
	}
	return models.FieldConsistency{Status: models.ConsistencyInconsistent, Details: details, MatchScore: penalty}
}

func normalizeName(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), ""))
}

// consolidate builds the profile fragment PAN-first, with the Aadhaar
// card as the fallback name source and the salary slip supplying
// employment and financial fields.
func consolidate(results map[string]models.DocumentResult) models.CustomerProfile {
	var profile models.CustomerProfile

	if pan, ok := results[string(models.DocumentPANCard)]; ok {
		data := pan.ExtractedData
		profile.PersonalInfo.Name = titleCase(data["name"])
		profile.PersonalInfo.FatherName = titleCase(data["father_name"])
		profile.PersonalInfo.DateOfBirth = data["date_of_birth"]
		profile.PersonalInfo.PANNumber = data["pan_number"]
	}

	if aadhaar, ok := results[string(models.DocumentAadhaarCard)]; ok {
		data := aadhaar.ExtractedData
		if profile.PersonalInfo.Name == "" {
			profile.PersonalInfo.Name = titleCase(data["name"])
		}
		if profile.PersonalInfo.DateOfBirth == "" {
			profile.PersonalInfo.DateOfBirth = data["date_of_birth"]
		}
		profile.PersonalInfo.Gender = titleCase(data["gender"])
		profile.PersonalInfo.Address = data["address"]
		profile.PersonalInfo.AadhaarNumber = data["aadhaar_number"]
	}

	if slip, ok := results[string(models.DocumentSalarySlip)]; ok {
		data := slip.ExtractedData
		profile.EmploymentInfo.Employer = data["employer"]
		profile.EmploymentInfo.Designation = data["designation"]
		profile.EmploymentInfo.EmployeeID = data["employee_id"]
		if gross, err := parseAmount(data["gross_salary"]); err == nil {
			profile.FinancialInfo.GrossSalary = gross
		}
		if net, err := parseAmount(data["net_salary"]); err == nil {
			profile.FinancialInfo.NetSalary = net
			profile.EmploymentInfo.MonthlyIncome = net
		}
		profile.FinancialInfo.BankAccount = data["bank_account"]
	}

	return profile
}

// verificationScore aggregates per-document confidence, needs_review at
// half weight, plus fixed consistency bonuses over a +35 denominator,
// scaled to 0-100.
func verificationScore(results map[string]models.DocumentResult, report models.ValidationReport) float64 {
	total, max := 0.0, 0.0

	for _, result := range results {
		switch result.Status {
		case models.StatusVerified:
			total += result.Confidence
			max += 100
		case models.StatusNeedsReview:
			total += result.Confidence * 0.5
			max += 100
		}
	}

	if report.NameConsistency.Status == models.ConsistencyConsistent {
		total += 20
	}
	if report.DOBConsistency.Status == models.ConsistencyConsistent {
		total += 15
	}
	max += 35

	return math.Round(total/max*100*100) / 100
}

func (h *Handler) overallStatus(score float64) models.VerificationStatus {
	if score >= h.config.VerifiedThreshold {
		return models.StatusVerified
	}
	return models.StatusNeedsReview
}

func missingFieldIssues(fields map[string]string, required ...string) []string {
	var issues []string
	for _, field := range required {
		if strings.TrimSpace(fields[field]) == "" {
			issues = append(issues, fmt.Sprintf("Missing required field %s", field))
		}
	}
	return issues
}

func parseAmount(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", raw)
	}
	return n, nil
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
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

// jobError maps an analysis failure to its typed error code.
func jobError(err error) *cerrors.StandardError {
	if errors.Is(err, ErrNoDocuments) {
		return cerrors.NewNoDocumentsProvidedError()
	}
	return cerrors.NewDocumentAnalysisFailedError(err)
}

// unsupportedTypeIssue names the rejected type and the types that do
// have a verification rule set.
func unsupportedTypeIssue(docType models.DocumentType) string {
	supported := make([]string, len(models.SupportedDocumentTypes))
	for i, t := range models.SupportedDocumentTypes {
		supported[i] = string(t)
	}
	return fmt.Sprintf("Document type %s not supported; supported types: %s", docType, strings.Join(supported, ", "))
}

// failJob routes the typed error through the shared handler, which picks
// retry-with-backoff or a BPMN error throw from the code's retryability.
func (h *Handler) failJob(client worker.JobClient, job entities.Job, stdErr *cerrors.StandardError) {
	h.errHandler.HandleJobError(context.Background(), client, job, stdErr)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
