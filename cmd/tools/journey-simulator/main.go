// cmd/tools/journey-simulator/main.go
//
// Drives a complete loan journey through the orchestrator engines without
// Zeebe, Redis or the GenAI service. Useful for exercising the conversation
// state machine and the credit rules from the command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tezloan-workers/internal/common/llm"
	"tezloan-workers/internal/common/logger"
	"tezloan-workers/internal/sessionstore"
	as "tezloan-workers/internal/workers/conversation/advance-stage"
	ecd "tezloan-workers/internal/workers/conversation/extract-customer-data"
	ccs "tezloan-workers/internal/workers/credit/calculate-credit-score"
	mld "tezloan-workers/internal/workers/credit/make-loan-decision"
	vd "tezloan-workers/internal/workers/kyc/verify-documents"
	plr "tezloan-workers/internal/workers/orchestration/process-loan-request"
)

var defaultMessages = []string{
	"Hi, I am Priya Sharma and I need a loan of 5 lakh for my wedding",
	"My salary is 60000 per month and I work at Infosys",
	"I have been working there for 4 years, my email is priya@example.com",
	"Yes, okay, let us proceed",
}

var sampleDocuments = map[string]map[string]string{
	"pan_card": {
		"pan_number":    "ABCDE1234F",
		"name":          "PRIYA SHARMA",
		"father_name":   "RAJESH SHARMA",
		"date_of_birth": "1990-01-01",
	},
	"aadhaar_card": {
		"aadhaar_number": "1234 5678 9012",
		"name":           "Priya Sharma",
		"address":        "42 MG Road, Bengaluru",
		"date_of_birth":  "1990-01-01",
	},
	"salary_slip": {
		"gross_salary":  "80000",
		"net_salary":    "60000",
		"employer":      "Infosys",
		"employee_name": "Priya Sharma",
	},
}

// offlineGenerator stands in for the GenAI service so every AI path
// exercises its deterministic fallback.
type offlineGenerator struct{}

func (offlineGenerator) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	return nil, llm.ErrGenerationFailed
}

func main() {
	var (
		sessionID string
		verbose   bool
	)

	root := &cobra.Command{
		Use:           "journey-simulator",
		Short:         "Run loan journeys against the orchestrator engines offline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&sessionID, "session", "", "session id (defaults to a timestamped id)")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "print full JSON output for every step")

	runCmd := &cobra.Command{
		Use:   "run [message ...]",
		Short: "Run a scripted journey end to end (conversation, KYC, credit)",
		Long: `Feeds each message through a conversation turn, then submits the built-in
sample KYC documents and runs the credit assessment. With no arguments a
default qualified journey is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			messages := defaultMessages
			if len(args) > 0 {
				messages = args
			}
			return runJourney(sessionID, messages, verbose)
		},
	}

	turnCmd := &cobra.Command{
		Use:   "turn <message>",
		Short: "Run a single conversation turn and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handler := buildHandler()
			out := handler.Execute(context.Background(), &plr.Input{
				SessionID:   resolveSessionID(sessionID),
				RequestType: plr.RequestConversation,
				Text:        args[0],
			})
			return printJSON(out)
		},
	}

	root.AddCommand(runCmd, turnCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func resolveSessionID(id string) string {
	if id != "" {
		return id
	}
	return fmt.Sprintf("sim-%d", time.Now().Unix())
}

func buildHandler() *plr.Handler {
	log := logger.NewStructured("warn", "console")
	store := sessionstore.NewMemoryStore()

	extractHandler := ecd.NewHandler(&ecd.Config{
		MinLoan:   50000,
		MaxLoan:   2000000,
		MinIncome: 15000,
		MaxIncome: 1000000,
		Timeout:   10 * time.Second,
	}, log)
	advanceHandler := as.NewHandler(&as.Config{
		IncomeRatio: 3.0,
		Timeout:     5 * time.Second,
	}, log)

	handler := plr.NewHandler(
		plr.LoadConfig(),
		store,
		offlineGenerator{},
		plr.Engines{
			Extract: extractHandler,
			Advance: advanceHandler,
			Score:   ccs.NewHandler(ccs.LoadConfig(), log),
			Decide:  mld.NewHandler(mld.LoadConfig(), log),
			Verify:  vd.NewHandler(vd.LoadConfig(), log),
		},
		nil, nil, nil,
		log,
	)
	return handler
}

func runJourney(sessionID string, messages []string, verbose bool) error {
	handler := buildHandler()
	ctx := context.Background()
	id := resolveSessionID(sessionID)

	fmt.Printf("Session: %s\n\n", id)

	qualified := false
	for i, msg := range messages {
		out := handler.Execute(ctx, &plr.Input{
			SessionID:   id,
			RequestType: plr.RequestConversation,
			Text:        msg,
		})
		if out.Status != "success" {
			return fmt.Errorf("turn %d failed: %s", i+1, out.Error)
		}
		conv := out.Conversation
		fmt.Printf("[turn %d] customer: %s\n", i+1, msg)
		fmt.Printf("         stage=%s progress=%d%% qualified=%v action=%q\n",
			conv.Stage, conv.Progress, conv.Qualified, conv.RecommendedAction)
		if len(conv.ExtractedFields) > 0 {
			fmt.Printf("         extracted: %s\n", formatFields(conv.ExtractedFields))
		}
		if verbose {
			printJSON(out)
		}
		qualified = conv.Qualified
	}

	if !qualified {
		fmt.Println("\nCustomer did not qualify; stopping before KYC.")
		return nil
	}

	fmt.Println("\nSubmitting sample KYC documents...")
	kycOut := handler.Execute(ctx, &plr.Input{
		SessionID:   id,
		RequestType: plr.RequestKYCVerification,
		Documents:   sampleDocuments,
	})
	if kycOut.Status != "success" {
		return fmt.Errorf("kyc verification failed: %s", kycOut.Error)
	}
	ver := kycOut.Verification
	fmt.Printf("KYC status=%s score=%.1f\n", ver.OverallStatus, ver.VerificationScore)
	for docType, doc := range ver.Results {
		fmt.Printf("  %-14s %-13s confidence=%.0f\n", docType, doc.Status, doc.Confidence)
	}
	if verbose {
		printJSON(kycOut)
	}

	assessment := kycOut.Assessment
	if assessment == nil {
		fmt.Println("\nKYC not verified; running credit assessment directly.")
		creditOut := handler.Execute(ctx, &plr.Input{
			SessionID:   id,
			RequestType: plr.RequestCreditAssessment,
		})
		if creditOut.Status != "success" {
			return fmt.Errorf("credit assessment failed: %s", creditOut.Error)
		}
		assessment = creditOut.Assessment
	}

	fmt.Printf("\nCredit score: %d (%s risk)\n", assessment.CreditScore, assessment.RiskCategory)
	if assessment.Decision.Approved && assessment.Offer != nil {
		offer := assessment.Offer
		fmt.Printf("Decision: APPROVED, ₹%d at %.1f%% for %d months (EMI ₹%.0f)\n",
			offer.LoanAmount, offer.InterestRate, offer.TenureMonths, offer.MonthlyEMI)
	} else {
		fmt.Printf("Decision: REJECTED, %s\n", assessment.Decision.Reason)
	}

	statusOut := handler.Execute(ctx, &plr.Input{
		SessionID:   id,
		RequestType: plr.RequestWorkflowStatus,
	})
	if statusOut.Status == "success" && statusOut.WorkflowInfo != nil {
		info := statusOut.WorkflowInfo
		fmt.Printf("\nWorkflow: stage=%s turns=%d docsVerified=%d/%d next=%q\n",
			info.Stage, info.TurnCount, info.DocumentsVerified, info.DocumentsUploaded, info.NextStep)
	}
	return nil
}

func formatFields(fields map[string]string) string {
	parts := make([]string, 0, len(fields))
	for k, v := range fields {
		parts = append(parts, fmt.Sprintf("%s=%s", k, v))
	}
	return strings.Join(parts, " ")
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
