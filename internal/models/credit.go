// internal/models/credit.go
package models

// RiskCategory buckets a customer by credit risk. The category drives the
// interest rate and the maximum loan-to-value ratio of any offer.
type RiskCategory string

const (
	RiskLow    RiskCategory = "LOW"
	RiskMedium RiskCategory = "MEDIUM"
	RiskHigh   RiskCategory = "HIGH"
)

// RiskParameters are the lending terms attached to a risk category.
type RiskParameters struct {
	MinScore     int     `json:"minScore"`
	MaxLTV       float64 `json:"maxLtv"`
	InterestRate float64 `json:"interestRate"` // annual, percent
}

// RiskCategoryTable is the fixed category → terms lookup.
var RiskCategoryTable = map[RiskCategory]RiskParameters{
	RiskLow:    {MinScore: 750, MaxLTV: 0.80, InterestRate: 10.5},
	RiskMedium: {MinScore: 650, MaxLTV: 0.70, InterestRate: 12.5},
	RiskHigh:   {MinScore: 600, MaxLTV: 0.60, InterestRate: 15.5},
}

// LoanDecision is the approval outcome with its reason. For rejections on
// the income-multiple rule, MaxEligibleAmount carries the 3x-annual cap.
type LoanDecision struct {
	Approved          bool    `json:"approved"`
	Reason            string  `json:"reason"`
	Confidence        float64 `json:"confidence,omitempty"`
	MaxEligibleAmount int     `json:"maxEligibleAmount,omitempty"`
	MinCreditScore    int     `json:"minCreditScoreRequired,omitempty"`
	MinIncomeRequired int     `json:"minIncomeRequired,omitempty"`
}

// LoanOffer is a repayment offer derived deterministically from the
// assessment inputs. Immutable once computed.
type LoanOffer struct {
	LoanAmount     int          `json:"loanAmount"`
	InterestRate   float64      `json:"interestRate"`
	TenureMonths   int          `json:"tenureMonths"`
	MonthlyEMI     float64      `json:"monthlyEmi"`
	TotalPayable   float64      `json:"totalPayable"`
	ProcessingFee  float64      `json:"processingFee"`
	LoanPurpose    string       `json:"loanPurpose"`
	RiskCategory   RiskCategory `json:"riskCategory"`
	OfferValidDays int          `json:"offerValidDays"`
	Benefits       []string     `json:"specialBenefits"`
}

// CreditAssessment is a fresh, idempotent computation over a profile
// snapshot; it is never updated incrementally.
type CreditAssessment struct {
	CreditScore  int          `json:"creditScore"`
	RiskCategory RiskCategory `json:"riskCategory"`
	Decision     LoanDecision `json:"loanDecision"`
	Offer        *LoanOffer   `json:"loanOffer,omitempty"`
}
