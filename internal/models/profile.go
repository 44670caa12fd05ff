// internal/models/profile.go
package models

// CustomerProfile is the structured customer data accumulated across a
// session's turns and document uploads. Fields are optional: zero values
// mean "not yet extracted". Later extractions overwrite earlier ones.
type CustomerProfile struct {
	PersonalInfo   PersonalInfo   `json:"personalInfo"`
	EmploymentInfo EmploymentInfo `json:"employmentInfo"`
	LoanDetails    LoanDetails    `json:"loanDetails"`
	FinancialInfo  FinancialInfo  `json:"financialInfo"`
	Preferences    Preferences    `json:"preferences"`
}

type PersonalInfo struct {
	Name          string `json:"name,omitempty"`
	Age           int    `json:"age,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
	Address       string `json:"address,omitempty"`
	Gender        string `json:"gender,omitempty"`
	FatherName    string `json:"fatherName,omitempty"`
	DateOfBirth   string `json:"dateOfBirth,omitempty"`
	MaritalStatus string `json:"maritalStatus,omitempty"`
	PANNumber     string `json:"panNumber,omitempty"`
	AadhaarNumber string `json:"aadhaarNumber,omitempty"`
}

type EmploymentInfo struct {
	Employer       string `json:"employer,omitempty"`
	Designation    string `json:"designation,omitempty"`
	EmployeeID     string `json:"employeeId,omitempty"`
	ExperienceYrs  int    `json:"experienceYears,omitempty"`
	MonthlyIncome  int    `json:"monthlyIncome,omitempty"`
	EmploymentType string `json:"employmentType,omitempty"`
}

type LoanDetails struct {
	LoanAmount    int    `json:"loanAmount,omitempty"`
	LoanPurpose   string `json:"loanPurpose,omitempty"`
	TenureMonths  int    `json:"tenureMonths,omitempty"`
	Urgency       string `json:"urgency,omitempty"`
	ExistingLoans string `json:"existingLoans,omitempty"`
}

type FinancialInfo struct {
	GrossSalary     int    `json:"grossSalary,omitempty"`
	NetSalary       int    `json:"netSalary,omitempty"`
	BankAccount     string `json:"bankAccount,omitempty"`
	MonthlyExpenses int    `json:"monthlyExpenses,omitempty"`
	OtherIncome     int    `json:"otherIncome,omitempty"`
}

type Preferences struct {
	PreferredEMI    int    `json:"preferredEmi,omitempty"`
	PreferredTenure int    `json:"preferredTenure,omitempty"`
	Concerns        string `json:"concerns,omitempty"`
	Questions       string `json:"questions,omitempty"`
}

// Merge overlays the non-zero fields of other onto p (last write wins).
func (p *CustomerProfile) Merge(other *CustomerProfile) {
	if other == nil {
		return
	}
	mergePersonal(&p.PersonalInfo, &other.PersonalInfo)
	mergeEmployment(&p.EmploymentInfo, &other.EmploymentInfo)
	mergeLoan(&p.LoanDetails, &other.LoanDetails)
	mergeFinancial(&p.FinancialInfo, &other.FinancialInfo)
	mergePreferences(&p.Preferences, &other.Preferences)
}

func mergePersonal(dst, src *PersonalInfo) {
	if src.Name != "" {
		dst.Name = src.Name
	}
	if src.Age != 0 {
		dst.Age = src.Age
	}
	if src.Phone != "" {
		dst.Phone = src.Phone
	}
	if src.Email != "" {
		dst.Email = src.Email
	}
	if src.Address != "" {
		dst.Address = src.Address
	}
	if src.Gender != "" {
		dst.Gender = src.Gender
	}
	if src.FatherName != "" {
		dst.FatherName = src.FatherName
	}
	if src.DateOfBirth != "" {
		dst.DateOfBirth = src.DateOfBirth
	}
	if src.MaritalStatus != "" {
		dst.MaritalStatus = src.MaritalStatus
	}
	if src.PANNumber != "" {
		dst.PANNumber = src.PANNumber
	}
	if src.AadhaarNumber != "" {
		dst.AadhaarNumber = src.AadhaarNumber
	}
}

func mergeEmployment(dst, src *EmploymentInfo) {
	if src.Employer != "" {
		dst.Employer = src.Employer
	}
	if src.Designation != "" {
		dst.Designation = src.Designation
	}
	if src.EmployeeID != "" {
		dst.EmployeeID = src.EmployeeID
	}
	if src.ExperienceYrs != 0 {
		dst.ExperienceYrs = src.ExperienceYrs
	}
	if src.MonthlyIncome != 0 {
		dst.MonthlyIncome = src.MonthlyIncome
	}
	if src.EmploymentType != "" {
		dst.EmploymentType = src.EmploymentType
	}
}

func mergeLoan(dst, src *LoanDetails) {
	if src.LoanAmount != 0 {
		dst.LoanAmount = src.LoanAmount
	}
	if src.LoanPurpose != "" {
		dst.LoanPurpose = src.LoanPurpose
	}
	if src.TenureMonths != 0 {
		dst.TenureMonths = src.TenureMonths
	}
	if src.Urgency != "" {
		dst.Urgency = src.Urgency
	}
	if src.ExistingLoans != "" {
		dst.ExistingLoans = src.ExistingLoans
	}
}

func mergeFinancial(dst, src *FinancialInfo) {
	if src.GrossSalary != 0 {
		dst.GrossSalary = src.GrossSalary
	}
	if src.NetSalary != 0 {
		dst.NetSalary = src.NetSalary
	}
	if src.BankAccount != "" {
		dst.BankAccount = src.BankAccount
	}
	if src.MonthlyExpenses != 0 {
		dst.MonthlyExpenses = src.MonthlyExpenses
	}
	if src.OtherIncome != 0 {
		dst.OtherIncome = src.OtherIncome
	}
}

func mergePreferences(dst, src *Preferences) {
	if src.PreferredEMI != 0 {
		dst.PreferredEMI = src.PreferredEMI
	}
	if src.PreferredTenure != 0 {
		dst.PreferredTenure = src.PreferredTenure
	}
	if src.Concerns != "" {
		dst.Concerns = src.Concerns
	}
	if src.Questions != "" {
		dst.Questions = src.Questions
	}
}
