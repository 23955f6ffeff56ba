package dto

import (
	"strings"
	"time"

	"github.com/elimishatrust/studyloan/internal/app/models"
	"github.com/tidwall/gjson"
)

// NotAvailable replaces every missing, null or empty leaf value in the review projection
const NotAvailable = "N/A"

// PersonalDetails section of the review projection
type PersonalDetails struct {
	FullName   string `json:"fullName"`
	IDNumber   string `json:"idNumber"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	University string `json:"university"`
	Amount     string `json:"amount"`
}

// ParentGuardian section of the review projection
type ParentGuardian struct {
	FullName           string `json:"fullName"`
	IDNumber           string `json:"idNumber"`
	KraPin             string `json:"kraPin"`
	Phone              string `json:"phone"`
	Email              string `json:"email"`
	Relationship       string `json:"relationship"`
	ResidentialAddress string `json:"residentialAddress"`
	PlaceOfWork        string `json:"placeOfWork"`
	NumberOfChildren   string `json:"numberOfChildren"`
}

// EmploymentDetails section of the review projection
type EmploymentDetails struct {
	EmployerName    string `json:"employerName"`
	EmployerAddress string `json:"employerAddress"`
	Position        string `json:"position"`
	ContractType    string `json:"contractType"`
	YearsWorked     string `json:"yearsWorked"`
	NetPay          string `json:"netPay"`
	SupervisorName  string `json:"supervisorName"`
	Telephone       string `json:"telephone"`
}

// FinancialDetails section of the review projection
type FinancialDetails struct {
	BankName           string `json:"bankName"`
	AccountNumber      string `json:"accountNumber"`
	LoanAmount         string `json:"loanAmount"`
	MonthlyRepayment   string `json:"monthlyRepayment"`
	OutstandingBalance string `json:"outstandingBalance"`
}

// LoanDetails section of the review projection
type LoanDetails struct {
	UniversityName  string `json:"universityName"`
	StudyProgram    string `json:"studyProgram"`
	LevelOfStudy    string `json:"levelOfStudy"`
	AmountApplied   string `json:"amountApplied"`
	RepaymentPeriod string `json:"repaymentPeriod"`
	LoanSecurity    string `json:"loanSecurity"`
}

// BudgetDetails section of the review projection
type BudgetDetails struct {
	NetSalary         string `json:"netSalary"`
	BusinessIncome    string `json:"businessIncome"`
	OtherIncome       string `json:"otherIncome"`
	HouseholdExpenses string `json:"householdExpenses"`
	RentalExpenses    string `json:"rentalExpenses"`
	TransportExpenses string `json:"transportExpenses"`
	OtherExpenses     string `json:"otherExpenses"`
}

// Referee is one entry of the referees section
type Referee struct {
	Name        string `json:"name"`
	PlaceOfWork string `json:"placeOfWork"`
	Contacts    string `json:"contacts"`
	Email       string `json:"email"`
}

// Guarantor is one entry of the guarantors section
type Guarantor struct {
	Name     string `json:"name"`
	IDNumber string `json:"idNumber"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Address  string `json:"address"`
}

// ConsentForm section of the review projection
type ConsentForm struct {
	StudentName        string `json:"studentName"`
	StudentDate        string `json:"studentDate"`
	StudentSignature   string `json:"studentSignature"`
	GuardianName       string `json:"guardianName"`
	GuardianDate       string `json:"guardianDate"`
	GuardianSignature  string `json:"guardianSignature"`
	GuarantorName      string `json:"guarantorName"`
	GuarantorDate      string `json:"guarantorDate"`
	GuarantorSignature string `json:"guarantorSignature"`
	SubmittedAt        string `json:"submittedAt"`
}

// ApplicantResponse is one row of the staff review surface
type ApplicantResponse struct {
	ApplicationID     int64               `json:"applicationId"`
	UserID            int64               `json:"userId"`
	Email             string              `json:"email"`
	Name              string              `json:"name"`
	CreatedAt         time.Time           `json:"createdAt"`
	PersonalDetails   PersonalDetails     `json:"personalDetails"`
	ParentGuardian    ParentGuardian      `json:"parentGuardian"`
	EmploymentDetails EmploymentDetails   `json:"employmentDetails"`
	FinancialDetails  FinancialDetails    `json:"financialDetails"`
	LoanDetails       LoanDetails         `json:"loanDetails"`
	BudgetDetails     BudgetDetails       `json:"budgetDetails"`
	Referees          []Referee           `json:"referees"`
	Guarantors        []Guarantor         `json:"guarantors"`
	ConsentForm       ConsentForm         `json:"consentForm"`
	Submission        *SubmissionResponse `json:"submission"`
	Documents         []DocumentResponse  `json:"documents"`
}

// ApplicantListResponse is the staff listing
type ApplicantListResponse struct {
	Applicants []ApplicantResponse `json:"applicants"`
	Total      int                 `json:"total"`
}

// NewApplicantListResponse projects every applicant in order
func NewApplicantListResponse(applicants []models.Applicant) ApplicantListResponse {
	out := ApplicantListResponse{Applicants: make([]ApplicantResponse, 0, len(applicants)), Total: len(applicants)}
	for i := range applicants {
		out.Applicants = append(out.Applicants, NewApplicantResponse(&applicants[i]))
	}
	return out
}

// NewApplicantResponse flattens an applicant field by field
func NewApplicantResponse(a *models.Applicant) ApplicantResponse {
	d := a.Application.Details
	section := func(name string) gjson.Result { return d.Lookup(name) }

	p := section(models.SectionPersonal)
	pg := section(models.SectionParent)
	e := section(models.SectionEmployment)
	f := section(models.SectionFinancial)
	l := section(models.SectionLoan)
	b := section(models.SectionBudget)
	c := section(models.SectionConsent)

	docs := NewDocumentListResponse(a.Application.ID, a.Documents).Documents

	return ApplicantResponse{
		ApplicationID: a.Application.ID,
		UserID:        a.User.ID,
		Email:         a.User.Email,
		Name:          orNA(a.Application.Name),
		CreatedAt:     a.Application.CreatedAt,
		PersonalDetails: PersonalDetails{
			FullName:   leaf(p, "fullName"),
			IDNumber:   leaf(p, "idNumber"),
			Phone:      leaf(p, "phone"),
			Email:      leaf(p, "email"),
			University: leaf(p, "university"),
			Amount:     leaf(p, "amount"),
		},
		ParentGuardian: ParentGuardian{
			FullName:           leaf(pg, "fullName"),
			IDNumber:           leaf(pg, "idNumber"),
			KraPin:             leaf(pg, "kraPin"),
			Phone:              leaf(pg, "phone"),
			Email:              leaf(pg, "email"),
			Relationship:       leaf(pg, "relationship"),
			ResidentialAddress: leaf(pg, "residentialAddress"),
			PlaceOfWork:        leaf(pg, "placeOfWork"),
			NumberOfChildren:   leaf(pg, "numberOfChildren"),
		},
		EmploymentDetails: EmploymentDetails{
			EmployerName:    leaf(e, "employerName"),
			EmployerAddress: leaf(e, "employerAddress"),
			Position:        leaf(e, "position"),
			ContractType:    leaf(e, "contractType"),
			YearsWorked:     leaf(e, "yearsWorked"),
			NetPay:          leaf(e, "netPay"),
			SupervisorName:  leaf(e, "supervisorName"),
			Telephone:       leaf(e, "telephone"),
		},
		FinancialDetails: FinancialDetails{
			BankName:           leaf(f, "bankName"),
			AccountNumber:      leaf(f, "accountNumber"),
			LoanAmount:         leaf(f, "loanAmount"),
			MonthlyRepayment:   leaf(f, "monthlyRepayment"),
			OutstandingBalance: leaf(f, "outstandingBalance"),
		},
		LoanDetails: LoanDetails{
			UniversityName:  leaf(l, "universityName"),
			StudyProgram:    leaf(l, "studyProgram"),
			LevelOfStudy:    leaf(l, "levelOfStudy"),
			AmountApplied:   leaf(l, "amountApplied"),
			RepaymentPeriod: leaf(l, "repaymentPeriod"),
			LoanSecurity:    leaf(l, "loanSecurity"),
		},
		BudgetDetails: BudgetDetails{
			NetSalary:         leaf(b, "netSalary"),
			BusinessIncome:    leaf(b, "businessIncome"),
			OtherIncome:       leaf(b, "otherIncome"),
			HouseholdExpenses: leaf(b, "householdExpenses"),
			RentalExpenses:    leaf(b, "rentalExpenses"),
			TransportExpenses: leaf(b, "transportExpenses"),
			OtherExpenses:     leaf(b, "otherExpenses"),
		},
		Referees:   referees(section(models.SectionReferees)),
		Guarantors: guarantors(section(models.SectionGuarantors)),
		ConsentForm: ConsentForm{
			StudentName:        leaf(c, "studentName"),
			StudentDate:        leaf(c, "studentDate"),
			StudentSignature:   leaf(c, "studentSignature"),
			GuardianName:       leaf(c, "guardianName"),
			GuardianDate:       leaf(c, "guardianDate"),
			GuardianSignature:  leaf(c, "guardianSignature"),
			GuarantorName:      leaf(c, "guarantorName"),
			GuarantorDate:      leaf(c, "guarantorDate"),
			GuarantorSignature: leaf(c, "guarantorSignature"),
			SubmittedAt:        leaf(c, models.ConsentSubmittedAt),
		},
		Submission: NewSubmissionResponse(a.Submission),
		Documents:  docs,
	}
}

// referees accepts either a list or an object of referee objects
func referees(v gjson.Result) []Referee {
	out := []Referee{}
	entries(v, func(r gjson.Result) {
		out = append(out, Referee{
			Name:        leaf(r, "name"),
			PlaceOfWork: leaf(r, "placeOfWork"),
			Contacts:    leaf(r, "contacts"),
			Email:       leaf(r, "email"),
		})
	})
	return out
}

func guarantors(v gjson.Result) []Guarantor {
	out := []Guarantor{}
	entries(v, func(g gjson.Result) {
		out = append(out, Guarantor{
			Name:     leaf(g, "name"),
			IDNumber: leaf(g, "idNumber"),
			Phone:    leaf(g, "phone"),
			Email:    leaf(g, "email"),
			Address:  leaf(g, "address"),
		})
	})
	return out
}

func entries(v gjson.Result, fn func(gjson.Result)) {
	if !v.IsArray() && !v.IsObject() {
		return
	}
	v.ForEach(func(_, value gjson.Result) bool {
		if value.IsObject() {
			fn(value)
		}
		return true
	})
}

// leaf renders a scalar field of obj, or NotAvailable
func leaf(obj gjson.Result, key string) string {
	if !obj.IsObject() {
		return NotAvailable
	}
	v := obj.Get(key)
	switch v.Type {
	case gjson.Null:
		return NotAvailable
	case gjson.String:
		return orNA(v.Str)
	default:
		return v.Raw
	}
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotAvailable
	}
	return s
}
