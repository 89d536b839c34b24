package scoring

import (
	"math"

	"github.com/spec-kit/recovery-service/internal/domain"
)

// Defaults applied when the intake record omits debtor profile fields.
const (
	defaultCreditScore      = 650.0
	defaultEmploymentMonths = 24.0
	defaultResponseRate     = 0.5

	creditScoreMax      = 850.0
	employmentMonthsCap = 120.0
	delinquencyCapDays  = 180.0
	previousPaymentsCap = 10.0
)

// debtTypePropensity maps debt categories to a static recovery-propensity
// constant. Unknown categories fall back to the OTHER value.
var debtTypePropensity = map[domain.DebtType]float64{
	domain.DebtTypeMedical:      0.7,
	domain.DebtTypeCreditCard:   0.6,
	domain.DebtTypePersonalLoan: 0.5,
	domain.DebtTypeMortgage:     0.4,
	domain.DebtTypeAutoLoan:     0.3,
	domain.DebtTypeOther:        0.5,
}

// CaseInput carries the raw case fields scoring operates on. Pointer fields
// are optional debtor-profile data that default when absent.
type CaseInput struct {
	OriginalAmount   float64
	DaysDelinquent   int
	DebtType         domain.DebtType
	CreditScore      *float64
	EmploymentMonths *float64
	PreviousPayments *float64
	ResponseRate     *float64
}

// InputFromCase builds a CaseInput from a persisted case record.
func InputFromCase(c *domain.Case) CaseInput {
	return CaseInput{
		OriginalAmount: c.OriginalAmount,
		DaysDelinquent: c.DaysDelinquent,
		DebtType:       c.DebtType,
	}
}

// FeatureVector is the normalized numeric representation of a case. It is
// derived per call and never persisted.
type FeatureVector struct {
	AmountLog           float64
	DelinquencySeverity float64
	CreditScoreNorm     float64
	EmploymentStability float64
	PreviousPayments    float64
	ResponseRate        float64
	DebtTypeScore       float64
	AmountXDelinquency  float64
	CreditXEmployment   float64
}

// featureNames orders the vector for model training and inference. The
// order must stay in sync with Values.
var featureNames = []string{
	"amount_log",
	"delinquency_severity",
	"credit_score_norm",
	"employment_stability",
	"previous_payments",
	"response_rate",
	"debt_type_score",
	"amount_x_delinquency",
	"credit_x_employment",
}

// Values returns the vector in featureNames order.
func (f FeatureVector) Values() []float64 {
	return []float64{
		f.AmountLog,
		f.DelinquencySeverity,
		f.CreditScoreNorm,
		f.EmploymentStability,
		f.PreviousPayments,
		f.ResponseRate,
		f.DebtTypeScore,
		f.AmountXDelinquency,
		f.CreditXEmployment,
	}
}

// ExtractFeatures turns a raw case input into a normalized feature vector.
// It is pure and total: missing or nonsensical inputs default instead of
// failing.
func ExtractFeatures(in CaseInput) FeatureVector {
	amount := math.Max(in.OriginalAmount, 0)
	days := float64(in.DaysDelinquent)
	if days < 0 {
		days = 0
	}

	credit := defaultCreditScore
	if in.CreditScore != nil {
		credit = clip(*in.CreditScore, 0, creditScoreMax)
	}
	employment := defaultEmploymentMonths
	if in.EmploymentMonths != nil {
		employment = clip(*in.EmploymentMonths, 0, employmentMonthsCap)
	}
	payments := 0.0
	if in.PreviousPayments != nil {
		payments = clip(*in.PreviousPayments, 0, previousPaymentsCap)
	}
	response := defaultResponseRate
	if in.ResponseRate != nil {
		response = clip(*in.ResponseRate, 0, 1)
	}

	propensity, ok := debtTypePropensity[in.DebtType]
	if !ok {
		propensity = debtTypePropensity[domain.DebtTypeOther]
	}

	f := FeatureVector{
		AmountLog:           math.Log1p(amount),
		DelinquencySeverity: math.Min(days/delinquencyCapDays, 1.0),
		CreditScoreNorm:     credit / creditScoreMax,
		EmploymentStability: employment / employmentMonthsCap,
		PreviousPayments:    payments / previousPaymentsCap,
		ResponseRate:        response,
		DebtTypeScore:       propensity,
	}
	f.AmountXDelinquency = f.AmountLog * f.DelinquencySeverity
	f.CreditXEmployment = f.CreditScoreNorm * f.EmploymentStability
	return f
}

func clip(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
