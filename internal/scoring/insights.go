package scoring

import (
	"fmt"
	"math"

	"github.com/spec-kit/recovery-service/internal/domain"
)

// PatternSeverity grades a detected portfolio pattern.
type PatternSeverity string

const (
	SeverityLow    PatternSeverity = "low"
	SeverityMedium PatternSeverity = "medium"
	SeverityHigh   PatternSeverity = "high"
)

// PortfolioPattern is one detected distribution pattern with a suggested
// operator action.
type PortfolioPattern struct {
	Type        string
	Description string
	Severity    PatternSeverity
	Action      string
}

// PortfolioInsight is a portfolio-level observation without a severity.
type PortfolioInsight struct {
	Type           string
	Description    string
	Impact         string
	Recommendation string
}

// PortfolioReport is the output of one analysis pass over the case book.
type PortfolioReport struct {
	CasesAnalyzed    int
	PatternsDetected int
	Patterns         []PortfolioPattern
	Insights         []PortfolioInsight
	Summary          string
}

// AnalyzePortfolio scans a case book for trends and anomalies: amount
// variability, portfolio aging, recovery-score skew, per-agency disparity
// and uneven intake. Pure heuristics over means and deviations, no model.
func AnalyzePortfolio(cases []domain.Case) PortfolioReport {
	report := PortfolioReport{CasesAnalyzed: len(cases)}
	if len(cases) == 0 {
		report.Summary = "No significant patterns detected in current data."
		return report
	}

	amounts := make([]float64, 0, len(cases))
	scores := make([]float64, 0, len(cases))
	var delinquencySum float64
	highRecovery, lowRecovery := 0, 0
	dcaScores := map[string][]float64{}
	weekCounts := map[string]int{}

	for i := range cases {
		c := &cases[i]
		amounts = append(amounts, c.OriginalAmount)
		scores = append(scores, c.RecoveryScore)
		delinquencySum += float64(c.DaysDelinquent)
		if c.RecoveryScore > 70 {
			highRecovery++
		}
		if c.RecoveryScore < 30 {
			lowRecovery++
		}
		if c.DCAID != nil {
			dcaScores[*c.DCAID] = append(dcaScores[*c.DCAID], c.RecoveryScore)
		}
		if !c.CreatedAt.IsZero() {
			year, week := c.CreatedAt.ISOWeek()
			weekCounts[fmt.Sprintf("%d-%02d", year, week)]++
		}
	}

	meanAmount, stdAmount := meanStd(amounts)
	if stdAmount > meanAmount*0.5 {
		report.Patterns = append(report.Patterns, PortfolioPattern{
			Type:        "amount_variability",
			Description: "High variability in debt amounts",
			Severity:    SeverityMedium,
			Action:      "Segment cases by amount brackets",
		})
	}

	avgDelinquency := delinquencySum / float64(len(cases))
	if avgDelinquency > 90 {
		report.Insights = append(report.Insights, PortfolioInsight{
			Type:           "aging_portfolio",
			Description:    fmt.Sprintf("Average delinquency is %.0f days", avgDelinquency),
			Impact:         "Reduces overall recovery rate",
			Recommendation: "Focus on newer delinquencies first",
		})
	}

	if highRecovery > lowRecovery*2 {
		report.Patterns = append(report.Patterns, PortfolioPattern{
			Type:        "recovery_optimism",
			Description: fmt.Sprintf("More high-recovery cases (%d) than low (%d)", highRecovery, lowRecovery),
			Severity:    SeverityLow,
			Action:      "Allocate resources to capitalize on high-probability cases",
		})
	}

	if len(dcaScores) >= 2 {
		means := make([]float64, 0, len(dcaScores))
		for _, s := range dcaScores {
			m, _ := meanStd(s)
			means = append(means, m)
		}
		if _, spread := meanStd(means); spread > 15 {
			report.Patterns = append(report.Patterns, PortfolioPattern{
				Type:        "dca_performance_disparity",
				Description: "Significant variation in DCA recovery rates",
				Severity:    SeverityHigh,
				Action:      "Review allocation strategy and DCA training",
			})
		}
	}

	if len(weekCounts) >= 2 {
		counts := make([]float64, 0, len(weekCounts))
		for _, n := range weekCounts {
			counts = append(counts, float64(n))
		}
		mean, std := meanStd(counts)
		if std > mean*0.3 {
			report.Patterns = append(report.Patterns, PortfolioPattern{
				Type:        "seasonal_intake",
				Description: "Uneven case intake across weeks",
				Severity:    SeverityMedium,
				Action:      "Plan resource allocation for peak periods",
			})
		}
	}

	report.PatternsDetected = len(report.Patterns)
	report.Summary = summarize(report.Patterns, report.Insights)
	return report
}

func summarize(patterns []PortfolioPattern, insights []PortfolioInsight) string {
	if len(patterns) == 0 && len(insights) == 0 {
		return "No significant patterns detected in current data."
	}
	high, medium := 0, 0
	for _, p := range patterns {
		switch p.Severity {
		case SeverityHigh:
			high++
		case SeverityMedium:
			medium++
		}
	}
	summary := fmt.Sprintf("Detected %d patterns and %d insights. ", len(patterns), len(insights))
	if high > 0 {
		summary += fmt.Sprintf("%d high-severity patterns require immediate attention. ", high)
	}
	if medium > 0 {
		summary += fmt.Sprintf("%d medium-severity patterns suggest optimization opportunities. ", medium)
	}
	if len(insights) > 0 {
		summary += "Key insight: " + insights[0].Description
	}
	return summary
}

// meanStd returns the mean and sample standard deviation. Std is zero for
// fewer than two values.
func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	if len(values) < 2 {
		return mean, 0
	}
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sq / float64(len(values)-1))
}
