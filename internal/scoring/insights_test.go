package scoring

import (
	"strings"
	"testing"
	"time"

	"github.com/spec-kit/recovery-service/internal/domain"
)

func bookCase(amount float64, days int, score float64) domain.Case {
	return domain.Case{
		OriginalAmount: amount,
		CurrentAmount:  amount,
		DaysDelinquent: days,
		RecoveryScore:  score,
	}
}

func hasPattern(r PortfolioReport, patternType string) bool {
	for _, p := range r.Patterns {
		if p.Type == patternType {
			return true
		}
	}
	return false
}

func TestAnalyzePortfolioEmptyBook(t *testing.T) {
	report := AnalyzePortfolio(nil)
	if report.CasesAnalyzed != 0 || report.PatternsDetected != 0 {
		t.Fatalf("empty book should detect nothing, got %+v", report)
	}
	if report.Summary != "No significant patterns detected in current data." {
		t.Fatalf("unexpected summary %q", report.Summary)
	}
}

func TestAnalyzePortfolioUniformBookIsClean(t *testing.T) {
	book := []domain.Case{
		bookCase(5000, 10, 50),
		bookCase(5000, 10, 50),
		bookCase(5000, 10, 50),
	}
	report := AnalyzePortfolio(book)
	if report.CasesAnalyzed != 3 {
		t.Fatalf("CasesAnalyzed = %d, want 3", report.CasesAnalyzed)
	}
	if report.PatternsDetected != 0 || len(report.Insights) != 0 {
		t.Fatalf("uniform book should be clean, got %+v", report)
	}
}

func TestAnalyzePortfolioAmountVariability(t *testing.T) {
	book := []domain.Case{
		bookCase(1000, 10, 50),
		bookCase(100000, 10, 50),
	}
	report := AnalyzePortfolio(book)
	if !hasPattern(report, "amount_variability") {
		t.Fatalf("expected amount_variability pattern, got %+v", report.Patterns)
	}
}

func TestAnalyzePortfolioAgingInsight(t *testing.T) {
	book := []domain.Case{
		bookCase(5000, 120, 50),
		bookCase(5000, 120, 50),
	}
	report := AnalyzePortfolio(book)
	if len(report.Insights) != 1 || report.Insights[0].Type != "aging_portfolio" {
		t.Fatalf("expected aging_portfolio insight, got %+v", report.Insights)
	}
	if report.Insights[0].Description != "Average delinquency is 120 days" {
		t.Fatalf("unexpected description %q", report.Insights[0].Description)
	}
	if !strings.Contains(report.Summary, "Key insight:") {
		t.Fatalf("summary should surface the insight, got %q", report.Summary)
	}
}

func TestAnalyzePortfolioRecoveryOptimism(t *testing.T) {
	book := []domain.Case{
		bookCase(5000, 10, 85),
		bookCase(5000, 10, 85),
		bookCase(5000, 10, 85),
		bookCase(5000, 10, 20),
	}
	report := AnalyzePortfolio(book)
	if !hasPattern(report, "recovery_optimism") {
		t.Fatalf("expected recovery_optimism pattern, got %+v", report.Patterns)
	}
}

func TestAnalyzePortfolioDCADisparity(t *testing.T) {
	strong, weak := "dca-strong", "dca-weak"
	high := bookCase(5000, 10, 80)
	high.DCAID = &strong
	low := bookCase(5000, 10, 30)
	low.DCAID = &weak

	report := AnalyzePortfolio([]domain.Case{high, low})
	if !hasPattern(report, "dca_performance_disparity") {
		t.Fatalf("expected dca_performance_disparity pattern, got %+v", report.Patterns)
	}
	if !strings.Contains(report.Summary, "high-severity") {
		t.Fatalf("summary should flag high severity, got %q", report.Summary)
	}
}

func TestAnalyzePortfolioSingleDCANoDisparity(t *testing.T) {
	only := "dca-1"
	a := bookCase(5000, 10, 80)
	a.DCAID = &only
	b := bookCase(5000, 10, 80)
	b.DCAID = &only

	report := AnalyzePortfolio([]domain.Case{a, b})
	if hasPattern(report, "dca_performance_disparity") {
		t.Fatalf("one agency cannot show disparity, got %+v", report.Patterns)
	}
}

func TestAnalyzePortfolioSeasonalIntake(t *testing.T) {
	peak := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	quiet := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)

	var book []domain.Case
	for i := 0; i < 10; i++ {
		c := bookCase(5000, 10, 50)
		c.CreatedAt = peak
		book = append(book, c)
	}
	lone := bookCase(5000, 10, 50)
	lone.CreatedAt = quiet
	book = append(book, lone)

	report := AnalyzePortfolio(book)
	if !hasPattern(report, "seasonal_intake") {
		t.Fatalf("expected seasonal_intake pattern, got %+v", report.Patterns)
	}
}

func TestMeanStd(t *testing.T) {
	mean, std := meanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if mean != 5 {
		t.Fatalf("mean = %v, want 5", mean)
	}
	if std < 2.13 || std > 2.14 {
		t.Fatalf("sample std = %v, want ~2.138", std)
	}
	if _, single := meanStd([]float64{3}); single != 0 {
		t.Fatalf("single value std = %v, want 0", single)
	}
}
