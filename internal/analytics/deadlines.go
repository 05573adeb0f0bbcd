package analytics

import (
	"fmt"
	"time"

	"github.com/dvloznov/finance-analytics/internal/domain"
)

// TaxDeadlines returns the fixed calendar deadlines of a tax year that fall
// strictly after now, in date order.
func TaxDeadlines(year int, now time.Time) []domain.TaxDeadline {
	all := []domain.TaxDeadline{
		quarterly(year, time.April, 15, 1),
		quarterly(year, time.June, 15, 2),
		quarterly(year, time.September, 15, 3),
		quarterly(year+1, time.January, 15, 4),
		{
			Type:        domain.DeadlineAnnualFiling,
			Date:        date(year+1, time.April, 15),
			Description: fmt.Sprintf("Annual tax return for %d due", year),
			Priority:    domain.PriorityHigh,
		},
	}

	upcoming := make([]domain.TaxDeadline, 0, len(all))
	for _, d := range all {
		if d.Date.After(now) {
			upcoming = append(upcoming, d)
		}
	}
	return upcoming
}

// AnnualFilingDate is the filing deadline of a tax year.
func AnnualFilingDate(year int) time.Time {
	return date(year+1, time.April, 15)
}

// DaysUntil returns the number of whole days from now until t, rounded up.
func DaysUntil(now, t time.Time) int {
	d := t.Sub(now)
	if d <= 0 {
		return 0
	}
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	return days
}

func quarterly(year int, month time.Month, day, quarter int) domain.TaxDeadline {
	return domain.TaxDeadline{
		Type:        domain.DeadlineQuarterlyPayment,
		Date:        date(year, month, day),
		Description: fmt.Sprintf("Q%d estimated tax payment due", quarter),
		Priority:    domain.PriorityMedium,
	}
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
