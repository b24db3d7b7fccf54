package search

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	croreUnits = 10_000_000
	lakhUnits  = 100_000
)

// FormatAmount renders a whole-unit INR amount in Cr/L shorthand, rounded to
// one decimal with a trailing ".0" trimmed: 10,000,000 -> "1Cr",
// 8,800,000 -> "88L", 13,000,000 -> "1.3Cr".
func FormatAmount(amount int64) string {
	if amount >= croreUnits {
		return trimZero(float64(amount)/croreUnits) + "Cr"
	}
	return trimZero(float64(amount)/lakhUnits) + "L"
}

func trimZero(v float64) string {
	s := strconv.FormatFloat(v, 'f', 1, 64)
	return strings.TrimSuffix(s, ".0")
}

// ExplainRelaxation maps a relaxation multiplier to its fixed user-facing
// message with the before/after budgets. The 1.0 step means no relaxation was
// needed.
func ExplainRelaxation(multiplier float64, budget int64) string {
	widened := int64(float64(budget) * multiplier)

	switch multiplier {
	case 1.0:
		return fmt.Sprintf("Found options within your budget of %s.", FormatAmount(budget))
	case 1.1:
		return fmt.Sprintf("No exact fit within %s; widened your budget by 10%% to %s.",
			FormatAmount(budget), FormatAmount(widened))
	case 1.2:
		return fmt.Sprintf("No exact fit within %s; widened your budget by 20%% to %s.",
			FormatAmount(budget), FormatAmount(widened))
	case 1.3:
		return fmt.Sprintf("No exact fit within %s; widened your budget by 30%% to %s.",
			FormatAmount(budget), FormatAmount(widened))
	default:
		return ""
	}
}
