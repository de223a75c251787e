package utils

import (
	"math"
	"time"

	"toolrental-backend/internal/domain"
)

// clampFine caps money at the int32 column range so large settings never wrap negative.
func clampFine(v int64) int32 {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(v)
}

// CalculateLateFine charges the tool's daily rate for every whole day the
// return is past the expected date. Early and on-time returns cost nothing.
func CalculateLateFine(expected, actual time.Time, dailyRate int32) int32 {
	days := DaysBetween(expected, actual)
	if days <= 0 {
		return 0
	}
	return clampFine(int64(days) * int64(dailyRate))
}

// CalculateDamageFine charges the replacement cost for irreparable returns.
// Repairable damage is settled later through a repair payment.
func CalculateDamageFine(tool *domain.Tool, damage domain.DamageClassification) int32 {
	if damage == domain.DamageIrreparable {
		return tool.RepoCost
	}
	return 0
}

// CalculateReturnFine is the late fine plus the damage fine for one line item,
// saturating at math.MaxInt32.
func CalculateReturnFine(loan *domain.Loan, tool *domain.Tool, damage domain.DamageClassification, returnedOn time.Time) int32 {
	late := int64(CalculateLateFine(loan.ReturnDate, returnedOn, tool.LateFineDaily))
	return clampFine(late + int64(CalculateDamageFine(tool, damage)))
}
