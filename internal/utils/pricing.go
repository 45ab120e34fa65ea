package utils

import (
	"math"
	"time"

	"playpark-backend/internal/domain"
)

// Tiered session pricing. Durations are quantized in minutes; the four
// canonical tiers (15/30/45/60) use fixed multipliers over the base
// 15-minute rate. Anything in between rounds up to the next tier.
const (
	minDurationMinutes  = 1
	maxDurationMinutes  = 240
	minExtensionMinutes = 1
	maxExtensionMinutes = 180

	// First minutes of a session during which cancellation refunds the
	// full amount.
	GraceWindowMinutes = 3

	// Minimum refund fraction once the grace window has passed.
	refundFloorFraction = 0.10
)

var durationTiers = []struct {
	maxMinutes int32
	multiplier float64
}{
	{15, 1.0},
	{30, 1.8},
	{45, 2.5},
	{60, 3.0},
}

// PriceFor computes the total cost for renting a game at the given base
// 15-minute rate for durationMinutes. Beyond 60 minutes, full hours are
// charged at the 60-minute tier and the remainder per started quarter
// hour at half the base rate.
func PriceFor(baseRateCents int64, durationMinutes int32) (int64, error) {
	if durationMinutes < minDurationMinutes || durationMinutes > maxDurationMinutes {
		return 0, domain.ErrInvalidDuration
	}

	if durationMinutes <= 60 {
		for _, tier := range durationTiers {
			if durationMinutes <= tier.maxMinutes {
				return roundCents(float64(baseRateCents) * tier.multiplier), nil
			}
		}
	}

	hours := durationMinutes / 60
	remainder := durationMinutes % 60
	quarters := (remainder + 14) / 15

	total := 3.0*float64(baseRateCents)*float64(hours) +
		0.5*float64(baseRateCents)*float64(quarters)
	return roundCents(total), nil
}

// RefundFor computes the refund for cancelling an active session at
// cancelTime. Within the grace window the full amount is returned;
// afterwards the refund is pro-rated over the planned duration with a
// 10% floor, and never exceeds the amount paid.
func RefundFor(session *domain.RentalSession, cancelTime time.Time) int64 {
	total := session.TotalAmountCents
	if total <= 0 {
		return 0
	}

	elapsed := int64(cancelTime.Sub(session.StartedAt) / time.Minute)
	if elapsed <= GraceWindowMinutes {
		return total
	}

	planned := int64(session.PlannedDurationMinutes)
	if planned <= 0 {
		return 0
	}

	refund := roundCents(float64(total) * (1.0 - float64(elapsed)/float64(planned)))
	floor := roundCents(float64(total) * refundFloorFraction)
	if refund < floor {
		refund = floor
	}
	if refund > total {
		refund = total
	}
	return refund
}

// ExtensionCost computes the surcharge for extending an active session
// by extraMinutes: one base 15-minute rate per started quarter hour.
func ExtensionCost(baseRateCents int64, extraMinutes int32) (int64, error) {
	if extraMinutes < minExtensionMinutes || extraMinutes > maxExtensionMinutes {
		return 0, domain.ErrInvalidExtension
	}
	quarters := int64((extraMinutes + 14) / 15)
	return quarters * baseRateCents, nil
}

// roundCents rounds to the nearest whole currency unit.
func roundCents(v float64) int64 {
	return int64(math.Round(v))
}
