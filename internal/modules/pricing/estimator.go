// README: Fare estimator turns a normalised trip into an integer price.
package pricing

import "math"

// EstimateFare evaluates a base (non-derived) rule for the trip.
func EstimateFare(trip Trip, rule PricingRule) int64 {
	raw := rule.BaseFare +
		trip.DistanceKm*rule.PerKmRate +
		float64(trip.DurationMin)*rule.PerMinuteRate
	return int64(math.Max(rule.MinimumFare, math.Round(raw)))
}

// ApplyMultiplier composes a derived price from its reference class's final price.
func ApplyMultiplier(referencePrice int64, multiplier float64) int64 {
	if multiplier == 0 {
		multiplier = 1.0
	}
	return int64(math.Round(float64(referencePrice) * multiplier))
}

// EffectiveMinimum is the floor a class's price can never go below.
func EffectiveMinimum(spec VehicleClassSpec, reference *VehicleClassSpec) int64 {
	if !spec.Pricing.Derived() || reference == nil {
		return int64(math.Round(spec.Pricing.MinimumFare))
	}
	return ApplyMultiplier(int64(math.Round(reference.Pricing.MinimumFare)), spec.Pricing.multiplier())
}
