// README: Pricing rules, vehicle classes and derived ride options.
package pricing

import (
	"errors"
	"math"
	"time"

	"transporter/internal/types"
)

var (
	ErrUnknownCategory  = errors.New("unknown service category")
	ErrUnknownReference = errors.New("unknown reference class")
	ErrChainedReference = errors.New("reference class must not be derived")
	ErrDuplicateClass   = errors.New("duplicate vehicle class")
	ErrInvalidRule      = errors.New("invalid pricing rule")
)

type Category string

const (
	CategoryAuto       Category = "auto"
	CategoryCar        Category = "car"
	CategoryTruck      Category = "truck"
	CategoryOutstation Category = "outstation"
)

func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryAuto, CategoryCar, CategoryTruck, CategoryOutstation:
		return c, nil
	}
	return "", ErrUnknownCategory
}

// PricingRule is a linear fare formula with a floor. A rule with a Reference is priced
// as round(referencePrice * Multiplier) instead of evaluating its own formula.
type PricingRule struct {
	BaseFare      float64
	PerKmRate     float64
	PerMinuteRate float64
	MinimumFare   float64
	Reference     string
	Multiplier    float64
}

func (r PricingRule) Derived() bool {
	return r.Reference != ""
}

func (r PricingRule) multiplier() float64 {
	if r.Multiplier == 0 {
		return 1.0
	}
	return r.Multiplier
}

// VehicleClassSpec is one static row of the catalog.
type VehicleClassSpec struct {
	ID            string
	Category      Category
	Name          string
	Description   string
	CapacityLabel string
	Pricing       PricingRule
}

// Trip is a route normalised for pricing: distance truncated to 0.1 km and duration
// rounded up to whole minutes.
type Trip struct {
	DistanceKm  float64
	DurationMin int
}

func TripFromRoute(r types.RouteResult) Trip {
	meters := math.Max(0, r.DistanceMeters)
	seconds := math.Max(0, r.DurationSeconds)
	return Trip{
		DistanceKm:  math.Floor(meters/100) / 10,
		DurationMin: int(math.Ceil(seconds / 60)),
	}
}

// RideOption is recreated wholesale on every recompute. Price, DistanceKm and
// DurationMin are nil until a route is known.
type RideOption struct {
	ClassID     string   `json:"id"`
	Category    Category `json:"category"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Capacity    string   `json:"capacity"`
	Price       *int64   `json:"price"`
	DistanceKm  *float64 `json:"distance_km"`
	DurationMin *int     `json:"duration_min"`
}

// Quote is a priced catalog for one route lookup.
type Quote struct {
	ID        types.ID          `json:"quote_id"`
	Pickup    types.RoutePoint  `json:"pickup"`
	Drop      types.RoutePoint  `json:"drop"`
	Route     types.RouteResult `json:"route"`
	Trip      Trip              `json:"-"`
	Currency  string            `json:"currency"`
	Options   []RideOption      `json:"options"`
	CreatedAt time.Time         `json:"created_at"`
}
