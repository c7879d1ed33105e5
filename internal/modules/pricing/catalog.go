// README: Ride catalog: fixed vehicle classes expanded into priced ride options.
package pricing

import (
	"fmt"

	"transporter/internal/types"
)

// Catalog is immutable after construction.
type Catalog struct {
	specs []VehicleClassSpec
	index map[string]int
}

// NewCatalog validates the table. Derived classes must reference a base class; the
// reference may be declared anywhere in the table.
func NewCatalog(specs []VehicleClassSpec) (*Catalog, error) {
	c := &Catalog{
		specs: append([]VehicleClassSpec(nil), specs...),
		index: make(map[string]int, len(specs)),
	}
	for i, s := range c.specs {
		if _, err := ParseCategory(string(s.Category)); err != nil {
			return nil, fmt.Errorf("class %q: %w", s.ID, err)
		}
		if _, dup := c.index[s.ID]; dup {
			return nil, fmt.Errorf("class %q: %w", s.ID, ErrDuplicateClass)
		}
		c.index[s.ID] = i
	}
	for _, s := range c.specs {
		if !s.Pricing.Derived() {
			if s.Pricing.MinimumFare <= 0 {
				return nil, fmt.Errorf("class %q: minimum fare must be positive: %w", s.ID, ErrInvalidRule)
			}
			continue
		}
		if s.Pricing.Multiplier <= 0 {
			return nil, fmt.Errorf("class %q: multiplier must be positive: %w", s.ID, ErrInvalidRule)
		}
		ref, ok := c.index[s.Pricing.Reference]
		if !ok {
			return nil, fmt.Errorf("class %q -> %q: %w", s.ID, s.Pricing.Reference, ErrUnknownReference)
		}
		if c.specs[ref].Pricing.Derived() {
			return nil, fmt.Errorf("class %q -> %q: %w", s.ID, s.Pricing.Reference, ErrChainedReference)
		}
	}
	return c, nil
}

func MustCatalog(specs []VehicleClassSpec) *Catalog {
	c, err := NewCatalog(specs)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Specs() []VehicleClassSpec {
	return append([]VehicleClassSpec(nil), c.specs...)
}

func (c *Catalog) Lookup(id string) (VehicleClassSpec, bool) {
	i, ok := c.index[id]
	if !ok {
		return VehicleClassSpec{}, false
	}
	return c.specs[i], true
}

// MinimumFor returns the effective floor of a class, accounting for its reference.
func (c *Catalog) MinimumFor(id string) (int64, bool) {
	spec, ok := c.Lookup(id)
	if !ok {
		return 0, false
	}
	if !spec.Pricing.Derived() {
		return EffectiveMinimum(spec, nil), true
	}
	ref, _ := c.Lookup(spec.Pricing.Reference)
	return EffectiveMinimum(spec, &ref), true
}

// Build prices every class for the route, preserving declaration order. A nil route
// yields one option per class with nil price, distance and duration.
func (c *Catalog) Build(route *types.RouteResult) []RideOption {
	out := make([]RideOption, len(c.specs))
	for i, s := range c.specs {
		out[i] = RideOption{
			ClassID:     s.ID,
			Category:    s.Category,
			Name:        s.Name,
			Description: s.Description,
			Capacity:    s.CapacityLabel,
		}
	}
	if route == nil {
		return out
	}

	trip := TripFromRoute(*route)

	// Base classes first: derived prices compose on their final values.
	base := make(map[string]int64, len(c.specs))
	for _, s := range c.specs {
		if !s.Pricing.Derived() {
			base[s.ID] = EstimateFare(trip, s.Pricing)
		}
	}

	for i, s := range c.specs {
		price := base[s.ID]
		if s.Pricing.Derived() {
			price = ApplyMultiplier(base[s.Pricing.Reference], s.Pricing.Multiplier)
		}
		km := trip.DistanceKm
		mins := trip.DurationMin
		out[i].Price = &price
		out[i].DistanceKm = &km
		out[i].DurationMin = &mins
	}
	return out
}

// Filter returns the options in category, in their original order. The input slice is
// never modified.
func Filter(options []RideOption, category Category) []RideOption {
	out := make([]RideOption, 0, len(options))
	for _, o := range options {
		if o.Category == category {
			out = append(out, o)
		}
	}
	return out
}

func ref(id string, m float64) PricingRule {
	return PricingRule{Reference: id, Multiplier: m}
}

// DefaultCatalog is the fixed passenger, goods and outstation table.
var DefaultCatalog = MustCatalog([]VehicleClassSpec{
	{ID: "auto", Category: CategoryAuto, Name: "Auto", Description: "No bargaining, doorstep pickup", CapacityLabel: "3 people",
		Pricing: PricingRule{BaseFare: 40, PerKmRate: 16, PerMinuteRate: 1.5, MinimumFare: 60}},

	{ID: "cab_ac", Category: CategoryCar, Name: "Cab AC", Description: "AC Cooling in Hot Weather", CapacityLabel: "4 people", Pricing: ref("mini", 1.1)},
	{ID: "mini", Category: CategoryCar, Name: "Mini Cab", Description: "Affordable & Compact", CapacityLabel: "4 people",
		Pricing: PricingRule{BaseFare: 50, PerKmRate: 18, PerMinuteRate: 2.0, MinimumFare: 90}},
	{ID: "sedan", Category: CategoryCar, Name: "Sedan premium", Description: "Comfortable Sedan to commute", CapacityLabel: "4 people",
		Pricing: PricingRule{BaseFare: 60, PerKmRate: 22, PerMinuteRate: 2.5, MinimumFare: 120}},
	{ID: "suv", Category: CategoryCar, Name: "SUV", Description: "EXTRA for extraa...", CapacityLabel: "6-7 people",
		Pricing: PricingRule{BaseFare: 80, PerKmRate: 28, PerMinuteRate: 3.5, MinimumFare: 180}},

	{ID: "3_wheeler_topless", Category: CategoryTruck, Name: "3 - Wheeler Topless", Description: "Dimensions : 5.5ft x 4.5ft x 5ft", CapacityLabel: "500kgs", Pricing: ref("auto", 1.2)},
	{ID: "3_wheeler_top", Category: CategoryTruck, Name: "3 - wheeler with Top", Description: "Dimensions : 5.5ft x 4.5ft x 5ft", CapacityLabel: "500kgs", Pricing: ref("auto", 1.3)},
	{ID: "tata_ace_top", Category: CategoryTruck, Name: "Tata Ace with Top", Description: "Dimensions : 7ft x 4ft x 5ft", CapacityLabel: "750kgs", Pricing: ref("mini", 1.4)},
	{ID: "tata_ace_topless", Category: CategoryTruck, Name: "Tata Ace Topless", Description: "Dimensions : 7ft x 4ft x 5ft", CapacityLabel: "750kgs", Pricing: ref("mini", 1.3)},
	{ID: "pick_8ft_top", Category: CategoryTruck, Name: "Pick 8ft with Top", Description: "Dimensions : 8ft x 4.5ft x 5.5ft", CapacityLabel: "1200kgs", Pricing: ref("suv", 1.2)},
	{ID: "pickup_8ft_topless", Category: CategoryTruck, Name: "Pickup 8ft Topless", Description: "Dimensions : 8ft x 4.5ft x 5.5ft", CapacityLabel: "1200kgs", Pricing: ref("suv", 1.1)},
	{ID: "pickup_9ft_topless", Category: CategoryTruck, Name: "Pickup 9ft Topless", Description: "Dimensions : 9.0ft x 5.5ft x 5.5ft", CapacityLabel: "1700kgs", Pricing: ref("suv", 1.3)},
	{ID: "pickup_9ft_top", Category: CategoryTruck, Name: "Pickup 9ft with Top", Description: "Dimensions : 9.0ft x 5.5ft x 5.5ft", CapacityLabel: "1700kgs", Pricing: ref("suv", 1.4)},
	{ID: "407_truck_top", Category: CategoryTruck, Name: "407 Truck with Top", Description: "Dimensions : 9ft x 5.5ft x 5ft", CapacityLabel: "2400kgs", Pricing: ref("suv", 1.8)},
	{ID: "407_truck_topless", Category: CategoryTruck, Name: "407 Truck Topless", Description: "Dimensions : 9ft x 5.5ft x 5ft", CapacityLabel: "2400kgs", Pricing: ref("suv", 1.7)},
	{ID: "14ft_truck_topless", Category: CategoryTruck, Name: "14ft Truck Topless", Description: "Dimensions : 14ft x 6ft x 6ft", CapacityLabel: "3500kgs", Pricing: ref("suv", 2.2)},
	{ID: "14ft_truck_top", Category: CategoryTruck, Name: "14ft Truck with Top", Description: "Dimensions : 14ft x 6ft x 6ft", CapacityLabel: "3500kgs", Pricing: ref("suv", 2.3)},
	{ID: "17ft_truck_top", Category: CategoryTruck, Name: "17ft Truck with Top", Description: "Dimensions : 17ft x 6ft x 6ft", CapacityLabel: "4500kgs", Pricing: ref("suv", 2.6)},
	{ID: "17ft_truck_topless", Category: CategoryTruck, Name: "17ft Truck Topless", Description: "Dimensions : 17ft x 6ft x 6ft", CapacityLabel: "4500kgs", Pricing: ref("suv", 2.5)},

	{ID: "outstation_hatchback", Category: CategoryOutstation, Name: "Outstation Hatchback", Description: "Comfy AC Hatchbacks for small families", CapacityLabel: "4 people", Pricing: ref("mini", 1.8)},
	{ID: "outstation_sedan", Category: CategoryOutstation, Name: "Outstation Sedan", Description: "Spacious Sedans for long drives", CapacityLabel: "4 people", Pricing: ref("sedan", 1.8)},
	{ID: "outstation_suv", Category: CategoryOutstation, Name: "Outstation SUV / 7 Seater", Description: "Innova / Ertiga for big groups", CapacityLabel: "6-7 people", Pricing: ref("suv", 1.5)},
	{ID: "outstation_premium", Category: CategoryOutstation, Name: "Premium Luxury", Description: "Travel in Class (Merc, Audi, BMW)", CapacityLabel: "4 people", Pricing: ref("suv", 2.5)},
})
