// README: Live quote session: per-connection pickup/drop/category/selection state
// driven by the debounced trigger.
package quote

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"transporter/internal/modules/location"
	"transporter/internal/modules/pricing"
	"transporter/internal/types"
)

var (
	ErrUnknownMessage = errors.New("unknown message type")
	ErrUnknownRide    = errors.New("ride not available in this category")
	ErrSessionClosed  = errors.New("session closed")
)

// Inbound message types.
const (
	MsgPickup   = "pickup"
	MsgDrop     = "drop"
	MsgCategory = "category"
	MsgSelect   = "select"
)

// Outbound frame types.
const (
	FrameQuote     = "quote"
	FrameError     = "error"
	FrameSelection = "selection"
	FrameDrivers   = "drivers"
)

const (
	CodeRouteUnavailable = "route_unavailable"
	CodeBadInput         = "bad_input"

	// RouteUnavailableMessage is the banner text for a failed route lookup, shared with the
	// one-shot quote endpoint.
	RouteUnavailableMessage = "We couldn't find a route between these places. Please check the addresses."
)

// Inbound is one client message. Lat/Lng, when both set, replace Value for pickup/drop.
type Inbound struct {
	Type  string   `json:"type"`
	Value string   `json:"value"`
	Lat   *float64 `json:"lat,omitempty"`
	Lng   *float64 `json:"lng,omitempty"`
}

// ErrorSlot is rendered next to the input it concerns.
type ErrorSlot struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type Frame struct {
	Type     string                     `json:"type"`
	Category pricing.Category           `json:"category,omitempty"`
	Selected string                     `json:"selected,omitempty"`
	Currency string                     `json:"currency,omitempty"`
	Options  []pricing.RideOption       `json:"options,omitempty"`
	Route    *types.RouteGeometry       `json:"route,omitempty"`
	Stale    bool                       `json:"stale,omitempty"`
	Error    *ErrorSlot                 `json:"error,omitempty"`
	Drivers  []location.SimulatedDriver `json:"drivers,omitempty"`
}

// Session owns the selection; the catalog and trigger never see it. send is called
// with the session lock held, so frames are delivered one at a time and in order.
type Session struct {
	pricing *pricing.Service
	trigger *Trigger
	send    func(Frame)
	rng     *rand.Rand

	mu       sync.Mutex
	category pricing.Category
	selected string
	options  []pricing.RideOption
	route    *types.RouteResult
	banner   *ErrorSlot
	closed   bool
}

type SessionConfig struct {
	QuietPeriod time.Duration
	Category    pricing.Category
	Clock       Clock
	Seed        uint64
}

func NewSession(svc *pricing.Service, router pricing.Router, cfg SessionConfig, send func(Frame)) *Session {
	if cfg.Category == "" {
		cfg.Category = pricing.CategoryAuto
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}
	s := &Session{
		pricing:  svc,
		send:     send,
		rng:      rand.New(rand.NewPCG(cfg.Seed, cfg.Seed>>1)),
		category: cfg.Category,
		options:  svc.Catalog().Build(nil),
	}
	var opts []TriggerOption
	if cfg.Clock != nil {
		opts = append(opts, WithClock(cfg.Clock))
	}
	s.trigger = NewTrigger(cfg.QuietPeriod, router.Lookup, s.onOutcome, opts...)
	return s
}

// Start emits the unpriced catalog for the initial category.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitQuote()
}

func (s *Session) Handle(in Inbound) error {
	switch in.Type {
	case MsgPickup:
		s.trigger.SetPickup(pointFrom(in))
		return nil
	case MsgDrop:
		s.trigger.SetDrop(pointFrom(in))
		return nil
	case MsgCategory:
		return s.setCategory(in.Value)
	case MsgSelect:
		return s.selectRide(in.Value)
	}
	return fmt.Errorf("%w: %q", ErrUnknownMessage, in.Type)
}

func (s *Session) setCategory(v string) error {
	c, err := pricing.ParseCategory(strings.TrimSpace(v))
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.category = c
	s.selected = ""
	s.emitQuote()
	return nil
}

func (s *Session) selectRide(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	found := false
	for _, o := range pricing.Filter(s.options, s.category) {
		if o.ClassID == id {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %q", ErrUnknownRide, id)
	}
	s.selected = id
	s.send(Frame{Type: FrameSelection, Category: s.category, Selected: id})
	s.emitDrivers()
	return nil
}

func (s *Session) onOutcome(out Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if out.Err != nil {
		slog.Warn("live quote lookup failed",
			"pickup", out.Pickup.Query(), "drop", out.Drop.Query(), "error", out.Err)
		s.banner = &ErrorSlot{Code: CodeRouteUnavailable, Message: RouteUnavailableMessage}
		// Prices from the previous lookup stay visible, flagged stale.
		s.send(Frame{Type: FrameError, Error: s.banner, Stale: s.route != nil})
		return
	}
	q := s.pricing.QuoteFromRoute(out.Pickup, out.Drop, *out.Route)
	s.route = out.Route
	s.options = q.Options
	s.banner = nil
	s.emitQuote()
	s.emitDrivers()
}

func (s *Session) emitQuote() {
	f := Frame{
		Type:     FrameQuote,
		Category: s.category,
		Selected: s.selected,
		Currency: s.pricing.Currency(),
		Options:  pricing.Filter(s.options, s.category),
		Error:    s.banner,
		Stale:    s.banner != nil,
	}
	if s.route != nil {
		g := s.route.Geometry
		f.Route = &g
	}
	s.send(f)
}

func (s *Session) emitDrivers() {
	if s.route == nil || s.selected == "" {
		return
	}
	s.send(Frame{
		Type:    FrameDrivers,
		Drivers: location.SimulateNearbyDrivers(s.route.Geometry.Start, s.rng),
	})
}

// Options returns a copy of the latest full option list.
func (s *Session) Options() []pricing.RideOption {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]pricing.RideOption(nil), s.options...)
}

func (s *Session) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Close discards pending and in-flight lookups; no frame is sent afterwards.
func (s *Session) Close() {
	s.trigger.Close()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func pointFrom(in Inbound) types.RoutePoint {
	if in.Lat != nil && in.Lng != nil {
		p := types.Point{Lat: *in.Lat, Lng: *in.Lng}
		if p.Valid() {
			return types.RoutePoint{Address: in.Value, Coords: &p}
		}
	}
	return types.AddressPoint(in.Value)
}
