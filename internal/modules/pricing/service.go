// README: Pricing service quotes a pickup/drop pair against the ride catalog.
package pricing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"transporter/internal/types"
)

// ErrInputIncomplete means pickup or drop is empty; no lookup is made.
var ErrInputIncomplete = errors.New("pickup and drop are required")

// Router is the route lookup capability consumed by the service.
type Router interface {
	Lookup(ctx context.Context, origin, destination types.RoutePoint) (types.RouteResult, error)
}

type Service struct {
	store    *Store
	router   Router
	catalog  *Catalog
	currency string
	now      func() time.Time
}

func NewService(store *Store, router Router, catalog *Catalog, currency string) *Service {
	if catalog == nil {
		catalog = DefaultCatalog
	}
	if currency == "" {
		currency = types.DefaultCurrency
	}
	return &Service{store: store, router: router, catalog: catalog, currency: currency, now: time.Now}
}

func (s *Service) Catalog() *Catalog {
	return s.catalog
}

func (s *Service) Currency() string {
	return s.currency
}

// Quote looks up the route and prices every class. Route failures are returned as-is so
// callers can match them with errors.Is.
func (s *Service) Quote(ctx context.Context, pickup, drop types.RoutePoint) (*Quote, error) {
	if pickup.Empty() || drop.Empty() {
		return nil, ErrInputIncomplete
	}
	route, err := s.router.Lookup(ctx, pickup, drop)
	if err != nil {
		return nil, err
	}
	q := s.QuoteFromRoute(pickup, drop, route)

	if s.store != nil {
		if err := s.store.SaveQuote(ctx, q); err != nil {
			slog.WarnContext(ctx, "quote log failed", "quote_id", q.ID, "error", err)
		}
	}
	return q, nil
}

// QuoteFromRoute prices an already resolved route.
func (s *Service) QuoteFromRoute(pickup, drop types.RoutePoint, route types.RouteResult) *Quote {
	return &Quote{
		ID:        types.ID(uuid.NewString()),
		Pickup:    pickup,
		Drop:      drop,
		Route:     route,
		Trip:      TripFromRoute(route),
		Currency:  s.currency,
		Options:   s.catalog.Build(&route),
		CreatedAt: s.now(),
	}
}
