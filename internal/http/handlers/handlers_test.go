// README: Handler tests over a gin engine with stubbed route lookup, places and auth.
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"transporter/internal/http/handlers"
	"transporter/internal/maps"
	"transporter/internal/modules/pricing"
	"transporter/internal/modules/quote"
	"transporter/internal/types"
)

const iphoneUA = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X)"

// stubRouter is a test double for pricing.Router.
type stubRouter struct {
	route types.RouteResult
	err   error
}

func (s *stubRouter) Lookup(_ context.Context, _, _ types.RoutePoint) (types.RouteResult, error) {
	return s.route, s.err
}

var tenKm = types.RouteResult{DistanceMeters: 10000, DurationSeconds: 1200}

func doRequest(r *gin.Engine, method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json %q: %v", w.Body.String(), err)
	}
	return out
}

func buildPricingRouter(router pricing.Router) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := pricing.NewService(nil, router, nil, "INR")
	r := gin.New()
	r.GET("/api/catalog", handlers.NewCatalogHandler(svc).List)
	r.POST("/api/quotes", handlers.NewQuoteHandler(svc).Create)
	r.GET("/app/:app", handlers.AppRedirect)
	return r
}

func TestCatalog_List(t *testing.T) {
	r := buildPricingRouter(&stubRouter{})

	tests := []struct {
		query string
		code  int
		count int
	}{
		{"", http.StatusOK, len(pricing.DefaultCatalog.Specs())},
		{"?category=truck", http.StatusOK, 14},
		{"?category=auto", http.StatusOK, 1},
		{"?category=boat", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		w := doRequest(r, http.MethodGet, "/api/catalog"+tt.query, nil, nil)
		if w.Code != tt.code {
			t.Errorf("%s: expected %d, got %d", tt.query, tt.code, w.Code)
			continue
		}
		if tt.code != http.StatusOK {
			continue
		}
		classes := decode(t, w)["classes"].([]any)
		if len(classes) != tt.count {
			t.Errorf("%s: got %d classes, want %d", tt.query, len(classes), tt.count)
		}
	}
}

func TestCatalog_MinimumFareForDerivedClass(t *testing.T) {
	r := buildPricingRouter(&stubRouter{})
	w := doRequest(r, http.MethodGet, "/api/catalog?category=truck", nil, nil)
	first := decode(t, w)["classes"].([]any)[0].(map[string]any)
	// auto minimum 60 x 1.2
	if first["id"] != "3_wheeler_topless" || first["minimum_fare"] != float64(72) {
		t.Errorf("first truck = %v", first)
	}
}

func TestQuote_Create(t *testing.T) {
	r := buildPricingRouter(&stubRouter{route: tenKm})
	w := doRequest(r, http.MethodPost, "/api/quotes", map[string]any{
		"pickup":   map[string]any{"address": "Andheri West"},
		"drop":     map[string]any{"address": "Bandra Kurla Complex"},
		"category": "truck",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["quote_id"] == "" || body["currency"] != "INR" || body["distance_km"] != float64(10) || body["duration_min"] != float64(20) {
		t.Errorf("unexpected body %v", body)
	}
	options := body["options"].([]any)
	if len(options) != 14 {
		t.Fatalf("got %d options", len(options))
	}
	top := options[1].(map[string]any)
	if top["id"] != "3_wheeler_top" || top["price"] != float64(299) {
		t.Errorf("option = %v", top)
	}
}

func TestQuote_Errors(t *testing.T) {
	tests := []struct {
		name    string
		router  *stubRouter
		body    any
		code    int
		field   string
		message string
	}{
		{
			name:   "missing drop",
			router: &stubRouter{route: tenKm},
			body:   map[string]any{"pickup": map[string]any{"address": "Andheri"}},
			code:   http.StatusBadRequest,
			field:  "route",
		},
		{
			name:    "route unavailable",
			router:  &stubRouter{err: fmt.Errorf("%w: ZERO_RESULTS", maps.ErrRouteUnavailable)},
			body:    map[string]any{"pickup": map[string]any{"address": "a"}, "drop": map[string]any{"address": "b"}},
			code:    http.StatusBadGateway,
			field:   "route",
			message: quote.RouteUnavailableMessage,
		},
		{
			name:   "bad category",
			router: &stubRouter{route: tenKm},
			body:   map[string]any{"pickup": map[string]any{"address": "a"}, "drop": map[string]any{"address": "b"}, "category": "boat"},
			code:   http.StatusBadRequest,
			field:  "category",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(buildPricingRouter(tt.router), http.MethodPost, "/api/quotes", tt.body, nil)
			if w.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, w.Code)
			}
			body := decode(t, w)
			if got := body["field"]; got != tt.field {
				t.Errorf("field = %v, want %s", got, tt.field)
			}
			if tt.message != "" && body["error"] != tt.message {
				t.Errorf("error = %v, want %q", body["error"], tt.message)
			}
		})
	}
}

func TestAppRedirect(t *testing.T) {
	r := buildPricingRouter(&stubRouter{})

	w := doRequest(r, http.MethodGet, "/app/customer", nil, map[string]string{"User-Agent": iphoneUA})
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "https://apps.apple.com/in/app/transporter-customer/id6755738681" {
		t.Errorf("Location = %s", loc)
	}

	w = doRequest(r, http.MethodGet, "/app/driver", nil, nil)
	if loc := w.Header().Get("Location"); loc != "https://play.google.com/store/apps/details?id=com.transporter.driver" {
		t.Errorf("Location = %s", loc)
	}

	if w := doRequest(r, http.MethodGet, "/app/rider", nil, nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

// stubPlaces is a test double for handlers.PlaceFinder.
type stubPlaces struct {
	err error
}

func (s *stubPlaces) Autocomplete(_ context.Context, input string) ([]maps.Suggestion, error) {
	if s.err != nil {
		return nil, s.err
	}
	if input == "" {
		return nil, nil
	}
	return []maps.Suggestion{{Description: input + " Station, Mumbai", PlaceID: "p1"}}, nil
}

func (s *stubPlaces) ReverseGeocode(_ context.Context, p types.Point) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return fmt.Sprintf("Near %.2f,%.2f", p.Lat, p.Lng), nil
}

func buildPlacesRouter(places handlers.PlaceFinder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handlers.NewPlacesHandler(places)
	r := gin.New()
	r.GET("/api/places/autocomplete", h.Autocomplete)
	r.GET("/api/places/reverse", h.Reverse)
	return r
}

func TestPlaces(t *testing.T) {
	r := buildPlacesRouter(&stubPlaces{})

	w := doRequest(r, http.MethodGet, "/api/places/autocomplete?input=Andheri", nil, nil)
	if w.Code != http.StatusOK || len(decode(t, w)["suggestions"].([]any)) != 1 {
		t.Errorf("autocomplete: %d %s", w.Code, w.Body.String())
	}
	w = doRequest(r, http.MethodGet, "/api/places/autocomplete", nil, nil)
	if w.Code != http.StatusOK || len(decode(t, w)["suggestions"].([]any)) != 0 {
		t.Errorf("empty autocomplete: %d %s", w.Code, w.Body.String())
	}

	w = doRequest(r, http.MethodGet, "/api/places/reverse?lat=19.13&lng=72.82", nil, nil)
	if w.Code != http.StatusOK || decode(t, w)["address"] != "Near 19.13,72.82" {
		t.Errorf("reverse: %d %s", w.Code, w.Body.String())
	}
	for _, q := range []string{"", "?lat=abc&lng=1", "?lat=91&lng=0"} {
		if w := doRequest(r, http.MethodGet, "/api/places/reverse"+q, nil, nil); w.Code != http.StatusBadRequest {
			t.Errorf("reverse%s: expected 400, got %d", q, w.Code)
		}
	}
}

func TestPlaces_ProviderErrors(t *testing.T) {
	r := buildPlacesRouter(&stubPlaces{err: maps.ErrNoPlace})
	if w := doRequest(r, http.MethodGet, "/api/places/reverse?lat=0&lng=0", nil, nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	r = buildPlacesRouter(&stubPlaces{err: errors.New("OVER_QUERY_LIMIT")})
	if w := doRequest(r, http.MethodGet, "/api/places/autocomplete?input=x", nil, nil); w.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", w.Code)
	}
}
