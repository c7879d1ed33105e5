// README: Smoke cases for catalog, quotes, live session, places, redirect, auth, DB and Redis.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"transporter/internal/infra"
	"transporter/internal/modules/appstore"
	"transporter/internal/modules/pricing"
	"transporter/internal/modules/quote"
)

const (
	statusPass = "PASS"
	statusFail = "FAIL"
	statusSkip = "SKIP"

	iphoneUA = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X)"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client

	quoteID string
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg: cfg,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
			defer db.Close()
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
		defer r.redis.Close()
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))
	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}
	return results
}

func (r *Runner) cases() []TestCase {
	return []TestCase{
		{Name: "Env: Postgres connect", Run: needDB(func(ctx context.Context, r *Runner) Result {
			ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			return fromErr(r.db.Ping(ctx))
		})},
		{Name: "Env: Redis connect", Run: needRedis(func(ctx context.Context, r *Runner) Result {
			ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			return fromErr(r.redis.Ping(ctx).Err())
		})},
		{Name: "Migration: apply", Run: needDB(func(ctx context.Context, r *Runner) Result {
			if !r.cfg.ApplyMigration {
				return skip("apply-migration=false")
			}
			return fromErr(infra.Migrate(ctx, r.db))
		})},
		{Name: "Migration: tables exist", Run: needDB(checkTables)},

		expectStatus("API: health", http.MethodGet, "/health", nil, nil, http.StatusOK),
		{Name: "Catalog: every class listed", Run: func(ctx context.Context, r *Runner) Result {
			return r.countClasses(ctx, "", len(pricing.DefaultCatalog.Specs()))
		}},
		{Name: "Catalog: truck filter", Run: func(ctx context.Context, r *Runner) Result {
			trucks := pricing.Filter(pricing.DefaultCatalog.Build(nil), pricing.CategoryTruck)
			return r.countClasses(ctx, "?category=truck", len(trucks))
		}},
		expectStatus("Catalog: unknown category -> 400", http.MethodGet, "/api/catalog?category=boat", nil, nil, http.StatusBadRequest),

		expectStatus("Quote: missing drop -> 400", http.MethodPost, "/api/quotes", map[string]any{
			"pickup": map[string]any{"address": "Andheri"},
		}, nil, http.StatusBadRequest),
		{Name: "Quote: priced route", Run: needLive(createQuote)},
		{Name: "Quote: logged to fare_quotes", Run: needDB(checkQuoteLogged)},
		{Name: "Quote: route cached in Redis", Run: needRedis(checkRouteCached)},

		expectStatus("Places: reverse invalid coords -> 400", http.MethodGet, "/api/places/reverse?lat=123&lng=456", nil, nil, http.StatusBadRequest),
		{Name: "Places: autocomplete", Run: needLive(func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, http.MethodGet, "/api/places/autocomplete?input=Andheri", nil, nil, http.StatusOK)
		})},

		{Name: "Redirect: customer app on iPhone", Run: func(ctx context.Context, r *Runner) Result {
			return r.checkRedirect(ctx, appstore.AppCustomer, iphoneUA)
		}},
		{Name: "Redirect: driver app on Android", Run: func(ctx context.Context, r *Runner) Result {
			return r.checkRedirect(ctx, appstore.AppDriver, "Mozilla/5.0 (Linux; Android 14)")
		}},
		expectStatus("Redirect: unknown app -> 404", http.MethodGet, "/app/rider", nil, nil, http.StatusNotFound),

		expectStatus("Auth: me without session -> 401", http.MethodGet, "/api/me", nil, nil, http.StatusUnauthorized),
		expectStatus("Auth: driver login missing fields -> 400", http.MethodPost, "/api/auth/driver/login", map[string]any{}, nil, http.StatusBadRequest),

		{Name: "Live: initial frame is unpriced", Run: checkLiveInitial},
		{Name: "Live: priced after pickup and drop", Run: needLive(checkLivePriced)},

		{Name: "Perf: quote throughput", Run: needLive(func(ctx context.Context, r *Runner) Result {
			if r.cfg.Duration <= 0 {
				return skip("duration=0")
			}
			return perfLoad(ctx, r, "/api/quotes", r.quoteBody())
		})},
	}
}

func needDB(fn func(context.Context, *Runner) Result) func(context.Context, *Runner) Result {
	return func(ctx context.Context, r *Runner) Result {
		if r.db == nil {
			return skip("db not configured")
		}
		return fn(ctx, r)
	}
}

func needRedis(fn func(context.Context, *Runner) Result) func(context.Context, *Runner) Result {
	return func(ctx context.Context, r *Runner) Result {
		if r.redis == nil {
			return skip("redis not configured")
		}
		return fn(ctx, r)
	}
}

func needLive(fn func(context.Context, *Runner) Result) func(context.Context, *Runner) Result {
	return func(ctx context.Context, r *Runner) Result {
		if !r.cfg.Live {
			return skip("live=false")
		}
		return fn(ctx, r)
	}
}

func skip(note string) Result {
	return Result{Status: statusSkip, Note: note}
}

func fail(format string, args ...any) Result {
	return Result{Status: statusFail, Note: fmt.Sprintf(format, args...)}
}

func fromErr(err error) Result {
	if err != nil {
		return fail("%v", err)
	}
	return Result{Status: statusPass}
}

func (r *Runner) do(ctx context.Context, method, path string, body any, header map[string]string) (*http.Response, []byte, time.Duration, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, nil, 0, err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return nil, nil, 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	return resp, data, time.Since(start), err
}

func (r *Runner) expect(ctx context.Context, method, path string, body any, header map[string]string, want int) Result {
	resp, _, latency, err := r.do(ctx, method, path, body, header)
	if err != nil {
		return fail("%v", err)
	}
	res := Result{Status: statusPass, Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
	if resp.StatusCode != want {
		res.Status = statusFail
		res.Note += fmt.Sprintf(" want=%d", want)
	}
	return res
}

func expectStatus(name, method, path string, body any, header map[string]string, want int) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, method, path, body, header, want)
		},
	}
}

func (r *Runner) countClasses(ctx context.Context, query string, want int) Result {
	resp, data, latency, err := r.do(ctx, http.MethodGet, "/api/catalog"+query, nil, nil)
	if err != nil {
		return fail("%v", err)
	}
	var out struct {
		Classes []json.RawMessage `json:"classes"`
	}
	if resp.StatusCode != http.StatusOK || json.Unmarshal(data, &out) != nil {
		return fail("status=%d", resp.StatusCode)
	}
	if len(out.Classes) != want {
		return fail("classes=%d want=%d", len(out.Classes), want)
	}
	return Result{Status: statusPass, Latency: latency}
}

func (r *Runner) quoteBody() map[string]any {
	return map[string]any{
		"pickup": map[string]any{"address": r.cfg.Pickup},
		"drop":   map[string]any{"address": r.cfg.Drop},
	}
}

func createQuote(ctx context.Context, r *Runner) Result {
	resp, data, latency, err := r.do(ctx, http.MethodPost, "/api/quotes", r.quoteBody(), nil)
	if err != nil {
		return fail("%v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fail("status=%d body=%s", resp.StatusCode, data)
	}
	var out struct {
		QuoteID    string               `json:"quote_id"`
		DistanceKm float64              `json:"distance_km"`
		Options    []pricing.RideOption `json:"options"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return fail("%v", err)
	}
	for _, o := range out.Options {
		if o.Price == nil {
			return fail("%s unpriced", o.ClassID)
		}
	}
	r.quoteID = out.QuoteID
	return Result{Status: statusPass, Latency: latency, Note: fmt.Sprintf("distance=%.1fkm options=%d", out.DistanceKm, len(out.Options))}
}

func checkTables(ctx context.Context, r *Runner) Result {
	for _, t := range infra.Tables {
		var exists bool
		err := r.db.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
			t,
		).Scan(&exists)
		if err != nil {
			return fail("%v", err)
		}
		if !exists {
			return fail("missing table: %s", t)
		}
	}
	return Result{Status: statusPass}
}

func checkQuoteLogged(ctx context.Context, r *Runner) Result {
	if r.quoteID == "" {
		return skip("no quote created")
	}
	var n int
	if err := r.db.QueryRow(ctx, "SELECT count(*) FROM fare_quotes WHERE id=$1", r.quoteID).Scan(&n); err != nil {
		return fail("%v", err)
	}
	if n != 1 {
		return fail("quote %s not logged", r.quoteID)
	}
	return Result{Status: statusPass}
}

func checkRouteCached(ctx context.Context, r *Runner) Result {
	if r.quoteID == "" {
		return skip("no quote created")
	}
	keys, _, err := r.redis.Scan(ctx, 0, "maps:route:*", 100).Result()
	if err != nil {
		return fail("%v", err)
	}
	want := strings.ToLower(r.cfg.Pickup)
	for _, k := range keys {
		if strings.Contains(k, want) {
			return Result{Status: statusPass}
		}
	}
	return fail("no cached route for %q", r.cfg.Pickup)
}

func (r *Runner) checkRedirect(ctx context.Context, app appstore.App, ua string) Result {
	want, err := appstore.StoreURL(app, ua)
	if err != nil {
		return fail("%v", err)
	}
	resp, _, latency, err := r.do(ctx, http.MethodGet, "/app/"+string(app), nil, map[string]string{"User-Agent": ua})
	if err != nil {
		return fail("%v", err)
	}
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != want {
		return fail("status=%d location=%s", resp.StatusCode, resp.Header.Get("Location"))
	}
	return Result{Status: statusPass, Latency: latency}
}

func (r *Runner) dialLive(ctx context.Context) (*websocket.Conn, error) {
	url := "ws" + strings.TrimPrefix(r.cfg.BaseURL, "http") + "/api/quotes/live?category=car"
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	return conn, err
}

func readFrame(conn *websocket.Conn, typ string, timeout time.Duration) (quote.Frame, error) {
	deadline := time.Now().Add(timeout)
	for {
		_ = conn.SetReadDeadline(deadline)
		var f quote.Frame
		if err := conn.ReadJSON(&f); err != nil {
			return quote.Frame{}, err
		}
		if f.Type == typ {
			return f, nil
		}
	}
}

func checkLiveInitial(ctx context.Context, r *Runner) Result {
	start := time.Now()
	conn, err := r.dialLive(ctx)
	if err != nil {
		return fail("%v", err)
	}
	defer conn.Close()
	f, err := readFrame(conn, quote.FrameQuote, 3*time.Second)
	if err != nil {
		return fail("%v", err)
	}
	for _, o := range f.Options {
		if o.Price != nil {
			return fail("%s priced without a route", o.ClassID)
		}
	}
	return Result{Status: statusPass, Latency: time.Since(start)}
}

func checkLivePriced(ctx context.Context, r *Runner) Result {
	conn, err := r.dialLive(ctx)
	if err != nil {
		return fail("%v", err)
	}
	defer conn.Close()
	if _, err := readFrame(conn, quote.FrameQuote, 3*time.Second); err != nil {
		return fail("%v", err)
	}

	start := time.Now()
	for _, in := range []quote.Inbound{
		{Type: quote.MsgPickup, Value: r.cfg.Pickup},
		{Type: quote.MsgDrop, Value: r.cfg.Drop},
	} {
		if err := conn.WriteJSON(in); err != nil {
			return fail("%v", err)
		}
	}
	for {
		f, err := readFrame(conn, quote.FrameQuote, 10*time.Second)
		if err != nil {
			return fail("%v", err)
		}
		if len(f.Options) > 0 && f.Options[0].Price != nil {
			return Result{Status: statusPass, Latency: time.Since(start), Note: fmt.Sprintf("%s=%d", f.Options[0].ClassID, *f.Options[0].Price)}
		}
	}
}

func perfLoad(ctx context.Context, r *Runner, path string, payload any) Result {
	end := time.Now().Add(r.cfg.Duration)
	var count, errCount atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				resp, _, _, err := r.do(ctx, http.MethodPost, path, payload, nil)
				if err != nil || resp.StatusCode >= 500 {
					errCount.Add(1)
					continue
				}
				count.Add(1)
			}
		}()
	}
	wg.Wait()

	if count.Load() == 0 {
		return fail("no requests completed")
	}
	rps := float64(count.Load()) / r.cfg.Duration.Seconds()
	return Result{Status: statusPass, Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount.Load())}
}
