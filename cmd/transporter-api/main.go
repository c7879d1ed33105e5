// README: Entry point; loads config, wires services and starts the HTTP server.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"transporter/internal/config"
	httptransport "transporter/internal/http"
	"transporter/internal/infra"
	"transporter/internal/maps"
	"transporter/internal/modules/auth"
	"transporter/internal/modules/pricing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	logger := infra.NewLogger(os.Stdout, "transporter-api", cfg.LogLevel)
	slog.SetDefault(logger)
	fatal := func(msg string, err error) {
		logger.Error(msg, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		fatal("db init", err)
	}
	defer dbPool.Close()
	if err := infra.Migrate(ctx, dbPool); err != nil {
		fatal("db migrate", err)
	}

	redisClient, err := infra.NewRedis(ctx, cfg.Redis.Addr)
	if err != nil {
		fatal("redis init", err)
	}
	defer redisClient.Close()

	routeSvc, err := maps.NewRouteService(cfg.Maps.APIKey, cfg.Maps.Region, cfg.Maps.Language)
	if err != nil {
		fatal("maps init", err)
	}
	router := maps.NewCachedRouter(routeSvc, redisClient, cfg.Quote.RouteCacheTTL)

	placesSvc, err := maps.NewPlacesService(cfg.Maps.APIKey, cfg.Maps.Region, cfg.Maps.Language)
	if err != nil {
		fatal("places init", err)
	}

	pricingStore := pricing.NewStore(dbPool)
	pricingSvc := pricing.NewService(pricingStore, router, pricing.DefaultCatalog, cfg.Quote.Currency)

	fbAuth, err := infra.NewFirebaseAuth(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		fatal("firebase init", err)
	}
	toolkit, err := auth.NewIdentityToolkit(ctx, cfg.Firebase.WebAPIKey)
	if err != nil {
		fatal("identity toolkit init", err)
	}

	authSvc := auth.NewService(auth.ServiceDeps{
		Challenges: auth.NewRedisChallengeStore(redisClient, cfg.Auth.ChallengeTTL),
		Phone:      toolkit,
		Passwords:  toolkit,
		Accounts:   auth.NewFirebaseAccounts(fbAuth),
		Verifier:   infra.NewTokenVerifier(fbAuth),
		Tokens:     auth.NewTokenIssuer(cfg.Auth.SessionSecret),
		Sessions:   auth.NewRedisSessionStore(redisClient),
		Users:      auth.NewPgUserStore(dbPool),
	})

	gin.SetMode(gin.ReleaseMode)
	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Pricing:     pricingSvc,
		Router:      router,
		Places:      placesSvc,
		Auth:        authSvc,
		QuietPeriod: cfg.Quote.QuietPeriod,
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Logger:      logger,
	})

	server := httptransport.NewServer(cfg.HTTP.Addr, handler, logger)
	if err := server.Run(ctx); err != nil {
		fatal("http server", err)
	}
}
