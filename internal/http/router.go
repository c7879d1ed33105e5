// README: HTTP router registration.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"transporter/internal/http/handlers"
	"transporter/internal/http/middleware"
	"transporter/internal/modules/auth"
	"transporter/internal/modules/pricing"
)

type RouterDeps struct {
	Pricing     *pricing.Service
	Router      pricing.Router
	Places      handlers.PlaceFinder
	Auth        *auth.Service
	QuietPeriod time.Duration
	CORSOrigins []string
	Logger      *slog.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(deps.Logger), middleware.Logging(deps.Logger), corsMiddleware(deps.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/app/:app", handlers.AppRedirect)

	api := r.Group("/api")

	catalogHandler := handlers.NewCatalogHandler(deps.Pricing)
	api.GET("/catalog", catalogHandler.List)

	quoteHandler := handlers.NewQuoteHandler(deps.Pricing)
	api.POST("/quotes", quoteHandler.Create)

	liveHandler := handlers.NewLiveHandler(deps.Pricing, deps.Router, deps.QuietPeriod, deps.CORSOrigins)
	api.GET("/quotes/live", liveHandler.Serve)

	placesHandler := handlers.NewPlacesHandler(deps.Places)
	api.GET("/places/autocomplete", placesHandler.Autocomplete)
	api.GET("/places/reverse", placesHandler.Reverse)

	authHandler := handlers.NewAuthHandler(deps.Auth)
	api.POST("/auth/challenge", authHandler.AcquireChallenge)
	api.DELETE("/auth/challenge/:scope", authHandler.ReleaseChallenge)
	api.POST("/auth/phone/request", authHandler.RequestCode)
	api.POST("/auth/phone/verify", authHandler.VerifyCode)
	api.POST("/auth/driver/signup", authHandler.DriverSignUp)
	api.POST("/auth/driver/login", authHandler.DriverSignIn)
	api.GET("/me", middleware.Auth(deps.Auth), authHandler.Me)

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	if handlers.AllowsAnyOrigin(origins) {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	cfg.MaxAge = 12 * time.Hour
	return cors.New(cfg)
}
