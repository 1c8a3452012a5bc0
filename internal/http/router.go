// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, access logging, error dispatch, panic
// recovery, metrics, CORS, security headers and rate limiting.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-commerce-backend/docs"
	"github.com/tbourn/go-commerce-backend/internal/apperr"
	"github.com/tbourn/go-commerce-backend/internal/config"
	"github.com/tbourn/go-commerce-backend/internal/envelope"
	"github.com/tbourn/go-commerce-backend/internal/errhandling"
	"github.com/tbourn/go-commerce-backend/internal/http/handlers"
	"github.com/tbourn/go-commerce-backend/internal/http/middleware"
	"github.com/tbourn/go-commerce-backend/internal/repo"
	"github.com/tbourn/go-commerce-backend/internal/services"
)

// CodeMethodNotAllowed is the envelope code of a 405. It belongs to the
// transport, not to the application error taxonomy.
const CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"

const maxBodyBytes = 1 << 20

// NewRouter builds a gin engine with every route registered.
func NewRouter(db *gorm.DB, cfg config.Config) *gin.Engine {
	r := gin.New()
	RegisterRoutes(r, db, cfg)
	return r
}

// NewErrorRegistry returns the registry used by the error and recovery
// middleware. Logging is silenced in test mode and internal messages are
// masked in production.
func NewErrorRegistry(cfg config.Config) *errhandling.Registry {
	var lg errhandling.ErrorLogger = errhandling.NopLogger{}
	if !cfg.Quiet() {
		lg = errhandling.NewZerologLogger(log.Logger)
	}
	return errhandling.Default(lg, cfg.Production())
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: access log carrying the request id
//  4. Gzip: wraps the writer before anything renders a body
//  5. Errors, Recovery: failures and panics go through the registry
//  6. Body size limiter
//  7. Metrics
//  8. Rate limiter
//  9. CORS and security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	reg := NewErrorRegistry(cfg)

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured access log
	r.Use(middleware.Logger())

	// 4) Compression (promhttp negotiates its own)
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 5) Error envelopes and panic recovery
	r.Use(middleware.Errors(reg))
	r.Use(middleware.Recovery(reg))

	// 6) Global body size limit (1 MiB)
	r.Use(limitBody(maxBodyBytes))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Token-bucket rate limiter per client IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP)
	r.Use(rl.Handler())

	// 9) CORS posture (allow all when no allowlist is configured)
	r.Use(cors.New(corsConfig(cfg.CORS)))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS: cfg.Security.EnableHSTS,
		HSTSMaxAge: cfg.Security.HSTSMaxAge,
		NoStore:    true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		_ = c.Error(apperr.NotFound("Route"))
		c.Abort()
	})
	r.NoMethod(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusMethodNotAllowed,
			envelope.Failure(CodeMethodNotAllowed, "Method "+c.Request.Method+" not allowed", nil))
	})

	// Liveness/health
	r.GET("/health", health)

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo ← db
	orderSvc := services.NewOrderService(repo.NewOrderRepo(db), cfg.IdempotencyTTL)
	widgetSvc := services.NewWidgetService(repo.NewWidgetRepo(db))

	api := groupWithPrefix(r, cfg.APIBasePath)
	handlers.NewOrderHandler(orderSvc).Register(api.Group("/orders"))
	handlers.NewWidgetHandler(widgetSvc).Register(api.Group("/widgets"))
}

type healthStatus struct {
	Status    string    `json:"status" example:"healthy"`
	Timestamp time.Time `json:"timestamp"`
}

// health godoc
// @ID       health
// @Summary  Liveness probe
// @Tags     Health
// @Produce  json
// @Success  200  {object}  handlers.SuccessResponse{data=httpapi.healthStatus}
// @Router   /health [get]
func health(c *gin.Context) {
	c.JSON(http.StatusOK, envelope.Success(healthStatus{Status: "healthy", Timestamp: time.Now().UTC()}))
}

func corsConfig(cfg config.CORSConfig) cors.Config {
	cc := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader, middleware.HeaderIdempotencyKey},
		ExposeHeaders:    []string{middleware.RequestIDHeader, middleware.HeaderIdempotentReplayed, "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = cfg.AllowedOrigins
	}
	return cc
}

// limitBody caps the request body at maxBytes; reads past the cap fail and
// surface as an invalid JSON body.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
