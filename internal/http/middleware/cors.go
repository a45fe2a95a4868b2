package middleware

import (
	"net/http"
	"slices"

	"github.com/coderr/marketplace-api/internal/config"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// CORS returns a CORS middleware configured from the application config.
// The request id header is always exposed so browser clients can report it.
func CORS(cfg *config.CORSConfig, environment string, logger *zap.Logger) func(http.Handler) http.Handler {
	options := cors.Options{
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   cfg.ExposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}
	if !slices.Contains(options.ExposedHeaders, RequestIDHeader) {
		options.ExposedHeaders = append(slices.Clone(options.ExposedHeaders), RequestIDHeader)
	}

	dev := isDevelopment(environment)
	switch {
	case slices.Contains(cfg.AllowedOrigins, "*"):
		if !dev {
			logger.Warn("cors wildcard origin outside development",
				zap.String("environment", environment))
		}
		options.AllowOriginFunc = anyOrigin
	case len(cfg.AllowedOrigins) > 0:
		options.AllowedOrigins = cfg.AllowedOrigins
		logger.Info("cors configured with explicit origins",
			zap.Strings("origins", cfg.AllowedOrigins))
	case dev:
		options.AllowOriginFunc = anyOrigin
		logger.Info("cors allows all origins in development")
	default:
		// An empty AllowedOrigins list means "*" to go-chi/cors
		options.AllowOriginFunc = func(*http.Request, string) bool { return false }
		logger.Warn("cors has no allowed origins, cross-origin requests are denied",
			zap.String("environment", environment))
	}

	return cors.Handler(options)
}

func anyOrigin(_ *http.Request, origin string) bool {
	return origin != ""
}

func isDevelopment(environment string) bool {
	switch environment {
	case "", "development", "local", "test":
		return true
	}
	return false
}
