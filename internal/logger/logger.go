package logger

import (
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CorrelationIDHeader is echoed on every response so clients can reference
// a request in bug reports.
const CorrelationIDHeader = "X-Correlation-ID"

const correlationIDKey = "correlationID"

var log *zap.Logger = zap.NewNop()

// Init builds the process logger. LOG_LEVEL selects the minimum level
// (debug, info, warn, error); production encoding otherwise.
func Init() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if raw, ok := os.LookupEnv("LOG_LEVEL"); ok {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(raw)))); err == nil {
			cfg.Level = zap.NewAtomicLevelAt(lvl)
		}
	}

	built, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	log = built
	return built, nil
}

// L returns the process logger.
func L() *zap.Logger {
	return log
}

// Middleware assigns a correlation ID to each request, echoes it in the
// response headers, and logs request completion.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(CorrelationIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(correlationIDKey, id)
		c.Header(CorrelationIDHeader, id)

		start := time.Now()
		c.Next()

		log.Info("request",
			zap.String("correlation_id", id),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

// CorrelationID returns the request's correlation ID, or "" outside the middleware.
func CorrelationID(c *gin.Context) string {
	if v, ok := c.Get(correlationIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
