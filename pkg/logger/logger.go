package logger

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	memberKey    ctxKey = "member"
)

// Config mirrors config.LoggerConfig but avoids importing the config package here.
type Config struct {
	Level    string
	Encoding string
	// Output is "stdout" or "stderr". The CLI logs to stderr so its own output stays clean.
	Output string
}

// New builds a zap.Logger using the provided configuration.
func New(cfg Config) (*zap.Logger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	level := zapcore.InfoLevel
	if err := level.Set(cfg.Level); err != nil {
		// fall back to info level if parsing fails
		level = zapcore.InfoLevel
	}

	var encoder zapcore.Encoder
	switch cfg.Encoding {
	case "console":
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	default:
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	sink := os.Stdout
	if cfg.Output == "stderr" {
		sink = os.Stderr
	}

	core := zapcore.NewCore(
		encoder,
		zapcore.AddSync(zapcore.Lock(sink)),
		level,
	)

	return zap.New(core, zap.AddCaller()), nil
}

// ContextWithRequestID attaches a request ID to the provided context.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// ContextWithMember attaches the authenticated partner name to the context.
func ContextWithMember(ctx context.Context, member string) context.Context {
	return context.WithValue(ctx, memberKey, member)
}

// WithContext enriches the logger with the request ID and member stored in the context.
func WithContext(ctx context.Context, base *zap.Logger) *zap.Logger {
	if ctx == nil || base == nil {
		return base
	}
	out := base
	if reqID, ok := ctx.Value(requestIDKey).(string); ok && reqID != "" {
		out = out.With(zap.String("request_id", reqID))
	}
	if member, ok := ctx.Value(memberKey).(string); ok && member != "" {
		out = out.With(zap.String("member", member))
	}
	return out
}
