package internal

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

type Config struct {
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=3000"`
	JWTSecret            string        `env:"JWT_SECRET_KEY,required=true"`
	AuthTokenDuration    time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=256"`
	WriteTimeout         time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	PongTimeout          time.Duration `env:"PONG_TIMEOUT,default=60s"`
	ReportInterval       time.Duration `env:"REPORT_INTERVAL,default=30s"`
}

// LoggerFromString builds the process slog logger for a level name,
// defaulting to INFO on anything unrecognized.
func LoggerFromString(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		l = slog.LevelDebug
	case "WARN":
		l = slog.LevelWarn
	case "ERROR":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: l}))
}
