package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger settings.
type Config struct {
	Service    string // stamped on every entry as "service"
	Level      string // debug, info, warn, error
	Encoding   string // json or console
	OutputPath string // stdout when empty
}

// FromEnv reads LOG_LEVEL and LOG_ENCODING. The logger is built before the
// configuration is loaded, so it cannot come from config.Config.
func FromEnv(service string) Config {
	return Config{
		Service:  service,
		Level:    os.Getenv("LOG_LEVEL"),
		Encoding: os.Getenv("LOG_ENCODING"),
	}
}

// New builds a zap.Logger from cfg. Unknown levels fall back to info,
// unknown encodings fall back to json.
func New(cfg Config) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	logLevel := strings.ToLower(cfg.Level)
	if logLevel == "" {
		logLevel = "info"
	}
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		// The logger does not exist yet, so report to stderr.
		fmt.Fprintf(os.Stderr, "Invalid log level '%s', using 'info'. Error: %v\n", cfg.Level, err)
		level.SetLevel(zap.InfoLevel)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	encoding := strings.ToLower(cfg.Encoding)
	if encoding != "console" && encoding != "json" {
		encoding = "json"
	}

	outputPath := cfg.OutputPath
	if outputPath == "" {
		outputPath = "stdout"
	}

	var initial map[string]interface{}
	if cfg.Service != "" {
		initial = map[string]interface{}{"service": cfg.Service}
	}

	zapConfig := zap.Config{
		Level:             level,
		Development:       false,
		DisableCaller:     true,
		DisableStacktrace: true,
		Encoding:          encoding,
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{outputPath},
		ErrorOutputPaths:  []string{"stderr"},
		InitialFields:     initial,
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// WithAccount returns a child logger tagged with the account and, when set, the job.
func WithAccount(log *zap.Logger, accountID, jobID string) *zap.Logger {
	fields := []zap.Field{zap.String("account_id", accountID)}
	if jobID != "" {
		fields = append(fields, zap.String("job_id", jobID))
	}
	return log.With(fields...)
}
