// internal/utils/logger.go
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"device-service/internal/config"
)

// LoggerManager manages application logging.
type LoggerManager struct {
	logger *zap.Logger
	config *config.LoggingConfig
}

// NewLogger creates a new logger instance based on configuration.
func NewLogger(cfg *config.LoggingConfig) (*zap.Logger, error) {
	manager := &LoggerManager{config: cfg}

	logger, err := manager.createLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	manager.logger = logger
	return logger, nil
}

func (lm *LoggerManager) createLogger() (*zap.Logger, error) {
	encoderConfig := lm.getEncoderConfig()

	var encoder zapcore.Encoder
	switch lm.config.Format {
	case "console":
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	writeSyncer, err := lm.getWriteSyncer()
	if err != nil {
		return nil, fmt.Errorf("failed to create write syncer: %w", err)
	}

	level, err := lm.getLogLevel()
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}

	core := zapcore.NewCore(encoder, writeSyncer, level)
	return zap.New(core, lm.getLoggerOptions()...), nil
}

func (lm *LoggerManager) getEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()

	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	cfg.LevelKey = "level"
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	cfg.CallerKey = "caller"
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	cfg.MessageKey = "message"
	cfg.StacktraceKey = "stacktrace"

	if lm.config.Format == "console" {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	}

	return cfg
}

func (lm *LoggerManager) getWriteSyncer() (zapcore.WriteSyncer, error) {
	switch lm.config.Output {
	case "stdout":
		return zapcore.AddSync(os.Stdout), nil
	case "stderr":
		return zapcore.AddSync(os.Stderr), nil
	default:
		if lm.config.Output == "" {
			lm.config.Output = "./logs/label-driver.log"
		}

		logDir := filepath.Dir(lm.config.Output)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		lumber := &lumberjack.Logger{
			Filename:   lm.config.Output,
			MaxSize:    lm.config.MaxSize,
			MaxBackups: lm.config.MaxBackups,
			MaxAge:     lm.config.MaxAge,
			Compress:   lm.config.Compress,
		}

		return zapcore.AddSync(lumber), nil
	}
}

func (lm *LoggerManager) getLogLevel() (zapcore.Level, error) {
	switch lm.config.Level {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "fatal":
		return zapcore.FatalLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level: %s", lm.config.Level)
	}
}

func (lm *LoggerManager) getLoggerOptions() []zap.Option {
	return []zap.Option{
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	}
}

// JobLogger wraps zap.Logger with print-job-specific fields, replacing the
// teacher's device-fleet DeviceLogger with this driver's single-device
// equivalent.
type JobLogger struct {
	*zap.Logger
	jobID string
	slot  int
}

// NewJobLogger creates a job-specific logger.
func NewJobLogger(baseLogger *zap.Logger, jobID string, slot int) *JobLogger {
	logger := baseLogger.With(
		zap.String("job_id", jobID),
		zap.Int("slot", slot),
		zap.String("component", "job"),
	)
	return &JobLogger{Logger: logger, jobID: jobID, slot: slot}
}

// LogResult logs a job's terminal outcome.
func (jl *JobLogger) LogResult(duration time.Duration, success bool, err error) {
	fields := []zap.Field{
		zap.Duration("duration", duration),
		zap.Bool("success", success),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
		jl.Error("print job failed", fields...)
	} else {
		jl.Info("print job completed", fields...)
	}
}

// SerialLogger wraps zap.Logger with per-device serial operation fields,
// replacing the teacher's OperationLogger.
type SerialLogger struct {
	logger    *zap.Logger
	device    string
	startTime time.Time
}

// NewSerialLogger creates a device-specific serial logger.
func NewSerialLogger(baseLogger *zap.Logger, device string) *SerialLogger {
	logger := baseLogger.With(
		zap.String("device", device),
		zap.String("component", "serial"),
	)
	return &SerialLogger{logger: logger, device: device, startTime: time.Now()}
}

// Success logs a successful serial operation.
func (sl *SerialLogger) Success(op string, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.String("operation", op),
		zap.Duration("elapsed", time.Since(sl.startTime)),
	}, fields...)
	sl.logger.Debug("serial operation completed", allFields...)
}

// Error logs a failed serial operation.
func (sl *SerialLogger) Error(op string, err error, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.String("operation", op),
		zap.Error(err),
	}, fields...)
	sl.logger.Warn("serial operation failed", allFields...)
}

// LoggerWithRequestID adds request ID to logger.
func LoggerWithRequestID(logger *zap.Logger, requestID string) *zap.Logger {
	return logger.With(zap.String("request_id", requestID))
}

// LogError is a helper function for consistent error logging.
func LogError(logger *zap.Logger, message string, err error, fields ...zap.Field) {
	allFields := append([]zap.Field{zap.Error(err)}, fields...)
	logger.Error(message, allFields...)
}

// LogPanic logs and recovers from panics.
func LogPanic(logger *zap.Logger) {
	if r := recover(); r != nil {
		logger.Fatal("application panic",
			zap.Any("panic", r),
			zap.Stack("stacktrace"),
		)
	}
}

// CloseLogger flushes any buffered log entries.
func CloseLogger(logger *zap.Logger) error {
	return logger.Sync()
}
