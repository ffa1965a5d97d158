package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type ZapLogger struct {
	sugarLogger *zap.SugaredLogger
	fileWriter  *lumberjack.Logger
}

var _ Logger = (*ZapLogger)(nil)

// NewZapLogger builds a logger writing to the console and to a rotated file
// under <LogDir>/logs/<process>/<process>.log.
func NewZapLogger(config LoggerConfig) (*ZapLogger, error) {
	if config.ProcessName == "" {
		return nil, fmt.Errorf("process name is required")
	}
	baseDir := config.LogDir
	if baseDir == "" {
		baseDir = BaseDataDir
	}

	logDir := filepath.Join(baseDir, LogsDir, string(config.ProcessName))
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, string(config.ProcessName)+".log"),
		MaxSize:    orDefault(config.MaxSizeMB, 100),
		MaxAge:     orDefault(config.MaxAgeDays, 28),
		MaxBackups: orDefault(config.MaxBackups, 5),
	}

	level := getLogLevel(config.IsDevelopment)

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(fileEncoderConfig()),
		zapcore.AddSync(fileWriter),
		level,
	)

	var consoleEncoder zapcore.Encoder
	if config.IsDevelopment {
		consoleEncoder = zapcore.NewConsoleEncoder(consoleEncoderConfig(true))
	} else {
		consoleEncoder = zapcore.NewJSONEncoder(consoleEncoderConfig(false))
	}
	consoleCore := zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), level)

	logger := zap.New(
		zapcore.NewTee(consoleCore, fileCore),
		zap.AddCaller(),
		zap.AddCallerSkip(1),
	).Named(string(config.ProcessName))

	return &ZapLogger{
		sugarLogger: logger.Sugar(),
		fileWriter:  fileWriter,
	}, nil
}

func getLogLevel(isDevelopment bool) zapcore.Level {
	if isDevelopment {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}

func consoleEncoderConfig(colors bool) zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.UTC().Format(TimeFormat))
	}
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	if colors {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return cfg
}

func fileEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.TimeKey = "time"
	return cfg
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func (z *ZapLogger) Debug(msg string, keysAndValues ...interface{}) {
	z.sugarLogger.Debugw(msg, keysAndValues...)
}

func (z *ZapLogger) Info(msg string, keysAndValues ...interface{}) {
	z.sugarLogger.Infow(msg, keysAndValues...)
}

func (z *ZapLogger) Warn(msg string, keysAndValues ...interface{}) {
	z.sugarLogger.Warnw(msg, keysAndValues...)
}

func (z *ZapLogger) Error(msg string, keysAndValues ...interface{}) {
	z.sugarLogger.Errorw(msg, keysAndValues...)
}

func (z *ZapLogger) Fatal(msg string, keysAndValues ...interface{}) {
	z.sugarLogger.Fatalw(msg, keysAndValues...)
}

func (z *ZapLogger) Debugf(template string, args ...interface{}) {
	z.sugarLogger.Debugf(template, args...)
}

func (z *ZapLogger) Infof(template string, args ...interface{}) {
	z.sugarLogger.Infof(template, args...)
}

func (z *ZapLogger) Warnf(template string, args ...interface{}) {
	z.sugarLogger.Warnf(template, args...)
}

func (z *ZapLogger) Errorf(template string, args ...interface{}) {
	z.sugarLogger.Errorf(template, args...)
}

func (z *ZapLogger) Fatalf(template string, args ...interface{}) {
	z.sugarLogger.Fatalf(template, args...)
}

func (z *ZapLogger) With(tags ...any) Logger {
	return &ZapLogger{
		sugarLogger: z.sugarLogger.With(tags...),
		fileWriter:  z.fileWriter,
	}
}

// Sync flushes buffered entries and closes the rotated file.
func (z *ZapLogger) Sync() error {
	// stdout sync errors are expected on most terminals
	_ = z.sugarLogger.Sync()
	if z.fileWriter != nil {
		return z.fileWriter.Close()
	}
	return nil
}
