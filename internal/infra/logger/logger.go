package logger

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

const serviceName = "shortkey"

// Config drives how the zap logger is built.
type Config struct {
	Development bool
	Level       string
	Encoding    string
	Service     string
}

// ConfigFromEnv reads APP_ENV, LOG_LEVEL and LOG_ENCODING. Anything other than
// APP_ENV=production yields a development console logger.
func ConfigFromEnv() Config {
	dev := !strings.EqualFold(os.Getenv("APP_ENV"), "production")
	encoding := os.Getenv("LOG_ENCODING")
	if encoding == "" && dev {
		encoding = "console"
	}
	return Config{
		Development: dev,
		Level:       os.Getenv("LOG_LEVEL"),
		Encoding:    encoding,
		Service:     serviceName,
	}
}

var global atomic.Pointer[zap.Logger]

// MustInit builds the global logger and panics when cfg is unusable.
func MustInit(cfg Config) *zap.Logger {
	l, err := New(cfg)
	if err != nil {
		panic(err)
	}
	if prev := global.Swap(l); prev != nil {
		_ = prev.Sync()
	}
	return l
}

// L returns the global logger, or a no-op logger before MustInit.
func L() *zap.Logger {
	return OrNop(global.Load())
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// Sync flushes the global logger. Terminals cannot fsync; that is not an error.
func Sync() error {
	l := global.Load()
	if l == nil {
		return nil
	}
	err := l.Sync()
	if errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EINVAL) || errors.Is(err, os.ErrInvalid) {
		return nil
	}
	return err
}

// New returns a zap.Logger configured according to cfg.
func New(cfg Config) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if cfg.Encoding != "" {
		zapCfg.Encoding = cfg.Encoding
	}
	zapCfg.EncoderConfig = encoderConfig(zapCfg.Encoding == "console", colorEnabled())

	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("logger: invalid level %q: %w", cfg.Level, err)
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}
	if cfg.Service != "" && !cfg.Development {
		zapCfg.InitialFields = map[string]interface{}{"service": cfg.Service}
	}

	return zapCfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
}

func encoderConfig(console, color bool) zapcore.EncoderConfig {
	cfg := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "logger",
		CallerKey:        "caller",
		MessageKey:       "msg",
		StacktraceKey:    "stack",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		EncodeLevel:      zapcore.LowercaseLevelEncoder,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		ConsoleSeparator: " ",
	}
	if !console {
		return cfg
	}

	cfg.ConsoleSeparator = " | "
	cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("2006-01-02 15:04:05.000"))
	}
	cfg.EncodeLevel = func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(levelLabel(level, color))
	}
	return cfg
}

var levelColors = map[zapcore.Level]string{
	zapcore.DebugLevel:  "\x1b[36m",
	zapcore.InfoLevel:   "\x1b[32m",
	zapcore.WarnLevel:   "\x1b[33m",
	zapcore.ErrorLevel:  "\x1b[31m",
	zapcore.DPanicLevel: "\x1b[35m",
	zapcore.PanicLevel:  "\x1b[35m",
	zapcore.FatalLevel:  "\x1b[31m",
}

func levelLabel(level zapcore.Level, color bool) string {
	label := fmt.Sprintf("%-5s", level.CapitalString())
	code, ok := levelColors[level]
	if !color || !ok {
		return label
	}
	return code + label + "\x1b[0m"
}

// colorEnabled honours NO_COLOR and only colours real terminals.
func colorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}
