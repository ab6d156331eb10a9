package log

import (
	"context"
	"os"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type ctxLoggerKey struct{}

type Logger struct {
	*zap.Logger
}

// NewLog builds the process logger from the app.log.* keys.
func NewLog(conf *viper.Viper) *Logger {
	lp := conf.GetString("app.log.log_file_name")
	lv := conf.GetString("app.log.level")
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(lv)); err != nil {
		level = zapcore.InfoLevel
	}

	var sinks []zapcore.WriteSyncer
	if lp != "" {
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   lp,
			MaxSize:    conf.GetInt("app.log.max_size"),
			MaxBackups: conf.GetInt("app.log.max_backups"),
			MaxAge:     conf.GetInt("app.log.max_age"),
			Compress:   conf.GetBool("app.log.compress"),
		}))
	}
	if lp == "" || conf.GetString("app.env") != "prod" {
		sinks = append(sinks, zapcore.AddSync(os.Stdout))
	}

	var encoder zapcore.Encoder
	if conf.GetString("app.log.encoding") == "console" {
		encoder = zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "Logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseColorLevelEncoder,
			EncodeTime:     timeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.FullCallerEncoder,
		})
	} else {
		encoder = zapcore.NewJSONEncoder(zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.EpochTimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		})
	}
	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(sinks...), level)
	if conf.GetString("app.env") != "prod" {
		return &Logger{zap.New(core, zap.Development(), zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))}
	}
	return &Logger{zap.New(core, zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))}
}

// New wraps an existing zap logger, mostly for tests.
func New(l *zap.Logger) *Logger {
	return &Logger{l}
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05.000000000"))
}

// WithValue attaches fields to ctx so later WithContext calls pick them up.
func (l *Logger) WithValue(ctx context.Context, fields ...zapcore.Field) context.Context {
	return context.WithValue(ctx, ctxLoggerKey{}, l.WithContext(ctx).With(fields...))
}

// WithContext returns the logger stored in ctx, or l itself.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}
	if zl, ok := ctx.Value(ctxLoggerKey{}).(*zap.Logger); ok {
		return &Logger{zl}
	}
	return l
}
