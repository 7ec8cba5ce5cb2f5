package log

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	EncodingConsole = "console"
	EncodingJSON    = "json"
)

// callerSkip is the number of frames between runtime.Caller inside the
// encoder and the code that called one of the package level functions.
const callerSkip = 8

var l atomic.Pointer[logger]

func init() {
	l.Store(newLogger(zapcore.InfoLevel, EncodingConsole))
	redirect(l.Load())
}

type logger struct {
	logLevel    zapcore.Level
	logEncoding string

	*zap.Logger
}

// Init replaces the package logger with one using the given level
// ("debug", "info", "warn", "error") and encoding ("console" or "json").
func Init(level, encoding string) error {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("failed to parse log level %q: %w", level, err)
	}

	if _, err := getEncoder(encoding); err != nil {
		return err
	}

	lg := newLogger(lvl, encoding)
	l.Store(lg)
	redirect(lg)

	return nil
}

// Replace makes lg the package logger until the returned func restores the
// previous one. It does not touch the zap globals.
func Replace(lg *zap.Logger) (restore func()) {
	prev := l.Swap(&logger{
		logLevel:    lg.Level(),
		logEncoding: EncodingConsole,
		Logger:      lg,
	})

	return func() { l.Store(prev) }
}

func redirect(lg *logger) {
	zap.ReplaceGlobals(lg.Logger)

	if _, err := zap.RedirectStdLogAt(lg.Logger, zapcore.InfoLevel); err != nil {
		panic(err)
	}
}

func newLogger(logLevel zapcore.Level, encoding string) *logger {
	encoder, err := getEncoder(encoding)
	if err != nil {
		panic(fmt.Sprintf("failed to parse encoder: %v", err))
	}

	zapLogger := zap.New(zapcore.NewTee(
		zapcore.NewCore(
			encoder,
			zapcore.Lock(os.Stdout),
			zap.LevelEnablerFunc(func(level zapcore.Level) bool {
				return level >= logLevel && level < zapcore.ErrorLevel
			}),
		),
		zapcore.NewCore(
			encoder,
			zapcore.Lock(os.Stderr),
			zap.LevelEnablerFunc(func(level zapcore.Level) bool {
				return level >= logLevel && level >= zapcore.ErrorLevel
			}),
		),
	))

	zapLogger = zapLogger.WithOptions(zap.AddCaller())

	return &logger{
		logLevel:    logLevel,
		logEncoding: encoding,
		Logger:      zapLogger,
	}
}

func getEncoder(encoding string) (zapcore.Encoder, error) {
	encoderConfig := zapcore.EncoderConfig{
		MessageKey: "message",

		LevelKey:    "level",
		EncodeLevel: zapcore.CapitalLevelEncoder,

		TimeKey:    "time",
		EncodeTime: zapcore.ISO8601TimeEncoder,

		CallerKey:      "caller",
		EncodeCaller:   customEncodeCaller,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	switch encoding {
	case EncodingJSON:
		return zapcore.NewJSONEncoder(encoderConfig), nil
	case EncodingConsole:
		return zapcore.NewConsoleEncoder(encoderConfig), nil
	default:
		return nil, fmt.Errorf("failed to find encoder: %q", encoding)
	}
}

// Level returns the minimal enabled level of the current logger.
func Level() zapcore.Level { return l.Load().logLevel }

func Debug(msg string, fields ...zap.Field) { l.Load().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { l.Load().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { l.Load().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { l.Load().Error(msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { l.Load().Fatal(msg, fields...) }
func Panic(msg string, fields ...zap.Field) { l.Load().Panic(msg, fields...) }
func Sync() error {
	return l.Load().Sync()
}

func customEncodeCaller(_ zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
	file, _, line := findCaller()
	enc.AppendString(file + ":" + strconv.Itoa(line))
}

func findCaller() (string, string, int) {
	var (
		pc       uintptr
		file     string
		function string
		line     int
	)

	pc, file, line = getCaller(callerSkip)

	if pc != 0 {
		frames := runtime.CallersFrames([]uintptr{pc})
		frame, _ := frames.Next()
		function = frame.Function
	}

	return file, function, line
}

// getCaller returns the caller's file trimmed to "dir/file.go".
func getCaller(skip int) (uintptr, string, int) {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return 0, "", 0
	}

	n := 0
	for i := len(file) - 1; i > 0; i-- {
		if file[i] == '/' {
			n++
			if n >= 2 {
				file = file[i+1:]
				break
			}
		}
	}

	return pc, file, line
}
