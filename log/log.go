package log

import (
	"path"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// LogFileName is the log file name
	LogFileName = "logevent.log"
	// LogFileMaxSize is the max size of log file
	LogFileMaxSize int = 100 //mb
	// LogMaxBackups is the max backup count of log file
	LogMaxBackups = 20
	// LogMaxAge is the max time to save log file
	LogMaxAge = 28 //days
)

// Log is global var of log
var Log *zap.SugaredLogger

// Logger is global var of zap log
var Logger *zap.Logger

func init() {
	Logger = zap.NewNop()
	Log = Logger.Sugar()
}

func CallerEncoder(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(strings.Join([]string{caller.TrimmedPath()}, ":"))
}

// InitLogger initializes the diagnostic log. Output goes to a rotating file under
// logDir, never to stdout.
func InitLogger(logDir string, logLevel string) error {
	var level zapcore.Level

	if logDir == "" {
		logDir = "./logs"
	}
	if logLevel == "" {
		logLevel = "info"
	}

	logFileName := path.Join(logDir, LogFileName)
	loggerConfig := zap.NewProductionConfig()
	loggerConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	loggerConfig.EncoderConfig.EncodeCaller = CallerEncoder

	if err := level.Set(logLevel); err != nil {
		return err
	}

	writer := &lumberjack.Logger{
		Filename:   logFileName,
		MaxSize:    LogFileMaxSize,
		MaxAge:     LogMaxAge,
		MaxBackups: LogMaxBackups,
		LocalTime:  true,
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(loggerConfig.EncoderConfig),
		zapcore.AddSync(writer),
		level,
	)

	Logger = zap.New(core, zap.AddCaller())
	zap.RedirectStdLog(Logger)
	Log = Logger.Sugar()
	return nil
}

func UnInitLoggers() {
	_ = Log.Sync()
}

// Writer adapts the zap logger to io.Writer, for echo's logger middleware.
type Writer struct {
	LogFunc func(msg string, fields ...zapcore.Field)
}

func NewWriter() *Writer {
	return &Writer{LogFunc: Logger.WithOptions(
		zap.AddCallerSkip(2 + 2),
	).Info}
}

func (w *Writer) Write(p []byte) (int, error) {
	w.LogFunc(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
