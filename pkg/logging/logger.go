package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger provides leveled, component-scoped logging for pilot.
// Loggers created with NewLogger write to a session-specific file in ~/.pilot/logs/
// through a rotating sink shared by every component of the process.
type Logger struct {
	sessionID string
	component string
	base      *zap.Logger
	sugar     *zap.SugaredLogger
	writer    io.Writer
	logPath   string
	closeOnce sync.Once
}

const (
	logFileSuffix  = "-pilot.log"
	maxLogSizeMB   = 50
	maxLogBackups  = 3
	maxLogAgeDays  = 14
	timeLayout     = "2006-01-02 15:04:05.000"
	appDirName     = ".pilot"
	logSubdirName  = "logs"
	fileMode       = 0600
	directoryPerms = 0750
)

var (
	// Global session ID for the current execution
	sessionID     string
	sessionIDOnce sync.Once

	// logDir is the directory where log files are stored
	logDir string

	initOnce sync.Once
	initErr  error

	// sink is shared so that components never rotate the same file independently
	sinkMu sync.Mutex
	sink   *lumberjack.Logger
)

func getSessionID() string {
	sessionIDOnce.Do(func() {
		sessionID = uuid.New().String()
	})
	return sessionID
}

func initLogDirectory() error {
	initOnce.Do(func() {
		if logDir != "" {
			initErr = os.MkdirAll(logDir, directoryPerms)
			return
		}

		homeDir, err := os.UserHomeDir()
		if err != nil {
			initErr = fmt.Errorf("failed to get home directory: %w", err)
			return
		}

		logDir = filepath.Join(homeDir, appDirName, logSubdirName)
		if err := os.MkdirAll(logDir, directoryPerms); err != nil {
			initErr = fmt.Errorf("failed to create log directory: %w", err)
			return
		}
	})
	return initErr
}

func sharedSink(path string) *lumberjack.Logger {
	sinkMu.Lock()
	defer sinkMu.Unlock()

	if sink == nil || sink.Filename != path {
		sink = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxLogSizeMB,
			MaxBackups: maxLogBackups,
			MaxAge:     maxLogAgeDays,
		}
	}
	return sink
}

// encoderConfig renders entries as "[time] [LEVEL] [component] message".
func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.ConsoleSeparator = " "
	cfg.CallerKey = zapcore.OmitKey
	cfg.StacktraceKey = zapcore.OmitKey
	cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString("[" + t.Format(timeLayout) + "]")
	}
	cfg.EncodeLevel = func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString("[" + level.CapitalString() + "]")
	}
	cfg.EncodeName = func(name string, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString("[" + name + "]")
	}
	return cfg
}

// NewLogger creates a new logger for a specific component.
// The logger writes to ~/.pilot/logs/<session-id>-pilot.log
//
// If the log directory cannot be created or the log file cannot be opened,
// it returns a fallback logger that writes to stderr along with the error.
func NewLogger(component string) (*Logger, error) {
	if err := initLogDirectory(); err != nil {
		return newFallbackLogger(component, err), err
	}

	sessID := getSessionID()
	logPath := filepath.Join(logDir, sessID+logFileSuffix)

	// lumberjack opens lazily; touch the file now so failures surface here
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, fileMode)
	if err != nil {
		err = fmt.Errorf("failed to open log file: %w", err)
		return newFallbackLogger(component, err), err
	}
	_ = file.Close()

	out := sharedSink(logPath)
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig()),
		zapcore.AddSync(out),
		zapcore.DebugLevel,
	)

	return newLogger(sessID, component, zap.New(core), out, logPath), nil
}

func newFallbackLogger(component string, err error) *Logger {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig()),
		zapcore.Lock(os.Stderr),
		zapcore.DebugLevel,
	)
	l := newLogger(getSessionID(), component, zap.New(core), os.Stderr, "")
	l.Warnf("Failed to initialize file logging: %v", err)
	l.Warnf("Falling back to stderr logging")
	return l
}

func newLogger(sessID, component string, base *zap.Logger, w io.Writer, logPath string) *Logger {
	if component != "" {
		base = base.Named(component)
	}
	return &Logger{
		sessionID: sessID,
		component: component,
		base:      base,
		sugar:     base.Sugar(),
		writer:    w,
		logPath:   logPath,
	}
}

// FromZap wraps an existing zap logger, for callers that already own one.
func FromZap(component string, z *zap.Logger) *Logger {
	if z == nil {
		z = zap.NewNop()
	}
	return newLogger(getSessionID(), component, z, os.Stderr, "")
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return newLogger("", "", zap.NewNop(), io.Discard, "")
}

// Named returns a child logger whose component is nested under l's.
func (l *Logger) Named(component string) *Logger {
	name := component
	if l.component != "" {
		name = l.component + "." + component
	}
	base := l.base.Named(component)
	return &Logger{
		sessionID: l.sessionID,
		component: name,
		base:      base,
		sugar:     base.Sugar(),
		writer:    l.writer,
		logPath:   l.logPath,
	}
}

// Printf logs a formatted message at info level.
func (l *Logger) Printf(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

// Debugf logs a debug-level message
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.sugar.Debugf(format, v...)
}

// Infof logs an info-level message
func (l *Logger) Infof(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.sugar.Warnf(format, v...)
}

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.sugar.Errorf(format, v...)
}

// Zap exposes the underlying structured logger, named after l's component,
// for APIs that need a *zap.Logger or a standard library logger built from one.
func (l *Logger) Zap() *zap.Logger {
	return l.base
}

// Writer returns an io.Writer that writes to this logger's destination
func (l *Logger) Writer() io.Writer {
	return l.writer
}

// SessionID returns the current session ID
func (l *Logger) SessionID() string {
	return l.sessionID
}

// Component returns the logger's component name.
func (l *Logger) Component() string {
	return l.component
}

// LogPath returns the path to the log file
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close flushes buffered entries. Safe to call multiple times.
// The shared file sink stays open for other components; see Shutdown.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.logPath != "" {
			err = l.base.Sync()
		}
	})
	return err
}

// Shutdown closes the shared log file. Call once at process exit.
func Shutdown() error {
	sinkMu.Lock()
	defer sinkMu.Unlock()

	if sink == nil {
		return nil
	}
	err := sink.Close()
	sink = nil
	return err
}

// GetSessionID returns the current global session ID
func GetSessionID() string {
	return getSessionID()
}

// GetLogDirectory returns the directory where logs are stored
func GetLogDirectory() (string, error) {
	if err := initLogDirectory(); err != nil {
		return "", err
	}
	return logDir, nil
}
