package xlog

import (
	"io"
	"io/ioutil"
	"os"

	"github.com/gravitational/trace"
	"github.com/sirupsen/logrus"
)

// Config configures the driver logger
type Config struct {
	// Level is the console log level
	Level string
	// File optionally receives every event at debug level
	File string
	// Quiet limits console output to warnings and errors
	Quiet bool
	// Console is where console events are written, stderr by default
	Console io.Writer
}

// NewLogger returns a logger which writes events above the configured level
// to console and everything to the optional log file.
// The returned closer releases the log file
func NewLogger(config Config) (*logrus.Logger, io.Closer, error) {
	level := logrus.InfoLevel
	if config.Level != "" {
		var err error
		level, err = logrus.ParseLevel(config.Level)
		if err != nil {
			return nil, nil, trace.BadParameter("invalid log level %q", config.Level)
		}
	}
	if config.Quiet && level > logrus.WarnLevel {
		level = logrus.WarnLevel
	}
	if config.Console == nil {
		config.Console = os.Stderr
	}

	log := ConsoleLogger(level, config.Console)
	if config.File == "" {
		return log, nopCloser{}, nil
	}

	f, err := os.OpenFile(config.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err != nil {
		return nil, nil, trace.ConvertSystemError(err)
	}
	fileLog := logrus.New()
	fileLog.Level = logrus.DebugLevel
	fileLog.Out = f
	fileLog.Formatter = &logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	}
	log.Hooks.Add(&forwardHook{fileLog, logrus.DebugLevel})
	return log, f, nil
}

// ConsoleLogger returns logger which writes to console for events above certain level
func ConsoleLogger(consoleLevel logrus.Level, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.Level = logrus.DebugLevel
	log.Out = ioutil.Discard

	consoleLog := logrus.New()
	consoleLog.Level = consoleLevel
	consoleLog.Out = out
	log.Hooks.Add(&forwardHook{consoleLog, consoleLevel})

	return log
}

// forwardHook replays events up to level on another logger
type forwardHook struct {
	target *logrus.Logger
	level  logrus.Level
}

func (hook *forwardHook) Fire(e *logrus.Entry) error {
	if e.Level > hook.level {
		return nil
	}

	log := hook.target.WithTime(e.Time)
	if e.Data != nil {
		log = log.WithFields(e.Data)
	}

	switch e.Level {
	case logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel:
		// the originating logger panics or exits on its own
		log.Error(e.Message)
	case logrus.WarnLevel:
		log.Warn(e.Message)
	case logrus.InfoLevel:
		log.Info(e.Message)
	case logrus.DebugLevel:
		log.Debug(e.Message)
	}

	return nil
}

// Levels returns logging levels supported by logrus
func (hook *forwardHook) Levels() []logrus.Level {
	return []logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
		logrus.WarnLevel,
		logrus.InfoLevel,
		logrus.DebugLevel,
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
