package xlog

import (
	"fmt"
	"io/ioutil"
	"testing"

	"github.com/sirupsen/logrus"
)

type TestingHook struct {
	t *testing.T
}

func (hook *TestingHook) Fire(e *logrus.Entry) error {
	hook.t.Log(e.Level, e.Message, fmt.Sprint(e.Data))
	return nil
}

// Levels returns logging levels supported by logrus
func (hook *TestingHook) Levels() []logrus.Level {
	return []logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
		logrus.WarnLevel,
		logrus.InfoLevel,
		logrus.DebugLevel,
	}
}

// NewTestLogger returns logger which sends every event to the test log
func NewTestLogger(t *testing.T, fields logrus.Fields) logrus.FieldLogger {
	log := logrus.New()
	log.Level = logrus.DebugLevel
	log.Out = ioutil.Discard
	log.Hooks.Add(&TestingHook{t})
	return log.WithFields(fields)
}
