package logrus

import (
	"github.com/sirupsen/logrus"

	hashtable "github.com/Youniwemi/HashTable"
)

type LogrusLogger struct{ E *logrus.Entry }

var _ hashtable.Logger = LogrusLogger{}

func (l LogrusLogger) Debug(msg string, f hashtable.Fields) {
	l.E.WithFields(logrus.Fields(f)).Debug(msg)
}
func (l LogrusLogger) Info(msg string, f hashtable.Fields) {
	l.E.WithFields(logrus.Fields(f)).Info(msg)
}
func (l LogrusLogger) Warn(msg string, f hashtable.Fields) {
	l.E.WithFields(logrus.Fields(f)).Warn(msg)
}
func (l LogrusLogger) Error(msg string, f hashtable.Fields) {
	l.E.WithFields(logrus.Fields(f)).Error(msg)
}
