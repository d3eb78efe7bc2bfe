package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var Log *logrus.Logger

// Options задаёт уровень и формат вывода.
type Options struct {
	Level  string
	Pretty bool
	Output io.Writer
}

// Init создаёт глобальный логгер. JSON по умолчанию, текст с полными метками
// времени при Pretty. Неизвестный уровень понижается до info.
func Init(opts Options) *logrus.Logger {
	l := logrus.New()

	lvl, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if opts.Pretty {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	if opts.Output != nil {
		l.SetOutput(opts.Output)
	} else {
		l.SetOutput(os.Stdout)
	}

	Log = l
	return l
}

// Get возвращает глобальный логгер, а до Init стандартный логгер logrus.
func Get() *logrus.Logger {
	if Log == nil {
		return logrus.StandardLogger()
	}
	return Log
}

// Component возвращает запись с полем component для фоновых подсистем.
func Component(name string) *logrus.Entry {
	return Get().WithField("component", name)
}
