package main

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/vchain/internal/config"
)

// newLogger builds the process logger. Level and format were validated by config.Load.
func newLogger(c *config.Config, out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)

	if lvl, err := logrus.ParseLevel(c.LogLevel); err == nil {
		l.SetLevel(lvl)
	}

	if c.LogFormat == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return l
}
