// Package logging configures the single logrus instance shared by both
// process entry points, mirroring go/flow-ingester's mbp.InitLog use of
// logrus as the sole logging surface.
package logging

import (
	"github.com/sirupsen/logrus"

	"github.com/eduflow/certflow/internal/config"
)

// Init configures logrus's standard logger in place and returns it for
// constructors that want an explicit instance rather than the package
// default.
func Init(cfg config.Config) *logrus.Logger {
	var log = logrus.StandardLogger()

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Log.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return log
}
