package config

import (
	"os" // Log output

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// ConfigureLogger sets the logrus formatter and level: JSON in production, text otherwise
func ConfigureLogger(cfg *Config) {
	logrus.SetOutput(os.Stdout)
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithField("log_level", cfg.LogLevel).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
