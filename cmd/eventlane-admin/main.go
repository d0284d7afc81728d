package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/eventlane/eventlane/pkg/cli"
)

func main() {
	logger := setupLogger(os.Getenv("EVENTLANE_LOG_LEVEL"))

	rootCmd := cli.NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		logger.Fatalf("Error: %v", err)
	}
}

func setupLogger(logLevel string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}
