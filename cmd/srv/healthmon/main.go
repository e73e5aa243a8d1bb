package main

import (
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"

	"github.com/core-tools/hsu-healthmon-go/pkg/logging"
	"github.com/core-tools/hsu-healthmon-go/pkg/logging/zaplog"
	"github.com/core-tools/hsu-healthmon-go/pkg/supervisor"
)

type flagOptions struct {
	Config      string `long:"config" short:"c" description:"Configuration file path (YAML)" required:"true"`
	LogLevel    string `long:"log-level" description:"Log level (debug, info, warn, error)" default:"info"`
	RunDuration int    `long:"run-duration" description:"Duration in seconds to run (debug feature)"`
}

func logPrefix(module string) string {
	return fmt.Sprintf("module: %s , ", module)
}

func main() {
	var opts flagOptions
	var argv []string = os.Args[1:]
	var parser = flags.NewParser(&opts, flags.HelpFlag)
	var err error
	_, err = parser.ParseArgs(argv)
	if err != nil {
		fmt.Printf("Command line flags parsing failed: %v", err)
		os.Exit(1)
	}

	zapLogger, cleanup, err := zaplog.NewZapSprintfLogger(zaplog.Options{Level: opts.LogLevel})
	if err != nil {
		fmt.Printf("Logger initialization failed: %v", err)
		os.Exit(1)
	}
	defer cleanup()

	logger := logging.NewLogger(
		logPrefix("healthmon"), logging.LogFuncs{
			Debugf: zapLogger.Debugf,
			Infof:  zapLogger.Infof,
			Warnf:  zapLogger.Warnf,
			Errorf: zapLogger.Errorf,
		})

	err = supervisor.Run(opts.RunDuration, opts.Config, logger)
	if err != nil {
		logger.Errorf("Failed to run: %v", err)
		os.Exit(1)
	}
}
