// beatdemo is a stand-in monitored process: it does no work of its own,
// it only exercises the heartbeat contract. It writes its PID file, pumps
// health records on a cadence, and flips to unhealthy on SIGUSR1 so probe
// behavior can be demonstrated end to end.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	flags "github.com/jessevdk/go-flags"

	"github.com/core-tools/hsu-healthmon-go/pkg/healthfile"
	"github.com/core-tools/hsu-healthmon-go/pkg/healthrecord"
	"github.com/core-tools/hsu-healthmon-go/pkg/heartbeat"
	"github.com/core-tools/hsu-healthmon-go/pkg/logging"
	"github.com/core-tools/hsu-healthmon-go/pkg/logging/sprintf"
)

type flagOptions struct {
	File      string `long:"file" short:"f" description:"Health record path (overrides --process-id)"`
	ProcessID string `long:"process-id" description:"Process ID used to derive the conventional record path" default:"safety"`
	Interval  string `long:"interval" description:"Heartbeat interval (Go duration)" default:"15s"`
}

func main() {
	var opts flagOptions
	var parser = flags.NewParser(&opts, flags.HelpFlag)
	if _, err := parser.ParseArgs(os.Args[1:]); err != nil {
		fmt.Printf("Command line flags parsing failed: %v", err)
		os.Exit(1)
	}

	sprintfLogger := sprintf.NewStdSprintfLogger()
	logger := logging.NewLogger(
		"module: beatdemo , ", logging.LogFuncs{
			Debugf: sprintfLogger.Debugf,
			Infof:  sprintfLogger.Infof,
			Warnf:  sprintfLogger.Warnf,
			Errorf: sprintfLogger.Errorf,
		})

	if err := run(opts, logger); err != nil {
		logger.Errorf("Failed to run: %v", err)
		os.Exit(1)
	}
}

func run(opts flagOptions, logger logging.Logger) error {
	interval, err := time.ParseDuration(opts.Interval)
	if err != nil {
		return err
	}

	fileManager := healthfile.NewHealthFileManager(
		healthfile.GetRecommendedHealthFileConfig("container", ""), logger)

	path := opts.File
	if path == "" {
		path = fileManager.GenerateHealthFilePath(opts.ProcessID)
	}

	if err := fileManager.WritePIDFile(opts.ProcessID, os.Getpid()); err != nil {
		logger.Warnf("Failed to write PID file: %v", err)
	}
	defer fileManager.RemoveProcessFiles(opts.ProcessID)

	writer, err := heartbeat.NewWriter(heartbeat.WriterOptions{Path: path}, logger)
	if err != nil {
		return err
	}

	// SIGUSR1 toggles the reported health for demonstrations
	var healthy int32 = 1
	toggle := make(chan os.Signal, 1)
	signal.Notify(toggle, syscall.SIGUSR1)
	go func() {
		for range toggle {
			if atomic.CompareAndSwapInt32(&healthy, 1, 0) {
				logger.Warnf("Health toggled to unhealthy")
			} else {
				atomic.StoreInt32(&healthy, 1)
				logger.Infof("Health toggled to healthy")
			}
		}
	}()

	source := func() healthrecord.Record {
		if atomic.LoadInt32(&healthy) == 1 {
			return healthrecord.Healthy("beatdemo nominal")
		}
		return healthrecord.Unhealthy("beatdemo toggled unhealthy")
	}

	beater, err := heartbeat.NewBeater(writer, source, heartbeat.BeaterOptions{Interval: interval}, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Infof("beatdemo writing health records, path: %s, interval: %s", path, interval)
	return beater.Run(ctx)
}
