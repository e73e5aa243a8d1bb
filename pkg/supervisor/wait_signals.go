package supervisor

import (
	"context"
	"os"
	"os/signal"
	osruntime "runtime"
	"syscall"

	"github.com/core-tools/hsu-healthmon-go/pkg/logging"
)

// WaitSignals blocks until a termination signal arrives or ctx is done
func WaitSignals(ctx context.Context, logger logging.Logger) {
	sig := make(chan os.Signal, 1)
	if osruntime.GOOS == "windows" {
		signal.Notify(sig) // Unix signals not implemented on Windows
	} else {
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	}
	defer signal.Stop(sig)

	select {
	case receivedSignal := <-sig:
		logger.Infof("Received signal: %v", receivedSignal)
	case <-ctx.Done():
		logger.Infof("WaitSignals context done")
	}
}
