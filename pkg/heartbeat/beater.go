package heartbeat

import (
	"context"
	"time"

	"github.com/core-tools/hsu-healthmon-go/pkg/errors"
	"github.com/core-tools/hsu-healthmon-go/pkg/healthrecord"
	"github.com/core-tools/hsu-healthmon-go/pkg/logging"
)

// DefaultBeatInterval is half the conventional 30s probe interval, so a
// healthy process refreshes its record at least once between any two probes
const DefaultBeatInterval = 15 * time.Second

// HealthSource reports the process's current health. It is called on every
// beat and must be safe to call from the beater goroutine
type HealthSource func() healthrecord.Record

// BeaterOptions configures the periodic heartbeat pump
type BeaterOptions struct {
	// Interval between beats (default DefaultBeatInterval)
	Interval time.Duration
}

// Beater periodically queries a HealthSource and publishes the result
// through a Writer. It writes immediately on start so the record exists
// before the first beat interval elapses
type Beater struct {
	writer  *Writer
	source  HealthSource
	options BeaterOptions
	logger  logging.Logger
}

func NewBeater(writer *Writer, source HealthSource, options BeaterOptions, logger logging.Logger) (*Beater, error) {
	if writer == nil {
		return nil, errors.NewValidationError("writer cannot be nil", nil)
	}
	if source == nil {
		return nil, errors.NewValidationError("health source cannot be nil", nil)
	}
	if options.Interval < 0 {
		return nil, errors.NewValidationError("beat interval cannot be negative", nil).WithContext("interval", options.Interval)
	}
	if options.Interval == 0 {
		options.Interval = DefaultBeatInterval
	}

	return &Beater{
		writer:  writer,
		source:  source,
		options: options,
		logger:  logger,
	}, nil
}

// Run pumps heartbeats until ctx is done. On shutdown a final unhealthy
// record is written, so a clean stop never leaves a stale healthy record
// behind for the supervisor to trust. A write failure is logged and the
// pump keeps going: missed beats are the supervisor's to judge
func (b *Beater) Run(ctx context.Context) error {
	if ctx == nil {
		return errors.NewValidationError("context cannot be nil", nil)
	}

	b.logger.Infof("Heartbeat starting, path: %s, interval: %s", b.writer.Path(), b.options.Interval)

	b.beat()

	ticker := time.NewTicker(b.options.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.beat()
		case <-ctx.Done():
			b.logger.Infof("Heartbeat stopping, path: %s", b.writer.Path())
			record := healthrecord.Unhealthy("shutting down")
			if err := b.writer.Write(record); err != nil {
				b.logger.Errorf("Failed to write final health record: %v", err)
				return err
			}
			return nil
		}
	}
}

func (b *Beater) beat() {
	record := b.source()
	if err := b.writer.Write(record); err != nil {
		b.logger.Errorf("Failed to write health record: %v", err)
	}
}
