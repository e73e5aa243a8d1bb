package heartbeat

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/core-tools/hsu-healthmon-go/pkg/errors"
	"github.com/core-tools/hsu-healthmon-go/pkg/healthrecord"
	"github.com/core-tools/hsu-healthmon-go/pkg/logging"
)

// DefaultFileMode is the permission mode for newly created health records
const DefaultFileMode os.FileMode = 0644

// WriterOptions configures a health record writer
type WriterOptions struct {
	// Path is the well-known health record location inside the shared
	// ephemeral directory
	Path string

	// FileMode for the record file (default 0644: owner writes, the
	// supervisor only ever reads)
	FileMode os.FileMode
}

// Writer is the single-writer handle on the health record path. Every
// write replaces the record atomically: the content is staged in a
// temporary file in the same directory and renamed over the destination,
// so a concurrent reader never observes a torn or truncated record
type Writer struct {
	options WriterOptions
	logger  logging.Logger
	mutex   sync.Mutex
}

func NewWriter(options WriterOptions, logger logging.Logger) (*Writer, error) {
	if options.Path == "" {
		return nil, errors.NewValidationError("health record path cannot be empty", nil)
	}
	if options.FileMode == 0 {
		options.FileMode = DefaultFileMode
	}

	directory := filepath.Dir(options.Path)
	if err := os.MkdirAll(directory, 0755); err != nil {
		return nil, errors.NewIOError("failed to create health record directory", err).WithContext("directory", directory)
	}

	return &Writer{
		options: options,
		logger:  logger,
	}, nil
}

// Path returns the health record location
func (w *Writer) Path() string {
	return w.options.Path
}

// Write atomically replaces the health record with the given record
func (w *Writer) Write(record healthrecord.Record) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	content := healthrecord.Format(record)

	directory := filepath.Dir(w.options.Path)
	tmpFile, err := os.CreateTemp(directory, filepath.Base(w.options.Path)+".*.tmp")
	if err != nil {
		return errors.NewIOError("failed to create temporary health record", err).WithContext("path", w.options.Path)
	}
	tmpPath := tmpFile.Name()

	if err := writeAndClose(tmpFile, content, w.options.FileMode); err != nil {
		os.Remove(tmpPath)
		return errors.NewIOError("failed to stage health record", err).WithContext("path", w.options.Path)
	}

	// The rename is the commit point: either the old record or the new
	// one is visible, never anything in between
	if err := os.Rename(tmpPath, w.options.Path); err != nil {
		os.Remove(tmpPath)
		return errors.NewIOError("failed to publish health record", err).WithContext("path", w.options.Path)
	}

	w.logger.Debugf("Health record written, path: %s, healthy: %t", w.options.Path, record.OK)
	return nil
}

func writeAndClose(file *os.File, content string, mode os.FileMode) error {
	if _, err := file.WriteString(content); err != nil {
		file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return err
	}
	if err := file.Chmod(mode); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
