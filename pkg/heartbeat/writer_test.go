package heartbeat

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/core-tools/hsu-healthmon-go/pkg/healthrecord"
	"github.com/core-tools/hsu-healthmon-go/pkg/logging"
)

func newTestWriter(t *testing.T) *Writer {
	t.Helper()

	path := filepath.Join(t.TempDir(), "safety.health")
	writer, err := NewWriter(WriterOptions{Path: path}, logging.NewNullLogger())
	require.NoError(t, err)
	return writer
}

func TestNewWriter_EmptyPath(t *testing.T) {
	_, err := NewWriter(WriterOptions{}, logging.NewNullLogger())

	assert.Error(t, err)
}

func TestNewWriter_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "safety.health")

	writer, err := NewWriter(WriterOptions{Path: path}, logging.NewNullLogger())
	require.NoError(t, err)
	require.NoError(t, writer.Write(healthrecord.Healthy("")))

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestWrite_HealthyRecord(t *testing.T) {
	writer := newTestWriter(t)

	require.NoError(t, writer.Write(healthrecord.Healthy("ready")))

	content, err := os.ReadFile(writer.Path())
	require.NoError(t, err)
	assert.True(t, healthrecord.Matches(string(content)))
}

func TestWrite_UnhealthyRecord(t *testing.T) {
	writer := newTestWriter(t)

	require.NoError(t, writer.Write(healthrecord.Unhealthy("dependency down")))

	content, err := os.ReadFile(writer.Path())
	require.NoError(t, err)
	assert.False(t, healthrecord.Matches(string(content)))
}

func TestWrite_ReplacesPreviousRecord(t *testing.T) {
	writer := newTestWriter(t)

	require.NoError(t, writer.Write(healthrecord.Healthy("")))
	require.NoError(t, writer.Write(healthrecord.Unhealthy("")))

	content, err := os.ReadFile(writer.Path())
	require.NoError(t, err)
	assert.False(t, healthrecord.Matches(string(content)))
	// Replaced whole, not appended
	assert.Equal(t, 1, countLines(string(content)))
}

func TestWrite_LeavesNoTempFiles(t *testing.T) {
	writer := newTestWriter(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, writer.Write(healthrecord.Healthy("")))
	}

	entries, err := os.ReadDir(filepath.Dir(writer.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// TestWrite_ConcurrentReadersNeverSeeTornRecord exercises the atomicity
// contract: while one goroutine rewrites the record, readers either see a
// complete healthy record or a complete unhealthy one, never a fragment
func TestWrite_ConcurrentReadersNeverSeeTornRecord(t *testing.T) {
	writer := newTestWriter(t)
	require.NoError(t, writer.Write(healthrecord.Healthy("seed")))

	healthyLine := healthrecord.Format(healthrecord.Record{OK: true})
	unhealthyLine := healthrecord.Format(healthrecord.Record{OK: false})

	var wg sync.WaitGroup
	var writeErr error
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			record := healthrecord.Record{OK: i%2 == 0}
			if err := writer.Write(record); err != nil {
				writeErr = err
				return
			}
		}
	}()

	for i := 0; i < 200; i++ {
		content, err := os.ReadFile(writer.Path())
		require.NoError(t, err)
		text := string(content)
		if text != healthyLine && text != unhealthyLine && !isSeedRecord(text) {
			t.Fatalf("observed torn record: %q", text)
		}
	}

	close(stop)
	wg.Wait()
	require.NoError(t, writeErr)
}

func isSeedRecord(text string) bool {
	return healthrecord.Parse(text).Message == "seed"
}

func countLines(content string) int {
	count := 0
	for _, c := range content {
		if c == '\n' {
			count++
		}
	}
	return count
}
