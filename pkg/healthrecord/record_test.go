package healthrecord

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat_HealthyContainsSentinel(t *testing.T) {
	line := Format(Healthy("all subsystems nominal"))

	assert.True(t, strings.Contains(line, Sentinel))
	assert.True(t, strings.HasSuffix(line, "\n"))
	assert.Equal(t, 1, strings.Count(line, "\n"))
}

func TestFormat_UnhealthyNeverContainsSentinel(t *testing.T) {
	line := Format(Unhealthy("startup incomplete"))

	assert.False(t, strings.Contains(line, Sentinel))
	assert.True(t, strings.Contains(line, "OK: false"))
}

func TestFormat_UnhealthyMessageEmbeddingSentinel(t *testing.T) {
	// A caller could echo probe output back into the message; the healthy
	// sentinel must still not leak into an unhealthy record
	line := Format(Unhealthy("expected OK: true but dependency is down"))

	assert.False(t, strings.Contains(line, Sentinel))
}

func TestFormat_MultilineMessageCollapsed(t *testing.T) {
	line := Format(Healthy("first\nsecond\r\nthird"))

	assert.Equal(t, 1, strings.Count(line, "\n"))
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"exact sentinel", "OK: true", true},
		{"sentinel within line", "OK: true, ts: 2026-01-02T15:04:05Z", true},
		{"sentinel with surrounding noise", "prefix OK: true suffix", true},
		{"unhealthy marker", "OK: false", false},
		{"missing space", "OK:true", false},
		{"lowercase", "ok: true", false},
		{"empty", "", false},
		{"truncated sentinel", "OK: tru", false},
		{"whitespace only", "   \n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.content))
		})
	}
}

func TestMatches_Idempotent(t *testing.T) {
	healthy := Format(Healthy(""))
	unhealthy := Format(Unhealthy(""))

	for i := 0; i < 10; i++ {
		assert.True(t, Matches(healthy))
		assert.False(t, Matches(unhealthy))
	}
}

func TestParse_RoundTrip(t *testing.T) {
	ts := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	record := Record{OK: true, Message: "ready", Timestamp: ts}

	parsed := Parse(Format(record))

	require.True(t, parsed.OK)
	assert.Equal(t, "ready", parsed.Message)
	assert.Equal(t, ts, parsed.Timestamp)
}

func TestParse_GarbageIsUnhealthy(t *testing.T) {
	parsed := Parse("\x00\x01 not a record")

	assert.False(t, parsed.OK)
}
