package healthrecord

import (
	"strings"
	"time"
)

// Sentinel is the exact substring whose presence in a health record marks
// the monitored process as healthy. Probes match on this substring and
// nothing else, so the space after the colon is significant
const Sentinel = "OK: true"

// unhealthyMarker is what Format renders for unhealthy records
const unhealthyMarker = "OK: false"

// Record is the health record persisted at the well-known path. It is
// rendered as a single status line; the file holds exactly one record and
// is replaced whole on every write
type Record struct {
	OK        bool
	Message   string
	Timestamp time.Time
}

// Healthy creates a healthy record stamped with the current time
func Healthy(message string) Record {
	return Record{OK: true, Message: message, Timestamp: time.Now().UTC()}
}

// Unhealthy creates an unhealthy record stamped with the current time
func Unhealthy(message string) Record {
	return Record{OK: false, Message: message, Timestamp: time.Now().UTC()}
}

// Format renders the record as a single status line terminated by a
// newline. A healthy record contains the sentinel exactly once; an
// unhealthy record never contains it, regardless of the message content
func Format(record Record) string {
	var sb strings.Builder
	if record.OK {
		sb.WriteString(Sentinel)
	} else {
		sb.WriteString(unhealthyMarker)
	}
	if !record.Timestamp.IsZero() {
		sb.WriteString(", ts: ")
		sb.WriteString(record.Timestamp.UTC().Format(time.RFC3339))
	}
	if record.Message != "" {
		sb.WriteString(", msg: ")
		sb.WriteString(sanitizeMessage(record.Message, record.OK))
	}
	sb.WriteString("\n")
	return sb.String()
}

// Matches reports whether file content denotes a healthy record. The match
// is an exact substring test: empty, malformed or partial content fails
func Matches(content string) bool {
	return strings.Contains(content, Sentinel)
}

// Parse is the best-effort inverse of Format, used for diagnostics only.
// Anything unparseable yields an unhealthy record rather than an error, so
// a corrupt file can never be mistaken for a healthy one
func Parse(line string) Record {
	record := Record{OK: Matches(line)}
	for _, field := range strings.Split(strings.TrimSpace(line), ", ") {
		if value, found := strings.CutPrefix(field, "ts: "); found {
			if ts, err := time.Parse(time.RFC3339, value); err == nil {
				record.Timestamp = ts
			}
		} else if value, found := strings.CutPrefix(field, "msg: "); found {
			record.Message = value
		}
	}
	return record
}

// sanitizeMessage keeps the record on one line and keeps the sentinel out
// of unhealthy records even when the caller's message embeds it
func sanitizeMessage(message string, ok bool) string {
	message = strings.ReplaceAll(message, "\n", " ")
	message = strings.ReplaceAll(message, "\r", " ")
	if !ok {
		message = strings.ReplaceAll(message, Sentinel, "OK:true")
	}
	return message
}
