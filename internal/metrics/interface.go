package metrics

import (
	"context"
	"time"

	"codeberg.org/mutker/ddcctl/internal/errors"
	"codeberg.org/mutker/ddcctl/internal/monitor"
)

// Collector defines the core domain interface
type Collector interface {
	Record(ctx context.Context, record *WriteRecord) error
	Close() error
}

// Repository defines the interface for write journal storage
type Repository interface {
	Record(record *WriteRecord) error
	Close() error
}

// WriteRecord is one completed brightness write
type WriteRecord struct {
	Timestamp    time.Time
	MonitorIndex int
	RequestID    string
	Value        uint8
	Raw          uint16
	OK           bool
	ErrorCode    string
	Duration     time.Duration
}

// NewWriteRecord builds a record from a completion
func NewWriteRecord(c monitor.Completion, at time.Time) *WriteRecord {
	return &WriteRecord{
		Timestamp:    at,
		MonitorIndex: c.Index,
		RequestID:    c.ID,
		Value:        c.Value,
		Raw:          c.Raw,
		OK:           c.OK(),
		ErrorCode:    string(errors.CodeOf(c.Err)),
		Duration:     c.Duration,
	}
}
