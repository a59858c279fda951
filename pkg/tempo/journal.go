package tempo

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/natefinch/lumberjack"
)

// JournalEntry is one processed frame.
type JournalEntry struct {
	Time      string        `json:"time"`
	Session   string        `json:"session"`
	Timestamp time.Duration `json:"timestamp_ns"` // Frame timestamp
	Poses     int           `json:"poses"`
	Angles    []float64     `json:"angles"`
	Mean      float64       `json:"mean"`
	Rate      float64       `json:"rate,omitempty"` // Applied rate, or the held one
	Held      bool          `json:"held"`           // No usable pose; previous rate kept
}

// Journal appends frame entries as JSON lines to a rotating file.
type Journal struct {
	mu sync.Mutex
	w  io.WriteCloser
}

// NewJournal opens a rotating journal at path.
func NewJournal(path string) *Journal {
	return newJournal(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     7,    // days
		Compress:   true, // compress old logs
	})
}

func newJournal(w io.WriteCloser) *Journal {
	return &Journal{w: w}
}

// Record writes one entry.
func (j *Journal) Record(e JournalEntry) error {
	if e.Time == "" {
		e.Time = time.Now().Format(time.RFC3339Nano)
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal journal entry: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	return nil
}

// Close flushes and closes the file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.w.Close()
}
