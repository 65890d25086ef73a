package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/zefparis/pub/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DBHook copies log entries into the logs table from a single goroutine.
// Fire never blocks: when the buffer is full the entry is dropped, and a
// failed insert is reported on stderr only.
type DBHook struct {
	db      *gorm.DB
	levels  []logrus.Level
	entries chan logEntry
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
}

type logEntry struct {
	level   string
	message string
	fields  logrus.Fields
}

// NewDBHook starts the writer goroutine. bufferSize <= 0 means 1000.
func NewDBHook(db *gorm.DB, bufferSize int, minLevel logrus.Level) *DBHook {
	if bufferSize <= 0 {
		bufferSize = 1000
	}

	var levels []logrus.Level
	for _, l := range logrus.AllLevels {
		if l <= minLevel {
			levels = append(levels, l)
		}
	}

	h := &DBHook{
		db:      db,
		levels:  levels,
		entries: make(chan logEntry, bufferSize),
	}
	h.wg.Add(1)
	go h.process()
	return h
}

func (h *DBHook) Levels() []logrus.Level {
	return h.levels
}

func (h *DBHook) Fire(entry *logrus.Entry) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return nil
	}

	fields := make(logrus.Fields, len(entry.Data))
	for k, v := range entry.Data {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		fields[k] = v
	}

	select {
	case h.entries <- logEntry{level: entry.Level.String(), message: entry.Message, fields: fields}:
	default:
	}
	return nil
}

func (h *DBHook) process() {
	defer h.wg.Done()
	for e := range h.entries {
		h.write(e)
	}
}

func (h *DBHook) write(e logEntry) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "[log hook] panic recovered: %v\n", r)
		}
	}()

	row := models.LogEntry{Level: e.level, Message: e.message}
	if len(e.fields) > 0 {
		if raw, err := json.Marshal(e.fields); err == nil {
			row.Context = datatypes.JSON(raw)
		}
	}
	if err := h.db.Create(&row).Error; err != nil {
		fmt.Fprintf(os.Stderr, "[log hook] persist failed: %v\n", err)
	}
}

// Close stops accepting entries and waits until the buffer is flushed.
func (h *DBHook) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.entries)
	h.mu.Unlock()
	h.wg.Wait()
}
