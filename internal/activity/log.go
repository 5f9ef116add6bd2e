// Package activity keeps the admin panel's recent event feed in memory.
package activity

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"Totem/pkg/kit"
)

type Level string

const (
	Info  Level = "INFO"
	Warn  Level = "AVISO"
	Error Level = "ERRO"
)

type Entry struct {
	Level   Level     `json:"level"`
	Time    time.Time `json:"timestamp"`
	Message string    `json:"message"`
}

// Log is a fixed-size ring of entries. A nil *Log discards everything.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
	now     func() time.Time
}

const DefaultSize = 200

func NewLog(size int) *Log {
	if size <= 0 {
		size = DefaultSize
	}
	return &Log{entries: make([]Entry, size), now: time.Now}
}

func (l *Log) Add(level Level, format string, args ...any) {
	if l == nil {
		return
	}
	e := Entry{Level: level, Message: fmt.Sprintf(format, args...)}

	l.mu.Lock()
	defer l.mu.Unlock()

	e.Time = l.now().UTC()
	l.entries[l.next] = e
	l.next = (l.next + 1) % len(l.entries)
	if l.next == 0 {
		l.full = true
	}
}

// Recent returns up to limit entries, newest first. limit <= 0 means all.
func (l *Log) Recent(limit int) []Entry {
	if l == nil {
		return []Entry{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	n := l.next
	if l.full {
		n = len(l.entries)
	}
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]Entry, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (l.next - 1 - i + len(l.entries)) % len(l.entries)
		out = append(out, l.entries[idx])
	}
	return out
}

// Handler serves GET requests for the feed; ?limit=N trims it.
func (l *Log) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				kit.WriteError(w, r, http.StatusBadRequest, "invalid limit", map[string]any{"limit": v})
				return
			}
			limit = n
		}
		entries := l.Recent(limit)
		kit.WriteOK(w, http.StatusOK, fmt.Sprintf("%d eventos", len(entries)), entries)
	}
}
