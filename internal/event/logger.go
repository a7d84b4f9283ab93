package event

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kazz187/taskdash/internal/eventbus"
)

const dayLayout = "2006-01-02"

// Logger appends domain events to one NDJSON file per UTC day. Notification
// events are private to their recipient and are not logged.
type Logger struct {
	dir string
	mu  sync.Mutex
}

func NewLogger(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create event log directory: %w", err)
	}
	return &Logger{dir: dir}, nil
}

type logEntry struct {
	eventbus.Event
	LoggedAt time.Time `json:"logged_at"`
}

func (l *Logger) Log(ev eventbus.Event) error {
	if ev.Type == eventbus.NotificationCreated {
		return nil
	}
	data, err := json.Marshal(logEntry{Event: ev, LoggedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path(ev.CreatedAt), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event log: %w", err)
	}
	return nil
}

func (l *Logger) path(day time.Time) string {
	return filepath.Join(l.dir, fmt.Sprintf("events_%s.ndjson", day.UTC().Format(dayLayout)))
}

// Start logs every event published on bus until ctx is done.
func (l *Logger) Start(ctx context.Context, bus *eventbus.Bus) error {
	sub := bus.Subscribe(256)
	defer sub.Close()
	slog.Info("event logger started", "dir", l.dir)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.C:
			if !ok {
				return nil
			}
			if err := l.Log(ev); err != nil {
				slog.Error("failed to log event", "event_id", ev.ID, "error", err)
			}
		}
	}
}

// ReadDay returns the events logged on the UTC day of date, oldest first.
// Lines that fail to parse are skipped.
func (l *Logger) ReadDay(date time.Time) ([]eventbus.Event, error) {
	events := []eventbus.Event{}
	f, err := os.Open(l.path(date))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return events, nil
		}
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry logEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			slog.Warn("skipping malformed event log line", "error", err)
			continue
		}
		events = append(events, entry.Event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read event log: %w", err)
	}
	return events, nil
}
