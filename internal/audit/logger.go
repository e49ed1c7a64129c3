package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Entry is a single audit record.
type Entry struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"ts"`
	Actor     string                 `json:"actor"`
	Action    string                 `json:"action"`
	Params    map[string]interface{} `json:"params,omitempty"`
	Outcome   string                 `json:"outcome"`
}

// ActorFunc extracts the acting principal from a request context. It is
// injected so this package does not depend on the auth layer.
type ActorFunc func(ctx context.Context) string

// Options configures log rotation.
type Options struct {
	Dir        string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Logger writes audit entries as JSON lines through a rotating writer.
type Logger struct {
	mu    sync.Mutex
	w     io.WriteCloser
	actor ActorFunc
}

// NewLogger creates a rotating audit logger under opts.Dir.
func NewLogger(opts Options, actor ActorFunc) (*Logger, error) {
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	w := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, "audit.jsonl"),
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}

	return newLogger(w, actor), nil
}

// newLogger wires an arbitrary writer; split out for tests.
func newLogger(w io.WriteCloser, actor ActorFunc) *Logger {
	if actor == nil {
		actor = func(context.Context) string { return "unknown" }
	}
	return &Logger{w: w, actor: actor}
}

// LogAction records one maintenance action with its outcome.
func (l *Logger) LogAction(ctx context.Context, action string, params map[string]interface{}, outcome string) {
	entry := Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Actor:     l.actor(ctx),
		Action:    action,
		Params:    params,
		Outcome:   outcome,
	}

	line, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "audit: failed to marshal entry: %v\n", err)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.w.Write(append(line, '\n')); err != nil {
		fmt.Fprintf(os.Stderr, "audit: failed to write entry: %v\n", err)
	}
}

// Close closes the underlying writer.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Close()
}
