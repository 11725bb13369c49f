// Package notify delivers localized user-facing notifications.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/student-ai-platform/internal/logging"
)

// Level is the severity of a notification
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
	LevelLoading Level = "loading"
)

// Notification is a single message shown to the user
type Notification struct {
	Level Level
	Key   Key
	Text  string
}

// Notifier receives user-facing notifications
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Publisher renders catalog keys into notifications for one locale
type Publisher struct {
	target  Notifier
	catalog *Catalog
}

// NewPublisher creates a publisher; a nil target discards everything
func NewPublisher(target Notifier, catalog *Catalog) *Publisher {
	if target == nil {
		target = Discard{}
	}
	if catalog == nil {
		catalog = NewCatalog(LocaleVI)
	}
	return &Publisher{target: target, catalog: catalog}
}

// Catalog returns the message catalog
func (p *Publisher) Catalog() *Catalog {
	return p.catalog
}

// Publish renders key with args and sends it at level
func (p *Publisher) Publish(ctx context.Context, level Level, key Key, args ...interface{}) {
	p.target.Notify(ctx, Notification{Level: level, Key: key, Text: p.catalog.Text(key, args...)})
}

// Raw sends an already rendered text
func (p *Publisher) Raw(ctx context.Context, level Level, text string) {
	p.target.Notify(ctx, Notification{Level: level, Text: text})
}

func (p *Publisher) Success(ctx context.Context, key Key, args ...interface{}) {
	p.Publish(ctx, LevelSuccess, key, args...)
}

func (p *Publisher) Error(ctx context.Context, key Key, args ...interface{}) {
	p.Publish(ctx, LevelError, key, args...)
}

func (p *Publisher) Warning(ctx context.Context, key Key, args ...interface{}) {
	p.Publish(ctx, LevelWarning, key, args...)
}

// LogNotifier writes notifications to a logger
type LogNotifier struct {
	logger *logging.Logger
}

// NewLogNotifier creates a notifier backed by logger
func NewLogNotifier(logger *logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.WithComponent("notify")}
}

// Notify implements Notifier
func (n *LogNotifier) Notify(_ context.Context, note Notification) {
	l := n.logger.WithField("key", string(note.Key))
	switch note.Level {
	case LevelError:
		l.Error(note.Text)
	case LevelWarning:
		l.Warn(note.Text)
	default:
		l.Info(note.Text)
	}
}

// WriterNotifier prints notifications as lines, used by the CLI
type WriterNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

// NewWriterNotifier creates a notifier printing to out
func NewWriterNotifier(out io.Writer) *WriterNotifier {
	return &WriterNotifier{out: out}
}

var levelIcon = map[Level]string{
	LevelSuccess: "✅",
	LevelError:   "❌",
	LevelWarning: "⚠️",
	LevelInfo:    "ℹ️",
	LevelLoading: "⏳",
}

// Notify implements Notifier
func (n *WriterNotifier) Notify(_ context.Context, note Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.out, "%s %s\n", levelIcon[note.Level], note.Text)
}

// Recorder keeps every notification in memory
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

// Notify implements Notifier
func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// All returns a copy of the recorded notifications
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Keys returns the recorded keys in order
func (r *Recorder) Keys() []Key {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]Key, 0, len(r.items))
	for _, n := range r.items {
		keys = append(keys, n.Key)
	}
	return keys
}

// Reset drops everything recorded so far
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = nil
}

// Discard drops every notification
type Discard struct{}

// Notify implements Notifier
func (Discard) Notify(context.Context, Notification) {}

// Multi fans a notification out to several notifiers
type Multi []Notifier

// Notify implements Notifier
func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, target := range m {
		target.Notify(ctx, n)
	}
}
