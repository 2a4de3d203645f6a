package notify

import (
	"sync"
	"time"

	"duck-storefront/internal/util"

	"go.uber.org/zap"
)

// Level of a user-facing message
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is one message shown to the user
type Notification struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Sink delivers user-facing messages. Delivery is fire-and-forget: callers never wait on it
// and a failed delivery is never reported back.
type Sink interface {
	Info(msg string)
	Success(msg string)
	Warning(msg string)
	Error(msg string)
}

// sinkFunc adapts a single emit function to Sink
type sinkFunc func(Notification)

func (f sinkFunc) Info(msg string)    { f(newNotification(LevelInfo, msg)) }
func (f sinkFunc) Success(msg string) { f(newNotification(LevelSuccess, msg)) }
func (f sinkFunc) Warning(msg string) { f(newNotification(LevelWarning, msg)) }
func (f sinkFunc) Error(msg string)   { f(newNotification(LevelError, msg)) }

func newNotification(level Level, msg string) Notification {
	util.NotificationsTotal.WithLabelValues(string(level)).Inc()
	return Notification{Level: level, Message: msg, At: time.Now()}
}

// LogSink mirrors notifications into the log
func LogSink(logger *zap.Logger, fields ...zap.Field) Sink {
	return sinkFunc(func(n Notification) {
		logger.Info("Notification", append(fields,
			zap.String("level", string(n.Level)),
			zap.String("message", n.Message))...)
	})
}

// Fanout delivers every message to each sink in order
func Fanout(sinks ...Sink) Sink {
	return fanout(sinks)
}

type fanout []Sink

func (f fanout) Info(msg string) {
	for _, s := range f {
		s.Info(msg)
	}
}

func (f fanout) Success(msg string) {
	for _, s := range f {
		s.Success(msg)
	}
}

func (f fanout) Warning(msg string) {
	for _, s := range f {
		s.Warning(msg)
	}
}

func (f fanout) Error(msg string) {
	for _, s := range f {
		s.Error(msg)
	}
}

// Discard drops every message
var Discard Sink = sinkFunc(func(Notification) {})

// Recorder keeps the messages of one request so they can be returned with its response
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) add(n Notification) {
	r.mu.Lock()
	r.items = append(r.items, n)
	r.mu.Unlock()
}

func (r *Recorder) Info(msg string)    { r.add(newNotification(LevelInfo, msg)) }
func (r *Recorder) Success(msg string) { r.add(newNotification(LevelSuccess, msg)) }
func (r *Recorder) Warning(msg string) { r.add(newNotification(LevelWarning, msg)) }
func (r *Recorder) Error(msg string)   { r.add(newNotification(LevelError, msg)) }

// Notifications returns a copy of what was recorded, oldest first
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Messages returns the recorded texts at the given level
func (r *Recorder) Messages(level Level) []string {
	var msgs []string
	for _, n := range r.Notifications() {
		if n.Level == level {
			msgs = append(msgs, n.Message)
		}
	}
	return msgs
}
