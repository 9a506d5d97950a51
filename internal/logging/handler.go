// Package logging provides a custom slog handler that integrates with the Event Log system.
// It forwards logs at WARN level and above, plus categorized admin actions, to the
// database-backed Event Log.
package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"

	"github.com/olegiv/ocms-catalog/internal/model"
)

// categoryKey is the attribute that files a record under an event category.
const categoryKey = "category"

// EventWriter persists event log entries.
type EventWriter interface {
	CreateEvent(ctx context.Context, e model.Event) (model.Event, error)
}

// EventLogHandler is a slog.Handler that wraps another handler and also writes
// WARN and ERROR level logs to the Event Log. INFO records carrying a
// category attribute are written too.
type EventLogHandler struct {
	inner  slog.Handler
	events EventWriter
	level  slog.Level // Minimum level to forward to Event Log (default: WARN)
	attrs  []slog.Attr
}

// NewEventLogHandler creates a new EventLogHandler that wraps the given handler.
func NewEventLogHandler(inner slog.Handler, events EventWriter) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, events, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel creates a new EventLogHandler with a custom minimum level.
func NewEventLogHandlerWithLevel(inner slog.Handler, events EventWriter, level slog.Level) *EventLogHandler {
	return &EventLogHandler{
		inner:  inner,
		events: events,
		level:  level,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}

	if h.shouldRecord(r) {
		h.writeToEventLog(ctx, r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EventLogHandler{
		inner:  h.inner.WithAttrs(attrs),
		events: h.events,
		level:  h.level,
		attrs:  append(slices.Clip(h.attrs), attrs...),
	}
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	return &EventLogHandler{
		inner:  h.inner.WithGroup(name),
		events: h.events,
		level:  h.level,
		attrs:  h.attrs,
	}
}

func (h *EventLogHandler) shouldRecord(r slog.Record) bool {
	if r.Level >= h.level {
		return true
	}
	if r.Level < slog.LevelInfo {
		return false
	}
	_, ok := h.category(r)
	return ok
}

// writeToEventLog writes a log record to the Event Log.
func (h *EventLogHandler) writeToEventLog(ctx context.Context, r slog.Record) {
	category, ok := h.category(r)
	if !ok {
		category = inferCategory(r.Message)
	}

	// The entry is written even if the request context is cancelled.
	_, _ = h.events.CreateEvent(context.WithoutCancel(ctx), model.Event{
		Level:     slogLevelToEventLevel(r.Level),
		Category:  category,
		Message:   r.Message,
		Metadata:  h.metadata(r),
		CreatedAt: r.Time,
	})
}

// slogLevelToEventLevel converts a slog.Level to an Event Log level.
func slogLevelToEventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// category returns the category attribute of the record or of the handler.
func (h *EventLogHandler) category(r slog.Record) (string, bool) {
	var category string
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == categoryKey {
			category = a.Value.String()
			return false
		}
		return true
	})
	if category != "" {
		return category, true
	}

	for _, a := range slices.Backward(h.attrs) {
		if a.Key == categoryKey && a.Value.String() != "" {
			return a.Value.String(), true
		}
	}
	return "", false
}

// inferCategory guesses a category from the log message.
func inferCategory(message string) string {
	msg := strings.ToLower(message)
	switch {
	case strings.Contains(msg, "scan") || strings.Contains(msg, "reconcil"):
		return model.EventCategoryScan
	case strings.Contains(msg, "cache") || strings.Contains(msg, "redis"):
		return model.EventCategoryCache
	case strings.Contains(msg, "message") || strings.Contains(msg, "translation"):
		return model.EventCategoryMessage
	case strings.Contains(msg, "config") || strings.Contains(msg, "setting"):
		return model.EventCategoryConfig
	default:
		return model.EventCategorySystem
	}
}

// metadata collects the record and handler attributes into a JSON object.
func (h *EventLogHandler) metadata(r slog.Record) string {
	if r.NumAttrs() == 0 && len(h.attrs) == 0 {
		return "{}"
	}

	fields := make(map[string]string, r.NumAttrs()+len(h.attrs))
	add := func(a slog.Attr) bool {
		if a.Key != categoryKey && a.Key != "" {
			fields[a.Key] = a.Value.Resolve().String()
		}
		return true
	}
	for _, a := range h.attrs {
		add(a)
	}
	r.Attrs(add)

	data, err := json.Marshal(fields)
	if err != nil {
		return "{}"
	}
	return string(data)
}
