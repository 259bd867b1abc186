// internal/event/manager.go
package event

import (
	"errors"
	"sync"

	"github.com/bethropolis/provtrace/internal/logger"
)

// Handler reacts to an appended record. Returning true consumes the record
// and stops later handlers for it.
type Handler func(r Record) bool

// Manager is the event bus between a session and its consumers. It is a
// Sink: every appended record is written to the downstream sinks in order,
// then dispatched to the handlers subscribed to its kind.
type Manager struct {
	mu       sync.RWMutex
	sinks    []Sink
	handlers map[Kind][]Handler
	all      []Handler
}

// NewManager creates an event manager writing to sinks.
func NewManager(sinks ...Sink) *Manager {
	return &Manager{
		sinks:    append([]Sink(nil), sinks...),
		handlers: make(map[Kind][]Handler),
	}
}

// AddSink adds a downstream sink.
func (m *Manager) AddSink(s Sink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinks = append(m.sinks, s)
}

// Subscribe adds a handler for one kind.
func (m *Manager) Subscribe(kind Kind, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.handlers[kind] = append(m.handlers[kind], handler)
	logger.DebugTagf("event", "Handler subscribed to %v", kind)
}

// SubscribeAll adds a handler that sees every record, inert kinds included,
// after the kind-specific handlers.
func (m *Manager) SubscribeAll(handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.all = append(m.all, handler)
}

// Append writes r to every sink and then dispatches it. A failing sink does
// not stop the other sinks or the dispatch; the errors are joined.
func (m *Manager) Append(r Record) error {
	m.mu.RLock()
	sinks := append([]Sink(nil), m.sinks...)
	m.mu.RUnlock()

	var errs []error
	for _, s := range sinks {
		if err := s.Append(r); err != nil {
			logger.WarnTagf("event", "Sink failed for %v: %v", r.Kind(), err)
			errs = append(errs, err)
		}
	}
	m.Dispatch(r)
	return errors.Join(errs...)
}

// Dispatch runs the handlers subscribed to the record's kind, synchronously
// and in subscription order.
func (m *Manager) Dispatch(r Record) {
	m.mu.RLock()
	handlers := make([]Handler, 0, len(m.handlers[r.Kind()])+len(m.all))
	handlers = append(handlers, m.handlers[r.Kind()]...)
	handlers = append(handlers, m.all...)
	m.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}
	logger.DebugTagf("event", "Dispatching %v to %d handler(s)", r.Kind(), len(handlers))

	// Handlers run on a copy so one may subscribe another during dispatch.
	for _, handler := range handlers {
		if handler(r) {
			return
		}
	}
}
