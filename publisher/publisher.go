package publisher

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pingcap/errors"
	gometrics "github.com/rcrowley/go-metrics"

	"logevent/event"
	"logevent/log"
	"logevent/metrics"
)

// Source identifies the publisher that raised an event.
type Source struct {
	ID   uuid.UUID
	Name string
}

// Handler is a subscriber callback. Returning an error reports a subscriber fault to
// the publisher.
type Handler interface {
	Handle(src Source, ev event.LogEvent) error
}

// HandlerFunc adapts an ordinary function to Handler.
type HandlerFunc func(src Source, ev event.LogEvent) error

func (f HandlerFunc) Handle(src Source, ev event.LogEvent) error {
	return f(src, ev)
}

// Registrar is the part of the publisher a subscriber needs to subscribe itself.
type Registrar interface {
	Register(h Handler)
}

// Publisher holds an ordered list of handlers and invokes them synchronously, in
// registration order, on the caller's goroutine.
type Publisher struct {
	source Source
	policy FaultPolicy

	mu       sync.RWMutex
	handlers []Handler

	dispatches gometrics.Counter
	faults     gometrics.Counter
}

// Option configures a Publisher.
type Option func(p *Publisher)

// WithFaultPolicy sets how Dispatch reacts to a failing handler.
func WithFaultPolicy(policy FaultPolicy) Option {
	return func(p *Publisher) {
		p.policy = policy
	}
}

// WithRegistry reports dispatch counters to r instead of metrics.Registry.
func WithRegistry(r gometrics.Registry) Option {
	return func(p *Publisher) {
		p.dispatches = metrics.Dispatches(r)
		p.faults = metrics.Faults(r)
	}
}

// NewPublisher creates a Publisher named name with the abort fault policy.
func NewPublisher(name string, opts ...Option) *Publisher {
	p := &Publisher{
		source: Source{ID: uuid.New(), Name: name},
		policy: Abort,
	}
	WithRegistry(metrics.Registry)(p)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Register appends h to the handler list. The same handler may be registered more
// than once and is then invoked once per registration.
func (p *Publisher) Register(h Handler) {
	p.mu.Lock()
	p.handlers = append(p.handlers, h)
	n := len(p.handlers)
	p.mu.Unlock()

	log.Log.Debugf("publisher %s registered subscriber #%d", p.source.Name, n-1)
}

func (p *Publisher) RegisterFunc(fn func(src Source, ev event.LogEvent) error) {
	p.Register(HandlerFunc(fn))
}

// Dispatch invokes every registered handler with ev. With no handlers it does nothing.
//
// Under Abort the first failing handler ends the dispatch and its error is returned;
// handlers registered after it are not called. Under Continue every handler is called
// and all failures are returned together as a *DispatchError.
func (p *Publisher) Dispatch(ev event.LogEvent) error {
	p.mu.RLock()
	handlers := p.handlers
	p.mu.RUnlock()

	if len(handlers) == 0 {
		return nil
	}
	p.dispatches.Inc(1)

	var dispatchErr *DispatchError
	for i, h := range handlers {
		err := h.Handle(p.source, ev)
		if err == nil {
			continue
		}

		p.faults.Inc(1)
		log.Log.Errorf("publisher %s: subscriber #%d failed: %v", p.source.Name, i, err)
		if p.policy == Abort {
			return errors.Annotatef(err, "subscriber #%d", i)
		}
		if dispatchErr == nil {
			dispatchErr = &DispatchError{}
		}
		dispatchErr.Faults = append(dispatchErr.Faults, SubscriberFault{Index: i, Err: err})
	}

	if dispatchErr != nil {
		return dispatchErr
	}
	return nil
}

// Len returns the number of registrations.
func (p *Publisher) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.handlers)
}

func (p *Publisher) Source() Source {
	return p.source
}

func (p *Publisher) Policy() FaultPolicy {
	return p.policy
}
