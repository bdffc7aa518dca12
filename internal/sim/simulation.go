// Package sim is a discrete-event ride-hailing simulation. Events are drawn
// from a time-ordered queue one at a time; each is applied to the dispatcher
// and monitor and may schedule follow-up events.
package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/example/ride-sim/internal/dispatch"
	"github.com/example/ride-sim/internal/monitor"
	"github.com/example/ride-sim/internal/observability"
)

// Tracer sees every event as it is drawn from the queue.
type Tracer interface {
	Trace(e Event)
}

// TracerFunc adapts a function to Tracer.
type TracerFunc func(Event)

func (f TracerFunc) Trace(e Event) { f(e) }

type multiTracer []Tracer

func (m multiTracer) Trace(e Event) {
	for _, t := range m {
		t.Trace(e)
	}
}

// Tracers fans events out to every non-nil tracer in ts.
func Tracers(ts ...Tracer) Tracer {
	out := make(multiTracer, 0, len(ts))
	for _, t := range ts {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

type Option func(*Simulation)

func WithTracer(t Tracer) Option {
	return func(s *Simulation) { s.tracer = t }
}

// Simulation owns the dispatcher, monitor and event queue of one run. Its
// state carries over if Run is called again.
type Simulation struct {
	events     *Queue
	dispatcher *dispatch.Dispatcher
	monitor    *monitor.Monitor
	tracer     Tracer
}

func New(opts ...Option) *Simulation {
	s := &Simulation{
		events:     NewQueue(),
		dispatcher: dispatch.New(),
		monitor:    monitor.New(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run applies initial and everything it causes in timestamp order until no
// events remain, then returns the monitor's report. It stops early with the
// context's error if ctx is done.
func (s *Simulation) Run(ctx context.Context, initial []Event) (monitor.Report, error) {
	start := time.Now()
	defer func() { observability.RunDuration.Observe(time.Since(start).Seconds()) }()

	for _, e := range initial {
		s.events.Push(e)
	}
	for {
		if err := ctx.Err(); err != nil {
			observability.RunsTotal.WithLabelValues("aborted").Inc()
			return monitor.Report{}, err
		}
		e, ok := s.events.Pop()
		if !ok {
			break
		}
		if s.tracer != nil {
			s.tracer.Trace(e)
		}
		observability.EventsProcessed.WithLabelValues(string(e.Kind())).Inc()
		for _, next := range s.apply(e) {
			s.events.Push(next)
		}
		observability.QueueDepth.Observe(float64(s.events.Len()))
	}
	observability.RunsTotal.WithLabelValues("completed").Inc()
	return s.monitor.Report(), nil
}

func (s *Simulation) Dispatcher() *dispatch.Dispatcher { return s.dispatcher }
func (s *Simulation) Monitor() *monitor.Monitor       { return s.monitor }

// Run is a one-shot helper around a fresh Simulation.
func Run(ctx context.Context, initial []Event, opts ...Option) (monitor.Report, error) {
	return New(opts...).Run(ctx, initial)
}

func (s *Simulation) apply(e Event) []Event {
	switch ev := e.(type) {
	case RiderRequest:
		return s.riderRequest(ev)
	case DriverRequest:
		return s.driverRequest(ev)
	case Cancellation:
		return s.cancellation(ev)
	case Pickup:
		return s.pickup(ev)
	case Dropoff:
		return s.dropoff(ev)
	default:
		panic(fmt.Sprintf("sim: unhandled event %T", e))
	}
}
