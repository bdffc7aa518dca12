package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/example/ride-sim/internal/observability"
	"github.com/example/ride-sim/internal/sim"
)

const (
	amqpQueueSize      = 1024
	amqpPublishTimeout = 2 * time.Second
)

// AMQPPublisher fans simulation traces out through a RabbitMQ fanout
// exchange. The routing key is the run id. Traces are queued and published
// by a background goroutine so a slow broker never stalls a run.
type AMQPPublisher struct {
	exchange string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel

	qmu    sync.RWMutex
	queue  chan TraceMessage
	closed bool
	wg     sync.WaitGroup
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(10 * time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp declare exchange %q: %w", exchange, err)
	}
	p := &AMQPPublisher{exchange: exchange, conn: conn, ch: ch}
	p.start(p.PublishTrace)
	return p, nil
}

// start launches the goroutine that drains the queue through publish.
func (p *AMQPPublisher) start(publish func(context.Context, TraceMessage) error) {
	p.queue = make(chan TraceMessage, amqpQueueSize)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for m := range p.queue {
			ctx, cancel := context.WithTimeout(context.Background(), amqpPublishTimeout)
			_ = publish(ctx, m)
			cancel()
		}
	}()
}

func (p *AMQPPublisher) PublishTrace(ctx context.Context, m TraceMessage) error {
	body, err := json.Marshal(m)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil || p.ch.IsClosed() {
		return fmt.Errorf("amqp: publish channel is not open")
	}
	return p.ch.PublishWithContext(ctx, p.exchange, m.RunID, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

// enqueue drops m when the queue is full or the publisher is closed.
func (p *AMQPPublisher) enqueue(m TraceMessage) {
	p.qmu.RLock()
	defer p.qmu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.queue <- m:
	default:
		observability.TracesDropped.WithLabelValues("amqp").Inc()
	}
}

// TraceFor returns a best-effort tracer for run runID.
func (p *AMQPPublisher) TraceFor(runID string) sim.Tracer {
	return sim.TracerFunc(func(e sim.Event) {
		p.enqueue(TraceMessage{RunID: runID, TraceRecord: sim.RecordOf(e)})
	})
}

// Close publishes what is already queued, then closes the connection.
func (p *AMQPPublisher) Close() error {
	p.qmu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.qmu.Unlock()
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		return err
	}
	return nil
}
