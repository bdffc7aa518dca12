package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/ride-sim/internal/sim"
)

// TraceMessage is a trace record tagged with the run that produced it.
type TraceMessage struct {
	RunID string `json:"run_id"`
	sim.TraceRecord
}

// messageWriter is the part of *kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer publishes simulation traces, keyed by run id so that one
// run's events stay on one partition in order.
type KafkaProducer struct {
	writer messageWriter
}

func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      brokers,
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
	})
	return &KafkaProducer{writer: w}
}

func (k *KafkaProducer) PublishTrace(ctx context.Context, m TraceMessage) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(m.RunID), Value: b})
}

// TraceFor returns a tracer that publishes every event of run runID.
// Publishing is best effort.
func (k *KafkaProducer) TraceFor(runID string) sim.Tracer {
	return sim.TracerFunc(func(e sim.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = k.PublishTrace(ctx, TraceMessage{RunID: runID, TraceRecord: sim.RecordOf(e)})
	})
}

func (k *KafkaProducer) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
