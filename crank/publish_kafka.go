package crank

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	events "github.com/0x5487/orderbook-events"
	"github.com/0x5487/orderbook-events/protocol"
)

const (
	defaultKafkaBatchSize    = 100
	defaultKafkaBatchTimeout = 10 * time.Millisecond
	defaultKafkaWriteTimeout = 10 * time.Second
)

// KafkaPublisherOptions configures a KafkaPublisher. The zero value picks
// the defaults.
type KafkaPublisherOptions struct {
	// BatchSize and BatchTimeout tune the writer's internal batching.
	BatchSize    int
	BatchTimeout time.Duration
	WriteTimeout time.Duration

	// Instrument, when set, annotates messages with decimal price and
	// quantity strings so feed consumers do not need the tick and lot sizes.
	Instrument *events.Instrument

	// Serializer encodes message payloads. nil means JSON.
	Serializer protocol.Serializer
}

// KafkaPublisher ships drained events to a Kafka topic, one message per
// event, keyed by order id so every order's history lands on one partition
// in order. Implements PublishEvents.
type KafkaPublisher struct {
	writer     *kafka.Writer
	serializer protocol.Serializer
	instrument *events.Instrument
}

// NewKafkaPublisher creates a publisher with default options.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return NewKafkaPublisherWithOptions(brokers, topic, KafkaPublisherOptions{})
}

// NewKafkaPublisherWithOptions creates a publisher with custom options.
func NewKafkaPublisherWithOptions(brokers []string, topic string, opts KafkaPublisherOptions) *KafkaPublisher {
	if opts.BatchSize == 0 {
		opts.BatchSize = defaultKafkaBatchSize
	}
	if opts.BatchTimeout == 0 {
		opts.BatchTimeout = defaultKafkaBatchTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = defaultKafkaWriteTimeout
	}
	if opts.Serializer == nil {
		opts.Serializer = protocol.JSONSerializer{}
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.CRC32Balancer{}, // Better distribution
		BatchSize:    opts.BatchSize,
		BatchTimeout: opts.BatchTimeout,
		WriteTimeout: opts.WriteTimeout,
		RequiredAcks: kafka.RequireOne,
		Compression:  kafka.Snappy,
		Async:        false, // Synchronous so unacknowledged batches are redelivered
	}

	return &KafkaPublisher{
		writer:     writer,
		serializer: opts.Serializer,
		instrument: opts.Instrument,
	}
}

// feedMessage is the payload shipped per event. The embedded record carries
// the raw integer fields; the decimal annotations are added when the
// publisher knows the market's instrument.
type feedMessage struct {
	events.EventRecord
	MarketID string `json:"market_id,omitempty"`
	Price    string `json:"price,omitempty"`
	Quantity string `json:"quantity,omitempty"`
}

// Publish ships the batch. Implements PublishEvents; failures are logged
// rather than returned, and the queue side redelivers because the batch was
// never acknowledged downstream.
func (p *KafkaPublisher) Publish(evs ...events.Event) {
	if len(evs) == 0 {
		return
	}

	msgs := make([]kafka.Message, 0, len(evs))
	now := time.Now()
	for _, ev := range evs {
		msg, err := p.message(ev, now)
		if err != nil {
			logger.Error("encode feed message failed", "error", err)
			continue
		}
		msgs = append(msgs, msg)
	}

	if err := p.writer.WriteMessages(context.Background(), msgs...); err != nil {
		logger.Error("publish events to kafka failed", "events", len(msgs), "error", err)
	}
}

func (p *KafkaPublisher) message(ev events.Event, now time.Time) (kafka.Message, error) {
	payload := feedMessage{EventRecord: events.NewEventRecord(ev)}

	var id events.OrderID
	var assetQty uint64
	switch e := ev.(type) {
	case *events.Fill:
		id = e.MakerOrderID
		assetQty = e.AssetSize
	case *events.Out:
		id = e.OrderID
		assetQty = e.AssetSize
	}
	if p.instrument != nil {
		payload.MarketID = p.instrument.MarketID
		payload.Price = p.instrument.TicksToPrice(id.Price()).String()
		payload.Quantity = p.instrument.LotsToQty(assetQty).String()
	}

	value, err := p.serializer.Marshal(payload)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(id.String()),
		Value: value,
		Time:  now,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(payload.EventRecord.Type)},
		},
	}, nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
