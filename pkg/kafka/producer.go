package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/creasty/defaults"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ProducerConfig holds writer settings. Zero values take the `default` tags.
type ProducerConfig struct {
	Brokers      []string
	RequiredAcks int           `default:"-1"`
	Compression  string        `default:"snappy"`
	MaxAttempts  int           `default:"3"`
	WriteTimeout time.Duration `default:"10s"`
	ReadTimeout  time.Duration `default:"10s"`
	BatchSize    int           `default:"100"`
	BatchBytes   int           `default:"1048576"`
	BatchTimeout time.Duration `default:"50ms"`
	Async        bool
	// HashByKey keeps all messages of one key on one partition, in order.
	HashByKey bool
}

// Producer publishes JSON values to Kafka topics.
type Producer struct {
	writer MessageWriter
	comp   string
	stats  *producerStats
}

// NewProducer creates a producer over a kafka.Writer.
func NewProducer(cfg ProducerConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("producer defaults: %w", err)
	}

	bal := kafka.Balancer(&kafka.LeastBytes{})
	if cfg.HashByKey {
		bal = &kafka.Hash{}
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     bal,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:  parseCompression(cfg.Compression),
		MaxAttempts:  cfg.MaxAttempts,
		WriteTimeout: cfg.WriteTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		BatchSize:    cfg.BatchSize,
		BatchBytes:   int64(cfg.BatchBytes),
		BatchTimeout: cfg.BatchTimeout,
		Async:        cfg.Async,
	}

	return NewProducerWithWriter(writer, cfg.Compression), nil
}

// NewProducerWithWriter wraps an existing writer; tests pass a fake.
func NewProducerWithWriter(w MessageWriter, compression string) *Producer {
	return &Producer{writer: w, comp: compression, stats: producerMetrics()}
}

// Message is one record to publish. Values other than []byte and string are
// JSON encoded.
type Message struct {
	Key   []byte
	Value any
}

// PublishBatch writes all messages to topic in one call, stamped with the
// same time. An encoding failure aborts before anything is written.
func (p *Producer) PublishBatch(ctx context.Context, topic string, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}
	now := time.Now()
	out := make([]kafka.Message, len(messages))
	var size int
	for i, m := range messages {
		v, err := encode(m.Value)
		if err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
		size += len(v)
		out[i] = kafka.Message{Topic: topic, Key: m.Key, Value: v, Time: now}
	}

	err := p.writer.WriteMessages(ctx, out...)
	p.stats.observe(topic, p.comp, len(out), size, time.Since(now), err)
	return err
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func encode(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	return b, nil
}

var compressionCodecs = map[string]kafka.Compression{
	"gzip":   kafka.Gzip,
	"snappy": kafka.Snappy,
	"lz4":    kafka.Lz4,
	"zstd":   kafka.Zstd,
}

// parseCompression falls back to snappy for unknown names.
func parseCompression(name string) kafka.Compression {
	if c, ok := compressionCodecs[name]; ok {
		return c
	}
	return kafka.Snappy
}

type producerStats struct {
	messages *prometheus.CounterVec
	bytes    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

var (
	stats     *producerStats
	statsOnce sync.Once
)

func producerMetrics() *producerStats {
	statsOnce.Do(func() {
		stats = &producerStats{
			messages: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "macrolens_kafka_messages_total",
				Help: "Messages handed to the Kafka writer, by outcome.",
			}, []string{"topic", "compression", "result"}),
			bytes: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "macrolens_kafka_bytes_total",
				Help: "Encoded payload bytes handed to the Kafka writer.",
			}, []string{"topic"}),
			latency: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "macrolens_kafka_publish_seconds",
				Help:    "WriteMessages latency per batch.",
				Buckets: prometheus.DefBuckets,
			}, []string{"topic"}),
		}
	})
	return stats
}

func (s *producerStats) observe(topic, comp string, count, size int, took time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.messages.WithLabelValues(topic, comp, result).Add(float64(count))
	s.bytes.WithLabelValues(topic).Add(float64(size))
	s.latency.WithLabelValues(topic).Observe(took.Seconds())
}
